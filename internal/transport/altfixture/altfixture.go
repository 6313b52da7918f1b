// Package altfixture is a second, independent reference service routed
// with gorilla/mux instead of chi, used by the module's integration tests so
// a conformance run is driven against two structurally different routers. Grounded in the teacher's cmd/openapi, which is also
// mux-based.
package altfixture

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
)

// Note is the resource this fixture exposes; deliberately a different shape
// from fixture.Widget so the two services aren't accidentally interchangeable.
type Note struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

// Service is an in-memory notes service.
type Service struct {
	mu     sync.Mutex
	notes  map[string]Note
	nextID int
}

// New builds a Service seeded with one note.
func New() *Service {
	return &Service{
		notes:  map[string]Note{"1": {ID: "1", Body: "hello"}},
		nextID: 2,
	}
}

// Router builds the gorilla/mux router for this service.
func (s *Service) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/notes", s.list).Methods(http.MethodGet)
	r.HandleFunc("/notes", s.create).Methods(http.MethodPost)
	r.HandleFunc("/notes/{id}", s.get).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/notes/{id}", s.replace).Methods(http.MethodPut)
	r.HandleFunc("/notes/{id}", s.delete).Methods(http.MethodDelete)
	r.HandleFunc("/notes/{id}", s.options).Methods(http.MethodOptions)
	return r
}

func (s *Service) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]Note, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, n)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) create(w http.ResponseWriter, r *http.Request) {
	var in Note
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	id := strconv.Itoa(s.nextID)
	s.nextID++
	in.ID = id
	s.notes[id] = in
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, in)
}

func (s *Service) get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	note, ok := s.notes[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *Service) replace(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in Note
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	in.ID = id
	s.mu.Lock()
	s.notes[id] = in
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, in)
}

func (s *Service) delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	_, existed := s.notes[id]
	delete(s.notes, id)
	s.mu.Unlock()
	if !existed {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) options(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "GET, HEAD, PUT, DELETE, OPTIONS")
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
