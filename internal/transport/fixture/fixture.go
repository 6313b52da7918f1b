// Package fixture is a tiny chi-routed reference HTTP service, used by
// integration tests as a concrete ServiceClient target.
// It implements a small widgets CRUD resource plus a /ws/echo upgrade
// endpoint, built the same way the teacher's internal/api.Router wires chi
// with chimiddleware.
package fixture

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

// Widget is the sole resource this fixture exposes.
type Widget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Service is an in-memory widgets service plus a websocket echo endpoint,
// exercised by integration tests against a real net/http.Server.
type Service struct {
	mu      sync.Mutex
	widgets map[string]Widget
	nextID  int
	auditN  int // increments on every successful create, mirroring the
	// teacher's access-log counter; GET handlers must not touch it (§4.5.1 safety).

	upgrader websocket.Upgrader
}

// New builds a Service seeded with a couple of widgets so GET/collection
// endpoints have something to return out of the box.
func New() *Service {
	s := &Service{
		widgets: map[string]Widget{
			"1": {ID: "1", Name: "sprocket"},
			"2": {ID: "2", Name: "cog"},
		},
		nextID:   3,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
	return s
}

// Router builds the chi mux for this service.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/widgets", s.list)
	r.Post("/widgets", s.create)
	r.Get("/widgets/{id}", s.get)
	r.Put("/widgets/{id}", s.replace)
	r.Delete("/widgets/{id}", s.delete)
	r.Get("/ws/echo", s.echo)

	return r
}

func (s *Service) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]Widget, 0, len(s.widgets))
	for _, widget := range s.widgets {
		out = append(out, widget)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) create(w http.ResponseWriter, r *http.Request) {
	var in Widget
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	id := strconv.Itoa(s.nextID)
	s.nextID++
	in.ID = id
	s.widgets[id] = in
	s.auditN++
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, in)
}

func (s *Service) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	widget, ok := s.widgets[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, widget)
}

// replace implements PUT idempotently: resending the same body twice leaves
// the same final state and returns the same status code both times (§4.5.2).
func (s *Service) replace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in Widget
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	in.ID = id
	s.mu.Lock()
	s.widgets[id] = in
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, in)
}

// delete implements DELETE idempotently: a repeat delete of an
// already-removed widget answers 404, matching §8 invariant 6's acceptance
// matrix for a first 200/202/204 followed by a 404.
func (s *Service) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	_, existed := s.widgets[id]
	delete(s.widgets, id)
	s.mu.Unlock()
	if !existed {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// echo upgrades to a websocket and echoes every message back. An upgrade is
// not driven through the request/response property pipeline; tests dial it
// directly with a websocket client.
func (s *Service) echo(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := conn.WriteMessage(mt, msg); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
