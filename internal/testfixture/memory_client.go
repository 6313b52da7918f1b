package testfixture

import (
	"context"
	"fmt"
	"sync"

	"github.com/lerian-tools/conformist/internal/transport"
)

// MemoryClient is an in-memory transport.ServiceClient that dispatches to
// registered handlers by (method, path), useful for exercising
// PropertyEngine and Orchestrator without a real HTTP server.
type MemoryClient struct {
	mu       sync.Mutex
	handlers map[string]Handler
	failNext int
	calls    []*transport.Request
}

// Handler produces a response for one request.
type Handler func(req *transport.Request) *transport.Response

// NewMemoryClient builds an empty MemoryClient; unregistered routes answer
// 404 with an Allow-less body, matching an undeclared-route service.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{handlers: make(map[string]Handler)}
}

// Handle registers h for (method, path), overwriting any prior handler.
func (m *MemoryClient) Handle(method, path string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[routeKey(method, path)] = h
}

// FailNext makes the next n Send calls return an error instead of invoking
// a handler, exercising TransportError handling (§7).
func (m *MemoryClient) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = n
}

// Calls returns every request Send has received so far, in order.
func (m *MemoryClient) Calls() []*transport.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*transport.Request, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MemoryClient) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req.Clone())
	if m.failNext > 0 {
		m.failNext--
		m.mu.Unlock()
		return nil, fmt.Errorf("testfixture: injected transport failure")
	}
	h, ok := m.handlers[routeKey(req.Method, req.Path)]
	m.mu.Unlock()

	if !ok {
		return &transport.Response{StatusCode: 404}, nil
	}
	return h(req), nil
}

func routeKey(method, path string) string {
	return method + " " + path
}

var _ transport.ServiceClient = (*MemoryClient)(nil)
