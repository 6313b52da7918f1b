package transport

import "testing"

func TestCloneIsIndependentlyConsumable(t *testing.T) {
	original := &Request{
		Method: "PUT",
		Path:   "/posts/1",
		Header: map[string][]string{"Content-Type": {"application/json"}},
		Body:   []byte(`{"title":"t"}`),
	}

	clone := original.Clone()
	clone.Body[0] = 'X'
	clone.Header["Content-Type"][0] = "text/plain"

	if string(original.Body) != `{"title":"t"}` {
		t.Fatalf("mutating clone body mutated original: %s", original.Body)
	}
	if original.Header["Content-Type"][0] != "application/json" {
		t.Fatalf("mutating clone header mutated original: %v", original.Header)
	}
}

func TestHeaderGetIsCaseInsensitive(t *testing.T) {
	req := &Request{Header: map[string][]string{"User-Agent": {"conformist/1.0"}}}
	v, ok := req.HeaderGet("user-agent")
	if !ok || v != "conformist/1.0" {
		t.Fatalf("got %q, %v", v, ok)
	}
}
