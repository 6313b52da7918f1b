package catalog

import "testing"

func TestGlobMatch(t *testing.T) {
	cases := []struct {
		pattern, path string
		want          bool
	}{
		{"/users/*", "/users/42", true},
		{"/users/*", "/users/42/posts", true},
		{"/users/{id}", "/users/42", true},
		{"/users/{id}", "/users/42/posts", false},
		{"/admin/*", "/users/42", false},
		{"*", "/anything/at/all", true},
	}
	for _, tc := range cases {
		if got := GlobMatch(tc.pattern, tc.path); got != tc.want {
			t.Errorf("GlobMatch(%q, %q) = %v, want %v", tc.pattern, tc.path, got, tc.want)
		}
	}
}

func TestAnyGlobMatch(t *testing.T) {
	patterns := []string{"/admin/*", "/users/{id}"}
	if !AnyGlobMatch(patterns, "/users/7") {
		t.Fatal("expected match against /users/{id}")
	}
	if AnyGlobMatch(patterns, "/posts/7") {
		t.Fatal("expected no match")
	}
}

func TestCompileGlobIsCached(t *testing.T) {
	re1, err := compileGlob("/users/{id}")
	if err != nil {
		t.Fatal(err)
	}
	re2, err := compileGlob("/users/{id}")
	if err != nil {
		t.Fatal(err)
	}
	if re1 != re2 {
		t.Fatal("expected cached regexp to be reused")
	}
}
