package session

import (
	"errors"
	"testing"

	"webshell/internal/transport"
)

func TestRegistry_CreateValidation(t *testing.T) {
	r := NewRegistry(0)

	tests := []struct {
		name   string
		params Params
		field  string
	}{
		{"missing host", Params{Username: "u", Password: "p"}, "host"},
		{"missing username", Params{Host: "h", Password: "p"}, "username"},
		{"missing password", Params{Host: "h", Username: "u"}, "password"},
		{"missing key", Params{Host: "h", Username: "u", AuthMethod: "key"}, "private_key"},
		{"bad auth method", Params{Host: "h", Username: "u", AuthMethod: "kerberos"}, "auth_method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Create(tt.params)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("got %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestRegistry_DemoNeedsNoCredentials(t *testing.T) {
	r := NewRegistry(0)
	s, err := r.Create(Params{Demo: true})
	if err != nil {
		t.Fatalf("demo create: %v", err)
	}
	if s.ID == "" {
		t.Error("expected a generated session id")
	}
	if got := r.Get(s.ID); got != s {
		t.Error("Get should return the created session")
	}
}

func TestRegistry_CreateWithPassword(t *testing.T) {
	r := NewRegistry(0)
	s, err := r.Create(Params{Host: "example.com", Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.Params.Host != "example.com" || s.Params.Username != "alice" {
		t.Errorf("params not carried over: %+v", s.Params)
	}
	sum := s.Summarize()
	if sum.Active {
		t.Error("session should not be active before the first join")
	}
}

func TestRegistry_DeleteIdempotent(t *testing.T) {
	r := NewRegistry(0)
	s, _ := r.Create(Params{Demo: true})

	r.Delete(s.ID)
	if r.Get(s.ID) != nil {
		t.Error("session should be gone after delete")
	}
	r.Delete(s.ID) // second delete must not panic
	r.Delete("no-such-id")
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry(0)
	r.Create(Params{Demo: true})
	r.Create(Params{Demo: true})

	if got := len(r.List()); got != 2 {
		t.Errorf("got %d sessions, want 2", got)
	}
	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}
}

type nopStream struct{}

func (nopStream) Start(transport.Callbacks)      {}
func (nopStream) Write(p []byte) (int, error)    { return len(p), nil }
func (nopStream) Resize(cols, rows uint16) error { return nil }
func (nopStream) Close() error                   { return nil }

func TestSession_StreamLifecycle(t *testing.T) {
	r := NewRegistry(0)
	s, _ := r.Create(Params{Demo: true})

	if !s.SetStream(nopStream{}) {
		t.Fatal("SetStream on a live session should succeed")
	}
	if !s.Summarize().Active {
		t.Error("session should be active with a stream")
	}

	if !s.MarkClosed() {
		t.Fatal("first MarkClosed should report true")
	}
	if s.MarkClosed() {
		t.Error("second MarkClosed should report false")
	}
	if s.SetStream(nopStream{}) {
		t.Error("SetStream after close should be refused")
	}
}
