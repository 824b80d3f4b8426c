package session

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"webshell/internal/transport"
)

// ErrNotFound is returned when a session id has no live registry entry.
var ErrNotFound = errors.New("session not found")

// ValidationError reports invalid session-creation parameters. The message
// is user-correctable and surfaced verbatim.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// Params are the session-creation parameters.
type Params struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	AuthMethod string `json:"auth_method"`
	Password   string `json:"password"`
	PrivateKey string `json:"private_key"`
	Demo       bool   `json:"demo"`
}

// Registry exclusively owns all Session records. Attached clients hold
// non-owning references; removal always goes through the registry.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	// ScrollbackBytes is the rolling buffer cap for new sessions.
	ScrollbackBytes int
}

// NewRegistry creates an empty session registry.
func NewRegistry(scrollbackBytes int) *Registry {
	return &Registry{
		sessions:        make(map[string]*Session),
		ScrollbackBytes: scrollbackBytes,
	}
}

// Create validates the parameters and registers a new session. The
// transport is not connected yet; that happens on first join.
func (r *Registry) Create(p Params) (*Session, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	s := &Session{
		ID:        uuid.New().String(),
		Demo:      p.Demo,
		CreatedAt: time.Now(),
		Params: transport.Params{
			Host:       p.Host,
			Port:       p.Port,
			Username:   p.Username,
			AuthMethod: p.AuthMethod,
			Password:   p.Password,
			PrivateKey: []byte(p.PrivateKey),
		},
		buffer:  NewOutputBuffer(r.ScrollbackBytes),
		clients: make(map[Client]struct{}),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	log.Printf("[registry] created session %s (host=%s user=%s demo=%v)",
		s.ID, p.Host, p.Username, p.Demo)
	return s, nil
}

func validate(p Params) error {
	if p.Demo {
		return nil
	}
	if p.Host == "" {
		return &ValidationError{Field: "host", Msg: "host is required"}
	}
	if p.Username == "" {
		return &ValidationError{Field: "username", Msg: "username is required"}
	}
	switch p.AuthMethod {
	case transport.AuthPrivateKey:
		if p.PrivateKey == "" {
			return &ValidationError{Field: "private_key", Msg: "private key is required for key auth"}
		}
	case transport.AuthPassword, "":
		if p.Password == "" {
			return &ValidationError{Field: "password", Msg: "password is required for password auth"}
		}
	default:
		return &ValidationError{Field: "auth_method", Msg: "must be \"password\" or \"key\""}
	}
	return nil
}

// Get returns the session for id, or nil.
func (r *Registry) Get(id string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// Delete releases the session's transport and removes the record. It is
// idempotent; errors while closing an already-broken transport are logged
// and swallowed.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return
	}
	if st := s.ClearStream(); st != nil {
		if err := st.Close(); err != nil {
			log.Printf("[registry] close transport for %s: %v", id, err)
		}
	}
	log.Printf("[registry] deleted session %s", id)
}

// List returns summaries for all sessions.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Summary, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.Summarize())
	}
	return out
}

// All returns the live session records. Used by shutdown and cleanup.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
