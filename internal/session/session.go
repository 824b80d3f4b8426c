// Package session owns the per-session aggregate and the registry mapping
// opaque session identifiers to live state. The aggregate holds everything
// keyed by the session id in one place (transport handle, output buffer,
// attached clients, command framing state, REPL tag), so a session cannot
// be half-deleted across parallel tables.
package session

import (
	"sync"
	"time"

	"webshell/internal/command"
	"webshell/internal/repl"
	"webshell/internal/transport"
)

// Client is an attached observer connection. Implementations deliver
// events to one connected browser; send failures are the client's own
// problem and never propagate to the session.
type Client interface {
	SendOutput(data []byte) error
	SendError(msg string) error
	SendClosed() error
}

// Session is one logical remote-shell connection plus its attached
// observers. All mutable fields are guarded by mu; the relay is the only
// writer.
type Session struct {
	ID        string
	Params    transport.Params
	Demo      bool
	CreatedAt time.Time

	mu         sync.Mutex
	stream     transport.Stream
	buffer     *OutputBuffer
	clients    map[Client]struct{}
	detector   command.Detector
	replTag    repl.Tag
	connecting bool
	closed     bool
}

// Summary is the API-facing view of a session.
type Summary struct {
	ID        string    `json:"id"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	Username  string    `json:"username"`
	Demo      bool      `json:"demo"`
	Active    bool      `json:"active"`
	Clients   int       `json:"clients"`
	CreatedAt time.Time `json:"created_at"`
}

// Summarize returns the session's API view. Active means a transport is
// currently attached.
func (s *Session) Summarize() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		ID:        s.ID,
		Host:      s.Params.Host,
		Port:      s.Params.Port,
		Username:  s.Params.Username,
		Demo:      s.Demo,
		Active:    s.stream != nil,
		Clients:   len(s.clients),
		CreatedAt: s.CreatedAt,
	}
}

// Stream returns the transport stream, or nil before the first join.
func (s *Session) Stream() transport.Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

// StartConnect claims the right to establish the transport. Exactly one
// caller wins between stream attachment attempts; everyone else sees false
// and must treat the session as already connecting or connected.
func (s *Session) StartConnect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.stream != nil || s.connecting {
		return false
	}
	s.connecting = true
	return true
}

// AbortConnect releases the connect claim after a failed attempt.
func (s *Session) AbortConnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connecting = false
}

// SetStream attaches the transport handle and releases the connect claim.
// It reports false if the session was already torn down, in which case the
// caller must close the stream.
func (s *Session) SetStream(st transport.Stream) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connecting = false
	if s.closed {
		return false
	}
	s.stream = st
	return true
}

// ClearStream detaches and returns the transport handle.
func (s *Session) ClearStream() transport.Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stream
	s.stream = nil
	return st
}

// AddClient attaches an observer.
func (s *Session) AddClient(c Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = struct{}{}
}

// RemoveClient detaches an observer and reports how many remain.
func (s *Session) RemoveClient(c Client) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
	return len(s.clients)
}

// Clients returns a snapshot of the attached observers.
func (s *Session) Clients() []Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Client, 0, len(s.clients))
	for c := range s.clients {
		out = append(out, c)
	}
	return out
}

// Buffer returns the rolling output buffer.
func (s *Session) Buffer() *OutputBuffer { return s.buffer }

// FeedKeystrokes runs one input chunk through the command boundary
// detector and reports the completed command line, if any, together with
// the REPL tag in effect at the boundary.
func (s *Session) FeedKeystrokes(data []byte) (line string, complete bool, tag repl.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, complete = s.detector.Feed(data)
	return line, complete, s.replTag
}

// FlushKeystrokes drains uncommitted keystrokes at teardown.
func (s *Session) FlushKeystrokes() (line string, ok bool, tag repl.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok = s.detector.Flush()
	return line, ok, s.replTag
}

// TakeClients detaches and returns all observers in one step.
func (s *Session) TakeClients() []Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Client, 0, len(s.clients))
	for c := range s.clients {
		out = append(out, c)
	}
	s.clients = make(map[Client]struct{})
	return out
}

// REPLTag returns the current REPL mode hint.
func (s *Session) REPLTag() repl.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replTag
}

// ObserveOutput advances the REPL classifier with one output chunk.
func (s *Session) ObserveOutput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replTag = repl.Next(s.replTag, text)
}

// MarkClosed flags the session as torn down. It reports false if it was
// already closed, making teardown idempotent.
func (s *Session) MarkClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	return true
}

// Closed reports whether teardown has begun.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
