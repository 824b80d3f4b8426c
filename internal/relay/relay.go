// Package relay connects the pieces of a live session: it attaches client
// connections, establishes the transport on first join, fans transport
// output out to every attached client, frames keystrokes into transcript
// commands, and tears everything down when either side goes away.
package relay

import (
	"context"
	"errors"
	"log"

	"webshell/internal/repl"
	"webshell/internal/session"
	"webshell/internal/transcript"
	"webshell/internal/transport"
)

// ErrNotConnected is returned for input against a session whose transport
// is not established yet.
var ErrNotConnected = errors.New("session not connected")

// Relay multiplexes one transport stream per session across any number of
// attached clients. All per-session mutation funnels through here.
type Relay struct {
	registry *session.Registry
	recorder *transcript.Recorder

	// connectFn and demoFn are swappable for tests.
	connectFn func(ctx context.Context, p transport.Params) (transport.Stream, error)
	demoFn    func() transport.Stream
}

// New creates a Relay over the given registry and recorder.
func New(reg *session.Registry, rec *transcript.Recorder) *Relay {
	return &Relay{
		registry:  reg,
		recorder:  rec,
		connectFn: transport.Connect,
		demoFn:    func() transport.Stream { return transport.NewDemoStream(0) },
	}
}

// Join attaches a client to the session. On the first join the transport
// is connected (demo or SSH per the session's flag) and its output wired
// into the buffer, the classifier, the transcript, and the fan-out. Later
// joins get the rolling output buffer replayed.
func (r *Relay) Join(ctx context.Context, id string, c session.Client) error {
	s := r.registry.Get(id)
	if s == nil {
		return session.ErrNotFound
	}

	s.AddClient(c)

	// Only one joiner may establish the transport. Losers (including joins
	// racing a connect in flight) attach as observers and get whatever the
	// buffer already holds; live output follows via the fan-out.
	if !s.StartConnect() {
		if history := s.Buffer().Snapshot(); len(history) > 0 {
			if err := c.SendOutput(history); err != nil {
				log.Printf("[relay] replay to client on %s: %v", id, err)
			}
		}
		return nil
	}

	info := transcript.Info{Host: s.Params.Host, Username: s.Params.Username}
	if s.Demo {
		info = transcript.Info{Host: "localhost", Username: "demo"}
	}
	if !r.recorder.Exists(id) {
		r.recorder.Create(id, info)
	}

	var st transport.Stream
	if s.Demo {
		st = r.demoFn()
	} else {
		var err error
		st, err = r.connectFn(ctx, s.Params)
		if err != nil {
			s.AbortConnect()
			r.append(id, transcript.EventError, err.Error())
			r.Terminate(id, "connection failed")
			return err
		}
	}

	if !s.SetStream(st) {
		st.Close()
		return session.ErrNotFound
	}

	st.Start(transport.Callbacks{
		OnData:   func(data []byte) { r.handleOutput(s, data) },
		OnStderr: func(data []byte) { r.handleStderr(s, data) },
		OnClose:  func(err error) { r.handleClose(s, err) },
	})

	r.append(id, transcript.EventSystem, "session connected")
	return nil
}

// Input forwards keystrokes to the transport and through the command
// boundary detector. Completed lines become COMMAND or REPL_COMMAND
// transcript events depending on the session's REPL tag.
func (r *Relay) Input(id string, data []byte) error {
	s := r.registry.Get(id)
	if s == nil {
		return session.ErrNotFound
	}
	st := s.Stream()
	if st == nil {
		return ErrNotConnected
	}

	r.append(id, transcript.EventInput, string(data))

	if line, complete, tag := s.FeedKeystrokes(data); complete {
		r.append(id, commandType(tag), line)
	}

	if _, err := st.Write(data); err != nil {
		log.Printf("[relay] write to transport for %s: %v", id, err)
		return err
	}
	return nil
}

// Resize propagates new terminal dimensions, clamped to sane bounds.
// Failing to resize is non-fatal; errors are only logged.
func (r *Relay) Resize(id string, cols, rows uint16) {
	s := r.registry.Get(id)
	if s == nil {
		return
	}
	st := s.Stream()
	if st == nil {
		return
	}
	if cols > transport.MaxResizeCols {
		cols = transport.MaxResizeCols
	}
	if rows > transport.MaxResizeRows {
		rows = transport.MaxResizeRows
	}
	if err := st.Resize(cols, rows); err != nil {
		log.Printf("[relay] resize session %s: %v", id, err)
	}
}

// Detach removes a client from the session. A session that has no
// transport and no remaining observers is deleted; an established session
// stays alive so another client can rejoin and replay the buffer.
func (r *Relay) Detach(id string, c session.Client) {
	s := r.registry.Get(id)
	if s == nil {
		return
	}
	remaining := s.RemoveClient(c)
	if remaining == 0 && s.Stream() == nil {
		r.Terminate(id, "")
	}
}

// Terminate tears the session down: flushes any uncommitted keystrokes as
// an incomplete command, notifies and releases all clients, closes the
// transport, and removes the registry entry. Every step is best-effort.
func (r *Relay) Terminate(id string, reason string) {
	s := r.registry.Get(id)
	if s == nil {
		r.registry.Delete(id)
		return
	}
	if !s.MarkClosed() {
		return
	}

	if line, ok, tag := s.FlushKeystrokes(); ok {
		r.append(id, commandType(tag), line)
	}
	if reason != "" {
		r.append(id, transcript.EventSystem, reason)
	}

	for _, c := range s.TakeClients() {
		if err := c.SendClosed(); err != nil {
			log.Printf("[relay] notify client on %s: %v", id, err)
		}
	}

	r.registry.Delete(id)
}

// TerminateAll tears down every live session. Used at shutdown so pending
// command buffers are flushed into their transcripts.
func (r *Relay) TerminateAll(reason string) {
	for _, s := range r.registry.All() {
		r.Terminate(s.ID, reason)
	}
}

func (r *Relay) handleOutput(s *session.Session, data []byte) {
	if s.Closed() {
		return
	}
	s.Buffer().Write(data)
	for _, c := range s.Clients() {
		if err := c.SendOutput(data); err != nil {
			// Closed client connections are skipped, not errors.
			continue
		}
	}
	s.ObserveOutput(string(data))
	r.append(s.ID, transcript.EventOutput, string(data))
}

func (r *Relay) handleStderr(s *session.Session, data []byte) {
	if s.Closed() {
		return
	}
	for _, c := range s.Clients() {
		if err := c.SendOutput(data); err != nil {
			continue
		}
	}
	r.append(s.ID, transcript.EventError, string(data))
}

func (r *Relay) handleClose(s *session.Session, err error) {
	if s.Closed() {
		return
	}
	if err != nil {
		for _, c := range s.Clients() {
			if serr := c.SendError(err.Error()); serr != nil {
				continue
			}
		}
	}
	r.Terminate(s.ID, "connection closed")
}

// append writes a transcript event, auto-creating the transcript if the
// log went missing. Failures never interrupt the live session.
func (r *Relay) append(id string, typ transcript.EventType, text string) {
	err := r.recorder.Append(id, typ, text)
	if errors.Is(err, transcript.ErrNotFound) {
		if s := r.registry.Get(id); s != nil {
			info := transcript.Info{Host: s.Params.Host, Username: s.Params.Username}
			if s.Demo {
				info = transcript.Info{Host: "localhost", Username: "demo"}
			}
			r.recorder.Create(id, info)
			err = r.recorder.Append(id, typ, text)
		}
	}
	if err != nil {
		log.Printf("[relay] transcript append %s [%s]: %v", id, typ, err)
	}
}

func commandType(tag repl.Tag) transcript.EventType {
	if tag != repl.Shell {
		return transcript.EventREPLCommand
	}
	return transcript.EventCommand
}
