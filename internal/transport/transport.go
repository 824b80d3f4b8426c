// Package transport abstracts the remote shell channel behind one capability
// contract with two variants: a real SSH-backed stream and a simulated demo
// stream for offline use. Callers pick the variant at session-creation time.
package transport

import "fmt"

// Auth method values accepted in Params.AuthMethod.
const (
	AuthPassword   = "password"
	AuthPrivateKey = "key"
)

// Params describes how to reach a remote shell.
type Params struct {
	Host       string
	Port       int
	Username   string
	AuthMethod string
	Password   string
	PrivateKey []byte
}

// Callbacks receives stream events. OnData and OnStderr are invoked from a
// single pump goroutine per stream, so calls are ordered. OnClose fires
// exactly once, after the final data callback.
type Callbacks struct {
	OnData   func(data []byte)
	OnStderr func(data []byte)
	OnClose  func(err error)
}

// Stream is a duplex byte channel to a running remote shell.
type Stream interface {
	// Start begins delivering events to cb. Must be called exactly once.
	Start(cb Callbacks)
	Write(p []byte) (int, error)
	Resize(cols, rows uint16) error
	Close() error
}

// AuthError indicates the remote host rejected our credentials.
type AuthError struct{ Err error }

func (e *AuthError) Error() string { return fmt.Sprintf("authentication failed: %v", e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// NetworkError indicates the remote host could not be reached.
type NetworkError struct{ Err error }

func (e *NetworkError) Error() string { return fmt.Sprintf("connection failed: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ChannelError indicates the connection succeeded but the interactive
// channel could not be established.
type ChannelError struct{ Err error }

func (e *ChannelError) Error() string { return fmt.Sprintf("channel setup failed: %v", e.Err) }
func (e *ChannelError) Unwrap() error { return e.Err }
