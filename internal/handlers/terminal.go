package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"webshell/internal/relay"
	"webshell/internal/session"
)

// terminalRateLimit defines the maximum number of messages allowed per second
// per WebSocket connection. Messages beyond this rate are dropped.
const terminalRateLimit = 200

// terminalRateBurst is the token bucket burst size, allowing short bursts
// of rapid input (e.g., paste operations) before rate limiting kicks in.
const terminalRateBurst = 200

// maxInputMessageSize is the maximum size in bytes for a single terminal
// input message. Messages exceeding this limit are dropped.
const maxInputMessageSize = 64 * 1024 // 64 KB

type termResizeMsg struct {
	Type string `json:"type"`
	Cols uint16 `json:"cols"`
	Rows uint16 `json:"rows"`
}

type termEventMsg struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// TerminalWS handles the WebSocket connection for one attached client.
// Joining happens on accept; binary frames are keystrokes, text frames are
// JSON control messages (resize). The server sends terminal output as
// binary frames and error/closed notifications as JSON text frames.
//
// GET /api/v1/sessions/{id}/ws
func TerminalWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	clientConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("Failed to accept terminal websocket: %v", err)
		return
	}
	defer clientConn.CloseNow()

	ctx := r.Context()
	clientConn.SetReadLimit(1024 * 1024)

	client := &wsClient{conn: clientConn, ctx: ctx}

	if err := Rel.Join(ctx, id, client); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			client.SendError("Session not found")
			clientConn.Close(4004, "Session not found")
			return
		}
		// Transport-level failure: the session has already been torn down.
		client.SendError(err.Error())
		clientConn.Close(4500, "Failed to establish connection")
		return
	}
	defer Rel.Detach(id, client)

	limiter := newTokenBucket(terminalRateBurst, terminalRateLimit)

	// Browser -> shell input loop
	for {
		msgType, data, err := clientConn.Read(ctx)
		if err != nil {
			return
		}

		// Rate limit: drop messages that exceed the allowed rate
		if !limiter.allow() {
			continue
		}

		if msgType == websocket.MessageBinary {
			if len(data) > maxInputMessageSize {
				log.Printf("Terminal input message too large: session=%s size=%d limit=%d",
					id, len(data), maxInputMessageSize)
				continue
			}
			if err := Rel.Input(id, data); err != nil {
				if errors.Is(err, relay.ErrNotConnected) {
					client.SendError("Session not connected")
					continue
				}
				return
			}
		} else {
			var msg termResizeMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				client.SendError("Malformed message")
				continue
			}
			if msg.Type == "resize" && msg.Cols > 0 && msg.Rows > 0 {
				Rel.Resize(id, msg.Cols, msg.Rows)
			} else {
				client.SendError("Malformed message")
			}
		}
	}
}

// wsClient adapts a WebSocket connection to the session.Client contract.
// Writes are serialized so fan-out and control frames do not interleave.
type wsClient struct {
	conn *websocket.Conn
	ctx  context.Context
	mu   sync.Mutex
}

func (c *wsClient) SendOutput(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Write(c.ctx, websocket.MessageBinary, data)
}

func (c *wsClient) SendError(msg string) error {
	return c.sendEvent(termEventMsg{Type: "error", Message: msg})
}

func (c *wsClient) SendClosed() error {
	return c.sendEvent(termEventMsg{Type: "closed"})
}

func (c *wsClient) sendEvent(ev termEventMsg) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Write(c.ctx, websocket.MessageText, payload)
}

// tokenBucket implements a simple token bucket rate limiter for terminal messages.
type tokenBucket struct {
	tokens     int
	maxTokens  int
	refillRate int // tokens added per second
	lastRefill time.Time
}

func newTokenBucket(maxTokens, refillRate int) *tokenBucket {
	return &tokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// allow checks if a message is allowed and consumes a token.
func (tb *tokenBucket) allow() bool {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)
	tb.lastRefill = now

	// Refill tokens based on elapsed time
	tb.tokens += int(elapsed.Seconds() * float64(tb.refillRate))
	if tb.tokens > tb.maxTokens {
		tb.tokens = tb.maxTokens
	}

	if tb.tokens <= 0 {
		return false
	}
	tb.tokens--
	return true
}
