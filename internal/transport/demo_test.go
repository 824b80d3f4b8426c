package transport

import (
	"strings"
	"sync"
	"testing"
	"time"
)

// collector gathers stream events for assertions.
type collector struct {
	mu     sync.Mutex
	chunks []string
	closed bool
}

func (c *collector) callbacks() Callbacks {
	return Callbacks{
		OnData: func(data []byte) {
			c.mu.Lock()
			c.chunks = append(c.chunks, string(data))
			c.mu.Unlock()
		},
		OnClose: func(err error) {
			c.mu.Lock()
			c.closed = true
			c.mu.Unlock()
		},
	}
}

func (c *collector) text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.chunks, "")
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.chunks)
}

func (c *collector) reset() {
	c.mu.Lock()
	c.chunks = nil
	c.mu.Unlock()
}

func (c *collector) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func startDemo(t *testing.T) (Stream, *collector) {
	t.Helper()
	st := NewDemoStream(5 * time.Millisecond)
	c := &collector{}
	st.Start(c.callbacks())
	waitFor(t, func() bool { return strings.HasSuffix(c.text(), DemoPrompt) }, "banner prompt")
	c.reset()
	return st, c
}

func TestDemoStream_ListCommand(t *testing.T) {
	st, c := startDemo(t)
	defer st.Close()

	st.Write([]byte("ls\r"))
	waitFor(t, func() bool { return strings.HasSuffix(c.text(), DemoPrompt) }, "ls response")

	// Exactly two chunks: the echo and the delayed response.
	if got := c.count(); got != 2 {
		t.Errorf("got %d output chunks, want 2", got)
	}
	out := c.text()
	if !strings.Contains(out, "file1.txt") {
		t.Errorf("output %q should contain file1.txt", out)
	}
	if !strings.HasSuffix(out, DemoPrompt) {
		t.Errorf("output %q should end with the prompt", out)
	}
}

func TestDemoStream_EchoAndBackspace(t *testing.T) {
	st, c := startDemo(t)
	defer st.Close()

	st.Write([]byte("lz"))
	st.Write([]byte{0x7f})
	st.Write([]byte("s\r"))
	waitFor(t, func() bool { return strings.HasSuffix(c.text(), DemoPrompt) }, "ls response")

	if out := c.text(); !strings.Contains(out, "file1.txt") {
		t.Errorf("corrected command should run ls, got %q", out)
	}
}

func TestDemoStream_PythonREPL(t *testing.T) {
	st, c := startDemo(t)
	defer st.Close()

	st.Write([]byte("python\r"))
	waitFor(t, func() bool { return strings.HasSuffix(c.text(), ">>> ") }, "python prompt")

	c.reset()
	st.Write([]byte("print(\"hello\")\r"))
	waitFor(t, func() bool { return strings.HasSuffix(c.text(), ">>> ") }, "print response")
	if out := c.text(); !strings.Contains(out, "hello") {
		t.Errorf("output %q should contain hello", out)
	}

	c.reset()
	st.Write([]byte("exit()\r"))
	waitFor(t, func() bool { return strings.HasSuffix(c.text(), DemoPrompt) }, "shell prompt after exit")
}

func TestDemoStream_NodeREPL(t *testing.T) {
	st, c := startDemo(t)
	defer st.Close()

	st.Write([]byte("node\r"))
	waitFor(t, func() bool { return strings.HasSuffix(c.text(), "> ") }, "node prompt")
	if out := c.text(); !strings.Contains(out, "Node.js") {
		t.Errorf("banner %q should mention Node.js", out)
	}

	c.reset()
	st.Write([]byte(".exit\r"))
	waitFor(t, func() bool { return strings.HasSuffix(c.text(), DemoPrompt) }, "shell prompt after .exit")
}

func TestDemoStream_UnknownCommand(t *testing.T) {
	st, c := startDemo(t)
	defer st.Close()

	st.Write([]byte("frobnicate\r"))
	waitFor(t, func() bool { return strings.Contains(c.text(), "command not found") }, "error output")
}

func TestDemoStream_CloseIsIdempotent(t *testing.T) {
	st, c := startDemo(t)

	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	waitFor(t, c.isClosed, "close callback")
	if err := st.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if _, err := st.Write([]byte("x")); err == nil {
		t.Error("write after close should fail")
	}
}

func TestDemoStream_ExitClosesStream(t *testing.T) {
	st, c := startDemo(t)
	defer st.Close()

	st.Write([]byte("exit\r"))
	waitFor(t, c.isClosed, "close after exit")

	// The farewell is delivered before the stream stops emitting.
	if out := c.text(); !strings.Contains(out, "logout") {
		t.Errorf("output %q should contain the logout farewell", out)
	}
}
