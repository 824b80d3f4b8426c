package transport

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// DemoPrompt is the shell prompt emitted by the simulated demo shell.
const DemoPrompt = "demo@localhost:~$ "

// defaultDemoDelay mimics network latency between a command and its reply.
const defaultDemoDelay = 300 * time.Millisecond

// demoStream is a simulated remote shell implementing the Stream contract.
// It echoes keystrokes, understands a small command vocabulary, and can
// enter and leave simulated python and node REPLs. Responses are emitted
// after an artificial delay.
type demoStream struct {
	mu     sync.Mutex
	cb     Callbacks
	mode   string // "" = shell, "python", "node"
	line   []byte
	delay  time.Duration
	closed bool
	queue  chan string
	done   chan struct{}

	emitMu    sync.Mutex
	closeOnce sync.Once
}

// NewDemoStream creates a simulated shell stream. A delay of 0 uses the
// default latency.
func NewDemoStream(delay time.Duration) Stream {
	if delay <= 0 {
		delay = defaultDemoDelay
	}
	return &demoStream{
		delay: delay,
		queue: make(chan string, 64),
		done:  make(chan struct{}),
	}
}

func (d *demoStream) Start(cb Callbacks) {
	d.mu.Lock()
	d.cb = cb
	d.mu.Unlock()

	go func() {
		time.Sleep(d.delay)
		d.emit("Connected to demo shell (simulated). Type 'help' for commands.\r\n" + DemoPrompt)
		for {
			select {
			case <-d.done:
				return
			case line := <-d.queue:
				time.Sleep(d.delay)
				d.emit(d.exec(line))
			}
		}
	}()
}

// Write frames incoming keystrokes into lines. The echo for a chunk is
// emitted immediately; completed lines are executed on the worker after
// the artificial delay.
func (d *demoStream) Write(p []byte) (int, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return 0, fmt.Errorf("demo stream closed")
	}

	var echo []byte
	var lines []string
	for _, b := range p {
		switch {
		case b == '\r' || b == '\n':
			echo = append(echo, '\r', '\n')
			lines = append(lines, string(d.line))
			d.line = nil
		case b == 0x7f || b == 0x08:
			if len(d.line) > 0 {
				d.line = d.line[:len(d.line)-1]
				echo = append(echo, '\b', ' ', '\b')
			}
		default:
			d.line = append(d.line, b)
			echo = append(echo, b)
		}
	}
	d.mu.Unlock()

	if len(echo) > 0 {
		d.emit(string(echo))
	}
	for _, line := range lines {
		select {
		case d.queue <- line:
		default: // drop if the worker is hopelessly behind
		}
	}
	return len(p), nil
}

func (d *demoStream) Resize(cols, rows uint16) error { return nil }

func (d *demoStream) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.done)
	cb := d.cb
	d.mu.Unlock()

	d.closeOnce.Do(func() {
		if cb.OnClose != nil {
			cb.OnClose(nil)
		}
	})
	return nil
}

func (d *demoStream) emit(text string) {
	d.mu.Lock()
	cb := d.cb
	closed := d.closed
	d.mu.Unlock()
	if closed || cb.OnData == nil || text == "" {
		return
	}
	d.emitMu.Lock()
	cb.OnData([]byte(text))
	d.emitMu.Unlock()
}

func (d *demoStream) exec(line string) string {
	cmd := strings.TrimSpace(line)

	d.mu.Lock()
	mode := d.mode
	d.mu.Unlock()

	switch mode {
	case "python":
		return d.execPython(cmd)
	case "node":
		return d.execNode(cmd)
	default:
		return d.execShell(cmd)
	}
}

func (d *demoStream) setMode(mode string) {
	d.mu.Lock()
	d.mode = mode
	d.mu.Unlock()
}

func (d *demoStream) execShell(cmd string) string {
	switch {
	case cmd == "":
		return DemoPrompt
	case cmd == "ls":
		return "file1.txt  file2.txt  notes.md\r\n" + DemoPrompt
	case cmd == "pwd":
		return "/home/demo\r\n" + DemoPrompt
	case cmd == "whoami":
		return "demo\r\n" + DemoPrompt
	case cmd == "date":
		return time.Now().Format(time.UnixDate) + "\r\n" + DemoPrompt
	case strings.HasPrefix(cmd, "echo "):
		return strings.TrimSpace(strings.TrimPrefix(cmd, "echo ")) + "\r\n" + DemoPrompt
	case cmd == "help":
		return "demo shell commands: ls, pwd, whoami, date, echo <text>, python, node, exit\r\n" + DemoPrompt
	case cmd == "python" || cmd == "python3":
		d.setMode("python")
		return "Python 3.11.4 (main, Jun  7 2024, 00:00:00) [GCC 12.2.0] on linux\r\n" +
			"Type \"help\", \"copyright\", \"credits\" or \"license\" for more information.\r\n>>> "
	case cmd == "node":
		d.setMode("node")
		return "Welcome to Node.js v20.11.0.\r\nType \".help\" for more information.\r\n> "
	case cmd == "exit" || cmd == "logout":
		// Farewell must reach the callbacks before close stops emission.
		d.emit("logout\r\n")
		d.Close()
		return ""
	default:
		name := strings.Fields(cmd)[0]
		return "bash: " + name + ": command not found\r\n" + DemoPrompt
	}
}

func (d *demoStream) execPython(cmd string) string {
	switch {
	case cmd == "":
		return ">>> "
	case cmd == "exit()" || cmd == "quit()":
		d.setMode("")
		return DemoPrompt
	case strings.HasPrefix(cmd, "print(") && strings.HasSuffix(cmd, ")"):
		return quotedArg(cmd[len("print("):len(cmd)-1]) + "\r\n>>> "
	default:
		return ">>> "
	}
}

func (d *demoStream) execNode(cmd string) string {
	switch {
	case cmd == "":
		return "> "
	case cmd == ".exit":
		d.setMode("")
		return DemoPrompt
	case strings.HasPrefix(cmd, "console.log(") && strings.HasSuffix(cmd, ")"):
		return quotedArg(cmd[len("console.log("):len(cmd)-1]) + "\r\nundefined\r\n> "
	default:
		return "undefined\r\n> "
	}
}

// quotedArg strips one layer of matching quotes, so print("hello") and
// console.log('hi') render their literal.
func quotedArg(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
