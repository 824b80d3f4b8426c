package transcript

import (
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
)

// Event is one parsed transcript line.
type Event struct {
	Time time.Time
	Type EventType
	Text string
}

var eventLineRe = regexp.MustCompile(`^\[([^\]]+)\] \[([A-Z_]+)\] (.*)$`)

// Parse extracts events from raw transcript content, discarding header
// comments, malformed lines, and all INPUT lines.
func Parse(raw string) []Event {
	var events []Event
	for _, line := range strings.Split(raw, "\n") {
		m := eventLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ts, err := time.Parse(timeLayout, m[1])
		if err != nil {
			continue
		}
		typ := EventType(m[2])
		switch typ {
		case EventCommand, EventREPLCommand, EventOutput, EventError, EventSystem:
			events = append(events, Event{Time: ts, Type: typ, Text: m[3]})
		}
	}
	return events
}

// CleanView reconstructs a command/response view from raw transcript
// content. Events are grouped per command: each COMMAND or REPL_COMMAND
// opens a block collecting everything until the next command.
func CleanView(raw string) string {
	events := Parse(raw)
	var b strings.Builder
	started := false

	for _, ev := range events {
		switch ev.Type {
		case EventCommand, EventREPLCommand:
			if started {
				b.WriteByte('\n')
			}
			b.WriteString("[" + ev.Time.Local().Format("2006-01-02 15:04:05") + "] $ ")
			b.WriteString(Unescape(ev.Text))
			b.WriteByte('\n')
			started = true
		case EventOutput:
			text := strings.TrimRight(Unescape(ev.Text), "\r\n")
			if text != "" {
				b.WriteString(text)
				b.WriteByte('\n')
			}
		case EventError:
			b.WriteString("[error] " + strings.TrimSpace(Unescape(ev.Text)) + "\n")
		case EventSystem:
			b.WriteString("[system] " + strings.TrimSpace(Unescape(ev.Text)) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

var (
	// promptLineRe matches lines that are nothing but a shell or REPL
	// prompt, with or without an user@host:path prefix.
	promptLineRe = regexp.MustCompile(
		`^([\w.-]+@[\w.-]+:[^\s]*\s*)?[$#%>]\s*$|^(>>>|\.\.\.|scala>|ghci>|Prelude[\w.]*>|irb\([^)]*\):\d+[:>*]\d*[>*]?)\s*$`)

	// promptPrefixRe strips a leading prompt from a line that continues
	// with real content (typically the echoed command). A bare "$" or ">"
	// is deliberately not matched here: mid-output those are usually data.
	promptPrefixRe = regexp.MustCompile(
		`^([\w.-]+@[\w.-]+:[^\s]*[$#%>]|>>>|\.\.\.|scala>|ghci>|Prelude[\w.]*>)\s+`)

	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// ReplayView reconstructs a terminal-replay oriented view: ANSI sequences
// are stripped, carriage-return overwrites are applied the way a real
// terminal would, command echoes and prompt lines are removed, and blank
// runs are collapsed.
func ReplayView(raw string) string {
	events := Parse(raw)
	var b strings.Builder
	var pending strings.Builder
	var lastCmd string

	flush := func() {
		if pending.Len() == 0 {
			return
		}
		cleaned := scrubOutput(pending.String(), lastCmd)
		pending.Reset()
		if cleaned != "" {
			b.WriteString(cleaned)
			b.WriteByte('\n')
		}
	}

	for _, ev := range events {
		switch ev.Type {
		case EventCommand, EventREPLCommand:
			flush()
			b.WriteString("\n$ " + Unescape(ev.Text) + "\n")
			lastCmd = strings.TrimSpace(Unescape(ev.Text))
		case EventOutput, EventError:
			pending.WriteString(Unescape(ev.Text))
		case EventSystem:
			flush()
			b.WriteString("[system] " + strings.TrimSpace(Unescape(ev.Text)) + "\n")
		}
	}
	flush()

	out := blankRunRe.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(out)
}

// scrubOutput cleans one command's raw output block for replay display.
func scrubOutput(s, cmd string) string {
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	lines := strings.Split(s, "\n")
	var kept []string
	echoPending := cmd != ""
	for _, raw := range lines {
		line := strings.TrimRight(overwriteCR(raw), " \t")
		if promptLineRe.MatchString(line) {
			continue
		}
		line = promptPrefixRe.ReplaceAllString(line, "")
		if echoPending {
			// Drop an exact echo of the command at the start of the block.
			if strings.TrimSpace(line) == "" {
				continue
			}
			echoPending = false
			if strings.TrimSpace(line) == cmd {
				continue
			}
		}
		kept = append(kept, line)
	}
	return strings.TrimRight(strings.Join(kept, "\n"), "\n")
}

// overwriteCR applies carriage-return semantics within one physical line:
// a \r moves the cursor to column zero and subsequent characters overwrite
// what was there. Characters beyond the overwritten region survive.
func overwriteCR(line string) string {
	if !strings.Contains(line, "\r") {
		return line
	}
	var screen []rune
	col := 0
	for _, r := range line {
		if r == '\r' {
			col = 0
			continue
		}
		if col < len(screen) {
			screen[col] = r
		} else {
			screen = append(screen, r)
		}
		col++
	}
	return string(screen)
}
