package transcript

import (
	"strings"
	"testing"
)

const sampleRaw = `# Session transcript s1
# Host: demo@localhost
# Created: 2026-03-01T12:00:00.000Z
[2026-03-01T12:00:00.100Z] [SYSTEM] session connected
[2026-03-01T12:00:00.200Z] [OUTPUT] demo@localhost:~$ ` + `
[2026-03-01T12:00:01.000Z] [INPUT] l
[2026-03-01T12:00:01.100Z] [INPUT] s
[2026-03-01T12:00:01.200Z] [INPUT] \r
[2026-03-01T12:00:01.200Z] [COMMAND] ls
[2026-03-01T12:00:01.300Z] [OUTPUT] ls\r\n
[2026-03-01T12:00:01.600Z] [OUTPUT] file1.txt  file2.txt\r\ndemo@localhost:~$ ` + `
[2026-03-01T12:00:02.000Z] [ERROR] ls: broken pipe
[2026-03-01T12:00:03.000Z] [SYSTEM] connection closed
not a transcript line
`

func TestParse_DropsInputAndMalformed(t *testing.T) {
	events := Parse(sampleRaw)
	for _, ev := range events {
		if ev.Type == EventInput {
			t.Fatalf("INPUT event leaked through Parse: %+v", ev)
		}
	}
	// 2 SYSTEM + 3 OUTPUT + 1 COMMAND + 1 ERROR
	if len(events) != 7 {
		t.Errorf("got %d events, want 7", len(events))
	}
}

func TestCleanView_CommandGrouping(t *testing.T) {
	out := CleanView(sampleRaw)

	if strings.Contains(out, "INPUT") {
		t.Errorf("clean view must not contain INPUT lines:\n%s", out)
	}
	if !strings.Contains(out, "$ ls") {
		t.Errorf("clean view should contain the command marker:\n%s", out)
	}
	if !strings.Contains(out, "file1.txt  file2.txt") {
		t.Errorf("clean view should contain unescaped output:\n%s", out)
	}
	if !strings.Contains(out, "[error] ls: broken pipe") {
		t.Errorf("clean view should label errors:\n%s", out)
	}
	if !strings.Contains(out, "[system] connection closed") {
		t.Errorf("clean view should label system events:\n%s", out)
	}

	// The command block must come after the preamble and before its output.
	cmdIdx := strings.Index(out, "$ ls")
	outIdx := strings.Index(out, "file1.txt")
	if cmdIdx < 0 || outIdx < cmdIdx {
		t.Errorf("output should follow its command:\n%s", out)
	}
}

func TestReplayView_StripsEchoAndPrompts(t *testing.T) {
	out := ReplayView(sampleRaw)

	if strings.Contains(out, "demo@localhost:~$") {
		t.Errorf("replay view should strip prompt lines:\n%s", out)
	}
	if !strings.Contains(out, "$ ls") {
		t.Errorf("replay view should keep the command line:\n%s", out)
	}
	// The echoed "ls" right after the command must be gone, the real
	// listing kept.
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "$ ls" && i+1 < len(lines) {
			if strings.TrimSpace(lines[i+1]) == "ls" {
				t.Errorf("command echo not stripped:\n%s", out)
			}
		}
	}
	if !strings.Contains(out, "file1.txt  file2.txt") {
		t.Errorf("replay view should keep real output:\n%s", out)
	}
}

func TestReplayView_StripsANSI(t *testing.T) {
	raw := "[2026-03-01T12:00:00.000Z] [COMMAND] ls\n" +
		"[2026-03-01T12:00:00.100Z] [OUTPUT] \x1b[1;32mgreen\x1b[0m plain\n"
	out := ReplayView(raw)
	if strings.Contains(out, "\x1b") {
		t.Errorf("escape sequences survived: %q", out)
	}
	if !strings.Contains(out, "green plain") {
		t.Errorf("text content lost: %q", out)
	}
}

func TestReplayView_CollapsesBlankRuns(t *testing.T) {
	raw := "[2026-03-01T12:00:00.000Z] [COMMAND] a\n" +
		`[2026-03-01T12:00:00.100Z] [OUTPUT] x\n\n\n\n\ny` + "\n"
	out := ReplayView(raw)
	if strings.Contains(out, "\n\n\n") {
		t.Errorf("blank run not collapsed: %q", out)
	}
}

func TestOverwriteCR(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"12345\rab", "ab345"},
		{"ab\r12345", "12345"},
		{"progress 10%\rprogress 99%", "progress 99%"},
		{"\rhello", "hello"},
	}
	for _, tt := range tests {
		if got := overwriteCR(tt.in); got != tt.want {
			t.Errorf("overwriteCR(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanView_EmptyTranscript(t *testing.T) {
	if out := CleanView("# just a header\n"); out != "" {
		t.Errorf("got %q, want empty", out)
	}
}
