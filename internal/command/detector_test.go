package command

import "testing"

func feedAll(d *Detector, chunks ...string) (lines []string) {
	for _, c := range chunks {
		if line, ok := d.Feed([]byte(c)); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestDetector_SingleLineAcrossChunks(t *testing.T) {
	var d Detector
	lines := feedAll(&d, "l", "s", " -", "la", "\r")
	if len(lines) != 1 {
		t.Fatalf("got %d commands, want 1", len(lines))
	}
	if lines[0] != "ls -la" {
		t.Errorf("got %q, want %q", lines[0], "ls -la")
	}
}

func TestDetector_Backspace(t *testing.T) {
	var d Detector
	d.Feed([]byte("lz"))
	d.Feed([]byte{0x7f})
	d.Feed([]byte("s"))
	line, ok := d.Feed([]byte("\r"))
	if !ok {
		t.Fatal("expected a completed command")
	}
	if line != "ls" {
		t.Errorf("got %q, want %q", line, "ls")
	}
}

func TestDetector_BackspaceRemovesFullRune(t *testing.T) {
	var d Detector
	d.Feed([]byte("é"))
	d.Feed([]byte{0x7f})
	d.Feed([]byte("x"))
	line, ok := d.Feed([]byte("\r"))
	if !ok || line != "x" {
		t.Errorf("got %q (ok=%v), want %q", line, ok, "x")
	}
}

func TestDetector_BackspaceOnEmptyBuffer(t *testing.T) {
	var d Detector
	d.Feed([]byte{0x08})
	d.Feed([]byte("pwd"))
	line, ok := d.Feed([]byte("\n"))
	if !ok || line != "pwd" {
		t.Errorf("got %q (ok=%v), want %q", line, ok, "pwd")
	}
}

func TestDetector_EmptyLineNotEmitted(t *testing.T) {
	var d Detector
	if _, ok := d.Feed([]byte("\r")); ok {
		t.Error("empty line should not produce a command")
	}
	if _, ok := d.Feed([]byte("   \r")); ok {
		t.Error("whitespace-only line should not produce a command")
	}
}

func TestDetector_RemainderSeedsNextLine(t *testing.T) {
	var d Detector
	line, ok := d.Feed([]byte("ls\recho hi"))
	if !ok || line != "ls" {
		t.Fatalf("got %q (ok=%v), want %q", line, ok, "ls")
	}
	line, ok = d.Feed([]byte("\r"))
	if !ok || line != "echo hi" {
		t.Errorf("got %q (ok=%v), want %q", line, ok, "echo hi")
	}
}

func TestDetector_ExtraTerminatorsDiscarded(t *testing.T) {
	var d Detector
	line, ok := d.Feed([]byte("ls\r\n"))
	if !ok || line != "ls" {
		t.Fatalf("got %q (ok=%v), want %q", line, ok, "ls")
	}
	// The \n after the \r must not linger in the buffer.
	if d.Pending() {
		t.Error("buffer should be empty after CRLF")
	}
}

func TestDetector_FlushIncomplete(t *testing.T) {
	var d Detector
	d.Feed([]byte("foo"))
	line, ok := d.Flush()
	if !ok {
		t.Fatal("expected an incomplete command on flush")
	}
	if line != "foo (incomplete)" {
		t.Errorf("got %q, want %q", line, "foo (incomplete)")
	}

	// A second flush is a no-op.
	if _, ok := d.Flush(); ok {
		t.Error("second flush should produce nothing")
	}
}

func TestDetector_FlushWithoutPending(t *testing.T) {
	var d Detector
	if _, ok := d.Flush(); ok {
		t.Error("flush on a fresh detector should produce nothing")
	}

	d.Feed([]byte("ls\r"))
	if _, ok := d.Flush(); ok {
		t.Error("flush after a committed command should produce nothing")
	}
}
