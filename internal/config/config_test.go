package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMergeFile_OverlaysOnlyPresentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "listen_addr: \":9000\"\nscrollback_bytes: 4096\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	s := Settings{
		ListenAddr:         ":8000",
		DataPath:           "/app/data",
		ScrollbackBytes:    1048576,
		SessionIdleTimeout: "30m",
	}
	if err := mergeFile(&s, path); err != nil {
		t.Fatalf("mergeFile: %v", err)
	}

	if s.ListenAddr != ":9000" {
		t.Errorf("got listen addr %q, want :9000", s.ListenAddr)
	}
	if s.ScrollbackBytes != 4096 {
		t.Errorf("got scrollback %d, want 4096", s.ScrollbackBytes)
	}
	if s.DataPath != "/app/data" {
		t.Errorf("data path %q should be untouched", s.DataPath)
	}
	if s.SessionIdleTimeout != "30m" {
		t.Errorf("idle timeout %q should be untouched", s.SessionIdleTimeout)
	}
}

func TestMergeFile_MissingFile(t *testing.T) {
	var s Settings
	if err := mergeFile(&s, filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestMergeFile_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("listen_addr: [unclosed"), 0644)

	var s Settings
	if err := mergeFile(&s, path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestLoad_DerivesPaths(t *testing.T) {
	os.Setenv("WEBSHELL_DATA_PATH", t.TempDir())
	defer os.Unsetenv("WEBSHELL_DATA_PATH")

	Load()

	if Cfg.DatabasePath != filepath.Join(Cfg.DataPath, "webshell.db") {
		t.Errorf("got database path %q", Cfg.DatabasePath)
	}
	if Cfg.TranscriptDir != filepath.Join(Cfg.DataPath, "transcripts") {
		t.Errorf("got transcript dir %q", Cfg.TranscriptDir)
	}
	if Cfg.LogPath != filepath.Join(Cfg.DataPath, "webshell.log") {
		t.Errorf("got log path %q", Cfg.LogPath)
	}
}
