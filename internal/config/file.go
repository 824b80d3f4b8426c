package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// mergeFile overlays settings from a YAML file onto s. Only keys present in
// the file are touched, so environment values survive for everything else.
func mergeFile(s *Settings, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var overlay struct {
		ListenAddr         *string `yaml:"listen_addr"`
		DataPath           *string `yaml:"data_path"`
		DatabasePath       *string `yaml:"database_path"`
		TranscriptDir      *string `yaml:"transcript_dir"`
		LogPath            *string `yaml:"log_path"`
		ScrollbackBytes    *int    `yaml:"scrollback_bytes"`
		SessionIdleTimeout *string `yaml:"session_idle_timeout"`
	}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if overlay.ListenAddr != nil {
		s.ListenAddr = *overlay.ListenAddr
	}
	if overlay.DataPath != nil {
		s.DataPath = *overlay.DataPath
	}
	if overlay.DatabasePath != nil {
		s.DatabasePath = *overlay.DatabasePath
	}
	if overlay.TranscriptDir != nil {
		s.TranscriptDir = *overlay.TranscriptDir
	}
	if overlay.LogPath != nil {
		s.LogPath = *overlay.LogPath
	}
	if overlay.ScrollbackBytes != nil {
		s.ScrollbackBytes = *overlay.ScrollbackBytes
	}
	if overlay.SessionIdleTimeout != nil {
		s.SessionIdleTimeout = *overlay.SessionIdleTimeout
	}
	return nil
}
