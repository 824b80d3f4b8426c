package config

import (
	"log"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

type Settings struct {
	ListenAddr    string `envconfig:"LISTEN_ADDR" default:":8000" yaml:"listen_addr"`
	DataPath      string `envconfig:"DATA_PATH" default:"/app/data" yaml:"data_path"`
	DatabasePath  string `envconfig:"DATABASE_PATH" default:"" yaml:"database_path"`
	TranscriptDir string `envconfig:"TRANSCRIPT_DIR" default:"" yaml:"transcript_dir"`
	LogPath       string `envconfig:"LOG_PATH" default:"" yaml:"log_path"`

	// Terminal session settings
	ScrollbackBytes    int    `envconfig:"SCROLLBACK_BYTES" default:"1048576" yaml:"scrollback_bytes"`
	SessionIdleTimeout string `envconfig:"SESSION_IDLE_TIMEOUT" default:"30m" yaml:"session_idle_timeout"`

	// ConfigFile points to an optional YAML file merged over the
	// environment-derived settings.
	ConfigFile string `envconfig:"CONFIG_FILE" default:"" yaml:"-"`
}

var Cfg Settings

func Load() {
	if err := envconfig.Process("WEBSHELL", &Cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if Cfg.ConfigFile != "" {
		if err := mergeFile(&Cfg, Cfg.ConfigFile); err != nil {
			log.Printf("WARNING: config file %s: %v", Cfg.ConfigFile, err)
		}
	}
	if Cfg.DatabasePath == "" {
		Cfg.DatabasePath = filepath.Join(Cfg.DataPath, "webshell.db")
	}
	if Cfg.TranscriptDir == "" {
		Cfg.TranscriptDir = filepath.Join(Cfg.DataPath, "transcripts")
	}
	if Cfg.LogPath == "" {
		Cfg.LogPath = filepath.Join(Cfg.DataPath, "webshell.log")
	}
}
