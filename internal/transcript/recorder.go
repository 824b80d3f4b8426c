// Package transcript persists per-session event logs and reconstructs
// human-readable views of them. Each session gets one append-only text
// file; a sqlite-backed metadata index tracks identity and freshness for
// listing. The transcript outlives the session.
package transcript

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"webshell/internal/database"
)

// EventType tags one transcript event line.
type EventType string

const (
	EventCommand     EventType = "COMMAND"
	EventREPLCommand EventType = "REPL_COMMAND"
	EventOutput      EventType = "OUTPUT"
	EventError       EventType = "ERROR"
	EventSystem      EventType = "SYSTEM"
	// EventInput lines are written for completeness but ignored by all
	// readers.
	EventInput EventType = "INPUT"
)

// timeLayout is the persisted per-event timestamp format (ISO-8601, UTC).
const timeLayout = "2006-01-02T15:04:05.000Z"

// ErrNotFound is returned when no transcript exists for an id.
var ErrNotFound = errors.New("transcript not found")

// Info carries the session details stored in the metadata index.
type Info struct {
	Host     string
	Username string
}

// Recorder appends typed, timestamped events to per-session log files.
// Appends for one session are serialized to preserve event order;
// different sessions write fully in parallel.
type Recorder struct {
	dir string
	db  *gorm.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	nowFn func() time.Time // injectable clock for testing
}

// NewRecorder creates a Recorder writing under dir with metadata in db.
func NewRecorder(dir string, db *gorm.DB) *Recorder {
	return &Recorder{
		dir:   dir,
		db:    db,
		locks: make(map[string]*sync.Mutex),
		nowFn: time.Now,
	}
}

func (r *Recorder) lock(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}

func (r *Recorder) path(id string) string {
	return filepath.Join(r.dir, id+".log")
}

// Create writes the transcript header and registers the metadata record.
// Storage failures are logged, never propagated: transcripting is a side
// channel and must not block session setup.
func (r *Recorder) Create(id string, info Info) {
	l := r.lock(id)
	l.Lock()
	defer l.Unlock()

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		log.Printf("[transcript] create dir for %s: %v", id, err)
		return
	}

	now := r.nowFn().UTC()
	header := fmt.Sprintf("# Session transcript %s\n# Host: %s@%s\n# Created: %s\n",
		id, info.Username, info.Host, now.Format(timeLayout))
	if err := os.WriteFile(r.path(id), []byte(header), 0644); err != nil {
		log.Printf("[transcript] write header for %s: %v", id, err)
		return
	}

	rec := database.Transcript{
		ID:            id,
		Host:          info.Host,
		Username:      info.Username,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	if err := r.db.Create(&rec).Error; err != nil {
		log.Printf("[transcript] index %s: %v", id, err)
	}
}

// Exists reports whether a transcript file is present for id.
func (r *Recorder) Exists(id string) bool {
	_, err := os.Stat(r.path(id))
	return err == nil
}

// Append adds one event line and bumps the index freshness. It returns
// ErrNotFound when no transcript file exists, which callers may treat as
// recoverable by calling Create first.
func (r *Recorder) Append(id string, typ EventType, text string) error {
	l := r.lock(id)
	l.Lock()
	defer l.Unlock()

	f, err := os.OpenFile(r.path(id), os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("open transcript %s: %w", id, err)
	}
	defer f.Close()

	now := r.nowFn().UTC()
	line := fmt.Sprintf("[%s] [%s] %s\n", now.Format(timeLayout), typ, Escape(text))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append transcript %s: %w", id, err)
	}

	if err := r.db.Model(&database.Transcript{}).Where("id = ?", id).
		Update("last_updated_at", now).Error; err != nil {
		log.Printf("[transcript] bump %s: %v", id, err)
	}
	return nil
}

// Raw returns the raw transcript content.
func (r *Recorder) Raw(id string) (string, error) {
	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read transcript %s: %w", id, err)
	}
	return string(data), nil
}

// Clean returns the human-readable command/response view.
func (r *Recorder) Clean(id string) (string, error) {
	raw, err := r.Raw(id)
	if err != nil {
		return "", err
	}
	return CleanView(raw), nil
}

// Replay returns the stricter terminal-replay view with control sequences
// and prompt noise removed.
func (r *Recorder) Replay(id string) (string, error) {
	raw, err := r.Raw(id)
	if err != nil {
		return "", err
	}
	return ReplayView(raw), nil
}

// Delete removes the transcript file and its index record. Idempotent.
func (r *Recorder) Delete(id string) error {
	l := r.lock(id)
	l.Lock()
	defer l.Unlock()

	if err := os.Remove(r.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove transcript %s: %w", id, err)
	}
	if err := r.db.Delete(&database.Transcript{}, "id = ?", id).Error; err != nil {
		log.Printf("[transcript] delete index %s: %v", id, err)
	}

	r.mu.Lock()
	delete(r.locks, id)
	r.mu.Unlock()
	return nil
}

// List returns all transcript metadata, most recently updated first.
func (r *Recorder) List() ([]database.Transcript, error) {
	var out []database.Transcript
	if err := r.db.Order("last_updated_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	return out, nil
}

// Escape folds a payload onto one line: literal CR and LF become the
// two-character sequences \r and \n.
func Escape(s string) string {
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// Unescape reverses Escape.
func Unescape(s string) string {
	s = strings.ReplaceAll(s, `\r`, "\r")
	s = strings.ReplaceAll(s, `\n`, "\n")
	return s
}
