// Package session keeps chat histories for the chat command on disk, one
// JSONL file per session.
package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/new-xmon-df/pollinations-go/pkg/providers"
)

// Entry is one stored chat turn.
type Entry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a named conversation.
type Session struct {
	Key       string
	Entries   []Entry
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession creates a new session.
func NewSession(key string) *Session {
	now := time.Now()
	return &Session{
		Key:       key,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Add appends a turn.
func (s *Session) Add(role, content, model string) {
	now := time.Now()
	s.Entries = append(s.Entries, Entry{Role: role, Content: content, Model: model, Timestamp: now})
	s.UpdatedAt = now
}

// History returns the last maxMessages turns as chat messages. A
// non-positive maxMessages returns everything.
func (s *Session) History(maxMessages int) []providers.Message {
	entries := s.Entries
	if maxMessages > 0 && len(entries) > maxMessages {
		entries = entries[len(entries)-maxMessages:]
	}

	history := make([]providers.Message, 0, len(entries))
	for _, e := range entries {
		history = append(history, providers.Message{Role: e.Role, Content: e.Content})
	}
	return history
}

type metadataLine struct {
	Type      string    `json:"_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// unsafeKeyChars are replaced in file names.
var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Manager loads and saves sessions under Dir.
type Manager struct {
	Dir   string
	cache map[string]*Session
	mu    sync.Mutex
}

// NewManager creates a new session manager.
func NewManager(dir string) *Manager {
	return &Manager{
		Dir:   dir,
		cache: make(map[string]*Session),
	}
}

func (m *Manager) path(key string) string {
	return filepath.Join(m.Dir, unsafeKeyChars.ReplaceAllString(key, "_")+".jsonl")
}

// GetOrCreate returns the stored session or a new empty one.
func (m *Manager) GetOrCreate(key string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.cache[key]; ok {
		return s, nil
	}

	s, err := m.load(key)
	if err != nil {
		return nil, err
	}
	m.cache[key] = s
	return s, nil
}

func (m *Manager) load(key string) (*Session, error) {
	s := NewSession(key)

	file, err := os.Open(m.path(key))
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		var meta metadataLine
		if err := json.Unmarshal(data, &meta); err == nil && meta.Type == "metadata" {
			s.CreatedAt, s.UpdatedAt = meta.CreatedAt, meta.UpdatedAt
			continue
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			log.WithFields(log.Fields{"session": key, "line": line}).Warnf("skipping bad session line: %v", err)
			continue
		}
		s.Entries = append(s.Entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading session %s: %w", key, err)
	}
	return s, nil
}

// Save writes a session to disk, replacing the previous file.
func (m *Manager) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.Dir, 0755); err != nil {
		return err
	}
	m.cache[s.Key] = s

	file, err := os.Create(m.path(s.Key))
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	if err := enc.Encode(metadataLine{Type: "metadata", CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt}); err != nil {
		return err
	}
	for _, e := range s.Entries {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Clear deletes a session. Clearing a missing session is not an error.
func (m *Manager) Clear(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.cache, key)
	if err := os.Remove(m.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
