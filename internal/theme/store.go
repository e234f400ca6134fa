// Package theme persists the site color mode and notifies subscribers on change.
package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
)

// Mode is a color mode.
type Mode string

const (
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeLight || m == ModeDark
}

type state struct {
	Mode Mode `json:"mode"`
}

// Store holds the persisted color mode. The zero value is not usable; use Open.
type Store struct {
	path string

	mu   sync.Mutex
	mode Mode
	subs map[int]func(Mode)
	next int
}

// Open loads the persisted mode from path, falling back to fallback when the
// file is missing or unreadable. The file is created on first Set, not here.
func Open(path string, fallback Mode) (*Store, error) {
	if !fallback.Valid() {
		fallback = ModeLight
	}

	s := &Store{
		path: path,
		mode: fallback,
		subs: make(map[int]func(Mode)),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("theme: read state: %w", err)
	}

	var st state
	if err := json.Unmarshal(data, &st); err == nil && st.Mode.Valid() {
		s.mode = st.Mode
	}
	return s, nil
}

// Get returns the current mode.
func (s *Store) Get() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Set persists the mode and notifies subscribers. Setting the current mode
// is a no-op. Subscriber callbacks run outside the store lock.
func (s *Store) Set(m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("theme: invalid mode %q", m)
	}

	s.mu.Lock()
	if m == s.mode {
		s.mu.Unlock()
		return nil
	}
	s.mode = m
	subs := make([]func(Mode), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if err := s.persist(m); err != nil {
		return err
	}

	for _, fn := range subs {
		fn(m)
	}
	return nil
}

// Subscribe registers fn to be called on every mode change and returns an
// unsubscribe func.
func (s *Store) Subscribe(fn func(Mode)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// persist writes the state file atomically: write to a temp file in the same
// directory, then rename over the destination.
func (s *Store) persist(m Mode) error {
	data, err := json.Marshal(state{Mode: m})
	if err != nil {
		return fmt.Errorf("theme: marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("theme: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".dagaz-theme-*")
	if err != nil {
		return fmt.Errorf("theme: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("theme: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("theme: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("theme: rename: %w", err)
	}
	return nil
}
