// Package filter persists the dashboard's project filter and watches the file
// for external edits.
package filter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"

	"github.com/j-veylop/neon-usage-tui/internal/logger"
)

// fileVersion is the current on-disk format version.
const fileVersion = 1

// File represents the JSON file structure for the saved filter.
type File struct {
	ProjectIDs []string `json:"projectIds"`
	Version    int      `json:"version,omitempty"`
}

// Event represents a filter service event.
type Event struct {
	Error      error
	ProjectIDs []string
	Type       EventType
}

// EventType defines the type of filter event.
type EventType int

const (
	EventFilterLoaded EventType = iota
	EventFilterChanged
	EventError
)

// Service holds the selected project ids, persisted to a JSON file.
type Service struct {
	mu            sync.RWMutex
	selected      []string
	filePath      string
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	closeOnce     sync.Once
}

// DefaultPath returns the default filter file path.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "neon-usage-tui", "filter.json")
}

// New loads the filter file, creating an empty one if needed, and starts
// watching it.
func New(filePath string) (*Service, error) {
	if filePath == "" {
		filePath = DefaultPath()
	}

	s := &Service{
		selected:  []string{},
		filePath:  filePath,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := s.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load filter: %w", err)
		}
		if err := s.save(); err != nil {
			return nil, fmt.Errorf("failed to create filter file: %w", err)
		}
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	s.sendEvent(Event{Type: EventFilterLoaded, ProjectIDs: s.Selected()})

	return s, nil
}

// Events returns the event channel for subscribing to filter changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Path returns the filter file path.
func (s *Service) Path() string {
	return s.filePath
}

// Selected returns a copy of the selected project ids, sorted. An empty
// result means all projects.
func (s *Service) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.selected)
}

// IsSelected reports whether id is part of the filter.
func (s *Service) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, found := slices.BinarySearch(s.selected, id)
	return found
}

// Toggle adds id to the filter, or removes it if already present.
func (s *Service) Toggle(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.selected)
	if i, found := slices.BinarySearch(next, id); found {
		next = slices.Delete(next, i, i+1)
	} else {
		next = append(next, id)
	}
	return s.replaceLocked(next)
}

// Set replaces the filter.
func (s *Service) Set(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(ids)
}

// Clear empties the filter, selecting all projects.
func (s *Service) Clear() error {
	return s.Set(nil)
}

func (s *Service) replaceLocked(ids []string) error {
	next := normalize(ids)
	if slices.Equal(next, s.selected) {
		return nil
	}

	prev := s.selected
	s.selected = next
	if err := s.saveLocked(); err != nil {
		s.selected = prev
		return fmt.Errorf("failed to save filter: %w", err)
	}

	s.sendEvent(Event{Type: EventFilterChanged, ProjectIDs: slices.Clone(next)})
	return nil
}

// normalize trims, dedupes and sorts ids, never returning nil.
func normalize(ids []string) []string {
	out := lo.Uniq(lo.Compact(lo.Map(ids, func(id string, _ int) string {
		return strings.TrimSpace(id)
	})))
	slices.Sort(out)
	return out
}

func parseFile(data []byte) ([]string, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return []string{}, nil
	}

	var file File
	if err := json.Unmarshal(data, &file); err == nil {
		return normalize(file.ProjectIDs), nil
	}

	// Bare array of ids.
	var ids []string
	if err := json.Unmarshal(data, &ids); err == nil {
		return normalize(ids), nil
	}

	return nil, fmt.Errorf("failed to parse filter file: invalid format")
}

func (s *Service) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	ids, err := parseFile(data)
	if err != nil {
		return err
	}

	s.selected = ids
	return nil
}

func (s *Service) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// saveLocked writes the filter file atomically (must hold lock).
func (s *Service) saveLocked() error {
	data, err := json.MarshalIndent(File{ProjectIDs: s.selected, Version: fileVersion}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal filter: %w", err)
	}

	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, s.filePath); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory to survive atomic renames.
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

func (s *Service) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			s.mu.Lock()
			if s.debounceTimer != nil {
				s.debounceTimer.Stop()
			}
			s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
			s.mu.Unlock()

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads the filter after a write. Our own saves read back
// the same selection and emit nothing.
func (s *Service) handleFileChange() {
	s.mu.Lock()
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		s.mu.Unlock()
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}

	ids, err := parseFile(data)
	if err != nil {
		s.mu.Unlock()
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}

	if slices.Equal(ids, s.selected) {
		s.mu.Unlock()
		return
	}
	s.selected = ids
	s.mu.Unlock()

	logger.Info("project filter changed on disk", "projects", len(ids))
	s.sendEvent(Event{Type: EventFilterChanged, ProjectIDs: slices.Clone(ids)})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)

		s.mu.Lock()
		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
		}
		s.mu.Unlock()

		if s.watcher != nil {
			err = s.watcher.Close()
		}
	})
	return err
}
