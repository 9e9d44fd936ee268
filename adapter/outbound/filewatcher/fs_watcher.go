package filewatcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ajkula/GoGRT/domain/port/outbound"
)

const defaultDebounce = 500 * time.Millisecond

// FsWatcher watches configuration files through fsnotify. Editors
// produce bursts of write events for a single save, so events are
// debounced per path before they reach the consumer.
type FsWatcher struct {
	watcher     *fsnotify.Watcher
	events      chan outbound.FileChangeEvent
	errors      chan error
	writeEvents chan fsnotify.Event
	debounce    time.Duration
	debouncer   map[string]*time.Timer
	watchedDirs map[string]bool
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	running     bool
	closed      chan struct{}
}

// NewFSWatcher builds a watcher with the given debounce window.
// A non-positive debounce selects the default.
func NewFSWatcher(debounce time.Duration) (outbound.FileWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if debounce <= 0 {
		debounce = defaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())

	fw := &FsWatcher{
		watcher:     fsWatcher,
		events:      make(chan outbound.FileChangeEvent, 100),
		errors:      make(chan error, 100),
		writeEvents: make(chan fsnotify.Event, 100),
		debounce:    debounce,
		debouncer:   make(map[string]*time.Timer),
		watchedDirs: make(map[string]bool),
		ctx:         ctx,
		cancel:      cancel,
		closed:      make(chan struct{}),
	}

	go fw.filterToWriteEvents()
	go fw.processWriteEvents()

	return fw, nil
}

func (fw *FsWatcher) Watch(ctx context.Context, path string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for %s: %w", path, err)
	}

	// for file paths, watch the containing directory and filter events
	dir := filepath.Dir(absPath)

	if fw.watchedDirs[dir] {
		return nil
	}

	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	fw.watchedDirs[dir] = true
	fw.running = true

	return nil
}

func (fw *FsWatcher) Stop() error {
	fw.mu.Lock()

	if !fw.running {
		fw.mu.Unlock()
		return nil
	}

	fw.cancel()
	fw.cleanupDebouncers()
	closeErr := fw.watcher.Close()
	fw.running = false
	fw.mu.Unlock()

	// wait for the processing goroutine to drain and exit. The event
	// channels stay open; consumers select on their own context.
	<-fw.closed

	if closeErr != nil {
		return fmt.Errorf("failed to close fsnotify watcher: %w", closeErr)
	}
	return nil
}

func (fw *FsWatcher) Events() <-chan outbound.FileChangeEvent {
	return fw.events
}

func (fw *FsWatcher) Errors() <-chan error {
	return fw.errors
}

func (fw *FsWatcher) IsWatching() bool {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return fw.running
}

func (fw *FsWatcher) GetWatchedPaths() []string {
	fw.mu.RLock()
	defer fw.mu.RUnlock()

	paths := make([]string, 0, len(fw.watchedDirs))
	for path := range fw.watchedDirs {
		paths = append(paths, path)
	}
	return paths
}

// filterToWriteEvents keeps only Write and Create events and hands
// them to the per-path debouncer.
func (fw *FsWatcher) filterToWriteEvents() {
	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				fw.debounceEvent(event)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}

			select {
			case fw.errors <- err:
			case <-fw.ctx.Done():
				return
			}
		}
	}
}

// processWriteEvents forwards debounced events to the consumer channel.
func (fw *FsWatcher) processWriteEvents() {
	defer close(fw.closed)

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-fw.ctx.Done():
			fw.mu.Lock()
			fw.cleanupDebouncers()
			fw.mu.Unlock()
			return

		case event := <-fw.writeEvents:
			changeEvent := fw.convertEvent(event)
			if changeEvent != nil {
				select {
				case fw.events <- *changeEvent:
				case <-fw.ctx.Done():
					return
				}
			}

		case <-ticker.C:
			// periodic sweep so abandoned timers cannot accumulate
			fw.cleanupExpiredDebouncers()
		}
	}
}

// debounceEvent resets the timer for the event's path; only the last
// event of a burst survives.
func (fw *FsWatcher) debounceEvent(event fsnotify.Event) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if timer, exists := fw.debouncer[event.Name]; exists {
		timer.Stop()
	}

	fw.debouncer[event.Name] = time.AfterFunc(fw.debounce, func() {
		select {
		case fw.writeEvents <- event:
		case <-fw.ctx.Done():
		}

		fw.mu.Lock()
		delete(fw.debouncer, event.Name)
		fw.mu.Unlock()
	})
}

// cleanupDebouncers stops and removes all debounce timers.
// Callers hold fw.mu.
func (fw *FsWatcher) cleanupDebouncers() {
	for _, timer := range fw.debouncer {
		timer.Stop()
	}
	fw.debouncer = make(map[string]*time.Timer)
}

func (fw *FsWatcher) cleanupExpiredDebouncers() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if len(fw.debouncer) > 100 {
		fw.cleanupDebouncers()
	}
}

// convertEvent maps an fsnotify event to the outbound event shape.
func (fw *FsWatcher) convertEvent(event fsnotify.Event) *outbound.FileChangeEvent {
	var eventType string

	if event.Has(fsnotify.Create) {
		eventType = "create"
	} else if event.Has(fsnotify.Write) {
		eventType = "modify"
	} else {
		return nil
	}

	return &outbound.FileChangeEvent{
		FilePath:  event.Name,
		EventType: eventType,
	}
}
