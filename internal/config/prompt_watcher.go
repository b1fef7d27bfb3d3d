package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"resumegap/internal/errors"
)

// PromptWatcher reloads prompt template files when they change on disk.
type PromptWatcher struct {
	mu sync.RWMutex

	files       []string
	lastModTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	reload func() error
	logger *errors.Logger

	running bool
}

// NewPromptWatcher watches every prompt file configured in cfg. Changes are
// debounced and then applied through cfg.ReloadPromptFiles.
func NewPromptWatcher(cfg *Config, logger *errors.Logger) *PromptWatcher {
	return newPromptWatcher(cfg.PromptFiles(), cfg.AI.PromptWatch.DebounceDelay, cfg.ReloadPromptFiles, logger)
}

func newPromptWatcher(files []string, debounceDelay time.Duration, reload func() error, logger *errors.Logger) *PromptWatcher {
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}
	return &PromptWatcher{
		files:         files,
		lastModTime:   make(map[string]time.Time),
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		reload:        reload,
		logger:        logger,
	}
}

// Start begins watching. It is a no-op when no prompt files are configured.
func (pw *PromptWatcher) Start() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.running {
		return fmt.Errorf("prompt watcher is already running")
	}
	if len(pw.files) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	pw.fsWatcher = watcher
	pw.updateModTimes()

	for _, file := range pw.files {
		if err := pw.addFileToWatcher(file); err != nil && pw.logger != nil {
			pw.logger.Warn("Failed to watch prompt file", "file", file, "error", err)
		}
	}

	pw.running = true
	go pw.watchLoop()

	if pw.logger != nil {
		pw.logger.Info("Prompt file watcher started",
			"files", pw.files,
			"debounce_delay", pw.debounceDelay)
	}
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (pw *PromptWatcher) Stop() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if !pw.running {
		return nil
	}

	close(pw.stopChan)
	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}
	pw.running = false

	if err := pw.fsWatcher.Close(); err != nil {
		return fmt.Errorf("failed to close prompt watcher: %w", err)
	}
	if pw.logger != nil {
		pw.logger.Info("Prompt file watcher stopped")
	}
	return nil
}

func (pw *PromptWatcher) IsRunning() bool {
	pw.mu.RLock()
	defer pw.mu.RUnlock()
	return pw.running
}

// addFileToWatcher watches the parent directory so editors that replace the
// file with a rename are still observed.
func (pw *PromptWatcher) addFileToWatcher(file string) error {
	dir := filepath.Dir(file)
	if err := pw.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	return nil
}

func (pw *PromptWatcher) updateModTimes() {
	for _, file := range pw.files {
		if stat, err := os.Stat(file); err == nil {
			pw.lastModTime[file] = stat.ModTime()
		}
	}
}

func (pw *PromptWatcher) hasFileChanged(file string) bool {
	stat, err := os.Stat(file)
	if err != nil {
		return false
	}

	pw.mu.Lock()
	defer pw.mu.Unlock()
	lastMod, exists := pw.lastModTime[file]
	if !exists || !stat.ModTime().Equal(lastMod) {
		pw.lastModTime[file] = stat.ModTime()
		return true
	}
	return false
}

func (pw *PromptWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-pw.fsWatcher.Events:
			if !ok {
				return
			}
			if pw.shouldProcessEvent(event) {
				pw.scheduleReload()
			}

		case err, ok := <-pw.fsWatcher.Errors:
			if !ok {
				return
			}
			if pw.logger != nil {
				pw.logger.LogError(err, "Prompt watcher error")
			}

		case <-pw.reloadChan:
			if !slices.ContainsFunc(pw.files, pw.hasFileChanged) {
				continue
			}
			if err := pw.reload(); err != nil {
				if pw.logger != nil {
					pw.logger.LogError(err, "Prompt reload failed, keeping previous templates")
				}
				continue
			}
			if pw.logger != nil {
				pw.logger.Info("Prompt templates reloaded", "files", pw.files)
			}

		case <-pw.stopChan:
			return
		}
	}
}

func (pw *PromptWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	name := filepath.Clean(event.Name)
	if !slices.Contains(pw.files, name) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (pw *PromptWatcher) scheduleReload() {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}

	pw.debounceTimer = time.AfterFunc(pw.debounceDelay, func() {
		select {
		case pw.reloadChan <- struct{}{}:
		default:
		}
	})
}
