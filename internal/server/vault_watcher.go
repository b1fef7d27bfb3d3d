package server

import (
	"fmt"
	"sync"
	"time"

	"resumegap/internal/config"
	"resumegap/internal/errors"
)

// VaultClientInterface defines the interface for Vault operations
type VaultClientInterface interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
}

// KeysReloadCallback receives the API keys from a new secret version.
type KeysReloadCallback func(keys []string)

// VaultWatcher polls a KVv2 secret holding the server API keys and hands
// the new list to a callback whenever the secret version increases.
type VaultWatcher struct {
	mu sync.RWMutex

	client         VaultClientInterface
	secretPath     string
	pollInterval   time.Duration
	reloadCallback KeysReloadCallback
	logger         *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
	lastError   string
	reloads     int
}

// NewVaultWatcher creates a new VaultWatcher
func NewVaultWatcher(client VaultClientInterface, secretPath string, pollInterval time.Duration, reloadCallback KeysReloadCallback, logger *errors.Logger) *VaultWatcher {
	return &VaultWatcher{
		client:         client,
		secretPath:     secretPath,
		pollInterval:   pollInterval,
		reloadCallback: reloadCallback,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

// Start begins polling. The current version is recorded first so the keys
// already loaded at startup are not applied twice.
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}
	if vw.pollInterval <= 0 {
		return fmt.Errorf("vault watcher poll interval must be positive")
	}

	if secret, err := vw.client.GetSecretV2(vw.secretPath); err == nil && secret != nil {
		vw.lastVersion = secret.Version
	}

	vw.running = true
	go vw.pollLoop()
	if vw.logger != nil {
		vw.logger.Info("Vault API key watcher started", "secret_path", vw.secretPath, "poll_interval", vw.pollInterval)
	}
	return nil
}

// Stop stops the Vault watcher
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	if vw.logger != nil {
		vw.logger.Info("Vault API key watcher stopped")
	}
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			vw.poll()
		case <-vw.stopChan:
			return
		}
	}
}

// poll reads the secret once and applies it if its version moved forward.
func (vw *VaultWatcher) poll() {
	keys, changed, err := vw.checkForUpdates()

	vw.mu.Lock()
	if err != nil {
		vw.lastError = err.Error()
	} else {
		vw.lastError = ""
	}
	if changed {
		vw.reloads++
	}
	vw.mu.Unlock()

	if err != nil {
		if vw.logger != nil {
			vw.logger.LogError(err, "Failed to check Vault for API key updates")
		}
		return
	}
	if !changed {
		return
	}
	if len(keys) == 0 {
		if vw.logger != nil {
			vw.logger.Warn("Vault secret has no API keys, keeping current keys", "secret_path", vw.secretPath)
		}
		return
	}
	if vw.logger != nil {
		vw.logger.Info("API keys rotated from Vault", "count", len(keys))
	}
	vw.reloadCallback(keys)
}

// checkForUpdates returns the keys of a newer secret version, if any.
func (vw *VaultWatcher) checkForUpdates() ([]string, bool, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil {
		return nil, false, fmt.Errorf("secret %s not found", vw.secretPath)
	}

	vw.mu.Lock()
	defer vw.mu.Unlock()
	if secret.Version <= vw.lastVersion {
		return nil, false, nil
	}
	vw.lastVersion = secret.Version
	return secret.List("keys"), true, nil
}

// Status returns the current status of the VaultWatcher for health reporting
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	status := map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
		"reloads":       vw.reloads,
	}
	if vw.lastError != "" {
		status["last_error"] = vw.lastError
	}
	return status
}
