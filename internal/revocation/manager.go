package revocation

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config controls the store bound and the background cleanup.
type Config struct {
	MaxSize           int           `yaml:"max_size" json:"max_size"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
	EnableAutoCleanup bool          `yaml:"enable_auto_cleanup" json:"enable_auto_cleanup"`
}

// DefaultConfig returns the settings used when the host supplies none.
func DefaultConfig() Config {
	return Config{
		MaxSize:           100000,
		CleanupInterval:   5 * time.Minute,
		EnableAutoCleanup: true,
	}
}

// Manager revokes token IDs and answers revocation checks.
type Manager struct {
	store  Store
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewManager wraps store. A nil logger is replaced by a no-op logger.
func NewManager(store Store, cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		store:  store,
		logger: logger.Named("revocation"),
		stop:   make(chan struct{}),
	}

	if cfg.EnableAutoCleanup && cfg.CleanupInterval > 0 {
		m.wg.Add(1)
		go m.cleanupLoop(cfg.CleanupInterval)
	}
	return m
}

// Revoke records tokenID as revoked until expiresAt.
func (m *Manager) Revoke(tokenID string, expiresAt time.Time) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}
	if tokenID == "" {
		return errors.New("token ID cannot be empty")
	}

	return m.store.Add(tokenID, expiresAt)
}

// IsRevoked reports whether tokenID is currently revoked. An empty ID never is.
func (m *Manager) IsRevoked(tokenID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return false, ErrClosed
	}
	if tokenID == "" {
		return false, nil
	}

	return m.store.Contains(tokenID)
}

// Close stops the cleanup goroutine and closes the store. It is idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.stop)
	m.mu.Unlock()

	m.wg.Wait()
	return m.store.Close()
}

func (m *Manager) cleanupLoop(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			purged, err := m.store.Cleanup()
			if err != nil {
				m.logger.Warn("revocation cleanup failed", zap.Error(err))
				continue
			}
			if purged > 0 {
				m.logger.Debug("revocation cleanup", zap.Int("purged", purged))
			}
		case <-m.stop:
			return
		}
	}
}
