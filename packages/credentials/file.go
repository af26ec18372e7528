package credentials

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ReloadDebounceDelay is how long Watch waits after the last change before reloading.
const ReloadDebounceDelay = 200 * time.Millisecond

// Credential is one entry of a credentials file.
type Credential struct {
	ID          string `yaml:"id"`
	Secret      string `yaml:"secret"`
	Description string `yaml:"description,omitempty"`
}

type credentialsFile struct {
	Credentials []Credential `yaml:"credentials"`
}

// FileStore serves secrets from a YAML file:
//
//	credentials:
//	  - id: kanboard-api-token
//	    secret: 6f1d...
//	    description: CI integration token
type FileStore struct {
	path    string
	logger  *zap.Logger
	mu      sync.RWMutex
	secrets map[string]string
}

// NewFileStore loads path and returns a store serving its credentials.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FileStore{path: path, logger: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the credentials file. On failure the previous secrets are kept.
func (s *FileStore) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("cannot read credentials file: %w", err)
	}

	var file credentialsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("cannot parse credentials file %s: %w", s.path, err)
	}

	secrets := make(map[string]string, len(file.Credentials))
	for i, c := range file.Credentials {
		if c.ID == "" {
			return fmt.Errorf("credentials file %s: entry %d has no id", s.path, i+1)
		}
		if _, dup := secrets[c.ID]; dup {
			return fmt.Errorf("credentials file %s: duplicate id %q", s.path, c.ID)
		}
		secrets[c.ID] = c.Secret
	}

	s.mu.Lock()
	s.secrets = secrets
	s.mu.Unlock()

	s.logger.Debug("credentials loaded", zap.String("path", s.path), zap.Int("count", len(secrets)))
	return nil
}

func (s *FileStore) Lookup(_ context.Context, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if secret, ok := s.secrets[id]; ok {
		return secret, nil
	}
	return "", ErrNotFound
}

// Watch reloads the store whenever the credentials file changes, until ctx is done.
// The parent directory is watched so editors that replace the file are handled.
func (s *FileStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.path, err)
	}

	target := filepath.Clean(s.path)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(ReloadDebounceDelay, func() {
				if err := s.Reload(); err != nil {
					s.logger.Warn("credentials reload failed", zap.Error(err))
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("credentials watcher error", zap.Error(err))
		}
	}
}
