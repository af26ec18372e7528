package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/kbhelper/packages/credentials"
	"go.uber.org/zap"
)

// CredentialStore is the store chain described by the credentials section.
type CredentialStore struct {
	credentials.Chain

	db        *credentials.SQLiteStore
	stopWatch context.CancelFunc
	watchDone chan struct{}
}

// OpenCredentialStore builds the credential chain: the YAML credentials file, then
// the SQLite database, then environment variables. When watching is enabled the
// file store is reloaded on change until ctx is done or the store is closed. The
// watch starts only once every store has opened.
func (c *Config) OpenCredentialStore(ctx context.Context, logger *zap.Logger) (*CredentialStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	creds := c.credentials()
	store := &CredentialStore{}

	var fileStore *credentials.FileStore
	if creds.File != "" {
		var err error
		fileStore, err = credentials.NewFileStore(creds.File, logger)
		if err != nil {
			return nil, fmt.Errorf("loading credentials file: %w", err)
		}
		store.Chain = append(store.Chain, fileStore)
	}

	if creds.Database != "" {
		db, err := credentials.OpenSQLiteStore(creds.Database)
		if err != nil {
			return nil, fmt.Errorf("opening credentials database: %w", err)
		}
		store.db = db
		store.Chain = append(store.Chain, db)
	}

	store.Chain = append(store.Chain, credentials.NewEnvStore(creds.EnvPrefix))

	if fileStore != nil && creds.Watch {
		store.watch(ctx, fileStore, logger)
	}
	return store, nil
}

func (s *CredentialStore) watch(ctx context.Context, fileStore *credentials.FileStore, logger *zap.Logger) {
	ctx, s.stopWatch = context.WithCancel(ctx)
	s.watchDone = make(chan struct{})
	go func() {
		defer close(s.watchDone)
		if err := fileStore.Watch(ctx); err != nil {
			logger.Warn("credentials watch stopped", zap.Error(err))
		}
	}()
}

// Database returns the SQLite store, or nil when none is configured.
func (s *CredentialStore) Database() *credentials.SQLiteStore {
	return s.db
}

// Close stops the credentials file watch and closes the database.
func (s *CredentialStore) Close() error {
	if s.stopWatch != nil {
		s.stopWatch()
		<-s.watchDone
	}
	var errs []error
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}
