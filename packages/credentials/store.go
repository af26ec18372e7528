// Package credentials looks up secrets, such as Kanboard API tokens, by an opaque
// credential identifier.
//
// A Store only answers lookups; creating and rotating secrets belongs to whatever
// backs it (a YAML file, a SQLite database, the process environment).
package credentials

import (
	"context"
	"errors"
	"os"
	"strings"
	"unicode"
)

// ErrNotFound is returned by Lookup when no secret exists for the identifier.
var ErrNotFound = errors.New("credential not found")

// Store resolves a credential identifier to its secret.
type Store interface {
	Lookup(ctx context.Context, id string) (string, error)
}

// ResolveToken picks the token to authenticate with. When credentialID is set and
// resolves in store, the stored secret wins over literal; fromStore reports which
// one was used. Lookup failures other than ErrNotFound are returned.
func ResolveToken(ctx context.Context, store Store, credentialID, literal string) (token string, fromStore bool, err error) {
	if credentialID == "" || store == nil {
		return literal, false, nil
	}

	secret, err := store.Lookup(ctx, credentialID)
	if errors.Is(err, ErrNotFound) {
		return literal, false, nil
	}
	if err != nil {
		return "", false, err
	}
	return secret, true, nil
}

// MapStore is an in-memory store.
type MapStore map[string]string

func (m MapStore) Lookup(_ context.Context, id string) (string, error) {
	if secret, ok := m[id]; ok {
		return secret, nil
	}
	return "", ErrNotFound
}

// EnvStore reads secrets from environment variables named Prefix + the identifier
// upper-cased, with every character that is not a letter or digit replaced by '_'.
// A variable that is set but empty counts as not found.
type EnvStore struct {
	Prefix string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

func NewEnvStore(prefix string) *EnvStore {
	return &EnvStore{Prefix: prefix}
}

func (s *EnvStore) Lookup(_ context.Context, id string) (string, error) {
	getenv := s.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if secret := getenv(s.VarName(id)); secret != "" {
		return secret, nil
	}
	return "", ErrNotFound
}

// VarName returns the environment variable consulted for id.
func (s *EnvStore) VarName(id string) string {
	normalized := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, id)
	return s.Prefix + normalized
}

// Chain consults each store in order and returns the first secret found.
type Chain []Store

func (c Chain) Lookup(ctx context.Context, id string) (string, error) {
	for _, store := range c {
		if store == nil {
			continue
		}
		secret, err := store.Lookup(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return secret, err
	}
	return "", ErrNotFound
}
