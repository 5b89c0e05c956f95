// Package credentials is the durable home of the session's access and
// refresh tokens.
//
// The store never reports a persistence fault to its caller: a failed read
// is an absent credential, a failed write or delete is logged and dropped.
// Callers therefore treat the store as a plain synchronous map.
package credentials

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// Store keeps named credentials in a metadata.Repository.
type Store struct {
	repo metadata.Repository
	log  logging.Logger

	// atomically runs fn against a repository bound to one transaction.
	// Nil means the backend has no transactions and fn runs on repo.
	atomically func(ctx context.Context, fn func(repo metadata.Repository) error) error
}

// NewStore wraps an arbitrary metadata backend.
func NewStore(repo metadata.Repository, log logging.Logger) *Store {
	return &Store{repo: repo, log: log.With("component", "credentials")}
}

// NewSQLiteStore keeps credentials in the metadata table of db. Token pairs
// are written in a single transaction.
func NewSQLiteStore(db *sql.DB, log logging.Logger) *Store {
	s := NewStore(metadata.NewSQLiteRepository(db), log)
	s.atomically = func(ctx context.Context, fn func(repo metadata.Repository) error) error {
		return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return fn(metadata.NewSQLiteRepository(tx))
		})
	}
	return s
}

// Get returns the credential stored under name. ok is false when it is
// missing, empty, or unreadable.
func (s *Store) Get(ctx context.Context, name string) (value string, ok bool) {
	b, err := s.repo.Get(ctx, name)
	if err != nil {
		s.log.Error(ctx, "credential read failed, treating as absent", "key", name, "error", err)
		return "", false
	}
	if len(b) == 0 {
		return "", false
	}
	return string(b), true
}

// Set stores value under name.
func (s *Store) Set(ctx context.Context, name, value string) {
	if err := s.repo.Set(ctx, name, []byte(value)); err != nil {
		s.log.Error(ctx, "credential write failed", "key", name, "error", err)
	}
}

// Clear removes name.
func (s *Store) Clear(ctx context.Context, name string) {
	if err := s.repo.Delete(ctx, name); err != nil {
		s.log.Error(ctx, "credential delete failed", "key", name, "error", err)
	}
}

func (s *Store) AccessToken(ctx context.Context) string {
	v, _ := s.Get(ctx, common.AccessTokenKey)
	return v
}

func (s *Store) RefreshToken(ctx context.Context) string {
	v, _ := s.Get(ctx, common.RefreshTokenKey)
	return v
}

func (s *Store) SetAccessToken(ctx context.Context, token string) {
	s.Set(ctx, common.AccessTokenKey, token)
}

// SaveTokens persists a freshly issued pair. An empty refresh token leaves
// the stored one untouched, matching APIs that rotate only the access token.
func (s *Store) SaveTokens(ctx context.Context, access, refresh string) {
	write := func(repo metadata.Repository) error {
		if err := repo.Set(ctx, common.AccessTokenKey, []byte(access)); err != nil {
			return err
		}
		if refresh == "" {
			return nil
		}
		return repo.Set(ctx, common.RefreshTokenKey, []byte(refresh))
	}

	var err error
	if s.atomically != nil {
		err = s.atomically(ctx, write)
	} else {
		err = write(s.repo)
	}
	if err != nil {
		s.log.Error(ctx, "credential pair write failed", "error", err)
	}
}

// ClearTokens removes both tokens in a single delete, so a fault cannot
// leave one of them behind.
func (s *Store) ClearTokens(ctx context.Context) {
	if err := s.repo.Delete(ctx, common.AccessTokenKey, common.RefreshTokenKey); err != nil {
		s.log.Error(ctx, "credential delete failed", "key", "access+refresh", "error", err)
	}
}
