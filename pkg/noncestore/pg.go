package noncestore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goalstake/goalstake/pkg/auth"
)

type pgStore struct {
	db  *bun.DB
	ttl time.Duration
}

// NewStore creates a new postgres implementation of the nonce store
func NewStore(db *bun.DB, ttl time.Duration) Store {
	return &pgStore{db: db, ttl: ttl}
}

func (s *pgStore) Issue(ctx context.Context, address string) (*Nonce, error) {
	now := time.Now().UTC()
	dao := &NonceDao{
		Value:     uuid.NewString(),
		Address:   auth.NormalizeAddress(address),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	if _, err := s.db.NewInsert().Model(dao).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to insert nonce: %w", err)
	}

	return toNonce(dao), nil
}

// Consume relies on a single DELETE with all validity conditions in the
// WHERE clause; the database's row lock guarantees at-most-once
// consumption under concurrent calls.
func (s *pgStore) Consume(ctx context.Context, address, value string) error {
	res, err := s.db.NewDelete().
		Model((*NonceDao)(nil)).
		Where("value = ?", value).
		Where("address = ?", auth.NormalizeAddress(address)).
		Where("expires_at > ?", time.Now().UTC()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to consume nonce: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read consume result: %w", err)
	}
	if affected == 0 {
		return ErrNonceInvalid
	}
	return nil
}

func (s *pgStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*NonceDao)(nil)).
		Where("expires_at <= ?", time.Now().UTC()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired nonces: %w", err)
	}
	return res.RowsAffected()
}
