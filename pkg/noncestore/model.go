package noncestore

import (
	"time"

	"github.com/uptrace/bun"
)

// NonceDao is a data access object that maps directly to the 'nonces' table in PostgreSQL.
type NonceDao struct {
	bun.BaseModel `bun:"table:nonces,alias:n"`
	Value         string    `bun:"value,pk,type:varchar(64)"`
	Address       string    `bun:"address,notnull,type:varchar(42)"`
	IssuedAt      time.Time `bun:"issued_at,nullzero,default:current_timestamp"`
	ExpiresAt     time.Time `bun:"expires_at,notnull"`
}

func toNonce(dao *NonceDao) *Nonce {
	return &Nonce{
		Value:     dao.Value,
		Address:   dao.Address,
		IssuedAt:  dao.IssuedAt,
		ExpiresAt: dao.ExpiresAt,
	}
}
