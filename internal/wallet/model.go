package wallet

import (
	"time"

	"github.com/kerjalepas/kerjalepas/internal/account"
)

// Record is the wallet row provisioned for every new identity.
type Record struct {
	UserID         string
	CurrentBalance int64
	CreatedAt      time.Time
}

var _ account.Record = Record{}

// NewRecord returns an empty wallet for userID.
func NewRecord(userID string, now time.Time) Record {
	return Record{UserID: userID, CreatedAt: now.UTC()}
}

func (r Record) Table() string     { return account.TableWallets }
func (r Record) OwnerID() string   { return r.UserID }
func (r Record) Columns() []string { return []string{"user_id", "current_balance", "created_at"} }
func (r Record) Values() []any     { return []any{r.UserID, r.CurrentBalance, r.CreatedAt.UTC()} }
