package wallet

import (
	"context"

	"github.com/kerjalepas/kerjalepas/internal/account"
)

type memoryRepository struct {
	records account.RecordLookup
}

// NewMemoryRepository reads wallets stored by an in-memory Account Service.
func NewMemoryRepository(records account.RecordLookup) Repository {
	return &memoryRepository{records: records}
}

func (r *memoryRepository) GetByOwner(_ context.Context, userID string) (Record, error) {
	stored, ok := r.records.LookupRecord(account.TableWallets, userID)
	if !ok {
		return Record{}, ErrNotFound
	}
	w, ok := stored.(Record)
	if !ok {
		return Record{}, ErrNotFound
	}
	return w, nil
}
