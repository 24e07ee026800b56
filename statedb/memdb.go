package statedb

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/simular-fi/simular-go/types"
)

// Database is the read/write contract the execution engine consumes.
// Both backend modes implement it; the facade selects one at
// construction.
type Database interface {
	// Basic returns the account metadata for addr, or nil if the
	// account does not exist.
	Basic(addr common.Address) (*types.AccountInfo, error)

	// CodeByHash returns bytecode previously staged under hash. Code is
	// never fetched independently; a miss is an error.
	CodeByHash(hash common.Hash) ([]byte, error)

	// Storage returns the value of one storage slot. The account must
	// already be known from a prior Basic call.
	Storage(addr common.Address, key common.Hash) (common.Hash, error)

	// BlockHash returns the hash of the given block number.
	BlockHash(number uint64) (common.Hash, error)

	// Commit merges a state-transition batch into the store.
	Commit(changes types.StateChanges)
}

// MemDB is the local-only backend: the shared record store with no
// remote fallback. Missing data reads as a non-existent account or a
// zero slot.
type MemDB struct {
	records *Records
}

// NewMemDB wraps an existing record store. The store stays owned by the
// facade; MemDB only interprets misses.
func NewMemDB(records *Records) *MemDB {
	return &MemDB{records: records}
}

func (db *MemDB) Basic(addr common.Address) (*types.AccountInfo, error) {
	rec := db.records.Account(addr)
	if rec == nil {
		// No authority to answer, and no sentinel is inserted: a plain
		// read must not mutate the store.
		return nil, nil
	}
	return rec.InfoOrNil(), nil
}

func (db *MemDB) CodeByHash(hash common.Hash) ([]byte, error) {
	code, ok := db.records.Code(hash)
	if !ok {
		return nil, &MissingCodeError{CodeHash: hash}
	}
	return code, nil
}

func (db *MemDB) Storage(addr common.Address, key common.Hash) (common.Hash, error) {
	rec := db.records.Account(addr)
	if rec == nil {
		return common.Hash{}, &MissingAccountError{Address: addr}
	}
	if value, ok := rec.Storage[key]; ok {
		return value, nil
	}
	return common.Hash{}, nil
}

func (db *MemDB) BlockHash(number uint64) (common.Hash, error) {
	if hash, ok := db.records.BlockHash(number); ok {
		return hash, nil
	}
	return common.Hash{}, &FetchFailedError{Op: "blockhash", Number: number, Err: ErrNoRemote}
}

func (db *MemDB) Commit(changes types.StateChanges) {
	db.records.Apply(changes)
}
