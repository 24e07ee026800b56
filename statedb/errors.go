package statedb

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNoRemote is returned (wrapped in a FetchFailedError) when a read
// needs chain authority but the backend has no remote endpoint.
var ErrNoRemote = errors.New("no remote endpoint configured")

// MissingAccountError reports a read against an address the store has
// never seen and has no authority to fetch.
type MissingAccountError struct {
	Address common.Address
}

func (e *MissingAccountError) Error() string {
	return fmt.Sprintf("missing account %s", e.Address.Hex())
}

// MissingCodeError reports a code lookup for a hash that was never
// staged. Code is only ever loaded through a prior account read or an
// explicit insert, never fetched on its own.
type MissingCodeError struct {
	CodeHash common.Hash
}

func (e *MissingCodeError) Error() string {
	return fmt.Sprintf("code should already be loaded: %s", e.CodeHash.Hex())
}

// FetchFailedError reports a failed remote request. Op is one of
// "account", "storage" or "blockhash".
type FetchFailedError struct {
	Op      string
	Address common.Address
	Slot    common.Hash
	Number  uint64
	Err     error
}

func (e *FetchFailedError) Error() string {
	switch e.Op {
	case "storage":
		return fmt.Sprintf("failed to fetch storage for %s at %s: %v", e.Address.Hex(), e.Slot.Hex(), e.Err)
	case "blockhash":
		return fmt.Sprintf("failed to fetch block hash for %d: %v", e.Number, e.Err)
	default:
		return fmt.Sprintf("failed to fetch account %s: %v", e.Address.Hex(), e.Err)
	}
}

func (e *FetchFailedError) Unwrap() error { return e.Err }

// StorageMissError reports a slot that is present-account but
// irrecoverable: the account is known, the slot is not cached, and the
// remote fetch failed. It wraps the underlying FetchFailedError.
type StorageMissError struct {
	Address common.Address
	Slot    common.Hash
	Err     error
}

func (e *StorageMissError) Error() string {
	return fmt.Sprintf("storage miss for %s at %s: %v", e.Address.Hex(), e.Slot.Hex(), e.Err)
}

func (e *StorageMissError) Unwrap() error { return e.Err }
