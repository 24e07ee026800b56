package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// EmptyCodeHash is the keccak256 hash of empty bytecode.
var EmptyCodeHash = crypto.Keccak256Hash(nil)

// AccountState tags how much of an account's cached storage is
// authoritative. It is the single switch deciding whether a cache miss
// may go to the remote endpoint.
type AccountState uint8

const (
	// Fresh marks an account never touched this session. Absent slots
	// may be fetched from a remote endpoint if one is configured.
	Fresh AccountState = iota

	// Touched marks an account written by a prior commit. Its cached
	// storage may be sparse relative to ground truth.
	Touched

	// StorageCleared marks an account whose cached storage is complete:
	// absent slots read as zero and are never fetched.
	StorageCleared

	// NotExisting marks an account confirmed absent or self-destructed.
	// All reads default to zero/empty without remote contact.
	NotExisting
)

func (s AccountState) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Touched:
		return "touched"
	case StorageCleared:
		return "storage-cleared"
	case NotExisting:
		return "not-existing"
	default:
		return "unknown"
	}
}

// AccountInfo holds the metadata half of an account record. Code is
// carried alongside its hash so the record store can register it in the
// code table on insert.
type AccountInfo struct {
	Nonce    uint64
	Balance  *uint256.Int
	CodeHash common.Hash
	Code     []byte
}

// NewAccountInfo returns metadata for an empty account: zero balance,
// zero nonce, no code.
func NewAccountInfo() AccountInfo {
	return AccountInfo{
		Balance:  uint256.NewInt(0),
		CodeHash: EmptyCodeHash,
	}
}

// Copy returns a deep copy so callers can hold the result across later
// mutations of the store.
func (i AccountInfo) Copy() AccountInfo {
	cp := i
	if i.Balance != nil {
		cp.Balance = new(uint256.Int).Set(i.Balance)
	}
	if i.Code != nil {
		cp.Code = make([]byte, len(i.Code))
		copy(cp.Code, i.Code)
	}
	return cp
}

// SlotChange records one storage write inside a state transition. Only
// the present (final) value survives a commit; Previous is carried for
// callers that diff transitions.
type SlotChange struct {
	Previous common.Hash
	Present  common.Hash
}

// ChangedAccount is the per-account delta produced by executing one
// transaction. The execution engine hands a batch of these to Commit.
type ChangedAccount struct {
	Info           AccountInfo
	Storage        map[common.Hash]SlotChange
	Touched        bool
	Created        bool
	SelfDestructed bool
}

// StateChanges is the touched-account batch applied atomically by a
// commit.
type StateChanges map[common.Address]*ChangedAccount
