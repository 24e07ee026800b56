package statedb

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/simular-fi/simular-go/types"
)

// AccountRecord couples account metadata with its cached storage and
// the cache-state tag governing fetch-on-miss.
type AccountRecord struct {
	Info    types.AccountInfo
	State   types.AccountState
	Storage map[common.Hash]common.Hash
}

func newAccountRecord() *AccountRecord {
	return &AccountRecord{
		Info:    types.NewAccountInfo(),
		Storage: make(map[common.Hash]common.Hash),
	}
}

func newNotExistingRecord() *AccountRecord {
	rec := newAccountRecord()
	rec.State = types.NotExisting
	return rec
}

// InfoOrNil returns a copy of the account metadata, or nil if the
// record is a not-existing sentinel. Callers never hold a reference
// into the store.
func (r *AccountRecord) InfoOrNil() *types.AccountInfo {
	if r.State == types.NotExisting {
		return nil
	}
	info := r.Info.Copy()
	return &info
}

// Records is the authoritative in-process table of accounts, contract
// code and block hashes. One Records instance is owned by exactly one
// backend facade; both backend modes read and write through it.
type Records struct {
	accounts    map[common.Address]*AccountRecord
	codes       map[common.Hash][]byte
	blockHashes map[uint64]common.Hash
}

// NewRecords returns an empty store seeded with the two reserved code
// entries: the hash of empty code and the all-zero hash, both mapping
// to empty bytecode.
func NewRecords() *Records {
	codes := make(map[common.Hash][]byte)
	codes[types.EmptyCodeHash] = []byte{}
	codes[common.Hash{}] = []byte{}
	return &Records{
		accounts:    make(map[common.Address]*AccountRecord),
		codes:       codes,
		blockHashes: make(map[uint64]common.Hash),
	}
}

// Account returns the record for addr, or nil if the address has never
// been seen.
func (r *Records) Account(addr common.Address) *AccountRecord {
	return r.accounts[addr]
}

// Addresses returns every known address in ascending byte order.
func (r *Records) Addresses() []common.Address {
	addrs := make([]common.Address, 0, len(r.accounts))
	for addr := range r.accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
	return addrs
}

// InsertInfo replaces the metadata for addr, preserving any cached
// storage, and registers the account's code in the code table.
func (r *Records) InsertInfo(addr common.Address, info types.AccountInfo) {
	r.registerCode(&info)
	rec, ok := r.accounts[addr]
	if !ok {
		rec = newAccountRecord()
		r.accounts[addr] = rec
	}
	rec.Info = info
	if rec.State == types.NotExisting {
		rec.State = types.Fresh
	}
}

// registerCode stages the account's code under its hash, insert-if-
// absent. A zero code hash normalizes to the empty-code hash; a missing
// hash for non-empty code is computed here.
func (r *Records) registerCode(info *types.AccountInfo) {
	if len(info.Code) > 0 {
		if info.CodeHash == types.EmptyCodeHash || info.CodeHash == (common.Hash{}) {
			info.CodeHash = crypto.Keccak256Hash(info.Code)
		}
		if _, ok := r.codes[info.CodeHash]; !ok {
			code := make([]byte, len(info.Code))
			copy(code, info.Code)
			r.codes[info.CodeHash] = code
		}
	}
	if info.CodeHash == (common.Hash{}) {
		info.CodeHash = types.EmptyCodeHash
	}
	if info.Balance == nil {
		info.Balance = uint256.NewInt(0)
	}
}

// Code returns the bytecode staged under hash.
func (r *Records) Code(hash common.Hash) ([]byte, bool) {
	code, ok := r.codes[hash]
	return code, ok
}

// Slot returns the cached value for one storage slot. The second
// return reports a cache hit; callers decide the fetch-vs-default
// policy on a miss.
func (r *Records) Slot(addr common.Address, key common.Hash) (common.Hash, bool) {
	rec, ok := r.accounts[addr]
	if !ok {
		return common.Hash{}, false
	}
	value, ok := rec.Storage[key]
	return value, ok
}

// SetSlot overwrites one storage slot. Used for administrative seeding,
// not for state-transition commits.
func (r *Records) SetSlot(addr common.Address, key, value common.Hash) error {
	rec, ok := r.accounts[addr]
	if !ok {
		return &MissingAccountError{Address: addr}
	}
	rec.Storage[key] = value
	return nil
}

// ReplaceStorage swaps in a complete storage map and marks the account
// StorageCleared: every slot not in the map is an authoritative zero
// from here on.
func (r *Records) ReplaceStorage(addr common.Address, storage map[common.Hash]common.Hash) error {
	rec, ok := r.accounts[addr]
	if !ok {
		return &MissingAccountError{Address: addr}
	}
	rec.State = types.StorageCleared
	rec.Storage = make(map[common.Hash]common.Hash, len(storage))
	for key, value := range storage {
		rec.Storage[key] = value
	}
	return nil
}

// BlockHash returns the cached hash for a block number.
func (r *Records) BlockHash(number uint64) (common.Hash, bool) {
	hash, ok := r.blockHashes[number]
	return hash, ok
}

// SetBlockHash caches a block hash permanently.
func (r *Records) SetBlockHash(number uint64, hash common.Hash) {
	r.blockHashes[number] = hash
}

// Apply merges one state-transition batch into the store. The rules:
//
//   - untouched accounts are skipped;
//   - a self-destructed account keeps its record but loses storage and
//     metadata, and is tagged NotExisting so a later write to the same
//     address cannot resurrect stale slots;
//   - a newly created account drops any pre-existing ghost storage and
//     is tagged StorageCleared before its writes land;
//   - an account already StorageCleared stays StorageCleared, anything
//     else becomes Touched;
//   - storage writes overlay with each slot's present (final) value,
//     so rolled-back intermediates inside the transition never persist.
func (r *Records) Apply(changes types.StateChanges) {
	for addr, change := range changes {
		if change == nil || !change.Touched {
			continue
		}
		if change.SelfDestructed {
			rec, ok := r.accounts[addr]
			if !ok {
				rec = newAccountRecord()
				r.accounts[addr] = rec
			}
			rec.Storage = make(map[common.Hash]common.Hash)
			rec.Info = types.NewAccountInfo()
			rec.State = types.NotExisting
			continue
		}

		info := change.Info
		r.registerCode(&info)

		rec, ok := r.accounts[addr]
		if !ok {
			rec = newAccountRecord()
			r.accounts[addr] = rec
		}
		rec.Info = info

		switch {
		case change.Created:
			rec.Storage = make(map[common.Hash]common.Hash)
			rec.State = types.StorageCleared
		case rec.State == types.StorageCleared:
			// preserve the stronger tag
		default:
			rec.State = types.Touched
		}

		for key, slot := range change.Storage {
			rec.Storage[key] = slot.Present
		}
	}
}
