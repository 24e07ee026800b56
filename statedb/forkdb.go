package statedb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/simular-fi/simular-go/types"
)

// RemoteSource is the slice of a remote chain endpoint the fork backend
// needs: account basics, single storage slots and block hashes at a
// given block. Implementations are synchronous; any sync-over-async
// bridging happens behind this interface.
type RemoteSource interface {
	LatestBlockNumber() (uint64, error)
	AccountAt(addr common.Address, blockNum uint64) (*types.AccountInfo, error)
	StorageAt(addr common.Address, key common.Hash, blockNum uint64) (common.Hash, error)
	BlockHash(number uint64) (common.Hash, error)
}

// ForkDB layers fetch-on-miss over the shared record store. Every
// distinct key is fetched from the remote at most once for the life of
// the backend; results, including failures on account reads, are cached
// permanently.
type ForkDB struct {
	records *Records
	remote  RemoteSource

	// blockNum pins the block all remote reads are issued against. It
	// is fixed at construction; advancing the facade's block metadata
	// does not move it.
	blockNum uint64

	log *logrus.Logger
}

// NewForkDB wraps the record store with fetch-on-miss against remote,
// pinned at blockNum.
func NewForkDB(records *Records, remote RemoteSource, blockNum uint64, log *logrus.Logger) *ForkDB {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ForkDB{
		records:  records,
		remote:   remote,
		blockNum: blockNum,
		log:      log,
	}
}

// BlockNumber returns the pinned fork block.
func (db *ForkDB) BlockNumber() uint64 {
	return db.blockNum
}

// Basic returns cached metadata, fetching on first sight of the
// address. A failed fetch caches a not-existing sentinel: the account
// is treated as empty for the rest of the session and the remote is
// never asked again.
func (db *ForkDB) Basic(addr common.Address) (*types.AccountInfo, error) {
	rec := db.records.Account(addr)
	if rec == nil {
		info, err := db.remote.AccountAt(addr, db.blockNum)
		if err != nil {
			db.log.Warnf("Account fetch failed for %s, caching as not existing: %v", addr.Hex(), err)
			db.records.accounts[addr] = newNotExistingRecord()
		} else {
			db.records.InsertInfo(addr, *info)
		}
		rec = db.records.Account(addr)
	}
	return rec.InfoOrNil(), nil
}

func (db *ForkDB) CodeByHash(hash common.Hash) ([]byte, error) {
	code, ok := db.records.Code(hash)
	if !ok {
		return nil, &MissingCodeError{CodeHash: hash}
	}
	return code, nil
}

// Storage returns a slot value, fetching on a miss unless the account's
// cache state says absent slots are authoritative zeros. Unlike Basic,
// a failed slot fetch propagates: there is no meaningful sentinel for a
// single slot.
func (db *ForkDB) Storage(addr common.Address, key common.Hash) (common.Hash, error) {
	rec := db.records.Account(addr)
	if rec == nil {
		return common.Hash{}, &MissingAccountError{Address: addr}
	}
	if value, ok := rec.Storage[key]; ok {
		return value, nil
	}
	if rec.State == types.StorageCleared || rec.State == types.NotExisting {
		return common.Hash{}, nil
	}
	value, err := db.remote.StorageAt(addr, key, db.blockNum)
	if err != nil {
		return common.Hash{}, &StorageMissError{
			Address: addr,
			Slot:    key,
			Err:     &FetchFailedError{Op: "storage", Address: addr, Slot: key, Err: err},
		}
	}
	rec.Storage[key] = value
	return value, nil
}

func (db *ForkDB) BlockHash(number uint64) (common.Hash, error) {
	if hash, ok := db.records.BlockHash(number); ok {
		return hash, nil
	}
	hash, err := db.remote.BlockHash(number)
	if err != nil {
		return common.Hash{}, &FetchFailedError{Op: "blockhash", Number: number, Err: err}
	}
	db.records.SetBlockHash(number, hash)
	return hash, nil
}

func (db *ForkDB) Commit(changes types.StateChanges) {
	db.records.Apply(changes)
}
