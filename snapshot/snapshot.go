package snapshot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Source tags which backend mode produced a snapshot.
type Source string

const (
	SourceLocal Source = "local"
	SourceFork  Source = "fork"
)

// AccountRecord is one account in a snapshot document. Code is inlined
// per account rather than referenced by hash, so the document is
// self-contained.
type AccountRecord struct {
	Nonce   uint64                      `json:"nonce"`
	Balance *uint256.Int                `json:"balance"`
	Code    hexutil.Bytes               `json:"code"`
	Storage map[common.Hash]common.Hash `json:"storage"`
}

// Document is a point-in-time export of the whole record store plus
// block metadata. Serialization is byte-stable for identical logical
// state: addresses and slots are fixed-width lowercase hex, and
// encoding/json emits map keys in sorted order.
type Document struct {
	Source    Source                            `json:"source"`
	BlockNum  uint64                            `json:"block_num"`
	Timestamp uint64                            `json:"timestamp"`
	Accounts  map[common.Address]*AccountRecord `json:"accounts"`
}

// NewDocument returns an empty snapshot document.
func NewDocument(source Source, blockNum, timestamp uint64) *Document {
	return &Document{
		Source:    source,
		BlockNum:  blockNum,
		Timestamp: timestamp,
		Accounts:  make(map[common.Address]*AccountRecord),
	}
}

// Encode renders the canonical JSON form of the document.
func (d *Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %v", err)
	}
	return data, nil
}

// Decode parses a document previously produced by Encode.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %v", err)
	}
	if doc.Accounts == nil {
		doc.Accounts = make(map[common.Address]*AccountRecord)
	}
	for addr, rec := range doc.Accounts {
		if rec == nil {
			return nil, fmt.Errorf("snapshot has empty record for %s", addr.Hex())
		}
		if rec.Balance == nil {
			rec.Balance = uint256.NewInt(0)
		}
		if rec.Storage == nil {
			rec.Storage = make(map[common.Hash]common.Hash)
		}
	}
	return &doc, nil
}

// WriteFile writes the canonical JSON document to path.
func (d *Document) WriteFile(path string) error {
	data, err := d.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile loads a document from a JSON file.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %v", err)
	}
	return Decode(data)
}
