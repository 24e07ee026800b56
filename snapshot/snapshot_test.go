package snapshot

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddr(b byte) common.Address {
	return common.Address{19: b}
}

func testHash(b byte) common.Hash {
	return common.Hash{31: b}
}

func sampleDocument() *Document {
	doc := NewDocument(SourceLocal, 42, 504)
	doc.Accounts[testAddr(1)] = &AccountRecord{
		Nonce:   3,
		Balance: uint256.NewInt(1000),
		Code:    []byte{0x60, 0x01},
		Storage: map[common.Hash]common.Hash{
			testHash(1): testHash(9),
			testHash(2): testHash(8),
		},
	}
	doc.Accounts[testAddr(2)] = &AccountRecord{
		Balance: uint256.NewInt(0),
		Code:    []byte{},
		Storage: map[common.Hash]common.Hash{},
	}
	return doc
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	assert := assert.New(t)
	doc := sampleDocument()

	data, err := doc.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(doc.Source, decoded.Source)
	assert.Equal(doc.BlockNum, decoded.BlockNum)
	assert.Equal(doc.Timestamp, decoded.Timestamp)
	require.Len(t, decoded.Accounts, 2)

	account := decoded.Accounts[testAddr(1)]
	require.NotNil(t, account)
	assert.Equal(uint64(3), account.Nonce)
	assert.Equal(uint256.NewInt(1000), account.Balance)
	assert.Equal([]byte{0x60, 0x01}, []byte(account.Code))
	assert.Equal(testHash(9), account.Storage[testHash(1)])
}

func TestEncodeByteStable(t *testing.T) {
	// Two documents with the same logical content, built with different
	// insertion orders, must serialize to identical bytes.
	a := sampleDocument()

	b := NewDocument(SourceLocal, 42, 504)
	b.Accounts[testAddr(2)] = &AccountRecord{
		Balance: uint256.NewInt(0),
		Code:    []byte{},
		Storage: map[common.Hash]common.Hash{},
	}
	b.Accounts[testAddr(1)] = &AccountRecord{
		Nonce:   3,
		Balance: uint256.NewInt(1000),
		Code:    []byte{0x60, 0x01},
		Storage: map[common.Hash]common.Hash{
			testHash(2): testHash(8),
			testHash(1): testHash(9),
		},
	}

	rawA, err := a.Encode()
	require.NoError(t, err)
	rawB, err := b.Encode()
	require.NoError(t, err)
	require.Equal(t, rawA, rawB)
}

func TestDecodeFillsDefaults(t *testing.T) {
	assert := assert.New(t)
	raw := []byte(`{
  "source": "fork",
  "block_num": 7,
  "timestamp": 84,
  "accounts": {
    "0x0000000000000000000000000000000000000001": {
      "nonce": 1,
      "code": "0x"
    }
  }
}`)

	doc, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(SourceFork, doc.Source)

	account := doc.Accounts[testAddr(1)]
	require.NotNil(t, account)
	assert.True(account.Balance.IsZero())
	assert.NotNil(account.Storage)
	assert.Empty(account.Storage)
}

func TestDecodeRejectsBadInput(t *testing.T) {
	_, err := Decode([]byte("not json"))
	require.Error(t, err)

	// A null account record has no usable meaning.
	_, err = Decode([]byte(`{"accounts": {"0x0000000000000000000000000000000000000001": null}}`))
	require.Error(t, err)
}

func TestWriteReadFile(t *testing.T) {
	assert := assert.New(t)
	doc := sampleDocument()
	path := t.TempDir() + "/snap.json"

	require.NoError(t, doc.WriteFile(path))
	loaded, err := ReadFile(path)
	require.NoError(t, err)

	raw1, err := doc.Encode()
	require.NoError(t, err)
	raw2, err := loaded.Encode()
	require.NoError(t, err)
	assert.Equal(raw1, raw2)

	_, err = ReadFile(t.TempDir() + "/missing.json")
	assert.Error(err)
}
