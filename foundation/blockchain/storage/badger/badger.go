// Package badger implements the ability to read and write blocks to a
// Badger key/value database.
package badger

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/dgraph-io/badger/v4"
)

// blockPrefix namespaces the block keys in the database.
var blockPrefix = []byte("block/")

// ErrNotFound is returned when a block does not exist in the database.
var ErrNotFound = errors.New("block not found")

// =============================================================================

// Badger represents the storage implementation for reading and storing
// blocks in a Badger database keyed by position in the chain. This implements the
// database.Storage interface.
type Badger struct {
	db *badger.DB
}

// New opens or creates a Badger database at the specified path.
func New(dbPath string) (*Badger, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "Cannot acquire directory lock") {
			return nil, fmt.Errorf("database at %s is locked by another process: %w", dbPath, err)
		}
		return nil, fmt.Errorf("open database at %s: %w", dbPath, err)
	}

	return &Badger{db: db}, nil
}

// Close closes the underlying database.
func (b *Badger) Close() error {
	return b.db.Close()
}

// Write takes the specified database block and stores it under its
// position in the chain.
func (b *Badger) Write(num uint64, block database.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return err
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(blockKey(num), data)
	})
	if err != nil {
		return fmt.Errorf("badger write: %w", err)
	}

	return nil
}

// GetBlock locates and returns the contents of the specified block by number.
func (b *Badger) GetBlock(num uint64) (database.Block, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blockKey(num))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return database.Block{}, ErrNotFound
	}
	if err != nil {
		return database.Block{}, fmt.Errorf("badger get: %w", err)
	}

	var block database.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return database.Block{}, fmt.Errorf("decoding blk[%d]: %w", num, err)
	}

	return block, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with the genesis block.
func (b *Badger) ForEach() database.Iterator {
	return &badgerIterator{storage: b}
}

// Reset will clear out every block in the database.
func (b *Badger) Reset() error {
	if err := b.db.DropPrefix(blockPrefix); err != nil {
		return fmt.Errorf("badger reset: %w", err)
	}

	return nil
}

// blockKey forms the key for the specified block number. Big endian keeps
// the keys sorted by block number.
func blockKey(num uint64) []byte {
	key := make([]byte, len(blockPrefix)+8)
	copy(key, blockPrefix)
	binary.BigEndian.PutUint64(key[len(blockPrefix):], num)

	return key
}

// =============================================================================

// badgerIterator represents the iteration implementation for walking
// through and reading blocks from the database. This implements the
// database Iterator interface.
type badgerIterator struct {
	storage *Badger // Access to the Badger storage API.
	current uint64  // Current block number being iterated over.
	eoc     bool    // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from the database.
func (bi *badgerIterator) Next() (database.Block, error) {
	if bi.eoc {
		return database.Block{}, errors.New("end of chain")
	}

	block, err := bi.storage.GetBlock(bi.current)
	if errors.Is(err, ErrNotFound) {
		bi.eoc = true
	}

	bi.current++

	return block, err
}

// Done returns the end of chain value.
func (bi *badgerIterator) Done() bool {
	return bi.eoc
}
