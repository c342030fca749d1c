// Package database handles the block and transaction data model for the
// blockchain, the hashing contract shared with peers, the proof of work
// search, and chain validation.
package database

import "fmt"

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain. Blocks
// are stored by their position in the chain, not by their Index field,
// since a valid chain is not required to number its blocks consecutively.
type Storage interface {
	Write(num uint64, block Block) error
	ForEach() Iterator
	Reset() error
	Close() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// ReadAll walks the storage from the genesis block and returns every
// block in chain order.
func ReadAll(storage Storage) ([]Block, error) {
	var blocks []Block

	iter := storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, fmt.Errorf("reading blk[%d]: %w", len(blocks), err)
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}

// WriteAll writes the specified blocks to storage in chain order.
func WriteAll(storage Storage, blocks []Block) error {
	for i, block := range blocks {
		if err := storage.Write(uint64(i), block); err != nil {
			return fmt.Errorf("writing blk[%d]: %w", i, err)
		}
	}

	return nil
}
