package database

import (
	"fmt"
)

// Tx is the transactional information submitted by an author. A Tx is
// immutable once constructed and is identified by the digest of its
// canonical serialization.
type Tx struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// NewTx constructs a new transaction.
func NewTx(author string, content string) Tx {
	return Tx{
		Author:  author,
		Content: content,
	}
}

// Digest returns the identity of the transaction. It is only used as a
// dedup key and is not a commitment verified anywhere else.
func (tx Tx) Digest() string {

	// CORE NOTE: The field order of the struct is the canonical order of
	// the serialization: author first, then content.
	return digest(tx)
}

// String implements the Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%d", tx.Author, len(tx.Content))
}
