package database

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// GenesisPrevHash is the previous hash marker carried by the genesis block.
const GenesisPrevHash = "0"

// hashLength is the length of a hex encoded sha256 digest.
const hashLength = 64

// =============================================================================

// Block represents a group of transactions batched together and linked to
// its predecessor by digest. This is also the record shape exchanged with
// peers and written to storage.
type Block struct {
	Index        uint64 `json:"index"`        // Position of the block in the chain, genesis is 0.
	TimeStamp    int64  `json:"timestamp"`    // Epoch milliseconds when the block was created.
	Transactions []Tx   `json:"transactions"` // Ordered batch of transactions.
	PreviousHash string `json:"previousHash"` // Hash of the previous block in the chain.
	Nonce        uint64 `json:"nonce"`        // Value identified to solve the hash solution.
	Hash         string `json:"hash"`         // Accepted digest of the fields above.
}

// blockFields is the hash preimage. The field order is part of the wire
// contract with peers and must never change.
type blockFields struct {
	Index        uint64 `json:"index"`
	TimeStamp    int64  `json:"timestamp"`
	Transactions []Tx   `json:"transactions"`
	PreviousHash string `json:"previousHash"`
	Nonce        uint64 `json:"nonce"`
}

// NewGenesisBlock constructs the first block of every chain.
func NewGenesisBlock(timeStamp time.Time) Block {
	block := Block{
		Index:        0,
		TimeStamp:    timeStamp.UnixMilli(),
		Transactions: []Tx{},
		PreviousHash: GenesisPrevHash,
		Nonce:        0,
	}
	block.Hash = block.ComputeHash()

	return block
}

// ComputeHash returns the digest of the canonical serialization of the
// block's fields. The Hash field itself is not part of the preimage.
func (b Block) ComputeHash() string {
	trans := b.Transactions
	if trans == nil {
		trans = []Tx{}
	}

	return digest(blockFields{
		Index:        b.Index,
		TimeStamp:    b.TimeStamp,
		Transactions: trans,
		PreviousHash: b.PreviousHash,
		Nonce:        b.Nonce,
	})
}

// Copy returns a copy of the block that does not share the transaction
// slice with the source block.
func (b Block) Copy() Block {
	trans := make([]Tx, len(b.Transactions))
	copy(trans, b.Transactions)
	b.Transactions = trans

	return b
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	Difficulty uint
	PrevBlock  Block
	Trans      []Tx
	EvHandler  func(v string, args ...any)
}

// POW constructs a candidate block on top of the previous block and performs
// the work to find a nonce that solves the cryptographic POW puzzle. The
// candidate is returned with its winning nonce and an empty Hash. The
// returned proof becomes the Hash only when the block is accepted.
func POW(ctx context.Context, args POWArgs) (Block, string, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	trans := make([]Tx, len(args.Trans))
	copy(trans, args.Trans)

	nb := Block{
		Index:        args.PrevBlock.Index + 1,
		TimeStamp:    time.Now().UnixMilli(),
		Transactions: trans,
		PreviousHash: args.PrevBlock.Hash,
		Nonce:        0,
	}

	proof, err := nb.performPOW(ctx, args.Difficulty, ev)
	if err != nil {
		return Block{}, "", err
	}

	return nb, proof, nil
}

// FindProof runs the proof of work search over the specified block starting
// at nonce zero. The block's nonce is left at the winning value and the
// returned digest is the proof. There is no iteration bound; the search only
// stops early when the context is cancelled.
func FindProof(ctx context.Context, block *Block, difficulty uint) (string, error) {
	return block.performPOW(ctx, difficulty, func(v string, args ...any) {})
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, difficulty uint, ev func(v string, args ...any)) (string, error) {
	ev("database: PerformPOW: MINING: started: blk[%d]: difficulty[%d]", b.Index, difficulty)
	defer ev("database: PerformPOW: MINING: completed")

	for _, tx := range b.Transactions {
		ev("database: PerformPOW: MINING: tx[%s]", tx)
	}

	b.Nonce = 0

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: PerformPOW: MINING: attempts[%d]", attempts)
		}

		// Did we get cancelled trying to solve the problem.
		if ctx.Err() != nil {
			ev("database: PerformPOW: MINING: CANCELLED")
			return "", ctx.Err()
		}

		hash := b.ComputeHash()
		if !IsHashSolved(difficulty, hash) {
			b.Nonce++
			continue
		}

		if ctx.Err() != nil {
			ev("database: PerformPOW: MINING: CANCELLED")
			return "", ctx.Err()
		}

		ev("database: PerformPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: nonce[%d]", b.PreviousHash, hash, b.Nonce)
		ev("database: PerformPOW: MINING: attempts[%d]", attempts)

		return hash, nil
	}
}

// IsValidProof checks the proof satisfies the difficulty target and can be
// reproduced from the block's own fields.
func IsValidProof(block Block, proof string, difficulty uint) bool {
	return IsHashSolved(difficulty, proof) && proof == block.ComputeHash()
}

// IsHashSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty number of leading 0's.
func IsHashSolved(difficulty uint, hash string) bool {
	if len(hash) != hashLength {
		return false
	}

	if difficulty > hashLength {
		return false
	}

	return strings.Count(hash[:difficulty], "0") == int(difficulty)
}

// =============================================================================

// ValidateChain reports whether the candidate sequence of blocks is a
// structurally valid chain under the specified difficulty.
func ValidateChain(blocks []Block, difficulty uint) bool {
	return CheckChain(blocks, difficulty) == nil
}

// CheckChain validates the candidate sequence of blocks and returns the
// reason it was rejected.
//
// CORE NOTE: The genesis block's own hash and content are not verified, only
// its previous hash marker. Any genesis block content is accepted as long as
// the marker holds.
func CheckChain(blocks []Block, difficulty uint) error {
	if len(blocks) == 0 {
		return errors.New("chain is empty")
	}

	if blocks[0].PreviousHash != GenesisPrevHash {
		return fmt.Errorf("genesis previous hash is not %q, got %q", GenesisPrevHash, blocks[0].PreviousHash)
	}

	for i := 1; i < len(blocks); i++ {
		block := blocks[i]
		prev := blocks[i-1]

		if block.PreviousHash != prev.Hash {
			return fmt.Errorf("blk[%d]: parent block hash doesn't match, got %s, exp %s", i, block.PreviousHash, prev.Hash)
		}

		if hash := block.ComputeHash(); block.Hash != hash {
			return fmt.Errorf("blk[%d]: block hash doesn't match its fields, got %s, exp %s", i, block.Hash, hash)
		}

		if !IsHashSolved(difficulty, block.Hash) {
			return fmt.Errorf("blk[%d]: %s invalid block hash for difficulty %d", i, block.Hash, difficulty)
		}
	}

	return nil
}

// =============================================================================

// canonical returns the canonical serialization of the value. HTML escaping
// is turned off and the trailing newline dropped so the bytes match a plain
// JSON text encoding with no extra whitespace.
func canonical(value any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// digest returns the lowercase hex sha256 of the canonical serialization.
// An empty string is returned if the value can't be serialized, which never
// satisfies a difficulty target or matches a stored hash.
func digest(value any) string {
	data, err := canonical(value)
	if err != nil {
		return ""
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
