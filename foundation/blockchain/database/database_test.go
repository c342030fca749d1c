package database_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Hash(t *testing.T) {
	type table struct {
		name  string
		block database.Block
		hash  string
	}

	tt := []table{
		{
			name: "basic",
			block: database.Block{
				Index:        1,
				TimeStamp:    1700000000000,
				Transactions: []database.Tx{database.NewTx("alice", "hi")},
				PreviousHash: "abc",
				Nonce:        7,
			},
			hash: "f7c4eeb2e16c4a11768b7f2503b53303ef63d1d10ee16b1f04824396c49bddae",
		},
		{
			name: "noescape",
			block: database.Block{
				Index:        2,
				TimeStamp:    1700000000001,
				Transactions: []database.Tx{database.NewTx("bob", "a<b & c>d")},
				PreviousHash: "0",
				Nonce:        0,
			},
			hash: "c3f78138650f70b3e0a0024fe68066e46b4dfe0defff3bebd5b44b55b6060959",
		},
		{
			name:  "genesis",
			block: database.NewGenesisBlock(time.UnixMilli(0)),
			hash:  "81eb84313a328ad6a8531f8b0ca14871a69d039191b76da524af780bab294927",
		},
		{
			name: "niltrans",
			block: database.Block{
				PreviousHash: "0",
			},
			hash: "81eb84313a328ad6a8531f8b0ca14871a69d039191b76da524af780bab294927",
		},
	}

	t.Log("Given the need to reproduce block hashes across peers.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling block %q.", testID, tst.name)
				{
					got := tst.block.ComputeHash()
					if got != tst.hash {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, got)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.hash)
						t.Fatalf("\t%s\tTest %d:\tShould get back the canonical hash.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the canonical hash.", success, testID)

					if again := tst.block.ComputeHash(); again != got {
						t.Fatalf("\t%s\tTest %d:\tShould be deterministic.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be deterministic.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_HashFieldSensitivity(t *testing.T) {
	base := database.Block{
		Index:        1,
		TimeStamp:    1700000000000,
		Transactions: []database.Tx{database.NewTx("alice", "hi")},
		PreviousHash: "abc",
		Nonce:        7,
	}
	baseHash := base.ComputeHash()

	type table struct {
		name   string
		mutate func(b database.Block) database.Block
	}

	tt := []table{
		{"index", func(b database.Block) database.Block { b.Index++; return b }},
		{"timestamp", func(b database.Block) database.Block { b.TimeStamp++; return b }},
		{"author", func(b database.Block) database.Block {
			b.Transactions = []database.Tx{database.NewTx("alicf", "hi")}
			return b
		}},
		{"content", func(b database.Block) database.Block {
			b.Transactions = []database.Tx{database.NewTx("alice", "ho")}
			return b
		}},
		{"order", func(b database.Block) database.Block {
			b.Transactions = []database.Tx{database.NewTx("hi", "alice")}
			return b
		}},
		{"prevhash", func(b database.Block) database.Block { b.PreviousHash = "abd"; return b }},
		{"nonce", func(b database.Block) database.Block { b.Nonce++; return b }},
		{"hashfield", nil},
	}

	t.Log("Given the need to detect any change in a block's fields.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen changing the %s.", testID, tst.name)
				{
					if tst.mutate == nil {
						b := base.Copy()
						b.Hash = "anything"
						if b.ComputeHash() != baseHash {
							t.Fatalf("\t%s\tTest %d:\tShould not include the hash field in the preimage.", failed, testID)
						}
						t.Logf("\t%s\tTest %d:\tShould not include the hash field in the preimage.", success, testID)
						return
					}

					if tst.mutate(base.Copy()).ComputeHash() == baseHash {
						t.Fatalf("\t%s\tTest %d:\tShould change the hash.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould change the hash.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_TxDigest(t *testing.T) {
	t.Log("Given the need to identify transactions.")
	{
		t.Logf("\tTest 0:\tWhen handling a transaction.")
		{
			const exp = "a0c2484bbd65c93c25f826d4fc06bcad66d88eb3b392cf2f24fd4c0552440a6f"

			tx := database.NewTx("alice", "hi")
			if got := tx.Digest(); got != exp {
				t.Logf("\t%s\tTest 0:\tgot: %s", failed, got)
				t.Logf("\t%s\tTest 0:\texp: %s", failed, exp)
				t.Fatalf("\t%s\tTest 0:\tShould get back the canonical digest.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould get back the canonical digest.", success)

			if database.NewTx("alice", "hi!").Digest() == exp {
				t.Fatalf("\t%s\tTest 0:\tShould get a different digest for different content.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould get a different digest for different content.", success)
		}
	}
}

func Test_POW(t *testing.T) {
	type table struct {
		name       string
		difficulty uint
	}

	tt := []table{
		{"zero", 0},
		{"one", 1},
		{"two", 2},
		{"three", 3},
	}

	genesis := database.NewGenesisBlock(time.UnixMilli(0))
	trans := []database.Tx{database.NewTx("alice", "hi"), database.NewTx("bob", "yo")}

	t.Log("Given the need to mine blocks.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen mining at difficulty %d.", testID, tst.difficulty)
				{
					block, proof, err := database.POW(context.Background(), database.POWArgs{
						Difficulty: tst.difficulty,
						PrevBlock:  genesis,
						Trans:      trans,
					})
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to mine a block: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to mine a block.", success, testID)

					if !strings.HasPrefix(proof, strings.Repeat("0", int(tst.difficulty))) {
						t.Fatalf("\t%s\tTest %d:\tShould get a proof with %d leading zeros: %s", failed, testID, tst.difficulty, proof)
					}
					t.Logf("\t%s\tTest %d:\tShould get a proof with %d leading zeros.", success, testID, tst.difficulty)

					if proof != block.ComputeHash() {
						t.Fatalf("\t%s\tTest %d:\tShould get a proof reproducible at the returned nonce.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get a proof reproducible at the returned nonce.", success, testID)

					if block.Index != 1 || block.PreviousHash != genesis.Hash || len(block.Transactions) != len(trans) {
						t.Fatalf("\t%s\tTest %d:\tShould link the candidate to the previous block.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould link the candidate to the previous block.", success, testID)

					if !database.IsValidProof(block, proof, tst.difficulty) {
						t.Fatalf("\t%s\tTest %d:\tShould be a valid proof.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be a valid proof.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_FindProofCancel(t *testing.T) {
	t.Log("Given the need to cancel a proof of work search.")
	{
		t.Logf("\tTest 0:\tWhen the context is already cancelled.")
		{
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			block := database.Block{Index: 1, PreviousHash: "abc"}
			if _, err := database.FindProof(ctx, &block, 64); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould get back a cancellation error.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould get back a cancellation error.", success)
		}
	}
}

func Test_ValidateChain(t *testing.T) {
	const difficulty = 1

	valid := mineChain(t, 4, difficulty)

	type table struct {
		name   string
		blocks func() []database.Block
		valid  bool
	}

	tt := []table{
		{
			name:   "valid",
			blocks: func() []database.Block { return valid },
			valid:  true,
		},
		{
			name:   "genesisonly",
			blocks: func() []database.Block { return valid[:1] },
			valid:  true,
		},
		{
			name:   "empty",
			blocks: func() []database.Block { return nil },
			valid:  false,
		},
		{
			name: "genesismarker",
			blocks: func() []database.Block {
				blocks := copyChain(valid)
				blocks[0].PreviousHash = "1"
				return blocks
			},
			valid: false,
		},
		{
			name: "genesiscontent",
			blocks: func() []database.Block {
				blocks := copyChain(valid)
				blocks[0].TimeStamp = 42
				blocks[0].Hash = blocks[0].ComputeHash()
				return blocks
			},
			valid: false,
		},
		{
			name: "linkage",
			blocks: func() []database.Block {
				blocks := copyChain(valid)
				blocks[2].PreviousHash = blocks[0].Hash
				return blocks
			},
			valid: false,
		},
		{
			name: "forgedhash",
			blocks: func() []database.Block {
				blocks := copyChain(valid)
				blocks[2].Hash = "0" + strings.Repeat("f", 63)
				blocks[3].PreviousHash = blocks[2].Hash
				return blocks
			},
			valid: false,
		},
		{
			name: "tamperedtx",
			blocks: func() []database.Block {
				blocks := copyChain(valid)
				blocks[1].Transactions[0].Content = "changed"
				return blocks
			},
			valid: false,
		},
		{
			name: "difficulty",
			blocks: func() []database.Block {
				blocks := copyChain(valid)
				for {
					blocks[3].Nonce++
					hash := blocks[3].ComputeHash()
					if hash[0] != '0' {
						blocks[3].Hash = hash
						break
					}
				}
				return blocks
			},
			valid: false,
		},
	}

	t.Log("Given the need to validate candidate chains.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %q chain.", testID, tst.name)
				{
					blocks := tst.blocks()

					got := database.ValidateChain(blocks, difficulty)
					if got != tst.valid {
						t.Logf("\t%s\tTest %d:\treason: %v", failed, testID, database.CheckChain(blocks, difficulty))
						t.Fatalf("\t%s\tTest %d:\tShould get back valid=%v.", failed, testID, tst.valid)
					}
					t.Logf("\t%s\tTest %d:\tShould get back valid=%v.", success, testID, tst.valid)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_ValidateChainGenesisTrust(t *testing.T) {
	t.Log("Given the need to accept any genesis block carrying the marker.")
	{
		t.Logf("\tTest 0:\tWhen the genesis hash is not reproducible.")
		{
			blocks := mineChain(t, 1, 1)
			blocks[0].Hash = "not-a-hash"

			if !database.ValidateChain(blocks, 1) {
				t.Fatalf("\t%s\tTest 0:\tShould not verify the genesis block's own hash.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not verify the genesis block's own hash.", success)
		}
	}
}

// =============================================================================

// mineChain mines a valid chain with the specified number of blocks after
// the genesis block.
func mineChain(t *testing.T, blocks int, difficulty uint) []database.Block {
	t.Helper()

	chain := []database.Block{database.NewGenesisBlock(time.UnixMilli(0))}
	for i := 0; i < blocks; i++ {
		block, proof, err := database.POW(context.Background(), database.POWArgs{
			Difficulty: difficulty,
			PrevBlock:  chain[len(chain)-1],
			Trans:      []database.Tx{database.NewTx("miner", strings.Repeat("x", i+1))},
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a test chain: %v", failed, err)
		}
		block.Hash = proof
		chain = append(chain, block)
	}

	return chain
}

// copyChain returns a deep copy of the chain.
func copyChain(blocks []database.Block) []database.Block {
	out := make([]database.Block, len(blocks))
	for i, block := range blocks {
		out[i] = block.Copy()
	}
	return out
}
