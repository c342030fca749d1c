// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
)

// DefaultDifficulty is used when no genesis file is provided. Around 65k
// nonces need to be tried on average to solve a block at this difficulty.
const DefaultDifficulty = 4

// Genesis represents the genesis file.
type Genesis struct {
	Date       time.Time `json:"date"`       // Timestamp of the genesis block, zero means the node's start time.
	Difficulty uint      `json:"difficulty"` // Number of leading 0's needed to solve the work problem.
}

// =============================================================================

// Default returns the genesis information used when no file is configured.
func Default() Genesis {
	return Genesis{
		Difficulty: DefaultDifficulty,
	}
}

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis file %s: %w", path, err)
	}

	return genesis, nil
}

// Block synthesizes the genesis block for this genesis information.
func (g Genesis) Block() database.Block {
	date := g.Date
	if date.IsZero() {
		date = time.Now()
	}

	return database.NewGenesisBlock(date)
}
