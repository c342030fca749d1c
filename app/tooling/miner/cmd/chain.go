package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var difficulty uint

// chainCmd represents the chain command.
var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print and validate the node's chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := http.Client{Timeout: timeout}
		resp, err := client.Get(endpoint("/v1/chain"))
		if err != nil {
			return err
		}

		body, err := readBody(resp)
		if err != nil {
			return err
		}

		var blocks []database.Block
		if err := json.Unmarshal(body, &blocks); err != nil {
			return fmt.Errorf("decoding chain: %w", err)
		}

		for _, block := range blocks {
			fmt.Printf("blk[%d] hash[%s] prev[%s] nonce[%d] txs[%d]\n", block.Index, block.Hash, block.PreviousHash, block.Nonce, len(block.Transactions))
			for _, tx := range block.Transactions {
				fmt.Printf("    %s: %s\n", tx.Author, tx.Content)
			}
		}

		if err := database.CheckChain(blocks, difficulty); err != nil {
			fmt.Printf("chain is NOT valid: %s\n", err)
			return nil
		}

		fmt.Printf("chain is valid: blocks[%d]\n", len(blocks))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chainCmd)
	chainCmd.Flags().UintVarP(&difficulty, "difficulty", "d", 4, "Difficulty to validate the chain against.")
}
