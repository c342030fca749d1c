package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	author  string
	content string
)

// sendCmd represents the send command.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Submit a transaction to the node",
	RunE: func(cmd *cobra.Command, args []string) error {
		tx := database.NewTx(author, content)

		data, err := json.Marshal(tx)
		if err != nil {
			return err
		}

		client := http.Client{Timeout: timeout}
		resp, err := client.Post(endpoint("/v1/tx/submit"), "application/json", bytes.NewReader(data))
		if err != nil {
			return err
		}

		body, err := readBody(resp)
		if err != nil {
			return err
		}

		fmt.Printf("digest %s: %s", tx.Digest(), body)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&author, "author", "u", "", "Author of the transaction.")
	sendCmd.Flags().StringVarP(&content, "content", "c", "", "Content of the transaction.")
	sendCmd.MarkFlagRequired("author")
	sendCmd.MarkFlagRequired("content")
}
