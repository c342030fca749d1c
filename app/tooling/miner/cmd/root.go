// Package cmd contains the miner app commands.
package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	nodeURL string
	timeout time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "node", "n", "http://localhost:8080", "Url of the node's public api.")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Timeout for each call to the node.")
}

var rootCmd = &cobra.Command{
	Use:   "miner",
	Short: "Drive and inspect a blockchain node",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// endpoint returns the url for the specified path on the node.
func endpoint(path string) string {
	return strings.TrimSuffix(nodeURL, "/") + path
}

// readBody returns the body of the response or an error for any status
// other than 200.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}
