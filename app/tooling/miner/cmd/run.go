package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ardanlabs/minichain/foundation/blockchain/peer"
	"github.com/ardanlabs/minichain/foundation/blockchain/state"
	"github.com/ardanlabs/minichain/foundation/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	announce string
	peers    []string
	interval time.Duration
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Announce the node to its peers and mine on an interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger.New("MINER")
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		registerWithPeers(ctx, log)
		mine(ctx, log)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&announce, "announce", "a", "localhost:9080", "Private host of the node announced to the peers.")
	runCmd.Flags().StringSliceVarP(&peers, "peer", "p", nil, "Private host of a peer to register the node with.")
	runCmd.Flags().DurationVarP(&interval, "interval", "i", 10*time.Second, "Time to wait between mining attempts.")
}

// registerWithPeers announces the node to every peer. A peer that can't be
// reached is logged and skipped.
func registerWithPeers(ctx context.Context, log *zap.SugaredLogger) {
	for _, host := range peers {
		pr := peer.New(host)

		ctx, cancel := context.WithTimeout(ctx, timeout)
		err := state.Register(ctx, pr, announce)
		cancel()

		if err != nil {
			log.Infow("register", "peer", pr, "node", announce, "ERROR", err)
			continue
		}

		log.Infow("register", "peer", pr, "node", announce, "status", "registered")
	}
}

// mine calls the node's mine endpoint on every interval until the context
// is cancelled. Every outcome is logged and the loop keeps going.
func mine(ctx context.Context, log *zap.SugaredLogger) {
	for {
		body, err := callMine(ctx)
		switch {
		case err != nil:
			log.Infow("mine", "node", nodeURL, "ERROR", err)
		default:
			log.Infow("mine", "node", nodeURL, "response", strings.TrimSpace(string(body)))
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			log.Infow("mine", "status", "stopped")
			return
		}
	}
}

func callMine(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint("/v1/mine"), nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}

	return readBody(resp)
}
