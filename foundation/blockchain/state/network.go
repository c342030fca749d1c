package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/peer"
)

const baseURL = "http://%s/v1/node"

// HTTPFetcher retrieves a peer's chain over the private node API.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher constructs a fetcher that uses the default HTTP transport.
// Timeouts are driven by the context passed to FetchChain.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{},
	}
}

// FetchChain retrieves the full chain held by the specified peer.
func (f *HTTPFetcher) FetchChain(ctx context.Context, pr peer.Peer) ([]database.Block, error) {
	url := fmt.Sprintf("%s/chain", fmt.Sprintf(baseURL, pr.Host))

	var blocks []database.Block
	if err := send(ctx, f.client, http.MethodGet, url, nil, &blocks); err != nil {
		return nil, err
	}

	return blocks, nil
}

// =============================================================================

// NetSendBlockToPeers takes the new mined block and sends it to all known
// peers. A failure to reach one peer does not stop the block from being
// sent to the rest.
func (s *State) NetSendBlockToPeers(ctx context.Context, block database.Block) error {
	s.evHandler("state: NetSendBlockToPeers: started")
	defer s.evHandler("state: NetSendBlockToPeers: completed")

	var errs []error
	for _, pr := range s.RetrieveKnownPeers() {
		url := fmt.Sprintf("%s/block/propose", fmt.Sprintf(baseURL, pr.Host))

		var status struct {
			Status string `json:"status"`
		}

		if err := send(ctx, http.DefaultClient, http.MethodPost, url, block, &status); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pr.Host, err))
			continue
		}

		s.evHandler("state: NetSendBlockToPeers: sent to peer[%s]: status[%s]", pr, status.Status)
	}

	return errors.Join(errs...)
}

// NetSendTxToPeers shares a new transaction with the known peers.
func (s *State) NetSendTxToPeers(ctx context.Context, tx database.Tx) {
	s.evHandler("state: NetSendTxToPeers: started")
	defer s.evHandler("state: NetSendTxToPeers: completed")

	// CORE NOTE: The full transaction is sent to every peer. A peer that has
	// already seen the transaction drops it, which stops it from bouncing
	// around the network forever.
	for _, pr := range s.RetrieveKnownPeers() {
		url := fmt.Sprintf("%s/tx/submit", fmt.Sprintf(baseURL, pr.Host))
		if err := send(ctx, http.DefaultClient, http.MethodPost, url, tx, nil); err != nil {
			s.evHandler("state: NetSendTxToPeers: WARNING: %s", err)
		}
	}
}

// NetRequestPeerStatus asks the peer for its status, which includes the
// peers it knows about.
func (s *State) NetRequestPeerStatus(ctx context.Context, pr peer.Peer) (peer.PeerStatus, error) {
	s.evHandler("state: NetRequestPeerStatus: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerStatus: completed: %s", pr)

	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, pr.Host))

	var ps peer.PeerStatus
	if err := send(ctx, http.DefaultClient, http.MethodGet, url, nil, &ps); err != nil {
		return peer.PeerStatus{}, err
	}

	s.evHandler("state: NetRequestPeerStatus: peer-node[%s]: latest-blknum[%d]: peer-list[%s]", pr, ps.LatestBlockIndex, ps.KnownPeers)

	return ps, nil
}

// NetRequestAddPeer announces this node to the specified peer so the peer
// adds it to its known peer list.
func (s *State) NetRequestAddPeer(ctx context.Context, pr peer.Peer) error {
	s.evHandler("state: NetRequestAddPeer: started: %s", pr)
	defer s.evHandler("state: NetRequestAddPeer: completed: %s", pr)

	return Register(ctx, pr, s.host)
}

// Register posts the node address to the specified peer's register endpoint.
func Register(ctx context.Context, pr peer.Peer, nodeAddress string) error {
	url := fmt.Sprintf("%s/register", fmt.Sprintf(baseURL, pr.Host))

	reg := struct {
		NodeAddress string `json:"node_address"`
	}{
		NodeAddress: nodeAddress,
	}

	return send(ctx, http.DefaultClient, http.MethodPost, url, reg, nil)
}

// =============================================================================

// send is a helper function to send an HTTP request to a node.
func send(ctx context.Context, client *http.Client, method string, url string, dataSend any, dataRecv any) error {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}

	if dataSend != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
