// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"net/http"

	"github.com/ardanlabs/minichain/business/web/errs"
	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/peer"
	"github.com/ardanlabs/minichain/foundation/blockchain/state"
	"github.com/ardanlabs/minichain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Register adds the posted node address to the list of known peers.
func (h Handlers) Register(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var rn registerNode
	if err := web.Decode(r, &rn); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	pr := peer.New(rn.NodeAddress)

	h.Log.Infow("register node", "traceid", web.GetTraceID(ctx), "peer", pr)

	resp := status{
		Status: "registered",
	}
	if !h.State.AddKnownPeer(pr) {
		resp.Status = "already known"
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveStatus(), http.StatusOK)
}

// Chain returns every block in the chain so peers can resolve conflicts.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveChain(), http.StatusOK)
}

// ProposeBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var block database.Block
	if err := web.Decode(r, &block); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	// Ask the state package to validate the proposed block. If the block
	// passes validation, it will be added to the blockchain database.
	if err := h.State.ProcessProposedBlock(block); err != nil {
		if errors.Is(err, state.ErrChainForked) {
			return errs.NewTrusted(errors.New("block not accepted, resync started"), http.StatusNotAcceptable)
		}

		return errs.NewTrusted(errors.New("block not accepted"), http.StatusNotAcceptable)
	}

	resp := status{
		Status: "accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitNodeTransaction adds a transaction shared by a peer to the mempool.
func (h Handlers) SubmitNodeTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var ntx nodeTx
	if err := web.Decode(r, &ntx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := status{
		Status: "transaction added to mempool",
	}
	if !h.State.UpsertNodeTransaction(ntx.toTx()) {
		resp.Status = "transaction already seen"
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Resolve runs conflict resolution against the known peers.
func (h Handlers) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	replaced := h.State.ResolveConflicts(ctx, h.State.RetrieveKnownPeers())

	resp := resolved{
		Replaced: replaced,
		Length:   h.State.ChainLength(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
