package private

import (
	"github.com/ardanlabs/minichain/business/sys/validate"
	"github.com/ardanlabs/minichain/foundation/blockchain/database"
)

// registerNode is what a node posts to announce itself.
type registerNode struct {
	NodeAddress string `json:"node_address" validate:"required,notblank"`
}

// Validate checks the data in the model is considered clean.
func (rn registerNode) Validate() error {
	return validate.Check(rn)
}

// nodeTx is a transaction shared by a peer.
type nodeTx struct {
	Author  string `json:"author" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (ntx nodeTx) Validate() error {
	return validate.Check(ntx)
}

func (ntx nodeTx) toTx() database.Tx {
	return database.NewTx(ntx.Author, ntx.Content)
}

type status struct {
	Status string `json:"status"`
}

type resolved struct {
	Replaced bool `json:"replaced"`
	Length   int  `json:"length"`
}
