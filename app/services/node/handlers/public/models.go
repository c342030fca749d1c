package public

import (
	"github.com/ardanlabs/minichain/business/sys/validate"
	"github.com/ardanlabs/minichain/foundation/blockchain/database"
)

// newTx is what a client submits to add a transaction to the mempool.
type newTx struct {
	Author  string `json:"author" validate:"required,notblank"`
	Content string `json:"content" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (ntx newTx) Validate() error {
	return validate.Check(ntx)
}

func (ntx newTx) toTx() database.Tx {
	return database.NewTx(ntx.Author, ntx.Content)
}

// mined is returned when a block is mined and accepted.
type mined struct {
	Index        uint64 `json:"index"`
	Hash         string `json:"hash"`
	Nonce        uint64 `json:"nonce"`
	Transactions int    `json:"transactions"`
}

type status struct {
	Status string `json:"status"`
}
