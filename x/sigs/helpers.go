package sigs

import (
	"github.com/iov-one/drip"
	"github.com/iov-one/drip/driptest"
)

//----- mock objects for testing...

type StdTx struct {
	drip.Tx
	Signatures []*StdSignature
}

var _ SignedTx = (*StdTx)(nil)
var _ drip.Tx = (*StdTx)(nil)

func NewStdTx(payload []byte) *StdTx {
	tx := &driptest.Tx{Msg: &driptest.Msg{Serialized: payload}}
	return &StdTx{Tx: tx}
}

func (tx StdTx) GetSignatures() []*StdSignature {
	return tx.Signatures
}

func (tx StdTx) GetSignBytes() ([]byte, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	// marshal the message w/o the signatures
	return msg.Marshal()
}
