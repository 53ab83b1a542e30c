package app

import (
	"github.com/iov-one/drip"
	"github.com/iov-one/drip/coin"
	"github.com/iov-one/drip/commands"
	"github.com/iov-one/drip/crypto"
	"github.com/iov-one/drip/x/cash"
	"github.com/iov-one/drip/x/rewards"
	"github.com/iov-one/drip/x/sigs"
	"github.com/iov-one/drip/x/token"
)

// Examples generates some example structs to dump out with testgen
func Examples() []commands.Example {
	wallet := &cash.Wallet{
		Metadata: &drip.Metadata{Schema: 1},
		Coin:     coin.NewCoin(50000, "DRP"),
	}

	info := &token.TokenInfo{
		Metadata: &drip.Metadata{Schema: 1},
		Name:     "My special token",
	}

	priv := crypto.GenPrivKeyEd25519()
	pub := priv.PublicKey()
	user := &sigs.UserData{
		Metadata: &drip.Metadata{Schema: 1},
		Pubkey:   pub,
		Sequence: 17,
	}

	dst := crypto.GenPrivKeyEd25519().PublicKey().Address()
	msg := &cash.SendMsg{
		Metadata:    &drip.Metadata{Schema: 1},
		Source:      pub.Address(),
		Destination: dst,
		Amount:      coin.NewCoin(250, "DRP"),
		Memo:        "Test payment",
	}

	pool := &rewards.Pool{
		Metadata:        &drip.Metadata{Schema: 1},
		Owner:           pub.Address(),
		Ticker:          "DRP",
		Policy:          rewards.ProportionalSplit,
		AutoDistribute:  true,
		RegistryVersion: 1,
		Holders: []rewards.TopHolder{
			{Address: dst, Balance: 1000},
		},
	}

	poolMsg := &rewards.CreatePoolMsg{
		Metadata:       &drip.Metadata{Schema: 1},
		Owner:          pub.Address(),
		Ticker:         "DRP",
		Policy:         rewards.EqualSplit,
		AutoDistribute: false,
	}

	tokenMsg := &token.RegisterTokenMsg{
		Metadata: &drip.Metadata{Schema: 1},
		Ticker:   "ATM",
		Name:     "At the moment",
	}

	unsigned := Tx{Msg: msg}
	tx := unsigned
	sig, err := sigs.SignTx(priv, &tx, "test-123", 17)
	if err != nil {
		panic(err)
	}
	tx.Signatures = []*sigs.StdSignature{sig}

	return []commands.Example{
		{Filename: "wallet", Obj: wallet},
		{Filename: "token_info", Obj: info},
		{Filename: "priv_key", Obj: priv},
		{Filename: "pub_key", Obj: pub},
		{Filename: "user", Obj: user},
		{Filename: "send_msg", Obj: msg},
		{Filename: "pool", Obj: pool},
		{Filename: "pool_msg", Obj: poolMsg},
		{Filename: "token_msg", Obj: tokenMsg},
		{Filename: "unsigned_tx", Obj: &unsigned},
		{Filename: "signed_tx", Obj: &tx},
	}
}
