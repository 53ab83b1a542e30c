package cash

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/coin"
	"github.com/iov-one/drip/driptest"
	"github.com/iov-one/drip/migration"
	"github.com/iov-one/drip/store"
)

func TestGenesisAccounts(t *testing.T) {
	addr := driptest.NewCondition().Address()

	const genesis = `
	{
		"cash": [
			{
				"address": "%s",
				"coin": {"ticker": "IOV", "amount": 123456789}
			}
		]
	}
	`

	var opts drip.Options
	raw := fmt.Sprintf(genesis, addr)
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		t.Fatalf("cannot unmarshal genesis: %s", err)
	}

	db := store.MemStore()
	migration.MustInitPkg(db, "cash")
	var ini Initializer
	if err := ini.FromGenesis(opts, drip.GenesisParams{}, db); err != nil {
		t.Fatalf("cannot load genesis: %s", err)
	}

	ctrl := NewController(NewBucket())
	got, err := ctrl.Balance(db, addr)
	if err != nil {
		t.Fatalf("cannot get balance: %s", err)
	}
	if want := coin.NewCoin(123456789, "IOV"); !got.Equals(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestGenesisInvalidAccount(t *testing.T) {
	var opts drip.Options
	const genesis = `
	{
		"cash": [
			{"address": "", "coin": {"ticker": "IOV", "amount": 1}}
		]
	}
	`
	if err := json.Unmarshal([]byte(genesis), &opts); err != nil {
		t.Fatalf("cannot unmarshal genesis: %s", err)
	}
	db := store.MemStore()
	migration.MustInitPkg(db, "cash")
	var ini Initializer
	if err := ini.FromGenesis(opts, drip.GenesisParams{}, db); err == nil {
		t.Fatal("want an error for an account without an address")
	}
}
