package rewards

import (
	"bytes"
	"reflect"
	"sort"
	"testing"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/driptest"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/migration"
	"github.com/iov-one/drip/orm"
	"github.com/iov-one/drip/store"
	"github.com/iov-one/drip/x/token"
)

func TestPoolValidate(t *testing.T) {
	hA := drip.Address(bytes.Repeat([]byte{0xaa}, drip.AddressLength))
	hB := drip.Address(bytes.Repeat([]byte{0xbb}, drip.AddressLength))

	valid := Pool{
		Metadata:        &drip.Metadata{Schema: 1},
		Owner:           driptest.NewCondition().Address(),
		Ticker:          "DRP",
		Policy:          ProportionalSplit,
		PoolBump:        255,
		VaultBump:       255,
		RegistryVersion: 1,
		Holders: []TopHolder{
			{Address: hA, Balance: 100},
			{Address: hB, Balance: 50},
		},
	}

	cases := map[string]struct {
		mutate  func(*Pool)
		wantErr *errors.Error
	}{
		"valid": {
			mutate: func(*Pool) {},
		},
		"valid native": {
			mutate: func(p *Pool) { p.Ticker = "" },
		},
		"valid empty registry": {
			mutate: func(p *Pool) { p.Holders = nil },
		},
		"missing metadata": {
			mutate:  func(p *Pool) { p.Metadata = nil },
			wantErr: errors.ErrMetadata,
		},
		"missing owner": {
			mutate:  func(p *Pool) { p.Owner = nil },
			wantErr: errors.ErrEmpty,
		},
		"invalid ticker": {
			mutate:  func(p *Pool) { p.Ticker = "x" },
			wantErr: errors.ErrCurrency,
		},
		"unknown policy": {
			mutate:  func(p *Pool) { p.Policy = Policy(9) },
			wantErr: errors.ErrInput,
		},
		"registry over capacity": {
			mutate:  func(p *Pool) { p.Holders = manyHolders(proportionalSplitCapacity + 1) },
			wantErr: ErrTooManyHolders,
		},
		"registry out of order": {
			mutate: func(p *Pool) {
				p.Holders = []TopHolder{
					{Address: hB, Balance: 50},
					{Address: hA, Balance: 100},
				}
			},
			wantErr: errors.ErrModel,
		},
		"duplicate holder address": {
			mutate: func(p *Pool) {
				p.Holders = []TopHolder{
					{Address: hA, Balance: 100},
					{Address: hA, Balance: 50},
				}
			},
			wantErr: errors.ErrModel,
		},
		"zero registry version": {
			mutate:  func(p *Pool) { p.RegistryVersion = 0 },
			wantErr: errors.ErrModel,
		},
		"distributed more than rewarded": {
			mutate: func(p *Pool) {
				p.TotalRewards = 5
				p.TotalDistributed = 6
			},
			wantErr: errors.ErrModel,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			pool := valid
			tc.mutate(&pool)
			if err := pool.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}

func TestPoolSerialization(t *testing.T) {
	hA := drip.Address(bytes.Repeat([]byte{0xaa}, drip.AddressLength))
	hB := drip.Address(bytes.Repeat([]byte{0xbb}, drip.AddressLength))

	cases := map[string]*Pool{
		"a token pool with a partial registry": {
			Metadata:         &drip.Metadata{Schema: 1},
			Owner:            driptest.NewCondition().Address(),
			Ticker:           "DRP",
			Policy:           ProportionalSplit,
			AutoDistribute:   true,
			PoolBump:         255,
			VaultBump:        254,
			TotalRewards:     1000,
			TotalDistributed: 400,
			RegistryVersion:  7,
			Holders: []TopHolder{
				{Address: hA, Balance: 100},
				{Address: hB, Balance: 50},
			},
		},
		"a native pool with an empty registry": {
			Metadata:        &drip.Metadata{Schema: 1},
			Owner:           driptest.NewCondition().Address(),
			Policy:          EqualSplit,
			PoolBump:        255,
			VaultBump:       255,
			RegistryVersion: 1,
		},
	}

	for testName, pool := range cases {
		t.Run(testName, func(t *testing.T) {
			raw, err := pool.Marshal()
			if err != nil {
				t.Fatalf("cannot marshal: %s", err)
			}
			// All registry slots are reserved up front, the record
			// size depends only on the policy.
			if want := poolSize(pool.Policy.Capacity()); len(raw) != want {
				t.Fatalf("want %d bytes, got %d", want, len(raw))
			}
			var got Pool
			if err := got.Unmarshal(raw); err != nil {
				t.Fatalf("cannot unmarshal: %s", err)
			}
			if !reflect.DeepEqual(&got, pool) {
				t.Fatalf("want %+v, got %+v", pool, &got)
			}
		})
	}
}

func TestPoolUnmarshalRejectsCorruptRecords(t *testing.T) {
	pool := Pool{
		Metadata:        &drip.Metadata{Schema: 1},
		Owner:           driptest.NewCondition().Address(),
		Policy:          EqualSplit,
		PoolBump:        255,
		VaultBump:       255,
		RegistryVersion: 1,
	}
	raw, err := pool.Marshal()
	if err != nil {
		t.Fatalf("cannot marshal: %s", err)
	}

	var truncated Pool
	if err := truncated.Unmarshal(raw[:10]); !errors.ErrInput.Is(err) {
		t.Fatalf("truncated record: %+v", err)
	}

	overgrown := append([]byte{}, raw...)
	// The registry entry count sits right behind the version field.
	overgrown[poolHeaderSize-1] = 0xff
	var corrupt Pool
	if err := corrupt.Unmarshal(overgrown); !errors.ErrInput.Is(err) {
		t.Fatalf("oversized count: %+v", err)
	}
}

func TestPolicyJSON(t *testing.T) {
	for policy, want := range map[Policy]string{
		EqualSplit:        `"equal"`,
		ProportionalSplit: `"proportional"`,
	} {
		raw, err := policy.MarshalJSON()
		if err != nil {
			t.Fatalf("cannot marshal %s: %s", policy, err)
		}
		if string(raw) != want {
			t.Fatalf("want %s, got %s", want, raw)
		}
		var got Policy
		if err := got.UnmarshalJSON(raw); err != nil {
			t.Fatalf("cannot unmarshal %s: %s", raw, err)
		}
		if got != policy {
			t.Fatalf("want %s, got %s", policy, got)
		}
	}

	var p Policy
	if err := p.UnmarshalJSON([]byte(`"everything-to-me"`)); !errors.ErrInput.Is(err) {
		t.Fatalf("unknown policy name: %+v", err)
	}
}

func TestDerivedAccounts(t *testing.T) {
	pool := PoolAccount(EqualSplit, "DRP", 255)

	if err := pool.Validate(); err != nil {
		t.Fatalf("invalid pool address: %s", err)
	}
	if !pool.Equals(PoolAccount(EqualSplit, "DRP", 255)) {
		t.Fatal("derivation must be deterministic")
	}
	if pool.Equals(VaultAccount(EqualSplit, "DRP", 255)) {
		t.Fatal("pool and vault must not collide")
	}
	if pool.Equals(PoolAccount(ProportionalSplit, "DRP", 255)) {
		t.Fatal("policy must be part of the derivation")
	}
	if pool.Equals(PoolAccount(EqualSplit, "", 255)) {
		t.Fatal("ticker must be part of the derivation")
	}
	if pool.Equals(PoolAccount(EqualSplit, "DRP", 254)) {
		t.Fatal("bump must be part of the derivation")
	}

	p := Pool{Policy: EqualSplit, Ticker: "DRP", VaultBump: 7}
	if !p.Vault().Equals(VaultAccount(EqualSplit, "DRP", 7)) {
		t.Fatal("vault must use the vault bump")
	}
	if !p.VaultHolding().Equals(token.HoldingAccount(p.Vault(), "DRP")) {
		t.Fatal("vault holding must belong to the vault account")
	}
}

func TestHolderOrdering(t *testing.T) {
	hA := drip.Address(bytes.Repeat([]byte{0xaa}, drip.AddressLength))
	hB := drip.Address(bytes.Repeat([]byte{0xbb}, drip.AddressLength))
	hC := drip.Address(bytes.Repeat([]byte{0xcc}, drip.AddressLength))
	hD := drip.Address(bytes.Repeat([]byte{0xdd}, drip.AddressLength))

	holders := []TopHolder{
		{Address: hC, Balance: 5},
		{Address: hA, Balance: 5},
		{Address: hB, Balance: 9},
		{Address: hD, Balance: 1},
	}
	sort.Slice(holders, func(i, j int) bool {
		return holderLess(holders[i], holders[j])
	})

	want := []TopHolder{
		{Address: hB, Balance: 9},
		{Address: hA, Balance: 5},
		{Address: hC, Balance: 5},
		{Address: hD, Balance: 1},
	}
	if !reflect.DeepEqual(holders, want) {
		t.Fatalf("want %+v, got %+v", want, holders)
	}
	if !sortedHolders(holders) {
		t.Fatal("sorted registry not recognized")
	}
	if sortedHolders([]TopHolder{{Address: hD, Balance: 1}, {Address: hB, Balance: 9}}) {
		t.Fatal("unsorted registry not recognized")
	}
}

func TestPoolBucket(t *testing.T) {
	db := store.MemStore()
	migration.MustInitPkg(db, "rewards")
	bucket := NewPoolBucket()

	key := PoolAccount(EqualSplit, "", 255)
	if _, err := bucket.GetPool(db, key); !errors.ErrNotFound.Is(err) {
		t.Fatalf("missing pool: %+v", err)
	}

	if err := bucket.Save(db, token.NewHolding(key, "DRP")); !errors.ErrType.Is(err) {
		t.Fatalf("foreign model save: %+v", err)
	}

	pool := &Pool{
		Metadata:        &drip.Metadata{Schema: 1},
		Owner:           driptest.NewCondition().Address(),
		Policy:          EqualSplit,
		PoolBump:        255,
		VaultBump:       255,
		RegistryVersion: 1,
	}
	if err := bucket.Save(db, orm.NewSimpleObj(key, pool)); err != nil {
		t.Fatalf("cannot save: %s", err)
	}
	got, err := bucket.GetPool(db, key)
	if err != nil {
		t.Fatalf("cannot get: %s", err)
	}
	if !reflect.DeepEqual(got, pool) {
		t.Fatalf("want %+v, got %+v", pool, got)
	}
}
