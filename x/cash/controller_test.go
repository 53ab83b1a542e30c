package cash

import (
	"math"
	"testing"

	"github.com/iov-one/drip/coin"
	"github.com/iov-one/drip/driptest"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/migration"
	"github.com/iov-one/drip/store"
)

func TestBalance(t *testing.T) {
	db := store.MemStore()
	migration.MustInitPkg(db, "cash")
	ctrl := NewController(NewBucket())

	addr := driptest.NewCondition().Address()

	if _, err := ctrl.Balance(db, addr); !errors.ErrEmpty.Is(err) {
		t.Fatalf("want no account error, got %+v", err)
	}

	if err := ctrl.CoinMint(db, addr, coin.NewCoin(500, "IOV")); err != nil {
		t.Fatalf("cannot mint: %s", err)
	}
	got, err := ctrl.Balance(db, addr)
	if err != nil {
		t.Fatalf("cannot get balance: %s", err)
	}
	if want := coin.NewCoin(500, "IOV"); !got.Equals(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestCoinMint(t *testing.T) {
	db := store.MemStore()
	migration.MustInitPkg(db, "cash")
	ctrl := NewController(NewBucket())

	addr := driptest.NewCondition().Address()

	if err := ctrl.CoinMint(db, addr, coin.NewCoin(100, "IOV")); err != nil {
		t.Fatalf("cannot mint to a fresh account: %s", err)
	}
	if err := ctrl.CoinMint(db, addr, coin.NewCoin(23, "IOV")); err != nil {
		t.Fatalf("cannot mint on top of an existing balance: %s", err)
	}
	got, err := ctrl.Balance(db, addr)
	if err != nil {
		t.Fatalf("cannot get balance: %s", err)
	}
	if want := coin.NewCoin(123, "IOV"); !got.Equals(want) {
		t.Fatalf("want %v, got %v", want, got)
	}

	// A different currency cannot be added to the same wallet.
	if err := ctrl.CoinMint(db, addr, coin.NewCoin(1, "DOGE")); !errors.ErrCurrency.Is(err) {
		t.Fatalf("want currency error, got %+v", err)
	}

	// Growing the balance past the numeric range must fail and leave the
	// wallet unchanged.
	if err := ctrl.CoinMint(db, addr, coin.NewCoin(math.MaxUint64, "IOV")); !errors.ErrOverflow.Is(err) {
		t.Fatalf("want overflow error, got %+v", err)
	}
	got, err = ctrl.Balance(db, addr)
	if err != nil {
		t.Fatalf("cannot get balance: %s", err)
	}
	if want := coin.NewCoin(123, "IOV"); !got.Equals(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestMoveCoins(t *testing.T) {
	db := store.MemStore()
	migration.MustInitPkg(db, "cash")
	ctrl := NewController(NewBucket())

	src := driptest.NewCondition().Address()
	dst := driptest.NewCondition().Address()

	// Sending from an account that does not exist must fail.
	err := ctrl.MoveCoins(db, src, dst, coin.NewCoin(10, "IOV"))
	if !errors.ErrEmpty.Is(err) {
		t.Fatalf("want no account error, got %+v", err)
	}

	if err := ctrl.CoinMint(db, src, coin.NewCoin(1000, "IOV")); err != nil {
		t.Fatalf("cannot mint: %s", err)
	}

	cases := map[string]struct {
		amount  coin.Coin
		wantErr *errors.Error
	}{
		"proper send": {
			amount: coin.NewCoin(300, "IOV"),
		},
		"zero amount": {
			amount:  coin.NewCoin(0, "IOV"),
			wantErr: errors.ErrAmount,
		},
		"invalid ticker": {
			amount:  coin.NewCoin(10, "x"),
			wantErr: errors.ErrCurrency,
		},
		"wrong currency": {
			amount:  coin.NewCoin(10, "DOGE"),
			wantErr: errors.ErrCurrency,
		},
		"more than the balance": {
			amount:  coin.NewCoin(99999, "IOV"),
			wantErr: errors.ErrInsufficientAmount,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			cache := db.CacheWrap()
			defer cache.Discard()

			if err := ctrl.MoveCoins(cache, src, dst, tc.amount); !tc.wantErr.Is(err) {
				t.Fatalf("want %v, got %+v", tc.wantErr, err)
			}
			if tc.wantErr != nil {
				return
			}
			srcBalance, err := ctrl.Balance(cache, src)
			if err != nil {
				t.Fatalf("cannot get source balance: %s", err)
			}
			wantSrc, err := coin.NewCoin(1000, "IOV").Subtract(tc.amount)
			if err != nil {
				t.Fatalf("cannot compute remainder: %s", err)
			}
			if !srcBalance.Equals(wantSrc) {
				t.Fatalf("want source %v, got %v", wantSrc, srcBalance)
			}
			dstBalance, err := ctrl.Balance(cache, dst)
			if err != nil {
				t.Fatalf("cannot get destination balance: %s", err)
			}
			if !dstBalance.Equals(tc.amount) {
				t.Fatalf("want destination %v, got %v", tc.amount, dstBalance)
			}
		})
	}
}

func TestMoveAllCoins(t *testing.T) {
	db := store.MemStore()
	migration.MustInitPkg(db, "cash")
	ctrl := NewController(NewBucket())

	src := driptest.NewCondition().Address()
	dst := driptest.NewCondition().Address()

	if err := ctrl.CoinMint(db, src, coin.NewCoin(42, "IOV")); err != nil {
		t.Fatalf("cannot mint: %s", err)
	}
	if err := ctrl.MoveCoins(db, src, dst, coin.NewCoin(42, "IOV")); err != nil {
		t.Fatalf("cannot drain the wallet: %s", err)
	}
	got, err := ctrl.Balance(db, src)
	if err != nil {
		t.Fatalf("cannot get drained balance: %s", err)
	}
	if !got.IsZero() {
		t.Fatalf("want empty wallet, got %v", got)
	}
}

func TestEnsureWallet(t *testing.T) {
	db := store.MemStore()
	migration.MustInitPkg(db, "cash")
	ctrl := NewController(NewBucket())

	addr := driptest.NewCondition().Address()

	if err := ctrl.EnsureWallet(db, addr); err != nil {
		t.Fatalf("cannot create a fresh wallet: %s", err)
	}
	got, err := ctrl.Balance(db, addr)
	if err != nil {
		t.Fatalf("cannot get balance: %s", err)
	}
	if !got.IsZero() {
		t.Fatalf("want an empty wallet, got %v", got)
	}

	if err := ctrl.CoinMint(db, addr, coin.NewCoin(77, "IOV")); err != nil {
		t.Fatalf("cannot mint: %s", err)
	}
	// An existing wallet is left alone.
	if err := ctrl.EnsureWallet(db, addr); err != nil {
		t.Fatalf("cannot ensure an existing wallet: %s", err)
	}
	got, err = ctrl.Balance(db, addr)
	if err != nil {
		t.Fatalf("cannot get balance: %s", err)
	}
	if want := coin.NewCoin(77, "IOV"); !got.Equals(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}
