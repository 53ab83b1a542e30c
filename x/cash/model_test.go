package cash

import (
	"testing"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/coin"
	"github.com/iov-one/drip/driptest"
	"github.com/iov-one/drip/driptest/assert"
	"github.com/iov-one/drip/errors"
)

func TestWalletValidate(t *testing.T) {
	cases := map[string]struct {
		wallet  Wallet
		wantErr *errors.Error
	}{
		"valid wallet": {
			wallet: Wallet{
				Metadata: &drip.Metadata{Schema: 1},
				Coin:     coin.NewCoin(871, "IOV"),
			},
		},
		"empty wallet is valid": {
			wallet: Wallet{
				Metadata: &drip.Metadata{Schema: 1},
			},
		},
		"missing metadata": {
			wallet: Wallet{
				Coin: coin.NewCoin(871, "IOV"),
			},
			wantErr: errors.ErrMetadata,
		},
		"invalid ticker": {
			wallet: Wallet{
				Metadata: &drip.Metadata{Schema: 1},
				Coin:     coin.NewCoin(871, "x"),
			},
			wantErr: errors.ErrCurrency,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.wallet.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("want %v, got %+v", tc.wantErr, err)
			}
		})
	}
}

func TestWalletSerialization(t *testing.T) {
	addr := driptest.NewCondition().Address()
	obj := WalletWith(addr, coin.NewCoin(123456789, "IOV"))

	raw, err := AsWallet(obj).Marshal()
	if err != nil {
		t.Fatalf("cannot marshal wallet: %s", err)
	}

	var restored Wallet
	if err := restored.Unmarshal(raw); err != nil {
		t.Fatalf("cannot unmarshal wallet: %s", err)
	}
	assert.Equal(t, AsWallet(obj), &restored)
}

func TestWalletSerializationEmpty(t *testing.T) {
	var w Wallet
	if _, err := w.Marshal(); !errors.ErrMetadata.Is(err) {
		t.Fatalf("want metadata error, got %+v", err)
	}

	if err := w.Unmarshal([]byte{0, 1, 2}); !errors.ErrInput.Is(err) {
		t.Fatalf("want input error, got %+v", err)
	}
}
