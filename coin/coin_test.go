package coin

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/driptest/assert"
)

func TestCompareCoin(t *testing.T) {
	cases := map[string]struct {
		a       Coin
		b       Coin
		wantRes int
	}{
		"a greater than b": {
			a:       NewCoin(20, "ABC"),
			b:       NewCoin(19, "ABC"),
			wantRes: 1,
		},
		"a smaller than b": {
			a:       NewCoin(0, "FOO"),
			b:       NewCoin(1, "FOO"),
			wantRes: -1,
		},
		"zero value coins": {
			a:       Coin{},
			b:       Coin{},
			wantRes: 0,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			res := tc.a.Compare(tc.b)
			assert.Equal(t, res, tc.wantRes)
		})
	}
}

func TestAddCoin(t *testing.T) {
	base := NewCoin(17, "ABC")
	cases := map[string]struct {
		a, b    Coin
		wantRes Coin
		wantErr *errors.Error
	}{
		"plain addition": {
			a:       base,
			b:       NewCoin(25, "ABC"),
			wantRes: NewCoin(42, "ABC"),
		},
		"adding zero of no currency": {
			a:       base,
			b:       Coin{},
			wantRes: base,
		},
		"adding to zero of no currency": {
			a:       Coin{},
			b:       base,
			wantRes: base,
		},
		"currency mismatch": {
			a:       base,
			b:       NewCoin(1, "NOT"),
			wantErr: errors.ErrCurrency,
		},
		"overflow": {
			a:       NewCoin(math.MaxUint64, "ABC"),
			b:       NewCoin(1, "ABC"),
			wantErr: errors.ErrOverflow,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			res, err := tc.a.Add(tc.b)
			if tc.wantErr != nil {
				if !tc.wantErr.Is(err) {
					t.Fatalf("unexpected error: %+v", err)
				}
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.wantRes, res)
		})
	}
}

func TestSubtractCoin(t *testing.T) {
	cases := map[string]struct {
		a, b    Coin
		wantRes Coin
		wantErr *errors.Error
	}{
		"plain subtraction": {
			a:       NewCoin(42, "ABC"),
			b:       NewCoin(25, "ABC"),
			wantRes: NewCoin(17, "ABC"),
		},
		"subtracting zero of no currency": {
			a:       NewCoin(42, "ABC"),
			b:       Coin{},
			wantRes: NewCoin(42, "ABC"),
		},
		"currency mismatch": {
			a:       NewCoin(42, "ABC"),
			b:       NewCoin(1, "NOT"),
			wantErr: errors.ErrCurrency,
		},
		"underflow": {
			a:       NewCoin(1, "ABC"),
			b:       NewCoin(2, "ABC"),
			wantErr: errors.ErrInsufficientAmount,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			res, err := tc.a.Subtract(tc.b)
			if tc.wantErr != nil {
				if !tc.wantErr.Is(err) {
					t.Fatalf("unexpected error: %+v", err)
				}
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.wantRes, res)
		})
	}
}

func TestDivideCoin(t *testing.T) {
	cases := map[string]struct {
		total    Coin
		pieces   uint64
		wantOne  Coin
		wantRest Coin
		wantErr  *errors.Error
	}{
		"even split": {
			total:    NewCoin(12, "ABC"),
			pieces:   4,
			wantOne:  NewCoin(3, "ABC"),
			wantRest: NewCoin(0, "ABC"),
		},
		"split with leftover": {
			total:    NewCoin(10, "ABC"),
			pieces:   4,
			wantOne:  NewCoin(2, "ABC"),
			wantRest: NewCoin(2, "ABC"),
		},
		"amount smaller than the number of pieces": {
			total:    NewCoin(3, "ABC"),
			pieces:   5,
			wantOne:  NewCoin(0, "ABC"),
			wantRest: NewCoin(3, "ABC"),
		},
		"zero pieces": {
			total:   NewCoin(10, "ABC"),
			pieces:  0,
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			one, rest, err := tc.total.Divide(tc.pieces)
			if tc.wantErr != nil {
				if !tc.wantErr.Is(err) {
					t.Fatalf("unexpected error: %+v", err)
				}
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.wantOne, one)
			assert.Equal(t, tc.wantRest, rest)
		})
	}
}

func TestMultiplyCoin(t *testing.T) {
	res, err := NewCoin(7, "ABC").Multiply(6)
	assert.Nil(t, err)
	assert.Equal(t, NewCoin(42, "ABC"), res)

	if _, err := NewCoin(math.MaxUint64, "ABC").Multiply(2); !errors.ErrOverflow.Is(err) {
		t.Fatalf("want an overflow, got %+v", err)
	}
}

func TestRatioCoin(t *testing.T) {
	cases := map[string]struct {
		total       Coin
		part, whole uint64
		wantRes     Coin
		wantErr     *errors.Error
	}{
		"half of the balance": {
			total:   NewCoin(201, "ABC"),
			part:    50,
			whole:   200,
			wantRes: NewCoin(50, "ABC"),
		},
		"whole balance": {
			total:   NewCoin(201, "ABC"),
			part:    200,
			whole:   200,
			wantRes: NewCoin(201, "ABC"),
		},
		"rounding down": {
			total:   NewCoin(201, "ABC"),
			part:    100,
			whole:   200,
			wantRes: NewCoin(100, "ABC"),
		},
		"share of a huge balance does not overflow": {
			total:   NewCoin(math.MaxUint64, "ABC"),
			part:    math.MaxUint64 - 1,
			whole:   math.MaxUint64,
			wantRes: NewCoin(math.MaxUint64-1, "ABC"),
		},
		"zero total": {
			total:   NewCoin(201, "ABC"),
			part:    1,
			whole:   0,
			wantErr: errors.ErrInput,
		},
		"part greater than total": {
			total:   NewCoin(201, "ABC"),
			part:    201,
			whole:   200,
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			res, err := tc.total.Ratio(tc.part, tc.whole)
			if tc.wantErr != nil {
				if !tc.wantErr.Is(err) {
					t.Fatalf("unexpected error: %+v", err)
				}
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.wantRes, res)
		})
	}
}

func TestValidateCoin(t *testing.T) {
	cases := map[string]struct {
		coin    Coin
		wantErr *errors.Error
	}{
		"valid coin": {
			coin: NewCoin(42, "DRIP"),
		},
		"zero amount is valid": {
			coin: NewCoin(0, "ABC"),
		},
		"missing ticker": {
			coin:    NewCoin(42, ""),
			wantErr: errors.ErrCurrency,
		},
		"ticker too short": {
			coin:    NewCoin(42, "AB"),
			wantErr: errors.ErrCurrency,
		},
		"lowercase ticker": {
			coin:    NewCoin(42, "drip"),
			wantErr: errors.ErrCurrency,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.coin.Validate()
			if tc.wantErr == nil {
				assert.Nil(t, err)
			} else if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}

func TestCoinJSONUnmarshal(t *testing.T) {
	cases := map[string]struct {
		json     string
		wantCoin Coin
		wantErr  bool
	}{
		"human readable format": {
			json:     `"42 DRIP"`,
			wantCoin: NewCoin(42, "DRIP"),
		},
		"human readable format without space": {
			json:     `"42DRIP"`,
			wantCoin: NewCoin(42, "DRIP"),
		},
		"structure format": {
			json:     `{"amount": 42, "ticker": "DRIP"}`,
			wantCoin: NewCoin(42, "DRIP"),
		},
		"negative amount is rejected": {
			json:    `"-42 DRIP"`,
			wantErr: true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var got Coin
			err := json.Unmarshal([]byte(tc.json), &got)
			if tc.wantErr {
				if err == nil {
					t.Fatal("want an error")
				}
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.wantCoin, got)
		})
	}
}

func TestCoinString(t *testing.T) {
	assert.Equal(t, "42 DRIP", NewCoin(42, "DRIP").String())
	assert.Equal(t, "7", Coin{Amount: 7}.String())
}
