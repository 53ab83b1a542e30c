package x

import (
	"context"
	"testing"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/driptest"
	"github.com/iov-one/drip/driptest/assert"
)

func TestAuth(t *testing.T) {
	a := driptest.NewCondition()
	b := driptest.NewCondition()
	c := driptest.NewCondition()

	ctx1 := &driptest.CtxAuth{Key: "foo"}
	ctx2 := &driptest.CtxAuth{Key: "bar"}

	cases := map[string]struct {
		ctx          drip.Context
		auth         Authenticator
		mainSigner   drip.Condition
		wantInCtx    drip.Condition
		wantNotInCtx drip.Condition
		wantAll      []drip.Condition
	}{
		"empty context": {
			ctx:          context.Background(),
			auth:         &driptest.Auth{},
			wantNotInCtx: b,
		},
		"signer a": {
			ctx:          context.Background(),
			auth:         &driptest.Auth{Signer: a},
			mainSigner:   a,
			wantInCtx:    a,
			wantNotInCtx: b,
			wantAll:      []drip.Condition{a},
		},
		"signer b": {
			ctx: context.Background(),
			auth: ChainAuth(
				&driptest.Auth{Signer: b},
				&driptest.Auth{Signer: a}),
			mainSigner:   b,
			wantInCtx:    b,
			wantNotInCtx: c,
			wantAll:      []drip.Condition{b, a},
		},
		"ctxAuth checks what is set by same key": {
			ctx:          ctx1.SetConditions(context.Background(), a, b),
			auth:         ctx1,
			mainSigner:   a,
			wantInCtx:    b,
			wantNotInCtx: c,
			wantAll:      []drip.Condition{a, b},
		},
		"ctxAuth with different key sees nothing": {
			ctx:          ctx1.SetConditions(context.Background(), a, b),
			auth:         ctx2,
			wantNotInCtx: a,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.mainSigner, MainSigner(tc.ctx, tc.auth))
			if tc.wantInCtx != nil && !tc.auth.HasAddress(tc.ctx, tc.wantInCtx.Address()) {
				t.Fatal("condition address that was expected in context not found")
			}

			if tc.wantNotInCtx != nil && tc.auth.HasAddress(tc.ctx, tc.wantNotInCtx.Address()) {
				t.Fatal("condition address that was expected not to be in context found")
			}

			all := tc.auth.GetConditions(tc.ctx)
			assert.Equal(t, tc.wantAll, all)

			addrs := GetAddresses(tc.ctx, tc.auth)
			if !HasAllAddresses(tc.ctx, tc.auth, addrs) {
				t.Fatal("has all addresses check failed")
			}
			if tc.wantNotInCtx != nil {
				more := append(addrs, tc.wantNotInCtx.Address())
				if HasAllAddresses(tc.ctx, tc.auth, more) {
					t.Fatal("has all addresses succeeded after adding non existing address")
				}
			}

			if len(addrs) > 0 {
				if !HasNAddresses(tc.ctx, tc.auth, addrs, len(addrs)-1) {
					t.Fatal("want address check of a subset to succeed")
				}
				if HasNAddresses(tc.ctx, tc.auth, addrs, len(addrs)+1) {
					t.Fatal("want address check of a superset to fail")
				}
			}
		})
	}
}
