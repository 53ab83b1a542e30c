package app

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/app"
	"github.com/iov-one/drip/coin"
	"github.com/iov-one/drip/commands/server"
	"github.com/iov-one/drip/crypto"
	"github.com/iov-one/drip/x/cash"
	"github.com/iov-one/drip/x/rewards"
	"github.com/iov-one/drip/x/sigs"
	"github.com/iov-one/drip/x/token"
)

func TestSendTx(t *testing.T) {
	chainID := "test-net-22"
	mainAccount := &account{pk: crypto.GenPrivKeyEd25519()}
	myApp := newTestApp(t, chainID, []*account{mainAccount})

	// Query for my balance
	key := cash.NewBucket().DBKey(mainAccount.address())
	queryAndCheckWallet(t, myApp, "/", key,
		cash.Wallet{
			Metadata: &drip.Metadata{Schema: 1},
			Coin:     coin.NewCoin(50000, "DRP"),
		})

	// build and sign a transaction
	pk2 := crypto.GenPrivKeyEd25519()
	addr2 := pk2.PublicKey().Address()
	dres := sendCoin(t, myApp, chainID, 2, []*account{mainAccount}, mainAccount.address(), addr2, 2000, "DRP", "Have a great trip!")

	// a plain send is tagged by the action tagger alone
	if assert.Equal(t, 1, len(dres.Tags), "%#v", dres.Tags) {
		assert.Equal(t, []byte("action"), dres.Tags[0].Key)
		assert.Equal(t, []byte("cash/send"), dres.Tags[0].Value)
	}

	// Query for new balances (same query, new state)
	queryAndCheckWallet(t, myApp, "/", key,
		cash.Wallet{
			Metadata: &drip.Metadata{Schema: 1},
			Coin:     coin.NewCoin(48000, "DRP"),
		})
}

func TestQuery(t *testing.T) {
	chainID := "test-net-22"
	mainAccount := &account{pk: crypto.GenPrivKeyEd25519()}
	myApp := newTestApp(t, chainID, []*account{mainAccount})

	// build and sign a transaction
	pk2 := crypto.GenPrivKeyEd25519()
	addr2 := pk2.PublicKey().Address()
	sendCoin(t, myApp, chainID, 2, []*account{mainAccount}, mainAccount.address(), addr2, 2000, "DRP", "Have a great trip!")

	// make sure money arrived safely
	key2 := cash.NewBucket().DBKey(addr2)
	queryAndCheckWallet(t, myApp, "/", key2,
		cash.Wallet{
			Metadata: &drip.Metadata{Schema: 1},
			Coin:     coin.NewCoin(2000, "DRP"),
		})

	// make sure other paths also get this value....
	queryAndCheckWallet(t, myApp, "/wallets", addr2,
		cash.Wallet{
			Metadata: &drip.Metadata{Schema: 1},
			Coin:     coin.NewCoin(2000, "DRP"),
		})

	// make sure other paths also get this value....
	queryAndCheckWallet(t, myApp, "/wallets?prefix", addr2[:15],
		cash.Wallet{
			Metadata: &drip.Metadata{Schema: 1},
			Coin:     coin.NewCoin(2000, "DRP"),
		})

	// get the genesis token
	queryAndCheckTokenInfo(t, myApp, "/tokens", []byte("DRP"),
		[]token.TokenInfo{
			{
				Metadata: &drip.Metadata{Schema: 1},
				Name:     "Drip Token",
			},
		})

	// and the genesis holding of the main account
	queryAndCheckHolding(t, myApp, "/holdings", token.HoldingAccount(mainAccount.address(), "DRP"),
		token.Holding{
			Metadata: &drip.Metadata{Schema: 1},
			Owner:    mainAccount.address(),
			Ticker:   "DRP",
			Balance:  50000,
		})
}

func TestTokenPoolLifecycle(t *testing.T) {
	chainID := "test-net-22"
	mainAccount := &account{pk: crypto.GenPrivKeyEd25519()}
	myApp := newTestApp(t, chainID, []*account{mainAccount})

	holder1 := crypto.GenPrivKeyEd25519().PublicKey().Address()
	holder2 := crypto.GenPrivKeyEd25519().PublicKey().Address()

	poolKey := createRewardPool(t, myApp, chainID, 2, []*account{mainAccount},
		mainAccount.address(), "DRP", rewards.ProportionalSplit, false)
	assert.Equal(t, []byte(rewards.PoolAccount(rewards.ProportionalSplit, "DRP", 255)), poolKey)

	queryAndCheckPool(t, myApp, poolKey,
		rewards.Pool{
			Metadata:        &drip.Metadata{Schema: 1},
			Owner:           mainAccount.address(),
			Ticker:          "DRP",
			Policy:          rewards.ProportionalSplit,
			PoolBump:        255,
			VaultBump:       255,
			RegistryVersion: 1,
		})

	// hand both holders their token accounts
	transferToken(t, myApp, chainID, 3, []*account{mainAccount}, mainAccount.address(), holder1, 3000, "DRP")
	transferToken(t, myApp, chainID, 4, []*account{mainAccount}, mainAccount.address(), holder2, 1000, "DRP")

	// register the holders, deliberately out of order
	updateTopHolders(t, myApp, chainID, 5, []*account{mainAccount}, poolKey,
		[]rewards.TopHolder{
			{Address: holder2, Balance: 1000},
			{Address: holder1, Balance: 3000},
		})
	queryAndCheckPool(t, myApp, poolKey,
		rewards.Pool{
			Metadata:        &drip.Metadata{Schema: 1},
			Owner:           mainAccount.address(),
			Ticker:          "DRP",
			Policy:          rewards.ProportionalSplit,
			PoolBump:        255,
			VaultBump:       255,
			RegistryVersion: 2,
			Holders: []rewards.TopHolder{
				{Address: holder1, Balance: 3000},
				{Address: holder2, Balance: 1000},
			},
		})

	depositReward(t, myApp, chainID, 6, []*account{mainAccount}, poolKey, 4000, "DRP")
	vault := rewards.VaultAccount(rewards.ProportionalSplit, "DRP", 255)
	queryAndCheckHolding(t, myApp, "/holdings", token.HoldingAccount(vault, "DRP"),
		token.Holding{
			Metadata: &drip.Metadata{Schema: 1},
			Owner:    vault,
			Ticker:   "DRP",
			Balance:  4000,
		})

	// recipients are the holding accounts of the registered holders,
	// matching the registry position by position
	distributeReward(t, myApp, chainID, 7, []*account{mainAccount}, poolKey, 2,
		[]drip.Address{
			token.HoldingAccount(holder1, "DRP"),
			token.HoldingAccount(holder2, "DRP"),
		})

	// 4000 escrowed, 3000:1000 registered balances
	queryAndCheckHolding(t, myApp, "/holdings", token.HoldingAccount(holder1, "DRP"),
		token.Holding{
			Metadata: &drip.Metadata{Schema: 1},
			Owner:    holder1,
			Ticker:   "DRP",
			Balance:  6000,
		})
	queryAndCheckHolding(t, myApp, "/holdings", token.HoldingAccount(holder2, "DRP"),
		token.Holding{
			Metadata: &drip.Metadata{Schema: 1},
			Owner:    holder2,
			Ticker:   "DRP",
			Balance:  2000,
		})
	queryAndCheckHolding(t, myApp, "/holdings", token.HoldingAccount(vault, "DRP"),
		token.Holding{
			Metadata: &drip.Metadata{Schema: 1},
			Owner:    vault,
			Ticker:   "DRP",
			Balance:  0,
		})

	// a second deposit can be taken back by the owner
	depositReward(t, myApp, chainID, 8, []*account{mainAccount}, poolKey, 1000, "DRP")
	withdrawReward(t, myApp, chainID, 9, []*account{mainAccount}, poolKey, 1000, "DRP")
	queryAndCheckHolding(t, myApp, "/holdings", token.HoldingAccount(mainAccount.address(), "DRP"),
		token.Holding{
			Metadata: &drip.Metadata{Schema: 1},
			Owner:    mainAccount.address(),
			Ticker:   "DRP",
			Balance:  42000,
		})

	queryAndCheckPool(t, myApp, poolKey,
		rewards.Pool{
			Metadata:         &drip.Metadata{Schema: 1},
			Owner:            mainAccount.address(),
			Ticker:           "DRP",
			Policy:           rewards.ProportionalSplit,
			PoolBump:         255,
			VaultBump:        255,
			TotalRewards:     5000,
			TotalDistributed: 4000,
			RegistryVersion:  2,
			Holders: []rewards.TopHolder{
				{Address: holder1, Balance: 3000},
				{Address: holder2, Balance: 1000},
			},
		})
}

func TestNativePoolLifecycle(t *testing.T) {
	chainID := "test-net-22"
	mainAccount := &account{pk: crypto.GenPrivKeyEd25519()}
	myApp := newTestApp(t, chainID, []*account{mainAccount})

	holder1 := crypto.GenPrivKeyEd25519().PublicKey().Address()
	holder2 := crypto.GenPrivKeyEd25519().PublicKey().Address()

	poolKey := createRewardPool(t, myApp, chainID, 2, []*account{mainAccount},
		mainAccount.address(), "", rewards.EqualSplit, false)
	assert.Equal(t, []byte(rewards.PoolAccount(rewards.EqualSplit, "", 255)), poolKey)

	// a native vault is funded with a plain coin send
	vault := rewards.VaultAccount(rewards.EqualSplit, "", 255)
	sendCoin(t, myApp, chainID, 3, []*account{mainAccount}, mainAccount.address(), vault, 2001, "DRP", "community pot")

	updateTopHolders(t, myApp, chainID, 4, []*account{mainAccount}, poolKey,
		[]rewards.TopHolder{
			{Address: holder1, Balance: 7},
			{Address: holder2, Balance: 3},
		})

	// an equal split pays every registered holder the same cut
	distributeReward(t, myApp, chainID, 5, []*account{mainAccount}, poolKey, 2,
		[]drip.Address{holder1, holder2})
	queryAndCheckWallet(t, myApp, "/wallets", holder1,
		cash.Wallet{
			Metadata: &drip.Metadata{Schema: 1},
			Coin:     coin.NewCoin(1000, "DRP"),
		})
	queryAndCheckWallet(t, myApp, "/wallets", holder2,
		cash.Wallet{
			Metadata: &drip.Metadata{Schema: 1},
			Coin:     coin.NewCoin(1000, "DRP"),
		})

	// plain sends bypass the deposit bookkeeping, the pass ratchets the
	// total up from the vault observation
	queryAndCheckPool(t, myApp, poolKey,
		rewards.Pool{
			Metadata:         &drip.Metadata{Schema: 1},
			Owner:            mainAccount.address(),
			Policy:           rewards.EqualSplit,
			PoolBump:         255,
			VaultBump:        255,
			TotalRewards:     2001,
			TotalDistributed: 2000,
			RegistryVersion:  2,
			Holders: []rewards.TopHolder{
				{Address: holder1, Balance: 7},
				{Address: holder2, Balance: 3},
			},
		})

	// the leftover goes back to the owner
	withdrawReward(t, myApp, chainID, 6, []*account{mainAccount}, poolKey, 1, "DRP")
	queryAndCheckWallet(t, myApp, "/wallets", mainAccount.address(),
		cash.Wallet{
			Metadata: &drip.Metadata{Schema: 1},
			Coin:     coin.NewCoin(48000, "DRP"),
		})
	queryAndCheckWallet(t, myApp, "/wallets", vault,
		cash.Wallet{
			Metadata: &drip.Metadata{Schema: 1},
			Coin:     coin.Coin{Ticker: "DRP"},
		})
}

type account struct {
	pk *crypto.PrivateKey
	n  int64
}

func (a *account) nonce() (n int64) {
	n = a.n
	a.n++
	return
}

func (a *account) address() []byte {
	return a.pk.PublicKey().Address()
}

// newTestApp creates a new app with a wallet and a matching token holding
// for each account. Coins and tokens are the same across all accounts and
// calls.
func newTestApp(t require.TestingT, chainID string, accounts []*account) app.BaseApp {
	// in-memory data-store
	abciApp, err := GenerateApp(&server.Options{
		Home:   "",
		Logger: log.NewNopLogger(),
		Debug:  true,
	})
	require.NoError(t, err)
	myApp := abciApp.(app.BaseApp) // let's set up a genesis file with some cash
	appState := withWalletAppState(t, accounts)

	// Commit first block, make sure non-nil hash
	myApp.InitChain(abci.RequestInitChain{AppStateBytes: []byte(appState), ChainId: chainID})
	header := abci.Header{Height: 1}
	myApp.BeginBlock(abci.RequestBeginBlock{Header: header})
	myApp.EndBlock(abci.RequestEndBlock{})
	cres := myApp.Commit()
	block1 := cres.Data
	assert.NotEmpty(t, block1)
	assert.Equal(t, chainID, myApp.GetChainID())

	return myApp
}

func withWalletAppState(t require.TestingT, accounts []*account) string {
	var wBuffer, hBuffer bytes.Buffer
	for i, acc := range accounts {
		_, err := wBuffer.WriteString(fmt.Sprintf(`{
			"address": "%X",
			"coin": {"amount": 50000, "ticker": "DRP"}
		}`, acc.address()))
		require.NoError(t, err)
		_, err = hBuffer.WriteString(fmt.Sprintf(`{
			"owner": "%X",
			"coin": {"amount": 50000, "ticker": "DRP"}
		}`, acc.address()))
		require.NoError(t, err)

		if i != len(accounts)-1 {
			_, err = wBuffer.WriteString(",")
			require.NoError(t, err)
			_, err = hBuffer.WriteString(",")
			require.NoError(t, err)
		}
	}

	appState := fmt.Sprintf(`{
		"conf": {
			"token": {
				"metadata": {"schema": 1},
				"owner": "%X"
			}
		},
		"initialize_schema": ["cash", "sigs", "token", "rewards"],
		"cash": [%s],
		"tokens": [{
			"ticker": "DRP",
			"name": "Drip Token"
		}],
		"holdings": [%s]
	}`, accounts[0].address(), wBuffer.String(), hBuffer.String())

	return appState
}

// sendCoin creates the transaction, signs it and sends it
// checks money has arrived safely
func sendCoin(t require.TestingT, baseApp app.BaseApp, chainID string, height int64, signers []*account,
	from, to []byte, amount uint64, ticker, memo string) abci.ResponseDeliverTx {
	msg := &cash.SendMsg{
		Metadata:    &drip.Metadata{Schema: 1},
		Source:      from,
		Destination: to,
		Amount:      coin.NewCoin(amount, ticker),
		Memo:        memo,
	}

	tx := &Tx{Msg: msg}
	res := signAndCommit(t, baseApp, tx, signers, chainID, height)

	// make sure money arrived safely
	queryAndCheckWallet(t, baseApp, "/wallets", to,
		cash.Wallet{
			Metadata: &drip.Metadata{Schema: 1},
			Coin:     coin.NewCoin(amount, ticker),
		})

	return res
}

// transferToken moves registered token units between holding accounts,
// creating the destination holding on the way.
func transferToken(t require.TestingT, baseApp app.BaseApp, chainID string, height int64, signers []*account,
	from, to []byte, amount uint64, ticker string) {
	msg := &token.TransferMsg{
		Metadata:    &drip.Metadata{Schema: 1},
		Source:      from,
		Destination: to,
		Amount:      coin.NewCoin(amount, ticker),
	}

	tx := &Tx{Msg: msg}
	signAndCommit(t, baseApp, tx, signers, chainID, height)

	queryAndCheckHolding(t, baseApp, "/holdings", token.HoldingAccount(to, ticker),
		token.Holding{
			Metadata: &drip.Metadata{Schema: 1},
			Owner:    to,
			Ticker:   ticker,
			Balance:  amount,
		})
}

// createRewardPool creates a pool, signs the transaction and sends it,
// returning the pool key reported by the chain.
func createRewardPool(t require.TestingT, baseApp app.BaseApp, chainID string, height int64, signers []*account,
	owner []byte, ticker string, policy rewards.Policy, autoDistribute bool) []byte {
	msg := &rewards.CreatePoolMsg{
		Metadata:       &drip.Metadata{Schema: 1},
		Owner:          owner,
		Ticker:         ticker,
		Policy:         policy,
		AutoDistribute: autoDistribute,
	}

	tx := &Tx{Msg: msg}
	dres := signAndCommit(t, baseApp, tx, signers, chainID, height)
	require.NotEmpty(t, dres.Data)
	return dres.Data
}

func updateTopHolders(t require.TestingT, baseApp app.BaseApp, chainID string, height int64, signers []*account,
	poolKey []byte, holders []rewards.TopHolder) {
	msg := &rewards.UpdateTopHoldersMsg{
		Metadata: &drip.Metadata{Schema: 1},
		PoolKey:  poolKey,
		Holders:  holders,
	}

	tx := &Tx{Msg: msg}
	signAndCommit(t, baseApp, tx, signers, chainID, height)
}

func depositReward(t require.TestingT, baseApp app.BaseApp, chainID string, height int64, signers []*account,
	poolKey []byte, amount uint64, ticker string) abci.ResponseDeliverTx {
	msg := &rewards.DepositMsg{
		Metadata: &drip.Metadata{Schema: 1},
		PoolKey:  poolKey,
		Amount:   coin.NewCoin(amount, ticker),
	}

	tx := &Tx{Msg: msg}
	return signAndCommit(t, baseApp, tx, signers, chainID, height)
}

func distributeReward(t require.TestingT, baseApp app.BaseApp, chainID string, height int64, signers []*account,
	poolKey []byte, version uint32, recipients []drip.Address) {
	msg := &rewards.DistributeMsg{
		Metadata:        &drip.Metadata{Schema: 1},
		PoolKey:         poolKey,
		RegistryVersion: version,
		Recipients:      recipients,
	}

	tx := &Tx{Msg: msg}
	signAndCommit(t, baseApp, tx, signers, chainID, height)
}

func withdrawReward(t require.TestingT, baseApp app.BaseApp, chainID string, height int64, signers []*account,
	poolKey []byte, amount uint64, ticker string) {
	msg := &rewards.WithdrawMsg{
		Metadata: &drip.Metadata{Schema: 1},
		PoolKey:  poolKey,
		Amount:   coin.NewCoin(amount, ticker),
	}

	tx := &Tx{Msg: msg}
	signAndCommit(t, baseApp, tx, signers, chainID, height)
}

// signAndCommit signs tx with signatures from signers and submits to the chain
// asserts and fails the test in case of errors during the process
func signAndCommit(t require.TestingT, baseApp app.BaseApp, tx *Tx, signers []*account, chainID string,
	height int64) abci.ResponseDeliverTx {
	for _, signer := range signers {
		sig, err := sigs.SignTx(signer.pk, tx, chainID, signer.nonce())
		require.NoError(t, err)
		tx.Signatures = append(tx.Signatures, sig)
	}

	txBytes, err := tx.Marshal()
	require.NoError(t, err)
	require.NotEmpty(t, txBytes)

	// Submit to the chain
	header := abci.Header{Height: height}
	baseApp.BeginBlock(abci.RequestBeginBlock{Header: header})
	// check and deliver must pass
	chres := baseApp.CheckTx(txBytes)
	require.Equal(t, uint32(0), chres.Code, chres.Log)

	dres := baseApp.DeliverTx(txBytes)
	require.Equal(t, uint32(0), dres.Code, dres.Log)

	baseApp.EndBlock(abci.RequestEndBlock{})
	cres := baseApp.Commit()
	assert.NotEmpty(t, cres.Data)
	return dres
}

// queryAndCheckWallet queries the wallet from the chain and check it is the one expected
func queryAndCheckWallet(t require.TestingT, baseApp app.BaseApp, path string, data []byte, expected cash.Wallet) {
	query := abci.RequestQuery{Path: path, Data: data}
	res := baseApp.Query(query)

	// check query was ok
	require.Equal(t, uint32(0), res.Code, "%#v", res)
	assert.NotEmpty(t, res.Value)

	var actual cash.Wallet
	err := app.UnmarshalOneResult(res.Value, &actual)
	require.NoError(t, err)
	require.Equal(t, expected, actual)
}

// queryAndCheckHolding queries the token holding from the chain and check it
// is the one expected
func queryAndCheckHolding(t require.TestingT, baseApp app.BaseApp, path string, data []byte, expected token.Holding) {
	query := abci.RequestQuery{Path: path, Data: data}
	res := baseApp.Query(query)

	// check query was ok
	require.Equal(t, uint32(0), res.Code, "%#v", res)
	assert.NotEmpty(t, res.Value)

	var actual token.Holding
	err := app.UnmarshalOneResult(res.Value, &actual)
	require.NoError(t, err)
	require.Equal(t, expected, actual)
}

// queryAndCheckPool queries the reward pool from the chain and check it is
// the one expected
func queryAndCheckPool(t require.TestingT, baseApp app.BaseApp, poolKey []byte, expected rewards.Pool) {
	query := abci.RequestQuery{Path: "/rewards/pools", Data: poolKey}
	res := baseApp.Query(query)

	// check query was ok
	require.Equal(t, uint32(0), res.Code, "%#v", res)
	assert.NotEmpty(t, res.Value)

	var actual rewards.Pool
	err := app.UnmarshalOneResult(res.Value, &actual)
	require.NoError(t, err)
	require.Equal(t, expected, actual)
}

// queryAndCheckTokenInfo queries tokens from the chain and check they're the one expected
func queryAndCheckTokenInfo(t require.TestingT, baseApp app.BaseApp, path string, data []byte, expected []token.TokenInfo) {
	query := abci.RequestQuery{Path: path, Data: data}
	res := baseApp.Query(query)

	var set app.ResultSet
	err := set.Unmarshal(res.Value)
	require.NoError(t, err)
	assert.Equal(t, len(expected), len(set.Results))

	for i, obj := range set.Results {
		var actual token.TokenInfo
		err = actual.Unmarshal(obj)
		require.NoError(t, err)
		require.Equal(t, expected[i], actual)
	}
}
