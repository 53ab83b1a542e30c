package app

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/app"
	"github.com/iov-one/drip/coin"
	"github.com/iov-one/drip/commands/server"
	"github.com/iov-one/drip/crypto"
	"github.com/iov-one/drip/migration"
	"github.com/iov-one/drip/x/cash"
	"github.com/iov-one/drip/x/rewards"
	"github.com/iov-one/drip/x/token"
	abci "github.com/tendermint/tendermint/abci/types"
)

// GenInitOptions will produce some basic options for one rich
// account, to use for dev mode
//
// You can set
func GenInitOptions(args []string) (json.RawMessage, error) {
	ticker := "DRP"
	if len(args) > 0 {
		ticker = args[0]
		if !coin.IsCC(ticker) {
			return nil, fmt.Errorf("Invalid ticker %s", ticker)
		}
	}

	var addr string
	if len(args) > 1 {
		addr = args[1]
	} else {
		// if no address provided, auto-generate one
		// and print out the keys
		bz, keys, err := GenerateCoinKey()
		if err != nil {
			return nil, err
		}
		addr = hex.EncodeToString(bz)
		fmt.Println(keys)
	}

	opts := fmt.Sprintf(`
          {
            "conf": {
              "token": {
                "metadata": {"schema": 1},
                "owner": "%s"
              }
            },
            "initialize_schema": ["cash", "sigs", "token", "rewards"],
            "cash": [
              {
                "address": "%s",
                "coin": {"ticker": "%s", "amount": 123456789}
              }
            ],
            "tokens": [
              {"ticker": "%s", "name": "Drip Token"}
            ],
            "holdings": [
              {
                "owner": "%s",
                "coin": {"ticker": "%s", "amount": 123456789}
              }
            ],
            "rewards": [
              {
                "owner": "%s",
                "ticker": "%s",
                "policy": "proportional",
                "auto_distribute": true
              }
            ]
          }
	`, addr, addr, ticker, ticker, addr, ticker, addr, ticker)
	return []byte(opts), nil
}

// GenerateApp is used to create a stub for server/start.go command
func GenerateApp(options *server.Options) (abci.Application, error) {
	// db goes in a subdir, but "" -> "" for memdb
	var dbPath string
	if options.Home != "" {
		dbPath = filepath.Join(options.Home, "drip.db")
	}

	stack := Stack()
	application, err := Application("drip", stack, TxDecoder, dbPath, options.Debug)
	if err != nil {
		return nil, err
	}
	application.WithInit(Initializers())

	// set the logger and return
	application.WithLogger(options.Logger)
	return application, nil
}

// Initializers returns the chain of genesis initializers of all extensions
// wired into the application. The token initializer must run before the
// rewards one, pool declarations reference registered tickers.
func Initializers() drip.Initializer {
	return app.ChainInitializers(
		&migration.Initializer{},
		&cash.Initializer{},
		&token.Initializer{},
		&rewards.Initializer{},
	)
}

type output struct {
	Pubkey *crypto.PublicKey  `json:"pub_key"`
	Secret *crypto.PrivateKey `json:"secret"`
}

// GenerateCoinKey returns the address of a public key,
// along with a json representation of the keys.
// You can give coins to this address and
// import the keys in a client to use them
func GenerateCoinKey() (drip.Address, string, error) {
	// XXX: we need to generate BIP39 recovery phrases in crypto
	privKey := crypto.GenPrivKeyEd25519()
	pubKey := privKey.PublicKey()
	addr := pubKey.Address()

	out := output{Pubkey: pubKey, Secret: privKey}
	keys, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, "", err
	}

	return addr, string(keys), nil
}
