package server

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"

	cfg "github.com/tendermint/tendermint/config"
	cmn "github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tendermint/tendermint/p2p"
	"github.com/tendermint/tendermint/privval"
	tmtypes "github.com/tendermint/tendermint/types"
	tmtime "github.com/tendermint/tendermint/types/time"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/crypto"
)

const appStateKey = "app_state"

// GenOptions can parse command-line and flag to
// generate default app_state for the genesis file.
// This is application-specific
type GenOptions func(args []string) (json.RawMessage, error)

// InitCmd will initialize all files for tendermint,
// along with proper app_state.
// The application can pass in a function to generate
// proper state. And may want to use GenerateCoinKey
// to create default account(s).
func InitCmd(gen GenOptions, logger log.Logger, home string, args []string) error {
	config := cfg.DefaultConfig()
	config.SetRoot(home)
	cfg.EnsureRoot(config.RootDir)

	err := initTendermintFiles(config, logger)
	if err != nil {
		return err
	}

	// no app_state, leave like tendermint
	if gen == nil {
		return nil
	}

	// Now, we want to add the custom app_state
	options, err := gen(args)
	if err != nil {
		return err
	}

	// And add them to the genesis file
	genFile := config.GenesisFile()
	return addGenesisOptions(genFile, options)
}

// GenerateCoinKey returns the address of a public key,
// along with the secret phrase to recover the private key.
// You can give coins to this address and return the recovery
// phrase to the user to access them.
func GenerateCoinKey() (drip.Address, string, error) {
	// TODO: we need to generate BIP39 recovery phrases in crypto
	privKey := crypto.GenPrivKeyEd25519()
	addr := privKey.PublicKey().Address()
	return addr, "TODO: add a recovery phrase", nil
}

// This was adapted from tendermint/cmd/tendermint/commands/init.go
// so we could pass in the config and the logger.
func initTendermintFiles(config *cfg.Config, logger log.Logger) error {
	// private validator
	privValKeyFile := config.PrivValidatorKeyFile()
	privValStateFile := config.PrivValidatorStateFile()
	var privValidator *privval.FilePV
	if fileExists(privValKeyFile) {
		privValidator = privval.LoadFilePV(privValKeyFile, privValStateFile)
		logger.Info("Found private validator", "path", privValKeyFile)
	} else {
		privValidator = privval.GenFilePV(privValKeyFile, privValStateFile)
		privValidator.Save()
		logger.Info("Generated private validator", "path", privValKeyFile)
	}

	// node key
	nodeKeyFile := config.NodeKeyFile()
	if fileExists(nodeKeyFile) {
		logger.Info("Found node key", "path", nodeKeyFile)
	} else {
		if _, err := p2p.LoadOrGenNodeKey(nodeKeyFile); err != nil {
			return err
		}
		logger.Info("Generated node key", "path", nodeKeyFile)
	}

	// genesis file
	genFile := config.GenesisFile()
	if fileExists(genFile) {
		logger.Info("Found genesis file", "path", genFile)
		return nil
	}
	genDoc := tmtypes.GenesisDoc{
		ChainID:         fmt.Sprintf("test-chain-%v", cmn.RandStr(6)),
		GenesisTime:     tmtime.Now(),
		ConsensusParams: tmtypes.DefaultConsensusParams(),
	}
	genDoc.Validators = []tmtypes.GenesisValidator{{
		PubKey: privValidator.GetPubKey(),
		Power:  10,
	}}

	if err := genDoc.SaveAs(genFile); err != nil {
		return err
	}
	logger.Info("Generated genesis file", "path", genFile)
	return nil
}

func fileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}

// GenesisDoc involves some tendermint-specific structures we don't
// want to parse, so we just grab it into a raw object format,
// so we can add one line.
type GenesisDoc map[string]json.RawMessage

func addGenesisOptions(filename string, options json.RawMessage) error {
	bz, err := ioutil.ReadFile(filename)
	if err != nil {
		return err
	}

	var doc GenesisDoc
	err = json.Unmarshal(bz, &doc)
	if err != nil {
		return err
	}

	doc[appStateKey] = options
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	return ioutil.WriteFile(filename, out, 0600)
}
