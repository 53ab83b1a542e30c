package server

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/tendermint/libs/log"
)

// tempHome creates a throwaway home directory to run a command inside.
func tempHome(t *testing.T) (string, func()) {
	t.Helper()
	home, err := ioutil.TempDir("", "drip-server-cmd")
	require.NoError(t, err)
	return home, func() {
		os.RemoveAll(home)
	}
}

func TestInit(t *testing.T) {
	home, cleanup := tempHome(t)
	defer cleanup()

	logger := log.NewNopLogger()
	gen := func(args []string) (json.RawMessage, error) {
		return json.RawMessage(`{"cash": [], "rewards": []}`), nil
	}
	err := InitCmd(gen, logger, home, nil)
	require.NoError(t, err)

	// make sure we set proper data
	for _, file := range []string{
		filepath.Join(home, "config", "priv_validator_key.json"),
		filepath.Join(home, "data", "priv_validator_state.json"),
		filepath.Join(home, "config", "node_key.json"),
	} {
		assert.True(t, fileExists(file), file)
	}

	genFile := filepath.Join(home, "config", "genesis.json")
	bz, err := ioutil.ReadFile(genFile)
	require.NoError(t, err)

	var doc GenesisDoc
	err = json.Unmarshal(bz, &doc)
	require.NoError(t, err)
	// keep the tendermint values, and add our values
	assert.NotEmpty(t, doc["chain_id"])
	assert.NotEmpty(t, doc["validators"])
	assert.JSONEq(t, `{"cash": [], "rewards": []}`, string(doc[appStateKey]))
}

func TestInitKeepsExistingChain(t *testing.T) {
	home, cleanup := tempHome(t)
	defer cleanup()

	logger := log.NewNopLogger()
	gen := func(args []string) (json.RawMessage, error) {
		return json.RawMessage(`{"rewards": []}`), nil
	}
	require.NoError(t, InitCmd(gen, logger, home, nil))

	genFile := filepath.Join(home, "config", "genesis.json")
	first, err := ioutil.ReadFile(genFile)
	require.NoError(t, err)
	var firstDoc GenesisDoc
	require.NoError(t, json.Unmarshal(first, &firstDoc))

	// a second run must not roll a new chain id or validator set
	require.NoError(t, InitCmd(gen, logger, home, nil))

	second, err := ioutil.ReadFile(genFile)
	require.NoError(t, err)
	var secondDoc GenesisDoc
	require.NoError(t, json.Unmarshal(second, &secondDoc))

	assert.Equal(t, firstDoc["chain_id"], secondDoc["chain_id"])
	assert.Equal(t, firstDoc["validators"], secondDoc["validators"])
}
