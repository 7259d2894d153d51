package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/council/internal/delegate"
)

const validConfig = `
contracts: {
	elementToken: "0x1000000000000000000000000000000000000001"
	lockingVault: "0x1000000000000000000000000000000000000002"
	vestingVault: "0x1000000000000000000000000000000000000003"
	airdrop:      "0x1000000000000000000000000000000000000004"
	coreVoting:   "0x1000000000000000000000000000000000000005"
}
merkle: {
	path: "airdrop.json"
	root: "0x00000000000000000000000000000000000000000000000000000000000000aa"
}
delegates: [{
	name:    "Alice"
	address: "0x2000000000000000000000000000000000000001"
	twitterHandle: "@alice"
}]
proposals: [{
	id:         3
	title:      "Raise quorum"
	startBlock: 100
	endBlock:   200
	quorum:     "1000000.5"
}]
`

func TestParse_Valid(t *testing.T) {
	cfg, err := Parse([]byte(validConfig), "council.cue")
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8545", cfg.RPC, "rpc default")
	assert.Equal(t, int64(1), cfg.ChainID, "chain id default")
	assert.Equal(t, uint64(0), cfg.RecentDelegatorsFromBlock)

	contracts := cfg.ChainContracts()
	assert.Equal(t, common.HexToAddress("0x1000000000000000000000000000000000000004"), contracts.Airdrop)

	root, ok := cfg.MerkleRoot()
	require.True(t, ok)
	assert.Equal(t, common.HexToHash("0xaa"), root)

	reg, err := cfg.Registry()
	require.NoError(t, err)
	d, ok := reg.Lookup(common.HexToAddress("0x2000000000000000000000000000000000000001"))
	require.True(t, ok)
	assert.Equal(t, "Alice", d.Name)

	props, err := cfg.GovernanceProposals()
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, uint64(3), props[0].ID)
	assert.Equal(t, "1000000.5", props[0].Quorum.String())
}

func TestParse_DefaultsEmptyLists(t *testing.T) {
	src := `
contracts: {
	elementToken: "0x1000000000000000000000000000000000000001"
	lockingVault: "0x1000000000000000000000000000000000000002"
	vestingVault: "0x1000000000000000000000000000000000000003"
	airdrop:      "0x1000000000000000000000000000000000000004"
	coreVoting:   "0x1000000000000000000000000000000000000005"
}
rpc: "https://rpc.example"
chainId: 5
`
	cfg, err := Parse([]byte(src), "council.cue")
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.example", cfg.RPC)
	assert.Equal(t, int64(5), cfg.ChainID)
	assert.Empty(t, cfg.Delegates)
	assert.Empty(t, cfg.Proposals)
	assert.Nil(t, cfg.Merkle)

	_, ok := cfg.MerkleRoot()
	assert.False(t, ok)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing contracts", `rpc: "http://x"`},
		{"bad address", `contracts: {
	elementToken: "0x12"
	lockingVault: "0x1000000000000000000000000000000000000002"
	vestingVault: "0x1000000000000000000000000000000000000003"
	airdrop:      "0x1000000000000000000000000000000000000004"
	coreVoting:   "0x1000000000000000000000000000000000000005"
}`},
		{"end before start", strings.Replace(validConfig, "endBlock:   200", "endBlock:   50", 1)},
		{"unknown field", validConfig + `
extra: true`},
		{"syntax", `contracts: {`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "council.cue")
			assert.Error(t, err)
		})
	}
}

func TestRegistry_RejectsBadChecksum(t *testing.T) {
	cfg := &Config{Delegates: []Delegate{{
		Name:    "mixed",
		Address: "0x52908400098527886E0F7030069857D2E4169EE7",
	}}}
	// All-caps hex is accepted; flipping one letter to lowercase breaks
	// the checksum.
	_, err := cfg.Registry()
	require.NoError(t, err)

	cfg.Delegates[0].Address = "0x52908400098527886E0F7030069857D2E4169Ee7"
	_, err = cfg.Registry()
	assert.ErrorIs(t, err, delegate.ErrInvalidAddress)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(validConfig), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "airdrop.json", cfg.Merkle.Path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}
