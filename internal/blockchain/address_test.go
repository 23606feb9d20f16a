package blockchain

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurveAddressDeterministic(t *testing.T) {
	d, err := NewDeriver("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProgramID, d.ProgramID().String())

	a1, err := d.CurveAddress("creator-c1-1a2b3c4d")
	require.NoError(t, err)
	a2, err := d.CurveAddress("creator-c1-1a2b3c4d")
	require.NoError(t, err)
	b, err := d.CurveAddress("video-dQw4w9WgXcQ-1a2b3c4d")
	require.NoError(t, err)

	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, b)

	ok, err := d.VerifyCurveAddress("creator-c1-1a2b3c4d", a1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.VerifyCurveAddress("creator-c1-1a2b3c4d", b)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCurveVaultMatchesBump(t *testing.T) {
	d, err := NewDeriver(solana.SystemProgramID.String())
	require.NoError(t, err)

	vault, err := d.CurveVault("a-token-id-that-is-longer-than-thirty-two-bytes")
	require.NoError(t, err)

	seeds := append(curveSeeds("a-token-id-that-is-longer-than-thirty-two-bytes"), []byte{vault.Bump})
	addr, err := solana.CreateProgramAddress(seeds, solana.SystemProgramID)
	require.NoError(t, err)
	assert.Equal(t, vault.Address, addr)
}

func TestDeriverErrors(t *testing.T) {
	_, err := NewDeriver("not-base58-0OIl")
	assert.Error(t, err)

	d, err := NewDeriver("")
	require.NoError(t, err)
	_, err = d.CurveAddress("")
	assert.Error(t, err)
	_, err = d.VerifyCurveAddress("tok", "###")
	assert.Error(t, err)
}

func TestLamportConversion(t *testing.T) {
	assert.Equal(t, 1.5, LamportsToSOL(1_500_000_000))

	lamports, err := SOLToLamports(0.000000001)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), lamports)

	lamports, err = SOLToLamports(0.06225)
	require.NoError(t, err)
	assert.Equal(t, uint64(62_250_000), lamports)

	_, err = SOLToLamports(-1)
	assert.Error(t, err)
}
