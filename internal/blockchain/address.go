// Package blockchain holds the Solana-facing helpers of the ledger: curve
// vault addresses and lamport conversion. It never builds or signs transactions.
package blockchain

import (
	"crypto/sha256"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// DefaultProgramID is the curve program used when none is configured.
const DefaultProgramID = "2BSjSHDhPrjtfhhcJwS2LYZESQZAL2CxB5YEuJ4bu7nW"

// CurveSeed prefixes every curve vault derivation.
const CurveSeed = "curve"

// CurveVault is a derived curve vault account.
type CurveVault struct {
	Address solana.PublicKey
	Bump    uint8
}

// Deriver derives program addresses under one program id.
type Deriver struct {
	programID solana.PublicKey
}

// NewDeriver parses a base58 program id.
func NewDeriver(programID string) (*Deriver, error) {
	if programID == "" {
		programID = DefaultProgramID
	}
	pk, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, fmt.Errorf("invalid program id %q: %w", programID, err)
	}
	return &Deriver{programID: pk}, nil
}

// ProgramID returns the program the addresses belong to.
func (d *Deriver) ProgramID() solana.PublicKey {
	return d.programID
}

func curveSeeds(tokenID string) [][]byte {
	// Token ids can exceed the 32 byte seed limit, so the id is hashed.
	digest := sha256.Sum256([]byte(tokenID))
	return [][]byte{[]byte(CurveSeed), digest[:]}
}

// CurveVault derives the vault PDA of a token.
func (d *Deriver) CurveVault(tokenID string) (CurveVault, error) {
	if tokenID == "" {
		return CurveVault{}, fmt.Errorf("empty token id")
	}
	addr, bump, err := solana.FindProgramAddress(curveSeeds(tokenID), d.programID)
	if err != nil {
		return CurveVault{}, fmt.Errorf("failed to derive curve vault: %w", err)
	}
	return CurveVault{Address: addr, Bump: bump}, nil
}

// CurveAddress returns the base58 vault address of a token. It matches the
// ledger's address deriver signature.
func (d *Deriver) CurveAddress(tokenID string) (string, error) {
	vault, err := d.CurveVault(tokenID)
	if err != nil {
		return "", err
	}
	return vault.Address.String(), nil
}

// VerifyCurveAddress reports whether address is the vault of tokenID.
func (d *Deriver) VerifyCurveAddress(tokenID, address string) (bool, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return false, fmt.Errorf("invalid address %q: %w", address, err)
	}
	vault, err := d.CurveVault(tokenID)
	if err != nil {
		return false, err
	}
	return vault.Address.Equals(pk), nil
}
