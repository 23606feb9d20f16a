package blockchain

import (
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
)

// LamportsToSOL converts lamports to SOL.
func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / float64(solana.LAMPORTS_PER_SOL)
}

// SOLToLamports converts SOL to lamports, rounding to the nearest lamport.
func SOLToLamports(sol float64) (uint64, error) {
	if math.IsNaN(sol) || math.IsInf(sol, 0) || sol < 0 {
		return 0, fmt.Errorf("invalid SOL amount: %v", sol)
	}
	lamports := math.Round(sol * float64(solana.LAMPORTS_PER_SOL))
	if lamports >= math.MaxUint64 {
		return 0, fmt.Errorf("SOL amount overflows lamports: %v", sol)
	}
	return uint64(lamports), nil
}
