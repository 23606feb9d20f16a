package ledger

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/sipzy/internal/curve"
)

// Demo actors registered on every fresh or reset ledger.
const (
	DemoCreatorID  = "demo-creator"
	DemoInvestorID = "demo-investor"
)

var demoActors = []Actor{
	{ID: DemoCreatorID, Name: "Demo Creator", SOLBalance: 100},
	{ID: DemoInvestorID, Name: "Demo Investor", SOLBalance: 50},
}

// resetState drops all tokens, trades and actors and registers the demo actors.
func (l *Ledger) resetState() {
	actors := make(map[string]*actorState, len(demoActors))
	for _, a := range demoActors {
		actors[a.ID] = &actorState{actor: a}
	}

	l.mu.Lock()
	l.tokens = make(map[string]*tokenState)
	l.order = nil
	l.actors = actors
	l.mu.Unlock()

	l.logMu.Lock()
	l.trades = nil
	l.allocations = nil
	l.logMu.Unlock()
}

// Reset clears the ledger back to its initial state. It waits for
// in-flight token creations and trades to finish first.
func (l *Ledger) Reset() {
	l.resetMu.Lock()
	l.resetState()
	l.resetMu.Unlock()
	l.logger.Info("Ledger reset")
}

// SeedDemo creates a creator token and a video token owned by the demo
// creator and has the demo investor buy into both.
func (l *Ledger) SeedDemo() error {
	creatorToken, err := l.CreateToken(CreateTokenRequest{
		Type:            curve.Creator,
		CreatorID:       DemoCreatorID,
		CreatorName:     "TechVision Studios",
		CreatorImage:    "https://api.dicebear.com/7.x/initials/svg?seed=TV",
		SubscriberCount: 125_000,
		Name:            "TechVision Token",
		Symbol:          "$TECH",
	})
	if err != nil {
		return fmt.Errorf("seed creator token: %w", err)
	}
	for _, amount := range []uint64{50, 30} {
		if _, err := l.Buy(creatorToken.ID, DemoInvestorID, amount); err != nil {
			return fmt.Errorf("seed buy %s: %w", creatorToken.Symbol, err)
		}
	}

	videoToken, err := l.CreateToken(CreateTokenRequest{
		Type:            curve.Video,
		CreatorID:       DemoCreatorID,
		CreatorName:     "TechVision Studios",
		CreatorImage:    "https://api.dicebear.com/7.x/initials/svg?seed=TV",
		SubscriberCount: 125_000,
		Name:            "Building Web3 Apps",
		Symbol:          "$WEB3",
		VideoID:         "dQw4w9WgXcQ",
		VideoTitle:      "Building Web3 Apps - Complete Guide",
		VideoThumbnail:  "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
	})
	if err != nil {
		return fmt.Errorf("seed video token: %w", err)
	}
	for _, amount := range []uint64{100, 50} {
		if _, err := l.Buy(videoToken.ID, DemoInvestorID, amount); err != nil {
			return fmt.Errorf("seed buy %s: %w", videoToken.Symbol, err)
		}
	}

	l.logger.Info("Demo data seeded",
		zap.String("creator_token", creatorToken.ID),
		zap.String("video_token", videoToken.ID))
	return nil
}
