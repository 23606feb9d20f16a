package ledger

import (
	"fmt"

	"go.uber.org/zap"
)

const defaultUserName = "User"

// GetOrCreateUser returns the actor, creating it with the configured
// starting balance when it does not exist yet.
func (l *Ledger) GetOrCreateUser(actorID, name string) Actor {
	l.mu.RLock()
	a, ok := l.actors[actorID]
	l.mu.RUnlock()
	if ok {
		return a.snapshot()
	}

	if name == "" {
		name = defaultUserName
	}

	l.mu.Lock()
	a, ok = l.actors[actorID]
	if !ok {
		a = &actorState{actor: Actor{ID: actorID, Name: name, SOLBalance: l.cfg.StartingBalance}}
		l.actors[actorID] = a
	}
	l.mu.Unlock()

	if !ok {
		l.logger.Debug("Actor created",
			zap.String("actor_id", actorID),
			zap.Float64("sol_balance", l.cfg.StartingBalance))
	}
	return a.snapshot()
}

// GetUser returns a snapshot of an existing actor.
func (l *Ledger) GetUser(actorID string) (Actor, error) {
	a, err := l.lookupActor(actorID)
	if err != nil {
		return Actor{}, err
	}
	return a.snapshot(), nil
}

// CurrencyBalance returns the actor's SOL balance, 0 when unknown.
func (l *Ledger) CurrencyBalance(actorID string) float64 {
	a, err := l.lookupActor(actorID)
	if err != nil {
		return 0
	}
	return a.snapshot().SOLBalance
}

// SetCurrencyBalance overwrites the actor's SOL balance.
func (l *Ledger) SetCurrencyBalance(actorID string, balance float64) error {
	if balance < 0 {
		return ErrNegativeSOLBalance
	}
	a, err := l.lookupActor(actorID)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.actor.SOLBalance = balance
	a.mu.Unlock()

	l.logger.Info("SOL balance set",
		zap.String("actor_id", actorID),
		zap.Float64("sol_balance", balance))
	return nil
}

func (l *Ledger) lookupActor(actorID string) (*actorState, error) {
	l.mu.RLock()
	a, ok := l.actors[actorID]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActorNotFound, actorID)
	}
	return a, nil
}

func (a *actorState) snapshot() Actor {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.actor
}
