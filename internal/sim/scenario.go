package sim

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rovshanmuradov/sipzy/internal/ledger"
)

// ErrExpectationFailed is returned when a scenario step ends differently than declared.
var ErrExpectationFailed = errors.New("scenario expectation failed")

// Scenario is a scripted sequence of trades loaded from YAML.
type Scenario struct {
	Name   string                      `yaml:"name"`
	Actors []ScenarioActor             `yaml:"actors"`
	Tokens []ledger.CreateTokenRequest `yaml:"tokens"`
	Steps  []Step                      `yaml:"steps"`
}

// ScenarioActor is registered and funded before any token is created.
type ScenarioActor struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Balance *float64 `yaml:"balance"` // nil keeps the starting balance
}

// Step is one order. Token matches a token's id or symbol. Expect names the
// rejection reason the order must fail with; empty means it must succeed.
type Step struct {
	Actor  string `yaml:"actor"`
	Token  string `yaml:"token"`
	Side   string `yaml:"side"`
	Amount uint64 `yaml:"amount"`
	Expect string `yaml:"expect"`
}

// StepResult records how one step went.
type StepResult struct {
	Index   int           `json:"index"`
	Step    Step          `json:"step"`
	TokenID string        `json:"token_id"`
	Trade   *ledger.Trade `json:"trade,omitempty"`
	Reason  string        `json:"reason,omitempty"`
	Error   string        `json:"error,omitempty"`
	Matched bool          `json:"matched"`
}

// ScenarioResult is the outcome of a scenario run.
type ScenarioResult struct {
	Name   string         `json:"name"`
	Tokens []ledger.Token `json:"tokens"`
	Steps  []StepResult   `json:"steps"`
	Failed int            `json:"failed"`
}

// LoadScenario reads a YAML scenario. Unknown keys are an error.
func LoadScenario(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

// Validate checks references that can be resolved without a ledger.
func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return errors.New("no steps")
	}
	for i, st := range sc.Steps {
		if st.Actor == "" || st.Token == "" {
			return fmt.Errorf("step %d: actor and token are required", i+1)
		}
		if _, err := parseSide(st.Side); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func parseSide(s string) (ledger.Side, error) {
	switch ledger.Side(strings.ToUpper(s)) {
	case ledger.SideBuy:
		return ledger.SideBuy, nil
	case ledger.SideSell:
		return ledger.SideSell, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

// RunScenario registers the scenario's actors and tokens, then plays its
// steps in order. Every step runs even after a mismatch; the returned error
// wraps ErrExpectationFailed when any step did not match.
func RunScenario(ctx context.Context, l ledger.Service, sc *Scenario, logger *zap.Logger) (ScenarioResult, error) {
	logger = logger.Named("scenario")
	result := ScenarioResult{Name: sc.Name}

	for _, a := range sc.Actors {
		l.GetOrCreateUser(a.ID, a.Name)
		if a.Balance != nil {
			if err := l.SetCurrencyBalance(a.ID, *a.Balance); err != nil {
				return result, fmt.Errorf("fund %s: %w", a.ID, err)
			}
		}
	}

	refs := make(map[string]string, 2*len(sc.Tokens))
	for _, req := range sc.Tokens {
		token, err := l.CreateToken(req)
		if err != nil {
			return result, fmt.Errorf("create token %s: %w", req.Symbol, err)
		}
		refs[token.ID] = token.ID
		if token.Symbol != "" {
			refs[token.Symbol] = token.ID
		}
		result.Tokens = append(result.Tokens, token)
	}

	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		res := StepResult{Index: i + 1, Step: st, TokenID: st.Token}
		if id, ok := refs[st.Token]; ok {
			res.TokenID = id
		}

		side, err := parseSide(st.Side)
		if err == nil {
			var trade ledger.Trade
			if side == ledger.SideBuy {
				var r ledger.BuyResult
				r, err = l.Buy(res.TokenID, st.Actor, st.Amount)
				trade = r.Trade
			} else {
				var r ledger.SellResult
				r, err = l.Sell(res.TokenID, st.Actor, st.Amount)
				trade = r.Trade
			}
			if err == nil {
				res.Trade = &trade
			}
		}
		if err != nil {
			res.Reason = ledger.RejectReason(err)
			res.Error = err.Error()
		}

		res.Matched = res.Reason == st.Expect
		if !res.Matched {
			result.Failed++
			logger.Warn("Scenario step did not match",
				zap.Int("step", res.Index),
				zap.String("expected", st.Expect),
				zap.String("got", res.Reason),
				zap.String("error", res.Error))
		}
		result.Steps = append(result.Steps, res)
	}

	logger.Info("Scenario finished",
		zap.String("name", sc.Name),
		zap.Int("steps", len(result.Steps)),
		zap.Int("failed", result.Failed))

	if result.Failed > 0 {
		return result, fmt.Errorf("%w: %d of %d steps", ErrExpectationFailed, result.Failed, len(result.Steps))
	}
	return result, nil
}
