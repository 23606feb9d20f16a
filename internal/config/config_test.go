package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/sipzy/internal/blockchain"
	"github.com/rovshanmuradov/sipzy/internal/ledger"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 0.001, cfg.CreatorBasePrice)
	assert.Equal(t, 0.0001, cfg.VideoBasePrice)
	assert.Equal(t, 0.005, cfg.VideoGrowthRate)
	assert.Equal(t, uint64(1_000_000), cfg.MaxCreatorSupply)
	assert.Equal(t, uint64(100_000), cfg.MaxVideoSupply)
	assert.Equal(t, 256, cfg.EventBuffer)
	assert.Equal(t, 30*time.Second, cfg.JournalFlush)
	assert.Equal(t, blockchain.DefaultProgramID, cfg.ProgramID)
	assert.Equal(t, ledger.DefaultConfig(), cfg.Ledger())
	assert.Equal(t, "sipzy.log", cfg.Logger().LogFile)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sipzy.yaml")
	content := []byte("creator_fee: 0.05\nplatform_fee: 0.02\nhistory_limit: 50\njournal_dir: /tmp/journal\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	t.Setenv("SIPZY_HISTORY_LIMIT", "75")
	t.Setenv("SIPZY_DEBUG", "true")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("journal-dir", "./data", "")
	flags.Float64("starting-balance", 10, "")
	require.NoError(t, flags.Parse([]string{"--starting-balance", "25"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, 0.05, cfg.CreatorFee)
	assert.Equal(t, 0.02, cfg.Economics().PlatformFee)
	assert.Equal(t, 75, cfg.HistoryLimit, "env overrides file")
	assert.True(t, cfg.Logger().Debug)
	assert.Equal(t, 25.0, cfg.StartingBalance, "changed flag wins")
	assert.Equal(t, "/tmp/journal", cfg.JournalDir, "unchanged flag does not shadow file")
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"fee sum":       "creator_fee: 0.995\n",
		"negative fee":  "video_fee: -0.1\n",
		"zero price":    "video_base_price: 0\n",
		"zero cap":      "max_video_supply: 0\n",
		"bad program":   "program_id: not-a-key\n",
		"zero buffer":   "event_buffer: 0\n",
		"zero history":  "history_limit: 0\n",
		"negative rate": "alert_price_move: -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sipzy.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))
			_, err := Load(path, nil)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestAlertsFromConfig(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	cfg.AlertVolumeThreshold = 2.5

	alerts := cfg.Alerts()
	assert.Equal(t, 2.5, alerts.VolumeThreshold)
	assert.Equal(t, cfg.AlertPriceMove, alerts.PriceMovePercent)
}
