package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/valuescreen/internal/modules/fundamentals"
	"github.com/aristath/valuescreen/internal/modules/pipeline"
	"github.com/aristath/valuescreen/internal/modules/screening"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", filepath.Join(dir, "data"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.PersistRuns)
	assert.False(t, cfg.DevMode)
	assert.Empty(t, cfg.ProfilePath)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.DirExists(t, cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "screening.db"), cfg.DatabasePath())
}

func TestLoad_FromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", filepath.Join(dir, "runs"))
	t.Setenv("PORT", "9100")
	t.Setenv("WORKERS", "12")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PERSIST_RUNS", "false")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("SCREENING_PROFILE", "profile.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 12, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.PersistRuns)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "profile.yaml", cfg.ProfilePath)
	assert.NoDirExists(t, cfg.DataDir)
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)

	t.Setenv("WORKERS", "0")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("WORKERS", "2")
	t.Setenv("PORT", "70000")
	_, err = Load()
	assert.Error(t, err)
}

func TestDefaultProfile_BuildsRunner(t *testing.T) {
	profile := DefaultProfile()
	_, err := pipeline.NewRunner(profile.PipelineConfig(2), zerolog.Nop())
	require.NoError(t, err)
}

func TestLoadProfile_EmptyPathIsDefault(t *testing.T) {
	profile, err := LoadProfile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile().Screening.Weights, profile.Screening.Weights)
}

func TestLoadProfile_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `
indicators:
  - name: RSI
    params:
      period: 9
  - name: SMA
    params:
      period: 50
screening:
  weights:
    technical: 0.5
    fundamental: 0.3
    sentiment: 0.2
  buy_threshold: 0.4
  avoid_threshold: -0.2
  redistribute_missing_sentiment: true
  technical_rules:
    - name: rsi
      kind: band
      value: RSI_9
      low: 25
      high: 75
    - name: trend
      kind: trend
      value: CLOSE
      reference: SMA_50
  fundamental_rules:
    - ratio: ROE
      mode: absolute
      bad: 0
      good: 0.2
    - ratio: PER
      mode: peer
sentiment:
  window: 168h
  decay_half_life: 48h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	profile, err := LoadProfile(path)
	require.NoError(t, err)

	require.Len(t, profile.Indicators, 2)
	assert.Equal(t, 9, profile.Indicators[0].Params.Period)
	assert.Equal(t, screening.Weights{Technical: 0.5, Fundamental: 0.3, Sentiment: 0.2}, profile.Screening.Weights)
	assert.Equal(t, 0.4, profile.Screening.BuyThreshold)
	assert.True(t, profile.Screening.RedistributeMissingSentiment)
	require.Len(t, profile.Screening.TechnicalRules, 2)
	assert.Equal(t, screening.RuleTrend, profile.Screening.TechnicalRules[1].Kind)
	require.Len(t, profile.Screening.FundamentalRules, 2)
	assert.Equal(t, screening.ModePeer, profile.Screening.FundamentalRules[1].Mode)
	assert.Equal(t, 168*time.Hour, profile.Sentiment.Window)

	cfg := profile.PipelineConfig(3)
	require.NotNil(t, cfg.Sentiment.Decay)
	assert.Equal(t, 48*time.Hour, cfg.Sentiment.Decay.HalfLife)

	_, err = pipeline.NewRunner(cfg, zerolog.Nop())
	require.NoError(t, err)
}

func TestLoadProfile_Valuation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `
valuation:
  sector_per:
    utilities: 9
  required_return: 0.12
  weights:
    per: 1
    pbr: 0
    roe: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	profile, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, 9.0, profile.Valuation.SectorPER["utilities"])
	assert.Equal(t, 15.0, profile.Valuation.SectorPER["technology"], "sector multiples merge into the defaults")
	assert.Equal(t, 0.12, profile.Valuation.RequiredReturn)
	assert.Equal(t, fundamentals.DefaultValuation().DefaultPER, profile.Valuation.DefaultPER)

	runner, err := pipeline.NewRunner(profile.PipelineConfig(1), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 0.12, runner.Fundamentals().Valuation().RequiredReturn)
}

func TestProfile_UnmarshalJSONOverlaysDefaults(t *testing.T) {
	var profile Profile
	raw := `{"screening":{"buy_threshold":0.5},"valuation":{"default_per":10}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &profile))

	def := DefaultProfile()
	assert.Equal(t, 0.5, profile.Screening.BuyThreshold)
	assert.Equal(t, def.Screening.Weights, profile.Screening.Weights)
	assert.Equal(t, def.Sentiment.Window, profile.Sentiment.Window)
	assert.Len(t, profile.Indicators, len(def.Indicators))
	assert.Equal(t, 10.0, profile.Valuation.DefaultPER)
	assert.Equal(t, def.Valuation.PERDiscount, profile.Valuation.PERDiscount)

	_, err := pipeline.NewRunner(profile.PipelineConfig(1), zerolog.Nop())
	require.NoError(t, err)

	assert.Error(t, json.Unmarshal([]byte(`{"sentiment":"weekly"}`), &profile))
}

func TestLoadProfile_Errors(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("screening: [unclosed"), 0o600))
	_, err = LoadProfile(path)
	assert.Error(t, err)
}
