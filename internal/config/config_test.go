package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFillsEveryDocumentedDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, 2000.0, c.BaseUSD)
	assert.Equal(t, 0.35, c.Quant.TargetAvgVol)
	assert.Equal(t, 20, c.Quant.MinGarchObs)
	assert.Equal(t, 0.45, c.Risk.MaxPortfolioRisk)
	assert.Equal(t, 0.01, c.Risk.MinExpectedReturn)
	assert.Equal(t, 3, c.Relayer.PollIntervalS)
	assert.Equal(t, "data/relayer_cursor.json", c.Relayer.CursorFilePath)
	assert.Equal(t, 100, c.Entropy.Shots)
	assert.Equal(t, "#vault-alerts", c.Slack.ChannelDefault)
	assert.Equal(t, "SLACK_SIGNING_SECRET", c.Security.SlackSigningSecretEnv)
	assert.Equal(t, ":9090", c.Monitoring.MetricsAddr)
	assert.Equal(t, "default", c.Submitter.PortfolioID)
	assert.NotEmpty(t, c.Quant.Impact.PerAsset)
	assert.NotEmpty(t, c.Quant.Impact.DailyVolumeUSD)
}

func TestDefaultSlackAlertFlagsAllTrueWhenUnset(t *testing.T) {
	c := Default()
	assert.True(t, c.Slack.AlertOnPendingApproval)
	assert.True(t, c.Slack.AlertOnRejected)
	assert.True(t, c.Slack.AlertOnError)
}

func TestLoadOverridesDefaultsFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := `
base_usd: 5000
risk:
  max_portfolio_risk: 0.25
slack:
  alert_on_error: true
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5000.0, c.BaseUSD)
	assert.Equal(t, 0.25, c.Risk.MaxPortfolioRisk)
	// other risk fields still get their defaults
	assert.Equal(t, 0.40, c.Risk.MaxPositionWeight)
	// explicitly setting one Slack alert flag means the "all unset -> all
	// true" fallback does not kick in, so the other two stay false.
	assert.True(t, c.Slack.AlertOnError)
	assert.False(t, c.Slack.AlertOnPendingApproval)
	assert.False(t, c.Slack.AlertOnRejected)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
