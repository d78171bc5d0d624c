package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	// Run from a temp dir so a developer's local config.yaml is not picked up.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 12000, cfg.Extract.MaxBodyChars)
	assert.Equal(t, 1500, cfg.Extract.FallbackScanChars)
	assert.Equal(t, 3, cfg.Extract.MaxAttempts)
	assert.Equal(t, 100, cfg.Reconcile.MaxMessages)
	assert.Equal(t, 300, cfg.Reconcile.DeadlineSecs)
	assert.Equal(t, 7, cfg.Sweep.ThresholdWeeks)
	assert.Equal(t, 60, cfg.Schedule.ReconcileEveryMins)
	assert.Equal(t, 1440, cfg.Schedule.SweepEveryMins)
	assert.Equal(t, "CareerSuite/Pending", cfg.Gmail.LabelPending)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("CAREERSUITE_SWEEP_THRESHOLD_WEEKS", "3")
	t.Setenv("CAREERSUITE_STORE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Sweep.ThresholdWeeks)
	assert.Equal(t, "postgres", cfg.Store.Driver)
}

func TestLoadEnvOnlyCredentials(t *testing.T) {
	// Credentials have no default value but must still arrive from the
	// environment alone, with no config file present.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("CAREERSUITE_GMAIL_TOKEN", "tok-123")
	t.Setenv("CAREERSUITE_ANTHROPIC_KEY", "sk-test")
	t.Setenv("CAREERSUITE_STORE_DATABASE_URL", "postgres://localhost/careersuite")
	t.Setenv("CAREERSUITE_RULES_PATH", "rules.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", cfg.Gmail.Token)
	assert.Equal(t, "sk-test", cfg.Anthropic.Key)
	assert.Equal(t, "postgres://localhost/careersuite", cfg.Store.DatabaseURL)
	assert.Equal(t, "rules.yaml", cfg.RulesPath)
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()

	t.Run("KeywordOrder", func(t *testing.T) {
		require.Len(t, rules.StatusKeywords, 5)
		assert.Equal(t, string(model.StatusOffer), rules.StatusKeywords[0].Status)
		assert.Equal(t, string(model.StatusInterview), rules.StatusKeywords[1].Status)
		assert.Equal(t, string(model.StatusAssessment), rules.StatusKeywords[2].Status)
		assert.Equal(t, string(model.StatusViewed), rules.StatusKeywords[3].Status)
		assert.Equal(t, string(model.StatusRejected), rules.StatusKeywords[4].Status)
	})

	t.Run("BuildHierarchy", func(t *testing.T) {
		h := rules.BuildHierarchy()
		assert.Equal(t, 4, h.Rank(model.StatusInterview))
		assert.True(t, h.IsTerminal(model.StatusWithdrawn))
		assert.False(t, h.PeakEligible(model.StatusRejected))
		assert.True(t, h.PeakEligible(model.StatusOffer))
	})

	t.Run("DenyListCoversATS", func(t *testing.T) {
		assert.Contains(t, rules.DomainDenyList, "greenhouse.io")
		assert.Contains(t, rules.DomainDenyList, "linkedin.com")
	})
}

func TestLoadRules(t *testing.T) {
	t.Run("EmptyPathReturnsDefaults", func(t *testing.T) {
		rules, err := LoadRules("")
		require.NoError(t, err)
		assert.Equal(t, DefaultRules().DomainDenyList, rules.DomainDenyList)
	})

	t.Run("FileOverridesFields", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		content := `
sweep_ignored: true
domain_deny_list:
  - example-ats.io
status_keywords:
  - status: Offer
    keywords: ["congratulations"]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		rules, err := LoadRules(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"example-ats.io"}, rules.DomainDenyList)
		require.Len(t, rules.StatusKeywords, 1)
		assert.Equal(t, []string{"congratulations"}, rules.StatusKeywords[0].Keywords)

		// Untouched fields keep defaults.
		assert.Equal(t, DefaultRules().Hierarchy, rules.Hierarchy)
		assert.NotEmpty(t, rules.SubjectTemplates)
	})

	t.Run("MissingFileErrors", func(t *testing.T) {
		_, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}
