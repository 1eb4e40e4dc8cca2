package am

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tracekit/augment"
	"github.com/teranos/tracekit/builder"
	"github.com/teranos/tracekit/errors"
	tracetest "github.com/teranos/tracekit/internal/testing"
	"github.com/teranos/tracekit/metrics"
	"github.com/teranos/tracekit/split"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// Isolated viper instance without user/system config
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Builder.Workers)
	assert.Equal(t, -1, cfg.Builder.AllowedOrphans)
	assert.Equal(t, "link", cfg.Split.Strategy)
	assert.Equal(t, 0.1, cfg.Split.ValPercentage)
	assert.Equal(t, []int{1, 2, 3}, cfg.Metrics.K)
	assert.True(t, cfg.Augment.Balance)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Defaults()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{name: "negative workers", modify: func(c *Config) { c.Builder.Workers = -1 }, field: "builder.workers"},
		{name: "allowance below sentinel", modify: func(c *Config) { c.Builder.AllowedMissing = -2 }, field: "builder.allowed_missing"},
		{name: "unknown strategy", modify: func(c *Config) { c.Split.Strategy = "random" }, field: "split.strategy"},
		{name: "val percentage above one", modify: func(c *Config) { c.Split.ValPercentage = 1.5 }, field: "split.val_percentage"},
		{name: "percentages sum above one", modify: func(c *Config) { c.Split.ValPercentage, c.Split.EvalPercentage = 0.6, 0.5 }, field: "eval_percentage"},
		{name: "unknown metric", modify: func(c *Config) { c.Metrics.Names = []string{"map", "ndcg"} }, field: "metrics.names"},
		{name: "zero k", modify: func(c *Config) { c.Metrics.K = []int{0} }, field: "metrics.k"},
		{name: "step without kind", modify: func(c *Config) { c.Augment.Steps = []augment.StepSpec{{}} }, field: "augment.steps[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	t.Run("zero percentages are valid", func(t *testing.T) {
		cfg := valid()
		cfg.Split.ValPercentage, cfg.Split.EvalPercentage = 0, 0
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "tracekit.toml", `
[builder]
workers = 2
remove_orphans = true

[augment]
seed = 7
symmetric = true

[[augment.steps]]
kind = "lexical"
rate = 0.3

[[augment.steps]]
kind = "swap"
fraction = 0.5

[split]
strategy = "source"
eval_percentage = 0.25

[metrics]
names = ["map", "precision_at_k"]
k = [1, 5]
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2, cfg.Builder.Workers)
	assert.True(t, cfg.Builder.RemoveOrphans)
	assert.Equal(t, 10, cfg.Builder.IDBatchSize, "unset keys keep their defaults")
	assert.Equal(t, int64(7), cfg.Augment.Seed)
	require.Len(t, cfg.Augment.Steps, 2)
	assert.Equal(t, augment.KindLexical, cfg.Augment.Steps[0].Kind)
	assert.Equal(t, 0.3, cfg.Augment.Steps[0].Rate)
	assert.Equal(t, 0.5, cfg.Augment.Steps[1].Fraction)
	assert.Equal(t, "source", cfg.Split.Strategy)
	assert.Equal(t, []string{"map", "precision_at_k"}, cfg.Metrics.Names)
	assert.Equal(t, []int{1, 5}, cfg.Metrics.K)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TRACEKIT_SPLIT_SEED", "99")
	t.Setenv("TRACEKIT_BUILDER_WORKERS", "8")
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(99), cfg.Split.Seed)
	assert.Equal(t, 8, cfg.Builder.Workers)

	again, err := Load()
	require.NoError(t, err)
	assert.Same(t, cfg, again, "configuration is cached")
}

func TestMergeConfigFiles_TracksSources(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	dir := t.TempDir()
	user := writeConfig(t, dir, "user.toml", "[split]\nseed = 1\ntolerance = 0.1\n")
	project := writeConfig(t, dir, "project.toml", "[split]\nseed = 2\n")

	v := viper.New()
	SetDefaults(v)
	mergeConfigFiles(v, []configPath{
		{SourceUser, user},
		{SourceProject, project},
		{SourceSystem, filepath.Join(dir, "missing.toml")},
	})
	viperInstance = v

	assert.Equal(t, 2, v.GetInt("split.seed"))
	assert.Equal(t, SourceInfo{Source: SourceProject, Path: project}, ConfigSources["split.seed"])
	assert.Equal(t, SourceInfo{Source: SourceUser, Path: user}, ConfigSources["split.tolerance"])

	settings := make(map[string]SettingInfo)
	for _, s := range GetConfigIntrospection() {
		settings[s.Key] = s
	}
	assert.Equal(t, SourceProject, settings["split.seed"].Source)
	assert.Equal(t, SourceDefault, settings["builder.workers"].Source)

	t.Setenv("TRACEKIT_BUILDER_WORKERS", "3")
	for _, s := range GetConfigIntrospection() {
		if s.Key == "builder.workers" {
			assert.Equal(t, SourceEnvironment, s.Source)
			assert.Equal(t, "TRACEKIT_BUILDER_WORKERS", s.SourcePath)
		}
	}
}

func TestSave_RoundTripWithBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "tracekit.toml")
	cfg, err := Defaults()
	require.NoError(t, err)
	cfg.Split.Strategy = "source"
	cfg.Augment.Steps = []augment.StepSpec{{Kind: augment.KindResample, Copies: 2}}

	require.NoError(t, Save(cfg, path))
	cfg.Split.Seed = 5
	require.NoError(t, Save(cfg, path))
	require.NoError(t, Save(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "source", loaded.Split.Strategy)
	assert.Equal(t, int64(5), loaded.Split.Seed)
	require.Len(t, loaded.Augment.Steps, 1)
	assert.Equal(t, 2, loaded.Augment.Steps[0].Copies)

	assert.FileExists(t, path+".back1")
	assert.FileExists(t, path+".back2")
	assert.NoFileExists(t, path+".back3")
}

func TestBridges(t *testing.T) {
	cfg, err := Defaults()
	require.NoError(t, err)
	cfg.Augment.Symmetric = true
	cfg.Augment.Steps = []augment.StepSpec{{Kind: augment.KindSwap}, {Kind: augment.KindResample}}

	ds, err := builder.New(cfg.BuilderOptions(nil)...).Build(context.Background(), tracetest.TwoByTwoProject())
	require.NoError(t, err)

	steps, err := cfg.AugmentSteps(augment.NewRegistry())
	require.NoError(t, err)
	aug, err := augment.New(cfg.AugmentConfig(nil), steps...)
	require.NoError(t, err)
	augmented, _, err := aug.Run(ds)
	require.NoError(t, err)
	assert.Equal(t, len(augmented.PositiveIDs()), len(augmented.NegativeIDs()))

	rc, err := cfg.SplitterConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, split.ByLink, rc.Strategy)
	_, err = split.NewRoleSplitter(rc)
	require.NoError(t, err)

	engine := metrics.NewEngine(cfg.EngineOptions(nil)...)
	report, err := engine.Evaluate(metrics.Input{
		Labels:      []int{1, 0},
		Predictions: metrics.Predictions{Scores: []float64{0.8, 0.3}},
	}, metrics.Accuracy)
	require.NoError(t, err)
	assert.Equal(t, 1.0, report.Values[metrics.Accuracy])

	cfg.Split.Strategy = "random"
	_, err = cfg.SplitterConfig(nil)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "TRACEKIT_SPLIT_VAL_PERCENTAGE", EnvKey("split.val_percentage"))
}
