// Package commands implements the tracekit CLI subcommands.
package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/tracekit/am"
	"github.com/teranos/tracekit/augment"
	"github.com/teranos/tracekit/builder"
	"github.com/teranos/tracekit/logger"
	"github.com/teranos/tracekit/project"
	"github.com/teranos/tracekit/tracelink"
)

// loadConfig honours --config, falling back to the configuration cascade,
// and validates the result
func loadConfig(cmd *cobra.Command) (*am.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	var (
		cfg *am.Config
		err error
	)
	if path != "" {
		cfg, err = am.LoadFromFile(path)
	} else {
		cfg, err = am.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// pipeline carries the state shared by the dataset commands
type pipeline struct {
	cfg *am.Config
	log *zap.SugaredLogger
}

func newPipeline(cmd *cobra.Command) (*pipeline, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	// [log] applies only when no logging flag was given
	flags := cmd.Flags()
	if !flags.Changed("verbose") && !flags.Changed("json-logs") && (cfg.Log.JSON || cfg.Log.Verbosity > 0) {
		if err := logger.InitializeWithVerbosity(cfg.Log.JSON, cfg.Log.Verbosity); err != nil {
			return nil, err
		}
	}
	return &pipeline{cfg: cfg, log: logger.Named(nil, "cli")}, nil
}

func (p *pipeline) build(ctx context.Context, path string) (*tracelink.Dataset, *builder.Report, error) {
	proj, err := project.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return builder.New(p.cfg.BuilderOptions(p.log)...).BuildWithReport(ctx, proj)
}

// augment runs the configured pipeline. With no steps and balancing off the
// dataset is returned unchanged.
func (p *pipeline) augment(ds *tracelink.Dataset) (*tracelink.Dataset, *augment.Report, error) {
	if len(p.cfg.Augment.Steps) == 0 && !p.cfg.Augment.Balance {
		return ds, nil, nil
	}
	steps, err := p.cfg.AugmentSteps(augment.NewRegistry())
	if err != nil {
		return nil, nil, err
	}
	aug, err := augment.New(p.cfg.AugmentConfig(p.log), steps...)
	if err != nil {
		return nil, nil, err
	}
	return aug.Run(ds)
}
