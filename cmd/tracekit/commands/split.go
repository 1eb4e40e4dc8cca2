package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/tracekit/split"
	"github.com/teranos/tracekit/tracelink"
)

// SplitCmd builds, augments and partitions a project
var SplitCmd = &cobra.Command{
	Use:   "split <project.yaml>",
	Short: "Split a project into train, val and eval partitions",
	Long: `Build the project, run the configured augmentation pipeline and split
the result with the configured strategy. Use --strategy to override
split.strategy for a single run.`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

func init() {
	SplitCmd.Flags().String("strategy", "", "Override split.strategy (link, source, pretrain)")
}

func runSplit(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	if s, _ := cmd.Flags().GetString("strategy"); s != "" {
		p.cfg.Split.Strategy = s
	}

	ds, _, err := p.build(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	augmented, report, err := p.augment(ds)
	if err != nil {
		return err
	}
	if report != nil {
		pterm.Info.Printf("Augmented positives %d -> %d, negatives %d -> %d\n",
			report.PositivesBefore, report.PositivesAfter,
			report.NegativesBefore, report.NegativesAfter)
	}

	rc, err := p.cfg.SplitterConfig(p.log)
	if err != nil {
		return err
	}
	splitter, err := split.NewRoleSplitter(rc)
	if err != nil {
		return err
	}
	roles, err := splitter.Split(augmented)
	if err != nil {
		return err
	}

	order := []string{string(split.RoleTrain), string(split.RoleVal), string(split.RoleEval)}
	stats := make(map[string]tracelink.Stats, len(order))
	for _, role := range order {
		if part := roles.Get(split.Role(role)); part != nil {
			stats[role] = part.Stats()
		}
	}
	return renderStats(cmd.OutOrStdout(), stats, order)
}
