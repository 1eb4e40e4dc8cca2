package commands

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/tracekit/builder"
	"github.com/teranos/tracekit/tracelink"
)

// BuildCmd builds a dataset and prints what the builder found
var BuildCmd = &cobra.Command{
	Use:   "build <project.yaml>",
	Short: "Build a trace-link dataset from a project file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		_, report, err := p.build(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return renderBuildReport(cmd.OutOrStdout(), report)
	},
}

func renderBuildReport(w io.Writer, r *builder.Report) error {
	rows := pterm.TableData{
		{"Mappings", fmt.Sprint(r.Mappings)},
		{"Candidates", fmt.Sprint(r.Candidates)},
		{"Duplicate pairs", fmt.Sprint(r.DuplicatePairs)},
		{"Missing ids", fmt.Sprint(len(r.MissingIDs))},
		{"Orphans", fmt.Sprint(len(r.OrphanIDs))},
		{"Orphans removed", fmt.Sprint(r.OrphansRemoved)},
	}
	if err := pterm.DefaultTable.WithWriter(w).WithData(rows).Render(); err != nil {
		return err
	}
	return renderStats(w, map[string]tracelink.Stats{"dataset": r.Stats}, []string{"dataset"})
}

func renderStats(w io.Writer, stats map[string]tracelink.Stats, order []string) error {
	rows := pterm.TableData{{"Partition", "Links", "Positives", "Negatives", "Sources", "Positive ratio"}}
	for _, name := range order {
		s := stats[name]
		rows = append(rows, []string{
			name,
			fmt.Sprint(s.Links),
			fmt.Sprint(s.Positives),
			fmt.Sprint(s.Negatives),
			fmt.Sprint(s.Sources),
			fmt.Sprintf("%.3f", s.Ratio),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(rows).Render()
}
