package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/tracekit/display"
	"github.com/teranos/tracekit/errors"
	"github.com/teranos/tracekit/metrics"
	"github.com/teranos/tracekit/project"
)

// EvalCmd scores predictions against the true links of a project
var EvalCmd = &cobra.Command{
	Use:   "eval <project.yaml>",
	Short: "Evaluate prediction scores against a project",
	Long: `Build the project, align the score file with its candidate links and
compute the configured metrics (metrics.names, or every metric when empty).
Links missing from the score file are treated as unscored.

Examples:
  tracekit eval project.yaml -s scores.yaml
  tracekit eval project.yaml -s scores.yaml -m map -m precision_at_k
  tracekit eval project.yaml -s scores.yaml --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	EvalCmd.Flags().StringP("scores", "s", "", "Score file (YAML)")
	EvalCmd.Flags().StringSliceP("metric", "m", nil, "Metric to compute (repeatable; overrides metrics.names)")
	EvalCmd.Flags().StringP("output", "o", "table", "Output format: table, json")
	_ = EvalCmd.MarkFlagRequired("scores")
}

func runEval(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	scoresPath, _ := cmd.Flags().GetString("scores")
	names, _ := cmd.Flags().GetStringSlice("metric")
	if len(names) == 0 {
		names = p.cfg.Metrics.Names
	}
	output, _ := cmd.Flags().GetString("output")
	if output != "table" && output != "json" {
		return errors.NewConfigurationError("unsupported output: %s (supported: table, json)", output)
	}

	ds, _, err := p.build(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	scores, err := project.LoadScores(scoresPath)
	if err != nil {
		return err
	}

	ids := ds.IDs()
	preds, unmatched := scores.Align(ids)
	if len(unmatched) > 0 {
		pterm.Warning.Printf("%d scored links are not candidates of the project\n", len(unmatched))
		p.log.Debugw("unmatched scores", "links", unmatched)
	}

	in, err := metrics.InputFromDataset(ds, ids, preds)
	if err != nil {
		return err
	}
	report, err := metrics.NewEngine(p.cfg.EngineOptions(p.log)...).Evaluate(in, names...)
	if err != nil {
		return err
	}

	if output == "json" {
		return display.OutputJSON(cmd.OutOrStdout(), report.Flatten())
	}
	return renderReport(cmd.OutOrStdout(), report)
}

func renderReport(w io.Writer, r *metrics.Report) error {
	rows := pterm.TableData{{"Metric", "Value"}}
	for _, name := range r.Names() {
		if v, ok := r.Values[name]; ok {
			rows = append(rows, []string{name, fmt.Sprintf("%.4f", v)})
			continue
		}
		group := r.Groups[name]
		keys := make([]string, 0, len(group))
		for k := range group {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			rows = append(rows, []string{name + "." + k, fmt.Sprintf("%.4f", group[k])})
		}
	}
	if err := pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(rows).Render(); err != nil {
		return err
	}

	omitted := make([]string, 0, len(r.Omitted))
	for name := range r.Omitted {
		omitted = append(omitted, name)
	}
	sort.Strings(omitted)
	for _, name := range omitted {
		pterm.Warning.Printf("%s omitted: %s\n", name, r.Omitted[name])
	}
	return nil
}
