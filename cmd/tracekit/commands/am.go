package commands

import (
	"fmt"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/tracekit/am"
	"github.com/teranos/tracekit/display"
	"github.com/teranos/tracekit/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage tracekit configuration",
	Long: `am - Manage tracekit configuration ("I am")

Configuration sources (later overrides earlier):
1. Default values
2. System config (/etc/tracekit/tracekit.toml)
3. User config (~/.tracekit/tracekit.toml)
4. Project config (nearest tracekit.toml, searching up directories)
5. Environment variables (TRACEKIT_* prefix)

Examples:
  tracekit am show --format yaml     # Show configuration as YAML
  tracekit am get split.strategy     # Get a single value
  tracekit am validate               # Validate the configuration
  tracekit am init                   # Write defaults to ./tracekit.toml`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., split.strategy, metrics.k)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where each setting is loaded from",
	RunE:  runAmWhere,
}

var amInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Long:  "Write the built-in defaults as TOML (default ./tracekit.toml). Existing files are rotated into .back1 .. .back3.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAmInit,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
	AmCmd.AddCommand(amInitCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var data []byte
	switch configFormat {
	case "json":
		return display.OutputJSON(cmd.OutOrStdout(), cfg)
	case "yaml":
		data, err = yaml.Marshal(cfg)
	case "toml":
		data, err = toml.Marshal(cfg)
	default:
		return errors.NewConfigurationError("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to marshal config to %s", configFormat)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if _, err := am.Load(); err != nil {
		return err
	}
	if !am.GetViper().IsSet(key) {
		return errors.NewConfigurationError("configuration key %q not found", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	if _, err := am.Load(); err != nil {
		return err
	}
	settings := am.GetConfigIntrospection()

	rank := make(map[am.ConfigSource]int, len(am.SourceOrder))
	for i, s := range am.SourceOrder {
		rank[s] = i
	}
	sort.SliceStable(settings, func(i, j int) bool {
		if rank[settings[i].Source] != rank[settings[j].Source] {
			return rank[settings[i].Source] < rank[settings[j].Source]
		}
		return settings[i].Key < settings[j].Key
	})

	rows := pterm.TableData{{"Key", "Value", "Source", "From"}}
	for _, s := range settings {
		rows = append(rows, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(rows).Render()
}

func runAmInit(cmd *cobra.Command, args []string) error {
	path := am.ProjectConfigName
	if len(args) == 1 {
		path = args[0]
	}
	cfg, err := am.Defaults()
	if err != nil {
		return err
	}
	if err := am.Save(cfg, path); err != nil {
		return err
	}
	pterm.Success.Printf("Wrote default configuration to %s\n", path)
	return nil
}
