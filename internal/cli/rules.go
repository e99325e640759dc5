package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clauseguard/internal/rules"
)

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate rule catalogs",
	Long: `A rule catalog defines clause categories, contract type indicators,
risk rules, missing-protection checks and scoring calibration.

Every report records the version and hash of the catalog it was scored with.`,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a rule catalog file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := rules.Load(args[0])
		if err != nil {
			return fmt.Errorf("invalid catalog: %w", err)
		}
		fmt.Printf("✓ %s is valid\n", args[0])
		printCatalog(os.Stdout, c, false)
		return nil
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active rule catalog",
	Long:  `Show the catalog selected by --rules, rules.path or the embedded default.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("rules") {
			cfg.Rules.Path = rulesPath
		}

		c, err := rules.LoadOrDefault(cfg.Rules.Path)
		if err != nil {
			return err
		}
		printCatalog(os.Stdout, c, true)
		return nil
	},
}

var rulesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the embedded default catalog",
	Long:  `Print the embedded catalog as YAML, as a starting point for a custom catalog.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := os.Stdout.Write(rules.DefaultBytes())
		return err
	},
}

func printCatalog(w io.Writer, c *rules.Catalog, detailed bool) {
	fmt.Fprintf(w, "  Version:          %s\n", c.Version)
	fmt.Fprintf(w, "  Hash:             %s\n", c.Hash)
	fmt.Fprintf(w, "  Categories:       %d\n", len(c.Categories))
	fmt.Fprintf(w, "  Contract types:   %d\n", len(c.ContractTypes.Types))
	fmt.Fprintf(w, "  Risk rules:       %d\n", len(c.Rules))
	fmt.Fprintf(w, "  Gap checks:       %d\n", len(c.Gaps))

	if !detailed {
		return
	}

	fmt.Fprintf(w, "\nRisk rules:\n")
	for _, r := range c.Rules {
		fmt.Fprintf(w, "  %-36s %3d  %s\n", r.ID, r.Severity, r.Title)
	}
	fmt.Fprintf(w, "\nMissing-protection checks:\n")
	for _, g := range c.Gaps {
		fmt.Fprintf(w, "  %-36s %s\n", g.ID, g.Description)
	}
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesExportCmd)

	rulesShowCmd.Flags().StringVar(&rulesPath, "rules", "", "rule catalog YAML (default: config or embedded catalog)")
}
