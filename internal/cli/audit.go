package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clauseguard/internal/audit"
)

var (
	auditLimit int
	auditJSON  bool
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the analysis audit trail",
	Long: `The audit trail records every analysis: input hash, catalog version and
hash, composite score and the rules that fired. It never stores contract text.

Enable it with audit.enabled in the config, CLAUSEGUARD_AUDIT_ENABLED=true,
or --audit on analyze and batch.`,
}

var auditRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the newest audit records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if auditPath != "" {
			cfg.Audit.Path = auditPath
			cfg.Audit.Driver = auditDriver(auditPath)
		}
		// Reading does not depend on audit.enabled
		cfg.Audit.Enabled = true

		if _, err := os.Stat(cfg.Audit.Path); err != nil {
			return fmt.Errorf("audit log %s: %w", cfg.Audit.Path, err)
		}

		sink, err := audit.Open(cfg.Audit)
		if err != nil {
			return err
		}
		defer func() { _ = sink.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		records, err := sink.Recent(ctx, auditLimit)
		if err != nil {
			return fmt.Errorf("read audit log: %w", err)
		}

		if auditJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}
		printRecords(os.Stdout, records)
		return nil
	},
}

func printRecords(w io.Writer, records []audit.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No audit records")
		return
	}
	for _, r := range records {
		fmt.Fprintf(w, "%s  %3d %-8s %-12s clauses=%d findings=%d gaps=%d  %s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.CompositeScore, r.RiskBand, r.ContractType,
			r.ClauseCount, r.FindingCount, r.GapCount, shortSource(r))
		if len(r.RuleIDs) > 0 {
			fmt.Fprintf(w, "    rules: %s\n", strings.Join(r.RuleIDs, ", "))
		}
	}
}

func shortSource(r audit.Record) string {
	if r.Source != "" {
		return r.Source
	}
	h := strings.TrimPrefix(r.InputHash, "sha256:")
	if len(h) > 12 {
		h = h[:12]
	}
	return "input " + h
}

// auditDriver picks the sink from the file extension
func auditDriver(path string) string {
	if strings.HasSuffix(path, ".db") || strings.HasSuffix(path, ".sqlite") {
		return "sqlite"
	}
	return "jsonl"
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditRecentCmd)

	auditRecentCmd.Flags().IntVar(&auditLimit, "limit", 20, "number of records to show")
	auditRecentCmd.Flags().BoolVar(&auditJSON, "json", false, "print records as JSON")
	auditRecentCmd.Flags().StringVar(&auditPath, "audit", "", "audit log to read (default: audit.path)")
}
