// Command marketctl runs the market engine offline over CSV or HTML exports
// and manages the service database.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ajharbinger/msa-market-engine/internal/ingest"
	"github.com/ajharbinger/msa-market-engine/internal/logger"
	"github.com/ajharbinger/msa-market-engine/internal/models"
	"github.com/ajharbinger/msa-market-engine/internal/services"
	"github.com/ajharbinger/msa-market-engine/pkg/config"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// rootOptions holds the global flags
type rootOptions struct {
	format      string
	profilePath string
	logLevel    string
	shareUnit   string
}

// app carries what every subcommand needs once flags are parsed
type app struct {
	opts      rootOptions
	profile   *config.EngineProfile
	log       logger.Logger
	analytics services.AnalyticsService
	parser    *ingest.Parser
}

func (a *app) init() error {
	switch a.opts.format {
	case formatTable, formatJSON:
	default:
		return fmt.Errorf("unknown output format %q, expected table or json", a.opts.format)
	}

	profile, err := config.LoadEngineProfile(a.opts.profilePath)
	if err != nil {
		return err
	}
	unit := profile.ShareUnit()
	if a.opts.shareUnit != "" {
		if unit, err = models.ParseShareUnit(a.opts.shareUnit); err != nil {
			return err
		}
	}

	// logs go to stderr so table and json output stay clean
	log, err := logger.New(logger.Config{Level: a.opts.logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return err
	}

	a.profile = profile
	a.log = log
	// the parser already converts shares to percent
	a.analytics = services.NewAnalyticsService(profile.WithShareUnit(models.ShareUnitPercent), nil, log, nil)
	a.parser = ingest.NewParser(unit)
	return nil
}

func newRootCommand() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "marketctl",
		Short: "Score MSA markets, rank providers and simulate acquisitions",
		Long: `marketctl runs the market engine over local dataset exports.

Datasets are CSV or HTML tables with the same columns the upload API accepts.

Examples:
  # Score markets with the default weights
  marketctl score --input attractiveness.csv

  # Rank providers as json
  marketctl providers --input opportunities.csv --format json

  # Simulate an acquisition with a 10% haircut
  marketctl acquire --opportunities o.csv --deposits d.csv --acquirer "First Bank" --target "Lone Star" --haircut 10`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["skipInit"] == "true" {
				return nil
			}
			return a.init()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.opts.format, "format", formatTable, "output format: table or json")
	pf.StringVar(&a.opts.profilePath, "profile", "", "path to a YAML engine profile")
	pf.StringVar(&a.opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	pf.StringVar(&a.opts.shareUnit, "share-unit", "", "unit of unsuffixed shares: auto, percent or fraction (overrides the profile)")

	cmd.AddCommand(
		newScoreCommand(a),
		newProvidersCommand(a),
		newAcquireCommand(a),
		newMigrateCommand(),
		newHashKeyCommand(),
	)
	return cmd
}

// readTable opens a dataset file and reads its first table
func readTable(path string) (*ingest.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	table, err := ingest.ReadTable(f, ingest.DetectFormat(path, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return table, nil
}

func (a *app) reportSkipped(path string, report ingest.Report) {
	if report.Skipped > 0 {
		a.log.Warn("Skipped rows", "file", path, "skipped", report.Skipped)
	}
	for _, w := range report.Warnings {
		a.log.Debug("Ingest warning", "file", path, "warning", w)
	}
}

func (a *app) loadAttractiveness(path string) ([]models.AttractivenessRecord, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}
	records, report, err := a.parser.Attractiveness(table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.reportSkipped(path, report)
	return records, nil
}

func (a *app) loadOpportunities(path string) ([]models.OpportunityRecord, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}
	records, report, err := a.parser.Opportunities(table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.reportSkipped(path, report)
	return records, nil
}

func (a *app) loadDeposits(path string) ([]models.DepositRecord, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}
	records, report, err := a.parser.Deposits(table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.reportSkipped(path, report)
	return records, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	// DATABASE_URL for migrate may come from .env
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
