package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajharbinger/msa-market-engine/internal/models"
	"github.com/ajharbinger/msa-market-engine/internal/services"
)

type scoreOptions struct {
	input      string
	mode       string
	weights    string
	configPath string
	breakdown  bool
}

func newScoreCommand(a *app) *cobra.Command {
	opts := &scoreOptions{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score and categorize MSA markets",
		Long: `Score every (MSA, product) row of an attractiveness export and place it
in a quartile category.

Weights mode uses --weights or the profile defaults. Buckets mode reads its
layout from --config, a JSON document with bucket_assignments and
bucket_weights as accepted by the score endpoint.`,
		Example: `  marketctl score --input attractiveness.csv
  marketctl score --input attractiveness.csv --weights market_growth=40,credit_risk=60
  marketctl score --input attractiveness.csv --mode buckets --config buckets.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, a, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "attractiveness CSV or HTML export")
	f.StringVar(&opts.mode, "mode", "", "scoring mode: weights or buckets")
	f.StringVar(&opts.weights, "weights", "", "comma separated parameter=weight pairs")
	f.StringVar(&opts.configPath, "config", "", "JSON scoring config")
	f.BoolVar(&opts.breakdown, "breakdown", false, "include per-parameter contributions")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// parseWeights reads "market_growth=40,credit_risk=60"
func parseWeights(s string) (models.Weights, error) {
	raw := make(map[string]int)
	for _, pair := range splitList(s) {
		id, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid weight %q, expected parameter=weight", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid weight for %s: %w", strings.TrimSpace(id), err)
		}
		raw[strings.TrimSpace(id)] = n
	}
	return models.WeightsFromIDs(raw)
}

func (o *scoreOptions) scoringConfig() (services.ScoringConfig, error) {
	var cfg services.ScoringConfig
	if o.configPath != "" {
		data, err := os.ReadFile(o.configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", o.configPath, err)
		}
	}
	if o.weights != "" {
		w, err := parseWeights(o.weights)
		if err != nil {
			return cfg, err
		}
		cfg.Weights = w
	}
	if o.mode != "" {
		cfg.Mode = models.ScoringMode(o.mode)
	} else if cfg.Mode == "" && len(cfg.BucketAssignments) == 0 {
		cfg.Mode = models.ModeWeights
	}
	return cfg, nil
}

func runScore(cmd *cobra.Command, a *app, opts *scoreOptions) error {
	cfg, err := opts.scoringConfig()
	if err != nil {
		return err
	}
	records, err := a.loadAttractiveness(opts.input)
	if err != nil {
		return err
	}

	result, err := a.analytics.Score(services.ScoreRequest{
		ScoringConfig:    cfg,
		Records:          records,
		IncludeBreakdown: opts.breakdown,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if a.opts.format == formatJSON {
		return writeJSON(out, result)
	}

	t := newTable(out, "MSA", "PRODUCT", "SCORE", "CATEGORY")
	for _, r := range result.Records {
		t.row(r.MSA, r.Product, formatFloat(r.AttractivenessScore, 2), string(r.AttractivenessCategory))
	}
	if err := t.flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nmode %s, %d scored, %d excluded, weights total %d\n",
		result.Mode, len(result.Records), result.Excluded, result.WeightsTotal)
	if opts.breakdown {
		for _, r := range result.Records {
			fmt.Fprintf(out, "\n%s / %s\n", r.MSA, r.Product)
			bt := newTable(out, "  PARAMETER", "VALUE", "ORDINAL", "WEIGHT", "CONTRIBUTION")
			for _, ps := range result.Breakdown[r.Key()] {
				bt.row("  "+ps.Parameter.ID(), ps.Value, strconv.Itoa(ps.Ordinal), strconv.Itoa(ps.Weight), formatFloat(ps.Contribution, 3))
			}
			if err := bt.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}
