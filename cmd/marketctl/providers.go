package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ajharbinger/msa-market-engine/internal/services"
)

func newProvidersCommand(a *app) *cobra.Command {
	var (
		input      string
		rankedOnly bool
		msas       string
	)
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Rank providers by overall market share",
		Example: `  marketctl providers --input opportunities.csv
  marketctl providers --input opportunities.csv --ranked-only --msas "TX-Austin,WA-Seattle"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opps, err := a.loadOpportunities(input)
			if err != nil {
				return err
			}
			result, err := a.analytics.Providers(services.ProvidersRequest{
				Opportunities: opps,
				RankedOnly:    rankedOnly,
				VisibleMSAs:   splitList(msas),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.opts.format == formatJSON {
				return writeJSON(out, result)
			}

			t := newTable(out, "RANK", "PROVIDER", "SHARE $", "OVERALL %", "MSAS", "DEFEND $", "AT RISK", "SATISFACTION")
			for _, p := range result.Providers {
				t.row(
					strconv.Itoa(p.Rank),
					p.Provider,
					formatDollars(p.MarketShareDollars),
					formatPct(p.OverallShareSizePct),
					strconv.Itoa(p.MSAsPenetrated),
					formatDollars(p.DefendDollars),
					p.RiskDisplay,
					formatOptional(p.SatisfactionPct),
				)
			}
			if err := t.flush(); err != nil {
				return err
			}
			s := result.Summary
			fmt.Fprintf(out, "\n%d providers across %d MSAs, market size %s\n",
				s.ProviderCount, s.UniqueMSAs, formatDollars(s.TotalMarketSize))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "opportunities CSV or HTML export")
	f.BoolVar(&rankedOnly, "ranked-only", false, "only use rows included in ranking")
	f.StringVar(&msas, "msas", "", "comma separated MSAs to restrict to")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
