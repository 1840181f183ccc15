package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajharbinger/msa-market-engine/internal/services"
)

func newAcquireCommand(a *app) *cobra.Command {
	var (
		opportunities string
		deposits      string
		acquirer      string
		target        string
		haircut       float64
		msas          string
	)
	cmd := &cobra.Command{
		Use:   "acquire",
		Short: "Simulate a full acquisition and its HHI impact",
		Long: `Project the combined footprint of an acquirer and a target per MSA.

Without --haircut the target's share at risk is used as the haircut. MSAs
where HHI rises by at least the delta threshold and ends concentrated are
flagged.`,
		Example: `  marketctl acquire --opportunities o.csv --deposits d.csv --acquirer "First Bank" --target "Lone Star" --haircut 10`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opps, err := a.loadOpportunities(opportunities)
			if err != nil {
				return err
			}
			req := services.AcquisitionRequest{
				Acquirer:      acquirer,
				Target:        target,
				Opportunities: opps,
				VisibleMSAs:   splitList(msas),
			}
			if deposits != "" {
				if req.Deposits, err = a.loadDeposits(deposits); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("haircut") {
				req.HaircutPct = &haircut
			}

			impact, err := a.analytics.AcquisitionImpact(req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.opts.format == formatJSON {
				return writeJSON(out, impact)
			}

			t := newTable(out, "MSA", "CURRENT", "ACQUIRED", "PROJECTED", "PROJECTED $", "HHI", "NEW HHI", "DELTA", "RISK")
			for _, r := range impact.Rows {
				risk := ""
				if r.RegulatoryRisk {
					risk = "FLAG"
				}
				t.row(
					r.MSA,
					formatPct(r.CurrentShare),
					formatPct(r.AcquiredShare),
					formatPct(r.ProjectedShare),
					formatDollars(r.ProjectedShareDollars),
					formatFloat(r.CurrentHHI, 0),
					formatFloat(r.NewHHI, 0),
					formatFloat(r.DeltaHHI, 0),
					risk,
				)
			}
			if err := t.flush(); err != nil {
				return err
			}

			s := impact.Summary
			fmt.Fprintf(out, "\n%s acquires %s: %d MSAs, %d overlapping, %d flagged, haircut %s, projected %s\n",
				impact.Scenario.Acquirer, impact.Scenario.Target,
				s.MSAsInUnion, s.OverlapMSAs, s.FlaggedMSAs,
				formatPct(s.HaircutPct), formatDollars(s.TotalProjectedShareDollars))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opportunities, "opportunities", "", "opportunities CSV or HTML export")
	f.StringVar(&deposits, "deposits", "", "deposit share CSV or HTML export")
	f.StringVar(&acquirer, "acquirer", "", "acquiring provider")
	f.StringVar(&target, "target", "", "target provider")
	f.Float64Var(&haircut, "haircut", 0, "percent of acquired share lost (0-20)")
	f.StringVar(&msas, "msas", "", "comma separated MSAs to restrict to")
	_ = cmd.MarkFlagRequired("opportunities")
	_ = cmd.MarkFlagRequired("acquirer")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
