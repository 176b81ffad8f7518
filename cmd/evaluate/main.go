package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/medapp/medicine-catalog/internal/evaluation"
	"github.com/medapp/medicine-catalog/internal/infrastructure/observability"
	"github.com/medapp/medicine-catalog/pkg/classifier"
	"github.com/medapp/medicine-catalog/pkg/config"
)

type evalOptions struct {
	catalogPath string
	goldenPath  string
	asJSON      bool
	guardrails  evaluation.GuardrailConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &evalOptions{}

	cmd := &cobra.Command{
		Use:          "evaluate",
		Short:        "Score the category catalog against a labeled golden set",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			observability.InitLogger("medicine-evaluate", cfg.Env)

			if opts.catalogPath == "" {
				opts.catalogPath = cfg.Classifier.CatalogPath
			}
			return run(cmd.Context(), opts, cfg.Classifier.NameBonus, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.catalogPath, "catalog", "", "catalog file (default $CLASSIFIER_CATALOG_PATH)")
	flags.StringVar(&opts.goldenPath, "golden", "config/golden_medicines.json", "golden set file")
	flags.BoolVar(&opts.asJSON, "json", false, "print the summary as JSON")
	flags.Float64Var(&opts.guardrails.MinAccuracy, "min-accuracy", 0.9, "fail below this accuracy")
	flags.Float64Var(&opts.guardrails.MinMRR, "min-mrr", 0, "fail below this MRR@5")
	flags.Float64Var(&opts.guardrails.MaxFallbackRate, "max-fallback-rate", 0, "fail above this fallback rate (0 disables)")

	return cmd
}

func run(ctx context.Context, opts *evalOptions, nameBonus int, out io.Writer) error {
	catalog, err := classifier.LoadCatalog(opts.catalogPath)
	if err != nil {
		return err
	}
	clf, err := classifier.New(catalog, classifier.WithNameBonus(nameBonus))
	if err != nil {
		return err
	}

	items, err := evaluation.LoadGoldenSet(opts.goldenPath)
	if err != nil {
		return err
	}
	if err := evaluation.ValidateGoldenSet(items, catalog); err != nil {
		return err
	}

	summary, err := evaluation.NewRunner(clf).Run(ctx, items)
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	} else {
		printSummary(out, summary)
	}

	return evaluation.NewGuardrails(opts.guardrails).Check(summary)
}

func printSummary(out io.Writer, s *evaluation.EvalSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "medicines\t%d\n", s.Total)
	fmt.Fprintf(w, "accuracy\t%.3f\n", s.Accuracy)
	fmt.Fprintf(w, "mrr@%d\t%.3f\n", evaluation.DefaultK, s.MRRAtK)
	fmt.Fprintf(w, "fallback rate\t%.3f\n", s.FallbackRate)
	fmt.Fprintf(w, "avg latency\t%s\n", s.AvgLatency)

	fmt.Fprintln(w, "\nDIFFICULTY\tCOUNT\tACCURACY")
	for _, d := range evaluation.ValidDifficulties() {
		if ds, ok := s.ByDifficulty[d]; ok {
			fmt.Fprintf(w, "%s\t%d\t%.3f\n", d, ds.Count, ds.Accuracy)
		}
	}

	if len(s.Misses) == 0 {
		return
	}
	sort.Slice(s.Misses, func(i, j int) bool { return s.Misses[i].MedicineID < s.Misses[j].MedicineID })
	fmt.Fprintln(w, "\nMISS\tEXPECTED\tPREDICTED\tSCORE")
	for _, m := range s.Misses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", m.MedicineID, m.Expected, m.Predicted, m.Score)
	}
}
