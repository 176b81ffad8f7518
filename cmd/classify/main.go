package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/medapp/medicine-catalog/internal/infrastructure/observability"
	"github.com/medapp/medicine-catalog/pkg/classifier"
	"github.com/medapp/medicine-catalog/pkg/config"
)

// chunkSize bounds how many input lines are held in memory at once.
const chunkSize = 1000

type options struct {
	catalogPath string
	nameBonus   int
	workers     int
	explain     bool
	candidates  int
	record      classifier.Record
}

type inputLine struct {
	ID json.RawMessage `json:"id,omitempty"`
	classifier.Record
}

type outputLine struct {
	ID           json.RawMessage     `json:"id,omitempty"`
	CategorySlug string              `json:"category_slug"`
	CategoryName string              `json:"category_name"`
	Score        int                 `json:"score"`
	Matched      []string            `json:"matched_keywords"`
	Candidates   []classifier.Result `json:"candidates,omitempty"`
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
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "classify [file]",
		Short: "Classify medicine records against the category catalog",
		Long: `Classify reads JSON lines ({"id":..,"name":..,"generic_name":..,"description":..})
from a file or stdin and writes one JSON result per line. When any record field flag is
set, that single record is classified instead. No database is touched.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			observability.InitLogger("medicine-classify", cfg.Env)

			if opts.catalogPath == "" {
				opts.catalogPath = cfg.Classifier.CatalogPath
			}
			if !cmd.Flags().Changed("name-bonus") {
				opts.nameBonus = cfg.Classifier.NameBonus
			}
			if opts.workers <= 0 {
				opts.workers = cfg.Classifier.Workers
			}

			clf, err := loadClassifier(opts.catalogPath, opts.nameBonus)
			if err != nil {
				observability.GetLogger().Error().Err(err).Str("catalog", opts.catalogPath).Msg("Failed to load catalog")
				return err
			}

			if !opts.record.IsEmpty() {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(buildOutput(clf, nil, opts.record, opts))
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			return classifyStream(cmd, clf, in, cmd.OutOrStdout(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.catalogPath, "catalog", "", "catalog file (default $CLASSIFIER_CATALOG_PATH)")
	flags.IntVar(&opts.nameBonus, "name-bonus", classifier.DefaultNameBonus, "bonus per keyword also found in the name or generic name")
	flags.IntVar(&opts.workers, "workers", 0, "concurrent classifiers (default $CLASSIFIER_WORKERS)")
	flags.BoolVar(&opts.explain, "explain", false, "include every matching category ranked by score")
	flags.IntVar(&opts.candidates, "candidates", 5, "maximum ranked candidates shown with --explain")
	flags.StringVar(&opts.record.Name, "name", "", "medicine name")
	flags.StringVar(&opts.record.GenericName, "generic", "", "generic name")
	flags.StringVar(&opts.record.Composition, "composition", "", "composition / active ingredients")
	flags.StringVar(&opts.record.Description, "description", "", "description")
	flags.StringVar(&opts.record.Symptoms, "symptoms", "", "symptoms treated")
	flags.StringVar(&opts.record.Route, "route", "", "route of administration")

	return cmd
}

func loadClassifier(path string, nameBonus int) (*classifier.Classifier, error) {
	catalog, err := classifier.LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	return classifier.New(catalog, classifier.WithNameBonus(nameBonus))
}

func buildOutput(clf *classifier.Classifier, id json.RawMessage, record classifier.Record, opts *options) outputLine {
	result := clf.Classify(record)
	return toOutput(clf, id, record, result, opts)
}

func toOutput(clf *classifier.Classifier, id json.RawMessage, record classifier.Record, result classifier.Result, opts *options) outputLine {
	out := outputLine{
		ID:           id,
		CategorySlug: result.CategorySlug,
		CategoryName: result.CategorySlug,
		Score:        result.Score,
		Matched:      result.MatchedKeywords,
	}
	if out.Matched == nil {
		out.Matched = []string{}
	}
	if cat, ok := clf.Catalog().Category(result.CategorySlug); ok {
		out.CategoryName = cat.Name
	}
	if opts.explain {
		ranked := clf.Rank(record)
		if opts.candidates > 0 && len(ranked) > opts.candidates {
			ranked = ranked[:opts.candidates]
		}
		out.Candidates = ranked
	}
	return out
}

// classifyStream classifies JSON lines in chunks, keeping input order.
func classifyStream(cmd *cobra.Command, clf *classifier.Classifier, in io.Reader, out io.Writer, opts *options) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	enc := json.NewEncoder(out)
	logger := observability.GetLogger()

	var ids []json.RawMessage
	var records []classifier.Record
	lineNo, total := 0, 0

	flush := func() error {
		if len(records) == 0 {
			return nil
		}
		results, err := clf.ClassifyAll(cmd.Context(), records, opts.workers)
		if err != nil {
			return err
		}
		for i, result := range results {
			if err := enc.Encode(toOutput(clf, ids[i], records[i], result, opts)); err != nil {
				return fmt.Errorf("failed to write result: %w", err)
			}
		}
		total += len(records)
		ids, records = ids[:0], records[:0]
		return nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var item inputLine
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			return fmt.Errorf("line %d: invalid JSON: %w", lineNo, err)
		}
		ids = append(ids, item.ID)
		records = append(records, item.Record)

		if len(records) >= chunkSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}

	logger.Debug().Int("records", total).Msg("Classified input")
	return nil
}
