package main

import (
	"encoding/json"
	goflag "flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"macrobrief/internal/catalog"
	"macrobrief/internal/chart"
	"macrobrief/internal/model"
	"macrobrief/internal/period"
	"macrobrief/internal/report"
	"macrobrief/internal/store"
	"macrobrief/internal/store/sqlite"
)

type metaFile struct {
	GeneratedAt string   `json:"generated_at"`
	Runs        int      `json:"runs"`
	Countries   []string `json:"countries"`
}

type latestFile struct {
	GeneratedAt string        `json:"generated_at"`
	Rows        []latestEntry `json:"rows"`
}

type latestEntry struct {
	Country     model.CountryCode `json:"country"`
	CountryName string            `json:"country_name"`
	RunID       string            `json:"run_id"`
	CreatedAt   string            `json:"created_at"`
	Indicators  []latestValue     `json:"indicators"`
	Summaries   map[string]string `json:"summaries"`
}

type latestValue struct {
	Key    string  `json:"key"`
	Title  string  `json:"title"`
	Period string  `json:"period,omitempty"`
	Label  string  `json:"label,omitempty"`
	Value  float64 `json:"value"`
	Points int     `json:"points"`
}

var Cmd = &cobra.Command{
	Use:           "publisher",
	Long:          "Publish archived runs as static JSON and Word files",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Write meta.json, latest.json and per-run chart files",
	RunE:  build,
}

var args struct {
	dbPath      string
	outDir      string
	country     string
	catalogPath string
	docx        bool
}

func main() {
	if err := Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func build(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cat, err := catalog.Load(args.catalogPath)
	if err != nil {
		return err
	}
	st, err := sqlite.New(args.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, model.NewCountryCode(args.country), 0)
	if err != nil {
		return fmt.Errorf("failed to load runs: %w", err)
	}

	if err := writeSite(args.outDir, runs, cat, args.docx, time.Now().UTC()); err != nil {
		return err
	}

	klog.FromContext(ctx).Info("publisher build complete", "out", args.outDir, "runs", len(runs))
	return nil
}

// writeSite lays out outDir as meta.json, latest.json and runs/<id>/ with one
// chart file per indicator.
func writeSite(outDir string, runs []model.Run, cat *catalog.Catalog, withDocx bool, now time.Time) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	generatedAt := now.Format(time.RFC3339)
	latest := buildLatest(runs)

	countries := make([]string, 0, len(latest))
	for _, entry := range latest {
		countries = append(countries, entry.Country.String())
	}
	if err := writeJSON(filepath.Join(outDir, "meta.json"), metaFile{GeneratedAt: generatedAt, Runs: len(runs), Countries: countries}); err != nil {
		return fmt.Errorf("failed to write meta.json: %w", err)
	}
	if err := writeJSON(filepath.Join(outDir, "latest.json"), latestFile{GeneratedAt: generatedAt, Rows: latest}); err != nil {
		return fmt.Errorf("failed to write latest.json: %w", err)
	}

	for _, run := range runs {
		runDir := filepath.Join(outDir, "runs", run.ID)
		charts := chart.FromRun(cat, run)
		for i, cfg := range charts {
			if _, err := chart.WriteJSON(runDir, run.Indicators[i].Key, cfg); err != nil {
				return err
			}
		}
		if withDocx {
			if err := report.WriteDocx(filepath.Join(runDir, "report.docx"), run); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildLatest(runs []model.Run) []latestEntry {
	newest := store.LatestByCountry(runs)
	sort.SliceStable(newest, func(i, j int) bool {
		return newest[i].Country < newest[j].Country
	})

	rows := make([]latestEntry, 0, len(newest))
	for _, run := range newest {
		entry := latestEntry{
			Country:     run.Country,
			CountryName: run.CountryName,
			RunID:       run.ID,
			CreatedAt:   run.CreatedAt.UTC().Format(time.RFC3339),
			Indicators:  make([]latestValue, 0, len(run.Indicators)),
			Summaries:   make(map[string]string, len(run.Summaries)),
		}
		for _, indicator := range run.Indicators {
			value := latestValue{Key: indicator.Key, Title: indicator.Title, Points: len(indicator.Series)}
			if point, ok := latestPoint(indicator.Series); ok {
				value.Period = point.Period
				value.Label = point.Label
				value.Value = point.Value
			}
			entry.Indicators = append(entry.Indicators, value)
		}
		for _, summary := range run.Summaries {
			entry.Summaries[summary.Language] = summary.Text
		}
		rows = append(rows, entry)
	}
	return rows
}

// latestPoint picks the point with the greatest period; among points sharing
// a quarter the last one wins.
func latestPoint(series model.Series) (model.Point, bool) {
	var (
		best    model.Point
		bestKey int
		found   bool
	)
	for _, point := range series {
		key := period.Key(point.Period)
		if !found || key >= bestKey {
			best, bestKey, found = point, key, true
		}
	}
	return best, found
}

func writeJSON(path string, value any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func init() {
	klogFlags := goflag.NewFlagSet("klog", goflag.ExitOnError)
	klog.InitFlags(klogFlags)
	Cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	flags := buildCmd.Flags()
	flags.StringVar(&args.dbPath, "db", "macrobrief.db", "SQLite archive path")
	flags.StringVar(&args.outDir, "out", "site/data", "Output directory")
	flags.StringVar(&args.country, "country", "", "Only publish runs for this country")
	flags.StringVar(&args.catalogPath, "catalog", "", "Indicator catalog YAML used for chart colors")
	flags.BoolVar(&args.docx, "docx", false, "Also write a Word report per run")

	Cmd.AddCommand(buildCmd)
}
