package main

import (
	"errors"
	goflag "flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"macrobrief/internal/catalog"
	"macrobrief/internal/chart"
	"macrobrief/internal/config"
	"macrobrief/internal/geocode"
	"macrobrief/internal/geocode/nominatim"
	"macrobrief/internal/model"
	"macrobrief/internal/narrative"
	"macrobrief/internal/pipeline"
	"macrobrief/internal/providers"
	"macrobrief/internal/providers/eurostat"
	"macrobrief/internal/report"
	"macrobrief/internal/store"
	"macrobrief/internal/store/sqlite"
)

var Cmd = &cobra.Command{
	Use:           "summarizer",
	Long:          "Resolve an address to its country, fetch Eurostat indicators for it and write a bilingual macroeconomic summary",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var args struct {
	dbPath      string
	catalogPath string

	address    string
	words      int
	indicators []string
	languages  []string
	provider   string
	outDir     string
	docxPath   string

	dataset string
	country string
	filters []string
	cutoff  int

	historyCountry string
	historyLimit   int
}

func main() {
	if err := Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline for one address",
	RunE:  runPipeline,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve ADDRESS",
	Short: "Print the country code of an address",
	Args:  cobra.MinimumNArgs(1),
	RunE:  resolve,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch one Eurostat series and print it as a table",
	RunE:  fetch,
}

var indicatorsCmd = &cobra.Command{
	Use:   "indicators",
	Short: "List the indicators in the catalog",
	RunE:  listIndicators,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived runs",
	RunE:  history,
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Default()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = args.dbPath
	}
	if flags.Changed("catalog") {
		cfg.CatalogPath = args.catalogPath
	}
	if flags.Changed("words") {
		cfg.Words = args.words
	}
	if flags.Changed("languages") {
		cfg.Languages = args.languages
	}
	if flags.Changed("provider") {
		cfg.NarrativeProvider = strings.ToLower(args.provider)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := klog.FromContext(ctx)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}
	resolver, err := buildResolver(cfg)
	if err != nil {
		return err
	}
	provider, err := eurostat.NewWithConfig(cfg.Eurostat)
	if err != nil {
		return err
	}
	generator, err := cfg.NewGenerator()
	if err != nil {
		return err
	}
	st, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := &pipeline.Service{
		Resolver:      resolver,
		Provider:      provider,
		Catalog:       cat,
		Generator:     generator,
		Store:         st,
		LookbackYears: cfg.LookbackYears,
	}

	result, err := svc.Run(ctx, pipeline.Request{
		Address:    args.address,
		Words:      cfg.Words,
		Indicators: args.indicators,
		Languages:  cfg.Languages,
	})
	if err != nil {
		log.V(1).Info("run failed", "err", err)
		return errors.New(pipeline.UserMessage(err))
	}

	printRun(result.Run)

	if args.outDir != "" {
		for i, chartCfg := range result.Charts {
			path, err := chart.WriteJSON(args.outDir, result.Run.ID+"-"+result.Run.Indicators[i].Key, chartCfg)
			if err != nil {
				return err
			}
			log.Info("chart written", "path", path)
		}
	}
	if args.docxPath != "" {
		if err := report.WriteDocx(args.docxPath, result.Run); err != nil {
			return err
		}
		log.Info("report written", "path", args.docxPath)
	}
	return nil
}

func printRun(run model.Run) {
	fmt.Printf("Country: %s (%s)\n", run.CountryName, run.Country)
	fmt.Printf("Data since: %d\n\n", run.CutoffYear)
	for _, indicator := range run.Indicators {
		fmt.Printf("%s\n%s\n\n", indicator.Title, narrative.TextBlock(indicator.Series))
	}
	for _, summary := range run.Summaries {
		fmt.Printf("Summary (%s)\n%s\n\n", narrative.LanguageName(summary.Language), summary.Text)
	}
}

func resolve(cmd *cobra.Command, argv []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	resolver, err := buildResolver(cfg)
	if err != nil {
		return err
	}
	code, err := resolver.Resolve(cmd.Context(), strings.Join(argv, " "))
	if err != nil {
		klog.FromContext(cmd.Context()).V(1).Info("resolve failed", "err", err)
		return errors.New(pipeline.UserMessage(err))
	}
	fmt.Println(code)
	return nil
}

func fetch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	filters, err := parseFilters(args.filters)
	if err != nil {
		return err
	}
	cutoff := args.cutoff
	if cutoff == 0 {
		cutoff = time.Now().Year() - cfg.LookbackYears
	}

	provider, err := eurostat.NewWithConfig(cfg.Eurostat)
	if err != nil {
		return err
	}
	series, err := provider.FetchSeries(cmd.Context(), providers.Query{
		Dataset:    args.dataset,
		Filters:    filters,
		Country:    model.NewCountryCode(args.country),
		CutoffYear: cutoff,
	})
	if err != nil {
		return errors.New(pipeline.UserMessage(err))
	}
	fmt.Println(narrative.TextBlock(series))
	return nil
}

func listIndicators(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}
	for _, indicator := range cat.Indicators {
		fmt.Printf("%-8s %-16s %s\n", indicator.Key, indicator.Dataset, indicator.Title)
	}
	return nil
}

func history(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return errors.New("history requires --db or MACROBRIEF_DB")
	}
	st, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context(), model.NewCountryCode(args.historyCountry), args.historyLimit)
	if err != nil {
		return err
	}
	for _, run := range runs {
		languages := make([]string, len(run.Summaries))
		for i, summary := range run.Summaries {
			languages[i] = summary.Language
		}
		fmt.Printf("%s  %s  %-14s %s  [%s]\n", run.ID, run.Country, humanize.Time(run.CreatedAt), run.Address, strings.Join(languages, ","))
	}
	return nil
}

func buildResolver(cfg *config.Config) (geocode.Resolver, error) {
	base, err := nominatim.NewWithConfig(cfg.Nominatim)
	if err != nil {
		return nil, err
	}
	return geocode.NewCachedResolver(base, cfg.GeocodeCacheSize)
}

func openStore(path string) (store.Store, error) {
	if strings.TrimSpace(path) == "" {
		return &store.NopStore{}, nil
	}
	return sqlite.New(path)
}

// parseFilters turns repeated key=value flags into a dimension filter map.
func parseFilters(raw []string) (map[string]string, error) {
	filters := make(map[string]string, len(raw))
	for _, item := range raw {
		key, value, ok := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("invalid filter %q (want key=value)", item)
		}
		filters[key] = value
	}
	return filters, nil
}

func init() {
	klogFlags := goflag.NewFlagSet("klog", goflag.ExitOnError)
	klog.InitFlags(klogFlags)
	Cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	Cmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		cmd.SetContext(klog.NewContext(cmd.Context(), klog.Background()))
	}

	persistent := Cmd.PersistentFlags()
	persistent.StringVar(
		&args.dbPath,
		"db",
		"",
		"SQLite archive path (empty disables archiving; env MACROBRIEF_DB)",
	)
	persistent.StringVar(
		&args.catalogPath,
		"catalog",
		"",
		"Indicator catalog YAML (empty uses the built-in catalog; env MACROBRIEF_CATALOG)",
	)

	runFlags := runCmd.Flags()
	runFlags.StringVar(&args.address, "address", "", "Free-text address")
	runFlags.IntVar(&args.words, "words", narrative.DefaultWords, "Approximate summary length in words (100-300)")
	runFlags.StringSliceVar(&args.indicators, "indicators", nil, "Indicator keys to include (default: whole catalog)")
	runFlags.StringSliceVar(&args.languages, "languages", pipeline.DefaultLanguages, "Summary languages in output order")
	runFlags.StringVar(&args.provider, "provider", config.ProviderOpenAI, "Narrative provider (openai or gemini)")
	runFlags.StringVar(&args.outDir, "out", "", "Directory for chart JSON files")
	runFlags.StringVar(&args.docxPath, "docx", "", "Write a Word report to this path")
	_ = runCmd.MarkFlagRequired("address")

	fetchFlags := fetchCmd.Flags()
	fetchFlags.StringVar(&args.dataset, "dataset", "", "Eurostat dataset code")
	fetchFlags.StringVar(&args.country, "country", "", "ISO 3166-1 alpha-2 country code")
	fetchFlags.StringArrayVar(&args.filters, "filter", nil, "Dimension filter key=value (repeatable)")
	fetchFlags.IntVar(&args.cutoff, "cutoff", 0, "Earliest year to keep (default: current year minus lookback)")
	_ = fetchCmd.MarkFlagRequired("dataset")
	_ = fetchCmd.MarkFlagRequired("country")

	historyFlags := historyCmd.Flags()
	historyFlags.StringVar(&args.historyCountry, "country", "", "Only list runs for this country")
	historyFlags.IntVar(&args.historyLimit, "limit", 20, "Maximum number of runs (0 = all)")

	Cmd.AddCommand(runCmd, resolveCmd, fetchCmd, indicatorsCmd, historyCmd)
}
