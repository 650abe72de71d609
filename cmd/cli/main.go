package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jeovahfialho/stock-exchange/internal/config"
	"github.com/jeovahfialho/stock-exchange/internal/domain"
	"github.com/jeovahfialho/stock-exchange/internal/listing"
	"github.com/jeovahfialho/stock-exchange/internal/market"
	"github.com/jeovahfialho/stock-exchange/internal/service"
	"github.com/jeovahfialho/stock-exchange/internal/simulate"
	"github.com/jeovahfialho/stock-exchange/pkg/logger"
)

func main() {
	var (
		listingFile string
		verbose     bool
		cfg         *config.Config
	)

	var rootCmd = &cobra.Command{
		Use:   "stocks",
		Short: "Super Simple Stocks CLI",
		Long: `CLI for a small in-memory stock exchange.
Lists stocks, records trades from files and prints dividend yield,
P/E ratio, volume weighted price and the all share index.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadE()
			if err != nil {
				return err
			}
			if listingFile == "" {
				listingFile = cfg.ListingFile
			}

			level := "warn"
			if verbose {
				level = "debug"
			}
			return logger.Init(level, "console", cfg.Development())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&listingFile, "listing", "l", "", "Listing file (YAML), defaults to LISTING_FILE or the GBCE sample")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	// listing
	var listingCmd = &cobra.Command{
		Use:   "listing",
		Short: "Prints the stock listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			stocks, err := listing.LoadOrDefault(listingFile)
			if err != nil {
				return err
			}
			return listing.Encode(cmd.OutOrStdout(), stocks)
		},
	}

	// files
	var filesCmd = &cobra.Command{
		Use:   "files",
		Short: "Lists trade files available to load",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("dir")
			if dataDir == "" {
				dataDir = cfg.DownloadDir
			}
			return listFiles(cmd, dataDir)
		},
	}

	filesCmd.Flags().StringP("dir", "d", "", "Data directory, defaults to DOWNLOAD_DIR")

	// load
	var loadCmd = &cobra.Command{
		Use:   "load [files...]",
		Short: "Loads CSV trade files and prints the exchange metrics",
		Long: `Loads CSV trade files into the listing and prints the resulting metrics.
Accepts several files and glob patterns (e.g. data/*.csv). Files published
over HTTP can be fetched with --url.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			urls, _ := cmd.Flags().GetStringSlice("url")
			price, _ := cmd.Flags().GetString("price")
			if len(args) == 0 && len(urls) == 0 {
				return fmt.Errorf("at least one file or --url is required")
			}
			return loadFiles(cmd, cfg, listingFile, args, urls, price)
		},
	}

	loadCmd.Flags().StringSlice("url", nil, "Trade file URL, repeatable")
	loadCmd.Flags().String("price", "", "Market price for dividend yield and P/E (optional)")

	// quote
	var quoteCmd = &cobra.Command{
		Use:   "quote [symbol]",
		Short: "Prints dividend yield, P/E ratio and volume weighted price of a stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, _ := cmd.Flags().GetString("price")
			trades, _ := cmd.Flags().GetStringSlice("trades")
			return quote(cmd, cfg, listingFile, args[0], price, trades)
		},
	}

	quoteCmd.Flags().StringP("price", "p", "", "Market price")
	quoteCmd.Flags().StringSliceP("trades", "t", nil, "Trade files to load first")
	_ = quoteCmd.MarkFlagRequired("price")

	// simulate
	var simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Builds a random exchange and prints its metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			stocks, _ := cmd.Flags().GetInt("stocks")
			trades, _ := cmd.Flags().GetInt("trades")
			seed, _ := cmd.Flags().GetInt64("seed")
			return runSimulation(cmd, cfg, stocks, trades, seed)
		},
	}

	simulateCmd.Flags().IntP("stocks", "s", 5, "Number of stocks")
	simulateCmd.Flags().IntP("trades", "t", 5, "Trades per stock")
	simulateCmd.Flags().Int64("seed", 0, "Random seed, 0 picks one from the clock")

	rootCmd.AddCommand(listingCmd, filesCmd, loadCmd, quoteCmd, simulateCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newExchange(cfg *config.Config, listingFile string) (*service.ExchangeService, error) {
	stocks, err := listing.LoadOrDefault(listingFile)
	if err != nil {
		return nil, err
	}
	return service.NewExchangeService(market.NewExchange(stocks...), service.WithWindow(cfg.VWPWindow)), nil
}

func listFiles(cmd *cobra.Command, dataDir string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Trade files in %s\n\n", dataDir)

	files, err := filepath.Glob(filepath.Join(dataDir, "*.csv"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No trade files found.")
		return nil
	}

	var totalSize int64
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		totalSize += info.Size()
		fmt.Fprintf(out, "  - %-30s %10s\n", filepath.Base(f), formatBytes(info.Size()))
	}
	fmt.Fprintf(out, "\n%d files, %s\n", len(files), formatBytes(totalSize))
	return nil
}

func loadFiles(cmd *cobra.Command, cfg *config.Config, listingFile string, patterns, urls []string, priceStr string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	files, err := expandGlobs(patterns)
	if err != nil {
		return err
	}

	svc, err := newExchange(cfg, listingFile)
	if err != nil {
		return err
	}
	ingestionService := service.NewIngestionService(svc, cfg.BatchSize, cfg.Workers)

	var results []service.ProcessFileResult
	if len(files) > 0 {
		fmt.Fprintf(out, "Loading %d file(s)...\n\n", len(files))
		r, err := ingestionService.ProcessFiles(ctx, files)
		if err != nil {
			return err
		}
		results = append(results, r...)
	}
	if len(urls) > 0 {
		fmt.Fprintf(out, "Fetching %d file(s) into %s...\n\n", len(urls), cfg.DownloadDir)
		r, err := ingestionService.ProcessURLs(ctx, urls, cfg.DownloadDir)
		if err != nil {
			return err
		}
		results = append(results, r...)
	}

	var totalRecords int64
	for _, r := range results {
		fmt.Fprintf(out, "%s: %s trades recorded, %d rejected\n", r.FilePath, formatNumber(r.RecordsCount), len(r.Errors))
		for i, e := range r.Errors {
			if i >= 5 {
				fmt.Fprintf(out, "   ... and %d more\n", len(r.Errors)-5)
				break
			}
			fmt.Fprintf(out, "   - %v\n", e)
		}
		totalRecords += r.RecordsCount
	}
	fmt.Fprintf(out, "\nTotal: %s trades recorded\n\n", formatNumber(totalRecords))

	var price *decimal.Decimal
	if priceStr != "" {
		p, err := decimal.NewFromString(priceStr)
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", priceStr, err)
		}
		price = &p
	}
	return printExchange(ctx, cmd, svc, price)
}

func quote(cmd *cobra.Command, cfg *config.Config, listingFile, symbol, priceStr string, tradeFiles []string) error {
	ctx := cmd.Context()

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", priceStr, err)
	}

	svc, err := newExchange(cfg, listingFile)
	if err != nil {
		return err
	}

	if len(tradeFiles) > 0 {
		files, err := expandGlobs(tradeFiles)
		if err != nil {
			return err
		}
		if _, err := service.NewIngestionService(svc, cfg.BatchSize, cfg.Workers).ProcessFiles(ctx, files); err != nil {
			return err
		}
	}

	q, err := svc.Quote(ctx, symbol, price)
	if err != nil {
		return err
	}
	printQuote(cmd, q)
	return nil
}

func runSimulation(cmd *cobra.Command, cfg *config.Config, stocks, trades int, seed int64) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	now := time.Now()

	svc := service.NewExchangeService(nil, service.WithWindow(cfg.VWPWindow))
	start := time.Now()
	res, err := simulate.Populate(ctx, svc, simulate.NewGenerator(seed, now), simulate.Config{
		Stocks:         stocks,
		TradesPerStock: trades,
		Workers:        cfg.Workers,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created %d stocks with %d trades each in %s (seed %d)\n\n",
		len(res.Symbols), trades, time.Since(start).Round(time.Microsecond), seed)

	if len(res.Symbols) == 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(seed))
	price := decimal.NewFromInt(int64(1 + rng.Intn(100)))
	symbol := res.Symbols[rng.Intn(len(res.Symbols))]

	if err := printExchange(ctx, cmd, svc, nil); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nRandom pick %s at market price %s\n", symbol, price)
	q, err := svc.Quote(ctx, symbol, price)
	if err != nil {
		return err
	}
	printQuote(cmd, q)
	return nil
}

func printExchange(ctx context.Context, cmd *cobra.Command, svc *service.ExchangeService, price *decimal.Decimal) error {
	out := cmd.OutOrStdout()

	stocks := svc.Stocks(ctx)
	fmt.Fprintf(out, "%-6s %-10s %8s %8s %8s %8s %14s\n", "SYMBOL", "TYPE", "LAST", "FIXED", "PAR", "TRADES", "VWP")
	for _, s := range stocks {
		fixed := "-"
		if s.FixedDividend != nil {
			fixed = s.FixedDividend.String()
		}
		vwp := "-"
		if v, err := svc.VolumeWeightedPrice(ctx, s.Symbol); err == nil {
			vwp = v.StringFixed(4)
		}
		fmt.Fprintf(out, "%-6s %-10s %8d %8s %8d %8d %14s\n",
			s.Symbol, s.Type, s.LastDividend, fixed, s.ParValue, s.TradeCount, vwp)
	}

	if price != nil {
		fmt.Fprintf(out, "\nAt market price %s:\n", price)
		for _, s := range stocks {
			q, err := svc.Quote(ctx, s.Symbol, *price)
			if err != nil {
				return err
			}
			printQuote(cmd, q)
		}
	}

	fmt.Fprintf(out, "\nGBCE All Share Index: %s\n", svc.AllShareIndex(ctx).StringFixed(4))
	return nil
}

func printQuote(cmd *cobra.Command, q domain.Quote) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s @ %s\n", q.Symbol, q.MarketPrice)
	fmt.Fprintf(out, "├─ Dividend Yield: %s\n", fixed4(q.DividendYield))
	fmt.Fprintf(out, "├─ P/E Ratio:      %s\n", fixed4(q.PERatio))
	fmt.Fprintf(out, "└─ VWSP:           %s\n", fixed4(q.VolumeWeighted))
	for _, e := range q.Errors {
		fmt.Fprintf(out, "   ! %s\n", e)
	}
}

func fixed4(d *decimal.Decimal) string {
	if d == nil {
		return "n/a"
	}
	return d.StringFixed(4)
}

// expandGlobs resolves patterns such as data/*.csv. A pattern without a match
// is kept as is so the loader reports the missing file.
func expandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			matches = []string{p}
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
