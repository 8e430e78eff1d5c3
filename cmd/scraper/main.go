package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-golkala/config"
	"github.com/aluiziolira/go-scrape-golkala/models"
	"github.com/aluiziolira/go-scrape-golkala/report"
	"github.com/aluiziolira/go-scrape-golkala/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const usageLine = "usage: golkala-scraper [flags] <category_url>"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, nil))
}

// run executes one scrape and returns the process exit code. A nil transport
// uses the collector's default.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, transport http.RoundTripper) int {
	defaults := config.DefaultConfig()

	fs := flag.NewFlagSet("golkala-scraper", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, usageLine)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "Optional YAML config file")
	maxPages := fs.Int("pages", defaults.MaxPages, "Maximum catalog pages to walk (0 = until the catalog ends)")
	delay := fs.Duration("delay", defaults.Delay, "Delay between page requests")
	timeout := fs.Duration("timeout", defaults.Timeout, "HTTP request timeout")
	outputDir := fs.String("output-dir", defaults.OutputDir, "Directory for the generated report")
	outputFile := fs.String("output", "", "Report path (default Golkala_Catalog_<category>.<ext> in -output-dir)")
	outputFormat := fs.String("format", defaults.OutputFormat, "Output format: xlsx, csv, or json")
	userAgent := fs.String("user-agent", defaults.UserAgent, "User-Agent header")
	respectRobots := fs.Bool("respect-robots", defaults.RespectRobotsTxt, "Respect robots.txt directives")
	verbose := fs.Bool("v", false, "Enable verbose logging")
	metricsAddr := fs.String("metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if len(positional) != 1 {
		fmt.Fprintf(stderr, "expected exactly one category URL, got %d\n", len(positional))
		fmt.Fprintln(stderr, usageLine)
		return 1
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		if err := config.LoadFile(*configPath, cfg); err != nil {
			fmt.Fprintf(stderr, "invalid config file: %v\n", err)
			return 1
		}
	}
	if err := config.ApplyEnv(cfg); err != nil {
		fmt.Fprintf(stderr, "invalid environment: %v\n", err)
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pages":
			cfg.MaxPages = *maxPages
		case "delay":
			cfg.Delay = *delay
		case "timeout":
			cfg.Timeout = *timeout
		case "output-dir":
			cfg.OutputDir = *outputDir
		case "output":
			cfg.OutputFile = *outputFile
		case "format":
			cfg.OutputFormat = strings.ToLower(*outputFormat)
		case "user-agent":
			cfg.UserAgent = *userAgent
		case "respect-robots":
			cfg.RespectRobotsTxt = *respectRobots
		case "v":
			cfg.Verbose = *verbose
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		}
	})
	cfg.CategoryURL = config.NormalizeCategoryURL(positional[0])

	logger, level := newLogger(cfg.Verbose, stderr)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := scraper.NewMetrics()
	fetcher, err := scraper.NewCollyFetcher(cfg, metrics)
	if err != nil {
		slog.Error("initialising fetcher", slog.Any("error", err))
		return 1
	}
	if transport != nil {
		fetcher.WithTransport(transport)
	}

	walker, err := scraper.NewWalker(cfg, fetcher, metrics)
	if err != nil {
		slog.Error("initialising walker", slog.Any("error", err))
		return 1
	}
	walker.OnPage(func(page int, pageURL string) {
		fmt.Fprintf(stdout, "processing page %d: %s\n", page, pageURL)
	})

	metricsServer := startMetricsServer(cfg.MetricsAddr, metrics)
	defer shutdownMetricsServer(metricsServer)

	slog.Info("starting scrape",
		slog.String("category_url", cfg.CategoryURL),
		slog.Int("max_pages", cfg.MaxPages),
	)

	exitCode := 0
	result, err := walker.Walk(ctx)
	if err != nil {
		if result == nil {
			slog.Error("scraping failed", slog.Any("error", err))
			return 1
		}
		slog.Warn("scrape interrupted, writing partial results", slog.Any("error", err))
		exitCode = 1
	}

	if len(result.Products) == 0 {
		fmt.Fprintln(stdout, "no products found")
		return exitCode
	}

	outputPath := cfg.OutputFile
	if outputPath == "" {
		outputPath = filepath.Join(cfg.OutputDir, report.OutputFilename(cfg.CategoryURL, cfg.OutputFormat))
	}
	if err := writeReport(cfg.OutputFormat, outputPath, result.Products); err != nil {
		slog.Error("writing report failed", slog.String("path", outputPath), slog.Any("error", err))
		return 1
	}

	fmt.Fprintf(stdout, "report written: %s\n", outputPath)
	printSummary(stdout, result)
	return exitCode
}

// parseInterspersed parses fs over args, allowing flags after positional
// arguments ("golkala-scraper URL -v"). Everything after "--" is positional.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		if len(args) > len(rest) && args[len(args)-len(rest)-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func writeReport(format, path string, products []*models.Product) error {
	writer, err := report.NewWriter(format, path)
	if err != nil {
		return fmt.Errorf("create writer: %w", err)
	}
	if err := writer.Write(products); err != nil {
		writer.Close()
		return fmt.Errorf("write products: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	if err := writer.Validate(); err != nil {
		return fmt.Errorf("validate output: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, result *models.CatalogResult) {
	separator := "--------------------------------------------------"
	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, "Summary")
	if err := report.FormatSummary(w, result.Summary); err != nil {
		slog.Error("print summary", slog.Any("error", err))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Pages:         %d\n", result.PageCount)
	fmt.Fprintf(w, "  Stopped:       %s\n", describeStop(result))
	fmt.Fprintf(w, "  Duration:      %v\n", result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	fmt.Fprintln(w, separator)
}

func describeStop(result *models.CatalogResult) string {
	if result.StopError != "" {
		return fmt.Sprintf("%s (%s)", result.StopReason, result.StopError)
	}
	return string(result.StopReason)
}

func startMetricsServer(addr string, metrics *scraper.Metrics) *http.Server {
	if addr == "" || metrics == nil {
		return nil
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))
	return server
}

func shutdownMetricsServer(server *http.Server) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("metrics server shutdown failed", slog.Any("error", err))
	}
}

func newLogger(verbose bool, w io.Writer) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
