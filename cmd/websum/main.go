package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/websum"
	"github.com/fwojciec/websum/config"
	"github.com/fwojciec/websum/fs"
	"github.com/fwojciec/websum/gemini"
	"github.com/fwojciec/websum/goquery"
	"github.com/fwojciec/websum/htmltomarkdown"
	websumhttp "github.com/fwojciec/websum/http"
	"github.com/fwojciec/websum/pipeline"
	"github.com/fwojciec/websum/plugin"
	"github.com/fwojciec/websum/prometheus"
	"github.com/fwojciec/websum/ratelimit"
	"github.com/fwojciec/websum/readability"
	"github.com/fwojciec/websum/rod"
	wslog "github.com/fwojciec/websum/slog"
	"github.com/fwojciec/websum/summarize"
	"github.com/fwojciec/websum/trafilatura"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Config is loaded from --config or WEBSUM_CONFIG when nil.
	Config *config.Config

	// Services for end-to-end testing. When nil, Run wires the real ones.
	Service  websum.SummaryService
	Sitemaps websum.SitemapService

	closers []func() error
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close releases everything Run opened, in reverse order.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("websum"),
		kong.Description("Summarize web pages with a language model"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'websum --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg := m.Config
	if cfg == nil {
		if cfg, err = config.Load(cli.Config); err != nil {
			fmt.Fprintln(stderr, "Hint: Check the file passed with --config or WEBSUM_CONFIG")
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	if cli.NoBrowser {
		cfg.Browser.NoBrowser = true
	}
	if cli.MetricsAddr != "" {
		cfg.Metrics.Addr = cli.MetricsAddr
	}

	logger := newLogger(stderr, cli.Verbose, cli.LogFormat)
	deps.Logger = logger
	deps.Defaults = cfg.SummaryOptions()

	defer m.Close()

	var metrics *prometheus.Metrics
	if cfg.Metrics.Addr != "" {
		metrics = prometheus.NewMetrics()
		if err := m.serveMetrics(ctx, logger, cfg.Metrics.Addr, metrics); err != nil {
			return err
		}
	}

	if m.Sitemaps == nil {
		m.Sitemaps = wslog.NewLoggingSitemapService(websumhttp.NewSitemapService(nil), logger)
	}
	if m.Service == nil {
		if m.Service, err = m.newPipeline(ctx, cfg, cli.Extractor, logger, metrics, stderr); err != nil {
			return err
		}
	}

	deps.Service = m.Service
	deps.Sitemaps = m.Sitemaps
	deps.Handler = websumhttp.NewServer(m.Service,
		websumhttp.WithDefaults(deps.Defaults),
		websumhttp.WithLogger(logger),
	)
	if cmd == "batch" && cli.Batch.OutDir != "" {
		deps.Writer = fs.NewWriter(cli.Batch.OutDir)
	}

	return kongCtx.Run(deps)
}

// newPipeline wires the production summarization pipeline.
func (m *Main) newPipeline(ctx context.Context, cfg *config.Config, extractorName string, logger *slog.Logger, metrics *prometheus.Metrics, stderr io.Writer) (*pipeline.Pipeline, error) {
	apiKey := cfg.APIKey()
	if apiKey == "" {
		fmt.Fprintf(stderr, "%s environment variable not set. Get an API key at https://aistudio.google.com/apikey\n", cfg.Model.APIKeyEnv)
		return nil, fmt.Errorf("%s not set", cfg.Model.APIKeyEnv)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Hint: Check your %s is valid\n", cfg.Model.APIKeyEnv)
		return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
	}

	var model websum.LanguageModel = gemini.NewModel(client,
		gemini.WithModel(cfg.Model.Name),
		gemini.WithTemperature(float32(cfg.Model.Temperature)),
		gemini.WithTimeout(cfg.Model.Timeout),
	)
	model = wslog.NewLoggingModel(model, logger)

	policy := cfg.RetryPolicy()
	if metrics != nil {
		model = prometheus.NewModel(model, metrics)
		policy.OnRetry = metrics.OnRetry
	}

	limiter, err := ratelimit.New(cfg.Model.RequestsPerWindow, cfg.Model.Window)
	if err != nil {
		return nil, err
	}
	m.closers = append(m.closers, limiter.Close)

	browser, err := newBrowser(cfg)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed, or pass --no-browser")
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	m.closers = append(m.closers, browser.Close)

	p := &pipeline.Pipeline{
		Browser:   wslog.NewLoggingBrowser(browser, logger),
		Extractor: newExtractor(extractorName),
		Converter: htmltomarkdown.NewConverter(),
		Links:     goquery.NewLinkExtractor(),
		Summarizer: summarize.New(model, limiter,
			summarize.WithRetryPolicy(policy),
			summarize.WithLogger(logger),
		),
		Plugins:      plugin.Default(),
		Pacer:        pipeline.NewPacer(cfg.Batch.URLDelay),
		Retry:        policy,
		RecycleEvery: cfg.Browser.RecycleEvery,
		LinkDelay:    cfg.Batch.LinkDelay,
		MaxLinks:     cfg.Batch.MaxLinks,
		Logger:       logger,
	}
	if metrics != nil {
		p.Observer = metrics
	}

	if counter, err := gemini.NewTokenCounter(cfg.Model.Name); err != nil {
		logger.Warn("token counting disabled", "model", cfg.Model.Name, "err", err)
	} else {
		p.TokenCounter = counter
	}

	return p, nil
}

func newBrowser(cfg *config.Config) (websum.Browser, error) {
	if cfg.Browser.NoBrowser {
		return websumhttp.NewFetcher(websumhttp.WithTimeout(cfg.Browser.Timeout)), nil
	}
	browser, err := rod.NewBrowser(
		rod.WithHeadless(cfg.Browser.Headless),
		rod.WithStealth(cfg.Browser.Stealth),
		rod.WithTimeout(cfg.Browser.Timeout),
		rod.WithBlockedResources(cfg.Browser.BlockResources...),
	)
	if err != nil {
		return nil, err
	}
	return browser, nil
}

func newExtractor(name string) websum.Extractor {
	if name == "readability" {
		return readability.NewExtractor()
	}
	return trafilatura.NewExtractor()
}

func (m *Main) serveMetrics(ctx context.Context, logger *slog.Logger, addr string, metrics *prometheus.Metrics) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for metrics on %s: %w", addr, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := serve(ctx, logger.With("server", "metrics"), ln, metrics.Handler()); err != nil {
			logger.Warn("metrics server stopped", "err", err)
		}
	}()
	m.closers = append(m.closers, func() error {
		cancel()
		<-done
		return nil
	})
	return nil
}

func newLogger(w io.Writer, verbose bool, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
