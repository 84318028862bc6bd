package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/v0xg/testforge/internal/ai"
	"github.com/v0xg/testforge/internal/config"
	"github.com/v0xg/testforge/internal/crawler"
	"github.com/v0xg/testforge/internal/forge"
)

const (
	modeGenerate = "generate"
	modeHeal     = "heal"
)

type options struct {
	url        string
	goal       string
	mode       string
	selector   string
	htmlPath   string
	pageURL    string
	targetFile string

	provider   string
	model      string
	configPath string
	testsDir   string
	pageObject string
	cleanHTML  bool
	scan       bool
	verbose    bool
}

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "testforge",
		Short: "Generate Playwright tests and heal broken selectors using AI",
		Long: `testforge asks a language model to write Playwright tests against a
page object, to grow that page object with new methods, and to repair
selectors that no longer match the page.

Examples:
  testforge --url "https://www.saucedemo.com/" --goal "Add backpack to cart"
  testforge --mode heal --selector "#login-button" --html page.html --file tests/login.spec.ts`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := rootCmd.Flags()
	f.StringVar(&opts.url, "url", "", "Target URL for the generated test")
	f.StringVar(&opts.goal, "goal", "", "What the generated test should do")
	f.StringVar(&opts.mode, "mode", modeGenerate, "Mode: generate or heal")
	f.StringVar(&opts.selector, "selector", "", "Broken selector to heal")
	f.StringVar(&opts.htmlPath, "html", "", "File with the current page HTML (heal mode)")
	f.StringVar(&opts.pageURL, "page-url", "", "Capture the current page HTML from this URL instead of --html")
	f.StringVar(&opts.targetFile, "file", "", "File to patch with the healed selector")
	f.StringVar(&opts.provider, "provider", "", "AI provider: gemini, claude, openai (default: from env or gemini)")
	f.StringVar(&opts.model, "model", "", "Specific model override")
	f.StringVar(&opts.configPath, "config", "", "Config file (default: "+config.DefaultPath+" if present)")
	f.StringVar(&opts.testsDir, "tests-dir", "", "Directory for generated tests")
	f.StringVar(&opts.pageObject, "page-object", "", "Page object file to grow")
	f.BoolVar(&opts.cleanHTML, "clean-html", false, "Strip scripts, styles and hidden nodes before healing")
	f.BoolVar(&opts.scan, "scan", false, "Crawl --url and give the model its interactive elements")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Show detailed progress")

	return rootCmd
}

func (o *options) validate() error {
	switch o.mode {
	case modeGenerate:
		if o.url == "" || o.goal == "" {
			return errors.New("generate mode requires --url and --goal")
		}
	case modeHeal:
		if o.selector == "" {
			return errors.New("heal mode requires --selector")
		}
		if o.htmlPath == "" && o.pageURL == "" {
			return errors.New("heal mode requires --html or --page-url")
		}
		if o.htmlPath != "" && o.pageURL != "" {
			return errors.New("--html and --page-url are mutually exclusive")
		}
		if o.htmlPath != "" {
			if _, err := os.Stat(o.htmlPath); err != nil {
				return fmt.Errorf("html file: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown mode %q (want %s or %s)", o.mode, modeGenerate, modeHeal)
	}
	return nil
}

func run(cmd *cobra.Command, opts *options) error {
	if err := opts.validate(); err != nil {
		return err
	}

	cfgPath := opts.configPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	cfg.UseProvider(opts.provider)
	if opts.model != "" {
		cfg.LLM.Model = opts.model
	}
	if opts.testsDir != "" {
		cfg.Paths.TestsDir = opts.testsDir
	}
	if opts.pageObject != "" {
		cfg.Paths.PageObjectFile = opts.pageObject
	}

	logger, err := newLogger(cfg.Logging.Level, opts.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("run_id", uuid.New().String()))

	logger.Info("Starting testforge",
		zap.String("mode", opts.mode),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("tests_dir", cfg.Paths.TestsDir),
		zap.String("page_object", cfg.Paths.PageObjectFile))

	gw, err := ai.NewGateway(cfg.LLM, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fg := forge.New(gw, cfg.Paths, logger, out)
	browserOpts := crawler.Options{
		Width:      cfg.Browser.Width,
		Height:     cfg.Browser.Height,
		Timeout:    cfg.Browser.Timeout,
		ProfileDir: cfg.Browser.ProfileDir,
		Logger:     logger.Named("crawler"),
	}
	ctx := cmd.Context()

	if opts.mode == modeHeal {
		markup, err := loadMarkup(ctx, opts, browserOpts, out)
		if err != nil {
			return err
		}
		_, err = fg.Heal(ctx, forge.HealRequest{
			Selector:   opts.selector,
			Markup:     markup,
			TargetFile: opts.targetFile,
		})
		return err
	}

	req := forge.GenerateRequest{Goal: opts.goal, URL: opts.url}
	if opts.scan {
		fmt.Fprintf(out, "→ Scanning %s... ", opts.url)
		snap, err := crawler.Capture(ctx, opts.url, browserOpts)
		if err != nil {
			// The test can still be written without the element map.
			fmt.Fprintln(out, "failed")
			logger.Warn("Scan failed", zap.Error(err))
		} else {
			fmt.Fprintf(out, "done (found %d interactive elements)\n", len(snap.Elements))
			req.Elements = snap.Elements
		}
	}
	_, err = fg.Generate(ctx, req)
	return err
}

// loadMarkup reads the page HTML for heal mode from --html or a live capture.
func loadMarkup(ctx context.Context, opts *options, browserOpts crawler.Options, out io.Writer) (string, error) {
	var markup string
	if opts.pageURL != "" {
		fmt.Fprintf(out, "→ Capturing %s... ", opts.pageURL)
		snap, err := crawler.Capture(ctx, opts.pageURL, browserOpts)
		if err != nil {
			fmt.Fprintln(out, "failed")
			return "", fmt.Errorf("capture failed: %w", err)
		}
		fmt.Fprintln(out, "done")
		markup = snap.HTML
	} else {
		data, err := os.ReadFile(opts.htmlPath)
		if err != nil {
			return "", fmt.Errorf("failed to read html: %w", err)
		}
		markup = string(data)
	}

	if opts.cleanHTML {
		cleaned, err := crawler.CleanHTML(markup)
		if err != nil {
			return "", err
		}
		markup = cleaned
	}
	return markup, nil
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		config.Level = lvl
	}
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}
