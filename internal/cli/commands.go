package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dyike/manbo/config"
	"github.com/dyike/manbo/internal/chart"
	"github.com/dyike/manbo/internal/display"
	"github.com/dyike/manbo/internal/jobs"
	"github.com/dyike/manbo/internal/models"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var (
		flags globalFlags
		a     *app
	)

	rootCmd := &cobra.Command{
		Use:   "manbo",
		Short: "Manbo - client for the multi-agent trading analysis backend",
		Long: `Manbo submits stock analysis jobs to the trading analysis backend, follows
them until they finish, and renders the decision, price chart and agent reports.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipApp(cmd) {
				return nil
			}
			var err error
			a, err = newApp(flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default behavior: start interactive mode
			return runInteractiveMode(cmd.Context(), a)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&flags.backendURL, "backend", "", "Backend base URL (overrides config and MANBO_BACKEND_URL)")

	appRef := func() *app { return a }
	rootCmd.AddCommand(newAnalyzeCmd(appRef))
	rootCmd.AddCommand(newStatusCmd(appRef))
	rootCmd.AddCommand(newResultCmd(appRef))
	rootCmd.AddCommand(newHealthCmd(appRef))
	rootCmd.AddCommand(newChartCmd(appRef))
	rootCmd.AddCommand(newConfigCmd(appRef))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// skipApp reports whether a command runs without config or backend.
func skipApp(cmd *cobra.Command) bool {
	if cmd.Parent() != nil && cmd.Parent().Name() == "completion" {
		return true
	}
	switch cmd.Name() {
	case "version", "help", "completion":
		return true
	}
	return false
}

type analyzeOptions struct {
	market   string
	depth    int
	date     string
	provider string
	news     bool
	social   bool
	noRisk   bool
	outDir   string
	interval time.Duration
	detach   bool
}

// newAnalyzeCmd creates the analyze command
func newAnalyzeCmd(appRef func() *app) *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Submit an analysis and wait for the result",
		Long: `Submit an analysis job for a stock ticker, poll it until it finishes and
render the result.
Example: manbo analyze AAPL --market 美股 --depth 3 --news`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			req, err := opts.request(a.config(), args[0], cmd)
			if err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), a, req, opts)
		},
	}

	cmd.Flags().StringVar(&opts.market, "market", "", "Market: 美股, A股 or 港股 (also us, cn, hk)")
	cmd.Flags().IntVar(&opts.depth, "depth", 0, "Research depth 1-5")
	cmd.Flags().StringVar(&opts.date, "date", "", "Analysis date in YYYY-MM-DD format (today if not provided)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "LLM provider hint forwarded to the backend")
	cmd.Flags().BoolVar(&opts.news, "news", false, "Include the news analyst")
	cmd.Flags().BoolVar(&opts.social, "social", false, "Include the social media analyst")
	cmd.Flags().BoolVar(&opts.noRisk, "no-risk", false, "Skip the risk assessment")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "Export reports and chart into this directory")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "Status poll interval (default from config)")
	cmd.Flags().BoolVar(&opts.detach, "detach", false, "Print the job id and exit without waiting")

	return cmd
}

// request merges flags over the configured defaults. Flags the user did not
// set keep the config value.
func (o analyzeOptions) request(cfg *config.Config, symbol string, cmd *cobra.Command) (jobs.SubmitRequest, error) {
	sel := selectionsFromConfig(cfg)
	sel.Ticker = symbol

	if o.market != "" {
		m, err := models.ParseMarket(o.market)
		if err != nil {
			return jobs.SubmitRequest{}, err
		}
		sel.Market = m
	}
	if cmd.Flags().Changed("depth") {
		sel.ResearchDepth = models.ResearchDepth(o.depth)
	}
	if o.provider != "" {
		sel.LLMProvider = models.LLMProvider(o.provider)
	}
	if cmd.Flags().Changed("news") {
		sel.Analysts.News = o.news
	}
	if cmd.Flags().Changed("social") {
		sel.Analysts.Social = o.social
	}
	if o.noRisk {
		sel.IncludeRisk = false
	}

	req := sel.Request()
	if o.date != "" {
		req.AnalysisDate = o.date
	}
	return req, nil
}

// runAnalyze executes the submit, poll and fetch workflow
func runAnalyze(ctx context.Context, a *app, req jobs.SubmitRequest, opts analyzeOptions) error {
	if opts.detach {
		handle, err := jobs.NewSubmitter(a.client, a.log).Submit(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, handle.ID)
		return nil
	}

	progress := &progressPrinter{w: a.errOut}
	session := a.newSession(opts.interval, progress.update)
	defer session.Cancel()

	handle, err := session.Start(ctx, req)
	if err != nil {
		return err
	}
	display.DisplayInfo(a.errOut, fmt.Sprintf("Job %s submitted: %s", handle.ID, handle.Message))

	snap, err := session.Wait(ctx)
	if err != nil {
		return err
	}
	if snap.Err != nil {
		return snap.Err
	}
	if snap.Result == nil {
		return jobs.ErrCancelled
	}
	return a.showResult(ctx, snap.Result, opts.outDir)
}

// newStatusCmd creates the status command
func newStatusCmd(appRef func() *app) *cobra.Command {
	var (
		watch    bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "status JOB_ID",
		Short: "Show the status of an analysis job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			ctx := cmd.Context()
			if !watch {
				resp, err := a.client.AnalysisStatus(ctx, args[0])
				if err != nil {
					return err
				}
				job, err := resp.ToJob()
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, display.RenderJob(job, time.Now()))
				return nil
			}

			progress := &progressPrinter{w: a.out}
			session := a.newSession(interval, progress.update)
			defer session.Cancel()
			if err := session.Track(ctx, args[0]); err != nil {
				return err
			}
			snap, err := session.Wait(ctx)
			if err != nil {
				return err
			}
			return snap.Err
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll until the job finishes")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Status poll interval (default from config)")
	return cmd
}

// newResultCmd creates the result command
func newResultCmd(appRef func() *app) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "result JOB_ID",
		Short: "Fetch and render the result of a completed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			res, err := jobs.NewFetcher(a.client, a.log).Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.showResult(cmd.Context(), res, outDir)
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "Export reports and chart into this directory")
	return cmd
}

// newHealthCmd creates the health command
func newHealthCmd(appRef func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			h, err := a.client.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("backend %s unreachable: %w", a.config().BackendURL, err)
			}
			display.DisplaySuccess(a.out, fmt.Sprintf("Backend %s is %s", a.config().BackendURL, h.Status))
			return nil
		},
	}
}

// newChartCmd creates the chart command
func newChartCmd(appRef func() *app) *cobra.Command {
	var (
		market string
		days   int
		out    string
	)
	cmd := &cobra.Command{
		Use:   "chart SYMBOL",
		Short: "Render a closing price chart from market data providers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			m, err := models.ParseMarket(firstNonEmpty(market, a.config().DefaultMarket))
			if err != nil {
				return err
			}
			if days <= 0 {
				days = a.config().ChartDays
			}
			symbol := strings.ToUpper(strings.TrimSpace(args[0]))

			points, source, err := a.fetchChart(cmd.Context(), symbol, m, days)
			if err != nil {
				return err
			}
			if source != "" {
				display.DisplayInfo(a.errOut, fmt.Sprintf("%d points from %s", len(points), source))
			}
			fmt.Fprintln(a.out, display.ChartSummary(points, 0))

			if out == "" {
				return nil
			}
			if len(points) < 2 {
				return errors.New("not enough data points to render a chart")
			}
			if err := chart.WritePNG(out, points, chart.RenderOptions{Title: symbol + " close"}); err != nil {
				return err
			}
			display.DisplaySuccess(a.out, "Chart written to "+out)
			return nil
		},
	}
	cmd.Flags().StringVar(&market, "market", "", "Market: 美股, A股 or 港股")
	cmd.Flags().IntVar(&days, "days", 0, "Number of calendar days to cover (default from config)")
	cmd.Flags().StringVar(&out, "out", "", "Write a PNG chart to this path")
	return cmd
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "manbo %s\n", Version)
		},
	}
}

// newConfigCmd creates the config command
func newConfigCmd(appRef func() *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			return showConfig(a.out, a.config())
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and backend connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cmd.Context(), appRef())
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			if a.manager == nil {
				return errors.New("no configuration file in use")
			}
			fmt.Fprintln(a.out, a.manager.Path())
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Update one configuration key",
		Long:  "Update one configuration key. Known keys: " + strings.Join(config.Keys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			if a.manager == nil {
				return errors.New("no configuration file in use")
			}
			if err := a.manager.Set(args[0], args[1]); err != nil {
				return err
			}
			display.DisplaySuccess(a.out, fmt.Sprintf("%s updated in %s", args[0], a.manager.Path()))
			return nil
		},
	})

	return configCmd
}

// showConfig prints the effective configuration with secrets masked.
func showConfig(w io.Writer, cfg *config.Config) error {
	masked := *cfg
	masked.FinnhubAPIKey = mask(masked.FinnhubAPIKey)
	masked.LongportAppKey = mask(masked.LongportAppKey)
	masked.LongportAppSecret = mask(masked.LongportAppSecret)
	masked.LongportAccessToken = mask(masked.LongportAccessToken)

	data, err := yaml.Marshal(&masked)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fmt.Fprintln(w, display.Title("Current Configuration"))
	_, err = w.Write(data)
	return err
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + strings.Repeat("*", 8)
}

// validateConfig validates the configuration and dependencies
func validateConfig(ctx context.Context, a *app) error {
	w := a.out
	cfg := a.config()
	fmt.Fprintln(w, display.Title("Validating Configuration"))

	if err := cfg.Validate(); err != nil {
		display.DisplayError(w, err)
		return err
	}
	display.DisplaySuccess(w, "configuration values are valid")

	if err := cfg.EnsureDirectories(); err != nil {
		display.DisplayError(w, err)
		return fmt.Errorf("directory validation failed: %w", err)
	}
	display.DisplaySuccess(w, "directories ready under "+filepath.Clean(cfg.ProjectDir))

	if !cfg.HasFinnhub() {
		display.DisplayWarning(w, "Finnhub API key not configured, US charts use Yahoo Finance")
	}
	if !cfg.HasLongport() {
		display.DisplayWarning(w, "Longport credentials not configured, HK charts use Yahoo Finance")
	}

	if _, err := a.client.Health(ctx); err != nil {
		display.DisplayError(w, fmt.Errorf("backend %s: %w", cfg.BackendURL, err))
		return err
	}
	display.DisplaySuccess(w, "backend "+cfg.BackendURL+" is reachable")
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
