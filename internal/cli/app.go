package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dyike/manbo/config"
	"github.com/dyike/manbo/internal/backend"
	"github.com/dyike/manbo/internal/dataflows"
	"github.com/dyike/manbo/internal/display"
	"github.com/dyike/manbo/internal/jobs"
	"github.com/dyike/manbo/internal/logger"
	"github.com/dyike/manbo/internal/models"
)

// app carries what every command needs once flags are parsed.
type app struct {
	manager *config.Manager
	cfg     atomic.Pointer[config.Config]
	log     *logger.Logger
	client  *backend.Client
	out     io.Writer
	errOut  io.Writer
}

type globalFlags struct {
	configPath string
	backendURL string
	debug      bool
}

// newApp loads the persisted config, overlays the environment and flags, and
// builds the logger and backend client.
func newApp(flags globalFlags, out, errOut io.Writer) (*app, error) {
	config.LoadDotEnv()

	var opts []config.ManagerOption
	if flags.configPath != "" {
		opts = append(opts, config.WithConfigPath(flags.configPath))
	}
	bootLog := logger.New("warn")
	opts = append(opts, config.WithLogger(bootLog))

	a := &app{out: out, errOut: errOut}
	var cfg *config.Config
	mgr, err := config.NewManager(opts...)
	if err != nil {
		if flags.configPath != "" {
			return nil, fmt.Errorf("load config %s: %w", flags.configPath, err)
		}
		bootLog.Warn().Err(err).Msg("using built-in defaults")
		cfg = config.DefaultConfig()
	} else {
		a.manager = mgr
		cfg = mgr.Effective()
	}

	if flags.backendURL != "" {
		cfg.BackendURL = flags.backendURL
	}
	if flags.debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a.cfg.Store(cfg)

	a.log = logger.NewConsole(cfg.LogLevel, errOut)
	a.client = backend.New(cfg.BackendURL,
		backend.WithTimeout(cfg.RequestTimeout),
		backend.WithLogger(a.log),
	)
	return a, nil
}

// config returns the current effective config. It is replaced wholesale on
// reload and must not be modified.
func (a *app) config() *config.Config {
	return a.cfg.Load()
}

// reload refreshes the effective config after the file changed. It runs on
// the watcher goroutine. The backend URL and log level stay as started.
func (a *app) reload(cfg config.Config) {
	cfg.ApplyEnv()
	current := a.config()
	cfg.BackendURL = current.BackendURL
	cfg.LogLevel = current.LogLevel
	a.cfg.Store(&cfg)
}

func (a *app) newSession(interval time.Duration, onChange func(jobs.Snapshot)) *jobs.Session {
	if interval <= 0 {
		interval = a.config().PollInterval
	}
	opts := []jobs.SessionOption{
		jobs.WithPollInterval(interval),
		jobs.WithSessionLogger(a.log),
	}
	if onChange != nil {
		opts = append(opts, jobs.WithOnChange(onChange))
	}
	return jobs.NewSession(a.client, opts...)
}

// chartPoints prefers the candles embedded in the result and falls back to
// the market data providers. Provider failures yield the empty state.
func (a *app) chartPoints(ctx context.Context, res *models.AnalysisResult) []models.ChartPoint {
	if len(res.MarketData) > 0 {
		return dataflows.ToChartPoints(res.MarketData)
	}
	points, _, err := a.fetchChart(ctx, res.Symbol, res.Market, a.config().ChartDays)
	if err != nil {
		a.log.Warn().Err(err).Str("symbol", res.Symbol).Msg("market data unavailable")
		return nil
	}
	return points
}

func (a *app) fetchChart(ctx context.Context, symbol string, market models.Market, days int) ([]models.ChartPoint, string, error) {
	providers := dataflows.ProvidersForMarket(a.config(), market, a.log)
	svc := dataflows.NewMarketDataService(a.log, providers...)
	defer svc.Close()
	return svc.ChartPoints(ctx, symbol, market, days)
}

// showResult renders the result and exports it when outDir is set.
func (a *app) showResult(ctx context.Context, res *models.AnalysisResult, outDir string) error {
	points := a.chartPoints(ctx, res)
	display.NewResultsDisplay(a.out).DisplayAnalysisResults(res, points)

	if outDir == "" {
		return nil
	}
	folder, files, err := display.Export(outDir, res, points)
	if err != nil {
		return fmt.Errorf("export results: %w", err)
	}
	display.DisplaySuccess(a.out, fmt.Sprintf("Saved %d files to %s", len(files), folder))
	return nil
}

// progressPrinter writes a status line whenever the job changes phase.
// Session callbacks arrive from more than one goroutine.
type progressPrinter struct {
	w    io.Writer
	mu   sync.Mutex
	last string
}

func (p *progressPrinter) update(snap jobs.Snapshot) {
	status := ""
	if snap.Job != nil {
		status = string(snap.Job.Status)
	}
	key := fmt.Sprintf("%d/%s/%s/%t/%t", snap.Generation, snap.State, status, snap.Result != nil, snap.Done)

	p.mu.Lock()
	defer p.mu.Unlock()
	if key == p.last {
		return
	}
	p.last = key
	fmt.Fprintln(p.w, display.StatusLine(snap, time.Now()))
}
