package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wonny/fscore/internal/external/dart"
	"github.com/wonny/fscore/internal/external/fnguide"
	"github.com/wonny/fscore/internal/external/krx"
	"github.com/wonny/fscore/internal/external/naver"
	"github.com/wonny/fscore/internal/fscore"
	"github.com/wonny/fscore/internal/hybrid"
	"github.com/wonny/fscore/internal/notify"
	"github.com/wonny/fscore/internal/scan"
	"github.com/wonny/fscore/internal/screenconfig"
	"github.com/wonny/fscore/internal/sector"
	"github.com/wonny/fscore/internal/timing"
	"github.com/wonny/fscore/internal/universe"
	"github.com/wonny/fscore/pkg/config"
	"github.com/wonny/fscore/pkg/database"
	"github.com/wonny/fscore/pkg/logger"
	"github.com/wonny/fscore/pkg/redis"
)

// app holds the process-wide dependencies shared by every command
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	profile  *screenconfig.Profile
	settings screenconfig.Settings

	redis *redis.Client
	db    *database.DB
	naver *naver.Client
}

// newApp loads configuration, logger and profile
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	profile, err := screenconfig.Resolve(profileFlag)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile != nil {
		hash, _ := screenconfig.Hash(profile)
		log.WithFields(map[string]interface{}{
			"profile": profileFlag,
			"hash":    hash,
		}).Info("Pipeline profile loaded")
	}

	rdb, err := redis.New(ctx, cfg)
	if err != nil {
		// 캐시는 선택 사항: 연결 실패 시 캐시 없이 진행
		log.WithError(err).Warn("Redis unavailable, running without cache")
		rdb = redis.Disabled()
	}

	return &app{
		cfg:      cfg,
		log:      log,
		profile:  profile,
		settings: profile.Apply(screenconfig.Defaults(cfg)),
		redis:    rdb,
		naver:    naver.NewClient(cfg, log),
	}, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	a.redis.Close()
}

func (a *app) cache(prefix string) *redis.Cache {
	return redis.NewCache(a.redis, prefix, a.cfg.Redis.CacheTTL)
}

// universe selects the candidate source from settings
func (a *app) universe(ctx context.Context) (universe.Provider, error) {
	switch a.settings.UniverseSource {
	case universe.SourceListing:
		return universe.NewListingProvider(a.naver, a.log), nil
	case universe.SourceDB:
		db, err := database.New(ctx, a.cfg)
		if err != nil {
			return nil, err
		}
		a.db = db
		return universe.NewDBProvider(db.Pool, a.log), nil
	case universe.SourceFile, "":
		return universe.NewFileProvider(a.settings.UniverseFile), nil
	default:
		return nil, fmt.Errorf("%w: unknown universe source %q", config.ErrConfiguration, a.settings.UniverseSource)
	}
}

func (a *app) liteEngine() *fscore.LiteEngine {
	return fscore.NewLiteEngine(fnguide.NewClient(a.cfg, a.log), a.log)
}

// registry builds the DART registry. Callers must have checked RequireDART.
func (a *app) registry() *dart.Registry {
	client := dart.NewClient(a.cfg, a.log).WithCache(a.cache("dart"))
	return dart.NewRegistry(client, a.log)
}

func (a *app) sectors() *sector.Loader {
	return sector.NewLoader(krx.NewClient(a.cfg, a.log), a.cache("krx"), a.cfg.KRX.LookbackDays, a.log)
}

func (a *app) notifier(enabled bool) notify.Notifier {
	if !enabled {
		return notify.Nop{}
	}
	return notify.New(a.cfg, a.log)
}

// reporter builds the progress reporter chosen by --progress; extra reporters are fanned out too
func (a *app) reporter(extra ...scan.Reporter) scan.Reporter {
	var primary scan.Reporter
	switch progressFlag {
	case "log":
		primary = scan.NewLogReporter(a.log)
	default:
		primary = scan.NewBarReporter(os.Stderr)
	}
	return append(scan.Reporters{primary}, extra...)
}

// orchestrator wires the hybrid pipeline. withFull=false leaves the Full stage unwired (lite command).
func (a *app) orchestrator(ctx context.Context, withFull bool, notifyEnabled bool, extra ...scan.Reporter) (*hybrid.Orchestrator, error) {
	provider, err := a.universe(ctx)
	if err != nil {
		return nil, err
	}

	deps := hybrid.Dependencies{
		Universe: provider,
		Lite:     a.liteEngine().ScoreCandidate,
		Sectors:  a.sectors(),
		Notifier: a.notifier(notifyEnabled),
		Reporter: a.reporter(extra...),
	}

	if withFull {
		registry := a.registry()
		full := fscore.NewFullEngine(a.liteEngine(), registry, a.log)
		deps.Registry = registry
		deps.Full = func(fiscalYear int) hybrid.ScoreTask {
			return full.CandidateScorer(fiscalYear)
		}
	}

	return hybrid.NewOrchestrator(deps, a.log), nil
}

// runConfig builds the hybrid run configuration from settings
func (a *app) runConfig() hybrid.RunConfig {
	s := a.settings
	return hybrid.RunConfig{
		LiteWorkers:        s.LiteWorkers,
		LiteMaxCount:       s.LiteMaxCount,
		FullWorkers:        s.FullWorkers,
		TopN:               s.TopN,
		FinalMinScore:      s.FinalMinScore,
		FiscalYear:         s.FiscalYear,
		TaskTimeout:        a.cfg.Scan.TaskTimeout,
		OutputDir:          a.cfg.Scan.OutputDir,
		LiteCheckpoint:     s.LiteCheckpoint,
		CheckpointInterval: a.cfg.Scan.CheckpointInterval,
	}
}

// signalContext is cancelled on Ctrl+C / SIGTERM (진행 중 작업은 마무리, 미배정 종목은 건너뜀)
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// timingConfig builds the timing batch configuration from settings
func (a *app) timingConfig() timing.BatchConfig {
	return timing.BatchConfig{
		MinFScore:          a.settings.TimingMinFScore,
		Workers:            a.settings.TimingWorkers,
		TaskTimeout:        a.cfg.Scan.TaskTimeout,
		OutputDir:          a.cfg.Scan.OutputDir,
		CheckpointInterval: a.cfg.Scan.CheckpointInterval,
	}
}
