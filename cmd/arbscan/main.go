package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nrv/arbitrage-engine/internal/allocator"
	"github.com/nrv/arbitrage-engine/internal/config"
	"github.com/nrv/arbitrage-engine/internal/engine"
	"github.com/nrv/arbitrage-engine/internal/engineerr"
	"github.com/nrv/arbitrage-engine/internal/marketdata"
	"github.com/nrv/arbitrage-engine/internal/metrics"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	marketDataPath := flag.String("market-data", "", "Path to a JSON market data file; quick-scan generator used if empty")
	capital := flag.Float64("capital", 10000, "Capital available for the scan, in quote currency")
	mcSamples := flag.Int("mc-samples", 0, "Monte Carlo sample count override (0 uses config default)")
	allocatorMode := flag.String("allocator-mode", "", "Allocator mode override: greedy, lp, risk_parity")
	conservative := flag.Bool("conservative", false, "Apply the conservative risk multiplier")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg.Logging)
	log.Info().Msg("starting arbscan")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	exitCode := run(ctx, cfg, runOptions{
		marketDataPath: *marketDataPath,
		capital:        *capital,
		mcSamples:      *mcSamples,
		allocatorMode:  *allocatorMode,
		conservative:   *conservative,
	})
	os.Exit(exitCode)
}

type runOptions struct {
	marketDataPath string
	capital        float64
	mcSamples      int
	allocatorMode  string
	conservative   bool
}

func run(ctx context.Context, cfg *config.Config, opts runOptions) int {
	m := metrics.New()
	if cfg.Metrics.Enabled {
		if err := m.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			log.Error().Err(err).Msg("failed to start metrics server")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				m.Shutdown(shutdownCtx)
			}()
			log.Info().Int("port", cfg.Metrics.Port).Msg("metrics server started")
		}
	}

	eng := engine.New(*cfg, m)

	var req engine.ScanRequest
	req.Capital = opts.capital
	req.MaxCycles = cfg.Detector.MaxCycles
	req.RunMonteCarlo = true
	req.McSamples = opts.mcSamples
	if req.McSamples <= 0 {
		req.McSamples = cfg.Simulation.Samples
	}
	req.RunStress = true
	req.Conservative = opts.conservative
	req.AllocatorMode = resolveAllocatorMode(opts.allocatorMode, cfg.Allocator.Mode)
	req.AllocatorCriterion = resolveCriterion(cfg.Allocator.Criterion)

	scanCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Simulation.TimeoutMs)*time.Millisecond)
	defer cancel()

	var resp *engine.ScanResponse
	var err error
	if opts.marketDataPath != "" {
		loaded, loadErr := marketdata.LoadFile(opts.marketDataPath)
		if loadErr != nil {
			log.Error().Err(loadErr).Msg("failed to load market data")
			return engineerr.ExitCode(engineerr.New(engineerr.KindInvalidInput, loadErr.Error()))
		}
		req.Edges = loaded
		resp, err = eng.Scan(scanCtx, req)
	} else {
		resp, err = eng.QuickScan(scanCtx, marketdata.DefaultSimulated(), false, req)
	}

	if err != nil {
		log.Error().Err(err).Msg("scan failed")
		return engineerr.ExitCode(err)
	}

	engine.WriteReport(os.Stdout, resp)
	return 0
}

func resolveAllocatorMode(override, configured string) allocator.Mode {
	v := override
	if v == "" {
		v = configured
	}
	switch v {
	case "lp":
		return allocator.ModeLP
	case "risk_parity":
		return allocator.ModeRiskParity
	default:
		return allocator.ModeGreedy
	}
}

func resolveCriterion(configured string) allocator.Criterion {
	switch configured {
	case "mean_return":
		return allocator.CriterionMeanReturn
	case "composite":
		return allocator.CriterionComposite
	default:
		return allocator.CriterionSharpe
	}
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}
