package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"launchfund/config"
	"launchfund/native/bank"
	"launchfund/native/convert"
	"launchfund/native/launch"
	"launchfund/observability"
	"launchfund/observability/logging"
	"launchfund/state"
	"launchfund/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	logLevel := flag.String("log-level", "info", "Minimum log level (debug, info, warn, error)")
	flag.Parse()

	logger := logging.Setup(logging.Options{
		Service: "launchd",
		Env:     strings.TrimSpace(os.Getenv("LAUNCHFUND_ENV")),
		Level:   logging.ParseLevel(*logLevel),
	})

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.StoragePath)
	if err != nil {
		logger.Error("failed to open database", "error", err, "path", cfg.StoragePath)
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	tokens := bank.NewLedger(manager)

	aggregator := convert.NewOracleAggregator(cfg.Oracle.Priority, cfg.MaxQuoteAge())
	aggregator.Register("manual", convert.NewManualOracle())

	router := convert.NewRouter(aggregator, convert.NewManualSwapper(nil, cfg.Market.BaseDecimals))
	router.SetPair(cfg.Market.BaseSymbol, cfg.Market.StableSymbol, cfg.Market.BaseDecimals)
	router.SetSlippageBps(cfg.Swap.SlippageBps)
	router.SetMaxQuoteAge(cfg.MaxQuoteAge())

	engine := launch.NewEngine()
	engine.SetState(manager)
	engine.SetTokenLedger(tokens)
	engine.SetRouter(router)
	engine.SetEmitter(observability.MetricsEmitter{})

	observability.Launch()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: cfg.Metrics.ListenAddress, Handler: mux}
	go func() {
		logger.Info("metrics endpoint listening", "address", cfg.Metrics.ListenAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	campaigns, err := manager.CampaignList()
	if err != nil {
		logger.Error("failed to list campaigns", "error", err)
		os.Exit(1)
	}
	logger.Info("launch engine ready",
		"campaigns", len(campaigns),
		"pair", cfg.Market.BaseSymbol+"/"+cfg.Market.StableSymbol,
		"slippageBps", cfg.Swap.SlippageBps,
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")
	_ = server.Close()
}
