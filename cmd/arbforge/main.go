// Command arbforge is the orchestrator daemon entrypoint: it loads
// configuration, decrypts the signing key, wires every adapter, and runs
// the tick loop until stopped, following the teacher's cmd/main.go pattern
// (env-sourced key material, YAML config, graceful shutdown).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/blackhole-labs/arbforge/configs"
	"github.com/blackhole-labs/arbforge/internal/alert"
	"github.com/blackhole-labs/arbforge/internal/chainclient"
	"github.com/blackhole-labs/arbforge/internal/db"
	"github.com/blackhole-labs/arbforge/internal/exchange"
	"github.com/blackhole-labs/arbforge/internal/logging"
	"github.com/blackhole-labs/arbforge/internal/metrics"
	"github.com/blackhole-labs/arbforge/internal/orchestrator"
	"github.com/blackhole-labs/arbforge/internal/simulator"
	"github.com/blackhole-labs/arbforge/internal/wallet"
	"github.com/blackhole-labs/arbforge/pkg/executor"
	"github.com/blackhole-labs/arbforge/pkg/inventory"
	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/blackhole-labs/arbforge/pkg/pricing"
	"github.com/blackhole-labs/arbforge/pkg/risk"
	"github.com/blackhole-labs/arbforge/pkg/scoring"
	"github.com/blackhole-labs/arbforge/pkg/signal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	root := &cobra.Command{
		Use:   "arbforge",
		Short: "Cross-venue CEX/AMM arbitrage engine",
		RunE:  run,
	}
	root.Flags().String("config", "configs/config.yml", "path to YAML config")
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := configs.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Production)
	if err != nil {
		return err
	}
	defer log.Sync()

	encPK := os.Getenv("ENC_PK")
	passphrase := os.Getenv("WALLET_PASSPHRASE")
	if encPK == "" || passphrase == "" {
		return fmt.Errorf("ENC_PK and WALLET_PASSPHRASE must be set")
	}
	w, err := wallet.FromEncryptedHex(encPK, passphrase)
	if err != nil {
		return err
	}
	sender := money.MustParseAddress(w.Address)

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chain, err := chainclient.New(ctx, cfg.RPC, 30)
	if err != nil {
		return err
	}
	sim, err := simulator.New(ctx, cfg.RPC, "arb_simulateRoute")
	if err != nil {
		return err
	}

	engine := pricing.New(chain, sim, money.ZeroAddress, 3)

	exch := exchange.New(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_SECRET_KEY"))
	inv := inventory.NewTracker()
	gen := signal.New(exch, engine, inv, cfg.ToSignalConfig(sender))
	scorer := scoring.New(scoring.DefaultWeights(), scoring.DefaultThresholds(), nil, nil)

	riskManager := &risk.RiskManager{Limits: cfg.ToRiskLimits()}
	gates := []risk.Gate{
		&risk.PreTradeValidator{},
		riskManager,
		&risk.SafetyCheck{},
	}

	execMachine := executor.New(exch, engine, inv, cfg.ToExecutorConfig(sender))

	var recorder db.Recorder
	if cfg.MySQLDSN != "" {
		mysqlRecorder, err := db.NewMySQLRecorder(cfg.MySQLDSN)
		if err != nil {
			log.Warn("mysql recorder unavailable, continuing without persistence", zap.Error(err))
		} else {
			recorder = mysqlRecorder
			defer mysqlRecorder.Close()
		}
	}

	var notifier alert.Notifier = alert.NoopNotifier{}
	if cfg.Telegram.Token != "" {
		tgNotifier, err := alert.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err == nil {
			notifier = tgNotifier
		}
	}

	orchCfg, err := cfg.ToOrchestratorConfig(func(symbol string) (money.Token, error) {
		return money.Token{Symbol: symbol, Decimals: 18}, nil
	})
	if err != nil {
		return err
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Warn("metrics registration skipped", zap.Error(err))
	}
	go serveMetrics()

	loop := orchestrator.New(orchCfg, gen, scorer, gates, execMachine, inv, recorder, notifier, log)
	return loop.Run(ctx)
}

func serveMetrics() {
	http.Handle("/metrics", promhttp.Handler())
	_ = http.ListenAndServe(":9090", nil)
}
