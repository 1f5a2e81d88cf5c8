package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fundchain/config"
	"fundchain/core/state"
	"fundchain/native/campaign"
	"fundchain/native/contest"
	"fundchain/native/settlement"
	"fundchain/observability/logging"
	"fundchain/observability/otel"
	"fundchain/rpc"
	"fundchain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("FUNDCHAIN_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger := logging.Setup("fundchaind", env, cfg.LogFile)

	if endpoint := strings.TrimSpace(cfg.OtelEndpoint); endpoint != "" {
		shutdown, err := otel.Init(context.Background(), otel.Config{
			ServiceName: "fundchaind",
			Environment: env,
			Endpoint:    endpoint,
			Insecure:    cfg.OtelInsecure,
		})
		if err != nil {
			logger.Error("Failed to initialise telemetry", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Error("Telemetry shutdown failed", slog.Any("error", err))
			}
		}()
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	manager := state.NewManager(db)
	if err := applyGenesis(manager, cfg); err != nil {
		panic(fmt.Sprintf("Failed to apply genesis allocations: %v", err))
	}

	profile, err := contest.ProfileByName(cfg.ContestProfile)
	if err != nil {
		panic(fmt.Sprintf("Failed to resolve contest profile: %v", err))
	}

	campaignEngine := campaign.NewEngine()
	campaignEngine.SetState(manager)
	campaignEngine.SetTransferrer(manager)
	campaignEngine.SetAuthenticator(settlement.ContextAuthenticator{})
	campaignEngine.SetVault(state.ModuleVaultAddress("campaign"))

	contestEngine := contest.NewEngine()
	contestEngine.SetState(manager)
	contestEngine.SetTransferrer(manager)
	contestEngine.SetAuthenticator(settlement.ContextAuthenticator{})
	contestEngine.SetVault(state.ModuleVaultAddress("contest"))
	contestEngine.SetProfile(profile)

	secret := strings.TrimSpace(os.Getenv(cfg.AuthSecretEnv))
	if secret == "" {
		logger.Error("Auth secret environment variable is empty", slog.String("env", cfg.AuthSecretEnv))
		os.Exit(1)
	}
	verifier := rpc.NewCallerVerifier(rpc.AuthConfig{
		HMACSecret: secret,
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
	})

	server := rpc.NewServer(campaignEngine, contestEngine, verifier, logger)
	httpServer := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	logger.Info("fundchain daemon running",
		slog.String("network", cfg.NetworkName),
		slog.String("address", cfg.RPCAddress),
		slog.String("profile", profile.Name),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("RPC server terminated", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("Shutting down", slog.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("RPC server shutdown failed", slog.Any("error", err))
		}
	}
}

// applyGenesis mints the configured allocations exactly once per database.
func applyGenesis(manager *state.Manager, cfg *config.Config) error {
	if len(cfg.GenesisAccounts) == 0 {
		return nil
	}
	applied, err := manager.GenesisApplied()
	if err != nil {
		return err
	}
	if applied {
		return nil
	}
	for _, account := range cfg.GenesisAccounts {
		addr, err := parseGenesisAddress(account.Address)
		if err != nil {
			return err
		}
		amount, ok := new(big.Int).SetString(strings.TrimSpace(account.Amount), 10)
		if !ok || amount.Sign() < 0 {
			return fmt.Errorf("invalid genesis amount %q for %s", account.Amount, account.Address)
		}
		if err := manager.Mint(addr, cfg.SettlementToken, amount); err != nil {
			return err
		}
	}
	return manager.MarkGenesisApplied()
}

func parseGenesisAddress(value string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil || len(decoded) != len(addr) {
		return addr, fmt.Errorf("invalid genesis address %q", value)
	}
	copy(addr[:], decoded)
	return addr, nil
}
