package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gzhole/kubeshield/internal/config"
	"github.com/gzhole/kubeshield/internal/executor"
	"github.com/gzhole/kubeshield/internal/gateway"
	"github.com/gzhole/kubeshield/internal/logger"
	"github.com/gzhole/kubeshield/internal/policy"
	"github.com/gzhole/kubeshield/internal/rbac"
)

// app holds the wiring shared by every command.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   *policy.Store
	runner  *executor.Runner
	gateway *gateway.Gateway
	audit   *logger.AuditLogger
}

func newApp(stderr io.Writer) (*app, error) {
	cfg, err := config.Load(securityConfigPath, auditLogPath, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	if err := os.MkdirAll(filepath.Dir(cfg.AuditLogPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}
	audit, err := logger.New(cfg.AuditLogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audit logger: %w", err)
	}

	store := policy.NewStore(cfg.SecurityConfigPath, log)
	engine := policy.NewEngine(store, cfg.Mode)
	runner := executor.NewRunner(
		executor.WithMaxOutput(cfg.MaxOutput),
		executor.WithLogger(log),
	)
	checker := rbac.NewChecker(cfg.KubeContext, cfg.Namespace)

	gw := gateway.New(engine, checker, runner,
		gateway.WithDefaultTimeout(cfg.Timeout),
		gateway.WithAuditLogger(audit),
		gateway.WithLogger(log),
	)

	log.Debug("configuration loaded",
		"mode", cfg.Mode,
		"security_config", cfg.SecurityConfigPath,
		"audit_log", cfg.AuditLogPath,
		"timeout", cfg.Timeout,
		"context", cfg.KubeContext,
		"namespace", cfg.Namespace,
	)

	return &app{
		cfg:     cfg,
		log:     log,
		store:   store,
		runner:  runner,
		gateway: gw,
		audit:   audit,
	}, nil
}

func (a *app) Close() error {
	return a.audit.Close()
}
