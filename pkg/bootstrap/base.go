package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"leadhook/internal/config"
	"leadhook/internal/logger"
	"leadhook/internal/sink"
)

type Base struct {
	Config *config.Config
	Logger logger.Logger
	Sink   sink.Sink
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{
		Config: cfg,
		Logger: log,
	}
}

func (b *Base) InitSink(ctx context.Context, db *sql.DB) error {
	s, err := sink.New(ctx, b.Config.Sink, db, b.Logger)
	if err != nil {
		return fmt.Errorf("failed to create sink: %w", err)
	}
	b.Sink = s
	return nil
}

func (b *Base) ShutdownSink() []error {
	if b.Sink == nil {
		return nil
	}
	if err := b.Sink.Close(); err != nil {
		return []error{fmt.Errorf("sink close error: %w", err)}
	}
	return nil
}

func (b *Base) Shutdown(ctx context.Context, additionalShutdown func(ctx context.Context) []error) error {
	b.Logger.Info("Shutting down application...")

	var errs []error

	errs = append(errs, b.ShutdownSink()...)

	if additionalShutdown != nil {
		errs = append(errs, additionalShutdown(ctx)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	b.Logger.Info("Application exited successfully")
	return nil
}
