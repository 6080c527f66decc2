package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	_ "leadhook/cmd/lead-service/docs"
	"leadhook/internal/config"
	"leadhook/internal/constants"
	"leadhook/internal/logger"
	"leadhook/internal/partner"
	"leadhook/pkg/errors"
	"leadhook/pkg/logging"
	"leadhook/pkg/models"
)

var (
	configFile string
)

// @title        Lead Service API
// @version      1.0
// @description  Receives partner chat webhooks and turns them into deduplicated lead events

// @host      localhost:8080
// @BasePath  /api/v1

// @schemes   http https

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          constants.ServiceName,
		Short:        "Lead extraction service for chat-platform webhooks",
		Long:         "Lead Service receives partner webhooks, extracts phone and protocol leads and hands them downstream",
		SilenceUsage: true,
		RunE:         serveCmd().RunE,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(extractCmd())
	return rootCmd
}

func resolveConfigFile() string {
	if configFile != "" {
		return configFile
	}
	return os.Getenv("CONFIG_FILE")
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook receiver",
		RunE: func(cmd *cobra.Command, args []string) error {
			earlyLog := logging.NewEarlyLog()

			file := resolveConfigFile()
			if file == "" {
				earlyLog.Error("Config file is required. Use --config flag or CONFIG_FILE environment variable")
				return fmt.Errorf("config file is required")
			}

			cfg, err := config.Load(file)
			if err != nil {
				earlyLog.Error("Failed to load config: %v", err)
				return err
			}

			log, err := logger.New(cfg.Logging.Level)
			if err != nil {
				earlyLog.Error("Failed to init logger: %v", err)
				return err
			}
			defer log.Sync()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log.InfowCtx(ctx, "Starting Lead Service")

			app := NewApp(cfg, log)
			if err := app.Initialize(ctx); err != nil {
				log.ErrorwCtx(ctx, "Failed to initialize application", "error", err)
				_ = app.Shutdown(context.Background())
				return err
			}

			log.InfowCtx(ctx, "Service running")
			if err := app.Run(ctx); err != nil && err != context.Canceled {
				log.ErrorwCtx(ctx, "Service stopped with error", "error", err)
				return err
			}
			log.InfowCtx(ctx, "Service shutdown complete")
			return nil
		},
	}
}

func extractCmd() *cobra.Command {
	var (
		partnerName string
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "extract [payload.json]",
		Short: "Run a partner adapter over a JSON payload and print the lead",
		Long:  "Reads a webhook payload from a file (or stdin when omitted or '-') and prints the extracted lead as JSON. Exits non-zero when no lead is found.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			earlyLog := logging.NewEarlyLogTo(cmd.OutOrStdout(), cmd.ErrOrStderr())

			partners := []config.PartnerConfig{{Name: constants.DefaultPartnerName, Type: constants.PartnerTypeChat}}
			if file := resolveConfigFile(); file != "" {
				cfg, err := config.Load(file)
				if err != nil {
					earlyLog.Error("Failed to load config: %v", err)
					return err
				}
				partners = cfg.Partners
				if !cmd.Flags().Changed("log-level") {
					logLevel = cfg.Logging.Level
				}
			}

			log, err := logger.New(logLevel)
			if err != nil {
				earlyLog.Error("Failed to init logger: %v", err)
				return err
			}
			defer log.Sync()

			registry, err := partner.Build(partners, log)
			if err != nil {
				return err
			}

			var path string
			if len(args) == 1 {
				path = args[0]
			}
			payload, err := readPayload(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			return runExtract(cmd.Context(), registry, partnerName, payload, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&partnerName, "partner", "p", constants.DefaultPartnerName, "Partner adapter to run")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	return cmd
}

func readPayload(stdin io.Reader, path string) (models.Payload, error) {
	var (
		raw []byte
		err error
	)
	if path == "" || path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	var payload models.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("payload is not a JSON object: %w", err)
	}
	if payload == nil {
		return nil, fmt.Errorf("payload is not a JSON object")
	}
	return payload, nil
}

func runExtract(ctx context.Context, registry *partner.Registry, name string, payload models.Payload, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := registry.Get(name)
	if errors.IsUnknownPartner(err) {
		return fmt.Errorf("unknown partner %q (available: %s)", name, strings.Join(registry.Names(), ", "))
	}
	if err != nil {
		return err
	}

	lead := p.ProcessMessage(ctx, payload)
	if lead == nil {
		return fmt.Errorf("no lead extracted")
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(lead)
}
