package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/biens/internal/auth"
	"github.com/evcraddock/biens/internal/bien"
	"github.com/evcraddock/biens/internal/config"
	"github.com/evcraddock/biens/internal/lead"
	"github.com/evcraddock/biens/internal/logging"
	"github.com/evcraddock/biens/internal/media"
	"github.com/evcraddock/biens/internal/review"
	"github.com/evcraddock/biens/internal/wanted"
	"github.com/evcraddock/biens/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP server for the listing API. Stops gracefully on SIGINT or SIGTERM.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on (overrides config)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Setup(cfg.DevMode)

	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(database)

	store, err := media.NewStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	var tokens *auth.TokenIssuer
	if cfg.JWTSecret != "" {
		if tokens, err = auth.NewTokenIssuer(cfg.JWTSecret); err != nil {
			return err
		}
	} else {
		slog.Warn("no jwt secret configured, only API keys are accepted")
	}

	notifiers := []lead.Notifier{
		lead.NewMailNotifier(cfg.SMTPConfig(), cfg.AgencyRecipients(), cfg.DevMode),
	}
	if cfg.AMQP.URL != "" {
		publisher, err := lead.NewAMQPNotifier(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := publisher.Close(); cerr != nil {
				slog.Warn("closing amqp publisher", "error", cerr)
			}
		}()
		notifiers = append(notifiers, publisher)
	}

	srv, err := web.NewServer(web.Deps{
		Biens:   bien.NewRepository(database),
		Wanted:  wanted.NewRepository(database),
		Reviews: review.NewRepository(database),
		Media:   store,
		Leads:   lead.NewRelay(notifiers...),
		Auth:    auth.NewAuthenticator(auth.NewAPIKeyStore(database), tokens),
	})
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, cfg.Port)
}
