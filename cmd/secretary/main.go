package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"github.com/example/calendar-secretary/internal/application"
	"github.com/example/calendar-secretary/internal/calendar/google"
	"github.com/example/calendar-secretary/internal/config"
	httptransport "github.com/example/calendar-secretary/internal/http"
	"github.com/example/calendar-secretary/internal/llm"
	"github.com/example/calendar-secretary/internal/messenger"
	"github.com/example/calendar-secretary/internal/persistence/sqlite"
	"github.com/example/calendar-secretary/internal/scheduler"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "secretary",
		Usage: "Conversational scheduling assistant for a single calendar owner.",
		Commands: []*cli.Command{
			authCommand(),
			serveCommand(),
			setWebhookCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with the boss' Google account to obtain a calendar token.",
		Action: func(c *cli.Context) error {
			logger := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			oauthConfig := google.OAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret)
			authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.Exchange(c.Context, oauthConfig, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}
			if err := google.SaveToken(cfg.GoogleTokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", cfg.GoogleTokenFile)
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the webhook server.",
		Action: func(c *cli.Context) error {
			logger := newLogger()
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load()
			if err != nil {
				logger.Error("failed to load configuration", "error", err)
				return err
			}
			location, err := cfg.Location()
			if err != nil {
				return fmt.Errorf("failed to load timezone: %w", err)
			}

			store, err := sqlite.Open(cfg.SQLiteDSN)
			if err != nil {
				logger.Error("failed to open storage", "error", err)
				return err
			}
			defer func() {
				if cerr := store.Close(); cerr != nil {
					logger.Error("failed to close storage", "error", cerr)
				}
			}()

			provider, err := google.NewClient(ctx, logger, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleTokenFile, cfg.GoogleCalendarID)
			if err != nil {
				logger.Error("failed to create calendar client", "error", err)
				return err
			}

			llmClient := llm.NewClient(llm.Config{
				APIKey:  cfg.OpenAIAPIKey,
				BaseURL: cfg.OpenAIBaseURL,
				Model:   cfg.OpenAIModel,
			})
			assistant := llm.NewAssistant(llmClient, llm.DefaultPrompts(cfg.BossName), nil)

			bossIDs := make([]string, 0, 2)
			if cfg.BossWhatsAppID != "" {
				bossIDs = append(bossIDs, cfg.BossWhatsAppID)
			}
			if cfg.BossTelegramID != "" {
				bossIDs = append(bossIDs, httptransport.TelegramUserID(cfg.BossTelegramID))
			}
			boss := application.BossIdentity{
				Name:        cfg.BossName,
				Email:       cfg.BossEmail,
				ExternalIDs: bossIDs,
			}
			dispatcher := application.NewDispatcher(provider, scheduler.DefaultBlockedTimePolicy(location), boss, location, nil, logger)
			pipeline := application.NewPipeline(store, assistant, dispatcher, boss, cfg.ContextTTL, nil, logger)

			routerConfig := httptransport.RouterConfig{
				Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
			}
			if cfg.WhatsAppEnabled() {
				sender := messenger.NewWhatsAppClient(cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID, "")
				routerConfig.WhatsApp = httptransport.NewWhatsAppHandler(pipeline, sender, store, cfg.WhatsAppVerifyToken, cfg.WhatsAppAppSecret, logger)
			}
			if cfg.TelegramEnabled() {
				sender := messenger.NewTelegramClient(cfg.TelegramBotToken, "")
				routerConfig.Telegram = httptransport.NewTelegramHandler(pipeline, sender, store, cfg.TelegramSecretToken, logger)
			}
			if routerConfig.WhatsApp == nil && routerConfig.Telegram == nil {
				return errors.New("no messaging transport is configured")
			}

			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
				Handler:           httptransport.NewRouter(routerConfig),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("failed to shutdown server", "error", err)
				}
			}()

			logger.Info("secretary listening", "addr", server.Addr,
				"whatsapp", routerConfig.WhatsApp != nil, "telegram", routerConfig.Telegram != nil)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server encountered error", "error", err)
				return err
			}
			return nil
		},
	}
}

func setWebhookCommand() *cli.Command {
	return &cli.Command{
		Name:  "set-webhook",
		Usage: "Register the Telegram webhook URL for the configured bot.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Required: true, Usage: "Public HTTPS URL of the /webhooks/telegram endpoint."},
		},
		Action: func(c *cli.Context) error {
			logger := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.TelegramEnabled() {
				return errors.New("TELEGRAM_BOT_TOKEN is not configured")
			}

			client := messenger.NewTelegramClient(cfg.TelegramBotToken, "")
			if err := client.SetWebhook(c.Context, c.String("url"), cfg.TelegramSecretToken); err != nil {
				return err
			}
			logger.Info("telegram webhook registered", "url", c.String("url"))
			return nil
		},
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
