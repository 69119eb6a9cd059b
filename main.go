package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"food-builder/api"
	"food-builder/bot"
	"food-builder/config"
	"food-builder/db"
	"food-builder/logger"
	"food-builder/notify"
	"food-builder/services"
	"food-builder/session"
)

var (
	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "food-builder",
	Short:         "Telegram client for the custom food ordering API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		log, err = logger.New(cfg.Log.Level, cfg.Log.Development)
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot (default)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the client_state migrations and exit",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("TOKEN not set")
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	var pub notify.Publisher = notify.Nop{}
	if cfg.AMQP.URL != "" {
		rmq, err := notify.DialRabbitMQ(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			// Orders still go through without events.
			log.Warn("order events disabled", zap.Error(err))
		} else {
			defer rmq.Close()
			pub = rmq
		}
	}

	client := api.New(cfg.API.BaseURL, api.WithTimeout(cfg.API.Timeout), api.WithLogger(log))

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("bot: %w", err)
	}
	b := bot.New(botAPI, bot.Options{
		Backend:     client,
		Store:       store,
		Publisher:   pub,
		Log:         log,
		DefaultLang: cfg.DefaultLang,
		IdleTimeout: cfg.Telegram.IdleTimeout,
	})
	if err := b.SetCommands(); err != nil {
		log.Warn("set bot commands", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := botAPI.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		botAPI.StopReceivingUpdates()
	}()

	log.Info("bot started",
		zap.String("bot", botAPI.Self.UserName),
		zap.String("api", client.BaseURL()),
		zap.String("store", cfg.Store.Driver))
	b.Run(ctx, updates)
	log.Info("bot stopped")
	return nil
}

// openStore returns the durable client state store for the configured driver.
func openStore(ctx context.Context) (session.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		if err := db.Init(cfg.DB); err != nil {
			return nil, nil, fmt.Errorf("db: %w", err)
		}
		if cfg.AutoMigrate {
			if err := applyMigrations(ctx, false); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return services.NewPostgresStore(db.Pool), db.Close, nil
	case config.StoreDriverSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return services.NewSQLiteStore(conn), func() { conn.Close() }, nil
	default:
		log.Warn("using in-memory client state; sessions are lost on restart")
		return session.NewMemoryStore(), func() {}, nil
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		if err := db.Init(cfg.DB); err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer db.Close()
		if err := applyMigrations(ctx, true); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	case config.StoreDriverSQLite:
		// The sqlite schema is created on open.
		conn, err := db.OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return err
		}
		conn.Close()
		fmt.Println("SQLite schema ready at", cfg.Store.SQLitePath)
	default:
		fmt.Println("Nothing to migrate for store driver", cfg.Store.Driver)
	}
	return nil
}
