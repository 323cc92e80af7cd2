package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/shohag/signalrelay/internal/api"
	"github.com/shohag/signalrelay/internal/config"
	"github.com/shohag/signalrelay/internal/delivery"
	"github.com/shohag/signalrelay/internal/notify"
	"github.com/shohag/signalrelay/internal/pipeline"
	"github.com/shohag/signalrelay/internal/query"
	"github.com/shohag/signalrelay/internal/storage"
	"github.com/shohag/signalrelay/internal/translate"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "signalrelay",
		Short: "SignalRelay — TradingView webhook relay to Telegram and local speakers",
	}

	var configPath string
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(notifyTestCmd(&configPath))
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log := setupLogger(cfg.Logging)

			store := storage.NewMemory(cfg.Store.Capacity)
			defer store.Close()

			sinks, chat, closeSinks, err := setupSinks(cfg, log)
			if err != nil {
				return fmt.Errorf("failed to setup sinks: %w", err)
			}
			defer closeSinks()

			pool := delivery.NewPool(cfg.Delivery, log)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			pipe := pipeline.New(
				store,
				setupTranslator(cfg.Translate, log),
				notify.NewFanout(log, sinks...),
				chat,
				pool,
				pipeline.NewFormatter(cfg.Signals),
				pipeline.Options{
					Translate:      cfg.Translate.Enabled,
					SourceLanguage: cfg.Translate.Source,
					TargetLanguage: cfg.Translate.Target,
				},
				log,
			)

			server := api.NewServer(cfg.Server, pipe, query.NewService(store, cfg.Query), log)
			go func() {
				if err := server.Start(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("server error")
				}
			}()

			log.Info().
				Str("version", version).
				Int("port", cfg.Server.Port).
				Int("workers", cfg.Delivery.Workers).
				Int("store_capacity", cfg.Store.Capacity).
				Int("sinks", len(sinks)).
				Bool("translate", cfg.Translate.Enabled).
				Msg("SignalRelay is running")

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			log.Info().Msg("shutting down...")

			if err := server.Shutdown(10 * time.Second); err != nil {
				log.Error().Err(err).Msg("server shutdown error")
			}

			pool.Stop()

			log.Info().Msg("SignalRelay stopped")
			return nil
		},
	}
}

func notifyTestCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "notify-test",
		Short: "Send a test message through the chat sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log := setupLogger(cfg.Logging)

			if !cfg.Chat.Enabled() {
				return pipeline.ErrChatDisabled
			}

			if err := notify.NewChatSink(cfg.Chat).SendTest(cmd.Context()); err != nil {
				log.Warn().Err(err).Msg("test notification failed")
				return fmt.Errorf("test notification failed: %w", err)
			}
			log.Info().Msg("test notification sent")

			fmt.Println("Test message sent.")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("SignalRelay v%s\n", version)
		},
	}
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// setupSinks builds every configured sink. Missing configuration disables a
// sink with a warning; it is never fatal.
func setupSinks(cfg *config.Config, log zerolog.Logger) ([]notify.Sink, *notify.ChatSink, func(), error) {
	var (
		sinks   []notify.Sink
		chat    *notify.ChatSink
		closers []func() error
	)

	if cfg.Chat.Enabled() {
		chat = notify.NewChatSink(cfg.Chat)
		sinks = append(sinks, chat)
		log.Info().Str("chat_id", cfg.Chat.ChatID).Msg("chat sink enabled")
	} else {
		log.Warn().Msg("chat token or chat id not set, chat sink disabled")
	}

	if cfg.Relay.Enabled() {
		sinks = append(sinks, notify.NewLocalRelaySink(cfg.Relay))
		log.Info().Str("url", cfg.Relay.URL).Dur("timeout", cfg.Relay.Timeout).Msg("local relay sink enabled")
	} else {
		log.Warn().Msg("local relay url not set, local relay sink disabled")
	}

	if cfg.Stream.Enabled() {
		stream, err := notify.NewStreamSink(cfg.Stream)
		if err != nil {
			return nil, nil, nil, err
		}
		sinks = append(sinks, stream)
		closers = append(closers, stream.Close)
		log.Info().Str("key", cfg.Stream.Key).Msg("stream sink enabled")
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Error().Err(err).Msg("failed to close sink")
			}
		}
	}
	return sinks, chat, closeAll, nil
}

func setupTranslator(cfg config.TranslateConfig, log zerolog.Logger) translate.Translator {
	if !cfg.Enabled {
		return translate.Nop{}
	}
	if _, err := translate.NormalizeLang(cfg.Target); err != nil {
		log.Warn().Err(err).Str("target", cfg.Target).Msg("invalid translation target, translations will fall back to the original text")
	}
	log.Info().Str("source", cfg.Source).Str("target", cfg.Target).Msg("translation enabled")
	return translate.NewHTTP(cfg)
}
