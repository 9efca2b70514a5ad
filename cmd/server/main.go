package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ayush/food-nest/backend/internal/auth"
	"github.com/ayush/food-nest/backend/internal/config"
	"github.com/ayush/food-nest/backend/internal/logger"
	"github.com/ayush/food-nest/backend/internal/server"
	"github.com/ayush/food-nest/backend/internal/store"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	// A missing .env file is fine; the environment may already be populated.
	_ = godotenv.Load()

	v := config.NewViper()
	cmd := &cobra.Command{
		Use:          "food-nest",
		Short:        "Run the food nest API server",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("port", v.GetString("port"), "the port to serve HTTP on")
	flags.String("mongo-uri", "", "the MongoDB connection string; built from DB_USER/DB_PASS/DB_HOST when empty")
	flags.String("mongo-db", v.GetString("mongo-db"), "the MongoDB database holding the foods and requestedFood collections")
	flags.String("firebase-project-id", "", "the Firebase project whose ID tokens are accepted; read from FB_SERVICE_KEY when empty")
	flags.String("log-format", v.GetString("log-format"), "the log format to output: 'text' or 'json'")
	flags.String("log-level", v.GetString("log-level"), "the log level: 'none', 'debug', 'info', 'warn' or 'error'")
	flags.String("cors-allowed-origins", v.GetString("cors-allowed-origins"), "a comma-separated list of allowed CORS origins")

	for _, name := range []string{"port", "mongo-uri", "mongo-db", "firebase-project-id", "log-format", "log-level", "cors-allowed-origins"} {
		mustBindPFlag(v, name, cmd)
	}
	return cmd
}

func mustBindPFlag(v *viper.Viper, key string, cmd *cobra.Command) {
	if err := v.BindPFlag(key, cmd.Flags().Lookup(key)); err != nil {
		panic("failed to bind pflag: " + err.Error())
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log, err := logger.NewLogger(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := store.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Error("mongo connect", zap.Error(err))
		return err
	}
	defer mongoClient.Disconnect(context.Background())
	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
	if err := mongoStore.Ping(ctx); err != nil {
		log.Warn("mongo ping failed, continuing", zap.Error(err))
	}

	// ── Firebase ID tokens ───────────────────────────────────
	verifier, err := auth.NewFirebaseVerifier(cfg.ProjectID, auth.GoogleJWKSURL)
	if err != nil {
		log.Error("firebase keys", zap.Error(err))
		return err
	}
	defer verifier.Close()

	// ── Router ───────────────────────────────────────────────
	router := server.NewRouter(server.Deps{
		Listings:       mongoStore,
		Requests:       mongoStore,
		Verifier:       verifier,
		Logger:         log,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(fmt.Sprintf("food nest server is running on port %s", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			log.Error("server error", zap.Error(err))
			return err
		}
	}

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
