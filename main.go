package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/muhammadolammi/careerzync/internal/database"
	"github.com/muhammadolammi/careerzync/internal/logger"
	"github.com/muhammadolammi/careerzync/internal/storage"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"
)

var (
	debug      bool
	numWorkers int
	noWorker   bool
)

var rootCmd = &cobra.Command{
	Use:           "careerzync",
	Short:         "Resume ATS analysis and chat",
	Long:          "CareerZync scores a resume against a job, explains the gaps and answers follow-up questions about it.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the analysis workers",
	RunE:  runServe,
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run only the analysis workers",
	RunE:  runWorker,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	serveCmd.Flags().BoolVar(&noWorker, "no-worker", false, "do not consume the sessions queue in this process")
	for _, cmd := range []*cobra.Command{serveCmd, workerCmd} {
		cmd.Flags().IntVar(&numWorkers, "workers", 3, "number of queue consumers")
	}
	rootCmd.AddCommand(serveCmd, workerCmd, analyzeCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setupLogger() *slog.Logger {
	l := logger.New(os.Stderr, debug, isatty.IsTerminal(os.Stderr.Fd()))
	slog.SetDefault(l)
	return l
}

// newApp connects the database, object storage, broker and Gemini.
// The returned close func releases the connections.
func newApp(ctx context.Context, cfg Config, log *slog.Logger) (*App, func(), error) {
	if err := cfg.requireServices(); err != nil {
		return nil, nil, err
	}

	db, err := sql.Open("postgres", cfg.DBURL)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("error connecting to db: %w", err)
	}

	r2, err := storage.NewR2(ctx, cfg.R2)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}

	m, err := newModels(ctx, cfg, log)
	if err != nil {
		conn.Close()
		db.Close()
		return nil, nil, err
	}

	app := &App{
		DB:          database.New(db),
		Objects:     r2,
		Broker:      &rabbitBroker{conn: conn},
		Pipeline:    m.Pipeline,
		Embedder:    m.Gemini,
		ChatModel:   m.Chat,
		Logger:      log,
		RabbitMQURL: cfg.RabbitMQURL,
		Indexes:     newIndexCache(r2, cfg.IndexDir, log),
	}
	closeFn := func() {
		conn.Close()
		db.Close()
	}
	return app, closeFn, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	log := setupLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, closeFn, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if !noWorker {
		g.Go(func() error {
			log.Info("starting consumer worker pool", "workers", numWorkers)
			return app.StartConsumerWorkerPool(ctx, numWorkers)
		})
	}
	return g.Wait()
}

func runWorker(cmd *cobra.Command, args []string) error {
	log := setupLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, closeFn, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	log.Info("starting consumer worker pool", "workers", numWorkers)
	return app.StartConsumerWorkerPool(ctx, numWorkers)
}
