package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/jjenkins/camara/internal/handlers"
	"github.com/jjenkins/camara/internal/metrics"
	"github.com/jjenkins/camara/internal/service"
	"github.com/jjenkins/camara/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var port string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Câmara analytics API server",
	Long:  `Start the HTTP server exposing rankings and analyses over the imported open data.`,
	Run: func(cmd *cobra.Command, args []string) {
		if port == "" {
			port = cfg.Port
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := metrics.New(reg)

		db, err := store.Open(ctx, cfg.DatabaseURL, store.WithObserver(m))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		app := fiber.New(fiber.Config{
			AppName:      "Câmara Analytics",
			ErrorHandler: handlers.ErrorHandler(log),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		})

		app.Use(recover.New())
		app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
		app.Use(cors.New(cors.Config{AllowMethods: "GET,HEAD,OPTIONS"}))
		app.Use(handlers.RequestLogger(log))
		app.Use(m.Middleware())

		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
		handlers.Register(app, handlers.Deps{
			Legislators: store.NewLegislatorStore(db),
			Parties:     store.NewPartyStore(db),
			Expenses:    store.NewExpenseStore(db),
			Bills:       store.NewBillStore(db),
			Sessions:    store.NewSessionStore(db),
			Votes:       store.NewVoteStore(db),
			Rankings:    store.NewRankingStore(db),
			CrossTab:    store.NewCrossTabStore(db),
			Summary:     service.NewSummaryService(db),
			DB:          db,
		})

		go func() {
			<-ctx.Done()
			log.Info().Msg("Shutting down server")
			if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
				log.Error().Err(err).Msg("Server shutdown failed")
			}
		}()

		log.Info().Str("port", port).Msg("Starting server")
		if err := app.Listen(":" + port); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to run the server on (default $PORT or 8080)")
}
