package command

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	commonmqtt "hrty-backend/common/mqtt"
	commonredis "hrty-backend/common/redis"
	"hrty-backend/internal/consumer"
	httpapi "hrty-backend/internal/http"
	"hrty-backend/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the device reading consumer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.close()

		if serveMigrate {
			if err := repository.Migrate(ctx, a.db, a.logger); err != nil {
				return err
			}
		}
		return serve(ctx, a)
	},
}

func serve(ctx context.Context, a *app) error {
	router := httpapi.NewRouter(a.logger)
	router.RegisterCheckinRoutes(httpapi.NewCheckinHandler(a.service, a.logger))
	router.RegisterHealthRoutes(httpapi.NewHealthHandler(map[string]httpapi.HealthCheck{
		"postgres": a.db.PingContext,
		"redis": func(ctx context.Context) error {
			return commonredis.Ping(ctx, a.redisClient)
		},
	}, a.logger))
	srv := httpapi.NewServer(a.cfg, router, a.logger)

	// connect before anything runs so a broker failure leaves nothing to stop
	var readings *consumer.ReadingConsumer
	if a.cfg.MQTT.Enabled {
		mqttClient, err := commonmqtt.NewClient(&a.cfg.MQTT, a.logger)
		if err != nil {
			return err
		}
		defer mqttClient.Disconnect()
		readings = consumer.NewReadingConsumer(a.cfg, mqttClient, a.service, a.logger)
	} else {
		a.logger.Info("MQTT consumer disabled")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})
	if readings != nil {
		g.Go(func() error {
			return readings.Start(gctx)
		})
	}

	err := g.Wait()
	a.logger.Info("Shutdown complete", zap.Error(err))
	return err
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply the schema before serving")
	rootCmd.AddCommand(serveCmd)
}
