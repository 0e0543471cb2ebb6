// cmd/concierge/serve.go
package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"travel-concierge/internal/common/camunda"
	"travel-concierge/internal/jobworker"
	"travel-concierge/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the itinerary API and, when enabled, the workflow job worker",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()

	opts := []server.Option{server.WithMetrics(a.cfg.Server.MetricsPath, promhttp.Handler())}

	if a.cfg.Camunda.Enabled {
		zeebe, stopWorker, err := startJobWorker(ctx, a)
		if err != nil {
			return err
		}
		defer zeebe.Close()
		defer stopWorker()
		opts = append(opts, server.WithReadiness(zeebe.HealthCheck))
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.Address,
		Handler:           server.New(a.concierge, a.log, opts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", map[string]interface{}{"address": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutdown signal received, draining requests", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// startJobWorker connects to the broker, retrying while it comes up, and opens the
// generate-itinerary job stream.
func startJobWorker(ctx context.Context, a *app) (*camunda.Client, func(), error) {
	clientCfg := camunda.ClientConfigFrom(a.cfg.Camunda)

	var zeebe *camunda.Client
	connectRetry := &camunda.RetryConfig{MaxRetries: 10, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second}
	err := camunda.ExecuteWithRetry(ctx, connectRetry, "connect", func(ctx context.Context) error {
		var err error
		zeebe, err = camunda.NewClient(ctx, clientCfg)
		if err != nil {
			a.log.Warn("zeebe not reachable yet", map[string]interface{}{
				"address": clientCfg.GatewayAddress,
				"error":   err.Error(),
			})
		}
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	a.log.Info("zeebe client connected", map[string]interface{}{"address": clientCfg.GatewayAddress})

	jcfg := jobworker.LoadConfig(a.cfg.Camunda)
	handler := jobworker.NewHandler(jcfg, a.concierge, a.log)
	w := camunda.NewWorker(zeebe.GetClient(), jobworker.TaskType, jcfg.MaxJobsActive, jcfg.Timeout, handler, a.log)
	return zeebe, w.Stop, nil
}
