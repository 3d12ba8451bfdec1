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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/hours-engine/api"
)

func serveCmd() *cobra.Command {
	var port int
	var noScheduler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if port == 0 {
				port = a.cfg.Server.Port
			}

			handler := api.NewHandler(a.service, a.store, a.logger)
			if !noScheduler {
				handler.Closes = api.NewBillingCloseScheduler(a.store, a.service, a.logger)
				handler.Closes.Start()
				defer handler.Closes.Stop()
			}
			router := api.NewRouter(handler, api.RouterOptions{AllowedOrigins: a.cfg.Server.CORS.AllowOrigins})

			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", port),
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("Server starting", zap.Int("port", port), zap.String("api", fmt.Sprintf("http://localhost:%d/api", port)))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			// Wait for interrupt signal
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
			case sig := <-quit:
				a.logger.Info("Shutting down server", zap.Stringer("signal", sig))
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}

			a.logger.Info("Server stopped")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (overrides server.port)")
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "Disable the billing close scheduler")
	return cmd
}
