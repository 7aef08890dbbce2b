package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/donjoker0605/focep-collect-backend-sub002/api"
	"github.com/donjoker0605/focep-collect-backend-sub002/config"
	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
	"github.com/donjoker0605/focep-collect-backend-sub002/logger"
	"github.com/donjoker0605/focep-collect-backend-sub002/service"
	"github.com/donjoker0605/focep-collect-backend-sub002/store/sqlite"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "focep-collect",
		Short:         "Commission and remuneration engine for daily savings collection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "config.yaml", "config file path")

	root.AddCommand(newServeCommand(), newMigrateCommand(), newProcessCommand())
	return root
}

// bootstrap loads configuration and builds the logger for a subcommand.
func bootstrap(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cfg), nil
}

func newServeCommand() *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			rules, err := cfg.CommissionRules()
			if err != nil {
				return err
			}

			store, err := sqlite.New(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer store.Close()

			handler := api.NewHandler(store, rules, log)

			scheduler := api.NewCommissionScheduler(store, handler.Commissions, log)
			scheduler.Enabled = cfg.Scheduler.Enabled
			scheduler.CheckInterval = cfg.Scheduler.Interval
			scheduler.Start()
			defer scheduler.Stop()

			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:      api.NewRouter(handler, cfg.Server.CORSOrigins),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("server starting",
					zap.Int("port", cfg.Server.Port),
					zap.String("database", cfg.Database.Path))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
			case <-quit:
			}

			log.Info("shutting down server")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			log.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "maximum time to wait for graceful shutdown")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			// New applies the schema.
			store, err := sqlite.New(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			defer store.Close()

			log.Info("migrations applied", zap.String("database", cfg.Database.Path))
			return nil
		},
	}
}

func newProcessCommand() *cobra.Command {
	var (
		collecteurID string
		from, to     string
		productCode  string
		force        bool
		bestEffort   bool
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process commissions for a collecteur over a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			rules, err := cfg.CommissionRules()
			if err != nil {
				return err
			}
			start, err := generic.ParseDate(from)
			if err != nil {
				return err
			}
			end, err := generic.ParseDate(to)
			if err != nil {
				return err
			}
			period, err := generic.NewPeriod(start, end)
			if err != nil {
				return err
			}

			store, err := sqlite.New(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer store.Close()

			h := api.NewHandler(store, rules, log)
			res, err := h.Commissions.Process(cmd.Context(), service.CommissionRequest{
				CollecteurID: collecteurID,
				Period:       period,
				ProductCode:  productCode,
				Force:        force,
				BestEffort:   bestEffort,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(api.ToProcessingResultDTO(res))
		},
	}

	cmd.Flags().StringVar(&collecteurID, "collecteur", "", "collecteur ID")
	cmd.Flags().StringVar(&from, "from", "", "period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "period end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&productCode, "product", "", "product code")
	cmd.Flags().BoolVar(&force, "force", false, "supersede an earlier non-remunerated batch")
	cmd.Flags().BoolVar(&bestEffort, "best-effort", false, "skip clients without an applicable parameter")
	_ = cmd.MarkFlagRequired("collecteur")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
