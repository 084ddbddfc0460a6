package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"invoicer/internal/batch"
	"invoicer/internal/config"
	"invoicer/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch [input-dir]",
	Short: "Convert order records as they arrive in a directory",
	Long: `Process the records already in a directory, then keep watching it and
convert every new *.json record once the directory has been quiet for the
debounce interval.

Prometheus metrics are served on --metrics-addr at /metrics. Edits to
invoicer.yml are picked up while running; the log level takes effect
immediately. Stop with Ctrl+C.`,
	Example: `  invoicer watch orders
  invoicer watch orders --pdf --metrics-addr :9100`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addPipelineFlags(watchCmd)
	watchCmd.Flags().String("metrics-addr", "", "Address for the metrics endpoint (empty string from config, \"off\" disables)")
	watchCmd.Flags().Duration("debounce", 0, "Quiet period before new files are processed")
}

func runWatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("watch")
	cfg := appConfig()

	ctx, cancel := createContext(cmd.Context(), 0, log)
	defer cancel()

	runner, inputDir, err := newRunner(ctx, cmd, args, false, log)
	if err != nil {
		return err
	}

	metrics := batch.NewMetrics()
	runner.WithMetrics(metrics)
	runner.Progress = printProgress(cmd)

	debounce, _ := cmd.Flags().GetDuration("debounce")
	if !cmd.Flags().Changed("debounce") {
		debounce = cfg.WatchDebounce
	}

	if addr := stringFlag(cmd, "metrics-addr", cfg.MetricsAddr); addr != "" && addr != "off" {
		srv := startMetricsServer(addr, metrics, log)
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if loader != nil {
		loader.Watch(func(updated *config.Config) {
			level, err := zerolog.ParseLevel(updated.LogLevel)
			if err == nil {
				zerolog.SetGlobalLevel(level)
			}
		})
	}

	w := batch.NewWatcher(runner, inputDir, debounce)
	w.OnRun = func(s *batch.Summary) {
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d geslaagd, %d waarschuwingen, %d mislukt\n",
			s.RunID, s.Success, s.Warning, s.Error)
	}

	return w.Run(ctx)
}

func startMetricsServer(addr string, metrics *batch.Metrics, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	return srv
}
