package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dasmlab/babelgate/pkg/config"
	"github.com/dasmlab/babelgate/pkg/detect"
	"github.com/dasmlab/babelgate/pkg/generate"
	"github.com/dasmlab/babelgate/pkg/pipeline"
	"github.com/dasmlab/babelgate/pkg/server"
	"github.com/dasmlab/babelgate/pkg/service"
	"github.com/dasmlab/babelgate/pkg/translate"
)

var (
	cfgFile string
	envFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "babelgate",
	Short: "Multilingual chatbot gateway",
	Long: `babelgate answers chat messages in the user's language: it detects the
language, translates the message to English, asks the generation model for a
reply and translates the reply back.

Example:
  babelgate
  babelgate --translation-engine indictrans --translation-url http://127.0.0.1:7860`,
	Args:         cobra.NoArgs,
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.babelgate.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded into the environment if present")

	config.SetDefaults(v)
	cobra.CheckErr(config.BindFlags(v, rootCmd.Flags()))
}

func initConfig() {
	cobra.CheckErr(config.LoadDotEnv(envFile))

	used, err := config.Init(v, cfgFile)
	cobra.CheckErr(err)
	if used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logger := config.NewLogger(cfg.Log.Level, cfg.Log.Format)
	logger.WithFields(logrus.Fields{
		"port":               cfg.Server.Port,
		"grpc_port":          cfg.Server.GRPCPort,
		"detector":           cfg.Detector,
		"translation_engine": cfg.Translation.Engine,
		"translation_url":    cfg.Translation.BaseURL,
		"generation_engine":  cfg.Generation.Engine,
		"log_level":          logger.GetLevel().String(),
	}).Info("Starting babelgate")

	// Preloading happens here, before either listener reports healthy.
	detector, err := detect.New(cfg.Detector, cfg.DetectorOptions, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create language detector")
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg.Translation.Logger = logger
	translator, err := translate.NewProvider(startCtx, cfg.Translation)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create translator")
	}

	logger.Info("Checking translator health...")
	if err := translator.CheckHealth(startCtx); err != nil {
		logger.WithError(err).Warn("Translator health check failed, but continuing anyway")
		logger.Warn("Server will start, but messages will be answered untranslated until the translator is ready")
	} else {
		logger.Info("Translator health check passed")
	}

	cfg.Generation.Logger = logger
	generator, err := generate.NewGenerator(context.Background(), cfg.Generation)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create generator")
	}

	orchestrator := pipeline.New(detector, translator, generator, logger)
	csvProcessor := service.NewCSVProcessor(orchestrator, cfg.CSV.OutputDir, logger)

	httpServer := server.NewHTTPServer(orchestrator, csvProcessor, logger, cfg.Server.Port)

	errChan := make(chan error, 2)
	go func() {
		if err := httpServer.Start(); err != nil {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	var healthServer *server.HealthServer
	if cfg.Server.GRPCPort > 0 {
		healthServer = server.NewHealthServer(logger)
		go func() {
			if err := healthServer.ListenAndServe(cfg.Server.GRPCPort); err != nil {
				errChan <- fmt.Errorf("grpc health server: %w", err)
			}
		}()
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.WithError(err).Error("Server error")
		return err
	case sig := <-sigChan:
		logger.WithFields(logrus.Fields{
			"signal": sig.String(),
		}).Info("Received signal, shutting down gracefully...")
	}

	// Graceful shutdown with timeout
	ctx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if healthServer != nil {
		healthServer.SetNotServing()
	}

	var shutdownErr error
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("HTTP server did not stop cleanly")
		shutdownErr = err
	}

	if healthServer != nil {
		stopped := make(chan struct{})
		go func() {
			healthServer.Stop()
			close(stopped)
		}()

		select {
		case <-stopped:
		case <-ctx.Done():
			logger.Warn("Graceful shutdown timeout, forcing stop...")
			healthServer.ForceStop()
			shutdownErr = errors.Join(shutdownErr, ctx.Err())
		}
	}

	if shutdownErr == nil {
		logger.Info("Server stopped gracefully")
	}
	return shutdownErr
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
