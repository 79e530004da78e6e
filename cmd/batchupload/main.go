package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dasmlab/babelgate/pkg/batch"
	"github.com/dasmlab/babelgate/pkg/config"
)

var (
	inputDir  string
	outputDir string
	serverURL string
	timeout   time.Duration
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "batchupload",
	Short: "Upload CSV files to /process_csv and collect the results",
	Long: `batchupload sends every CSV in the input directory to a running gateway's
/process_csv endpoint, locates the processed file the server wrote and moves
it to the output directory as processed_<name>_<timestamp>.csv.

Example:
  batchupload
  batchupload --input-dir Dataset/output --output-dir Dataset/processed --server-url http://127.0.0.1:5000/process_csv`,
	Args:         cobra.NoArgs,
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&inputDir, "input-dir", batch.DefaultInputDir, "Directory containing input CSVs")
	rootCmd.Flags().StringVar(&outputDir, "output-dir", batch.DefaultOutputDir, "Directory to save processed/renamed CSVs")
	rootCmd.Flags().StringVar(&serverURL, "server-url", batch.DefaultServerURL, "Full URL of the /process_csv endpoint")
	rootCmd.Flags().DurationVar(&timeout, "timeout", batch.DefaultSearchTimeout, "How long to wait for the server to write a processed file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func run(cmd *cobra.Command, args []string) error {
	logger := config.NewLogger(logLevel, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithFields(logrus.Fields{
		"input_dir":  inputDir,
		"output_dir": outputDir,
		"server_url": serverURL,
		"timeout":    timeout.String(),
	}).Info("Starting batch upload")

	uploader := batch.New(batch.Config{
		InputDir:      inputDir,
		OutputDir:     outputDir,
		ServerURL:     serverURL,
		SearchTimeout: timeout,
		Pause:         200 * time.Millisecond,
		Logger:        logger,
	})

	summary, err := uploader.Run(ctx)
	if summary != nil {
		summary.Print(cmd.OutOrStdout())
	}
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
