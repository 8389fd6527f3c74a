package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Run a single dispatch pass over due tweets and print the summary",
	Run:   dispatchOnce,
}

func init() {
	rootCmd.AddCommand(dispatchCmd)
}

func dispatchOnce(_ *cobra.Command, _ []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := buildContainer(ctx)
	if err != nil {
		logrus.Fatalln("Failed to initialize services:", err)
	}
	defer container.close(context.Background())

	container.pool.Start(ctx)
	defer container.pool.Stop()

	summary, runErr := container.dispatchUsecase.Run(ctx)

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		logrus.Fatalln("Failed to encode run summary:", err)
	}
	os.Stdout.Write(append(out, '\n'))

	if runErr != nil {
		logrus.WithError(runErr).Error("Dispatch run failed")
		os.Exit(1)
	}
}
