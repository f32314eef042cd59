package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// A missing .env file is normal in containers.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	rootCmd := &cobra.Command{
		Use:   "shoresquad",
		Short: "Beach cleanup crew page with a Singapore weather outlook",
		Long: `ShoreSquad serves a single page for finding beach cleanups, joining
crews and checking the NEA 4-day weather outlook.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newServeCmd(), newForecastCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
