package main

import (
	"fmt"
	"io"

	"github.com/couchcryptid/shoresquad/internal/config"
	"github.com/couchcryptid/shoresquad/internal/domain"
	"github.com/couchcryptid/shoresquad/internal/forecast"
	"github.com/couchcryptid/shoresquad/internal/observability"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newForecastCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Print the NEA 4-day outlook once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if noColor {
				color.NoColor = true
			}

			logger := observability.NewLogger(cfg)
			// Unregistered: the command never serves /metrics.
			metrics := observability.NewMetricsForTesting()

			loader := forecast.NewLoader(newForecastSource(cfg, logger), &terminalRenderer{out: cmd.OutOrStdout()}, logger, metrics)
			loader.LoadForecast(cmd.Context())
			return nil
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	return cmd
}

// terminalRenderer prints forecast cards, or the fallback notice, to a terminal.
type terminalRenderer struct {
	out io.Writer
}

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	dayColor     = color.New(color.FgHiWhite, color.Bold)
	detailColor  = color.New(color.FgHiBlack)
	warnColor    = color.New(color.FgYellow)
)

func (r *terminalRenderer) Render(bundle domain.ForecastBundle) {
	headingColor.Fprintln(r.out, "🌊 ShoreSquad weather outlook")
	detailColor.Fprintln(r.out, domain.UpdatedLabel(bundle.UpdatedAt))
	fmt.Fprintln(r.out)

	for _, card := range bundle.Cards() {
		dayColor.Fprintf(r.out, "%s %-6s %s  %s\n", card.DayName, card.DateLabel, card.Icon, card.Summary)
		detailColor.Fprintf(r.out, "    🌡️ %s   💧 %s   💨 %s\n", card.Temperature, card.Humidity, card.Wind)
	}
}

func (r *terminalRenderer) RenderFallback() {
	for _, line := range forecast.FallbackLines {
		warnColor.Fprintln(r.out, line)
	}
}

var _ forecast.Renderer = (*terminalRenderer)(nil)
