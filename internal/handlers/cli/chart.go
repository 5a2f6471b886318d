package cli

import (
	"context"
	"os"

	"github.com/Jestopher-BTC/LNhelperBot/internal/liquidity"
	"github.com/Jestopher-BTC/LNhelperBot/internal/pkg/logger"

	"github.com/urfave/cli/v3"
)

// renderChartCommand returns a CLI command that renders the liquidity chart
// to a local file, bypassing Telegram. Useful for checking the chart output
// without a bot token.
//
// Usage example:
//
//	lnhelperbot chart --output chart.png
func renderChartCommand(charts liquidity.Service) *cli.Command {
	return &cli.Command{
		Name:        "chart",
		Description: "Render the Magma liquidity purchase power chart to a PNG file.",
		Usage:       "Generates the chart (or serves the cached copy) and writes it to the output path.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "output",
				Usage: "Path the PNG is written to",
				Value: "liquidity_chart.png",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			png, err := charts.Chart(ctx, func(stage string) {
				logger.Info(ctx, stage)
			})
			if err != nil {
				return err
			}

			output := c.String("output")
			if err := os.WriteFile(output, png, 0o644); err != nil {
				return err
			}

			logger.Info(ctx, "chart written", "path", output, "bytes", len(png))
			return nil
		},
	}
}
