package cli

import (
	"context"
	"os"

	"github.com/Jestopher-BTC/LNhelperBot/internal/blocknotify"
	"github.com/Jestopher-BTC/LNhelperBot/internal/liquidity"
	"github.com/Jestopher-BTC/LNhelperBot/internal/txwatch"

	"github.com/urfave/cli/v3"
)

// Bot is the Telegram update consumer lifecycle driven by the start command.
type Bot interface {
	Start(ctx context.Context) error
	Close()
}

// Run initializes and executes the lnhelperbot CLI application.
//
// It registers all available commands, including:
//
//   - `start`: Runs the bot with its background watch loops.
//   - `chart`: Renders the liquidity chart to a file without Telegram.
//   - `watch`: Registers a confirmation watch for a chat.
//   - `unwatch`: Removes a confirmation watch.
//
// Parameters:
//   - ctx: Context used to control the lifecycle of the CLI application.
//   - bot: The Telegram update consumer started by the start command.
//   - tx: The txwatch service implementation used by watch commands.
//   - blocks: The blocknotify service started alongside the bot.
//   - charts: The liquidity service used by the chart command.
//
// This function sets up shell completion and invokes the CLI framework to parse and run commands.
func Run(ctx context.Context, bot Bot, tx txwatch.Service, blocks blocknotify.Service, charts liquidity.Service) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "lnhelperbot",
		Description:           "Command-line interface for running and managing the LNhelperBot Telegram bot.",
		Usage:                 "lnhelperbot [command] [flags]",
		Commands: []*cli.Command{
			startBotCommand(bot, tx, blocks),
			renderChartCommand(charts),
			startWatchingTransactionCommand(tx),
			stopWatchingTransactionCommand(tx),
		},
	}

	return app.Run(ctx, os.Args)
}
