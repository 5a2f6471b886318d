package main

import (
	"context"
	"log"

	"github.com/Jestopher-BTC/LNhelperBot/internal/blocknotify"
	"github.com/Jestopher-BTC/LNhelperBot/internal/config"
	"github.com/Jestopher-BTC/LNhelperBot/internal/handlers/cli"
	"github.com/Jestopher-BTC/LNhelperBot/internal/handlers/telegram"
	"github.com/Jestopher-BTC/LNhelperBot/internal/infra/chaindata/mempool"
	"github.com/Jestopher-BTC/LNhelperBot/internal/infra/liquidity/amboss"
	"github.com/Jestopher-BTC/LNhelperBot/internal/infra/price/coingecko"
	redisstorage "github.com/Jestopher-BTC/LNhelperBot/internal/infra/storage/redis"
	"github.com/Jestopher-BTC/LNhelperBot/internal/liquidity"
	"github.com/Jestopher-BTC/LNhelperBot/internal/pkg/logger"
	"github.com/Jestopher-BTC/LNhelperBot/internal/pkg/telemetry"
	"github.com/Jestopher-BTC/LNhelperBot/internal/pkg/transport/graphql"
	transporthttp "github.com/Jestopher-BTC/LNhelperBot/internal/pkg/transport/http"
	"github.com/Jestopher-BTC/LNhelperBot/internal/pkg/validator"
	"github.com/Jestopher-BTC/LNhelperBot/internal/txwatch"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const serviceName = "lnhelperbot"

func main() {
	ctx := context.Background()

	validator.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, serviceName)
		if err != nil {
			log.Fatalf("initializing telemetry: %v", err)
		}
		defer shutdown(ctx)
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	storage, err := redisstorage.NewClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal(ctx, "failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
	}
	defer storage.Close()

	httpClient := transporthttp.NewClient()

	chainData := mempool.NewClient(httpClient, cfg.MempoolAPIURL)
	priceSource := coingecko.NewClient(httpClient, cfg.PriceAPIURL)

	offerSource := amboss.NewClient(graphqlClient(cfg))

	tgClient, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal(ctx, "failed to authenticate with telegram", "error", err)
	}

	notifier := telegram.NewNotifier(tgClient)

	txWatch := txwatch.New(storage, chainData, notifier,
		txwatch.WithConfirmationTarget(cfg.ConfirmationTarget),
		txwatch.WithPollInterval(cfg.TxPollInterval),
	)

	blockNotify := blocknotify.New(chainData, storage, storage, notifier,
		blocknotify.WithPollInterval(cfg.BlockPollInterval),
	)

	charts := liquidity.New(offerSource, priceSource, storage,
		liquidity.WithCacheTTL(cfg.ChartCacheTTL),
		liquidity.WithFetchWorkers(cfg.ChartFetchWorkers),
	)

	bot := telegram.NewBot(tgClient, txWatch, blockNotify, charts,
		telegram.WithConfirmationTarget(cfg.ConfirmationTarget),
	)

	if err := cli.Run(ctx, bot, txWatch, blockNotify, charts); err != nil {
		logger.Fatal(ctx, "execution failed", "error", err)
	}
}

// graphqlClient builds the Amboss GraphQL transport, attaching the API key
// when one is configured.
func graphqlClient(cfg config.Config) graphql.Client {
	var headers map[string]string
	if cfg.AmbossAPIKey != "" {
		headers = map[string]string{"x-api-key": cfg.AmbossAPIKey}
	}

	return graphql.NewClient(transporthttp.NewClient().StandardClient(), cfg.AmbossAPIURL, headers)
}
