package app

import (
	"fmt"

	"cryptopredict/internal/causal"
	"cryptopredict/internal/chat"
	"cryptopredict/internal/config"
	"cryptopredict/internal/fallback"
	"cryptopredict/internal/gateway/binance"
	"cryptopredict/internal/gateway/crawler"
	"cryptopredict/internal/gateway/provider"
	"cryptopredict/internal/inference"
	"cryptopredict/internal/logger"
	"cryptopredict/internal/prediction"
	"cryptopredict/internal/predline"
	"cryptopredict/internal/sentiment"
	"cryptopredict/internal/store/gormstore"
	apihttp "cryptopredict/internal/transport/http/api"

	"github.com/google/wire"
)

// ProviderSet lists every constructor needed to assemble an App.
var ProviderSet = wire.NewSet(
	provideStore,
	provideLexicon,
	fallback.NewAnalyzer,
	provideModelProviders,
	provideAnalysisInvoker,
	provideCrawler,
	provideMarket,
	sentiment.NewService,
	provideGenerator,
	providePredictionService,
	provideController,
	provideCausal,
	provideLine,
	provideChat,
	provideHandlers,
	provideServer,
	newApp,
)

func provideStore(cfg *config.Config) (*gormstore.GormStore, func(), error) {
	st, err := gormstore.NewGormStore(cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open prediction store: %w", err)
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			logger.Warnf("closing prediction store: %v", err)
		}
	}
	return st, cleanup, nil
}

func provideLexicon(cfg *config.Config) (*fallback.Registry, error) {
	reg, err := fallback.NewRegistry(cfg.Fallback.LexiconPath)
	if err != nil {
		return nil, fmt.Errorf("load keyword lexicon: %w", err)
	}
	return reg, nil
}

func provideModelProviders(cfg *config.Config) provider.Providers {
	return provider.BuildProvidersFromConfig(cfg.AI)
}

func provideAnalysisInvoker(ps provider.Providers, cfg *config.Config) *inference.Invoker {
	return inference.NewInvoker(ps.Analysis, cfg.AI)
}

func provideCrawler(cfg *config.Config) *crawler.Client {
	return crawler.New(crawler.Config{
		BaseURL:       cfg.Crawler.BaseURL,
		Timeout:       seconds(cfg.Crawler.TimeoutSeconds),
		SearchTimeout: seconds(cfg.Crawler.SearchTimeoutSeconds),
		MaxRetries:    cfg.Crawler.MaxRetries,
	})
}

func provideMarket(cfg *config.Config) *binance.Source {
	return binance.New(binance.Config{
		RESTBaseURL: cfg.Market.RESTURL,
		HTTPTimeout: seconds(cfg.Market.TimeoutSeconds),
	})
}

func provideGenerator(news *crawler.Client, iv *inference.Invoker, kw *fallback.Analyzer, cfg *config.Config) *prediction.Generator {
	return prediction.NewGenerator(news, iv, kw, cfg.Prediction.NewsLimit)
}

func providePredictionService(gen *prediction.Generator, st *gormstore.GormStore) *prediction.Service {
	return prediction.NewService(gen, st)
}

func provideController(st *gormstore.GormStore, svc *prediction.Service, cfg *config.Config) *prediction.Controller {
	return prediction.NewController(st, svc, cfg.Prediction)
}

func provideCausal(sent *sentiment.Service, candles *binance.Source, iv *inference.Invoker) *causal.Service {
	return causal.NewService(sent, candles, iv)
}

func provideLine(candles *binance.Source, news *crawler.Client, iv *inference.Invoker) *predline.Service {
	return predline.NewService(candles, news, iv)
}

func provideChat(ps provider.Providers, ctrl *prediction.Controller, news *crawler.Client, cfg *config.Config) *chat.Service {
	return chat.NewService(ps.Chat, chat.NewMemoryStore(cfg.Chat.HistoryLimit), ctrl, news, cfg.AI)
}

func provideHandlers(
	cfg *config.Config,
	ctrl *prediction.Controller,
	svc *prediction.Service,
	sent *sentiment.Service,
	cs *causal.Service,
	line *predline.Service,
	ch *chat.Service,
) *apihttp.Handlers {
	return &apihttp.Handlers{
		Poll:      ctrl,
		Predictor: svc,
		Sentiment: sent,
		Causal:    cs,
		Line:      line,
		Chat:      ch,
		Version:   cfg.App.Version,
		Env:       cfg.App.Env,
	}
}

func provideServer(cfg *config.Config, h *apihttp.Handlers) (*apihttp.Server, error) {
	return apihttp.NewServer(apihttp.ServerConfig{Addr: cfg.App.HTTPAddr, Handlers: h})
}
