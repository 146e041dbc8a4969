//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/dealscout/dealscout/internal/bootstrap"
	"github.com/dealscout/dealscout/internal/domain/catalog"
	"github.com/dealscout/dealscout/internal/domain/session"
	"github.com/dealscout/dealscout/internal/infra/config"
	"github.com/dealscout/dealscout/internal/infra/llm/genai"
	"github.com/dealscout/dealscout/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideGenaiClient,
		provideGatewayConfig,
		provideSessionConfig,
		provideDetailStore,
		provideHandler,
		provideServer,
		catalog.NewGateway,
		session.NewManager,
		wire.Bind(new(catalog.GenerateClient), new(*genai.Client)),
		bootstrap.NewApp,
	)
	return nil, nil
}
