//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/faq-vectorstore/internal/bootstrap"
	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
	"github.com/yanqian/faq-vectorstore/internal/infra/config"
	"github.com/yanqian/faq-vectorstore/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideFAQConfig,
		provideVectorStore,
		provideEmbedder,
		provideDatasetSource,
		provideValkeyClient,
		provideLocker,
		provideQueryStats,
		faq.NewService,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
