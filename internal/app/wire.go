//go:build wireinject

package app

import (
	"cryptopredict/internal/config"

	"github.com/google/wire"
)

func buildAppWithWire(cfg *config.Config) (*App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
