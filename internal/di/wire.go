//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"Karion/pkg/config"
	"Karion/pkg/server"
)

// InitializeApp wires every component from the configuration.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(ProviderSet)
	return &server.App{}, nil
}
