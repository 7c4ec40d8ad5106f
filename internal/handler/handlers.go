package handler

import (
	"github.com/akarpov/go-alertsync/internal/config"
	"github.com/akarpov/go-alertsync/internal/handler/http"
	"github.com/akarpov/go-alertsync/internal/logger"
	"github.com/akarpov/go-alertsync/internal/service"
	"github.com/akarpov/go-alertsync/internal/store"
)

type Handlers struct {
	HTTP *http.Handler
}

func NewHandlers(
	engine service.SyncEngine,
	recordStore store.RecordStore,
	version string,
	cfg config.Server,
	logger *logger.Logger,
) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	handlers := &Handlers{}

	if cfg.HTTPAddress != "" {
		handlers.HTTP = http.NewHandler(engine, recordStore, version, logger)
	}

	if handlers.HTTP == nil {
		return nil, errNoHandlersAreCreated
	}

	return handlers, nil
}
