package http

import (
	"github.com/akarpov/go-alertsync/internal/logger"
	"github.com/akarpov/go-alertsync/internal/service"
	"github.com/akarpov/go-alertsync/internal/store"
)

type Handler struct {
	engine service.SyncEngine
	store  store.RecordStore

	version string
	logger  *logger.Logger
}

func NewHandler(engine service.SyncEngine, recordStore store.RecordStore, version string, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		engine:  engine,
		store:   recordStore,
		version: version,
		logger:  logger,
	}
}
