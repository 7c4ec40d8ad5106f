package http

import (
	"errors"
	"net/http"

	"github.com/akarpov/go-alertsync/internal/service"
	"github.com/akarpov/go-alertsync/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrNoPendingConflict: http.StatusNotFound,
	service.ErrNoOptimisticState: http.StatusConflict,

	store.ErrRecordNotFound: http.StatusNotFound,
	store.ErrRecordExists:   http.StatusConflict,
	store.ErrExecutingQuery: http.StatusInternalServerError,
}

func statusFromError(err error) int {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest
	}

	for sentinel, status := range errorStatusMap {
		if errors.Is(err, sentinel) {
			return status
		}
	}

	return http.StatusInternalServerError
}
