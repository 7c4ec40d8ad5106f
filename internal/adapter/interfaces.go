// Package adapter contains clients for the remote alert distribution
// service. The sync worker and the HTTP API consume it through the
// RemoteSource interface so transports can be swapped in tests.
package adapter

import (
	"context"
	"time"

	"github.com/akarpov/go-alertsync/models"
)

// RemoteSource fetches differential payloads from the upstream alert
// distribution service.
type RemoteSource interface {
	// FetchDifferential returns the differential payload covering every
	// change upstream since the given timestamp. A zero since requests the
	// full current state.
	FetchDifferential(ctx context.Context, since time.Time) (models.DifferentialPayload, error)

	// Ping verifies the upstream service is reachable.
	Ping(ctx context.Context) error
}
