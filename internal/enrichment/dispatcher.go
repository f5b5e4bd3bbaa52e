package enrichment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/metrics"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/sources"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage/models"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/pkg/logger"
)

// Dispatcher routes one endpoint declaration to its registered source
// client. Per-endpoint failures are absorbed here: a broken or slow
// provider yields no result but never propagates an error into the
// fan-out.
type Dispatcher struct {
	registry *sources.Registry
}

func NewDispatcher(registry *sources.Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch calls the endpoint's source client with only the identifier
// fields the endpoint declared. ok is false when the call failed or no
// client is registered; the caller treats that as "no evidence", not
// as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, endpoint SourceEndpoint, req *models.ContentAnalysisRequest) (map[string]interface{}, bool) {
	client, registered := d.registry.Lookup(endpoint.Source)
	if !registered {
		logger.Warn("No client registered for source",
			zap.String("source", string(endpoint.Source)),
			zap.String("endpoint", endpoint.Endpoint),
		)
		metrics.DispatchTotal.WithLabelValues(string(endpoint.Source), "unregistered").Inc()
		return nil, false
	}

	identifiers := make(map[string]string, len(endpoint.IdentifierKeys))
	for _, key := range endpoint.IdentifierKeys {
		identifiers[key] = req.Identifier(key)
	}

	start := time.Now()
	payload, err := client.Fetch(ctx, sources.FetchRequest{
		Endpoint:    endpoint.Endpoint,
		Live:        endpoint.Live,
		Identifiers: identifiers,
		OrgID:       req.OrgID,
	})
	metrics.DispatchDuration.WithLabelValues(string(endpoint.Source)).Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Warn("Endpoint dispatch failed",
			zap.String("source", string(endpoint.Source)),
			zap.String("endpoint", endpoint.Endpoint),
			zap.Error(err),
		)
		metrics.DispatchTotal.WithLabelValues(string(endpoint.Source), "error").Inc()
		return nil, false
	}

	metrics.DispatchTotal.WithLabelValues(string(endpoint.Source), "ok").Inc()
	return payload, true
}
