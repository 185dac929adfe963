package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestInitTracing_WithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracing("crown-back-end", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(context.Background(), carrier)
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestInitTracing_WithEndpoint(t *testing.T) {
	shutdown, err := InitTracing("crown-back-end", "http://127.0.0.1:14268/api/traces")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
