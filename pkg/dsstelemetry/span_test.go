package dsstelemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel/attribute"
)

func TestStartSpan_ReturnsUsableContextAndSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "dss.insert", attribute.Int("layer", 3))
	require.NotNil(t, ctx)
	require.NotNil(t, span)
	assert.NotPanics(t, func() { EndSpan(span, nil) })
}

func TestEndSpan_RecordsErrorWithoutPanicking(t *testing.T) {
	_, span := StartSpan(context.Background(), "dss.create_polygon_layer")
	assert.NotPanics(t, func() { EndSpan(span, errors.New("layout locked")) })
}
