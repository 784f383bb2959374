package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("disk gone") }

func TestAPI_HealthCheck(t *testing.T) {
	_, api := newAPITest(t)

	resp := api.Get("/api/v1/health")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	health := decodeEnvelope[HealthResponse](t, resp)
	assert.True(t, health.Success)
	assert.Equal(t, "healthy", health.Data.Status)
	assert.Equal(t, "healthy", health.Data.Components["database"].Status)
	assert.NotEmpty(t, health.Data.Components["database"].Latency)
}

func TestCheckDatabase(t *testing.T) {
	s := &Server{}
	assert.Equal(t, "degraded", s.checkDatabase(context.Background()).Status)

	s.health = failingPinger{}
	db := s.checkDatabase(context.Background())
	assert.Equal(t, "unhealthy", db.Status)
	assert.Equal(t, "database read failed", db.Message)
}
