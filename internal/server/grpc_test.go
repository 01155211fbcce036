package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"wallet-suite/internal/model"
	"wallet-suite/internal/store"
)

func deviceStatus(t *testing.T, hs interface {
	Check(context.Context, *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error)
}) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: DeviceHealthService})
	require.NoError(t, err)
	return resp.Status
}

func TestDeviceHealth(t *testing.T) {
	hs := NewHealthServer()
	s := store.New()

	syncDeviceStatus(hs, s)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, deviceStatus(t, hs))

	s.SetDevice(&model.Device{Path: "dev-1", Connected: true, Available: true})
	syncDeviceStatus(hs, s)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, deviceStatus(t, hs))

	s.SetDevice(&model.Device{Path: "dev-1", Connected: true, Available: false})
	syncDeviceStatus(hs, s)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, deviceStatus(t, hs))
}
