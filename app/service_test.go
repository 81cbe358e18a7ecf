package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunnyysetia/patrolsim/config"
	"github.com/sunnyysetia/patrolsim/core/dispatch"
	"github.com/sunnyysetia/patrolsim/core/incident"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := config.Default()
	cfg.Fleet.FleetSize = 4
	svc, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestServiceRoutes(t *testing.T) {
	svc := newTestService(t)
	ts := httptest.NewServer(svc.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/units/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var statuses []dispatch.UnitStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&statuses))
	assert.Len(t, statuses, 4)
	for _, s := range statuses {
		assert.Equal(t, dispatch.StatusAvailable, s.Status)
	}
}

func TestServiceReportFlow(t *testing.T) {
	svc := newTestService(t)
	ts := httptest.NewServer(svc.Handler())
	defer ts.Close()

	body := `{"lat":-36.8485,"lng":174.7633,"description":"noise complaint"}`
	resp, err := http.Post(ts.URL+"/api/incidents", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	inc, err := svc.Coordinator.Incidents(context.Background(), incident.Filter{OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, inc, 1)
	assert.NotEmpty(t, inc[0].AssignedUnitID)
}

func TestServiceRunShutsDown(t *testing.T) {
	cfg := config.Default()
	cfg.Fleet.FleetSize = 2
	cfg.HTTP.Addr = "127.0.0.1:0"
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	time.Sleep(200 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not shut down")
	}
}
