package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/sunnyysetia/patrolsim/core/metrics"
	"github.com/sunnyysetia/patrolsim/infra/logger"
)

// InfluxSink writes dispatch decisions and fleet snapshots to InfluxDB using
// the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// when the health check fails, so a missing time series store never blocks
// dispatch.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordDispatchResult writes the decision as a point.
func (s *InfluxSink) RecordDispatchResult(res coremetrics.DispatchResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch_decision").
		AddTag("unit_id", res.UnitID).
		AddTag("assigned", strconv.FormatBool(res.Assigned)).
		AddTag("incident_id", res.IncidentID).
		AddField("distance_metres", round3(res.DistanceMetres)).
		AddField("candidates", res.Candidates).
		AddField("conflicts", res.Conflicts).
		SetTime(res.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordUnitStates writes one point per rendered unit.
func (s *InfluxSink) RecordUnitStates(states []coremetrics.UnitStateEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, st := range states {
		p := write.NewPointWithMeasurement("unit_state").
			AddTag("unit_id", st.UnitID).
			AddTag("path_id", st.PathID).
			AddTag("status", st.Status).
			AddField("lat", st.Lat).
			AddField("lng", st.Lng).
			SetTime(st.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordBusyUnits writes the fleet occupancy gauge.
func (s *InfluxSink) RecordBusyUnits(busy, fleet int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("fleet_occupancy").
		AddField("busy", busy).
		AddField("fleet", fleet).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
