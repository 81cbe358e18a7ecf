package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sunnyysetia/patrolsim/core/incident"
)

const (
	redisIncidentPrefix = "patrol:incident:"
	redisIndexKey       = "patrol:incidents"
	redisBusyKey        = "patrol:busy"
)

// RedisStore persists incidents in Redis. The busy-unit hash written with
// HSETNX is the conditional assignment write: the first dispatcher to claim
// a unit wins, everyone else gets ErrUnitBusy.
type RedisStore struct {
	cli *redis.Client
}

// NewRedisStore connects to the given Redis server.
func NewRedisStore(addr, password string, db int) *RedisStore {
	cli := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	return &RedisStore{cli: cli}
}

func (s *RedisStore) Create(ctx context.Context, inc incident.Incident) error {
	if err := s.save(ctx, inc); err != nil {
		return err
	}
	score := float64(inc.ReportedAt.UnixMilli())
	if err := s.cli.ZAdd(ctx, redisIndexKey, redis.Z{Score: score, Member: inc.ID}).Err(); err != nil {
		return fmt.Errorf("index incident: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (incident.Incident, error) {
	data, err := s.cli.Get(ctx, redisIncidentPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return incident.Incident{}, incident.ErrNotFound
	}
	if err != nil {
		return incident.Incident{}, fmt.Errorf("get incident: %w", err)
	}
	var inc incident.Incident
	if err := json.Unmarshal(data, &inc); err != nil {
		return incident.Incident{}, fmt.Errorf("decode incident: %w", err)
	}
	return inc, nil
}

func (s *RedisStore) List(ctx context.Context, f incident.Filter) ([]incident.Incident, error) {
	ids, err := s.cli.ZRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	res := make([]incident.Incident, 0, len(ids))
	for _, id := range ids {
		inc, err := s.Get(ctx, id)
		if errors.Is(err, incident.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if f.OpenOnly && !inc.Open() {
			continue
		}
		if f.AssignedUnitID != "" && inc.AssignedUnitID != f.AssignedUnitID {
			continue
		}
		res = append(res, inc)
	}
	return res, nil
}

func (s *RedisStore) Assign(ctx context.Context, incidentID, unitID string, at time.Time) error {
	inc, err := s.Get(ctx, incidentID)
	if err != nil {
		return err
	}
	if !inc.Open() || inc.Assigned() {
		return incident.ErrAlreadyAssigned
	}
	claimed, err := s.cli.HSetNX(ctx, redisBusyKey, unitID, incidentID).Result()
	if err != nil {
		return fmt.Errorf("claim unit: %w", err)
	}
	if !claimed {
		return incident.ErrUnitBusy
	}
	inc.AssignedUnitID = unitID
	inc.AssignedAt = at
	if err := s.save(ctx, inc); err != nil {
		// Roll the claim back so the unit is not stranded busy.
		s.cli.HDel(ctx, redisBusyKey, unitID)
		return err
	}
	return nil
}

func (s *RedisStore) CloseIncident(ctx context.Context, incidentID string, at time.Time) error {
	inc, err := s.Get(ctx, incidentID)
	if err != nil {
		return err
	}
	if !inc.Open() {
		return nil
	}
	inc.ClosedAt = at
	if err := s.save(ctx, inc); err != nil {
		return err
	}
	if inc.Assigned() {
		if err := s.cli.HDel(ctx, redisBusyKey, inc.AssignedUnitID).Err(); err != nil {
			return fmt.Errorf("release unit: %w", err)
		}
	}
	return nil
}

func (s *RedisStore) BusyUnits(ctx context.Context) (map[string]struct{}, error) {
	entries, err := s.cli.HGetAll(ctx, redisBusyKey).Result()
	if err != nil {
		return nil, fmt.Errorf("busy units: %w", err)
	}
	busy := make(map[string]struct{}, len(entries))
	for unit := range entries {
		busy[unit] = struct{}{}
	}
	return busy, nil
}

func (s *RedisStore) OpenAssignments(ctx context.Context) (map[string][]incident.Assignment, error) {
	entries, err := s.cli.HGetAll(ctx, redisBusyKey).Result()
	if err != nil {
		return nil, fmt.Errorf("open assignments: %w", err)
	}
	open := make(map[string][]incident.Assignment, len(entries))
	for unit, incidentID := range entries {
		inc, err := s.Get(ctx, incidentID)
		if errors.Is(err, incident.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		open[unit] = append(open[unit], incident.Assignment{
			IncidentID: inc.ID,
			Target:     inc.Location(),
			AssignedAt: inc.AssignedAt,
		})
	}
	return open, nil
}

func (s *RedisStore) Close() error { return s.cli.Close() }

func (s *RedisStore) save(ctx context.Context, inc incident.Incident) error {
	data, err := json.Marshal(inc)
	if err != nil {
		return fmt.Errorf("encode incident: %w", err)
	}
	if err := s.cli.Set(ctx, redisIncidentPrefix+inc.ID, data, 0).Err(); err != nil {
		return fmt.Errorf("save incident: %w", err)
	}
	return nil
}
