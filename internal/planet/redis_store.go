package planet

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"

	apperrors "planet-service/internal/shared/errors"

	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 5

// RedisStore keeps planets as hashes. Insertion order lives in an index list
// and every planet owns a list of moon ids. Writes run inside WATCH/MULTI so a
// cascade delete is observed atomically by other clients.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

func NewRedisStore(client redis.UniversalClient, prefix string, logger *slog.Logger) *RedisStore {
	logger.Debug("Initializing planet redis store", "prefix", prefix)

	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":planets"
}

func (s *RedisStore) planetKey(id string) string {
	return s.prefix + ":planet:" + id
}

func (s *RedisStore) planetMoonsKey(id string) string {
	return s.prefix + ":planet:" + id + ":moons"
}

func (s *RedisStore) moonKey(id string) string {
	return s.prefix + ":moon:" + id
}

func (s *RedisStore) ListPlanets(ctx context.Context) ([]Planet, error) {
	logger := s.logger.With("component", "planet_redis_store", "operation", "list_planets")
	logger.Debug("Listing planets")

	ids, err := s.client.LRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		logger.Error("Failed to read planet index", "error", err)
		return nil, fmt.Errorf("failed to list planets: %w", err)
	}

	hashes, err := s.fetchHashes(ctx, ids, s.planetKey)
	if err != nil {
		logger.Error("Failed to read planets", "error", err)
		return nil, fmt.Errorf("failed to list planets: %w", err)
	}

	planets := make([]Planet, 0, len(hashes))
	for _, fields := range hashes {
		if len(fields) == 0 {
			continue
		}
		planets = append(planets, planetFromHash(fields))
	}

	logger.Debug("Planets retrieved", "count", len(planets))
	return planets, nil
}

func (s *RedisStore) GetPlanet(ctx context.Context, id string) (*Planet, error) {
	logger := s.logger.With("component", "planet_redis_store", "operation", "get_planet", "planet_id", id)
	logger.Debug("Getting planet by ID")

	fields, err := s.client.HGetAll(ctx, s.planetKey(id)).Result()
	if err != nil {
		logger.Error("Failed to read planet", "error", err)
		return nil, fmt.Errorf("failed to get planet: %w", err)
	}
	if len(fields) == 0 {
		logger.Debug("Planet not found")
		return nil, planetNotFound(id)
	}

	moonIDs, err := s.client.LRange(ctx, s.planetMoonsKey(id), 0, -1).Result()
	if err != nil {
		logger.Error("Failed to read moon index", "error", err)
		return nil, fmt.Errorf("failed to get moons: %w", err)
	}

	moonHashes, err := s.fetchHashes(ctx, moonIDs, s.moonKey)
	if err != nil {
		logger.Error("Failed to read moons", "error", err)
		return nil, fmt.Errorf("failed to get moons: %w", err)
	}

	planet := planetFromHash(fields)
	planet.Moons = make([]Moon, 0, len(moonHashes))
	for _, moonFields := range moonHashes {
		if len(moonFields) == 0 {
			continue
		}
		planet.Moons = append(planet.Moons, moonFromHash(moonFields))
	}

	logger.Debug("Planet retrieved", "moon_count", len(planet.Moons))
	return &planet, nil
}

func (s *RedisStore) CreatePlanet(ctx context.Context, planet Planet) (*Planet, error) {
	planet = withIDs(planet)

	logger := s.logger.With(
		"component", "planet_redis_store",
		"operation", "create_planet",
		"planet_id", planet.ID,
		"moon_count", len(planet.Moons),
	)
	logger.Debug("Creating planet")

	watched := []string{s.planetKey(planet.ID), s.planetMoonsKey(planet.ID)}
	for _, moon := range planet.Moons {
		watched = append(watched, s.moonKey(moon.ID))
	}

	err := s.transact(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, s.planetKey(planet.ID)).Result()
		if err != nil {
			return err
		}

		previousMoons, err := tx.LRange(ctx, s.planetMoonsKey(planet.ID), 0, -1).Result()
		if err != nil {
			return err
		}

		owners := make([]string, len(planet.Moons))
		for i, moon := range planet.Moons {
			owner, err := s.moonOwner(ctx, tx, moon.ID)
			if err != nil {
				return err
			}
			owners[i] = owner
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if exists == 0 {
				pipe.RPush(ctx, s.indexKey(), planet.ID)
			}
			pipe.Del(ctx, s.planetKey(planet.ID))
			pipe.HSet(ctx, s.planetKey(planet.ID), planetToHash(planet))

			for _, moonID := range previousMoons {
				pipe.Del(ctx, s.moonKey(moonID))
			}
			pipe.Del(ctx, s.planetMoonsKey(planet.ID))

			for i, moon := range planet.Moons {
				if owners[i] != "" && owners[i] != planet.ID {
					pipe.LRem(ctx, s.planetMoonsKey(owners[i]), 0, moon.ID)
				}
				pipe.HSet(ctx, s.moonKey(moon.ID), moonToHash(moon))
				pipe.RPush(ctx, s.planetMoonsKey(planet.ID), moon.ID)
			}
			return nil
		})
		return err
	}, watched...)
	if err != nil {
		logger.Error("Failed to create planet", "error", err)
		return nil, fmt.Errorf("failed to create planet: %w", err)
	}

	logger.Info("Planet created successfully")
	return &planet, nil
}

func (s *RedisStore) DeletePlanet(ctx context.Context, id string) error {
	logger := s.logger.With("component", "planet_redis_store", "operation", "delete_planet", "planet_id", id)
	logger.Debug("Deleting planet")

	err := s.transact(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, s.planetKey(id)).Result()
		if err != nil {
			return err
		}
		if exists == 0 {
			return planetNotFound(id)
		}

		moonIDs, err := tx.LRange(ctx, s.planetMoonsKey(id), 0, -1).Result()
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, moonID := range moonIDs {
				pipe.Del(ctx, s.moonKey(moonID))
			}
			pipe.Del(ctx, s.planetMoonsKey(id), s.planetKey(id))
			pipe.LRem(ctx, s.indexKey(), 0, id)
			return nil
		})
		return err
	}, s.planetKey(id), s.planetMoonsKey(id))
	if err != nil {
		if apperrors.IsNotFound(err) {
			logger.Debug("Planet not found")
			return err
		}
		logger.Error("Failed to delete planet", "error", err)
		return fmt.Errorf("failed to delete planet: %w", err)
	}

	logger.Info("Planet deleted successfully")
	return nil
}

func (s *RedisStore) SaveMoon(ctx context.Context, planetID string, moon Moon) (*Moon, error) {
	if moon.ID == "" {
		moon.ID = newID()
	}
	moon.PlanetID = planetID

	logger := s.logger.With(
		"component", "planet_redis_store",
		"operation", "save_moon",
		"planet_id", planetID,
		"moon_id", moon.ID,
	)
	logger.Debug("Saving moon")

	err := s.transact(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, s.planetKey(planetID)).Result()
		if err != nil {
			return err
		}
		if exists == 0 {
			return planetNotFound(planetID)
		}

		owner, err := s.moonOwner(ctx, tx, moon.ID)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if owner != planetID {
				if owner != "" {
					pipe.LRem(ctx, s.planetMoonsKey(owner), 0, moon.ID)
				}
				pipe.RPush(ctx, s.planetMoonsKey(planetID), moon.ID)
			}
			pipe.HSet(ctx, s.moonKey(moon.ID), moonToHash(moon))
			return nil
		})
		return err
	}, s.planetKey(planetID), s.moonKey(moon.ID))
	if err != nil {
		if apperrors.IsNotFound(err) {
			logger.Debug("Owning planet not found")
			return nil, err
		}
		logger.Error("Failed to save moon", "error", err)
		return nil, fmt.Errorf("failed to save moon: %w", err)
	}

	return &moon, nil
}

func (s *RedisStore) GetMoon(ctx context.Context, id string) (*Moon, error) {
	fields, err := s.client.HGetAll(ctx, s.moonKey(id)).Result()
	if err != nil {
		s.logger.Error("Failed to read moon", "component", "planet_redis_store", "moon_id", id, "error", err)
		return nil, fmt.Errorf("failed to get moon: %w", err)
	}
	if len(fields) == 0 {
		return nil, moonNotFound(id)
	}

	moon := moonFromHash(fields)
	return &moon, nil
}

// transact runs fn under WATCH and retries when a watched key changed before EXEC
func (s *RedisStore) transact(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, fn, keys...)
		if !stderrors.Is(err, redis.TxFailedErr) {
			return err
		}
		s.logger.Debug("Optimistic transaction conflict, retrying", "attempt", attempt+1)
	}
	return redis.TxFailedErr
}

func (s *RedisStore) moonOwner(ctx context.Context, tx *redis.Tx, moonID string) (string, error) {
	owner, err := tx.HGet(ctx, s.moonKey(moonID), "planet_id").Result()
	if stderrors.Is(err, redis.Nil) {
		return "", nil
	}
	return owner, err
}

func (s *RedisStore) fetchHashes(ctx context.Context, ids []string, key func(string) string) ([]map[string]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, key(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	hashes := make([]map[string]string, len(cmds))
	for i, cmd := range cmds {
		hashes[i] = cmd.Val()
	}
	return hashes, nil
}

func planetToHash(p Planet) map[string]interface{} {
	fields := map[string]interface{}{
		"id":   p.ID,
		"name": p.Name,
	}
	if p.Gravity != nil {
		fields["gravity"] = strconv.FormatFloat(*p.Gravity, 'g', -1, 64)
	}
	if p.Size != nil {
		fields["size"] = strconv.FormatFloat(*p.Size, 'g', -1, 64)
	}
	return fields
}

func planetFromHash(fields map[string]string) Planet {
	return Planet{
		ID:      fields["id"],
		Name:    fields["name"],
		Gravity: parseOptionalFloat(fields["gravity"]),
		Size:    parseOptionalFloat(fields["size"]),
	}
}

func moonToHash(m Moon) map[string]interface{} {
	return map[string]interface{}{
		"id":        m.ID,
		"name":      m.Name,
		"planet_id": m.PlanetID,
	}
}

func moonFromHash(fields map[string]string) Moon {
	return Moon{
		ID:       fields["id"],
		Name:     fields["name"],
		PlanetID: fields["planet_id"],
	}
}

func parseOptionalFloat(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
