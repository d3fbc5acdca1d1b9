package planet

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"

	"planet-service/internal/shared/database"

	"github.com/lib/pq"
)

const foreignKeyViolation = "23503"

// Repository is the PostgreSQL Store. Moons reference their planet with
// ON DELETE CASCADE, so deleting a planet is a single statement.
type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing planet repository")

	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) getExecutor(tx *database.Tx) database.Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *Repository) ListPlanets(ctx context.Context) ([]Planet, error) {
	logger := r.logger.With("component", "planet_repository", "operation", "list_planets")
	logger.Debug("Listing planets")

	query := `
		SELECT id, name, gravity, size
		FROM planets
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("Failed to query planets", "error", err)
		return nil, fmt.Errorf("failed to query planets: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	planets := []Planet{}
	for rows.Next() {
		var planet Planet
		if err := rows.Scan(&planet.ID, &planet.Name, &planet.Gravity, &planet.Size); err != nil {
			logger.Error("Failed to scan planet row", "error", err)
			return nil, fmt.Errorf("failed to scan planet: %w", err)
		}
		planets = append(planets, planet)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, fmt.Errorf("error iterating planets: %w", err)
	}

	logger.Debug("Planets retrieved", "count", len(planets))
	return planets, nil
}

func (r *Repository) GetPlanet(ctx context.Context, id string) (*Planet, error) {
	logger := r.logger.With("component", "planet_repository", "operation", "get_planet", "planet_id", id)
	logger.Debug("Getting planet by ID")

	query := `
		SELECT id, name, gravity, size
		FROM planets
		WHERE id = $1
	`

	var planet Planet
	err := r.db.QueryRowContext(ctx, query, id).Scan(&planet.ID, &planet.Name, &planet.Gravity, &planet.Size)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			logger.Debug("Planet not found")
			return nil, planetNotFound(id)
		}
		logger.Error("Database error getting planet", "error", err)
		return nil, fmt.Errorf("failed to get planet: %w", err)
	}

	moons, err := r.getMoonsByPlanetID(ctx, id)
	if err != nil {
		return nil, err
	}
	planet.Moons = moons

	logger.Debug("Planet retrieved", "moon_count", len(moons))
	return &planet, nil
}

func (r *Repository) getMoonsByPlanetID(ctx context.Context, planetID string) ([]Moon, error) {
	logger := r.logger.With("component", "planet_repository", "operation", "get_moons", "planet_id", planetID)

	query := `
		SELECT id, name, planet_id
		FROM moons
		WHERE planet_id = $1
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, query, planetID)
	if err != nil {
		logger.Error("Failed to query moons", "error", err)
		return nil, fmt.Errorf("failed to query moons: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	moons := []Moon{}
	for rows.Next() {
		var moon Moon
		if err := rows.Scan(&moon.ID, &moon.Name, &moon.PlanetID); err != nil {
			logger.Error("Failed to scan moon row", "error", err)
			return nil, fmt.Errorf("failed to scan moon: %w", err)
		}
		moons = append(moons, moon)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, fmt.Errorf("error iterating moons: %w", err)
	}

	return moons, nil
}

func (r *Repository) CreatePlanet(ctx context.Context, planet Planet) (*Planet, error) {
	planet = withIDs(planet)

	logger := r.logger.With(
		"component", "planet_repository",
		"operation", "create_planet",
		"planet_id", planet.ID,
		"moon_count", len(planet.Moons),
	)
	logger.Debug("Creating planet")

	tx, err := r.db.BeginTxContext(ctx)
	if err != nil {
		logger.Error("Failed to begin transaction", "error", err)
		return nil, err
	}
	defer tx.RollbackUnlessCommitted(logger)

	query := `
		INSERT INTO planets (id, name, gravity, size)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, gravity = EXCLUDED.gravity, size = EXCLUDED.size, updated_at = NOW()
	`

	if _, err := tx.ExecContext(ctx, query, planet.ID, planet.Name, planet.Gravity, planet.Size); err != nil {
		logger.Error("Failed to upsert planet", "error", err)
		return nil, fmt.Errorf("failed to create planet: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM moons WHERE planet_id = $1`, planet.ID); err != nil {
		logger.Error("Failed to clear previous moons", "error", err)
		return nil, fmt.Errorf("failed to replace moons: %w", err)
	}

	if err := r.createMoonsBatch(ctx, planet.ID, planet.Moons, tx); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit planet transaction", "error", err)
		return nil, fmt.Errorf("failed to commit planet: %w", err)
	}

	logger.Info("Planet created successfully")
	return &planet, nil
}

// createMoonsBatch inserts the moons in a single statement, keeping their order
func (r *Repository) createMoonsBatch(ctx context.Context, planetID string, moons []Moon, tx *database.Tx) error {
	if len(moons) == 0 {
		return nil
	}

	exec := r.getExecutor(tx)
	logger := r.logger.With(
		"component", "planet_repository",
		"operation", "create_moons_batch",
		"planet_id", planetID,
		"count", len(moons),
	)

	moonsJSON, err := json.Marshal(moons)
	if err != nil {
		logger.Error("Failed to marshal moons to JSON", "error", err)
		return fmt.Errorf("failed to marshal moons: %w", err)
	}

	query := `
		INSERT INTO moons (id, name, planet_id)
		SELECT data->>'id', data->>'name', $1
		FROM json_array_elements($2::json) WITH ORDINALITY AS elems(data, ord)
		ORDER BY ord
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, planet_id = EXCLUDED.planet_id
	`

	if _, err := exec.ExecContext(ctx, query, planetID, string(moonsJSON)); err != nil {
		logger.Error("Failed to batch create moons", "error", err)
		return fmt.Errorf("failed to batch create moons: %w", err)
	}

	logger.Debug("Moons batch created")
	return nil
}

func (r *Repository) DeletePlanet(ctx context.Context, id string) error {
	logger := r.logger.With("component", "planet_repository", "operation", "delete_planet", "planet_id", id)
	logger.Debug("Deleting planet")

	result, err := r.db.ExecContext(ctx, `DELETE FROM planets WHERE id = $1`, id)
	if err != nil {
		logger.Error("Failed to delete planet", "error", err)
		return fmt.Errorf("failed to delete planet: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		logger.Error("Failed to read affected rows", "error", err)
		return fmt.Errorf("failed to delete planet: %w", err)
	}

	if affected == 0 {
		logger.Debug("Planet not found")
		return planetNotFound(id)
	}

	logger.Info("Planet deleted successfully")
	return nil
}

func (r *Repository) SaveMoon(ctx context.Context, planetID string, moon Moon) (*Moon, error) {
	if moon.ID == "" {
		moon.ID = newID()
	}
	moon.PlanetID = planetID

	logger := r.logger.With(
		"component", "planet_repository",
		"operation", "save_moon",
		"planet_id", planetID,
		"moon_id", moon.ID,
	)
	logger.Debug("Saving moon")

	query := `
		INSERT INTO moons (id, name, planet_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, planet_id = EXCLUDED.planet_id
	`

	if _, err := r.db.ExecContext(ctx, query, moon.ID, moon.Name, planetID); err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			logger.Debug("Owning planet not found")
			return nil, planetNotFound(planetID)
		}
		logger.Error("Failed to save moon", "error", err)
		return nil, fmt.Errorf("failed to save moon: %w", err)
	}

	return &moon, nil
}

func (r *Repository) GetMoon(ctx context.Context, id string) (*Moon, error) {
	logger := r.logger.With("component", "planet_repository", "operation", "get_moon", "moon_id", id)

	query := `
		SELECT id, name, planet_id
		FROM moons
		WHERE id = $1
	`

	var moon Moon
	err := r.db.QueryRowContext(ctx, query, id).Scan(&moon.ID, &moon.Name, &moon.PlanetID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			logger.Debug("Moon not found")
			return nil, moonNotFound(id)
		}
		logger.Error("Database error getting moon", "error", err)
		return nil, fmt.Errorf("failed to get moon: %w", err)
	}

	return &moon, nil
}
