package planet

import (
	"context"

	"planet-service/internal/shared/errors"

	"github.com/google/uuid"
)

type Planet struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Gravity *float64 `json:"gravity,omitempty"`
	Size    *float64 `json:"size,omitempty"`
	Moons   []Moon   `json:"moons"`
}

// Moon belongs to exactly one planet. PlanetID is the owning reference and is
// never serialized.
type Moon struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	PlanetID string `json:"-"`
}

// Store persists planets and their moons. Lookups of unknown ids return a
// not_found AppError.
type Store interface {
	ListPlanets(ctx context.Context) ([]Planet, error)
	GetPlanet(ctx context.Context, id string) (*Planet, error)
	// CreatePlanet stores the planet and its moons atomically. An empty id is
	// generated; an existing id is replaced together with its moon set.
	CreatePlanet(ctx context.Context, planet Planet) (*Planet, error)
	// DeletePlanet removes the planet and all of its moons atomically.
	DeletePlanet(ctx context.Context, id string) error
	// SaveMoon attaches a single moon to an existing planet; used to seed
	// fixtures outside the HTTP surface.
	SaveMoon(ctx context.Context, planetID string, moon Moon) (*Moon, error)
	// GetMoon looks a moon up by id, which is how cascade deletes are observed.
	GetMoon(ctx context.Context, id string) (*Moon, error)
}

func newID() string {
	return uuid.NewString()
}

// withIDs returns a copy of the planet with generated ids filled in and every
// moon linked to it. A moon id given twice keeps its first position and the
// last occurrence's fields.
func withIDs(p Planet) Planet {
	if p.ID == "" {
		p.ID = newID()
	}

	moons := make([]Moon, 0, len(p.Moons))
	seen := make(map[string]int, len(p.Moons))
	for _, m := range p.Moons {
		if m.ID == "" {
			m.ID = newID()
		}
		m.PlanetID = p.ID

		if i, ok := seen[m.ID]; ok {
			moons[i] = m
			continue
		}
		seen[m.ID] = len(moons)
		moons = append(moons, m)
	}
	p.Moons = moons

	return p
}

func planetNotFound(id string) error {
	return errors.NotFoundf("planet not found with id: %s", id)
}

func moonNotFound(id string) error {
	return errors.NotFoundf("moon not found with id: %s", id)
}
