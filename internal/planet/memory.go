package planet

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore is a thread-safe in-memory Store. Each operation holds the lock
// for its whole duration, so creates and cascading deletes are atomic.
type MemoryStore struct {
	mu        sync.RWMutex
	planets   map[string]Planet
	order     []string
	moons     map[string]Moon
	moonOrder map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		planets:   make(map[string]Planet),
		moons:     make(map[string]Moon),
		moonOrder: make(map[string][]string),
	}
}

func (m *MemoryStore) ListPlanets(_ context.Context) ([]Planet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Planet, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, m.planets[id])
	}
	return result, nil
}

func (m *MemoryStore) GetPlanet(_ context.Context, id string) (*Planet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.planets[id]
	if !ok {
		return nil, planetNotFound(id)
	}

	p.Moons = m.moonsOfLocked(id)
	return &p, nil
}

func (m *MemoryStore) CreatePlanet(_ context.Context, planet Planet) (*Planet, error) {
	planet = withIDs(planet)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.planets[planet.ID]; exists {
		m.dropMoonsLocked(planet.ID)
	} else {
		m.order = append(m.order, planet.ID)
	}

	for _, moon := range planet.Moons {
		m.detachMoonLocked(moon.ID)
		m.moons[moon.ID] = moon
		m.moonOrder[planet.ID] = append(m.moonOrder[planet.ID], moon.ID)
	}

	stored := planet
	stored.Moons = nil
	m.planets[planet.ID] = stored

	planet.Moons = m.moonsOfLocked(planet.ID)
	return &planet, nil
}

func (m *MemoryStore) DeletePlanet(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.planets[id]; !ok {
		return planetNotFound(id)
	}

	m.dropMoonsLocked(id)
	delete(m.planets, id)
	m.order = slices.DeleteFunc(m.order, func(planetID string) bool { return planetID == id })
	return nil
}

func (m *MemoryStore) SaveMoon(_ context.Context, planetID string, moon Moon) (*Moon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.planets[planetID]; !ok {
		return nil, planetNotFound(planetID)
	}

	if moon.ID == "" {
		moon.ID = newID()
	}
	moon.PlanetID = planetID

	if existing, ok := m.moons[moon.ID]; !ok || existing.PlanetID != planetID {
		m.detachMoonLocked(moon.ID)
		m.moonOrder[planetID] = append(m.moonOrder[planetID], moon.ID)
	}
	m.moons[moon.ID] = moon

	return &moon, nil
}

func (m *MemoryStore) GetMoon(_ context.Context, id string) (*Moon, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	moon, ok := m.moons[id]
	if !ok {
		return nil, moonNotFound(id)
	}
	return &moon, nil
}

func (m *MemoryStore) moonsOfLocked(planetID string) []Moon {
	ids := m.moonOrder[planetID]
	moons := make([]Moon, 0, len(ids))
	for _, id := range ids {
		moons = append(moons, m.moons[id])
	}
	return moons
}

func (m *MemoryStore) dropMoonsLocked(planetID string) {
	for _, id := range m.moonOrder[planetID] {
		delete(m.moons, id)
	}
	delete(m.moonOrder, planetID)
}

// detachMoonLocked unlinks a moon from whichever planet currently owns it.
func (m *MemoryStore) detachMoonLocked(id string) {
	existing, ok := m.moons[id]
	if !ok {
		return
	}
	m.moonOrder[existing.PlanetID] = slices.DeleteFunc(m.moonOrder[existing.PlanetID], func(moonID string) bool {
		return moonID == id
	})
	delete(m.moons, id)
}
