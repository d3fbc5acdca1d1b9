package planet

import (
	"context"
	"testing"

	"planet-service/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behavior every Store implementation shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("list empty", func(t *testing.T) {
		store := newStore(t)

		planets, err := store.ListPlanets(ctx)
		require.NoError(t, err)
		assert.Empty(t, planets)
	})

	t.Run("list keeps insertion order and omits moons", func(t *testing.T) {
		store := newStore(t)

		_, err := store.CreatePlanet(ctx, Planet{ID: "earth-planet", Name: "Earth", Gravity: float(9.807), Size: float(6371)})
		require.NoError(t, err)
		_, err = store.CreatePlanet(ctx, Planet{ID: "another-planet", Name: "Another Planet", Moons: []Moon{{Name: "Phobos"}}})
		require.NoError(t, err)
		_, err = store.CreatePlanet(ctx, Planet{Name: "Generated"})
		require.NoError(t, err)

		planets, err := store.ListPlanets(ctx)
		require.NoError(t, err)
		require.Len(t, planets, 3)

		assert.Equal(t, "earth-planet", planets[0].ID)
		assert.Equal(t, 9.807, *planets[0].Gravity)
		assert.Equal(t, 6371.0, *planets[0].Size)
		assert.Equal(t, "another-planet", planets[1].ID)
		assert.Empty(t, planets[1].Moons)
		assert.Equal(t, "Generated", planets[2].Name)
		assert.NotEmpty(t, planets[2].ID)
	})

	t.Run("get returns moons in insertion order", func(t *testing.T) {
		store := newStore(t)

		_, err := store.CreatePlanet(ctx, Planet{ID: "another-planet", Name: "Another Planet"})
		require.NoError(t, err)
		_, err = store.CreatePlanet(ctx, Planet{ID: "search-planet", Name: "Planet we search", Gravity: float(2.11), Size: float(1.23)})
		require.NoError(t, err)
		first, err := store.SaveMoon(ctx, "search-planet", Moon{ID: "first-moon-id", Name: "First Moon"})
		require.NoError(t, err)
		second, err := store.SaveMoon(ctx, "search-planet", Moon{Name: "Second Moon"})
		require.NoError(t, err)
		assert.NotEmpty(t, second.ID)

		planet, err := store.GetPlanet(ctx, "search-planet")
		require.NoError(t, err)

		assert.Equal(t, "Planet we search", planet.Name)
		assert.Equal(t, 2.11, *planet.Gravity)
		assert.Equal(t, 1.23, *planet.Size)
		require.Len(t, planet.Moons, 2)
		assert.Equal(t, first.ID, planet.Moons[0].ID)
		assert.Equal(t, "First Moon", planet.Moons[0].Name)
		assert.Equal(t, second.ID, planet.Moons[1].ID)
		assert.Equal(t, "search-planet", planet.Moons[1].PlanetID)

		other, err := store.GetPlanet(ctx, "another-planet")
		require.NoError(t, err)
		assert.NotNil(t, other.Moons)
		assert.Empty(t, other.Moons)
	})

	t.Run("get unknown", func(t *testing.T) {
		store := newStore(t)

		_, err := store.GetPlanet(ctx, "unknown-planet")
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("create assigns ids to nested moons", func(t *testing.T) {
		store := newStore(t)

		created, err := store.CreatePlanet(ctx, Planet{Name: "Earth", Moons: []Moon{{Name: "moon"}, {Name: "second"}}})
		require.NoError(t, err)
		require.Len(t, created.Moons, 2)
		assert.NotEmpty(t, created.Moons[0].ID)
		assert.NotEqual(t, created.Moons[0].ID, created.Moons[1].ID)
		assert.Nil(t, created.Gravity)
		assert.Nil(t, created.Size)

		moon, err := store.GetMoon(ctx, created.Moons[1].ID)
		require.NoError(t, err)
		assert.Equal(t, "second", moon.Name)
		assert.Equal(t, created.ID, moon.PlanetID)
	})

	t.Run("create collapses repeated moon ids", func(t *testing.T) {
		store := newStore(t)

		created, err := store.CreatePlanet(ctx, Planet{ID: "earth", Name: "Earth", Moons: []Moon{
			{ID: "x", Name: "a"},
			{ID: "x", Name: "b"},
			{ID: "y", Name: "c"},
		}})
		require.NoError(t, err)
		require.Len(t, created.Moons, 2)
		assert.Equal(t, "x", created.Moons[0].ID)
		assert.Equal(t, "b", created.Moons[0].Name)
		assert.Equal(t, "y", created.Moons[1].ID)

		planet, err := store.GetPlanet(ctx, "earth")
		require.NoError(t, err)
		require.Len(t, planet.Moons, 2)
		assert.Equal(t, "x", planet.Moons[0].ID)
		assert.Equal(t, "b", planet.Moons[0].Name)
		assert.Equal(t, "y", planet.Moons[1].ID)
	})

	t.Run("create with existing id replaces planet and moons", func(t *testing.T) {
		store := newStore(t)

		original, err := store.CreatePlanet(ctx, Planet{ID: "earth", Name: "Earth", Gravity: float(9.8), Moons: []Moon{{Name: "Luna"}}})
		require.NoError(t, err)
		_, err = store.CreatePlanet(ctx, Planet{ID: "mars", Name: "Mars"})
		require.NoError(t, err)

		_, err = store.CreatePlanet(ctx, Planet{ID: "earth", Name: "Terra", Moons: []Moon{{Name: "Selene"}}})
		require.NoError(t, err)

		planets, err := store.ListPlanets(ctx)
		require.NoError(t, err)
		require.Len(t, planets, 2)
		assert.Equal(t, "earth", planets[0].ID)
		assert.Equal(t, "Terra", planets[0].Name)
		assert.Nil(t, planets[0].Gravity)

		planet, err := store.GetPlanet(ctx, "earth")
		require.NoError(t, err)
		require.Len(t, planet.Moons, 1)
		assert.Equal(t, "Selene", planet.Moons[0].Name)

		_, err = store.GetMoon(ctx, original.Moons[0].ID)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("delete cascades to moons", func(t *testing.T) {
		store := newStore(t)

		_, err := store.CreatePlanet(ctx, Planet{ID: "another-planet", Name: "Another Planet", Moons: []Moon{{ID: "kept-moon", Name: "Kept"}}})
		require.NoError(t, err)
		_, err = store.CreatePlanet(ctx, Planet{ID: "search-planet", Name: "Planet we search"})
		require.NoError(t, err)
		_, err = store.SaveMoon(ctx, "search-planet", Moon{ID: "first-moon-id", Name: "First Moon"})
		require.NoError(t, err)
		_, err = store.SaveMoon(ctx, "search-planet", Moon{ID: "second-moon-id", Name: "Second Moon"})
		require.NoError(t, err)

		require.NoError(t, store.DeletePlanet(ctx, "search-planet"))

		_, err = store.GetPlanet(ctx, "search-planet")
		assert.True(t, errors.IsNotFound(err))
		_, err = store.GetMoon(ctx, "first-moon-id")
		assert.True(t, errors.IsNotFound(err))
		_, err = store.GetMoon(ctx, "second-moon-id")
		assert.True(t, errors.IsNotFound(err))

		kept, err := store.GetMoon(ctx, "kept-moon")
		require.NoError(t, err)
		assert.Equal(t, "another-planet", kept.PlanetID)

		planets, err := store.ListPlanets(ctx)
		require.NoError(t, err)
		require.Len(t, planets, 1)
		assert.Equal(t, "another-planet", planets[0].ID)
	})

	t.Run("delete unknown", func(t *testing.T) {
		store := newStore(t)

		err := store.DeletePlanet(ctx, "unknown-id")
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("delete twice", func(t *testing.T) {
		store := newStore(t)

		_, err := store.CreatePlanet(ctx, Planet{ID: "delete-me-id", Name: "Planet"})
		require.NoError(t, err)

		require.NoError(t, store.DeletePlanet(ctx, "delete-me-id"))
		assert.True(t, errors.IsNotFound(store.DeletePlanet(ctx, "delete-me-id")))
	})

	t.Run("save moon on unknown planet", func(t *testing.T) {
		store := newStore(t)

		_, err := store.SaveMoon(ctx, "ghost", Moon{Name: "Lost"})
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("save moon moves it between planets", func(t *testing.T) {
		store := newStore(t)

		_, err := store.CreatePlanet(ctx, Planet{ID: "earth", Name: "Earth", Moons: []Moon{{ID: "luna", Name: "Luna"}}})
		require.NoError(t, err)
		_, err = store.CreatePlanet(ctx, Planet{ID: "mars", Name: "Mars"})
		require.NoError(t, err)

		_, err = store.SaveMoon(ctx, "mars", Moon{ID: "luna", Name: "Luna"})
		require.NoError(t, err)

		earth, err := store.GetPlanet(ctx, "earth")
		require.NoError(t, err)
		assert.Empty(t, earth.Moons)

		mars, err := store.GetPlanet(ctx, "mars")
		require.NoError(t, err)
		require.Len(t, mars.Moons, 1)
		assert.Equal(t, "luna", mars.Moons[0].ID)
	})
}

func TestWithIDs(t *testing.T) {
	p := withIDs(Planet{Name: "Earth", Moons: []Moon{{Name: "Moon"}, {ID: "fixed", Name: "Fixed"}}})

	assert.NotEmpty(t, p.ID)
	assert.NotEmpty(t, p.Moons[0].ID)
	assert.Equal(t, "fixed", p.Moons[1].ID)
	for _, m := range p.Moons {
		assert.Equal(t, p.ID, m.PlanetID)
	}

	kept := withIDs(Planet{ID: "earth", Name: "Earth"})
	assert.Equal(t, "earth", kept.ID)
	assert.NotNil(t, kept.Moons)
}

func TestWithIDsCollapsesRepeatedMoonIDs(t *testing.T) {
	p := withIDs(Planet{ID: "earth", Name: "Earth", Moons: []Moon{{ID: "x", Name: "a"}, {Name: "generated"}, {ID: "x", Name: "b"}}})

	require.Len(t, p.Moons, 2)
	assert.Equal(t, Moon{ID: "x", Name: "b", PlanetID: "earth"}, p.Moons[0])
	assert.Equal(t, "generated", p.Moons[1].Name)
}
