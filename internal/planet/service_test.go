package planet

import (
	"context"
	"testing"

	"planet-service/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()

	store := NewMemoryStore()
	return NewService(store, testLogger()), store
}

func TestServiceCreatePlanet(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.CreatePlanet(context.Background(), CreatePlanetRequest{
		Name:    "Earth",
		Gravity: float(9.807),
		Moons:   []CreateMoonRequest{{Name: "Moon"}, {Name: "Second Moon"}},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 9.807, *created.Gravity)
	assert.Nil(t, created.Size)
	require.Len(t, created.Moons, 2)
	assert.Equal(t, "Moon", created.Moons[0].Name)
	assert.NotEmpty(t, created.Moons[1].ID)
}

func TestServiceCreatePlanetValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     CreatePlanetRequest
		message string
	}{
		{
			name:    "missing planet name",
			req:     CreatePlanetRequest{},
			message: "name is required",
		},
		{
			name:    "empty moon name",
			req:     CreatePlanetRequest{Name: "Earth", Moons: []CreateMoonRequest{{Name: "Moon"}, {Name: ""}}},
			message: "moons[1].name is required",
		},
		{
			name:    "null moon entry",
			req:     CreatePlanetRequest{Name: "Earth", Moons: []CreateMoonRequest{{}}},
			message: "moons[0].name is required",
		},
		{
			name:    "repeated moon id",
			req:     CreatePlanetRequest{Name: "Earth", Moons: []CreateMoonRequest{{ID: "x", Name: "a"}, {Name: "b"}, {ID: "x", Name: "c"}}},
			message: "moons[2].id duplicates moons[0].id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)

			_, err := svc.CreatePlanet(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
			assert.Equal(t, tt.message, err.Error())

			planets, err := store.ListPlanets(context.Background())
			require.NoError(t, err)
			assert.Empty(t, planets)
			assert.Empty(t, store.moons)
		})
	}
}

func TestServiceDeletePlanet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreatePlanet(ctx, CreatePlanetRequest{Name: "Earth", Moons: []CreateMoonRequest{{Name: "Moon"}}})
	require.NoError(t, err)

	require.NoError(t, svc.DeletePlanet(ctx, created.ID))

	_, err = svc.GetPlanet(ctx, created.ID)
	assert.True(t, errors.IsNotFound(err))
	_, err = svc.GetMoon(ctx, created.Moons[0].ID)
	assert.True(t, errors.IsNotFound(err))

	assert.True(t, errors.IsNotFound(svc.DeletePlanet(ctx, created.ID)))
}
