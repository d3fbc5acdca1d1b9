package planet

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"planet-service/internal/shared/errors"
	"planet-service/internal/shared/metrics"

	"github.com/go-playground/validator/v10"
)

// CreatePlanetRequest is the payload accepted by POST /planet.
type CreatePlanetRequest struct {
	ID      string              `json:"id"`
	Name    string              `json:"name" validate:"required"`
	Gravity *float64            `json:"gravity"`
	Size    *float64            `json:"size"`
	Moons   []CreateMoonRequest `json:"moons" validate:"dive"`
}

type CreateMoonRequest struct {
	ID   string `json:"id"`
	Name string `json:"name" validate:"required"`
}

type Service struct {
	store    Store
	validate *validator.Validate
	logger   *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	logger.Debug("Initializing planet service")

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		return name
	})

	return &Service{
		store:    store,
		validate: validate,
		logger:   logger,
	}
}

func (s *Service) ListPlanets(ctx context.Context) ([]Planet, error) {
	return s.store.ListPlanets(ctx)
}

func (s *Service) GetPlanet(ctx context.Context, id string) (*Planet, error) {
	return s.store.GetPlanet(ctx, id)
}

// GetMoon has no route; callers use it to check that a planet's moons are gone.
func (s *Service) GetMoon(ctx context.Context, id string) (*Moon, error) {
	return s.store.GetMoon(ctx, id)
}

// CreatePlanet validates the request before anything is persisted, so a
// rejected payload leaves the store untouched.
func (s *Service) CreatePlanet(ctx context.Context, req CreatePlanetRequest) (*Planet, error) {
	logger := s.logger.With(
		"component", "planet_service",
		"operation", "create_planet",
		"planet_name", req.Name,
		"moon_count", len(req.Moons),
	)
	logger.Debug("Creating planet")

	if err := s.validateRequest(req); err != nil {
		logger.Debug("Rejected planet payload", "error", err)
		return nil, err
	}

	planet := Planet{
		ID:      req.ID,
		Name:    req.Name,
		Gravity: req.Gravity,
		Size:    req.Size,
		Moons:   make([]Moon, len(req.Moons)),
	}
	for i, m := range req.Moons {
		planet.Moons[i] = Moon{ID: m.ID, Name: m.Name}
	}

	created, err := s.store.CreatePlanet(ctx, planet)
	if err != nil {
		return nil, err
	}

	metrics.RecordPlanetCreated(len(created.Moons))
	logger.Info("Planet created", "planet_id", created.ID)
	return created, nil
}

func (s *Service) DeletePlanet(ctx context.Context, id string) error {
	logger := s.logger.With("component", "planet_service", "operation", "delete_planet", "planet_id", id)

	if err := s.store.DeletePlanet(ctx, id); err != nil {
		return err
	}

	metrics.RecordPlanetDeleted()
	logger.Info("Planet deleted")
	return nil
}

func (s *Service) validateRequest(req CreatePlanetRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return duplicateMoonIDs(req.Moons)
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.WrapValidation("invalid planet payload", err)
	}

	messages := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		messages[i] = fieldMessage(fe)
	}
	return errors.Validation(strings.Join(messages, "; "))
}

// fieldMessage renders a failure using the JSON path, e.g. "moons[1].name is required".
func fieldMessage(fe validator.FieldError) string {
	path := fe.Namespace()
	if _, rest, ok := strings.Cut(path, "."); ok {
		path = rest
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", path)
	default:
		return fmt.Sprintf("%s is invalid", path)
	}
}

// duplicateMoonIDs rejects a payload that names the same moon id twice.
func duplicateMoonIDs(moons []CreateMoonRequest) error {
	seen := make(map[string]int, len(moons))
	for i, m := range moons {
		if m.ID == "" {
			continue
		}
		if first, ok := seen[m.ID]; ok {
			return errors.Validationf("moons[%d].id duplicates moons[%d].id", i, first)
		}
		seen[m.ID] = i
	}
	return nil
}
