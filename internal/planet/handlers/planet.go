package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"planet-service/internal/planet"
	"planet-service/internal/shared/config"
	"planet-service/internal/shared/errors"
	"planet-service/internal/shared/response"
)

const maxBodyBytes = 1 << 20

type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// PlanetSummary is the list representation; moons are only expanded on the
// single planet view.
type PlanetSummary struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Gravity *float64 `json:"gravity,omitempty"`
	Size    *float64 `json:"size,omitempty"`
	Links   []Link   `json:"links"`
}

type PlanetDetail struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Gravity *float64   `json:"gravity,omitempty"`
	Size    *float64   `json:"size,omitempty"`
	Moons   []MoonView `json:"moons"`
	Links   []Link     `json:"links"`
}

type MoonView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PlanetHandler struct {
	service           *planet.Service
	serverURL         string
	linksUseServerURL bool
}

func NewPlanetHandler(service *planet.Service, cfg config.ServerConfig) *PlanetHandler {
	return &PlanetHandler{
		service:           service,
		serverURL:         strings.TrimRight(cfg.URL, "/"),
		linksUseServerURL: cfg.LinksUseServerURL,
	}
}

func (h *PlanetHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "list_planets")

	planets, err := h.service.ListPlanets(r.Context())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	base := h.baseURL(r)
	views := make([]PlanetSummary, len(planets))
	for i, p := range planets {
		views[i] = PlanetSummary{
			ID:      p.ID,
			Name:    p.Name,
			Gravity: p.Gravity,
			Size:    p.Size,
			Links:   selfLinks(base, p.ID),
		}
	}

	response.Success(w, http.StatusOK, views)
}

func (h *PlanetHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_planet")

	id := r.PathValue("id")
	if id == "" {
		response.Error(w, r, logger, errors.Validation("planet ID is required"))
		return
	}

	p, err := h.service.GetPlanet(r.Context(), id)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, detailView(h.baseURL(r), p))
}

func (h *PlanetHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "create_planet")

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req planet.CreatePlanetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, decodeError(err))
		return
	}

	created, err := h.service.CreatePlanet(r.Context(), req)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated, detailView(h.baseURL(r), created))
}

func (h *PlanetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "delete_planet")

	id := r.PathValue("id")
	if id == "" {
		response.Error(w, r, logger, errors.Validation("planet ID is required"))
		return
	}

	if err := h.service.DeletePlanet(r.Context(), id); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, nil)
}

// baseURL is SERVER_URL when configured for it, otherwise the scheme and host
// the client used to reach us.
func (h *PlanetHandler) baseURL(r *http.Request) string {
	if h.linksUseServerURL && h.serverURL != "" {
		return h.serverURL
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme, _, _ = strings.Cut(proto, ",")
		scheme = strings.TrimSpace(scheme)
	}

	return scheme + "://" + r.Host
}

func selfLinks(base, id string) []Link {
	return []Link{{Rel: "self", Href: base + "/planet/" + url.PathEscape(id)}}
}

func detailView(base string, p *planet.Planet) PlanetDetail {
	moons := make([]MoonView, len(p.Moons))
	for i, m := range p.Moons {
		moons[i] = MoonView{ID: m.ID, Name: m.Name}
	}

	return PlanetDetail{
		ID:      p.ID,
		Name:    p.Name,
		Gravity: p.Gravity,
		Size:    p.Size,
		Moons:   moons,
		Links:   selfLinks(base, p.ID),
	}
}

func decodeError(err error) error {
	var maxBytesErr *http.MaxBytesError
	switch {
	case stderrors.As(err, &maxBytesErr):
		return errors.Validationf("request body exceeds %d bytes", maxBytesErr.Limit)
	case stderrors.Is(err, io.EOF):
		return errors.Validation("request body is required")
	default:
		return errors.WrapValidation("invalid request body", err)
	}
}
