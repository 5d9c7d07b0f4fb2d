package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eventmesh-lab/events-service/internal/app"
	"github.com/eventmesh-lab/events-service/internal/domain"
)

// EventService is what the event endpoints need from the application layer.
type EventService interface {
	CreateEvent(ctx context.Context, cmd app.CreateEventCommand) (app.CommandResult, error)
	PublishEvent(ctx context.Context, cmd app.PublishEventCommand) (app.CommandResult, error)
	FinalizeEvent(ctx context.Context, cmd app.FinalizeEventCommand) (app.CommandResult, error)
	CancelEvent(ctx context.Context, cmd app.CancelEventCommand) (app.CommandResult, error)
	AddSection(ctx context.Context, cmd app.AddSectionCommand) (app.CommandResult, error)
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
}

const maxBodyBytes = 1 << 20

type createEventRequest struct {
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Date            string           `json:"date"`
	DurationHours   int              `json:"durationHours"`
	DurationMinutes int              `json:"durationMinutes"`
	Sections        []sectionRequest `json:"sections"`
}

type sectionRequest struct {
	Name     string          `json:"name"`
	Capacity int             `json:"capacity"`
	Price    decimal.Decimal `json:"price"`
}

type idResponse struct {
	ID string `json:"id"`
}

type eventResponse struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Date            time.Time         `json:"date"`
	DurationHours   int               `json:"durationHours"`
	DurationMinutes int               `json:"durationMinutes"`
	State           string            `json:"state"`
	Version         int64             `json:"version"`
	CreatedAt       time.Time         `json:"createdAt"`
	PublishedAt     *time.Time        `json:"publishedAt,omitempty"`
	Sections        []sectionResponse `json:"sections"`
}

type sectionResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Price    string `json:"price"`
}

// HandleCreateEvent drafts a new event. date accepts RFC 3339 or YYYY-MM-DD.
func HandleCreateEvent(svc EventService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createEventRequest
		if !decodeBody(w, r, &req) {
			return
		}

		cmd := app.CreateEventCommand{
			Name:            req.Name,
			Description:     req.Description,
			DurationHours:   req.DurationHours,
			DurationMinutes: req.DurationMinutes,
		}
		if req.Date != "" {
			date, err := parseDate(req.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidDate, "date must be RFC 3339 or YYYY-MM-DD")
				return
			}
			cmd.Date = date
		}
		if req.Sections != nil {
			cmd.Sections = make([]app.SectionInput, 0, len(req.Sections))
			for _, s := range req.Sections {
				cmd.Sections = append(cmd.Sections, app.SectionInput{Name: s.Name, Capacity: s.Capacity, Price: s.Price})
			}
		}

		res, err := svc.CreateEvent(r.Context(), cmd)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, idResponse{ID: res.EventID})
	}
}

func HandlePublishEvent(svc EventService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := svc.PublishEvent(r.Context(), app.PublishEventCommand{EventID: chi.URLParam(r, "id")})
		writeNoContent(w, logger, err)
	}
}

func HandleFinalizeEvent(svc EventService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := svc.FinalizeEvent(r.Context(), app.FinalizeEventCommand{EventID: chi.URLParam(r, "id")})
		writeNoContent(w, logger, err)
	}
}

func HandleCancelEvent(svc EventService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := svc.CancelEvent(r.Context(), app.CancelEventCommand{EventID: chi.URLParam(r, "id")})
		writeNoContent(w, logger, err)
	}
}

func HandleAddSection(svc EventService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sectionRequest
		if !decodeBody(w, r, &req) {
			return
		}

		res, err := svc.AddSection(r.Context(), app.AddSectionCommand{
			EventID:  chi.URLParam(r, "id"),
			Name:     req.Name,
			Capacity: req.Capacity,
			Price:    req.Price,
		})
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, idResponse{ID: res.SectionID})
	}
}

func HandleGetEvent(svc EventService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(event))
	}
}

func toEventResponse(e *domain.Event) eventResponse {
	snap := e.Snapshot()
	sections := make([]sectionResponse, 0, len(snap.Sections))
	for _, s := range snap.Sections {
		sections = append(sections, sectionResponse{
			ID:       s.ID,
			Name:     s.Name,
			Capacity: s.Capacity,
			Price:    s.Price.StringFixed(2),
		})
	}
	return eventResponse{
		ID:              snap.ID,
		Name:            snap.Name,
		Description:     snap.Description,
		Date:            snap.Date,
		DurationHours:   snap.DurationHours,
		DurationMinutes: snap.DurationMinutes,
		State:           snap.State.String(),
		Version:         snap.Version,
		CreatedAt:       snap.CreatedAt,
		PublishedAt:     snap.PublishedAt,
		Sections:        sections,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return false
	}
	return true
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func writeNoContent(w http.ResponseWriter, logger *zap.Logger, err error) {
	if err != nil {
		writeServiceError(w, logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
