package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/eventmesh-lab/events-service/internal/app"
	"github.com/eventmesh-lab/events-service/internal/domain"
)

const testEventID = "6f1c7f0e-8a3b-4d7e-9a44-2f0c1b9d5e11"

type fakeEventService struct {
	err      error
	event    *domain.Event
	created  app.CreateEventCommand
	added    app.AddSectionCommand
	lastID   string
	lastVerb string
}

func (f *fakeEventService) CreateEvent(_ context.Context, cmd app.CreateEventCommand) (app.CommandResult, error) {
	f.created = cmd
	if f.err != nil {
		return app.CommandResult{}, f.err
	}
	return app.CommandResult{EventID: testEventID}, nil
}

func (f *fakeEventService) PublishEvent(_ context.Context, cmd app.PublishEventCommand) (app.CommandResult, error) {
	f.lastID, f.lastVerb = cmd.EventID, "publish"
	return app.CommandResult{EventID: cmd.EventID}, f.err
}

func (f *fakeEventService) FinalizeEvent(_ context.Context, cmd app.FinalizeEventCommand) (app.CommandResult, error) {
	f.lastID, f.lastVerb = cmd.EventID, "finalize"
	return app.CommandResult{EventID: cmd.EventID}, f.err
}

func (f *fakeEventService) CancelEvent(_ context.Context, cmd app.CancelEventCommand) (app.CommandResult, error) {
	f.lastID, f.lastVerb = cmd.EventID, "cancel"
	return app.CommandResult{EventID: cmd.EventID}, f.err
}

func (f *fakeEventService) AddSection(_ context.Context, cmd app.AddSectionCommand) (app.CommandResult, error) {
	f.added = cmd
	if f.err != nil {
		return app.CommandResult{}, f.err
	}
	return app.CommandResult{EventID: cmd.EventID, SectionID: "section-2"}, nil
}

func (f *fakeEventService) GetEvent(_ context.Context, id string) (*domain.Event, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

func serve(t *testing.T, svc *fakeEventService, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(RouterConfig{Service: svc})
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandleCreateEvent(t *testing.T) {
	t.Parallel()

	t.Run("created", func(t *testing.T) {
		t.Parallel()
		svc := &fakeEventService{}
		rec := serve(t, svc, http.MethodPost, "/events", `{
			"name": "Rock Concert",
			"description": "Open air",
			"date": "2030-07-01",
			"durationHours": 3,
			"durationMinutes": 0,
			"sections": [{"name": "General", "capacity": 500, "price": 50.00}]
		}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp idResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, testEventID, resp.ID)

		require.Equal(t, "Rock Concert", svc.created.Name)
		require.Equal(t, time.Date(2030, 7, 1, 0, 0, 0, 0, time.UTC), svc.created.Date)
		require.Len(t, svc.created.Sections, 1)
		require.True(t, decimal.NewFromInt(50).Equal(svc.created.Sections[0].Price))
	})

	t.Run("rfc3339 date", func(t *testing.T) {
		t.Parallel()
		svc := &fakeEventService{}
		rec := serve(t, svc, http.MethodPost, "/events/", `{"name":"x","date":"2030-07-01T20:00:00+02:00","sections":[]}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.True(t, svc.created.Date.Equal(time.Date(2030, 7, 1, 18, 0, 0, 0, time.UTC)))
		require.NotNil(t, svc.created.Sections)
	})

	t.Run("bad date", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, &fakeEventService{}, http.MethodPost, "/events", `{"name":"x","date":"next friday"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, codeInvalidDate, decodeError(t, rec).Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, &fakeEventService{}, http.MethodPost, "/events", `{"title":"x"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, codeInvalidRequestBody, decodeError(t, rec).Code)
	})

	t.Run("validation details", func(t *testing.T) {
		t.Parallel()
		svc := &fakeEventService{err: &app.ValidationError{Violations: []app.FieldViolation{
			{Field: "name", Message: "must not be blank"},
			{Field: "sections", Message: "is required"},
		}}}
		rec := serve(t, svc, http.MethodPost, "/events", `{"name":""}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		resp := decodeError(t, rec)
		require.Equal(t, codeValidationFailed, resp.Code)
		require.Len(t, resp.Details, 2)
		require.Equal(t, "sections", resp.Details[1].Field)
		require.Nil(t, svc.created.Sections)
	})

	t.Run("saved but not delivered", func(t *testing.T) {
		t.Parallel()
		svc := &fakeEventService{err: &app.PublishError{EventID: testEventID, Err: errors.New("broker down")}}
		rec := serve(t, svc, http.MethodPost, "/events", `{"name":"x"}`)
		require.Equal(t, http.StatusBadGateway, rec.Code)

		resp := decodeError(t, rec)
		require.Equal(t, codeEventBusUnavailable, resp.Code)
		require.Contains(t, resp.Error, testEventID)
	})
}

func TestLifecycleEndpoints(t *testing.T) {
	t.Parallel()

	for _, verb := range []string{"publish", "finalize", "cancel"} {
		verb := verb
		t.Run(verb, func(t *testing.T) {
			t.Parallel()
			svc := &fakeEventService{}
			rec := serve(t, svc, http.MethodPost, "/events/"+testEventID+"/"+verb, "")
			require.Equal(t, http.StatusNoContent, rec.Code)
			require.Equal(t, testEventID, svc.lastID)
			require.Equal(t, verb, svc.lastVerb)
		})
	}
}

func TestServiceErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "not found", err: domain.ErrEventNotFound, status: http.StatusNotFound, code: codeEventNotFound},
		{name: "invalid id", err: domain.ErrInvalidID, status: http.StatusNotFound, code: codeInvalidID},
		{name: "invalid state", err: &domain.InvalidStateError{Operation: "publish", Current: domain.StatePublished}, status: http.StatusConflict, code: codeInvalidState},
		{name: "duplicate", err: domain.ErrDuplicateEntity, status: http.StatusConflict, code: codeSectionAlreadyExists},
		{name: "stale", err: domain.ErrConcurrentUpdate, status: http.StatusConflict, code: codeConcurrentUpdate},
		{name: "null value", err: domain.ErrNullValue, status: http.StatusBadRequest, code: codeMissingRequiredField},
		{name: "invalid argument", err: domain.ErrInvalidArgument, status: http.StatusBadRequest, code: codeInvalidArgument},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, code: codeInternalError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(t, &fakeEventService{err: tc.err}, http.MethodPost, "/events/"+testEventID+"/publish", "")
			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, tc.code, decodeError(t, rec).Code)
		})
	}

	t.Run("invalid state names current state", func(t *testing.T) {
		t.Parallel()
		err := &domain.InvalidStateError{Operation: "publish", Current: domain.StateCancelled}
		rec := serve(t, &fakeEventService{err: err}, http.MethodPost, "/events/"+testEventID+"/publish", "")
		require.Contains(t, decodeError(t, rec).Error, "Cancelled")
	})
}

func TestHandleAddSection(t *testing.T) {
	t.Parallel()

	svc := &fakeEventService{}
	rec := serve(t, svc, http.MethodPost, "/events/"+testEventID+"/sections", `{"name":"VIP","capacity":20,"price":"120.50"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp idResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "section-2", resp.ID)
	require.Equal(t, testEventID, svc.added.EventID)
	require.Equal(t, "VIP", svc.added.Name)
	require.Equal(t, "120.5", svc.added.Price.String())
}

func TestHandleGetEvent(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	price, err := domain.NewPrice(decimal.RequireFromString("50"))
	require.NoError(t, err)
	section, err := domain.NewSection("General", 500, price)
	require.NoError(t, err)
	duration, err := domain.NewDuration(2, 0)
	require.NoError(t, err)
	event, err := domain.NewEvent(domain.NewEventParams{
		Name:     "Rock Concert",
		Date:     now.AddDate(0, 0, 1),
		Duration: duration,
		Sections: []*domain.Section{section},
	}, now)
	require.NoError(t, err)

	svc := &fakeEventService{event: event}
	rec := serve(t, svc, http.MethodGet, "/events/"+event.ID(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp eventResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, event.ID(), resp.ID)
	require.Equal(t, "Draft", resp.State)
	require.Nil(t, resp.PublishedAt)
	require.Len(t, resp.Sections, 1)
	require.Equal(t, "50.00", resp.Sections[0].Price)
}
