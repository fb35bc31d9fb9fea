package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"crm-imobiliario/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.Handler) *GoogleProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{Google: config.GoogleCalendarConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/google-calendar-callback",
		CalendarID:   "primary",
		TimeZone:     "America/Sao_Paulo",
		APIURL:       srv.URL + "/",
		TokenURL:     srv.URL + "/token",
	}}
	return NewGoogleProvider(cfg).(*GoogleProvider)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestAuthURLAsksForOfflineConsent(t *testing.T) {
	p := newTestProvider(t, http.NotFoundHandler())

	u, err := url.Parse(p.AuthURL("state-1"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Contains(t, q.Get("scope"), "https://www.googleapis.com/auth/calendar.events")
}

func TestExchangeAndRefreshHitTokenEndpoint(t *testing.T) {
	var grants []string
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		grant := r.PostForm.Get("grant_type")
		grants = append(grants, grant)
		switch grant {
		case "authorization_code":
			assert.Equal(t, "code-1", r.PostForm.Get("code"))
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token": "access-1", "refresh_token": "refresh-1", "token_type": "Bearer", "expires_in": 3600,
			})
		case "refresh_token":
			assert.Equal(t, "refresh-1", r.PostForm.Get("refresh_token"))
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token": "access-2", "token_type": "Bearer", "expires_in": 3600,
			})
		default:
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unsupported_grant_type"})
		}
	})
	p := newTestProvider(t, mux)

	tok, err := p.Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)
	assert.Equal(t, "refresh-1", tok.RefreshToken)
	assert.True(t, tok.Expiry.After(time.Now().Add(50*time.Minute)))

	refreshed, err := p.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", refreshed.AccessToken)

	assert.Equal(t, []string{"authorization_code", "refresh_token"}, grants)
}

func TestExchangeFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
	})
	p := newTestProvider(t, mux)

	_, err := p.Exchange(context.Background(), "expired")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to exchange code")
}

func TestInsertEventSendsLocalTimes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))

		var body struct {
			Summary string `json:"summary"`
			Status  string `json:"status"`
			Start   struct {
				DateTime string `json:"dateTime"`
				TimeZone string `json:"timeZone"`
			} `json:"start"`
			End struct {
				DateTime string `json:"dateTime"`
			} `json:"end"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Visita: Ana - Rua A", body.Summary)
		assert.Equal(t, "confirmed", body.Status)
		assert.Equal(t, "2024-06-01T10:00:00-03:00", body.Start.DateTime)
		assert.Equal(t, "America/Sao_Paulo", body.Start.TimeZone)
		assert.Equal(t, "2024-06-01T11:00:00-03:00", body.End.DateTime)

		writeJSON(w, http.StatusOK, map[string]any{"id": "ev-1"})
	})
	p := newTestProvider(t, mux)

	start := time.Date(2024, 6, 1, 10, 0, 0, 0, p.Location)
	id, err := p.InsertEvent(context.Background(), "access-1", Event{
		Summary:  "Visita: Ana - Rua A",
		Start:    start,
		End:      start.Add(time.Hour),
		TimeZone: "America/Sao_Paulo",
		Status:   EventConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, "ev-1", id)
}

func TestDeleteEventAlreadyGone(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/calendars/primary/events/gone", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusGone, map[string]any{"error": map[string]any{"code": 410, "message": "Resource has been deleted"}})
	})
	mux.HandleFunc("/calendars/primary/events/broken", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": map[string]any{"code": 500, "message": "backend"}})
	})
	p := newTestProvider(t, mux)

	assert.NoError(t, p.DeleteEvent(context.Background(), "access-1", "gone"))
	assert.Error(t, p.DeleteEvent(context.Background(), "access-1", "broken"))
}

func TestListEventsIncludesCancelledAndAllDay(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("singleEvents"))
		assert.Equal(t, "true", q.Get("showDeleted"))
		assert.Equal(t, "startTime", q.Get("orderBy"))
		assert.Equal(t, "2024-06-01T00:00:00Z", q.Get("timeMin"))

		writeJSON(w, http.StatusOK, map[string]any{
			"items": []map[string]any{
				{
					"id":     "ev-1",
					"status": "cancelled",
					"start":  map[string]any{"dateTime": "2024-06-01T14:00:00-03:00"},
					"end":    map[string]any{"dateTime": "2024-06-01T15:30:00-03:00"},
				},
				{
					"id":     "ev-2",
					"status": "confirmed",
					"start":  map[string]any{"date": "2024-06-02"},
					"end":    map[string]any{"date": "2024-06-03"},
				},
			},
		})
	})
	p := newTestProvider(t, mux)

	events, err := p.ListEvents(context.Background(), "access-1", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, EventCancelled, events[0].Status)
	assert.Equal(t, 90*time.Minute, events[0].End.Sub(events[0].Start))
	assert.True(t, events[0].Start.Equal(time.Date(2024, 6, 1, 17, 0, 0, 0, time.UTC)))

	assert.Equal(t, 0, events[1].Start.In(p.Location).Hour())
	assert.Equal(t, 24*time.Hour, events[1].End.Sub(events[1].Start))
}
