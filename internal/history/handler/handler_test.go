package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/history/models"
	dErrors "atelier/pkg/domain-errors"
)

type fakeRecorder struct {
	entries   []models.Entry
	listErr   error
	recordErr error
}

func (f *fakeRecorder) Entries(context.Context) ([]models.Entry, error) {
	return f.entries, f.listErr
}

func (f *fakeRecorder) Record(_ context.Context, entry models.Entry) (models.Entry, error) {
	if f.recordErr != nil {
		return models.Entry{}, f.recordErr
	}
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	f.entries = append([]models.Entry{entry}, f.entries...)
	return entry, nil
}

func newHistoryRouter(service *fakeRecorder) *chi.Mux {
	h := New(service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestList(t *testing.T) {
	t.Run("returns entries", func(t *testing.T) {
		service := &fakeRecorder{entries: []models.Entry{
			{ID: "h2", ToolID: "free-generation"},
			{ID: "h1", ToolID: "swap-style"},
		}}
		router := newHistoryRouter(service)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp ListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Entries, 2)
		assert.Equal(t, "h2", resp.Entries[0].ID)
	})

	t.Run("read failure surfaces the coded error", func(t *testing.T) {
		service := &fakeRecorder{listErr: dErrors.New(dErrors.CodeInternal, "cache read failed")}
		router := newHistoryRouter(service)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestRecord(t *testing.T) {
	t.Run("fills id and timestamp", func(t *testing.T) {
		service := &fakeRecorder{}
		router := newHistoryRouter(service)

		body := `{"toolId":"free-generation","prompt":"dunes at noon","imageUrls":["https://cdn.example/a.png"]}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/history", strings.NewReader(body)))

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp models.Entry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.ID)
		assert.False(t, resp.CreatedAt.IsZero())
		assert.Equal(t, "dunes at noon", resp.Prompt)
	})

	t.Run("missing toolId is rejected", func(t *testing.T) {
		router := newHistoryRouter(&fakeRecorder{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/history",
			strings.NewReader(`{"prompt":"no tool"}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
