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

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/gallery/models"
	"atelier/internal/generation"
	historymodels "atelier/internal/history/models"
	dErrors "atelier/pkg/domain-errors"
)

type fakeRunner struct {
	cost    int
	costErr error
	outcome *generation.Outcome
	runErr  error
	lastReq generation.Request
}

func (f *fakeRunner) Cost(generation.Request) (int, error) {
	return f.cost, f.costErr
}

func (f *fakeRunner) Run(_ context.Context, req generation.Request) (*generation.Outcome, error) {
	f.lastReq = req
	return f.outcome, f.runErr
}

func newGenerateRouter(service *fakeRunner) *chi.Mux {
	h := New(service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestCost(t *testing.T) {
	t.Run("quotes without spending", func(t *testing.T) {
		router := newGenerateRouter(&fakeRunner{cost: 6})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate/cost",
			strings.NewReader(`{"toolId":"dress-the-model","model":"imagine-v3"}`)))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"cost":6}`, rec.Body.String())
	})

	t.Run("unknown tool is 404", func(t *testing.T) {
		router := newGenerateRouter(&fakeRunner{
			costErr: dErrors.New(dErrors.CodeNotFound, "tool not registered"),
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate/cost",
			strings.NewReader(`{"toolId":"mystery"}`)))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGenerate(t *testing.T) {
	t.Run("completed run returns images and history", func(t *testing.T) {
		service := &fakeRunner{outcome: &generation.Outcome{
			Proceeded: true,
			Cost:      1,
			Images:    []models.GalleryImage{{ID: "g1", URL: "https://cdn.example/g1.png"}},
			History:   historymodels.Entry{ID: "h1", ToolID: "free-generation"},
		}}
		router := newGenerateRouter(service)

		body := `{"toolId":"free-generation","prompt":"dunes","numberOfImages":2}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp GenerateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Proceeded)
		require.Len(t, resp.Images, 1)
		require.NotNil(t, resp.History)
		assert.Equal(t, "h1", resp.History.ID)
		assert.Equal(t, 2, service.lastReq.NumberOfImages)
	})

	t.Run("refused spend is 402 without history", func(t *testing.T) {
		service := &fakeRunner{outcome: &generation.Outcome{Proceeded: false, Cost: 2}}
		router := newGenerateRouter(service)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate",
			strings.NewReader(`{"toolId":"free-generation"}`)))

		require.Equal(t, http.StatusPaymentRequired, rec.Code)
		var resp GenerateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Proceeded)
		assert.Nil(t, resp.History)
	})

	t.Run("defaults numberOfImages to one", func(t *testing.T) {
		service := &fakeRunner{outcome: &generation.Outcome{Proceeded: true}}
		router := newGenerateRouter(service)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate",
			strings.NewReader(`{"toolId":"free-generation"}`)))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, service.lastReq.NumberOfImages)
	})

	t.Run("duplicate input images are collapsed", func(t *testing.T) {
		service := &fakeRunner{outcome: &generation.Outcome{Proceeded: true}}
		router := newGenerateRouter(service)

		body := `{"toolId":"photo-restoration","inputImages":[" a.png ","a.png","b.png"]}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"a.png", "b.png"}, service.lastReq.InputImages)
	})

	t.Run("oversized batch is rejected", func(t *testing.T) {
		router := newGenerateRouter(&fakeRunner{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate",
			strings.NewReader(`{"toolId":"free-generation","numberOfImages":50}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("generator failure is a server error", func(t *testing.T) {
		router := newGenerateRouter(&fakeRunner{
			runErr: dErrors.New(dErrors.CodeInternal, "generator returned no output"),
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate",
			strings.NewReader(`{"toolId":"free-generation"}`)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
