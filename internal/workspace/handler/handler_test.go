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

	"atelier/internal/workspace/models"
	"atelier/internal/workspace/stack"
	"atelier/internal/workspace/urlsync"
)

// stackNavigator routes navigation straight to the stack and an in-process
// address bar, standing in for the URL synchronizer.
type stackNavigator struct {
	stack  *stack.Stack
	router *urlsync.MemoryRouter
}

func (n *stackNavigator) Navigate(_ context.Context, target models.ViewID) error {
	if err := n.stack.NavigateTo(target); err != nil {
		return err
	}
	n.router.Push(urlsync.PathFor(target))
	return nil
}

func (n *stackNavigator) Page() (int, bool) { return n.router.PageParam() }

func (n *stackNavigator) SetPage(page int) { n.router.SetPageParam(page) }

func newRouter(t *testing.T) (*chi.Mux, *stack.Stack) {
	t.Helper()
	st := stack.New()
	h := New(st, &stackNavigator{stack: st, router: urlsync.NewMemoryRouter()},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	return r, st
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeCurrent(t *testing.T, rec *httptest.ResponseRecorder) CurrentResponse {
	t.Helper()
	var resp CurrentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCurrentStartsAtOverview(t *testing.T) {
	router, _ := newRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/workspace", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeCurrent(t, rec)
	assert.Equal(t, "overview", resp.View)
	assert.Equal(t, "/", resp.Path)
	assert.Equal(t, 0, resp.Pointer)
	assert.Equal(t, 1, resp.Depth)
}

func TestNavigate(t *testing.T) {
	t.Run("to a tool view", func(t *testing.T) {
		router, _ := newRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/workspace/navigate", `{"view":"free-generation"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeCurrent(t, rec)
		assert.Equal(t, "free-generation", resp.View)
		assert.Equal(t, "/tool/free-generation", resp.Path)
		assert.Equal(t, 2, resp.Depth)
	})

	t.Run("gallery page parameter round-trips", func(t *testing.T) {
		router, _ := newRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/workspace/navigate", `{"view":"gallery","page":3}`)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeCurrent(t, rec)
		assert.Equal(t, "gallery", resp.View)
		assert.Equal(t, 3, resp.Page)

		// A later GET still sees the page; navigating away drops it.
		resp = decodeCurrent(t, doJSON(t, router, http.MethodGet, "/workspace", ""))
		assert.Equal(t, 3, resp.Page)

		resp = decodeCurrent(t, doJSON(t, router, http.MethodPost, "/workspace/navigate", `{"view":"settings"}`))
		assert.Zero(t, resp.Page)
	})

	t.Run("negative page is rejected", func(t *testing.T) {
		router, _ := newRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/workspace/navigate", `{"view":"gallery","page":-1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown view is rejected", func(t *testing.T) {
		router, st := newRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/workspace/navigate", `{"view":"nonsense"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 1, st.Len())
	})

	t.Run("missing view is rejected", func(t *testing.T) {
		router, _ := newRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/workspace/navigate", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBackAndForward(t *testing.T) {
	router, _ := newRouter(t)

	doJSON(t, router, http.MethodPost, "/workspace/navigate", `{"view":"gallery"}`)
	doJSON(t, router, http.MethodPost, "/workspace/navigate", `{"view":"free-generation"}`)

	rec := doJSON(t, router, http.MethodPost, "/workspace/back", "")
	assert.Equal(t, "gallery", decodeCurrent(t, rec).View)

	rec = doJSON(t, router, http.MethodPost, "/workspace/forward", "")
	assert.Equal(t, "free-generation", decodeCurrent(t, rec).View)
}

func TestHistoryListsViewsInOrder(t *testing.T) {
	router, _ := newRouter(t)

	doJSON(t, router, http.MethodPost, "/workspace/navigate", `{"view":"gallery"}`)
	doJSON(t, router, http.MethodPost, "/workspace/navigate", `{"view":"settings"}`)

	rec := doJSON(t, router, http.MethodGet, "/workspace/history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"overview", "gallery", "settings"}, resp.Views)
	assert.Equal(t, 2, resp.Pointer)
}

func TestReset(t *testing.T) {
	t.Run("mismatched view is rejected", func(t *testing.T) {
		router, st := newRouter(t)
		doJSON(t, router, http.MethodPost, "/workspace/navigate", `{"view":"free-generation"}`)

		rec := doJSON(t, router, http.MethodPost, "/workspace/reset", `{"view":"gallery"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, 2, st.Len())
	})

	t.Run("idle tool view is a no-op", func(t *testing.T) {
		router, st := newRouter(t)
		doJSON(t, router, http.MethodPost, "/workspace/navigate", `{"view":"free-generation"}`)

		rec := doJSON(t, router, http.MethodPost, "/workspace/reset", `{"view":"free-generation"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, st.Len())
	})

	t.Run("mutated tool state resets as an undoable entry", func(t *testing.T) {
		router, st := newRouter(t)
		doJSON(t, router, http.MethodPost, "/workspace/navigate", `{"view":"free-generation"}`)

		gen := st.Current().State.(models.FreeGenerationState)
		gen.Prompt = "a lighthouse at dusk"
		require.NoError(t, st.MutateCurrent(gen))

		rec := doJSON(t, router, http.MethodPost, "/workspace/reset", `{"view":"free-generation"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 4, st.Len())
		reset := st.Current().State.(models.FreeGenerationState)
		assert.Empty(t, reset.Prompt)
	})
}
