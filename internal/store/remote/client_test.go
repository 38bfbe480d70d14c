package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gallerymodels "atelier/internal/gallery/models"
	historymodels "atelier/internal/history/models"
	ledgermodels "atelier/internal/ledger/models"
	id "atelier/pkg/domain"
	"atelier/pkg/platform/circuit"
	"atelier/pkg/platform/sentinel"
	"atelier/pkg/requestcontext"
)

func testUserID(t *testing.T) id.UserID {
	t.Helper()
	userID, err := id.ParseUserID("7b4a3a1e-9d0f-4c9a-8b1f-2f6f6b6a5c4d")
	require.NoError(t, err)
	return userID
}

func TestCreditsCarriesAuthToken(t *testing.T) {
	userID := testUserID(t)
	var gotAuth, gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]int{"credits": 42})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	ctx := requestcontext.WithAuthToken(context.Background(), "tok-123")

	credits, err := client.Credits(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 42, credits)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "/v1/users/"+userID.String()+"/credits", gotPath)
}

func TestDeductCreditsOutcomes(t *testing.T) {
	userID := testUserID(t)

	t.Run("applied", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Amount int `json:"amount"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 2, req.Amount)
			_ = json.NewEncoder(w).Encode(map[string]int{"credits": 8})
		}))
		defer srv.Close()

		d, err := NewClient(srv.URL).DeductCredits(context.Background(), userID, 2)
		require.NoError(t, err)
		assert.Equal(t, ledgermodels.OutcomeOK, d.Outcome)
		assert.Equal(t, 8, d.Balance)
	})

	t.Run("insufficient is an outcome, not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))
		defer srv.Close()

		d, err := NewClient(srv.URL).DeductCredits(context.Background(), userID, 2)
		require.NoError(t, err)
		assert.Equal(t, ledgermodels.OutcomeInsufficient, d.Outcome)
		assert.False(t, d.Applied())
	})

	t.Run("unreachable backend is a transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // refuse connections

		d, err := NewClient(srv.URL).DeductCredits(context.Background(), userID, 2)
		require.Error(t, err)
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.Equal(t, ledgermodels.OutcomeTransportError, d.Outcome)
	})

	t.Run("server failure is a transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		d, err := NewClient(srv.URL).DeductCredits(context.Background(), userID, 2)
		require.Error(t, err)
		assert.Equal(t, ledgermodels.OutcomeTransportError, d.Outcome)
	})
}

func TestGalleryRoundTrip(t *testing.T) {
	userID := testUserID(t)
	images := []gallerymodels.GalleryImage{
		{ID: "img-1", URL: "https://img.example/1.png", ToolID: "free-generation"},
		{ID: "img-2", URL: "https://img.example/2.png", ToolID: "swap-style"},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{"images": images})
		case http.MethodPost:
			var req struct {
				Images []gallerymodels.GalleryImage `json:"images"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Len(t, req.Images, 2)
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	ctx := context.Background()

	got, err := client.Gallery(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, images, got)

	require.NoError(t, client.AddGalleryImages(ctx, userID, images))
}

func TestRemoveGalleryImageNotFound(t *testing.T) {
	userID := testUserID(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).RemoveGalleryImage(context.Background(), userID, "ghost")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestUploadImageReturnsURL(t *testing.T) {
	userID := testUserID(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name        string `json:"name"`
			ContentType string `json:"contentType"`
			Data        []byte `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "result.png", req.Name)
		assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, req.Data)
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "https://cdn.example/result.png"})
	}))
	defer srv.Close()

	url, err := NewClient(srv.URL).UploadImage(context.Background(), userID, gallerymodels.ImageUpload{
		Name:        "result.png",
		ContentType: "image/png",
		Data:        []byte{0x89, 0x50, 0x4e, 0x47},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/result.png", url)
}

func TestLogGeneration(t *testing.T) {
	userID := testUserID(t)
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var entry historymodels.Entry
		require.NoError(t, json.NewDecoder(r.Body).Decode(&entry))
		assert.Equal(t, "h-1", entry.ID)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).LogGeneration(context.Background(), userID, historymodels.Entry{ID: "h-1"})
	require.NoError(t, err)
	assert.Equal(t, "/v1/users/"+userID.String()+"/history", gotPath)
}

func TestGuestViewRoutesToGuestEndpoints(t *testing.T) {
	deviceID := id.NewDeviceID()
	var paths []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		switch {
		case r.URL.Path == "/v1/guests/"+deviceID.String()+"/credits" && r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]int{"credits": 10})
		case r.URL.Path == "/v1/guests/"+deviceID.String()+"/credits/deduct":
			_ = json.NewEncoder(w).Encode(map[string]int{"credits": 9})
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	guests := NewClient(srv.URL).Guests()
	ctx := context.Background()

	credits, err := guests.Credits(ctx, deviceID)
	require.NoError(t, err)
	assert.Equal(t, 10, credits)

	d, err := guests.DeductCredits(ctx, deviceID, 1)
	require.NoError(t, err)
	assert.Equal(t, ledgermodels.OutcomeOK, d.Outcome)
	assert.Equal(t, 9, d.Balance)

	require.NoError(t, guests.SaveGalleryBatch(ctx, deviceID, []gallerymodels.GalleryImage{{ID: "g-1"}}))
	assert.Contains(t, paths, "POST /v1/guests/"+deviceID.String()+"/gallery")
}

func TestBreakerShortCircuitsAfterRepeatedOutages(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL,
		WithBreaker(circuit.New("test", circuit.WithFailureThreshold(2))))
	ctx := context.Background()
	userID := testUserID(t)

	_, err := client.Credits(ctx, userID)
	require.ErrorIs(t, err, sentinel.ErrUnavailable)
	_, err = client.Credits(ctx, userID)
	require.ErrorIs(t, err, sentinel.ErrUnavailable)

	// Circuit is open now: the backend is no longer consulted.
	_, err = client.Credits(ctx, userID)
	require.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Equal(t, 2, hits)
}

func TestBreakerClosesAfterRecovery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"credits":5}`))
	}))
	defer srv.Close()

	breaker := circuit.New("test", circuit.WithFailureThreshold(1))
	breaker.RecordFailure()
	require.True(t, breaker.IsOpen())

	client := NewClient(srv.URL, WithBreaker(breaker))

	// Open circuit fails fast.
	_, err := client.Credits(context.Background(), testUserID(t))
	require.ErrorIs(t, err, sentinel.ErrUnavailable)

	// Operator reset restores the primary path.
	breaker.Reset()
	credits, err := client.Credits(context.Background(), testUserID(t))
	require.NoError(t, err)
	assert.Equal(t, 5, credits)
}
