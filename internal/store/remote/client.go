// Package remote implements the durable remote store surfaces over the
// backend REST API, plus a direct Postgres implementation for deployments
// that colocate the coordinator with its database.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gallerymodels "atelier/internal/gallery/models"
	historymodels "atelier/internal/history/models"
	ledgermodels "atelier/internal/ledger/models"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/circuit"
	"atelier/pkg/platform/sentinel"
	"atelier/pkg/requestcontext"
)

// Client talks to the backend REST API. It implements both ports.UserStore
// and ports.GuestStore. The caller's auth token is read from the request
// context per call; guest endpoints need no token.
//
// A circuit breaker guards the transport: once the backend has failed
// repeatedly, calls fail fast as unavailable instead of each waiting out the
// timeout, which keeps local-fallback paths responsive during outages.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithClientLogger sets a logger for request diagnostics.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) ClientOption {
	return func(c *Client) {
		c.breaker = b
	}
}

// NewClient constructs a remote store client for the given API base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		breaker: circuit.New("remote-store", circuit.WithFailureThreshold(5)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.breaker.IsOpen() {
		return fmt.Errorf("%w: %s %s: circuit open", sentinel.ErrUnavailable, method, path)
	}

	err := c.send(ctx, method, path, body, out)
	if errors.Is(err, sentinel.ErrUnavailable) {
		if _, change := c.breaker.RecordFailure(); change.Opened && c.logger != nil {
			c.logger.Warn("remote store circuit opened", "breaker", c.breaker.Name())
		}
		return err
	}

	if _, change := c.breaker.RecordSuccess(); change.Closed && c.logger != nil {
		c.logger.Info("remote store circuit closed", "breaker", c.breaker.Name())
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "encode request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := requestcontext.AuthToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", sentinel.ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return sentinel.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return dErrors.New(dErrors.CodeUnauthorized, "remote store rejected credentials")
	case resp.StatusCode == http.StatusConflict:
		return sentinel.ErrConflict
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s %s: status %d", sentinel.ErrUnavailable, method, path, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return dErrors.New(dErrors.CodeInternal,
			fmt.Sprintf("remote store: %s %s: unexpected status %d", method, path, resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "decode response body")
	}
	return nil
}

type creditsResponse struct {
	Credits int `json:"credits"`
}

type deductRequest struct {
	Amount int `json:"amount"`
}

type galleryResponse struct {
	Images []gallerymodels.GalleryImage `json:"images"`
}

type galleryRequest struct {
	Images []gallerymodels.GalleryImage `json:"images"`
}

type uploadRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

type uploadResponse struct {
	URL string `json:"url"`
}

// deduct posts a deduction and maps the conflict status to the insufficient
// outcome. Any error means the verdict never arrived.
func (c *Client) deduct(ctx context.Context, path string, amount int) (ledgermodels.Deduction, error) {
	var out creditsResponse
	err := c.do(ctx, http.MethodPost, path, deductRequest{Amount: amount}, &out)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return ledgermodels.Deduction{Outcome: ledgermodels.OutcomeInsufficient}, nil
		}
		return ledgermodels.Deduction{Outcome: ledgermodels.OutcomeTransportError}, err
	}
	return ledgermodels.Deduction{Outcome: ledgermodels.OutcomeOK, Balance: out.Credits}, nil
}

// Credits returns the user's current balance.
func (c *Client) Credits(ctx context.Context, userID id.UserID) (int, error) {
	var out creditsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/users/"+userID.String()+"/credits", nil, &out); err != nil {
		return 0, err
	}
	return out.Credits, nil
}

// DeductCredits atomically checks and deducts from the user's balance.
func (c *Client) DeductCredits(ctx context.Context, userID id.UserID, amount int) (ledgermodels.Deduction, error) {
	return c.deduct(ctx, "/v1/users/"+userID.String()+"/credits/deduct", amount)
}

// Gallery returns the user's full remote gallery, newest first.
func (c *Client) Gallery(ctx context.Context, userID id.UserID) ([]gallerymodels.GalleryImage, error) {
	var out galleryResponse
	if err := c.do(ctx, http.MethodGet, "/v1/users/"+userID.String()+"/gallery", nil, &out); err != nil {
		return nil, err
	}
	return out.Images, nil
}

// AddGalleryImages persists a batch of images in one call.
func (c *Client) AddGalleryImages(ctx context.Context, userID id.UserID, images []gallerymodels.GalleryImage) error {
	if len(images) == 0 {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/v1/users/"+userID.String()+"/gallery", galleryRequest{Images: images}, nil)
}

// RemoveGalleryImage deletes one image by ID.
func (c *Client) RemoveGalleryImage(ctx context.Context, userID id.UserID, imageID string) error {
	return c.do(ctx, http.MethodDelete,
		"/v1/users/"+userID.String()+"/gallery/"+url.PathEscape(imageID), nil, nil)
}

// UploadImage stores raw image content and returns its durable URL.
func (c *Client) UploadImage(ctx context.Context, userID id.UserID, upload gallerymodels.ImageUpload) (string, error) {
	var out uploadResponse
	req := uploadRequest{Name: upload.Name, ContentType: upload.ContentType, Data: upload.Data}
	if err := c.do(ctx, http.MethodPost, "/v1/users/"+userID.String()+"/uploads", req, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// LogGeneration appends a generation record to the user's history.
func (c *Client) LogGeneration(ctx context.Context, userID id.UserID, entry historymodels.Entry) error {
	return c.do(ctx, http.MethodPost, "/v1/users/"+userID.String()+"/history", entry, nil)
}

// GuestCredits returns the device's balance, creating it on first sight.
func (c *Client) GuestCredits(ctx context.Context, deviceID id.DeviceID) (int, error) {
	var out creditsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/guests/"+deviceID.String()+"/credits", nil, &out); err != nil {
		return 0, err
	}
	return out.Credits, nil
}

// DeductGuestCredits atomically checks and deducts from the device's balance.
func (c *Client) DeductGuestCredits(ctx context.Context, deviceID id.DeviceID, amount int) (ledgermodels.Deduction, error) {
	return c.deduct(ctx, "/v1/guests/"+deviceID.String()+"/credits/deduct", amount)
}

// GuestGallery returns the device's remote gallery, newest first.
func (c *Client) GuestGallery(ctx context.Context, deviceID id.DeviceID) ([]gallerymodels.GalleryImage, error) {
	var out galleryResponse
	if err := c.do(ctx, http.MethodGet, "/v1/guests/"+deviceID.String()+"/gallery", nil, &out); err != nil {
		return nil, err
	}
	return out.Images, nil
}

// SaveGuestGalleryBatch persists a batch of images for the device.
func (c *Client) SaveGuestGalleryBatch(ctx context.Context, deviceID id.DeviceID, images []gallerymodels.GalleryImage) error {
	if len(images) == 0 {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/v1/guests/"+deviceID.String()+"/gallery", galleryRequest{Images: images}, nil)
}

// UploadGuestImage stores raw image content and returns its durable URL.
func (c *Client) UploadGuestImage(ctx context.Context, deviceID id.DeviceID, upload gallerymodels.ImageUpload) (string, error) {
	var out uploadResponse
	req := uploadRequest{Name: upload.Name, ContentType: upload.ContentType, Data: upload.Data}
	if err := c.do(ctx, http.MethodPost, "/v1/guests/"+deviceID.String()+"/uploads", req, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// GuestView adapts the client's guest endpoints to ports.GuestStore; the
// client itself satisfies ports.UserStore directly.
type GuestView struct {
	c *Client
}

// Guests returns the ports.GuestStore view of the client.
func (c *Client) Guests() *GuestView {
	return &GuestView{c: c}
}

func (g *GuestView) Credits(ctx context.Context, deviceID id.DeviceID) (int, error) {
	return g.c.GuestCredits(ctx, deviceID)
}

func (g *GuestView) DeductCredits(ctx context.Context, deviceID id.DeviceID, amount int) (ledgermodels.Deduction, error) {
	return g.c.DeductGuestCredits(ctx, deviceID, amount)
}

func (g *GuestView) Gallery(ctx context.Context, deviceID id.DeviceID) ([]gallerymodels.GalleryImage, error) {
	return g.c.GuestGallery(ctx, deviceID)
}

func (g *GuestView) SaveGalleryBatch(ctx context.Context, deviceID id.DeviceID, images []gallerymodels.GalleryImage) error {
	return g.c.SaveGuestGalleryBatch(ctx, deviceID, images)
}

func (g *GuestView) UploadImage(ctx context.Context, deviceID id.DeviceID, upload gallerymodels.ImageUpload) (string, error) {
	return g.c.UploadGuestImage(ctx, deviceID, upload)
}
