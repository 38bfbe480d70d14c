package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	gallerymodels "atelier/internal/gallery/models"
	historymodels "atelier/internal/history/models"
	ledgermodels "atelier/internal/ledger/models"
	id "atelier/pkg/domain"
	"atelier/pkg/platform/sentinel"
	"atelier/pkg/platform/tx"
)

// Schema creates the tables the Postgres store needs. Applied by deployments
// that manage migrations inline and by the integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS user_credits (
	user_id    UUID PRIMARY KEY,
	credits    INTEGER NOT NULL CHECK (credits >= 0),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS guest_credits (
	device_id  TEXT PRIMARY KEY,
	credits    INTEGER NOT NULL CHECK (credits >= 0),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS gallery_images (
	id            TEXT PRIMARY KEY,
	owner         TEXT NOT NULL,
	url           TEXT NOT NULL,
	thumbnail_url TEXT,
	tool_id       TEXT NOT NULL,
	prompt        TEXT,
	created_at    TIMESTAMPTZ NOT NULL,
	position      BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS gallery_images_owner_position_idx
	ON gallery_images (owner, position DESC);

CREATE TABLE IF NOT EXISTS generation_history (
	id            TEXT PRIMARY KEY,
	user_id       UUID NOT NULL,
	tool_id       TEXT NOT NULL,
	prompt        TEXT,
	params        JSONB,
	image_urls    JSONB,
	thumbnail_url TEXT,
	model         TEXT,
	credits_used  INTEGER NOT NULL DEFAULT 0,
	duration_ms   BIGINT NOT NULL DEFAULT 0,
	error_message TEXT,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS uploads (
	id           TEXT PRIMARY KEY,
	owner        TEXT NOT NULL,
	name         TEXT NOT NULL,
	content_type TEXT NOT NULL,
	data         BYTEA NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore persists ledgers, galleries, and history in PostgreSQL. It
// implements ports.UserStore; the guest surface is exposed via GuestStore().
type PostgresStore struct {
	db                  *sql.DB
	defaultGuestCredits int
	publicBaseURL       string
}

// NewPostgres constructs a PostgreSQL-backed remote store. defaultCredits is
// the allowance granted to a device on first sight; publicBaseURL prefixes
// the URLs returned for uploads.
func NewPostgres(db *sql.DB, defaultCredits int, publicBaseURL string) *PostgresStore {
	return &PostgresStore{
		db:                  db,
		defaultGuestCredits: defaultCredits,
		publicBaseURL:       publicBaseURL,
	}
}

// querier is the common surface of *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// q returns the context's transaction when one is present, so callers can
// group store operations atomically via tx.WithTx.
func (s *PostgresStore) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

// Credits returns the user's current balance.
func (s *PostgresStore) Credits(ctx context.Context, userID id.UserID) (int, error) {
	var credits int
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT credits FROM user_credits WHERE user_id = $1`, userID.String()).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, sentinel.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get user credits: %w", err)
	}
	return credits, nil
}

// DeductCredits atomically checks and deducts using a guarded update: the
// row only changes when the balance covers the amount.
func (s *PostgresStore) DeductCredits(ctx context.Context, userID id.UserID, amount int) (ledgermodels.Deduction, error) {
	return s.deduct(ctx,
		`UPDATE user_credits SET credits = credits - $2, updated_at = now()
		 WHERE user_id = $1 AND credits >= $2 RETURNING credits`,
		`SELECT EXISTS (SELECT 1 FROM user_credits WHERE user_id = $1)`,
		userID.String(), amount)
}

func (s *PostgresStore) deduct(ctx context.Context, updateQ, existsQ, owner string, amount int) (ledgermodels.Deduction, error) {
	transportErr := func(err error) (ledgermodels.Deduction, error) {
		return ledgermodels.Deduction{Outcome: ledgermodels.OutcomeTransportError}, err
	}

	var balance int
	err := s.q(ctx).QueryRowContext(ctx, updateQ, owner, amount).Scan(&balance)
	if err == nil {
		return ledgermodels.Deduction{Outcome: ledgermodels.OutcomeOK, Balance: balance}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return transportErr(fmt.Errorf("deduct credits: %w", err))
	}

	// The guard rejected the update: either the row is missing or the
	// balance is too low.
	var exists bool
	if err := s.q(ctx).QueryRowContext(ctx, existsQ, owner).Scan(&exists); err != nil {
		return transportErr(fmt.Errorf("check ledger row: %w", err))
	}
	if !exists {
		return transportErr(sentinel.ErrNotFound)
	}
	return ledgermodels.Deduction{Outcome: ledgermodels.OutcomeInsufficient}, nil
}

func (s *PostgresStore) gallery(ctx context.Context, owner string) ([]gallerymodels.GalleryImage, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT id, url, COALESCE(thumbnail_url, ''), tool_id, COALESCE(prompt, ''), created_at
		 FROM gallery_images WHERE owner = $1 ORDER BY position DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("query gallery: %w", err)
	}
	defer rows.Close()

	var images []gallerymodels.GalleryImage
	for rows.Next() {
		var img gallerymodels.GalleryImage
		var toolID string
		if err := rows.Scan(&img.ID, &img.URL, &img.ThumbnailURL, &toolID, &img.Prompt, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan gallery row: %w", err)
		}
		img.ToolID = id.ToolID(toolID)
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gallery rows: %w", err)
	}
	return images, nil
}

// addImages inserts a batch so that a position-descending read returns the
// batch first, in batch order.
func (s *PostgresStore) addImages(ctx context.Context, owner string, images []gallerymodels.GalleryImage) error {
	if len(images) == 0 {
		return nil
	}

	// Join the context's transaction when present; otherwise the batch gets
	// its own.
	if ambient, ok := tx.From(ctx); ok {
		return s.insertImages(ctx, ambient, owner, images)
	}

	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin gallery insert: %w", err)
	}
	defer func() { _ = dbtx.Rollback() }()

	if err := s.insertImages(ctx, dbtx, owner, images); err != nil {
		return err
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit gallery insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) insertImages(ctx context.Context, dbtx *sql.Tx, owner string, images []gallerymodels.GalleryImage) error {
	var maxPos int64
	if err := dbtx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM gallery_images WHERE owner = $1`, owner).Scan(&maxPos); err != nil {
		return fmt.Errorf("read gallery position: %w", err)
	}

	top := maxPos + int64(len(images))
	for i, img := range images {
		createdAt := img.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := dbtx.ExecContext(ctx,
			`INSERT INTO gallery_images (id, owner, url, thumbnail_url, tool_id, prompt, created_at, position)
			 VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), $7, $8)`,
			img.ID, owner, img.URL, img.ThumbnailURL, string(img.ToolID), img.Prompt, createdAt, top-int64(i))
		if err != nil {
			return fmt.Errorf("insert gallery image: %w", err)
		}
	}
	return nil
}

// Gallery returns the user's full remote gallery, newest first.
func (s *PostgresStore) Gallery(ctx context.Context, userID id.UserID) ([]gallerymodels.GalleryImage, error) {
	return s.gallery(ctx, userID.String())
}

// AddGalleryImages persists a batch of images in one transaction.
func (s *PostgresStore) AddGalleryImages(ctx context.Context, userID id.UserID, images []gallerymodels.GalleryImage) error {
	return s.addImages(ctx, userID.String(), images)
}

// RemoveGalleryImage deletes one image by ID.
func (s *PostgresStore) RemoveGalleryImage(ctx context.Context, userID id.UserID, imageID string) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM gallery_images WHERE owner = $1 AND id = $2`, userID.String(), imageID)
	if err != nil {
		return fmt.Errorf("delete gallery image: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete gallery image: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) upload(ctx context.Context, owner string, up gallerymodels.ImageUpload) (string, error) {
	if len(up.Data) == 0 {
		return "", fmt.Errorf("upload data is required")
	}
	uploadID := uuid.NewString()
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO uploads (id, owner, name, content_type, data) VALUES ($1, $2, $3, $4, $5)`,
		uploadID, owner, up.Name, up.ContentType, up.Data)
	if err != nil {
		return "", fmt.Errorf("insert upload: %w", err)
	}
	return s.publicBaseURL + "/uploads/" + uploadID, nil
}

// UploadImage stores raw image content and returns its durable URL.
func (s *PostgresStore) UploadImage(ctx context.Context, userID id.UserID, up gallerymodels.ImageUpload) (string, error) {
	return s.upload(ctx, userID.String(), up)
}

// LogGeneration appends a generation record to the user's history.
func (s *PostgresStore) LogGeneration(ctx context.Context, userID id.UserID, entry historymodels.Entry) error {
	params, err := json.Marshal(entry.Params)
	if err != nil {
		return fmt.Errorf("encode history params: %w", err)
	}
	urls, err := json.Marshal(entry.ImageURLs)
	if err != nil {
		return fmt.Errorf("encode history urls: %w", err)
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = s.q(ctx).ExecContext(ctx,
		`INSERT INTO generation_history
		   (id, user_id, tool_id, prompt, params, image_urls,
		    thumbnail_url, model, credits_used, duration_ms, error_message, created_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6,
		         NULLIF($7, ''), NULLIF($8, ''), $9, $10, NULLIF($11, ''), $12)`,
		entry.ID, userID.String(), string(entry.ToolID), entry.Prompt, params, urls,
		entry.ThumbnailURL, entry.Model, entry.CreditsUsed, entry.DurationMS, entry.ErrorMessage, createdAt)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// GrantUserCredits upserts a user's balance. Used by account provisioning
// and tests; deduction never creates rows for users.
func (s *PostgresStore) GrantUserCredits(ctx context.Context, userID id.UserID, credits int) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO user_credits (user_id, credits) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET credits = EXCLUDED.credits, updated_at = now()`,
		userID.String(), credits)
	if err != nil {
		return fmt.Errorf("grant user credits: %w", err)
	}
	return nil
}

// PostgresGuestStore is the ports.GuestStore view of the Postgres store.
// Devices are provisioned lazily at the default allowance.
type PostgresGuestStore struct {
	s *PostgresStore
}

// GuestStore returns the guest surface of the store.
func (s *PostgresStore) GuestStore() *PostgresGuestStore {
	return &PostgresGuestStore{s: s}
}

func (g *PostgresGuestStore) ensureRow(ctx context.Context, deviceID id.DeviceID) error {
	_, err := g.s.q(ctx).ExecContext(ctx,
		`INSERT INTO guest_credits (device_id, credits) VALUES ($1, $2)
		 ON CONFLICT (device_id) DO NOTHING`,
		deviceID.String(), g.s.defaultGuestCredits)
	if err != nil {
		return fmt.Errorf("provision guest ledger: %w", err)
	}
	return nil
}

// Credits returns the device's balance, creating the row at the default
// allowance on first sight.
func (g *PostgresGuestStore) Credits(ctx context.Context, deviceID id.DeviceID) (int, error) {
	if err := g.ensureRow(ctx, deviceID); err != nil {
		return 0, err
	}
	var credits int
	err := g.s.q(ctx).QueryRowContext(ctx,
		`SELECT credits FROM guest_credits WHERE device_id = $1`, deviceID.String()).Scan(&credits)
	if err != nil {
		return 0, fmt.Errorf("get guest credits: %w", err)
	}
	return credits, nil
}

// DeductCredits atomically checks and deducts from the device's balance.
func (g *PostgresGuestStore) DeductCredits(ctx context.Context, deviceID id.DeviceID, amount int) (ledgermodels.Deduction, error) {
	if err := g.ensureRow(ctx, deviceID); err != nil {
		return ledgermodels.Deduction{Outcome: ledgermodels.OutcomeTransportError}, err
	}
	return g.s.deduct(ctx,
		`UPDATE guest_credits SET credits = credits - $2, updated_at = now()
		 WHERE device_id = $1 AND credits >= $2 RETURNING credits`,
		`SELECT EXISTS (SELECT 1 FROM guest_credits WHERE device_id = $1)`,
		deviceID.String(), amount)
}

// Gallery returns the device's remote gallery, newest first.
func (g *PostgresGuestStore) Gallery(ctx context.Context, deviceID id.DeviceID) ([]gallerymodels.GalleryImage, error) {
	return g.s.gallery(ctx, deviceID.String())
}

// SaveGalleryBatch persists a batch of images for the device.
func (g *PostgresGuestStore) SaveGalleryBatch(ctx context.Context, deviceID id.DeviceID, images []gallerymodels.GalleryImage) error {
	return g.s.addImages(ctx, deviceID.String(), images)
}

// UploadImage stores raw image content and returns its durable URL.
func (g *PostgresGuestStore) UploadImage(ctx context.Context, deviceID id.DeviceID, up gallerymodels.ImageUpload) (string, error) {
	return g.s.upload(ctx, deviceID.String(), up)
}
