package hubsettings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vstoms/homeydash/internal/homey"
	"github.com/vstoms/homeydash/internal/infrastructure/database"
)

// ErrNotConfigured indicates no hub settings have been saved yet.
var ErrNotConfigured = errors.New("hubsettings: not configured")

// Settings holds the connection details for a hub.
// Token is in clear here; encryption happens only at the database
// boundary inside the repository.
type Settings struct {
	ID        int64
	Name      string
	IPAddress string
	Token     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository persists hub settings in SQLite.
type Repository struct {
	db  *database.DB
	key string
}

// NewRepository creates a hub settings repository.
// key is the token encryption passphrase from config.
func NewRepository(db *database.DB, key string) *Repository {
	return &Repository{db: db, key: key}
}

// Active returns the active settings row with the token decrypted.
// Returns ErrNotConfigured when no active row exists.
func (r *Repository) Active(ctx context.Context) (*Settings, error) {
	return r.scanOne(ctx,
		`SELECT id, name, ip_address, token, is_active, created_at, updated_at
		 FROM hub_settings WHERE is_active = 1 ORDER BY id LIMIT 1`)
}

// First returns the oldest settings row regardless of active state.
// Returns ErrNotConfigured when the table is empty.
func (r *Repository) First(ctx context.Context) (*Settings, error) {
	return r.scanOne(ctx,
		`SELECT id, name, ip_address, token, is_active, created_at, updated_at
		 FROM hub_settings ORDER BY id LIMIT 1`)
}

// Save upserts the single settings row (id=1), encrypting the token,
// and marks it active. There is exactly one hub per installation.
func (r *Repository) Save(ctx context.Context, name, ip, token string) (*Settings, error) {
	encrypted, err := Encrypt(r.key, token)
	if err != nil {
		return nil, fmt.Errorf("encrypting token: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO hub_settings (id, name, ip_address, token, is_active, created_at, updated_at)
		 VALUES (1, ?, ?, ?, 1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   ip_address = excluded.ip_address,
		   token = excluded.token,
		   is_active = 1,
		   updated_at = excluded.updated_at`,
		name, ip, encrypted, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("saving hub settings: %w", err)
	}

	return r.Active(ctx)
}

// Connection returns the hub connection for the active settings row,
// or nil when the hub is unconfigured or the token cannot be
// decrypted. Callers hand the result straight to homey.NewClient,
// which treats nil as "not configured".
func (r *Repository) Connection(ctx context.Context) *homey.Connection {
	settings, err := r.Active(ctx)
	if err != nil {
		return nil
	}
	return &homey.Connection{
		IP:    settings.IPAddress,
		Token: settings.Token,
	}
}

func (r *Repository) scanOne(ctx context.Context, query string) (*Settings, error) {
	var s Settings
	var token, createdAt, updatedAt string
	var isActive int

	err := r.db.QueryRowContext(ctx, query).Scan(
		&s.ID, &s.Name, &s.IPAddress, &token, &isActive, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("querying hub settings: %w", err)
	}

	s.IsActive = isActive != 0
	s.Token, err = Decrypt(r.key, token)
	if err != nil {
		return nil, fmt.Errorf("decrypting token: %w", err)
	}

	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	s.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // Format is controlled

	return &s, nil
}
