package hubsettings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/vstoms/homeydash/internal/infrastructure/database"
	_ "github.com/vstoms/homeydash/migrations"
)

// newTestRepository opens a migrated database in a temp dir.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	return NewRepository(db, testKey)
}

func TestActiveNotConfigured(t *testing.T) {
	repo := newTestRepository(t)

	if _, err := repo.Active(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Active() error = %v, want ErrNotConfigured", err)
	}
	if _, err := repo.First(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("First() error = %v, want ErrNotConfigured", err)
	}
}

func TestSaveAndActive(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, "My Homey", "192.168.1.50", "secret-token")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.ID != 1 {
		t.Errorf("ID = %d, want 1", saved.ID)
	}
	if saved.Token != "secret-token" {
		t.Errorf("Token = %q, want decrypted secret-token", saved.Token)
	}
	if !saved.IsActive {
		t.Error("saved settings should be active")
	}

	active, err := repo.Active(ctx)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if active.IPAddress != "192.168.1.50" {
		t.Errorf("IPAddress = %q", active.IPAddress)
	}
	if active.Token != "secret-token" {
		t.Errorf("Token = %q, want secret-token", active.Token)
	}
}

func TestSaveUpserts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.Save(ctx, "First", "10.0.0.1", "token-1"); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	second, err := repo.Save(ctx, "Second", "10.0.0.2", "token-2")
	if err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	if second.ID != 1 {
		t.Errorf("ID = %d, want 1 (single row upsert)", second.ID)
	}
	if second.Name != "Second" {
		t.Errorf("Name = %q, want Second", second.Name)
	}
	if second.Token != "token-2" {
		t.Errorf("Token = %q, want token-2", second.Token)
	}
}

func TestTokenStoredEncrypted(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.Save(ctx, "My Homey", "10.0.0.1", "plain-token"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var stored string
	err := repo.db.QueryRowContext(ctx, "SELECT token FROM hub_settings WHERE id = 1").Scan(&stored)
	if err != nil {
		t.Fatalf("querying raw token: %v", err)
	}
	if stored == "plain-token" {
		t.Error("token stored in clear")
	}

	decrypted, err := Decrypt(testKey, stored)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if decrypted != "plain-token" {
		t.Errorf("decrypted = %q, want plain-token", decrypted)
	}
}

func TestConnection(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if conn := repo.Connection(ctx); conn != nil {
		t.Errorf("Connection() = %v, want nil when unconfigured", conn)
	}

	if _, err := repo.Save(ctx, "My Homey", "192.168.1.50", "secret"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	conn := repo.Connection(ctx)
	if conn == nil {
		t.Fatal("Connection() = nil after Save")
	}
	if conn.IP != "192.168.1.50" {
		t.Errorf("IP = %q", conn.IP)
	}
	if conn.Token != "secret" {
		t.Errorf("Token = %q", conn.Token)
	}
}
