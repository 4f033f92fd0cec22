package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetClientFlag reads one persisted client-state flag. An absent flag reads
// as the empty string, not an error.
func (r *SQLiteRepository) GetClientFlag(ctx context.Context, ownerID, deviceID, name string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `
		SELECT value FROM client_flags
		WHERE owner_id = ? AND device_id = ? AND name = ?`,
		ownerID, deviceID, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get client flag: %w", err)
	}
	return value, nil
}

// SetClientFlag writes one persisted client-state flag.
func (r *SQLiteRepository) SetClientFlag(ctx context.Context, ownerID, deviceID, name, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO client_flags (owner_id, device_id, name, value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, device_id, name) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		ownerID, deviceID, name, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set client flag: %w", err)
	}
	return nil
}
