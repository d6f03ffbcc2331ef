package models

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrProfileNotFound is returned when the user has no stored profile
var ErrProfileNotFound = errors.New("profile not found")

// FormProfile is one user's stored answers keyed by canonical field key
type FormProfile struct {
	UserKey   string         `json:"user_key"`
	Data      map[string]any `json:"data"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type ProfileModel struct {
	DB *sql.DB
}

func NewProfileModel(db *sql.DB) *ProfileModel {
	return &ProfileModel{DB: db}
}

const profileSchema = `
	CREATE TABLE IF NOT EXISTS form_profiles (
		user_key VARCHAR(255) PRIMARY KEY,
		data JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

// CreateTable creates the profile table if it does not exist
func (m *ProfileModel) CreateTable(ctx context.Context) error {
	if _, err := m.DB.ExecContext(ctx, profileSchema); err != nil {
		return fmt.Errorf("failed to create form_profiles: %w", err)
	}
	return nil
}

// GetProfile returns the stored answers for userKey. Numbers are kept as
// json.Number so identifiers like roll numbers keep their exact digits.
func (m *ProfileModel) GetProfile(ctx context.Context, userKey string) (map[string]any, error) {
	var raw []byte
	err := m.DB.QueryRowContext(ctx,
		"SELECT COALESCE(data, '{}')::jsonb FROM form_profiles WHERE user_key = $1", userKey,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return DecodeProfile(bytes.NewReader(raw))
}

// SaveProfile replaces the stored answers for userKey
func (m *ProfileModel) SaveProfile(ctx context.Context, userKey string, data map[string]any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	_, err = m.DB.ExecContext(ctx, `
		INSERT INTO form_profiles (user_key, data, created_at, updated_at)
		VALUES ($1, $2::jsonb, NOW(), NOW())
		ON CONFLICT (user_key) DO UPDATE SET data = $2::jsonb, updated_at = NOW()`,
		userKey, string(encoded))
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// DecodeProfile parses a JSON object of answers
func DecodeProfile(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("invalid profile document: %w", err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}
