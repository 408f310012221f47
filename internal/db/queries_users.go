package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/YannKr/tunesync/internal/model"
)

func CreateUser(ctx context.Context, database *sql.DB, id model.Identity, username, passwordHash string) error {
	_, err := database.ExecContext(ctx,
		`INSERT INTO users (identity, username, password_hash) VALUES (?, ?, ?)`,
		toInt(uint64(id)), username, passwordHash,
	)
	return err
}

// GetPasswordHash returns the stored hash for an identity, or ErrNotFound.
func GetPasswordHash(ctx context.Context, database *sql.DB, id model.Identity) (string, error) {
	var hash string
	err := database.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE identity = ?`, toInt(uint64(id)),
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return hash, err
}

func UserExists(ctx context.Context, database *sql.DB, id model.Identity) (bool, error) {
	var exists bool
	err := database.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE identity = ?)`, toInt(uint64(id)),
	).Scan(&exists)
	return exists, err
}

func IsAdmin(ctx context.Context, database *sql.DB, id model.Identity) (bool, error) {
	var admin bool
	err := database.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE identity = ? AND is_admin = 1)`, toInt(uint64(id)),
	).Scan(&admin)
	return admin, err
}

func SetAdmin(ctx context.Context, database *sql.DB, id model.Identity, admin bool) error {
	res, err := database.ExecContext(ctx,
		`UPDATE users SET is_admin = ? WHERE identity = ?`, admin, toInt(uint64(id)),
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func TouchLastLogin(ctx context.Context, database *sql.DB, id model.Identity) error {
	_, err := database.ExecContext(ctx,
		`UPDATE users SET last_login = `+nowExpr+` WHERE identity = ?`, toInt(uint64(id)),
	)
	return err
}

func GetUserData(ctx context.Context, database *sql.DB, id model.Identity) (*model.UserData, error) {
	d := &model.UserData{}
	var recent string
	err := database.QueryRowContext(ctx, `
		SELECT public_profile, display_name, share_status, now_playing, public_status, recent_plays
		FROM users WHERE identity = ?`, toInt(uint64(id)),
	).Scan(&d.PublicProfile, &d.DisplayName, &d.ShareStatus, &d.NowPlaying, &d.PublicStatus, &recent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(recent), &d.RecentPlays); err != nil {
		d.RecentPlays = nil
	}
	if d.RecentPlays == nil {
		d.RecentPlays = []string{}
	}

	d.Followers, err = listFollowIdentities(ctx, database,
		`SELECT follower FROM follows WHERE followee = ? ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	d.Following, err = listFollowIdentities(ctx, database,
		`SELECT followee FROM follows WHERE follower = ? ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// SetUserData updates the user-editable profile fields.
func SetUserData(ctx context.Context, database *sql.DB, id model.Identity, d *model.UserData) error {
	res, err := database.ExecContext(ctx, `
		UPDATE users SET public_profile = ?, display_name = ?, share_status = ?, public_status = ?
		WHERE identity = ?`,
		d.PublicProfile, d.DisplayName, d.ShareStatus, d.PublicStatus, toInt(uint64(id)),
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}
