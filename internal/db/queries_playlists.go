package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/YannKr/tunesync/internal/model"
)

func CreatePlaylist(ctx context.Context, database *sql.DB, p *model.Playlist) error {
	_, err := database.ExecContext(ctx, `
		INSERT INTO playlists (owner, name, description, image, public)
		VALUES (?, ?, ?, ?, ?)`,
		toInt(uint64(p.Owner)), p.Name, p.Description, p.Image, p.Public,
	)
	return err
}

func GetPlaylist(ctx context.Context, database *sql.DB, owner model.Identity, name string) (*model.Playlist, error) {
	p := &model.Playlist{Owner: owner}
	var createdAt, lastUpdate SQLiteTime
	err := database.QueryRowContext(ctx, `
		SELECT name, description, image, public, created_at, last_update
		FROM playlists WHERE owner = ? AND name = ?`, toInt(uint64(owner)), name,
	).Scan(&p.Name, &p.Description, &p.Image, &p.Public, &createdAt, &lastUpdate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt = createdAt.Time
	p.LastUpdate = lastUpdate.Time
	return p, nil
}

func RenamePlaylist(ctx context.Context, database *sql.DB, owner model.Identity, name, newName string) error {
	res, err := database.ExecContext(ctx,
		`UPDATE playlists SET name = ?, last_update = `+nowExpr+` WHERE owner = ? AND name = ?`,
		newName, toInt(uint64(owner)), name,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func DeletePlaylist(ctx context.Context, database *sql.DB, owner model.Identity, name string) error {
	res, err := database.ExecContext(ctx,
		`DELETE FROM playlists WHERE owner = ? AND name = ?`, toInt(uint64(owner)), name,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func SetPlaylistDescription(ctx context.Context, database *sql.DB, owner model.Identity, name, description string) error {
	res, err := database.ExecContext(ctx,
		`UPDATE playlists SET description = ?, last_update = `+nowExpr+` WHERE owner = ? AND name = ?`,
		description, toInt(uint64(owner)), name,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func SetPlaylistImage(ctx context.Context, database *sql.DB, owner model.Identity, name, image string) error {
	res, err := database.ExecContext(ctx,
		`UPDATE playlists SET image = ?, last_update = `+nowExpr+` WHERE owner = ? AND name = ?`,
		image, toInt(uint64(owner)), name,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// UpdatePlaylist applies an EDIT_PLAYLIST payload in one transaction.
func UpdatePlaylist(ctx context.Context, database *sql.DB, owner model.Identity, name string, u *model.PlaylistUpdate) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE playlists SET
		    description = COALESCE(?, description),
		    image = COALESCE(?, image),
		    public = COALESCE(?, public),
		    last_update = `+nowExpr+`
		WHERE owner = ? AND name = ?`,
		nullString(u.Description), nullString(u.Image), nullBool(u.Public),
		toInt(uint64(owner)), name,
	)
	if err != nil {
		return err
	}
	if err := expectOne(res); err != nil {
		return err
	}

	if u.Songs != nil {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM playlist_songs WHERE owner = ? AND playlist = ?`,
			toInt(uint64(owner)), name,
		); err != nil {
			return err
		}
		for i, id := range u.Songs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO playlist_songs (owner, playlist, song_id, position)
				VALUES (?, ?, ?, ?)`,
				toInt(uint64(owner)), name, toInt(uint64(id)), i,
			); err != nil {
				return fmt.Errorf("song %s: %w", id, err)
			}
		}
	}

	return tx.Commit()
}

// AppendSong adds a catalog song to the end of a playlist.
func AppendSong(ctx context.Context, database *sql.DB, owner model.Identity, name string, id model.ContentID) error {
	if _, err := GetPlaylist(ctx, database, owner, name); err != nil {
		return err
	}
	if _, err := FindSongByHash(ctx, database, id); err != nil {
		return err
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO playlist_songs (owner, playlist, song_id, position)
		SELECT ?, ?, ?, COALESCE(MAX(position), -1) + 1
		FROM playlist_songs WHERE owner = ? AND playlist = ?`,
		toInt(uint64(owner)), name, toInt(uint64(id)), toInt(uint64(owner)), name,
	); err != nil {
		return err
	}
	if err := touchPlaylist(ctx, tx, owner, name); err != nil {
		return err
	}
	return tx.Commit()
}

// RemoveSong drops every occurrence of a song from a playlist.
func RemoveSong(ctx context.Context, database *sql.DB, owner model.Identity, name string, id model.ContentID) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM playlist_songs WHERE owner = ? AND playlist = ? AND song_id = ?`,
		toInt(uint64(owner)), name, toInt(uint64(id)),
	)
	if err != nil {
		return err
	}
	if err := expectOne(res); err != nil {
		return err
	}
	if err := touchPlaylist(ctx, tx, owner, name); err != nil {
		return err
	}
	return tx.Commit()
}

func ListPlaylistSongs(ctx context.Context, database *sql.DB, owner model.Identity, name string) ([]model.ContentID, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT song_id FROM playlist_songs
		WHERE owner = ? AND playlist = ?
		ORDER BY position`, toInt(uint64(owner)), name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []model.ContentID
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		ids = append(ids, model.ContentID(uint64(v)))
	}
	return ids, rows.Err()
}

func touchPlaylist(ctx context.Context, tx *sql.Tx, owner model.Identity, name string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE playlists SET last_update = `+nowExpr+` WHERE owner = ? AND name = ?`,
		toInt(uint64(owner)), name,
	)
	return err
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
