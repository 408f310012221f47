package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/YannKr/tunesync/internal/model"
)

// InsertSong adds a song to the catalog. Re-inserting a known id refreshes
// its download state and size.
func InsertSong(ctx context.Context, database *sql.DB, s *model.Song) error {
	_, err := database.ExecContext(ctx, `
		INSERT INTO songs (id, title, uploader, upload_date, url, genre, thumbnail,
		                   album, album_artist, artist, creator, filesize, downloaded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
		    filesize = excluded.filesize,
		    downloaded = excluded.downloaded,
		    url = excluded.url`,
		toInt(uint64(s.ID)), s.Title, s.Uploader, s.UploadDate, s.URL, s.Genre, s.Thumbnail,
		s.Album, s.AlbumArtist, s.Artist, s.Creator, s.FileSize, s.Downloaded,
	)
	return err
}

func FindSongByDetails(ctx context.Context, database *sql.DB, title, uploader, uploadDate string) (model.ContentID, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		SELECT id FROM songs
		WHERE title = ? AND uploader = ? AND upload_date = ?
		LIMIT 1`, title, uploader, uploadDate,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return model.ContentID(uint64(id)), nil
}

func FindSongByHash(ctx context.Context, database *sql.DB, id model.ContentID) (*model.Song, error) {
	s := &model.Song{}
	var raw int64
	err := database.QueryRowContext(ctx, `
		SELECT id, title, uploader, upload_date, url, genre, thumbnail,
		       album, album_artist, artist, creator, filesize, downloaded
		FROM songs WHERE id = ?`, toInt(uint64(id)),
	).Scan(&raw, &s.Title, &s.Uploader, &s.UploadDate, &s.URL, &s.Genre, &s.Thumbnail,
		&s.Album, &s.AlbumArtist, &s.Artist, &s.Creator, &s.FileSize, &s.Downloaded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.ID = model.ContentID(uint64(raw))
	return s, nil
}

func ListSongSummaries(ctx context.Context, database *sql.DB) ([]model.SongSummary, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT id, title, uploader, upload_date FROM songs
		WHERE downloaded = 1
		ORDER BY title, uploader`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	songs := []model.SongSummary{}
	for rows.Next() {
		var s model.SongSummary
		var raw int64
		if err := rows.Scan(&raw, &s.Title, &s.Uploader, &s.UploadDate); err != nil {
			return nil, err
		}
		s.ID = model.ContentID(uint64(raw))
		songs = append(songs, s)
	}
	return songs, rows.Err()
}
