package db

import (
	"context"
	"database/sql"

	"github.com/YannKr/tunesync/internal/model"
)

// Follow records that follower follows followee. Following twice is a no-op.
func Follow(ctx context.Context, database *sql.DB, follower, followee model.Identity) error {
	ok, err := UserExists(ctx, database, followee)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	_, err = database.ExecContext(ctx,
		`INSERT OR IGNORE INTO follows (follower, followee) VALUES (?, ?)`,
		toInt(uint64(follower)), toInt(uint64(followee)),
	)
	return err
}

func Unfollow(ctx context.Context, database *sql.DB, follower, followee model.Identity) error {
	res, err := database.ExecContext(ctx,
		`DELETE FROM follows WHERE follower = ? AND followee = ?`,
		toInt(uint64(follower)), toInt(uint64(followee)),
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func listFollowIdentities(ctx context.Context, database *sql.DB, query string, id model.Identity) ([]model.Identity, error) {
	rows, err := database.QueryContext(ctx, query, toInt(uint64(id)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []model.Identity{}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		ids = append(ids, model.Identity(uint64(v)))
	}
	return ids, rows.Err()
}
