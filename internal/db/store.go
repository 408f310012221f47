package db

import (
	"context"
	"database/sql"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/YannKr/tunesync/internal/auth"
	"github.com/YannKr/tunesync/internal/model"
)

const songCacheSize = 1024

type songKey struct {
	title, uploader, uploadDate string
}

// Store is the Identity Store used by sessions and the download queue.
// Songs are never deleted, so positive detail lookups are cached.
type Store struct {
	DB    *sql.DB
	songs *lru.Cache[songKey, model.ContentID]
}

func NewStore(database *sql.DB) *Store {
	cache, _ := lru.New[songKey, model.ContentID](songCacheSize)
	return &Store{DB: database, songs: cache}
}

// VerifyCredentials reports whether the username/password pair is valid,
// along with the username's identity.
func (s *Store) VerifyCredentials(ctx context.Context, username, password string) (bool, model.Identity, error) {
	id := model.IdentityOf(username)
	hash, err := GetPasswordHash(ctx, s.DB, id)
	if errors.Is(err, ErrNotFound) {
		return false, id, nil
	}
	if err != nil {
		return false, id, err
	}
	return auth.CheckPassword(hash, password), id, nil
}

func (s *Store) CreateUser(ctx context.Context, username, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return CreateUser(ctx, s.DB, model.IdentityOf(username), username, hash)
}

func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	return UserExists(ctx, s.DB, model.IdentityOf(username))
}

func (s *Store) IsAdmin(ctx context.Context, id model.Identity) (bool, error) {
	return IsAdmin(ctx, s.DB, id)
}

func (s *Store) TouchLastLogin(ctx context.Context, id model.Identity) error {
	return TouchLastLogin(ctx, s.DB, id)
}

func (s *Store) GetUserData(ctx context.Context, id model.Identity) (*model.UserData, error) {
	return GetUserData(ctx, s.DB, id)
}

func (s *Store) SetUserData(ctx context.Context, id model.Identity, d *model.UserData) error {
	return SetUserData(ctx, s.DB, id, d)
}

func (s *Store) FindSongByDetails(ctx context.Context, title, uploader, uploadDate string) (model.ContentID, error) {
	key := songKey{title, uploader, uploadDate}
	if id, ok := s.songs.Get(key); ok {
		return id, nil
	}
	id, err := FindSongByDetails(ctx, s.DB, title, uploader, uploadDate)
	if err != nil {
		return 0, err
	}
	s.songs.Add(key, id)
	return id, nil
}

func (s *Store) FindSongByHash(ctx context.Context, id model.ContentID) (*model.Song, error) {
	return FindSongByHash(ctx, s.DB, id)
}

func (s *Store) InsertSong(ctx context.Context, song *model.Song) error {
	if err := InsertSong(ctx, s.DB, song); err != nil {
		return err
	}
	s.songs.Add(songKey{song.Title, song.Uploader, song.UploadDate}, song.ID)
	return nil
}

func (s *Store) ListSongs(ctx context.Context) ([]model.SongSummary, error) {
	return ListSongSummaries(ctx, s.DB)
}

func (s *Store) CreatePlaylist(ctx context.Context, p *model.Playlist) error {
	return CreatePlaylist(ctx, s.DB, p)
}

func (s *Store) RenamePlaylist(ctx context.Context, owner model.Identity, name, newName string) error {
	return RenamePlaylist(ctx, s.DB, owner, name, newName)
}

func (s *Store) DeletePlaylist(ctx context.Context, owner model.Identity, name string) error {
	return DeletePlaylist(ctx, s.DB, owner, name)
}

func (s *Store) SetPlaylistDescription(ctx context.Context, owner model.Identity, name, description string) error {
	return SetPlaylistDescription(ctx, s.DB, owner, name, description)
}

func (s *Store) SetPlaylistImage(ctx context.Context, owner model.Identity, name, image string) error {
	return SetPlaylistImage(ctx, s.DB, owner, name, image)
}

func (s *Store) UpdatePlaylist(ctx context.Context, owner model.Identity, name string, u *model.PlaylistUpdate) error {
	return UpdatePlaylist(ctx, s.DB, owner, name, u)
}

func (s *Store) AppendSongToPlaylist(ctx context.Context, owner model.Identity, name string, id model.ContentID) error {
	return AppendSong(ctx, s.DB, owner, name, id)
}

func (s *Store) RemoveSongFromPlaylist(ctx context.Context, owner model.Identity, name string, id model.ContentID) error {
	return RemoveSong(ctx, s.DB, owner, name, id)
}

func (s *Store) Follow(ctx context.Context, follower model.Identity, followee string) error {
	return Follow(ctx, s.DB, follower, model.IdentityOf(followee))
}

func (s *Store) Unfollow(ctx context.Context, follower model.Identity, followee string) error {
	return Unfollow(ctx, s.DB, follower, model.IdentityOf(followee))
}
