package model

import (
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Identity is the stable numeric handle for a username. It joins sessions,
// rate-limit windows and bans; it is never turned back into the name.
type Identity uint64

// IdentityOf derives the Identity for a username.
func IdentityOf(username string) Identity {
	return Identity(xxhash.Sum64String(username))
}

func (i Identity) String() string {
	return strconv.FormatUint(uint64(i), 10)
}

// ContentID identifies a song in the catalog and names its cached file.
type ContentID uint64

// ContentIDOf derives the content id from the resolved song details.
func ContentIDOf(title, uploader, uploadDate string) ContentID {
	return ContentID(xxhash.Sum64String(title + "|" + uploader + "|" + uploadDate))
}

// ParseContentID parses the decimal form produced by String.
func ParseContentID(s string) (ContentID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ContentID(n), nil
}

func (c ContentID) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

const (
	MaxPlaylistName = 30
	MaxDescription  = 100
	MaxDisplayName  = 30
	MaxStatus       = 50
)

type Song struct {
	ID          ContentID `json:"id"`
	Title       string    `json:"title"`
	Uploader    string    `json:"uploader"`
	UploadDate  string    `json:"upload_date"`
	URL         string    `json:"url,omitempty"`
	Genre       string    `json:"genre,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Album       string    `json:"album,omitempty"`
	AlbumArtist string    `json:"album_artist,omitempty"`
	Artist      string    `json:"artist,omitempty"`
	Creator     string    `json:"creator,omitempty"`
	FileSize    int64     `json:"filesize,omitempty"`
	Downloaded  bool      `json:"downloaded"`
}

// SongSummary is the short catalog row sent for SONG_LIST_SHORT.
type SongSummary struct {
	ID         ContentID `json:"id"`
	Title      string    `json:"title"`
	Uploader   string    `json:"uploader"`
	UploadDate string    `json:"upload_date"`
}

type Playlist struct {
	Owner       Identity  `json:"-"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	Public      bool      `json:"public_playlist"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdate  time.Time `json:"last_update"`
}

// PlaylistUpdate is the EDIT_PLAYLIST payload. Nil fields are left alone;
// Songs, when present, replaces the playlist contents in order.
type PlaylistUpdate struct {
	Description *string     `json:"description,omitempty"`
	Image       *string     `json:"image,omitempty"`
	Public      *bool       `json:"public,omitempty"`
	Songs       []ContentID `json:"songs,omitempty"`
}

type UserData struct {
	PublicProfile bool       `json:"public_profile"`
	DisplayName   string     `json:"display_name"`
	ShareStatus   bool       `json:"share_status"`
	NowPlaying    string     `json:"now_playing"`
	PublicStatus  string     `json:"public_status"`
	RecentPlays   []string   `json:"recent_plays"`
	Followers     []Identity `json:"followers"`
	Following     []Identity `json:"following"`
}
