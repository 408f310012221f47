package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// ErrMultiItem is returned when a URL resolves to a playlist or channel
// rather than a single track.
var ErrMultiItem = errors.New("url resolves to more than one item")

// Track is the metadata extracted for a single resolvable item.
type Track struct {
	Title       string
	Uploader    string
	UploadDate  string
	SourceURL   string
	Genre       string
	Thumbnail   string
	Album       string
	AlbumArtist string
	Artist      string
	Creator     string
	SizeBytes   int64
}

// YTDLP resolves URLs by asking yt-dlp for a single JSON document.
type YTDLP struct {
	Bin     string
	Timeout time.Duration
	Retries int
}

type ytdlpOutput struct {
	Type           string `json:"_type"`
	Title          string `json:"title"`
	Uploader       string `json:"uploader"`
	UploadDate     string `json:"upload_date"`
	URL            string `json:"url"`
	Genre          string `json:"genre"`
	Thumbnail      string `json:"thumbnail"`
	Album          string `json:"album"`
	AlbumArtist    string `json:"album_artist"`
	Artist         string `json:"artist"`
	Creator        string `json:"creator"`
	FileSize       int64  `json:"filesize"`
	FileSizeApprox int64  `json:"filesize_approx"`
}

func (y *YTDLP) Resolve(ctx context.Context, url string) (*Track, error) {
	if y.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, y.Bin,
		"--dump-single-json",
		"--no-warnings",
		"--socket-timeout", "5",
		"--retries", strconv.Itoa(y.Retries),
		"-f", "bestaudio",
		url,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}
	return parseYTDLP(output)
}

func parseYTDLP(output []byte) (*Track, error) {
	var parsed ytdlpOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return nil, fmt.Errorf("parse yt-dlp output: %w", err)
	}
	switch parsed.Type {
	case "", "video":
	default:
		return nil, fmt.Errorf("%w: %s", ErrMultiItem, parsed.Type)
	}

	size := parsed.FileSize
	if size == 0 {
		size = parsed.FileSizeApprox
	}
	return &Track{
		Title:       parsed.Title,
		Uploader:    parsed.Uploader,
		UploadDate:  parsed.UploadDate,
		SourceURL:   parsed.URL,
		Genre:       parsed.Genre,
		Thumbnail:   parsed.Thumbnail,
		Album:       parsed.Album,
		AlbumArtist: parsed.AlbumArtist,
		Artist:      parsed.Artist,
		Creator:     parsed.Creator,
		SizeBytes:   size,
	}, nil
}
