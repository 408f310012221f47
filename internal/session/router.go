package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/YannKr/tunesync/internal/model"
)

// Response tokens.
const (
	RespPong               = "PONG"
	RespOK                 = "OK"
	RespAddedSong          = "AddedSong"
	RespInvalidRequest     = "InvalidRequest"
	RespCouldNotBeFound    = "CouldNotBeFound"
	RespCouldNotFindSong   = "CouldNotFindSong"
	RespInvalidHash        = "InvalidHash"
	RespExpectedHash       = "ExpectedHash"
	RespInvalidDescription = "InvalidDescription"
)

// route runs an admitted command. Store failures never end the session; they
// become the command's failure token or no reply at all.
func (d *Dispatcher) route(ctx context.Context, c *Connection, id model.Identity, cmd Command) {
	var reply string
	switch cmd := cmd.(type) {
	case Relay:
		n := d.registry.Broadcast(id, cmd.Line)
		slog.Debug("relayed", "conn", c.ID, "verb", cmd.Name, "delivered", n)
		return
	case Close:
		d.registry.Remove(c.ID)
		slog.Info("connection closed by client", "conn", c.ID)
		return
	case Auth, Sign:
		slog.Debug("ignoring pre-auth command on authenticated connection", "conn", c.ID, "verb", cmd.Verb())
		return

	case Ping:
		reply = RespPong
	case Queue:
		reply = d.enqueue(cmd)
	case QueueList:
		reply = strings.Join(d.queue.Pending(), " ")
	case FindSong:
		reply = d.findSong(ctx, cmd)
	case RemoveSong:
		reply = d.removeSong(ctx, id, cmd)
	case AddSong:
		reply = d.addSong(ctx, id, cmd)
	case AddSongHash:
		reply = d.addSongHash(ctx, id, cmd)
	case SongListShort:
		reply = d.songListShort(ctx)
	case MakePlaylist:
		reply = d.makePlaylist(ctx, id, cmd)
	case EditPlaylist:
		reply = d.editPlaylist(ctx, id, cmd)
	case RemovePlaylist:
		reply = okOr(d.store.DeletePlaylist(ctx, id, cmd.Name), RespInvalidHash)
	case SetPlaylistImage:
		reply = okOr(d.store.SetPlaylistImage(ctx, id, cmd.Name, cmd.Image), RespInvalidHash)
	case SetPlaylistDescription:
		reply = d.setDescription(ctx, id, cmd)
	case RenamePlaylist:
		reply = d.renamePlaylist(ctx, id, cmd)
	case RequestUserData:
		reply = d.userData(ctx, id)
	case UpdateUserData:
		reply = d.updateUserData(ctx, id, cmd)
	case Follow:
		reply = okOr(d.store.Follow(ctx, id, cmd.Username), RespCouldNotBeFound)
	case Unfollow:
		reply = okOr(d.store.Unfollow(ctx, id, cmd.Username), RespCouldNotBeFound)
	default:
		slog.Warn("unhandled command", "conn", c.ID, "verb", cmd.Verb())
		return
	}

	if reply == "" && !isListing(cmd) {
		return
	}
	if !c.Send(reply) {
		slog.Debug("reply dropped", "conn", c.ID, "verb", cmd.Verb())
	}
}

// isListing reports whether an empty reply is still a reply.
func isListing(cmd Command) bool {
	_, ok := cmd.(QueueList)
	return ok
}

func okOr(err error, failure string) string {
	if err != nil {
		return failure
	}
	return RespOK
}

func validName(name string) bool {
	return name != "" && utf8.RuneCountInString(name) <= model.MaxPlaylistName
}

func (d *Dispatcher) enqueue(cmd Queue) string {
	if err := d.queue.Enqueue(cmd.URL); err != nil {
		slog.Warn("queue request rejected", "url", cmd.URL, "error", err)
		return RespInvalidRequest
	}
	return RespAddedSong
}

func (d *Dispatcher) findSong(ctx context.Context, cmd FindSong) string {
	songID, err := d.store.FindSongByDetails(ctx, cmd.Title, cmd.Uploader, cmd.UploadDate)
	if err != nil {
		return ""
	}
	return songID.String()
}

func (d *Dispatcher) removeSong(ctx context.Context, owner model.Identity, cmd RemoveSong) string {
	songID, err := d.store.FindSongByDetails(ctx, cmd.Title, cmd.Uploader, cmd.UploadDate)
	if err != nil {
		return RespCouldNotBeFound
	}
	return okOr(d.store.RemoveSongFromPlaylist(ctx, owner, cmd.Playlist, songID), RespCouldNotBeFound)
}

func (d *Dispatcher) addSong(ctx context.Context, owner model.Identity, cmd AddSong) string {
	songID, err := d.store.FindSongByDetails(ctx, cmd.Title, cmd.Uploader, cmd.UploadDate)
	if err != nil {
		return RespCouldNotFindSong
	}
	return okOr(d.store.AppendSongToPlaylist(ctx, owner, cmd.Playlist, songID), RespCouldNotFindSong)
}

func (d *Dispatcher) addSongHash(ctx context.Context, owner model.Identity, cmd AddSongHash) string {
	songID, err := model.ParseContentID(cmd.Hash)
	if err != nil {
		return RespExpectedHash
	}
	if _, err := d.store.FindSongByHash(ctx, songID); err != nil {
		return RespInvalidHash
	}
	return okOr(d.store.AppendSongToPlaylist(ctx, owner, cmd.Playlist, songID), RespInvalidHash)
}

func (d *Dispatcher) songListShort(ctx context.Context) string {
	songs, err := d.store.ListSongs(ctx)
	if err != nil {
		slog.Warn("list songs", "error", err)
		return ""
	}
	if songs == nil {
		songs = []model.SongSummary{}
	}
	data, err := json.Marshal(songs)
	if err != nil {
		return ""
	}
	return string(data)
}

func (d *Dispatcher) makePlaylist(ctx context.Context, owner model.Identity, cmd MakePlaylist) string {
	if !validName(cmd.Name) {
		return RespInvalidHash
	}
	p := &model.Playlist{Owner: owner, Name: cmd.Name, Public: cmd.Public}
	return okOr(d.store.CreatePlaylist(ctx, p), RespInvalidHash)
}

func (d *Dispatcher) editPlaylist(ctx context.Context, owner model.Identity, cmd EditPlaylist) string {
	var u model.PlaylistUpdate
	if err := json.Unmarshal([]byte(cmd.Body), &u); err != nil {
		slog.Warn("edit playlist: bad payload", "playlist", cmd.Name, "error", err)
		return ""
	}
	if u.Description != nil && utf8.RuneCountInString(*u.Description) > model.MaxDescription {
		return ""
	}
	if err := d.store.UpdatePlaylist(ctx, owner, cmd.Name, &u); err != nil {
		slog.Warn("edit playlist", "playlist", cmd.Name, "error", err)
		return ""
	}
	return RespOK
}

func (d *Dispatcher) setDescription(ctx context.Context, owner model.Identity, cmd SetPlaylistDescription) string {
	if utf8.RuneCountInString(cmd.Description) > model.MaxDescription {
		return RespInvalidDescription
	}
	return okOr(d.store.SetPlaylistDescription(ctx, owner, cmd.Name, cmd.Description), RespInvalidDescription)
}

func (d *Dispatcher) renamePlaylist(ctx context.Context, owner model.Identity, cmd RenamePlaylist) string {
	if !validName(cmd.NewName) {
		return RespInvalidHash
	}
	return okOr(d.store.RenamePlaylist(ctx, owner, cmd.Name, cmd.NewName), RespInvalidHash)
}

func (d *Dispatcher) userData(ctx context.Context, id model.Identity) string {
	data, err := d.store.GetUserData(ctx, id)
	if err != nil {
		slog.Warn("get user data", "identity", id, "error", err)
		return ""
	}
	out, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return string(out)
}

func (d *Dispatcher) updateUserData(ctx context.Context, id model.Identity, cmd UpdateUserData) string {
	if utf8.RuneCountInString(cmd.DisplayName) > model.MaxDisplayName ||
		utf8.RuneCountInString(cmd.PublicStatus) > model.MaxStatus {
		return ""
	}
	data := &model.UserData{
		PublicProfile: cmd.PublicProfile,
		ShareStatus:   cmd.ShareStatus,
		DisplayName:   cmd.DisplayName,
		PublicStatus:  cmd.PublicStatus,
	}
	if err := d.store.SetUserData(ctx, id, data); err != nil {
		slog.Warn("set user data", "identity", id, "error", err)
		return ""
	}
	return RespOK
}
