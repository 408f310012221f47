package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEmpty       = errors.New("empty command")
	ErrUnknownVerb = errors.New("unknown verb")
	ErrArity       = errors.New("wrong number of arguments")
	ErrBadArgument = errors.New("bad argument")
)

// Command is one parsed protocol line. The set of implementations is closed;
// dispatch switches over the concrete types.
type Command interface {
	Verb() string
}

type (
	Auth struct {
		User, Password string
		AdminKey       string
		HasAdminKey    bool
	}
	Sign struct {
		User, Password, InstanceKey string
	}

	// Relay is a playback control forwarded verbatim to the sender's sessions.
	Relay struct {
		Name string
		Line string
	}

	Ping      struct{}
	Queue     struct{ URL string }
	QueueList struct{}

	FindSong struct {
		Title, Uploader, UploadDate string
	}
	RemoveSong struct {
		Playlist, Title, Uploader, UploadDate string
	}
	AddSong struct {
		Playlist, Title, Uploader, UploadDate string
	}
	AddSongHash struct {
		Playlist, Hash string
	}
	SongListShort struct{}

	MakePlaylist struct {
		Name   string
		Public bool
	}
	EditPlaylist struct {
		Name, Body string
	}
	RemovePlaylist   struct{ Name string }
	SetPlaylistImage struct {
		Name, Image string
	}
	SetPlaylistDescription struct {
		Name, Description string
	}
	RenamePlaylist struct {
		Name, NewName string
	}

	RequestUserData struct{}
	UpdateUserData  struct {
		PublicProfile bool
		ShareStatus   bool
		DisplayName   string
		PublicStatus  string
	}
	Follow   struct{ Username string }
	Unfollow struct{ Username string }

	Close struct{}
)

func (Auth) Verb() string                   { return "AUTH" }
func (Sign) Verb() string                   { return "SIGN" }
func (r Relay) Verb() string                { return r.Name }
func (Ping) Verb() string                   { return "PING" }
func (Queue) Verb() string                  { return "QUEUE" }
func (QueueList) Verb() string              { return "QUEUE_LIST" }
func (FindSong) Verb() string               { return "FIND_SONG" }
func (RemoveSong) Verb() string             { return "REMOVE_SONG" }
func (AddSong) Verb() string                { return "ADD_SONG" }
func (AddSongHash) Verb() string            { return "ADD_SONG_HASH" }
func (SongListShort) Verb() string          { return "SONG_LIST_SHORT" }
func (MakePlaylist) Verb() string           { return "MAKE_PLAYLIST" }
func (EditPlaylist) Verb() string           { return "EDIT_PLAYLIST" }
func (RemovePlaylist) Verb() string         { return "REMOVE_PLAYLIST" }
func (SetPlaylistImage) Verb() string       { return "SET_PLAYLIST_IMAGE" }
func (SetPlaylistDescription) Verb() string { return "SET_PLAYLIST_DESCRIPTION" }
func (RenamePlaylist) Verb() string         { return "RENAME_PLAYLIST" }
func (RequestUserData) Verb() string        { return "REQUEST_USER_DATA" }
func (UpdateUserData) Verb() string         { return "UPDATE_USERDATA" }
func (Follow) Verb() string                 { return "FOLLOW" }
func (Unfollow) Verb() string               { return "UNFOLLOW" }
func (Close) Verb() string                  { return "CLOSE" }

var relayVerbs = map[string]bool{
	"PLAY":     true,
	"PAUSE":    true,
	"SKIP":     true,
	"VOL_UP":   true,
	"VOL_DOWN": true,
	"VOL_SET":  true,
}

// Parse reads one line as `VERB arg...`. Arguments are separated by spaces,
// except for the verbs whose last argument takes the rest of the line.
func Parse(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	verb, rest, _ := strings.Cut(line, " ")
	if verb == "" {
		return nil, ErrEmpty
	}
	if relayVerbs[verb] {
		return Relay{Name: verb, Line: line}, nil
	}

	args := strings.Fields(rest)
	want := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s: %w: got %d, want %d", verb, ErrArity, len(args), n)
		}
		return nil
	}

	switch verb {
	case "AUTH":
		if len(args) != 2 && len(args) != 3 {
			return nil, fmt.Errorf("%s: %w: got %d", verb, ErrArity, len(args))
		}
		a := Auth{User: args[0], Password: args[1]}
		if len(args) == 3 {
			a.AdminKey, a.HasAdminKey = args[2], true
		}
		return a, nil
	case "SIGN":
		if err := want(3); err != nil {
			return nil, err
		}
		return Sign{User: args[0], Password: args[1], InstanceKey: args[2]}, nil
	case "PING":
		return Ping{}, nil
	case "QUEUE":
		if err := want(1); err != nil {
			return nil, err
		}
		return Queue{URL: args[0]}, nil
	case "QUEUE_LIST":
		return QueueList{}, nil
	case "FIND_SONG":
		if err := want(3); err != nil {
			return nil, err
		}
		return FindSong{Title: args[0], Uploader: args[1], UploadDate: args[2]}, nil
	case "REMOVE_SONG":
		if err := want(4); err != nil {
			return nil, err
		}
		return RemoveSong{Playlist: args[0], Title: args[1], Uploader: args[2], UploadDate: args[3]}, nil
	case "ADD_SONG":
		if err := want(4); err != nil {
			return nil, err
		}
		return AddSong{Playlist: args[0], Title: args[1], Uploader: args[2], UploadDate: args[3]}, nil
	case "ADD_SONG_HASH":
		if err := want(2); err != nil {
			return nil, err
		}
		return AddSongHash{Playlist: args[0], Hash: args[1]}, nil
	case "SONG_LIST_SHORT":
		return SongListShort{}, nil
	case "MAKE_PLAYLIST":
		if err := want(2); err != nil {
			return nil, err
		}
		public, err := strconv.ParseBool(args[1])
		if err != nil {
			return nil, fmt.Errorf("%s: %w: public flag %q", verb, ErrBadArgument, args[1])
		}
		return MakePlaylist{Name: args[0], Public: public}, nil
	case "EDIT_PLAYLIST":
		name, body, ok := splitTrailing(rest)
		if !ok {
			return nil, fmt.Errorf("%s: %w", verb, ErrArity)
		}
		return EditPlaylist{Name: name, Body: body}, nil
	case "REMOVE_PLAYLIST":
		if err := want(1); err != nil {
			return nil, err
		}
		return RemovePlaylist{Name: args[0]}, nil
	case "SET_PLAYLIST_IMAGE":
		if err := want(2); err != nil {
			return nil, err
		}
		return SetPlaylistImage{Name: args[0], Image: args[1]}, nil
	case "SET_PLAYLIST_DESCRIPTION":
		name, desc, ok := splitTrailing(rest)
		if !ok {
			return nil, fmt.Errorf("%s: %w", verb, ErrArity)
		}
		return SetPlaylistDescription{Name: name, Description: desc}, nil
	case "RENAME_PLAYLIST":
		if err := want(2); err != nil {
			return nil, err
		}
		return RenamePlaylist{Name: args[0], NewName: args[1]}, nil
	case "REQUEST_USER_DATA":
		return RequestUserData{}, nil
	case "UPDATE_USERDATA":
		if len(args) < 3 {
			return nil, fmt.Errorf("%s: %w: got %d, want at least 3", verb, ErrArity, len(args))
		}
		profile, err1 := strconv.ParseBool(args[0])
		share, err2 := strconv.ParseBool(args[1])
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%s: %w: flags %q %q", verb, ErrBadArgument, args[0], args[1])
		}
		return UpdateUserData{
			PublicProfile: profile,
			ShareStatus:   share,
			DisplayName:   args[2],
			PublicStatus:  strings.Join(args[3:], " "),
		}, nil
	case "FOLLOW":
		if err := want(1); err != nil {
			return nil, err
		}
		return Follow{Username: args[0]}, nil
	case "UNFOLLOW":
		if err := want(1); err != nil {
			return nil, err
		}
		return Unfollow{Username: args[0]}, nil
	case "CLOSE":
		return Close{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownVerb, verb)
}

// splitTrailing splits "name payload..." keeping the payload untouched.
func splitTrailing(rest string) (string, string, bool) {
	rest = strings.TrimLeft(rest, " ")
	name, payload, ok := strings.Cut(rest, " ")
	if !ok || name == "" || payload == "" {
		return "", "", false
	}
	return name, payload, true
}
