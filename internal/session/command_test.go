package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"AUTH sean pw", Auth{User: "sean", Password: "pw"}},
		{"AUTH sean pw key", Auth{User: "sean", Password: "pw", AdminKey: "key", HasAdminKey: true}},
		{"SIGN sean pw inst", Sign{User: "sean", Password: "pw", InstanceKey: "inst"}},
		{"PING", Ping{}},
		{"QUEUE https://example/track", Queue{URL: "https://example/track"}},
		{"FIND_SONG t u 20200101", FindSong{Title: "t", Uploader: "u", UploadDate: "20200101"}},
		{"ADD_SONG_HASH mix 42", AddSongHash{Playlist: "mix", Hash: "42"}},
		{"MAKE_PLAYLIST mix true", MakePlaylist{Name: "mix", Public: true}},
		{`EDIT_PLAYLIST mix {"description": "late night", "songs": [1, 2]}`,
			EditPlaylist{Name: "mix", Body: `{"description": "late night", "songs": [1, 2]}`}},
		{"SET_PLAYLIST_DESCRIPTION mix songs for  driving", SetPlaylistDescription{Name: "mix", Description: "songs for  driving"}},
		{"UPDATE_USERDATA true false Sean", UpdateUserData{PublicProfile: true, DisplayName: "Sean"}},
		{"UPDATE_USERDATA false true Sean on tour", UpdateUserData{ShareStatus: true, DisplayName: "Sean", PublicStatus: "on tour"}},
		{"FOLLOW alice", Follow{Username: "alice"}},
		{"CLOSE", Close{}},
		{"VOL_SET  35", Relay{Name: "VOL_SET", Line: "VOL_SET  35"}},
		{"PLAY", Relay{Name: "PLAY", Line: "PLAY"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		line string
		want error
	}{
		{"", ErrEmpty},
		{"DANCE now", ErrUnknownVerb},
		{"AUTH sean", ErrArity},
		{"AUTH a b c d", ErrArity},
		{"SIGN sean pw", ErrArity},
		{"QUEUE", ErrArity},
		{"FIND_SONG t u", ErrArity},
		{"MAKE_PLAYLIST mix maybe", ErrBadArgument},
		{"EDIT_PLAYLIST mix", ErrArity},
		{"UPDATE_USERDATA true false", ErrArity},
		{"UPDATE_USERDATA yes no Sean", ErrBadArgument},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := Parse(tt.line)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
