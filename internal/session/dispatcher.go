package session

import (
	"context"
	"log/slog"

	"github.com/YannKr/tunesync/internal/admission"
	"github.com/YannKr/tunesync/internal/auth"
	"github.com/YannKr/tunesync/internal/metrics"
	"github.com/YannKr/tunesync/internal/model"
)

// Store is the slice of the Identity Store that sessions use.
type Store interface {
	VerifyCredentials(ctx context.Context, username, password string) (bool, model.Identity, error)
	CreateUser(ctx context.Context, username, password string) error
	UsernameExists(ctx context.Context, username string) (bool, error)
	IsAdmin(ctx context.Context, id model.Identity) (bool, error)
	TouchLastLogin(ctx context.Context, id model.Identity) error

	GetUserData(ctx context.Context, id model.Identity) (*model.UserData, error)
	SetUserData(ctx context.Context, id model.Identity, d *model.UserData) error
	Follow(ctx context.Context, follower model.Identity, followee string) error
	Unfollow(ctx context.Context, follower model.Identity, followee string) error

	FindSongByDetails(ctx context.Context, title, uploader, uploadDate string) (model.ContentID, error)
	FindSongByHash(ctx context.Context, id model.ContentID) (*model.Song, error)
	ListSongs(ctx context.Context) ([]model.SongSummary, error)

	CreatePlaylist(ctx context.Context, p *model.Playlist) error
	RenamePlaylist(ctx context.Context, owner model.Identity, name, newName string) error
	DeletePlaylist(ctx context.Context, owner model.Identity, name string) error
	SetPlaylistDescription(ctx context.Context, owner model.Identity, name, description string) error
	SetPlaylistImage(ctx context.Context, owner model.Identity, name, image string) error
	UpdatePlaylist(ctx context.Context, owner model.Identity, name string, u *model.PlaylistUpdate) error
	AppendSongToPlaylist(ctx context.Context, owner model.Identity, name string, id model.ContentID) error
	RemoveSongFromPlaylist(ctx context.Context, owner model.Identity, name string, id model.ContentID) error
}

// DownloadQueue is the producer side of the download queue.
type DownloadQueue interface {
	Enqueue(url string) error
	Pending() []string
}

// Secrets holds the shared keys checked by the pre-auth commands.
type Secrets struct {
	InstanceKey string
	AdminKey    string
}

// Dispatcher is the entry point for every inbound frame.
type Dispatcher struct {
	store    Store
	queue    DownloadQueue
	gate     *admission.Gate
	registry *Registry
	secrets  Secrets
}

func NewDispatcher(store Store, queue DownloadQueue, gate *admission.Gate, registry *Registry, secrets Secrets) *Dispatcher {
	return &Dispatcher{
		store:    store,
		queue:    queue,
		gate:     gate,
		registry: registry,
		secrets:  secrets,
	}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Handle processes one frame from c. Frames from an unauthenticated
// connection are only ever treated as AUTH or SIGN.
func (d *Dispatcher) Handle(ctx context.Context, c *Connection, line string) {
	switch c.State() {
	case Closed:
		return
	case Unauthenticated:
		d.handlePreAuth(ctx, c, line)
		return
	}

	id, ok := c.Identity()
	if !ok {
		return
	}
	if !d.gate.Admit(id) {
		metrics.AdmissionDropped.Inc()
		slog.Debug("message dropped, identity blocked", "conn", c.ID, "identity", id)
		return
	}

	cmd, err := Parse(line)
	if err != nil {
		slog.Warn("ignoring command", "conn", c.ID, "error", err)
		return
	}
	metrics.Commands.WithLabelValues(cmd.Verb()).Inc()
	d.route(ctx, c, id, cmd)
}

func (d *Dispatcher) handlePreAuth(ctx context.Context, c *Connection, line string) {
	cmd, err := Parse(line)
	if err != nil {
		slog.Warn("ignoring pre-auth message", "conn", c.ID, "error", err)
		return
	}
	switch cmd := cmd.(type) {
	case Auth:
		d.authenticate(ctx, c, cmd)
	case Sign:
		d.signUp(ctx, c, cmd)
	default:
		slog.Warn("ignoring command before auth", "conn", c.ID, "verb", cmd.Verb())
	}
}

func (d *Dispatcher) authenticate(ctx context.Context, c *Connection, cmd Auth) {
	ok, id, err := d.store.VerifyCredentials(ctx, cmd.User, cmd.Password)
	if err != nil || !ok {
		d.registry.Remove(c.ID)
		slog.Info("auth failed, connection removed", "conn", c.ID, "error", err)
		return
	}

	admin := false
	if cmd.HasAdminKey && auth.SecretMatches(d.secrets.AdminKey, cmd.AdminKey) {
		admin, err = d.store.IsAdmin(ctx, id)
		if err != nil {
			slog.Warn("admin lookup failed", "conn", c.ID, "identity", id, "error", err)
			admin = false
		}
	}
	if !c.authenticate(id, admin) {
		return
	}

	go func() {
		if err := d.store.TouchLastLogin(context.WithoutCancel(ctx), id); err != nil {
			slog.Warn("touch last login", "identity", id, "error", err)
		}
	}()
	slog.Info("authenticated", "conn", c.ID, "identity", id, "admin", admin)
}

// signUp creates an account. It never authenticates the connection.
func (d *Dispatcher) signUp(ctx context.Context, c *Connection, cmd Sign) {
	if !auth.SecretMatches(d.secrets.InstanceKey, cmd.InstanceKey) {
		slog.Warn("sign up with invalid instance key", "conn", c.ID)
		return
	}
	exists, err := d.store.UsernameExists(ctx, cmd.User)
	if err != nil {
		slog.Warn("sign up lookup failed", "conn", c.ID, "error", err)
		return
	}
	if exists {
		slog.Warn("sign up for taken username", "conn", c.ID)
		return
	}
	if err := d.store.CreateUser(ctx, cmd.User, cmd.Password); err != nil {
		slog.Warn("failed to create user", "conn", c.ID, "error", err)
		return
	}
	slog.Info("created user", "conn", c.ID, "identity", model.IdentityOf(cmd.User))
}
