package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"eclipse/internal/logger"
	"eclipse/internal/model"
	"eclipse/internal/repository"
)

// DefaultProfileRetryDelay is how long sign-in waits before looking for a
// freshly registered user's profile a second time.
const DefaultProfileRetryDelay = time.Second

// ProfileStore holds the signed-in user's profile and applies every change
// to it through the record store first.
type ProfileStore struct {
	auth       Authenticator
	profiles   repository.ProfileRepository
	retryDelay time.Duration
	now        func() time.Time

	// writeMu serializes read-modify-write of profile collections.
	writeMu sync.Mutex

	mu          sync.RWMutex
	profile     *model.Profile
	closed      bool
	unsubscribe func()
}

func NewProfileStore(auth Authenticator, profiles repository.ProfileRepository) *ProfileStore {
	return &ProfileStore{
		auth:       auth,
		profiles:   profiles,
		retryDelay: DefaultProfileRetryDelay,
		now:        time.Now,
	}
}

// Bootstrap listens for auth events and restores the persisted session,
// creating the profile when the user has none.
func (s *ProfileStore) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	if s.unsubscribe == nil {
		s.unsubscribe = s.auth.Subscribe(s.handleAuthEvent)
	}
	s.mu.Unlock()

	session, err := s.auth.ResolveSession(ctx)
	if err != nil {
		logger.For("ProfileStore").Errorf("Bootstrap FAILED: err=%v", err)
		return err
	}
	if session == nil {
		logger.For("ProfileStore").Info("Bootstrap: no session")
		return nil
	}
	return s.load(ctx, session, false)
}

// Close stops listening for auth events.
func (s *ProfileStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Current returns a copy of the profile, or nil when signed out.
func (s *ProfileStore) Current() *model.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Clone()
}

// Login signs in; the profile is loaded by the resulting SignedIn event.
// Failures are *model.AuthError.
func (s *ProfileStore) Login(ctx context.Context, identifier, secret string) error {
	_, err := s.auth.SignIn(ctx, identifier, secret)
	return err
}

// Register signs up with display metadata. The handle always starts with
// "@". The profile itself is created on sign-in when missing.
func (s *ProfileStore) Register(ctx context.Context, email, name, handle, secret string) error {
	_, err := s.auth.SignUp(ctx, email, secret, model.UserMetadata{
		DisplayName: strings.TrimSpace(name),
		Handle:      normalizeHandle(handle),
	})
	return err
}

// Logout ends the session; local state is cleared by the SignedOut event
// and again here in case the event is never delivered.
func (s *ProfileStore) Logout(ctx context.Context) error {
	err := s.auth.SignOut(ctx)
	s.setProfile(nil)
	return err
}

func normalizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	if handle == "" || strings.HasPrefix(handle, "@") {
		return handle
	}
	return "@" + handle
}

func (s *ProfileStore) handleAuthEvent(ctx context.Context, event model.AuthEvent) {
	switch event.Type {
	case model.SignedOut:
		s.setProfile(nil)
		logger.For("ProfileStore").Info("Signed out: profile cleared")
	case model.SignedIn:
		if event.Session == nil {
			return
		}
		_ = s.load(ctx, event.Session, true)
	}
}

// load fetches the session's profile. After a fresh sign-in the record may
// lag behind, so a miss is retried once after retryDelay before the
// default profile is created.
func (s *ProfileStore) load(ctx context.Context, session *model.Session, retry bool) error {
	log := logger.For("ProfileStore")

	profile, err := s.profiles.GetByID(ctx, session.UserID)
	if retry && errors.Is(err, model.ErrProfileNotFound) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retryDelay):
		}
		profile, err = s.profiles.GetByID(ctx, session.UserID)
	}

	if errors.Is(err, model.ErrProfileNotFound) {
		profile = defaultProfileFor(session)
		if err := s.profiles.Create(ctx, profile); err != nil {
			log.Errorf("Profile create FAILED: user=%s err=%v", session.UserID, err)
			return err
		}
		log.Infof("Profile created: user=%s handle=%s", profile.ID, profile.Handle)
		// Create does nothing when a concurrent insert won; read the winner.
		if stored, err := s.profiles.GetByID(ctx, session.UserID); err == nil {
			profile = stored
		}
	} else if err != nil {
		log.Errorf("Profile fetch FAILED: user=%s err=%v", session.UserID, err)
		return err
	}

	s.setProfile(profile)
	log.Infof("Profile loaded: user=%s", profile.ID)
	return nil
}

func defaultProfileFor(session *model.Session) *model.Profile {
	p := model.NewDefaultProfile(session.UserID, session.Email)
	if session.Metadata.DisplayName != "" {
		p.Name = session.Metadata.DisplayName
	}
	if session.Metadata.Handle != "" {
		p.Handle = normalizeHandle(session.Metadata.Handle)
	}
	return p
}

func (s *ProfileStore) setProfile(p *model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed && p != nil {
		return
	}
	s.profile = p
}

// UpdateProfile writes the non-nil fields of patch, then mirrors them into
// the local profile. On failure the local profile is left as it was.
func (s *ProfileStore) UpdateProfile(ctx context.Context, patch model.ProfilePatch) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.update(ctx, patch)
}

func (s *ProfileStore) update(ctx context.Context, patch model.ProfilePatch) error {
	current := s.Current()
	if current == nil {
		return model.ErrNotSignedIn
	}
	if patch.IsEmpty() {
		return nil
	}

	if err := s.profiles.Update(ctx, current.ID, patch); err != nil {
		logger.For("ProfileStore").Errorf("Update FAILED: user=%s err=%v", current.ID, err)
		return err
	}

	s.mu.Lock()
	if s.profile != nil && s.profile.ID == current.ID {
		patch.Apply(s.profile)
	}
	s.mu.Unlock()
	return nil
}

// mutate computes a patch from the current profile and writes it.
func (s *ProfileStore) mutate(ctx context.Context, next func(p *model.Profile) (model.ProfilePatch, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.Current()
	if current == nil {
		return model.ErrNotSignedIn
	}
	patch, err := next(current)
	if err != nil {
		return err
	}
	return s.update(ctx, patch)
}

// ToggleSubscription subscribes to channel, or unsubscribes when already
// subscribed. It reports the state that was written.
func (s *ProfileStore) ToggleSubscription(ctx context.Context, channel string) (bool, error) {
	var subscribed bool
	err := s.mutate(ctx, func(p *model.Profile) (model.ProfilePatch, error) {
		subscribed = !p.HasSubscription(channel)
		subs := model.ToggleSubscription(p.Subscriptions, channel)
		return model.ProfilePatch{Subscriptions: &subs}, nil
	})
	if err != nil {
		return false, err
	}
	return subscribed, nil
}

// AddToHistory moves videoID to the front of the watch history.
func (s *ProfileStore) AddToHistory(ctx context.Context, videoID string) error {
	return s.mutate(ctx, func(p *model.Profile) (model.ProfilePatch, error) {
		history := model.PushHistory(p.History, videoID)
		return model.ProfilePatch{History: &history}, nil
	})
}

func (s *ProfileStore) ClearHistory(ctx context.Context) error {
	return s.mutate(ctx, func(p *model.Profile) (model.ProfilePatch, error) {
		history := []string{}
		return model.ProfilePatch{History: &history}, nil
	})
}

// CreatePlaylist appends an empty playlist and returns its id.
func (s *ProfileStore) CreatePlaylist(ctx context.Context, title, description string) (string, error) {
	pl := model.Playlist{
		ID:          model.NewPlaylistID(),
		Title:       strings.TrimSpace(title),
		Description: description,
		VideoIDs:    []string{},
		DateCreated: s.now().UTC(),
	}
	err := s.mutate(ctx, func(p *model.Profile) (model.ProfilePatch, error) {
		playlists := model.AppendPlaylist(p.Playlists, pl)
		return model.ProfilePatch{Playlists: &playlists}, nil
	})
	if err != nil {
		return "", err
	}
	return pl.ID, nil
}

func (s *ProfileStore) DeletePlaylist(ctx context.Context, id string) error {
	return s.mutatePlaylist(ctx, id, func(playlists []model.Playlist) []model.Playlist {
		return model.RemovePlaylist(playlists, id)
	})
}

// AddToPlaylist appends videoID unless the playlist already holds it.
func (s *ProfileStore) AddToPlaylist(ctx context.Context, id, videoID string) error {
	return s.mutatePlaylist(ctx, id, func(playlists []model.Playlist) []model.Playlist {
		return model.AddToPlaylist(playlists, id, videoID)
	})
}

func (s *ProfileStore) RemoveFromPlaylist(ctx context.Context, id, videoID string) error {
	return s.mutatePlaylist(ctx, id, func(playlists []model.Playlist) []model.Playlist {
		return model.RemoveFromPlaylist(playlists, id, videoID)
	})
}

// mutatePlaylist rejects unknown playlist ids without writing.
func (s *ProfileStore) mutatePlaylist(ctx context.Context, id string, next func([]model.Playlist) []model.Playlist) error {
	return s.mutate(ctx, func(p *model.Profile) (model.ProfilePatch, error) {
		if _, ok := p.Playlist(id); !ok {
			return model.ProfilePatch{}, model.ErrPlaylistNotFound
		}
		playlists := next(p.Playlists)
		return model.ProfilePatch{Playlists: &playlists}, nil
	})
}
