package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eclipse/internal/model"
)

type profileFixture struct {
	store    *ProfileStore
	auth     *AuthService
	users    *fakeAuthUsers
	sessions *fakeSessions
	profiles *fakeProfiles
}

func newProfileFixture(t *testing.T) *profileFixture {
	t.Helper()
	f := &profileFixture{
		users:    newFakeAuthUsers(),
		sessions: &fakeSessions{},
		profiles: newFakeProfiles(),
	}
	f.auth = NewAuthService(f.users, f.sessions, "test-secret", time.Hour)
	f.store = NewProfileStore(f.auth, f.profiles)
	f.store.retryDelay = time.Millisecond
	require.NoError(t, f.store.Bootstrap(context.Background()))
	t.Cleanup(f.store.Close)
	return f
}

// signUp registers ann and returns her loaded profile.
func (f *profileFixture) signUp(t *testing.T) *model.Profile {
	t.Helper()
	require.NoError(t, f.store.Register(context.Background(), "a@b.com", "Ann", "ann", "secret1"))
	p := f.store.Current()
	require.NotNil(t, p)
	return p
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestRegister_CreatesProfileWithEmptyCollections(t *testing.T) {
	f := newProfileFixture(t)

	p := f.signUp(t)

	assert.Equal(t, "Ann", p.Name)
	assert.Equal(t, "@ann", p.Handle)
	assert.Equal(t, "a@b.com", p.Email)
	assert.Equal(t, "No description yet.", p.Description)
	assert.NotNil(t, p.Subscriptions)
	assert.Empty(t, p.Subscriptions)
	assert.NotNil(t, p.History)
	assert.Empty(t, p.History)
	assert.NotNil(t, p.Playlists)
	assert.Empty(t, p.Playlists)

	stored := f.profiles.stored(p.ID)
	require.NotNil(t, stored)
	assert.Equal(t, "@ann", stored.Handle)
}

func TestLogin_RetriesOnceBeforeCreating(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()

	// Register without a listening store so no profile exists yet.
	f.store.Close()
	session, err := f.auth.SignUp(ctx, "b@c.com", "secret1", model.UserMetadata{DisplayName: "Bo"})
	require.NoError(t, err)

	trigger := model.NewDefaultProfile(session.UserID, "b@c.com")
	trigger.Name = "Bo from trigger"
	f.profiles.late[session.UserID] = trigger
	require.NoError(t, f.sessions.Clear(ctx))

	store := NewProfileStore(f.auth, f.profiles)
	store.retryDelay = time.Millisecond
	require.NoError(t, store.Bootstrap(ctx))
	defer store.Close()

	require.NoError(t, store.Login(ctx, "b@c.com", "secret1"))

	p := store.Current()
	require.NotNil(t, p)
	assert.Equal(t, "Bo from trigger", p.Name)
	assert.Equal(t, 0, f.profiles.createCalls)
}

func TestLogin_AuthErrors(t *testing.T) {
	f := newProfileFixture(t)
	f.signUp(t)
	require.NoError(t, f.store.Logout(context.Background()))

	tests := []struct {
		name     string
		email    string
		password string
		message  string
	}{
		{"empty password", "a@b.com", "", "Password required."},
		{"empty email", "", "secret1", "Email required."},
		{"wrong password", "a@b.com", "nope-nope", "Invalid login credentials."},
		{"unknown user", "x@y.com", "secret1", "Invalid login credentials."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.store.Login(context.Background(), tt.email, tt.password)
			var authErr *model.AuthError
			require.True(t, errors.As(err, &authErr), "expected *model.AuthError, got %v", err)
			assert.Equal(t, tt.message, authErr.Message)
			assert.Nil(t, f.store.Current())
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newProfileFixture(t)
	f.signUp(t)

	err := f.store.Register(context.Background(), "A@B.com", "Ann 2", "@ann2", "secret2")

	var authErr *model.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "User already registered.", authErr.Message)
}

func TestLogout_ClearsProfileAndSession(t *testing.T) {
	f := newProfileFixture(t)
	f.signUp(t)

	require.NoError(t, f.store.Logout(context.Background()))

	assert.Nil(t, f.store.Current())
	s, err := f.sessions.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestBootstrap_RestoresPersistedSession(t *testing.T) {
	f := newProfileFixture(t)
	p := f.signUp(t)

	restarted := NewProfileStore(f.auth, f.profiles)
	require.NoError(t, restarted.Bootstrap(context.Background()))
	defer restarted.Close()

	got := restarted.Current()
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)
}

func TestBootstrap_NoSession(t *testing.T) {
	f := newProfileFixture(t)
	assert.Nil(t, f.store.Current())
}

func TestCurrent_ReturnsCopy(t *testing.T) {
	f := newProfileFixture(t)
	f.signUp(t)

	p := f.store.Current()
	p.Name = "mutated"
	p.History = append(p.History, "v9")

	again := f.store.Current()
	assert.Equal(t, "Ann", again.Name)
	assert.Empty(t, again.History)
}

// =============================================================================
// MUTATOR TESTS
// =============================================================================

func TestAddToHistory_MovesRewatchToFront(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()
	p := f.signUp(t)

	history := []string{"v1", "v2"}
	require.NoError(t, f.store.UpdateProfile(ctx, model.ProfilePatch{History: &history}))

	require.NoError(t, f.store.AddToHistory(ctx, "v2"))

	assert.Equal(t, []string{"v2", "v1"}, f.store.Current().History)
	assert.Equal(t, []string{"v2", "v1"}, f.profiles.stored(p.ID).History)
}

func TestClearHistory(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()
	f.signUp(t)

	require.NoError(t, f.store.AddToHistory(ctx, "v1"))
	require.NoError(t, f.store.ClearHistory(ctx))

	assert.Empty(t, f.store.Current().History)
}

func TestToggleSubscription_TwiceRestores(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()
	f.signUp(t)

	subscribed, err := f.store.ToggleSubscription(ctx, "Chef Maria")
	require.NoError(t, err)
	assert.True(t, subscribed)
	assert.Equal(t, []string{"Chef Maria"}, f.store.Current().Subscriptions)

	subscribed, err = f.store.ToggleSubscription(ctx, "Chef Maria")
	require.NoError(t, err)
	assert.False(t, subscribed)
	assert.Empty(t, f.store.Current().Subscriptions)
}

func TestPlaylists_FavoritesScenario(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()
	f.signUp(t)

	id, err := f.store.CreatePlaylist(ctx, "Favorites", "")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, f.store.AddToPlaylist(ctx, id, "vid1"))
	require.NoError(t, f.store.AddToPlaylist(ctx, id, "vid1"))

	pl, ok := f.store.Current().Playlist(id)
	require.True(t, ok)
	assert.Equal(t, "Favorites", pl.Title)
	assert.Equal(t, []string{"vid1"}, pl.VideoIDs)
}

func TestPlaylists_RemoveAndDelete(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()
	f.signUp(t)

	id, err := f.store.CreatePlaylist(ctx, "Watch later", "queue")
	require.NoError(t, err)
	require.NoError(t, f.store.AddToPlaylist(ctx, id, "v1"))
	require.NoError(t, f.store.AddToPlaylist(ctx, id, "v2"))
	require.NoError(t, f.store.RemoveFromPlaylist(ctx, id, "v1"))

	pl, _ := f.store.Current().Playlist(id)
	assert.Equal(t, []string{"v2"}, pl.VideoIDs)

	require.NoError(t, f.store.DeletePlaylist(ctx, id))
	assert.Empty(t, f.store.Current().Playlists)

	assert.ErrorIs(t, f.store.AddToPlaylist(ctx, id, "v3"), model.ErrPlaylistNotFound)
}

func TestUpdateProfile_BackendErrorKeepsLocalState(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()
	f.signUp(t)

	f.profiles.updateErr = errors.New("connection reset")
	name := "Changed"
	err := f.store.UpdateProfile(ctx, model.ProfilePatch{Name: &name})

	assert.Error(t, err)
	assert.Equal(t, "Ann", f.store.Current().Name)
}

func TestUpdateProfile_WritesOnlyGivenFields(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()
	p := f.signUp(t)

	desc := "Cooking every Sunday."
	require.NoError(t, f.store.UpdateProfile(ctx, model.ProfilePatch{Description: &desc}))

	last := f.profiles.updates[len(f.profiles.updates)-1]
	assert.NotNil(t, last.Description)
	assert.Nil(t, last.Name)
	assert.Nil(t, last.History)
	assert.Equal(t, desc, f.profiles.stored(p.ID).Description)
	assert.Equal(t, "Ann", f.profiles.stored(p.ID).Name)
}

func TestMutators_RequireSignIn(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.store.AddToHistory(ctx, "v1"), model.ErrNotSignedIn)
	_, err := f.store.ToggleSubscription(ctx, "x")
	assert.ErrorIs(t, err, model.ErrNotSignedIn)
	_, err = f.store.CreatePlaylist(ctx, "t", "")
	assert.ErrorIs(t, err, model.ErrNotSignedIn)
	assert.Empty(t, f.profiles.updates)
}

func TestNormalizeHandle(t *testing.T) {
	assert.Equal(t, "@ann", normalizeHandle("ann"))
	assert.Equal(t, "@ann", normalizeHandle(" @ann "))
	assert.Equal(t, "", normalizeHandle("  "))
}
