package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"eclipse/internal/localstore"
	"eclipse/internal/logger"
	"eclipse/internal/model"
	"eclipse/internal/repository"
)

// MinPasswordLength is the shortest secret accepted at sign-up.
const MinPasswordLength = 6

// Messages shown to the user on auth failures.
const (
	msgEmailRequired      = "Email required."
	msgEmailInvalid       = "Unable to validate email address: invalid format."
	msgPasswordRequired   = "Password required."
	msgPasswordTooShort   = "Password should be at least 6 characters."
	msgInvalidCredentials = "Invalid login credentials."
	msgAlreadyRegistered  = "User already registered."
	msgAuthUnavailable    = "Authentication is unavailable. Please try again."
)

// AuthListener receives sign-in and sign-out events.
type AuthListener func(ctx context.Context, event model.AuthEvent)

// Authenticator is the session collaborator the profile store depends on.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	SignUp(ctx context.Context, email, password string, meta model.UserMetadata) (*model.Session, error)
	// ResolveSession returns the persisted session, or nil when there is
	// none or it is no longer valid.
	ResolveSession(ctx context.Context) (*model.Session, error)
	SignOut(ctx context.Context) error
	Subscribe(listener AuthListener) func()
}

// AuthService issues HS256 session tokens for credentials kept in the
// record store and remembers the current session in the local store.
type AuthService struct {
	users    repository.AuthUserRepository
	sessions localstore.SessionStore
	secret   []byte
	ttl      time.Duration
	now      func() time.Time

	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]AuthListener
}

func NewAuthService(users repository.AuthUserRepository, sessions localstore.SessionStore, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		secret:    []byte(secret),
		ttl:       ttl,
		now:       time.Now,
		listeners: make(map[uint64]AuthListener),
	}
}

// SignIn checks the credentials and starts a session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	if password == "" {
		return nil, &model.AuthError{Message: msgPasswordRequired}
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, &model.AuthError{Message: msgEmailRequired}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, &model.AuthError{Message: msgInvalidCredentials}
	}
	if err != nil {
		logger.For("AuthService").Errorf("SignIn lookup FAILED: email=%s err=%v", email, err)
		return nil, &model.AuthError{Message: msgAuthUnavailable}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(password)); err != nil {
		return nil, &model.AuthError{Message: msgInvalidCredentials}
	}

	return s.startSession(ctx, user)
}

// SignUp registers the credentials with display metadata and starts a
// session for the new user.
func (s *AuthService) SignUp(ctx context.Context, email, password string, meta model.UserMetadata) (*model.Session, error) {
	log := logger.For("AuthService")

	if password == "" {
		return nil, &model.AuthError{Message: msgPasswordRequired}
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, &model.AuthError{Message: msgEmailRequired}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &model.AuthError{Message: msgEmailInvalid}
	}
	if len(password) < MinPasswordLength {
		return nil, &model.AuthError{Message: msgPasswordTooShort}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Errorf("SignUp hash FAILED: err=%v", err)
		return nil, &model.AuthError{Message: msgAuthUnavailable}
	}

	user := &model.AuthUser{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordHashed: string(hashed),
		DisplayName:    strings.TrimSpace(meta.DisplayName),
		Handle:         strings.TrimSpace(meta.Handle),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrEmailExists) {
			return nil, &model.AuthError{Message: msgAlreadyRegistered}
		}
		log.Errorf("SignUp FAILED: email=%s err=%v", email, err)
		return nil, &model.AuthError{Message: msgAuthUnavailable}
	}
	log.Infof("User registered: id=%s", user.ID)

	return s.startSession(ctx, user)
}

// ResolveSession loads the persisted session and checks its token. An
// invalid or expired session is cleared and reported as none.
func (s *AuthService) ResolveSession(ctx context.Context) (*model.Session, error) {
	stored, err := s.sessions.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if stored == nil {
		return nil, nil
	}

	session, err := s.ValidateToken(stored.Token)
	if err != nil {
		logger.For("AuthService").Infof("Stored session discarded: user=%s err=%v", stored.UserID, err)
		if err := s.sessions.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clear stale session: %w", err)
		}
		return nil, nil
	}
	return session, nil
}

// SignOut forgets the session and notifies listeners.
func (s *AuthService) SignOut(ctx context.Context) error {
	if err := s.sessions.Clear(ctx); err != nil {
		logger.For("AuthService").Errorf("SignOut FAILED: err=%v", err)
		return err
	}
	s.emit(ctx, model.AuthEvent{Type: model.SignedOut})
	return nil
}

// Subscribe registers listener and returns the matching unsubscribe func.
// Listeners run synchronously on the signing-in goroutine.
func (s *AuthService) Subscribe(listener AuthListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = listener
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// ValidateToken parses a session token issued by this service.
func (s *AuthService) ValidateToken(tokenString string) (*model.Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, model.ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrInvalidSession
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, model.ErrInvalidSession
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, model.ErrInvalidSession
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	handle, _ := claims["handle"].(string)
	return &model.Session{
		Token:     tokenString,
		UserID:    userID,
		Email:     email,
		Metadata:  model.UserMetadata{DisplayName: name, Handle: handle},
		ExpiresAt: exp.Time,
	}, nil
}

func (s *AuthService) startSession(ctx context.Context, user *model.AuthUser) (*model.Session, error) {
	log := logger.For("AuthService")

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":    user.ID,
		"email":  user.Email,
		"name":   user.DisplayName,
		"handle": user.Handle,
		"exp":    expiresAt.Unix(),
		"iat":    now.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		log.Errorf("Token signing FAILED: user=%s err=%v", user.ID, err)
		return nil, &model.AuthError{Message: msgAuthUnavailable}
	}

	session := &model.Session{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		Metadata:  model.UserMetadata{DisplayName: user.DisplayName, Handle: user.Handle},
		ExpiresAt: time.Unix(expiresAt.Unix(), 0),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		log.Warnf("Session not persisted: user=%s err=%v", user.ID, err)
	}

	s.emit(ctx, model.AuthEvent{Type: model.SignedIn, Session: session})
	return session, nil
}

func (s *AuthService) emit(ctx context.Context, event model.AuthEvent) {
	s.mu.Lock()
	listeners := make([]AuthListener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(ctx, event)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
