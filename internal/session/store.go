package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/startera/internal/constants"
	"github.com/startera/internal/domain"
	"github.com/startera/internal/kvstore"
)

// ErrNoSession is returned by Read when no token is stored
var ErrNoSession = domain.ErrSessionNotFound

// sessionKeys are the keys Clear removes; preferences and the demo user list are kept
var sessionKeys = []string{
	constants.KeyToken,
	constants.KeyUserEmail,
	constants.KeyUserName,
	constants.KeyIsLoggedIn,
}

// Session is the locally persisted sign-in state
type Session struct {
	Token    string
	Email    string
	UserName string
}

// DemoUser is an account recorded while the API was unreachable
type DemoUser struct {
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists the session, user preferences and demo users in a key-value space
type Store struct {
	kv kvstore.Store
}

// NewStore wraps a key-value backend
func NewStore(kv kvstore.Store) *Store {
	return &Store{kv: kv}
}

// Save records a signed-in session. The user name is the e-mail's local part.
// The token is written last; a failed save clears the session so Read never
// pairs a token with another user's details.
func (s *Store) Save(ctx context.Context, token, email string) error {
	values := [][2]string{
		{constants.KeyUserEmail, email},
		{constants.KeyUserName, domain.UserNameFromEmail(email)},
		{constants.KeyIsLoggedIn, "true"},
		{constants.KeyToken, token},
	}
	for _, kv := range values {
		if err := s.kv.Set(ctx, kv[0], kv[1]); err != nil {
			_ = s.Clear(ctx)
			return domain.WrapStorageOperation("save "+kv[0], err)
		}
	}
	return nil
}

// Read returns the stored session or ErrNoSession
func (s *Store) Read(ctx context.Context) (*Session, error) {
	token, err := s.get(ctx, constants.KeyToken)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNoSession
	}

	email, err := s.get(ctx, constants.KeyUserEmail)
	if err != nil {
		return nil, err
	}
	name, err := s.get(ctx, constants.KeyUserName)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = domain.UserNameFromEmail(email)
	}
	return &Session{Token: token, Email: email, UserName: name}, nil
}

// Clear removes the session keys only
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, sessionKeys...); err != nil {
		return domain.WrapStorageOperation("clear session", err)
	}
	return nil
}

// Theme returns the stored theme, light when unset
func (s *Store) Theme(ctx context.Context) (domain.Theme, error) {
	value, err := s.get(ctx, constants.KeyTheme)
	if err != nil {
		return domain.ThemeLight, err
	}
	return domain.ParseTheme(value), nil
}

// ToggleTheme flips and persists the theme
func (s *Store) ToggleTheme(ctx context.Context) (domain.Theme, error) {
	current, err := s.Theme(ctx)
	if err != nil {
		return current, err
	}
	next := current.Toggle()
	if err := s.kv.Set(ctx, constants.KeyTheme, next.String()); err != nil {
		return current, domain.WrapStorageOperation("save theme", err)
	}
	return next, nil
}

// Language returns the stored language; unknown values read as the default
func (s *Store) Language(ctx context.Context) (domain.Language, error) {
	value, err := s.get(ctx, constants.KeyLanguage)
	if err != nil {
		return domain.DefaultLanguage, err
	}
	lang, ok := domain.ParseLanguage(value)
	if !ok {
		return domain.DefaultLanguage, nil
	}
	return lang, nil
}

// CycleLanguage advances tr -> en -> ar -> tr and persists
func (s *Store) CycleLanguage(ctx context.Context) (domain.Language, error) {
	current, err := s.Language(ctx)
	if err != nil {
		return current, err
	}
	next := current.Next()
	if err := s.kv.Set(ctx, constants.KeyLanguage, next.String()); err != nil {
		return current, domain.WrapStorageOperation("save language", err)
	}
	return next, nil
}

// DemoUsers lists accounts recorded by the offline fallback
func (s *Store) DemoUsers(ctx context.Context) ([]DemoUser, error) {
	raw, err := s.get(ctx, constants.KeyUsersDB)
	if err != nil || raw == "" {
		return nil, err
	}
	var users []DemoUser
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, domain.WrapStorageOperation("decode "+constants.KeyUsersDB, err)
	}
	return users, nil
}

// AddDemoUser records an unverified demo account; an existing entry is kept as is
func (s *Store) AddDemoUser(ctx context.Context, email string) error {
	users, err := s.DemoUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Email == email {
			return nil
		}
	}
	users = append(users, DemoUser{Email: email, CreatedAt: time.Now().UTC()})
	return s.saveDemoUsers(ctx, users)
}

// MarkDemoUserVerified flags a demo account verified, adding it when missing
func (s *Store) MarkDemoUserVerified(ctx context.Context, email string) error {
	users, err := s.DemoUsers(ctx)
	if err != nil {
		return err
	}
	found := false
	for i := range users {
		if users[i].Email == email {
			users[i].Verified = true
			found = true
		}
	}
	if !found {
		users = append(users, DemoUser{Email: email, Verified: true, CreatedAt: time.Now().UTC()})
	}
	return s.saveDemoUsers(ctx, users)
}

func (s *Store) saveDemoUsers(ctx context.Context, users []DemoUser) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return domain.WrapStorageOperation("encode "+constants.KeyUsersDB, err)
	}
	if err := s.kv.Set(ctx, constants.KeyUsersDB, string(raw)); err != nil {
		return domain.WrapStorageOperation("save "+constants.KeyUsersDB, err)
	}
	return nil
}

// get treats a missing key as empty
func (s *Store) get(ctx context.Context, key string) (string, error) {
	value, err := s.kv.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", domain.WrapStorageOperation("read "+key, err)
	}
	return value, nil
}
