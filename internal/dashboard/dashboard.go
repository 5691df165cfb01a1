package dashboard

import (
	"context"
	"errors"

	"github.com/startera/internal/constants"
	"github.com/startera/internal/domain"
	"github.com/startera/internal/i18n"
	"github.com/startera/internal/navigation"
	"github.com/startera/internal/session"
)

// ErrUnauthenticated is returned when the dashboard is requested without a session
var ErrUnauthenticated = domain.ErrUnauthorized

var featureKeys = []string{
	"dashboard.card.plan",
	"dashboard.card.chat",
	"dashboard.card.market",
	"dashboard.card.finance",
}

// Card is one feature tile
type Card struct {
	Key   string
	Title string
}

// View is the rendered dashboard model
type View struct {
	Email     string
	UserName  string
	Greeting  string
	Subtitle  string
	Cards     []Card
	Language  domain.Language
	Direction string
	Theme     domain.Theme
}

// Guard returns the stored session, or the login route and ErrUnauthenticated
func Guard(ctx context.Context, store *session.Store) (*session.Session, string, error) {
	sess, err := store.Read(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return nil, constants.RouteLogin, ErrUnauthenticated
	}
	if err != nil {
		return nil, constants.RouteLogin, err
	}
	return sess, constants.RouteDashboard, nil
}

// Load builds the dashboard for the signed-in user. Nothing is built without a session.
func Load(ctx context.Context, store *session.Store, catalog *i18n.Catalog) (*View, error) {
	sess, _, err := Guard(ctx, store)
	if err != nil {
		return nil, err
	}

	lang, err := store.Language(ctx)
	if err != nil {
		return nil, err
	}
	theme, err := store.Theme(ctx)
	if err != nil {
		return nil, err
	}

	cards := make([]Card, len(featureKeys))
	for i, key := range featureKeys {
		cards[i] = Card{Key: key, Title: catalog.T(lang, key)}
	}

	return &View{
		Email:     sess.Email,
		UserName:  sess.UserName,
		Greeting:  catalog.Tf(lang, "dashboard.greeting", sess.UserName),
		Subtitle:  catalog.T(lang, "dashboard.subtitle"),
		Cards:     cards,
		Language:  lang,
		Direction: lang.Direction(),
		Theme:     theme,
	}, nil
}

// Logout clears the session, keeps preferences and returns to login
func Logout(ctx context.Context, store *session.Store, nav navigation.Navigator) error {
	if err := store.Clear(ctx); err != nil {
		return err
	}
	nav.Navigate(constants.RouteLogin)
	return nil
}
