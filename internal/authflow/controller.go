package authflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/startera/internal/apiclient"
	"github.com/startera/internal/constants"
	"github.com/startera/internal/domain"
	"github.com/startera/internal/i18n"
	"github.com/startera/internal/navigation"
	"github.com/startera/internal/notify"
	"github.com/startera/internal/session"
	"github.com/startera/internal/validation"
)

// View is the visible step of the sign-in flow
type View string

const (
	ViewLogin    View = constants.ViewLogin
	ViewRegister View = constants.ViewRegister
	ViewVerify   View = constants.ViewVerify
)

// AfterRegister values
const (
	AfterRegisterVerify = "verify"
	AfterRegisterLogin  = "login"
)

// AuthAPI is the subset of the remote API the flow calls
type AuthAPI interface {
	Login(ctx context.Context, creds apiclient.Credentials) (*apiclient.TokenResponse, error)
	Register(ctx context.Context, creds apiclient.Credentials) (*apiclient.RegisterResponse, error)
	Verify(ctx context.Context, payload apiclient.VerifyPayload) (*apiclient.TokenResponse, error)
}

// Form is the in-memory form state
type Form struct {
	Email    string
	Password string
	Code     string
}

// Options tunes controller behaviour
type Options struct {
	DemoDelay     time.Duration // wait before the offline fallback proceeds
	AfterRegister string        // verify (default) or login
}

// Controller drives the login / register / verify flow
type Controller struct {
	api     AuthAPI
	store   *session.Store
	bus     *notify.Bus
	nav     navigation.Navigator
	catalog *i18n.Catalog
	opts    Options
	logger  *slog.Logger

	mu   sync.Mutex
	view View
	form Form

	busy atomic.Bool
}

// NewController creates a controller in the login view
func NewController(
	api AuthAPI,
	store *session.Store,
	bus *notify.Bus,
	nav navigation.Navigator,
	catalog *i18n.Catalog,
	opts Options,
	logger *slog.Logger,
) *Controller {
	if opts.AfterRegister == "" {
		opts.AfterRegister = AfterRegisterVerify
	}
	return &Controller{
		api:     api,
		store:   store,
		bus:     bus,
		nav:     nav,
		catalog: catalog,
		opts:    opts,
		logger:  logger,
		view:    ViewLogin,
	}
}

// View returns the current view
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Form returns a copy of the form state
func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// Busy reports whether a submit is in flight
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// SetCredentials fills the e-mail and password fields
func (c *Controller) SetCredentials(email, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Email = email
	c.form.Password = password
}

// SetEmail fills the e-mail field only
func (c *Controller) SetEmail(email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Email = email
}

// SetCode fills the one-time code field
func (c *Controller) SetCode(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Code = code
}

// SwitchView moves between login and register and clears the form.
// The verify view is only reached through the flow itself.
func (c *Controller) SwitchView(view View) error {
	if view != ViewLogin && view != ViewRegister {
		return domain.WrapValidationError("view", fmt.Errorf("cannot switch to %q", view))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = view
	c.form = Form{}
	return nil
}

// CancelVerify abandons the code step and returns to login
func (c *Controller) CancelVerify() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = ViewLogin
	c.form.Code = ""
}

// SubmitCredentials logs in or registers depending on the current view
func (c *Controller) SubmitCredentials(ctx context.Context) error {
	if !c.busy.CompareAndSwap(false, true) {
		return domain.ErrSubmitInProgress
	}
	defer c.busy.Store(false)

	c.mu.Lock()
	view, form := c.view, c.form
	c.mu.Unlock()

	lang := c.language(ctx)

	if view == ViewVerify {
		return domain.WrapValidationError("view", errors.New("credentials cannot be submitted while verifying"))
	}

	email := strings.TrimSpace(form.Email)
	if err := validation.ValidateEmail(email); err != nil {
		c.bus.Error(c.catalog.T(lang, "validation.email"))
		return err
	}
	if err := validation.ValidatePassword(form.Password); err != nil {
		c.bus.Error(c.catalog.T(lang, "validation.password"))
		return err
	}

	creds := apiclient.Credentials{Email: email, Password: form.Password}
	if view == ViewRegister {
		return c.register(ctx, lang, creds)
	}
	return c.login(ctx, lang, creds)
}

func (c *Controller) login(ctx context.Context, lang domain.Language, creds apiclient.Credentials) error {
	resp, err := c.api.Login(ctx, creds)
	switch {
	case err == nil:
		return c.establish(ctx, lang, resp.Token, firstNonEmpty(resp.Email, creds.Email), "login.success")

	case errors.Is(err, domain.ErrEmailNotVerified):
		c.mu.Lock()
		c.view = ViewVerify
		c.form.Email = creds.Email
		c.form.Code = ""
		c.mu.Unlock()
		c.bus.Info(c.catalog.T(lang, "login.unverified"))
		return nil

	case domain.IsNetworkError(err):
		if err := c.demoFallback(ctx, lang, "login", err); err != nil {
			return err
		}
		return c.establish(ctx, lang, constants.DemoToken, creds.Email, "login.success")

	default:
		return c.reportServerError(lang, err)
	}
}

func (c *Controller) register(ctx context.Context, lang domain.Language, creds apiclient.Credentials) error {
	resp, err := c.api.Register(ctx, creds)
	switch {
	case err == nil:
		if resp.DebugCode != "" {
			c.logger.DebugContext(ctx, "registration debug code", "email", creds.Email, "code", resp.DebugCode)
		}
		next, key := ViewVerify, "register.success"
		if c.opts.AfterRegister == AfterRegisterLogin || resp.Verified {
			next, key = ViewLogin, "register.success_login"
		}
		c.mu.Lock()
		c.view = next
		c.form = Form{Email: firstNonEmpty(resp.Email, creds.Email)}
		c.mu.Unlock()
		c.bus.Success(c.catalog.T(lang, key))
		return nil

	case domain.IsNetworkError(err):
		if err := c.demoFallback(ctx, lang, "register", err); err != nil {
			return err
		}
		if err := c.store.AddDemoUser(ctx, domain.NormalizeEmail(creds.Email)); err != nil {
			c.bus.Error(c.catalog.T(lang, "storage.error"))
			return err
		}
		c.mu.Lock()
		c.view = ViewVerify
		c.form = Form{Email: creds.Email}
		c.mu.Unlock()
		c.bus.Info(c.catalog.T(lang, "demo.code_hint"))
		return nil

	default:
		return c.reportServerError(lang, err)
	}
}

// SubmitCode confirms the one-time code for the e-mail in the form
func (c *Controller) SubmitCode(ctx context.Context) error {
	if !c.busy.CompareAndSwap(false, true) {
		return domain.ErrSubmitInProgress
	}
	defer c.busy.Store(false)

	c.mu.Lock()
	form := c.form
	c.mu.Unlock()

	lang := c.language(ctx)

	code := strings.TrimSpace(form.Code)
	if err := validation.ValidateVerificationCode(code); err != nil {
		c.bus.Error(c.catalog.T(lang, "validation.code"))
		return err
	}
	email := strings.TrimSpace(form.Email)
	if err := validation.ValidateEmail(email); err != nil {
		c.bus.Error(c.catalog.T(lang, "validation.email"))
		return err
	}

	resp, err := c.api.Verify(ctx, apiclient.VerifyPayload{Email: email, Code: code})
	switch {
	case err == nil:
		return c.completeVerify(ctx, lang, resp.Token, firstNonEmpty(resp.Email, email))

	case domain.IsNetworkError(err):
		if code != constants.DemoVerificationCode {
			c.logger.WarnContext(ctx, "demo verification rejected", "email", email)
			c.bus.Error(c.catalog.T(lang, "verify.invalid"))
			return domain.ErrInvalidVerificationCode
		}
		if err := c.demoFallback(ctx, lang, "verify", err); err != nil {
			return err
		}
		if err := c.store.MarkDemoUserVerified(ctx, domain.NormalizeEmail(email)); err != nil {
			c.bus.Error(c.catalog.T(lang, "storage.error"))
			return err
		}
		return c.completeVerify(ctx, lang, constants.DemoToken, email)

	default:
		return c.reportServerError(lang, err)
	}
}

func (c *Controller) completeVerify(ctx context.Context, lang domain.Language, token, email string) error {
	if err := c.establish(ctx, lang, token, email, "verify.success"); err != nil {
		return err
	}
	c.mu.Lock()
	c.view = ViewLogin
	c.form = Form{}
	c.mu.Unlock()
	return nil
}

// establish persists the session, announces it and navigates to the dashboard
func (c *Controller) establish(ctx context.Context, lang domain.Language, token, email, messageKey string) error {
	if err := c.store.Save(ctx, token, email); err != nil {
		c.logger.ErrorContext(ctx, "failed to persist session", "email", email, "error", err)
		c.bus.Error(c.catalog.T(lang, "storage.error"))
		return err
	}
	c.bus.Success(c.catalog.T(lang, messageKey))
	c.nav.Navigate(constants.RouteDashboard)
	return nil
}

// demoFallback announces offline mode and waits the configured delay
func (c *Controller) demoFallback(ctx context.Context, lang domain.Language, action string, cause error) error {
	c.logger.WarnContext(ctx, "auth API unreachable, continuing in demo mode", "action", action, "error", cause)
	c.bus.Info(c.catalog.T(lang, "demo.fallback"))

	if c.opts.DemoDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.opts.DemoDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reportServerError shows the server's detail verbatim
func (c *Controller) reportServerError(lang domain.Language, err error) error {
	var serverErr *apiclient.ServerError
	if errors.As(err, &serverErr) && serverErr.Detail != "" {
		c.bus.Error(serverErr.Detail)
		return err
	}
	c.logger.Error("auth request failed", "error", err)
	c.bus.Error(c.catalog.T(lang, "error.generic"))
	return err
}

func (c *Controller) language(ctx context.Context) domain.Language {
	lang, err := c.store.Language(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to read language preference", "error", err)
	}
	return lang
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
