package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/unikraft-shop/storefront/internal/ctxkey"
	"github.com/unikraft-shop/storefront/internal/domain/member"
	"github.com/unikraft-shop/storefront/internal/domain/navigation"
	"github.com/unikraft-shop/storefront/internal/domain/order"
	"github.com/unikraft-shop/storefront/internal/domain/session"
	"github.com/unikraft-shop/storefront/internal/domain/shop"
	"github.com/unikraft-shop/storefront/internal/port/inbound"
	"github.com/unikraft-shop/storefront/internal/port/outbound"
	"github.com/unikraft-shop/storefront/internal/view"
)

// ErrLoginRequired is returned when an action needs a session and there is none.
var ErrLoginRequired = errors.New("login required")

// ErrNotOnProduct is returned when ordering while no product is open.
var ErrNotOnProduct = errors.New("no product is open")

var _ inbound.Storefront = (*Shell)(nil)

// Shell runs the storefront flows for one user. Actions are expected one at
// a time; the output writer is shared with the session watcher and guarded.
type Shell struct {
	api      outbound.ShopAPI
	session  *session.Provider
	nav      *navigation.Navigator
	notifier Notifier
	logger   *slog.Logger

	keepTokenOnExpiry bool
	renderOnNavigate  bool

	outMu sync.Mutex
	out   io.Writer
}

// Option configures a Shell.
type Option func(*Shell)

// WithKeepTokenOnExpiry keeps the stale token when the server reports an
// expired session, instead of clearing it.
func WithKeepTokenOnExpiry(keep bool) Option {
	return func(s *Shell) { s.keepTokenOnExpiry = keep }
}

// WithRenderOnNavigate controls whether every navigation renders the new
// screen. Default true. Callers that draw their own output turn it off.
func WithRenderOnNavigate(render bool) Option {
	return func(s *Shell) { s.renderOnNavigate = render }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Shell) { s.logger = l }
}

// NewShell creates a shell rendering to out.
func NewShell(api outbound.ShopAPI, provider *session.Provider, nav *navigation.Navigator,
	notifier Notifier, out io.Writer, opts ...Option) *Shell {
	s := &Shell{
		api:              api,
		session:          provider,
		nav:              nav,
		notifier:         notifier,
		logger:           slog.Default(),
		renderOnNavigate: true,
		out:              out,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the current route.
func (s *Shell) Current() navigation.Route {
	return s.nav.Current()
}

// Output returns a writer to the screen. Writes through it never interleave
// with a screen or navbar being drawn.
func (s *Shell) Output() io.Writer {
	return screenWriter{s}
}

type screenWriter struct {
	s *Shell
}

func (w screenWriter) Write(p []byte) (int, error) {
	w.s.outMu.Lock()
	defer w.s.outMu.Unlock()
	return w.s.out.Write(p)
}

// State returns the session state as derived right now.
func (s *Shell) State(ctx context.Context) session.State {
	return s.session.State(ctx)
}

// Open navigates to path and renders it.
func (s *Shell) Open(ctx context.Context, path string) error {
	s.nav.Navigate(path)
	return s.Render(ctx)
}

// Back returns to the previous screen and renders it.
func (s *Shell) Back(ctx context.Context) error {
	if _, ok := s.nav.Back(); !ok {
		return nil
	}
	return s.Render(ctx)
}

// Login checks the credentials locally, exchanges them for a token, stores
// it and goes home.
func (s *Shell) Login(ctx context.Context, creds member.Credentials) error {
	ctx = s.actionContext(ctx, "login")

	if err := creds.Validate(); err != nil {
		s.fail(MsgEnterCredentials)
		return err
	}

	token, err := s.api.Login(ctx, creds)
	if err != nil {
		if errors.Is(err, shop.ErrNetwork) {
			s.fail(MsgNetworkError)
		} else {
			s.fail(MsgLoginFailed)
		}
		return err
	}

	if err := s.session.Login(ctx, token); err != nil {
		s.logger.Error("failed to store session", "error", err)
		s.fail(MsgSessionSaveFailed)
		return err
	}

	s.notifier.Notify(Notice{Level: LevelInfo, Message: MsgLoginSuccess})
	s.redirect(ctx, navigation.PathHome)
	return nil
}

// Logout clears the session and goes home.
func (s *Shell) Logout(ctx context.Context) error {
	ctx = s.actionContext(ctx, "logout")

	if err := s.session.Logout(ctx); err != nil {
		s.logger.Error("failed to clear session", "error", err)
		s.fail(MsgSessionSaveFailed)
		return err
	}

	s.notifier.Notify(Notice{Level: LevelInfo, Message: MsgLoggedOut})
	s.redirect(ctx, navigation.PathHome)
	return nil
}

// Signup checks the draft locally and registers the member. Nothing is
// sent unless every local check passes.
func (s *Shell) Signup(ctx context.Context, draft member.SignupDraft) error {
	ctx = s.actionContext(ctx, "signup")

	if err := draft.Validate(); err != nil {
		var fieldErr *member.InvalidFieldError
		switch {
		case errors.Is(err, member.ErrMissingField):
			s.fail(MsgFillEveryField)
		case errors.Is(err, member.ErrPasswordMismatch):
			s.fail(MsgPasswordMismatch)
		case errors.As(err, &fieldErr):
			s.fail(capitalize(fieldErr.Error()) + ".")
		default:
			s.fail(MsgSignupFailed)
		}
		return err
	}

	if err := s.api.Signup(ctx, draft.Request()); err != nil {
		if errors.Is(err, shop.ErrValidation) {
			s.fail(MsgSignupFailed)
		} else {
			s.fail(MsgSignupError)
		}
		return err
	}

	s.notifier.Notify(Notice{Level: LevelInfo, Message: MsgSignupSuccess})
	s.redirect(ctx, navigation.PathLogin)
	return nil
}

// OrderCurrent orders count units of the product currently open.
func (s *Shell) OrderCurrent(ctx context.Context, count int) error {
	id, ok := s.nav.Current().ProductID()
	if !ok {
		s.fail(MsgOrderFailed)
		return ErrNotOnProduct
	}
	return s.PlaceOrder(ctx, id, count)
}

// PlaceOrder submits an order. Without a session it redirects to the login
// screen and sends nothing. On 201 it goes home; on 403 the session is
// expired and the user is sent to log in again.
func (s *Shell) PlaceOrder(ctx context.Context, productID int64, count int) error {
	ctx = s.actionContext(ctx, "order")

	token, ok, err := s.session.Token(ctx)
	if err != nil {
		s.logger.Warn("failed to read session", "error", err)
	}
	if !ok {
		s.fail(MsgLoginRequired)
		s.redirect(ctx, navigation.PathLogin)
		return ErrLoginRequired
	}

	draft := order.Draft{ProductID: productID, Count: count}
	if err := draft.Validate(); err != nil {
		s.fail(MsgInvalidCount)
		return err
	}

	err = s.api.PlaceOrder(ctx, draft, token)
	switch {
	case err == nil:
		s.notifier.Notify(Notice{Level: LevelInfo, Message: MsgOrderPlaced})
		s.redirect(ctx, navigation.PathHome)
		return nil
	case errors.Is(err, shop.ErrSessionExpired):
		return s.expire(ctx, err)
	case errors.Is(err, shop.ErrNetwork):
		s.fail(MsgNetworkError)
		return err
	default:
		s.fail(MsgOrderFailed)
		return err
	}
}

// Render draws the navbar and the current screen, loading its data.
func (s *Shell) Render(ctx context.Context) error {
	route := s.nav.Current()
	state := s.session.State(ctx)

	switch route.View {
	case navigation.ViewListing:
		products, err := s.api.ListProducts(ctx)
		if err != nil {
			return s.loadFailed(err)
		}
		return s.draw(state, func(w io.Writer) error {
			return view.Listing(w, products, s.nav.Router().ProductPath)
		})

	case navigation.ViewDetail:
		id, ok := route.ProductID()
		if !ok {
			return s.draw(state, func(w io.Writer) error {
				return view.NotFound(w, route.Path)
			})
		}
		p, err := s.api.GetProduct(ctx, id)
		if err != nil {
			return s.loadFailed(err)
		}
		return s.draw(state, func(w io.Writer) error {
			return view.Detail(w, p, 1)
		})

	case navigation.ViewOrders:
		return s.renderOrders(ctx)

	case navigation.ViewLogin:
		return s.draw(state, view.LoginForm)

	case navigation.ViewSignup:
		return s.draw(state, view.SignupForm)

	default:
		return s.draw(state, func(w io.Writer) error {
			return view.NotFound(w, route.Path)
		})
	}
}

// WatchSession re-renders the navbar whenever the session changes outside
// this shell, until ctx is done.
func (s *Shell) WatchSession(ctx context.Context) {
	changes, cancel := s.session.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			if c.Reason != session.ReasonExternal || !c.Changed() {
				continue
			}
			s.notifier.Notify(Notice{Level: LevelInfo, Message: MsgSessionChanged})
			s.outMu.Lock()
			if err := view.Navbar(s.out, c.To); err != nil {
				s.logger.Warn("failed to render navbar", "error", err)
			}
			s.outMu.Unlock()
		}
	}
}

func (s *Shell) renderOrders(ctx context.Context) error {
	token, ok, err := s.session.Token(ctx)
	if err != nil {
		s.logger.Warn("failed to read session", "error", err)
	}
	if !ok {
		s.fail(MsgLoginRequired)
		s.redirect(ctx, navigation.PathLogin)
		return ErrLoginRequired
	}

	orders, err := s.api.MyOrders(ctx, token)
	if err != nil {
		if errors.Is(err, shop.ErrSessionExpired) {
			return s.expire(ctx, err)
		}
		return s.loadFailed(err)
	}
	return s.draw(session.Authenticated, func(w io.Writer) error {
		return view.Orders(w, orders)
	})
}

// expire handles a server-reported expiry: the session is expired (the
// token kept or cleared per configuration) and the user sent to log in.
func (s *Shell) expire(ctx context.Context, cause error) error {
	if err := s.session.Expire(ctx, s.keepTokenOnExpiry); err != nil {
		s.logger.Error("failed to expire session", "error", err)
	}
	s.fail(MsgSessionExpired)
	s.redirect(ctx, navigation.PathLogin)
	return cause
}

// redirect moves to path after an action has finished. A screen that fails
// to load has already been reported as a notice; it does not change the
// outcome of the action that caused the redirect.
func (s *Shell) redirect(ctx context.Context, path string) {
	s.nav.Navigate(path)
	if !s.renderOnNavigate {
		return
	}
	if err := s.Render(ctx); err != nil {
		s.logger.Warn("failed to render after redirect", "path", path, "error", err)
	}
}

func (s *Shell) loadFailed(err error) error {
	if errors.Is(err, shop.ErrNetwork) {
		s.fail(MsgNetworkError)
	} else {
		s.fail(MsgLoadFailed)
	}
	return err
}

func (s *Shell) draw(state session.State, body func(io.Writer) error) error {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if err := view.Navbar(s.out, state); err != nil {
		return err
	}
	if err := body(s.out); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

func (s *Shell) fail(msg string) {
	s.notifier.Notify(Notice{Level: LevelError, Message: msg})
}

// actionContext tags the context logger with the user action, for the API
// client to enrich further.
func (s *Shell) actionContext(ctx context.Context, action string) context.Context {
	return context.WithValue(ctx, ctxkey.LoggerKey{}, s.logger.With("action", action))
}

func capitalize(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
