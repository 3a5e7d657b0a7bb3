package session

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind misses changes rather than blocking transitions.
const subscriberBuffer = 16

// Provider is the injectable session context. It owns the transitions of the
// Anonymous/Authenticated state machine and publishes a Change for each one,
// so views refresh on notification instead of reloading.
//
// The state is never cached: every read goes to the storage, so writes made
// by another process sharing the storage are seen on the next read and, when
// a watch is running, published as ReasonExternal changes.
type Provider struct {
	tokens       *TokenStore
	policy       ExpiryPolicy
	logger       *slog.Logger
	now          func() time.Time
	onTransition func(Change)

	// opMu serializes storage mutations with the external-change check so
	// a write is never observed before its own change is published.
	opMu sync.Mutex

	mu     sync.Mutex
	subs   map[int]chan Change
	nextID int
	lastFP uint64 // fingerprint of the last observed token, 0 when none

	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithPolicy sets the expiry policy. Default: ReactivePolicy.
func WithPolicy(p ExpiryPolicy) ProviderOption {
	return func(pr *Provider) { pr.policy = p }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) ProviderOption {
	return func(pr *Provider) { pr.logger = l }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) ProviderOption {
	return func(pr *Provider) { pr.now = now }
}

// WithTransitionHook is called synchronously for every published change.
func WithTransitionHook(fn func(Change)) ProviderOption {
	return func(pr *Provider) { pr.onTransition = fn }
}

// NewProvider creates a provider over the given storage.
func NewProvider(storage Storage, opts ...ProviderOption) *Provider {
	p := &Provider{
		tokens:   NewTokenStore(storage),
		policy:   ReactivePolicy{},
		logger:   slog.Default(),
		now:      time.Now,
		subs:     make(map[int]chan Change),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Token returns the stored token if there is one and the policy does not
// consider it expired. A token judged expired is cleared and the expiry
// is published.
func (p *Provider) Token(ctx context.Context) (string, bool, error) {
	p.opMu.Lock()
	defer p.opMu.Unlock()
	return p.token(ctx)
}

func (p *Provider) token(ctx context.Context) (string, bool, error) {
	token, ok, err := p.tokens.Get(ctx)
	if err != nil || !ok {
		return "", false, err
	}

	if p.policy.Expired(token, p.now()) {
		p.logger.Info("stored token expired by policy", "token_fp", Fingerprint(token))
		if err := p.tokens.Clear(ctx); err != nil {
			return "", false, err
		}
		p.publish(Change{From: Authenticated, To: Anonymous, Reason: ReasonExpired}, "")
		return "", false, nil
	}
	return token, true, nil
}

// State derives the current state from token presence. Storage errors are
// logged and read as Anonymous.
func (p *Provider) State(ctx context.Context) State {
	p.opMu.Lock()
	defer p.opMu.Unlock()
	return p.state(ctx)
}

func (p *Provider) state(ctx context.Context) State {
	_, ok, err := p.token(ctx)
	if err != nil {
		p.logger.Warn("failed to read session", "error", err)
		return Anonymous
	}
	if ok {
		return Authenticated
	}
	return Anonymous
}

// Login stores a freshly issued token.
func (p *Provider) Login(ctx context.Context, token string) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	from := p.state(ctx)
	if err := p.tokens.Set(ctx, token); err != nil {
		return err
	}
	p.logger.Debug("session started", "token_fp", Fingerprint(token))
	p.publish(Change{From: from, To: Authenticated, Reason: ReasonLogin}, token)
	return nil
}

// Logout clears the token.
func (p *Provider) Logout(ctx context.Context) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	from := p.state(ctx)
	if err := p.tokens.Clear(ctx); err != nil {
		return err
	}
	p.logger.Debug("session ended")
	p.publish(Change{From: from, To: Anonymous, Reason: ReasonLogout}, "")
	return nil
}

// Expire records a server-detected expiry (HTTP 403). With keepToken the
// stale token stays in storage, so the next render still derives
// Authenticated; otherwise it is cleared. Either way the published change
// goes to Anonymous: the server no longer honours the token.
func (p *Provider) Expire(ctx context.Context, keepToken bool) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	token, _, err := p.tokens.Get(ctx)
	if err != nil {
		return err
	}
	if !keepToken {
		if err := p.tokens.Clear(ctx); err != nil {
			return err
		}
		token = ""
	}
	p.logger.Info("session expired by server", "kept_token", keepToken)
	p.publish(Change{From: Authenticated, To: Anonymous, Reason: ReasonExpired}, token)
	return nil
}

// Subscribe registers for change notifications. The returned cancel func
// unregisters and closes the channel; it is safe to call more than once.
func (p *Provider) Subscribe() (<-chan Change, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	ch := make(chan Change, subscriberBuffer)
	p.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// StartWatch starts a goroutine that re-reads the storage every interval and
// publishes a ReasonExternal change when token presence or identity changed
// behind the provider's back. Call Stop() to end it. A non-positive
// interval starts nothing.
func (p *Provider) StartWatch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		p.logger.Warn("session watch disabled, interval must be positive", "interval", interval)
		return
	}

	p.mu.Lock()
	p.lastFP = p.currentFingerprint(ctx)
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stopChan:
				return
			case <-ticker.C:
				p.checkExternal(ctx)
			}
		}
	}()
}

// Stop ends the watch goroutine and waits for it to exit.
// Safe to call multiple times.
func (p *Provider) Stop() {
	p.once.Do(func() {
		close(p.stopChan)
	})
	p.wg.Wait()
}

// checkExternal compares the stored token with the last one observed.
func (p *Provider) checkExternal(ctx context.Context) {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	fp := p.currentFingerprint(ctx)

	p.mu.Lock()
	last := p.lastFP
	p.mu.Unlock()

	if fp == last {
		return
	}

	change := Change{From: stateOf(last), To: stateOf(fp), Reason: ReasonExternal}
	p.logger.Debug("session changed externally", "from", change.From, "to", change.To)
	p.publishFP(change, fp)
}

// currentFingerprint reads the storage without applying the policy.
func (p *Provider) currentFingerprint(ctx context.Context) uint64 {
	token, ok, err := p.tokens.Get(ctx)
	if err != nil || !ok {
		return 0
	}
	return xxhash.Sum64String(token)
}

func (p *Provider) publish(c Change, token string) {
	var fp uint64
	if token != "" {
		fp = xxhash.Sum64String(token)
	}
	p.publishFP(c, fp)
}

func (p *Provider) publishFP(c Change, fp uint64) {
	p.mu.Lock()
	p.lastFP = fp
	for id, ch := range p.subs {
		select {
		case ch <- c:
		default:
			p.logger.Debug("session subscriber is full, dropping change", "subscriber", id)
		}
	}
	p.mu.Unlock()

	if p.onTransition != nil {
		p.onTransition(c)
	}
}

func stateOf(fp uint64) State {
	if fp == 0 {
		return Anonymous
	}
	return Authenticated
}

// Fingerprint returns a short non-reversible identifier of a token,
// safe to log in place of the token itself.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	return strconv.FormatUint(xxhash.Sum64String(token), 16)
}
