package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskflow/internal/prefs"
)

const subscriberBuffer = 8

// Client keeps the current session in a prefs.KV and notifies subscribers
// of sign-in, sign-out and token refresh.
type Client struct {
	api    API
	kv     prefs.KV
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	loaded  bool
	session *Session

	subsMu  sync.Mutex
	nextSub int
	subs    map[int]chan Event
}

func NewClient(api API, kv prefs.KV, logger zerolog.Logger) *Client {
	return &Client{
		api:    api,
		kv:     kv,
		logger: logger,
		now:    time.Now,
		subs:   make(map[int]chan Event),
	}
}

// GetSession returns the current session, refreshing it when the access
// token has expired. It returns nil without error when nobody is signed in.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, err := c.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	now := c.now()
	if !session.AccessExpired(now) {
		return copySession(session), nil
	}
	if session.RefreshExpired(now) {
		c.logger.Info().
			Str("user_id", session.User.ID).
			Msg("stored session expired")
		return nil, c.clearLocked(ctx)
	}

	refreshed, err := c.api.Refresh(ctx, session.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			c.logger.Warn().
				Err(err).
				Str("user_id", session.User.ID).
				Msg("refresh token rejected")
			return nil, c.clearLocked(ctx)
		}

		c.logger.Error().
			Err(err).
			Msg("failed to refresh session")
		return nil, err
	}

	err = c.storeLocked(ctx, refreshed)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().
		Str("user_id", refreshed.User.ID).
		Time("expires_at", refreshed.AccessTokenExpiresAt).
		Msg("refreshed session")

	c.publish(Event{Kind: EventTokenRefreshed, Session: copySession(refreshed)})
	return copySession(refreshed), nil
}

// AccessToken implements the token source of the remote client.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	session, err := c.GetSession(ctx)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", ErrNoSession
	}
	return session.AccessToken, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	session, err := c.api.SignInWithPassword(ctx, email, password)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("email", email).
			Msg("failed to sign in")
		return nil, err
	}
	return c.signedIn(ctx, session)
}

func (c *Client) SignUp(ctx context.Context, params SignUpParams) (*Session, error) {
	session, err := c.api.SignUp(ctx, params)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("email", params.Email).
			Msg("failed to sign up")
		return nil, err
	}
	return c.signedIn(ctx, session)
}

// SignOut revokes the session remotely and forgets it locally. A remote
// failure leaves the local session untouched.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, err := c.loadLocked(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrNoSession
	}

	err = c.api.SignOut(ctx, session.AccessToken)
	if err != nil {
		c.logger.Error().
			Err(err).
			Msg("failed to sign out")
		return err
	}

	err = c.clearLocked(ctx)
	if err != nil {
		return err
	}
	c.logger.Info().
		Str("user_id", session.User.ID).
		Msg("signed out")

	c.publish(Event{Kind: EventSignedOut})
	return nil
}

// Subscribe returns a channel of auth events and a function that
// unsubscribes and closes the channel.
func (c *Client) Subscribe() (<-chan Event, func()) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Event, subscriberBuffer)
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subsMu.Lock()
			defer c.subsMu.Unlock()
			delete(c.subs, id)
			close(ch)
		})
	}
}

func (c *Client) signedIn(ctx context.Context, session *Session) (*Session, error) {
	c.mu.Lock()
	err := c.storeLocked(ctx, session)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("user_id", session.User.ID).
		Msg("signed in")
	c.publish(Event{Kind: EventSignedIn, Session: copySession(session)})
	return copySession(session), nil
}

func (c *Client) publish(ev Event) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	for id, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.logger.Warn().
				Int("subscriber", id).
				Str("event", string(ev.Kind)).
				Msg("subscriber is full, dropping auth event")
		}
	}
}

func (c *Client) loadLocked(ctx context.Context) (*Session, error) {
	if c.loaded {
		return c.session, nil
	}

	raw, ok, err := c.kv.Get(ctx, prefs.SessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored session: %w", err)
	}
	c.loaded = true
	if !ok {
		return nil, nil
	}

	var session Session
	err = json.Unmarshal([]byte(raw), &session)
	if err != nil || session.AccessToken == "" {
		c.logger.Warn().
			Err(err).
			Msg("discarding malformed stored session")
		return nil, c.clearLocked(ctx)
	}

	c.session = &session
	return c.session, nil
}

func (c *Client) storeLocked(ctx context.Context, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	err = c.kv.Set(ctx, prefs.SessionKey, string(raw))
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	c.loaded = true
	c.session = copySession(session)
	return nil
}

func (c *Client) clearLocked(ctx context.Context) error {
	c.loaded = true
	c.session = nil
	err := c.kv.Delete(ctx, prefs.SessionKey)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
