// Package session decides whether a user is signed in. Gate is a single
// state machine fed by the initial session check, the auth provider's
// events and a failsafe timer.
package session

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskflow/internal/auth"
	"github.com/adanyl0v/taskflow/internal/models"
)

// DefaultFailsafe bounds how long the gate stays in StateChecking.
const DefaultFailsafe = time.Second

type State int

const (
	StateUnknown State = iota
	StateChecking
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	}
	return "unknown"
}

// Provider is the auth client the gate listens to.
type Provider interface {
	GetSession(ctx context.Context) (*auth.Session, error)
	Subscribe() (<-chan auth.Event, func())
}

// Profiles reads and creates rows of the users table.
type Profiles interface {
	SelectProfile(ctx context.Context, userID string) (models.User, error)
	InsertProfile(ctx context.Context, user models.User) (models.User, error)
}

type Snapshot struct {
	State State
	// User is set only in StateAuthenticated.
	User *models.User
}

type Option func(*Gate)

func WithFailsafe(d time.Duration) Option {
	return func(g *Gate) {
		g.failsafe = d
	}
}

// WithOnAuthenticated runs fn before the gate enters StateAuthenticated.
func WithOnAuthenticated(fn func(ctx context.Context, user models.User)) Option {
	return func(g *Gate) {
		g.onAuthenticated = fn
	}
}

// WithOnSignedOut runs fn before the gate leaves StateAuthenticated.
func WithOnSignedOut(fn func(ctx context.Context)) Option {
	return func(g *Gate) {
		g.onSignedOut = fn
	}
}

type Gate struct {
	provider Provider
	profiles Profiles
	logger   zerolog.Logger
	failsafe time.Duration

	onAuthenticated func(ctx context.Context, user models.User)
	onSignedOut     func(ctx context.Context)

	mu      sync.Mutex
	state   State
	user    *models.User
	changed chan struct{}

	generation atomic.Int64
	events     chan any
	jobs       *jobQueue
}

func New(provider Provider, profiles Profiles, logger zerolog.Logger, opts ...Option) *Gate {
	g := &Gate{
		provider:        provider,
		profiles:        profiles,
		logger:          logger,
		failsafe:        DefaultFailsafe,
		onAuthenticated: func(context.Context, models.User) {},
		onSignedOut:     func(context.Context) {},
		changed:         make(chan struct{}),
		events:          make(chan any, 8),
		jobs:            newJobQueue(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Gate) snapshotLocked() Snapshot {
	s := Snapshot{State: g.state}
	if g.user != nil {
		u := *g.user
		s.User = &u
	}
	return s
}

// Watch returns the current snapshot and a channel closed on the next
// transition.
func (g *Gate) Watch() (Snapshot, <-chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked(), g.changed
}

// Wait blocks until the gate is in one of states.
func (g *Gate) Wait(ctx context.Context, states ...State) (Snapshot, error) {
	for {
		snapshot, changed := g.Watch()
		if slices.Contains(states, snapshot.State) {
			return snapshot, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return snapshot, ctx.Err()
		}
	}
}

func (g *Gate) commit(state State, user *models.User) {
	g.mu.Lock()
	prev := g.state
	g.state = state
	g.user = user
	close(g.changed)
	g.changed = make(chan struct{})
	g.mu.Unlock()

	event := g.logger.Debug().
		Str("from", prev.String()).
		Str("to", state.String())
	if user != nil {
		event = event.Str("user_id", user.ID)
	}
	event.Msg("session state changed")
}

type checked struct {
	session *auth.Session
	err     error
}

type settled struct {
	generation int64
	state      State
	user       *models.User
}

// loop holds the state only the Run goroutine touches.
type loop struct {
	decided bool
	target  string
}

// Run drives the gate until ctx is done. It must be called once.
func (g *Gate) Run(ctx context.Context) error {
	authEvents, unsubscribe := g.provider.Subscribe()
	defer unsubscribe()

	go g.jobs.run(ctx)

	g.commit(StateChecking, nil)
	go func() {
		session, err := g.provider.GetSession(ctx)
		g.post(ctx, checked{session: session, err: err})
	}()

	failsafe := time.NewTimer(g.failsafe)
	defer failsafe.Stop()

	var l loop
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-failsafe.C:
			if g.Snapshot().State == StateChecking {
				g.logger.Warn().
					Dur("after", g.failsafe).
					Msg("session check did not finish, continuing signed out")
				g.commit(StateAnonymous, nil)
			}

		case ev, ok := <-authEvents:
			if !ok {
				authEvents = nil
				continue
			}
			g.handleAuthEvent(&l, ev)

		case ev := <-g.events:
			switch ev := ev.(type) {
			case checked:
				g.handleChecked(&l, ev)
			case settled:
				if ev.generation == g.generation.Load() {
					g.commit(ev.state, ev.user)
				}
			}
		}
	}
}

func (g *Gate) post(ctx context.Context, ev any) {
	select {
	case g.events <- ev:
	case <-ctx.Done():
	}
}

func (g *Gate) handleChecked(l *loop, ev checked) {
	if l.decided {
		return
	}
	if ev.err != nil {
		g.logger.Error().
			Err(ev.err).
			Msg("failed to check session")
	}
	if ev.err != nil || ev.session == nil {
		l.decided = true
		g.generation.Add(1)
		g.commit(StateAnonymous, nil)
		return
	}
	g.authenticate(l, ev.session.User)
}

func (g *Gate) handleAuthEvent(l *loop, ev auth.Event) {
	g.logger.Debug().
		Str("event", string(ev.Kind)).
		Msg("auth state changed")

	switch ev.Kind {
	case auth.EventSignedIn, auth.EventTokenRefreshed:
		if ev.Session != nil {
			g.authenticate(l, ev.Session.User)
		}
	case auth.EventSignedOut:
		g.signOut(l)
	}
}

func (g *Gate) authenticate(l *loop, user auth.User) {
	if l.decided && l.target == user.ID {
		return
	}
	l.decided = true
	l.target = user.ID
	generation := g.generation.Add(1)

	g.jobs.push(func(ctx context.Context) {
		if generation != g.generation.Load() {
			return
		}
		profile := g.ensureProfile(ctx, user)
		g.onAuthenticated(ctx, profile)
		g.post(ctx, settled{
			generation: generation,
			state:      StateAuthenticated,
			user:       &profile,
		})
	})
}

func (g *Gate) signOut(l *loop) {
	hadUser := l.target != "" || g.Snapshot().State == StateAuthenticated
	l.decided = true
	l.target = ""
	generation := g.generation.Add(1)

	if !hadUser {
		g.commit(StateAnonymous, nil)
		return
	}
	g.jobs.push(func(ctx context.Context) {
		g.onSignedOut(ctx)
		g.post(ctx, settled{
			generation: generation,
			state:      StateAnonymous,
		})
	})
}
