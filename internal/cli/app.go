package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskflow/internal/auth"
	"github.com/adanyl0v/taskflow/internal/config"
	"github.com/adanyl0v/taskflow/internal/models"
	"github.com/adanyl0v/taskflow/internal/notify"
	"github.com/adanyl0v/taskflow/internal/prefs"
	"github.com/adanyl0v/taskflow/internal/remote"
	"github.com/adanyl0v/taskflow/internal/session"
	"github.com/adanyl0v/taskflow/internal/tasks"
)

const (
	prefsFileName = "prefs.db"

	// signInWait bounds how long a command waits for a stored session to
	// resolve after the gate's failsafe fired.
	signInWait = 10 * time.Second
)

var errNotSignedIn = errors.New("not signed in, run `taskflow login` first")

// App wires the client components for one command invocation.
type App struct {
	cfg    *config.ClientConfig
	logger zerolog.Logger

	kv        *prefs.SQLiteKV
	prefs     *prefs.Preferences
	remote    *remote.Client
	auth      *auth.Client
	syncer    *tasks.Syncer
	gate      *session.Gate
	reminders *notify.Notifier
	notices   *noticeSink

	cancel context.CancelFunc
	done   chan struct{}
}

func newApp(ctx context.Context, cfg *config.ClientConfig, logger zerolog.Logger) (*App, error) {
	kv, err := prefs.OpenSQLite(filepath.Join(cfg.DataDir, prefsFileName))
	if err != nil {
		return nil, err
	}

	p, err := prefs.Load(ctx, kv)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	rc := remote.New(cfg.APIURL,
		remote.WithHTTPClient(&http.Client{}),
		remote.WithLogger(logger.With().Str("component", "remote").Logger()),
	)
	ac := auth.NewClient(rc, kv, logger.With().Str("component", "auth").Logger())
	rc.SetTokenSource(ac)

	notices := &noticeSink{}
	syncer := tasks.NewSyncer(tasks.NewStore(), rc, notices,
		logger.With().Str("component", "tasks").Logger())

	gate := session.New(ac, rc, logger.With().Str("component", "session").Logger(),
		session.WithOnAuthenticated(func(ctx context.Context, user models.User) {
			// Load logs its own failures and leaves the store empty.
			_ = syncer.Load(ctx, user.ID)
		}),
		session.WithOnSignedOut(func(context.Context) {
			syncer.Reset()
		}),
	)

	return &App{
		cfg:       cfg,
		logger:    logger,
		kv:        kv,
		prefs:     p,
		remote:    rc,
		auth:      ac,
		syncer:    syncer,
		gate:      gate,
		reminders: notify.New(p, logger.With().Str("component", "notify").Logger()),
		notices:   notices,
	}, nil
}

// Start runs the session gate and returns once it left the checking state.
func (a *App) Start(ctx context.Context) (session.Snapshot, error) {
	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})

	go func() {
		defer close(a.done)
		err := a.gate.Run(runCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error().
				Err(err).
				Msg("session gate stopped")
		}
	}()

	return a.gate.Wait(ctx, session.StateAuthenticated, session.StateAnonymous)
}

// RequireUser waits for the signed-in user. A stored session that is still
// resolving when the gate's failsafe fires is waited for a little longer.
func (a *App) RequireUser(ctx context.Context) (models.User, error) {
	snapshot, err := a.gate.Wait(ctx, session.StateAuthenticated, session.StateAnonymous)
	if err != nil {
		return models.User{}, err
	}
	if snapshot.State == session.StateAnonymous {
		stored, err := a.auth.GetSession(ctx)
		if err != nil {
			return models.User{}, err
		}
		if stored == nil {
			return models.User{}, errNotSignedIn
		}

		waitCtx, cancel := context.WithTimeout(ctx, signInWait)
		defer cancel()
		snapshot, err = a.gate.Wait(waitCtx, session.StateAuthenticated)
		if err != nil {
			return models.User{}, errNotSignedIn
		}
	}
	return *snapshot.User, nil
}

func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
		<-a.done
	}
	err := a.kv.Close()
	if err != nil {
		a.logger.Error().
			Err(err).
			Msg("failed to close preferences")
	}
}

// noticeSink forwards task notices to whichever surface is active.
type noticeSink struct {
	mu     sync.Mutex
	target tasks.Notifier
}

func (s *noticeSink) Set(n tasks.Notifier) {
	s.mu.Lock()
	s.target = n
	s.mu.Unlock()
}

func (s *noticeSink) Notify(n tasks.Notice) {
	s.mu.Lock()
	target := s.target
	s.mu.Unlock()
	if target != nil {
		target.Notify(n)
	}
}
