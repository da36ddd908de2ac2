package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskflow/internal/auth"
	"github.com/adanyl0v/taskflow/internal/models"
	"github.com/adanyl0v/taskflow/internal/remote"
)

type fakeProvider struct {
	session *auth.Session
	err     error
	// block makes GetSession hang until the context is done.
	block  bool
	events chan auth.Event
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{events: make(chan auth.Event, 8)}
}

func (p *fakeProvider) GetSession(ctx context.Context) (*auth.Session, error) {
	if p.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return p.session, p.err
}

func (p *fakeProvider) Subscribe() (<-chan auth.Event, func()) {
	return p.events, func() {}
}

type fakeProfiles struct {
	mu        sync.Mutex
	rows      map[string]models.User
	insertErr error
	selects   atomic.Int32
	inserts   atomic.Int32
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{rows: make(map[string]models.User)}
}

func (p *fakeProfiles) SelectProfile(_ context.Context, userID string) (models.User, error) {
	p.selects.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	user, ok := p.rows[userID]
	if !ok {
		return models.User{}, &remote.Error{Status: http.StatusNotFound, Code: "not_found", Message: "profile not found"}
	}
	return user, nil
}

func (p *fakeProfiles) InsertProfile(_ context.Context, user models.User) (models.User, error) {
	p.inserts.Add(1)
	if p.insertErr != nil {
		return models.User{}, p.insertErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows[user.ID] = user
	return user, nil
}

func sessionFor(id, email, name string) *auth.Session {
	return &auth.Session{
		User:        auth.User{ID: id, Email: email, Name: name},
		AccessToken: "token-" + id,
	}
}

func startGate(t *testing.T, g *Gate) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = g.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ctx
}

func waitFor(t *testing.T, g *Gate, states ...State) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snapshot, err := g.Wait(ctx, states...)
	if err != nil {
		t.Fatalf("gate stuck in %v, want %v", snapshot.State, states)
	}
	return snapshot
}

func TestCheckWithSessionCreatesProfile(t *testing.T) {
	provider := newFakeProvider()
	provider.session = sessionFor("u1", "alice@example.com", "")
	profiles := newFakeProfiles()

	var loaded atomic.Value
	g := New(provider, profiles, zerolog.Nop(),
		WithOnAuthenticated(func(_ context.Context, user models.User) {
			loaded.Store(user.ID)
		}),
	)
	startGate(t, g)

	snapshot := waitFor(t, g, StateAuthenticated)
	if snapshot.User == nil || snapshot.User.Name != "alice" {
		t.Fatalf("user = %+v, want name backfilled from email", snapshot.User)
	}
	if got, _ := loaded.Load().(string); got != "u1" {
		t.Errorf("tasks loaded for %q before authenticated", got)
	}
	if n := profiles.inserts.Load(); n != 1 {
		t.Errorf("inserts = %d, want 1", n)
	}
}

func TestCheckWithoutSession(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "no session"},
		{name: "check failed", err: errors.New("provider down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newFakeProvider()
			provider.err = tt.err

			g := New(provider, newFakeProfiles(), zerolog.Nop(), WithFailsafe(time.Hour))
			startGate(t, g)

			snapshot := waitFor(t, g, StateAnonymous)
			if snapshot.User != nil {
				t.Errorf("user = %+v, want nil", snapshot.User)
			}
		})
	}
}

func TestFailsafeLeavesChecking(t *testing.T) {
	provider := newFakeProvider()
	provider.block = true

	g := New(provider, newFakeProfiles(), zerolog.Nop(), WithFailsafe(20*time.Millisecond))
	if s := g.Snapshot().State; s != StateUnknown {
		t.Fatalf("initial state = %v", s)
	}
	startGate(t, g)

	waitFor(t, g, StateAnonymous)

	// A sign-in still works after the failsafe fired.
	provider.events <- auth.Event{Kind: auth.EventSignedIn, Session: sessionFor("u1", "a@example.com", "Alice")}
	snapshot := waitFor(t, g, StateAuthenticated)
	if snapshot.User.Name != "Alice" {
		t.Errorf("name = %q, want Alice", snapshot.User.Name)
	}
}

func TestDuplicateProfileInsertIsNotFatal(t *testing.T) {
	provider := newFakeProvider()
	provider.session = sessionFor("u1", "bob@example.com", "Bob")
	profiles := newFakeProfiles()
	profiles.insertErr = &remote.Error{Status: http.StatusConflict, Code: "already_exists", Message: "profile already exists"}

	g := New(provider, profiles, zerolog.Nop())
	startGate(t, g)

	snapshot := waitFor(t, g, StateAuthenticated)
	if snapshot.User.ID != "u1" || snapshot.User.Name != "Bob" {
		t.Errorf("user = %+v", snapshot.User)
	}
}

func TestExistingProfileIsNotRecreated(t *testing.T) {
	provider := newFakeProvider()
	provider.session = sessionFor("u1", "bob@example.com", "")
	profiles := newFakeProfiles()
	profiles.rows["u1"] = models.User{ID: "u1", Name: "Robert", Email: "bob@example.com", AvatarURL: "https://example.com/a.png"}

	g := New(provider, profiles, zerolog.Nop())
	startGate(t, g)

	snapshot := waitFor(t, g, StateAuthenticated)
	if snapshot.User.Name != "Robert" || snapshot.User.AvatarURL == "" {
		t.Errorf("user = %+v", snapshot.User)
	}
	if n := profiles.inserts.Load(); n != 0 {
		t.Errorf("inserts = %d, want 0", n)
	}
}

func TestEventsConvergeOnOneProfileLookup(t *testing.T) {
	provider := newFakeProvider()
	session := sessionFor("u1", "carol@example.com", "Carol")
	provider.session = session
	profiles := newFakeProfiles()

	var signedOut atomic.Int32
	g := New(provider, profiles, zerolog.Nop(),
		WithOnSignedOut(func(context.Context) {
			signedOut.Add(1)
		}),
	)

	// The push event races the session check for the same user.
	provider.events <- auth.Event{Kind: auth.EventSignedIn, Session: session}
	startGate(t, g)
	waitFor(t, g, StateAuthenticated)

	provider.events <- auth.Event{Kind: auth.EventTokenRefreshed, Session: session}
	provider.events <- auth.Event{Kind: auth.EventSignedOut}
	waitFor(t, g, StateAnonymous)

	if n := profiles.selects.Load(); n != 1 {
		t.Errorf("profile lookups = %d, want 1", n)
	}
	if n := signedOut.Load(); n != 1 {
		t.Errorf("sign-out hook ran %d times, want 1", n)
	}
}

func TestSwitchingUsers(t *testing.T) {
	provider := newFakeProvider()
	profiles := newFakeProfiles()

	g := New(provider, profiles, zerolog.Nop(), WithFailsafe(time.Hour))
	startGate(t, g)
	waitFor(t, g, StateAnonymous)

	provider.events <- auth.Event{Kind: auth.EventSignedIn, Session: sessionFor("u1", "a@example.com", "A")}
	provider.events <- auth.Event{Kind: auth.EventSignedOut}
	provider.events <- auth.Event{Kind: auth.EventSignedIn, Session: sessionFor("u2", "b@example.com", "B")}

	deadline := time.After(2 * time.Second)
	for {
		snapshot, changed := g.Watch()
		if snapshot.State == StateAuthenticated && snapshot.User.ID == "u2" {
			return
		}
		select {
		case <-changed:
		case <-deadline:
			t.Fatalf("gate settled on %v %+v, want u2", snapshot.State, snapshot.User)
		}
	}
}

func TestStateString(t *testing.T) {
	for state, want := range map[State]string{
		StateUnknown:       "unknown",
		StateChecking:      "checking",
		StateAuthenticated: "authenticated",
		StateAnonymous:     "anonymous",
	} {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
