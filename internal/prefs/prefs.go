package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
)

const (
	ThemeKey              = "taskflow_theme"
	ShownNotificationsKey = "taskflow_shown_notifications"
	SessionKey            = "taskflow_session"

	// MaxShownNotifications bounds the remembered notification ids.
	MaxShownNotifications = 10
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

// Preferences is loaded once at startup and written through on every change.
type Preferences struct {
	kv KV

	mu    sync.RWMutex
	theme Theme
	shown []string
}

func Load(ctx context.Context, kv KV) (*Preferences, error) {
	p := &Preferences{kv: kv, theme: ThemeLight}

	theme, ok, err := kv.Get(ctx, ThemeKey)
	if err != nil {
		return nil, err
	}
	if ok && Theme(theme) == ThemeDark {
		p.theme = ThemeDark
	}

	raw, ok, err := kv.Get(ctx, ShownNotificationsKey)
	if err != nil {
		return nil, err
	}
	if ok {
		// A corrupt list only means a notification may be shown twice.
		_ = json.Unmarshal([]byte(raw), &p.shown)
		if len(p.shown) > MaxShownNotifications {
			p.shown = p.shown[len(p.shown)-MaxShownNotifications:]
		}
	}

	return p, nil
}

func (p *Preferences) Theme() Theme {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.theme
}

func (p *Preferences) SetTheme(ctx context.Context, theme Theme) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.kv.Set(ctx, ThemeKey, string(theme)); err != nil {
		return err
	}
	p.theme = theme
	return nil
}

// ToggleTheme flips between light and dark and returns the new theme.
func (p *Preferences) ToggleTheme(ctx context.Context) (Theme, error) {
	next := ThemeDark
	if p.Theme() == ThemeDark {
		next = ThemeLight
	}
	if err := p.SetTheme(ctx, next); err != nil {
		return p.Theme(), err
	}
	return next, nil
}

func (p *Preferences) WasShown(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Contains(p.shown, id)
}

// MarkShown remembers id, dropping the oldest entries beyond
// MaxShownNotifications.
func (p *Preferences) MarkShown(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if slices.Contains(p.shown, id) {
		return nil
	}

	shown := append(slices.Clone(p.shown), id)
	if len(shown) > MaxShownNotifications {
		shown = shown[len(shown)-MaxShownNotifications:]
	}

	raw, err := json.Marshal(shown)
	if err != nil {
		return err
	}
	if err := p.kv.Set(ctx, ShownNotificationsKey, string(raw)); err != nil {
		return err
	}
	p.shown = shown
	return nil
}

func (p *Preferences) Shown() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.shown)
}
