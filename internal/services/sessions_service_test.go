package services

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch d := d.(type) {
		case *string:
			*d = r.values[i].(string)
		case *time.Time:
			*d = r.values[i].(time.Time)
		}
	}
	return nil
}

func TestScanSession(t *testing.T) {
	expires := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	row := fakeRow{values: []any{"s1", "u1", "fp", "rt", expires, expires, expires}}

	session, err := scanSession(row)
	if err != nil {
		t.Fatalf("scanSession() error = %v", err)
	}
	if session.ID != "s1" || session.UserID != "u1" || session.RefreshToken != "rt" {
		t.Errorf("session = %+v", session)
	}
	if !session.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v", session.ExpiresAt)
	}
}

func TestScanNoRows(t *testing.T) {
	if _, err := scanSession(fakeRow{err: pgx.ErrNoRows}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("scanSession() error = %v, want ErrSessionNotFound", err)
	}
	if _, err := scanIdentity(fakeRow{err: pgx.ErrNoRows}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("scanIdentity() error = %v, want ErrUserNotFound", err)
	}

	boom := errors.New("connection reset")
	if _, err := scanSession(fakeRow{err: boom}); !errors.Is(err, boom) {
		t.Errorf("scanSession() error = %v, want %v", err, boom)
	}
}
