package models

import (
	"strings"
	"time"
)

const fallbackUserName = "User"

// User is the profile row keyed by the auth identity id.
type User struct {
	ID        string
	Name      string
	Email     string
	AvatarURL string
	CreatedAt time.Time
}

// Identity is an authentication account. Password holds the argon2id hash.
type Identity struct {
	ID          string
	Email       string
	Password    string
	Name        string
	RedirectURL string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName picks the first non-empty of the metadata name,
// the email local-part and a generic fallback.
func DisplayName(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if local, _, _ := strings.Cut(email, "@"); local != "" {
		return local
	}
	return fallbackUserName
}
