package remote

import (
	"time"

	"github.com/adanyl0v/taskflow/internal/auth"
	"github.com/adanyl0v/taskflow/internal/models"
)

type taskRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	DueDate   time.Time `json:"due_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func taskFromRow(row taskRow) models.Task {
	return models.Task{
		ID:        row.ID,
		UserID:    row.UserID,
		Title:     row.Title,
		Completed: row.Completed,
		DueDate:   row.DueDate,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

type insertTaskRow struct {
	UserID  string     `json:"user_id,omitempty"`
	Title   string     `json:"title"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

func insertRowFromTask(task models.Task) insertTaskRow {
	row := insertTaskRow{
		UserID: task.UserID,
		Title:  task.Title,
	}
	if !task.DueDate.IsZero() {
		due := task.DueDate
		row.DueDate = &due
	}
	return row
}

type updateTaskRow struct {
	Title     *string    `json:"title,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Completed *bool      `json:"completed,omitempty"`
}

type profileRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

func profileFromRow(row profileRow) models.User {
	user := models.User{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		CreatedAt: row.CreatedAt,
	}
	if row.AvatarURL != nil {
		user.AvatarURL = *row.AvatarURL
	}
	return user
}

func rowFromProfile(user models.User) profileRow {
	row := profileRow{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
	if user.AvatarURL != "" {
		avatar := user.AvatarURL
		row.AvatarURL = &avatar
	}
	return row
}

type sessionRow struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"user"`
	AccessToken           string    `json:"access_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshToken          string    `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

func sessionFromRow(row sessionRow) *auth.Session {
	return &auth.Session{
		User: auth.User{
			ID:    row.User.ID,
			Email: row.User.Email,
			Name:  row.User.Name,
		},
		AccessToken:           row.AccessToken,
		AccessTokenExpiresAt:  row.AccessTokenExpiresAt,
		RefreshToken:          row.RefreshToken,
		RefreshTokenExpiresAt: row.RefreshTokenExpiresAt,
	}
}
