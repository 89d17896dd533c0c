package models

import (
	"encoding/json"
	"time"
)

// TimestampFormat renders times as ISO-8601 in UTC with millisecond precision (e.g. 2026-01-02T15:04:05.000Z).
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp formats t with [TimestampFormat] after converting it to UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// User is an account. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         *string   `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	Sequence     int       `json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// Identity returns the public {id, email} view of the user.
func (u *User) Identity() UserIdentity {
	return UserIdentity{ID: u.ID, Email: u.Email}
}

// UserIdentity is the public identity returned by signup.
type UserIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Checklist is a titled list owned by one user.
type Checklist struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	Items     []Item    `json:"items"`
	Sequence  int       `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// MarshalJSON renders createdAt with [TimestampFormat] and items as [] when empty.
func (c Checklist) MarshalJSON() ([]byte, error) {
	items := c.Items
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		UserID    string `json:"userId"`
		CreatedAt string `json:"createdAt"`
		Items     []Item `json:"items"`
	}{
		ID:        c.ID,
		Title:     c.Title,
		UserID:    c.UserID,
		CreatedAt: FormatTimestamp(c.CreatedAt),
		Items:     items,
	})
}

// Completed counts completed items.
func (c *Checklist) Completed() int {
	n := 0
	for _, item := range c.Items {
		if item.Completed {
			n++
		}
	}
	return n
}

// Item is one entry of a checklist.
type Item struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	Completed   bool      `json:"completed"`
	ChecklistID string    `json:"checklistId"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// ItemPatch holds the optional fields of an item update. Nil fields are left unchanged.
type ItemPatch struct {
	Content   *string
	Completed *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p ItemPatch) IsEmpty() bool {
	return p.Content == nil && p.Completed == nil
}

// Session is a server-side session record. The plaintext token is only ever returned to the client.
type Session struct {
	ID         string
	UserID     string
	TokenHash  string
	UserAgent  string
	IPAddress  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// IsExpiredAt reports whether the session is expired at t.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}
