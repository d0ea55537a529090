// Package model defines client-side entities mirrored from the remote course API.
package model

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Session is the authenticated identity plus the bearer credential it was issued with.
type Session struct {
	UserID              string
	Email               string
	FirstName           string
	LastName            string
	Phone               string
	AvatarRef           string
	Faculty             *string // nil until an admin assigns one
	IsAdmin             bool
	HasCompletedSorting bool
	HasAcceptedRules    bool
	HasSeenWelcomeModal bool
	Token               string `json:"-"`
}

// Name is the display name built from first and last name.
func (s Session) Name() string { return DisplayName(s.FirstName, s.LastName) }

// DisplayName joins first and last name, skipping empty parts.
func DisplayName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// Material is a downloadable attachment of a lesson.
type Material struct {
	Type  string
	Title string
	URL   string
}

// Lesson is a single video lesson; Number is unique within its module.
type Lesson struct {
	Number      int
	Title       string
	VideoRef    string
	Description string
	Materials   []Material
	Homework    string
	Duration    int
	Completed   bool
}

// Module is an ordered group of lessons.
type Module struct {
	ID          string
	Number      int
	Title       string
	Description string
	Locked      bool
	UnlockDate  *time.Time
	Lessons     []Lesson
	Progress    float64 // percent, 0..100
	Category    string
}

// Lesson finds a lesson by number.
func (m Module) Lesson(number int) (Lesson, bool) {
	for _, l := range m.Lessons {
		if l.Number == number {
			return l, true
		}
	}
	return Lesson{}, false
}

// FavoriteKey identifies a favorite; favorites have no surrogate id.
type FavoriteKey struct {
	ModuleID     string
	LessonNumber int
}

// FavoriteEntry is a favorited lesson with a snapshot of its display fields.
type FavoriteEntry struct {
	Key          FavoriteKey
	ModuleNumber int
	ModuleTitle  string
	LessonTitle  string
	VideoRef     string
	Description  string
	Duration     int
	Completed    bool
	AddedAt      time.Time
}

// EarningRecord is one self-reported income entry.
type EarningRecord struct {
	ID          string
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	CreatedAt   time.Time
}

// Earnings is the server's authoritative total plus full history.
type Earnings struct {
	Total   decimal.Decimal
	History []EarningRecord
}

// SortEarningsDesc orders records newest date first; ties keep newest CreatedAt first.
func SortEarningsDesc(records []EarningRecord) {
	slices.SortStableFunc(records, func(a, b EarningRecord) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// LeaderboardEntry is one ranked row; fully server-derived.
type LeaderboardEntry struct {
	Rank          int
	DisplayName   string
	Earnings      decimal.Decimal
	IsCurrentUser bool
}

// Profile is the editable user record returned by /profile.
type Profile struct {
	ID                  string
	Email               string
	FirstName           string
	LastName            string
	Phone               string
	AvatarRef           string
	Faculty             *string
	HasCompletedSorting bool
	HasAcceptedRules    bool
	HasSeenWelcomeModal bool
	Favorites           []FavoriteKey
}

// ProfileStats summarizes progress for the profile screen.
type ProfileStats struct {
	ModulesCompleted int
	TotalModules     int
	LessonsCompleted int
	TotalLessons     int
	Earnings         decimal.Decimal
	Rank             int
}

// ProfileUpdate is a partial update; nil fields are not sent.
type ProfileUpdate struct {
	FirstName           *string
	LastName            *string
	Phone               *string
	HasSeenWelcomeModal *bool
}

// Avatar is an image selected for upload.
type Avatar struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CompletionResult is the answer to a lesson complete/uncomplete call.
type CompletionResult struct {
	CompletedLessons int
	IsCompleted      *bool // set when the server echoes the state
}

// FavoriteResult is the answer to a favorite add/remove call.
type FavoriteResult struct {
	IsFavorite *bool
}

// AdminUser is a row of the admin user list.
type AdminUser struct {
	ID               string
	Email            string
	FirstName        string
	LastName         string
	Phone            string
	Faculty          *string
	IsAdmin          bool
	Earnings         decimal.Decimal
	CompletedLessons int
	CompletedModules int
}

// AdminFlag is the server's answer to an admin toggle.
type AdminFlag struct {
	ID      string
	Email   string
	IsAdmin bool
}

// Faculties assignable by admins.
var Faculties = []string{"Продюсер", "Експерт", "Досвідчений"}

// IsFaculty reports whether f is one of Faculties.
func IsFaculty(f string) bool { return slices.Contains(Faculties, f) }
