// Package wire holds the JSON shapes exchanged with the remote course API.
package wire

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ErrorBody is the error envelope; either field may carry the human message.
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// --- auth ---

type User struct {
	ID                  string  `json:"id"`
	Email               string  `json:"email"`
	FirstName           string  `json:"firstName"`
	LastName            string  `json:"lastName"`
	Phone               string  `json:"phone,omitempty"`
	AvatarURL           string  `json:"avatarUrl,omitempty"`
	Faculty             *string `json:"faculty,omitempty"`
	HasCompletedSorting bool    `json:"hasCompletedSorting"`
	HasAcceptedRules    bool    `json:"hasAcceptedRules"`
	HasSeenWelcomeModal bool    `json:"hasSeenWelcomeModal"`
	IsAdmin             bool    `json:"isAdmin"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	User    User   `json:"user"`
	Token   string `json:"token"`
}

type MeResponse struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

// --- modules ---

type Material struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Lesson struct {
	ID          string     `json:"_id,omitempty"`
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	VideoURL    string     `json:"videoUrl"`
	Description string     `json:"description"`
	Materials   []Material `json:"materials"`
	Homework    string     `json:"homework"`
	Duration    int        `json:"duration"`
	IsCompleted bool       `json:"isCompleted"`
}

type Module struct {
	ID          string     `json:"_id"`
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	IsLocked    bool       `json:"isLocked"`
	UnlockDate  *time.Time `json:"unlockDate,omitempty"`
	Lessons     []Lesson   `json:"lessons"`
	Progress    float64    `json:"progress"`
	Category    string     `json:"category"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// --- progress ---

type CompletionResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	CompletedLessons int    `json:"completedLessons"`
	IsCompleted      *bool  `json:"isCompleted,omitempty"`
}

type ModuleCompletionResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	CompletedModules int    `json:"completedModules"`
}

type LessonStatus struct {
	IsCompleted bool `json:"isCompleted"`
}

// --- favorites ---

type FavoriteLesson struct {
	ModuleID     string    `json:"moduleId"`
	ModuleNumber int       `json:"moduleNumber"`
	ModuleTitle  string    `json:"moduleTitle"`
	LessonNumber int       `json:"lessonNumber"`
	LessonTitle  string    `json:"lessonTitle"`
	VideoURL     string    `json:"videoUrl"`
	Description  string    `json:"description"`
	Duration     int       `json:"duration"`
	IsCompleted  bool      `json:"isCompleted"`
	AddedAt      time.Time `json:"addedAt"`
}

type FavoritesResponse struct {
	Favorites []FavoriteLesson `json:"favorites"`
	Total     int              `json:"total"`
}

type FavoriteMutation struct {
	Success    bool            `json:"success"`
	Lesson     json.RawMessage `json:"lesson,omitempty"`
	IsFavorite *bool           `json:"isFavorite,omitempty"`
}

type FavoriteCheck struct {
	IsFavorite bool `json:"isFavorite"`
}

// --- profile ---

type FavoriteRef struct {
	ModuleID     string    `json:"moduleId"`
	LessonNumber int       `json:"lessonNumber"`
	AddedAt      time.Time `json:"addedAt"`
}

type Profile struct {
	ID                  string        `json:"_id"`
	Email               string        `json:"email"`
	FirstName           string        `json:"firstName"`
	LastName            string        `json:"lastName"`
	Phone               string        `json:"phone,omitempty"`
	AvatarURL           string        `json:"avatarUrl,omitempty"`
	Faculty             *string       `json:"faculty,omitempty"`
	HasCompletedSorting bool          `json:"hasCompletedSorting"`
	HasAcceptedRules    bool          `json:"hasAcceptedRules"`
	HasSeenWelcomeModal bool          `json:"hasSeenWelcomeModal"`
	FavoriteLessons     []FavoriteRef `json:"favoriteLessons"`
}

type ProfileStats struct {
	ModulesCompleted int             `json:"modulesCompleted"`
	TotalModules     int             `json:"totalModules"`
	LessonsCompleted int             `json:"lessonsCompleted"`
	TotalLessons     int             `json:"totalLessons"`
	Earnings         decimal.Decimal `json:"earnings"`
	Rank             int             `json:"rank"`
}

type ProfileResponse struct {
	User  Profile      `json:"user"`
	Stats ProfileStats `json:"stats"`
}

type ProfileUpdate struct {
	FirstName           *string `json:"firstName,omitempty"`
	LastName            *string `json:"lastName,omitempty"`
	Phone               *string `json:"phone,omitempty"`
	HasSeenWelcomeModal *bool   `json:"hasSeenWelcomeModal,omitempty"`
}

type AvatarResponse struct {
	Success   bool    `json:"success"`
	AvatarURL string  `json:"avatarUrl"`
	User      Profile `json:"user"`
}

// --- earnings ---

type Earning struct {
	ID          string          `json:"_id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type EarningsResponse struct {
	TotalEarnings decimal.Decimal `json:"totalEarnings"`
	History       []Earning       `json:"history"`
}

// AddEarningRequest sends the amount as a bare JSON number.
type AddEarningRequest struct {
	Amount json.Number `json:"amount"`
	Date   string      `json:"date"`
}

type LeaderboardEntry struct {
	Rank          int             `json:"rank"`
	Name          string          `json:"name"`
	Earnings      decimal.Decimal `json:"earnings"`
	IsCurrentUser bool            `json:"isCurrentUser"`
}

// --- admin ---

type AdminUser struct {
	ID                    string          `json:"id"`
	Email                 string          `json:"email"`
	FirstName             string          `json:"firstName"`
	LastName              string          `json:"lastName"`
	Phone                 string          `json:"phone,omitempty"`
	Faculty               *string         `json:"faculty,omitempty"`
	IsAdmin               bool            `json:"isAdmin"`
	Earnings              decimal.Decimal `json:"earnings"`
	CompletedLessonsCount int             `json:"completedLessonsCount"`
	CompletedModulesCount int             `json:"completedModulesCount"`
}

type AssignFacultyRequest struct {
	Faculty string `json:"faculty"`
}

type AdminFlag struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}
