// Package convert maps wire payloads of the course API to client-side model types.
package convert

import (
	"strings"

	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/wire"
)

// --- helpers ---

// faculty normalizes an absent or blank faculty to nil.
func faculty(f *string) *string {
	if f == nil || strings.TrimSpace(*f) == "" {
		return nil
	}
	v := *f
	return &v
}

// --- Session / Profile ---

// ToSession converts an auth user payload to a Session bound to token.
func ToSession(u wire.User, token string) model.Session {
	return model.Session{
		UserID:              u.ID,
		Email:               u.Email,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		Phone:               u.Phone,
		AvatarRef:           u.AvatarURL,
		Faculty:             faculty(u.Faculty),
		IsAdmin:             u.IsAdmin,
		HasCompletedSorting: u.HasCompletedSorting,
		HasAcceptedRules:    u.HasAcceptedRules,
		HasSeenWelcomeModal: u.HasSeenWelcomeModal,
		Token:               token,
	}
}

// ToProfile converts a profile payload.
func ToProfile(p wire.Profile) model.Profile {
	favs := make([]model.FavoriteKey, 0, len(p.FavoriteLessons))
	for _, f := range p.FavoriteLessons {
		favs = append(favs, model.FavoriteKey{ModuleID: f.ModuleID, LessonNumber: f.LessonNumber})
	}
	return model.Profile{
		ID:                  p.ID,
		Email:               p.Email,
		FirstName:           p.FirstName,
		LastName:            p.LastName,
		Phone:               p.Phone,
		AvatarRef:           p.AvatarURL,
		Faculty:             faculty(p.Faculty),
		HasCompletedSorting: p.HasCompletedSorting,
		HasAcceptedRules:    p.HasAcceptedRules,
		HasSeenWelcomeModal: p.HasSeenWelcomeModal,
		Favorites:           favs,
	}
}

// ToProfileStats converts profile statistics.
func ToProfileStats(s wire.ProfileStats) model.ProfileStats {
	return model.ProfileStats{
		ModulesCompleted: s.ModulesCompleted,
		TotalModules:     s.TotalModules,
		LessonsCompleted: s.LessonsCompleted,
		TotalLessons:     s.TotalLessons,
		Earnings:         s.Earnings,
		Rank:             s.Rank,
	}
}

// FromProfileUpdate builds the partial PUT body.
func FromProfileUpdate(u model.ProfileUpdate) wire.ProfileUpdate {
	return wire.ProfileUpdate{
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		Phone:               u.Phone,
		HasSeenWelcomeModal: u.HasSeenWelcomeModal,
	}
}

// --- Modules ---

// ToLesson converts a lesson payload.
func ToLesson(l wire.Lesson) model.Lesson {
	mats := make([]model.Material, 0, len(l.Materials))
	for _, m := range l.Materials {
		mats = append(mats, model.Material{Type: m.Type, Title: m.Title, URL: m.URL})
	}
	return model.Lesson{
		Number:      l.Number,
		Title:       l.Title,
		VideoRef:    l.VideoURL,
		Description: l.Description,
		Materials:   mats,
		Homework:    l.Homework,
		Duration:    l.Duration,
		Completed:   l.IsCompleted,
	}
}

// ToModule converts a module payload, keeping lesson order as sent.
func ToModule(m wire.Module) model.Module {
	lessons := make([]model.Lesson, 0, len(m.Lessons))
	for _, l := range m.Lessons {
		lessons = append(lessons, ToLesson(l))
	}
	return model.Module{
		ID:          m.ID,
		Number:      m.Number,
		Title:       m.Title,
		Description: m.Description,
		Locked:      m.IsLocked,
		UnlockDate:  m.UnlockDate,
		Lessons:     lessons,
		Progress:    m.Progress,
		Category:    m.Category,
	}
}

// ToModules converts a slice of modules.
func ToModules(ms []wire.Module) []model.Module {
	out := make([]model.Module, 0, len(ms))
	for _, m := range ms {
		out = append(out, ToModule(m))
	}
	return out
}

// --- Progress ---

// ToCompletionResult converts a complete/uncomplete answer.
func ToCompletionResult(r wire.CompletionResponse) model.CompletionResult {
	return model.CompletionResult{CompletedLessons: r.CompletedLessons, IsCompleted: r.IsCompleted}
}

// --- Favorites ---

// ToFavorite converts one favorite payload.
func ToFavorite(f wire.FavoriteLesson) model.FavoriteEntry {
	return model.FavoriteEntry{
		Key:          model.FavoriteKey{ModuleID: f.ModuleID, LessonNumber: f.LessonNumber},
		ModuleNumber: f.ModuleNumber,
		ModuleTitle:  f.ModuleTitle,
		LessonTitle:  f.LessonTitle,
		VideoRef:     f.VideoURL,
		Description:  f.Description,
		Duration:     f.Duration,
		Completed:    f.IsCompleted,
		AddedAt:      f.AddedAt,
	}
}

// ToFavorites converts the list payload; later duplicates of a key are dropped.
func ToFavorites(fs []wire.FavoriteLesson) []model.FavoriteEntry {
	out := make([]model.FavoriteEntry, 0, len(fs))
	seen := make(map[model.FavoriteKey]struct{}, len(fs))
	for _, f := range fs {
		e := ToFavorite(f)
		if _, dup := seen[e.Key]; dup {
			continue
		}
		seen[e.Key] = struct{}{}
		out = append(out, e)
	}
	return out
}

// --- Earnings / Leaderboard ---

// ToEarnings converts the earnings payload. History is not sorted here.
func ToEarnings(r wire.EarningsResponse) model.Earnings {
	hist := make([]model.EarningRecord, 0, len(r.History))
	for _, e := range r.History {
		hist = append(hist, model.EarningRecord{
			ID:          e.ID,
			Amount:      e.Amount,
			Date:        e.Date,
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
		})
	}
	return model.Earnings{Total: r.TotalEarnings, History: hist}
}

// ToLeaderboard converts ranked rows, preserving server order.
func ToLeaderboard(rs []wire.LeaderboardEntry) []model.LeaderboardEntry {
	out := make([]model.LeaderboardEntry, 0, len(rs))
	for _, r := range rs {
		out = append(out, model.LeaderboardEntry{
			Rank:          r.Rank,
			DisplayName:   r.Name,
			Earnings:      r.Earnings,
			IsCurrentUser: r.IsCurrentUser,
		})
	}
	return out
}

// --- Admin ---

// ToAdminUser converts an admin list row.
func ToAdminUser(u wire.AdminUser) model.AdminUser {
	return model.AdminUser{
		ID:               u.ID,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Phone:            u.Phone,
		Faculty:          faculty(u.Faculty),
		IsAdmin:          u.IsAdmin,
		Earnings:         u.Earnings,
		CompletedLessons: u.CompletedLessonsCount,
		CompletedModules: u.CompletedModulesCount,
	}
}

// ToAdminUsers converts the admin list.
func ToAdminUsers(us []wire.AdminUser) []model.AdminUser {
	out := make([]model.AdminUser, 0, len(us))
	for _, u := range us {
		out = append(out, ToAdminUser(u))
	}
	return out
}

// ToAdminFlag converts an admin toggle answer.
func ToAdminFlag(f wire.AdminFlag) model.AdminFlag {
	return model.AdminFlag{ID: f.ID, Email: f.Email, IsAdmin: f.IsAdmin}
}
