package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/wire"
)

const maxAvatar = 5 << 20

// --- auth ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req wire.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Невірний запит")
		return
	}
	s.mu.Lock()
	var found *user
	for _, id := range s.order {
		if u := s.users[id]; strings.EqualFold(u.Email, req.Email) {
			found = u
			break
		}
	}
	if found == nil || found.password != req.Password {
		s.mu.Unlock()
		writeMessage(w, http.StatusUnauthorized, "Невірний email або пароль")
		return
	}
	wu := found.wireUser()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, wire.LoginResponse{Success: true, User: wu, Token: s.Token(found.ID, tokenTTL)})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := userIDFrom(r.Context())
	s.mu.Lock()
	wu := s.users[id].wireUser()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, wire.MeResponse{Success: true, User: wu})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if tok, err := bearerToken(r); err == nil {
		s.Revoke(tok)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- modules ---

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	id, _ := userIDFrom(r.Context())
	s.mu.Lock()
	out := make([]wire.Module, 0, len(s.modules))
	for _, m := range s.modules {
		out = append(out, s.moduleView(m, id))
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleModule(w http.ResponseWriter, r *http.Request) {
	s.writeModule(w, r, func(m wire.Module) bool { return m.ID == chi.URLParam(r, "id") })
}

func (s *Server) handleModuleByNumber(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Невірний номер модуля")
		return
	}
	s.writeModule(w, r, func(m wire.Module) bool { return m.Number == n })
}

func (s *Server) writeModule(w http.ResponseWriter, r *http.Request, match func(wire.Module) bool) {
	id, _ := userIDFrom(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.modules {
		if match(m) {
			writeJSON(w, http.StatusOK, s.moduleView(m, id))
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Модуль не знайдено")
}

// --- progress ---

func (s *Server) setCompleted(w http.ResponseWriter, r *http.Request, v bool) {
	id, _ := userIDFrom(r.Context())
	k, err := lessonKey(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, l := s.findLesson(k); l == nil {
		writeMessage(w, http.StatusNotFound, "Урок не знайдено")
		return
	}
	resp := wire.CompletionResponse{Success: true}
	if s.forceDone != nil {
		v = *s.forceDone
		echo := v
		resp.IsCompleted = &echo
	}
	if s.completed[id] == nil {
		s.completed[id] = map[model.FavoriteKey]bool{}
	}
	if v {
		s.completed[id][k] = true
		resp.Message = "Урок завершено"
	} else {
		delete(s.completed[id], k)
		resp.Message = "Позначку знято"
	}
	resp.CompletedLessons = s.completedLessons(id)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLessonComplete(w http.ResponseWriter, r *http.Request) {
	s.setCompleted(w, r, true)
}

func (s *Server) handleLessonUncomplete(w http.ResponseWriter, r *http.Request) {
	s.setCompleted(w, r, false)
}

func (s *Server) handleLessonStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := userIDFrom(r.Context())
	k, err := lessonKey(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	done := s.completed[id][k]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, wire.LessonStatus{IsCompleted: done})
}

func (s *Server) handleModuleComplete(w http.ResponseWriter, r *http.Request) {
	id, _ := userIDFrom(r.Context())
	mid := chi.URLParam(r, "moduleId")
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.modules, func(m wire.Module) bool { return m.ID == mid })
	if idx < 0 {
		writeMessage(w, http.StatusNotFound, "Модуль не знайдено")
		return
	}
	if s.completed[id] == nil {
		s.completed[id] = map[model.FavoriteKey]bool{}
	}
	for _, l := range s.modules[idx].Lessons {
		s.completed[id][model.FavoriteKey{ModuleID: mid, LessonNumber: l.Number}] = true
	}
	if s.doneMods[id] == nil {
		s.doneMods[id] = map[string]bool{}
	}
	s.doneMods[id][mid] = true
	writeJSON(w, http.StatusOK, wire.ModuleCompletionResponse{
		Success: true, Message: "Модуль завершено", CompletedModules: len(s.doneMods[id]),
	})
}

// --- favorites ---

func (s *Server) favoriteLesson(userID string, f favorite) (wire.FavoriteLesson, bool) {
	m, l := s.findLesson(f.key)
	if l == nil {
		return wire.FavoriteLesson{}, false
	}
	return wire.FavoriteLesson{
		ModuleID:     m.ID,
		ModuleNumber: m.Number,
		ModuleTitle:  m.Title,
		LessonNumber: l.Number,
		LessonTitle:  l.Title,
		VideoURL:     l.VideoURL,
		Description:  l.Description,
		Duration:     l.Duration,
		IsCompleted:  s.completed[userID][f.key],
		AddedAt:      f.addedAt,
	}, true
}

func (s *Server) setFavorite(w http.ResponseWriter, r *http.Request, v bool) {
	id, _ := userIDFrom(r.Context())
	k, err := lessonKey(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, l := s.findLesson(k); l == nil {
		writeMessage(w, http.StatusNotFound, "Урок не знайдено")
		return
	}
	resp := wire.FavoriteMutation{Success: true}
	if s.forceFav != nil {
		v = *s.forceFav
		echo := v
		resp.IsFavorite = &echo
	}
	i := s.favIndex(id, k)
	switch {
	case v && i < 0:
		s.favorites[id] = append(s.favorites[id], favorite{key: k, addedAt: s.now().UTC()})
	case !v && i >= 0:
		s.favorites[id] = slices.Delete(s.favorites[id], i, i+1)
	}
	if fl, ok := s.favoriteLesson(id, favorite{key: k, addedAt: s.now().UTC()}); ok {
		resp.Lesson, _ = json.Marshal(fl)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFavoriteAdd(w http.ResponseWriter, r *http.Request) {
	s.setFavorite(w, r, true)
}

func (s *Server) handleFavoriteRemove(w http.ResponseWriter, r *http.Request) {
	s.setFavorite(w, r, false)
}

func (s *Server) handleFavoriteCheck(w http.ResponseWriter, r *http.Request) {
	id, _ := userIDFrom(r.Context())
	k, err := lessonKey(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	fav := s.favIndex(id, k) >= 0
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, wire.FavoriteCheck{IsFavorite: fav})
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	id, _ := userIDFrom(r.Context())
	s.mu.Lock()
	out := make([]wire.FavoriteLesson, 0, len(s.favorites[id]))
	for _, f := range s.favorites[id] {
		if fl, ok := s.favoriteLesson(id, f); ok {
			out = append(out, fl)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, wire.FavoritesResponse{Favorites: out, Total: len(out)})
}

// --- profile ---

func (s *Server) rank(userID string) int {
	for _, e := range s.leaderboard(userID) {
		if e.IsCurrentUser {
			return e.Rank
		}
	}
	return 0
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := userIDFrom(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	totalLessons := 0
	for _, m := range s.modules {
		totalLessons += len(m.Lessons)
	}
	writeJSON(w, http.StatusOK, wire.ProfileResponse{
		User: s.profile(s.users[id]),
		Stats: wire.ProfileStats{
			ModulesCompleted: len(s.doneMods[id]),
			TotalModules:     len(s.modules),
			LessonsCompleted: s.completedLessons(id),
			TotalLessons:     totalLessons,
			Earnings:         s.earningsTotal(id),
			Rank:             s.rank(id),
		},
	})
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	id, _ := userIDFrom(r.Context())
	var upd wire.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeMessage(w, http.StatusBadRequest, "Невірний запит")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	if upd.HasSeenWelcomeModal != nil {
		u.HasSeenWelcomeModal = *upd.HasSeenWelcomeModal
	}
	writeJSON(w, http.StatusOK, s.profile(u))
}

func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	id, _ := userIDFrom(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatar+1<<20)
	file, hdr, err := r.FormFile("avatar")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Файл не завантажено")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil || len(data) > maxAvatar {
		writeMessage(w, http.StatusBadRequest, "Файл завеликий")
		return
	}
	ct := hdr.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		writeMessage(w, http.StatusBadRequest, "Дозволені лише зображення")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAvatar = Avatar{Filename: hdr.Filename, ContentType: ct, Size: len(data)}
	u := s.users[id]
	u.AvatarURL = "/uploads/avatars/" + id + "-" + hdr.Filename
	writeJSON(w, http.StatusOK, wire.AvatarResponse{Success: true, AvatarURL: u.AvatarURL, User: s.profile(u)})
}

// --- earnings ---

func (s *Server) handleEarnings(w http.ResponseWriter, r *http.Request) {
	id, _ := userIDFrom(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.earningsResponse(id))
}

func (s *Server) handleEarningAdd(w http.ResponseWriter, r *http.Request) {
	id, _ := userIDFrom(r.Context())
	var req wire.AddEarningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Невірний запит")
		return
	}
	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil || !amount.IsPositive() {
		writeMessage(w, http.StatusBadRequest, "Сума має бути більше 0")
		return
	}
	date := s.now().UTC()
	if req.Date != "" {
		if date, err = time.Parse(time.RFC3339, req.Date); err != nil {
			writeMessage(w, http.StatusBadRequest, "Невірна дата")
			return
		}
	}
	eid, _ := uuid.NewV4()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.earnings[id] = append(s.earnings[id], wire.Earning{
		ID: eid.String(), Amount: amount, Date: date, CreatedAt: s.now().UTC(),
	})
	writeJSON(w, http.StatusCreated, s.earningsResponse(id))
}

func (s *Server) handleEarningDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := userIDFrom(r.Context())
	eid := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.earnings[id], func(e wire.Earning) bool { return e.ID == eid })
	if i < 0 {
		writeMessage(w, http.StatusNotFound, "Запис не знайдено")
		return
	}
	s.earnings[id] = slices.Delete(s.earnings[id], i, i+1)
	writeJSON(w, http.StatusOK, s.earningsResponse(id))
}

// leaderboard must be called with mu held.
func (s *Server) leaderboard(current string) []wire.LeaderboardEntry {
	out := make([]wire.LeaderboardEntry, 0, len(s.order))
	for _, id := range s.order {
		u := s.users[id]
		out = append(out, wire.LeaderboardEntry{
			Name:          model.DisplayName(u.FirstName, u.LastName),
			Earnings:      s.earningsTotal(id),
			IsCurrentUser: id == current,
		})
	}
	slices.SortStableFunc(out, func(a, b wire.LeaderboardEntry) int { return b.Earnings.Cmp(a.Earnings) })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	id, _ := userIDFrom(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.leaderboard(id))
}

// --- admin ---

func (s *Server) handleAdminUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wire.AdminUser, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.adminUser(s.users[id]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdminFaculty(w http.ResponseWriter, r *http.Request) {
	var req wire.AssignFacultyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !model.IsFaculty(req.Faculty) {
		writeMessage(w, http.StatusBadRequest, "Невірний факультет")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[chi.URLParam(r, "id")]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Користувача не знайдено")
		return
	}
	f := req.Faculty
	u.Faculty = &f
	writeJSON(w, http.StatusOK, s.adminUser(u))
}

func (s *Server) handleAdminToggle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[chi.URLParam(r, "id")]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Користувача не знайдено")
		return
	}
	u.isAdmin = !u.isAdmin
	writeJSON(w, http.StatusOK, wire.AdminFlag{ID: u.ID, Email: u.Email, IsAdmin: u.isAdmin})
}
