package convert

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/wire"
)

func strp(s string) *string { return &s }

func TestToSession_FacultyNormalization(t *testing.T) {
	t.Parallel()

	s := ToSession(wire.User{ID: "u1", FirstName: "Олег", LastName: "Бондар", Faculty: strp("  ")}, "tok")
	if s.Faculty != nil {
		t.Fatalf("blank faculty must become nil, got %q", *s.Faculty)
	}
	if s.Token != "tok" || s.Name() != "Олег Бондар" {
		t.Fatalf("session mismatch: %+v", s)
	}

	src := strp("Експерт")
	s = ToSession(wire.User{Faculty: src}, "")
	if s.Faculty == nil || *s.Faculty != "Експерт" {
		t.Fatalf("faculty lost")
	}
	*src = "changed"
	if *s.Faculty != "Експерт" {
		t.Fatalf("faculty must be copied, not aliased")
	}
}

func TestToModule_FromJSON(t *testing.T) {
	t.Parallel()

	raw := `{"_id":"m1","number":2,"title":"Воронки","isLocked":true,
	 "unlockDate":"2026-05-01T00:00:00.000Z","progress":37.5,"category":"sales",
	 "lessons":[{"number":1,"title":"Вступ","videoUrl":"https://youtu.be/x",
	   "materials":[{"type":"pdf","title":"Слайди","url":"/f.pdf"}],"isCompleted":true},
	   {"number":2,"title":"Далі"}]}`
	var w wire.Module
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	m := ToModule(w)
	if m.ID != "m1" || m.Number != 2 || !m.Locked || m.Progress != 37.5 {
		t.Fatalf("module fields: %+v", m)
	}
	if m.UnlockDate == nil || !m.UnlockDate.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unlock date: %v", m.UnlockDate)
	}
	if len(m.Lessons) != 2 || m.Lessons[0].Number != 1 || !m.Lessons[0].Completed {
		t.Fatalf("lessons: %+v", m.Lessons)
	}
	if len(m.Lessons[0].Materials) != 1 || m.Lessons[0].Materials[0].Type != "pdf" {
		t.Fatalf("materials: %+v", m.Lessons[0].Materials)
	}
}

func TestToFavorites_DropsDuplicateKeys(t *testing.T) {
	t.Parallel()

	in := []wire.FavoriteLesson{
		{ModuleID: "m1", LessonNumber: 1, LessonTitle: "first"},
		{ModuleID: "m1", LessonNumber: 2},
		{ModuleID: "m1", LessonNumber: 1, LessonTitle: "dup"},
	}
	out := ToFavorites(in)
	if len(out) != 2 {
		t.Fatalf("want 2 unique favorites, got %d", len(out))
	}
	if out[0].LessonTitle != "first" {
		t.Fatalf("first occurrence must win: %+v", out[0])
	}
}

func TestToEarnings_DecimalFromNumberOrString(t *testing.T) {
	t.Parallel()

	raw := `{"totalEarnings":150.5,"history":[
	  {"_id":"e1","amount":100,"date":"2026-03-01T10:00:00Z","createdAt":"2026-03-01T10:00:00Z"},
	  {"_id":"e2","amount":"50.5","date":"2026-03-02T10:00:00Z","createdAt":"2026-03-02T10:00:00Z"}]}`
	var w wire.EarningsResponse
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	e := ToEarnings(w)
	if !e.Total.Equal(decimal.RequireFromString("150.5")) {
		t.Fatalf("total: %s", e.Total)
	}
	if len(e.History) != 2 || !e.History[1].Amount.Equal(decimal.RequireFromString("50.5")) {
		t.Fatalf("history: %+v", e.History)
	}
}

func TestToAdminUsers_And_Flag(t *testing.T) {
	t.Parallel()

	us := ToAdminUsers([]wire.AdminUser{
		{ID: "a", CompletedLessonsCount: 4, CompletedModulesCount: 1, Earnings: decimal.NewFromInt(10)},
		{ID: "b", Faculty: strp("Продюсер"), IsAdmin: true},
	})
	if len(us) != 2 || us[0].CompletedLessons != 4 || us[0].Faculty != nil {
		t.Fatalf("row a: %+v", us[0])
	}
	if us[1].Faculty == nil || *us[1].Faculty != "Продюсер" || !us[1].IsAdmin {
		t.Fatalf("row b: %+v", us[1])
	}
	f := ToAdminFlag(wire.AdminFlag{ID: "b", IsAdmin: false})
	if f != (model.AdminFlag{ID: "b", IsAdmin: false}) {
		t.Fatalf("flag: %+v", f)
	}
}

func TestFromProfileUpdate_OmitsNil(t *testing.T) {
	t.Parallel()

	seen := true
	b, err := json.Marshal(FromProfileUpdate(model.ProfileUpdate{HasSeenWelcomeModal: &seen}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"hasSeenWelcomeModal":true}` {
		t.Fatalf("body: %s", b)
	}
}
