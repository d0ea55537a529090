package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSortEarningsDesc(t *testing.T) {
	t.Parallel()

	d := func(day int) time.Time { return time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC) }
	recs := []EarningRecord{
		{ID: "a", Amount: decimal.NewFromInt(1), Date: d(1)},
		{ID: "b", Amount: decimal.NewFromInt(2), Date: d(5), CreatedAt: d(5)},
		{ID: "c", Amount: decimal.NewFromInt(3), Date: d(3)},
		{ID: "d", Amount: decimal.NewFromInt(4), Date: d(5), CreatedAt: d(6)},
	}
	SortEarningsDesc(recs)

	var got []string
	for _, r := range recs {
		got = append(got, r.ID)
	}
	want := []string{"d", "b", "c", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order: got %v want %v", got, want)
		}
	}
}

func TestModuleLesson(t *testing.T) {
	t.Parallel()

	m := Module{Lessons: []Lesson{{Number: 1, Title: "one"}, {Number: 3, Title: "three"}}}
	if l, ok := m.Lesson(3); !ok || l.Title != "three" {
		t.Fatalf("lesson 3: %+v %v", l, ok)
	}
	if _, ok := m.Lesson(2); ok {
		t.Fatalf("lesson 2 must be missing")
	}
}

func TestDisplayNameAndFaculty(t *testing.T) {
	t.Parallel()

	if got := (Session{FirstName: "Іра", LastName: " Коваль "}).Name(); got != "Іра Коваль" {
		t.Fatalf("name: %q", got)
	}
	if got := DisplayName("", "Solo"); got != "Solo" {
		t.Fatalf("name: %q", got)
	}
	if !IsFaculty("Продюсер") || IsFaculty("Дизайнер") {
		t.Fatalf("faculty set mismatch")
	}
}
