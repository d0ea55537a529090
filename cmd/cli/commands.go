package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/and161185/academy-client/internal/engagement"
	"github.com/and161185/academy-client/internal/model"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"login":           cmdLogin,
	"logout":          cmdLogout,
	"me":              cmdMe,
	"modules":         cmdModules,
	"module":          cmdModule,
	"lesson":          cmdLesson,
	"complete":        func(ctx context.Context, a *app, args []string) error { return cmdSetCompleted(ctx, a, "complete", args, true) },
	"uncomplete":      func(ctx context.Context, a *app, args []string) error { return cmdSetCompleted(ctx, a, "uncomplete", args, false) },
	"complete-module": cmdCompleteModule,
	"fav":             cmdFav,
	"earnings":        cmdEarnings,
	"leaderboard":     cmdLeaderboard,
	"profile":         cmdProfile,
	"avatar":          cmdAvatar,
	"admin":           cmdAdmin,
	"welcome":         cmdWelcome,
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

func need(name, what string) error {
	return fmt.Errorf("%w: %s: need %s", errUsage, name, what)
}

// lessonFlags registers -module and -n.
func lessonFlags(fs *flag.FlagSet) (*string, *int) {
	return fs.String("module", "", "module id"), fs.Int("n", 0, "lesson number")
}

// ---- auth ----

type sessionOut struct {
	ID                  string  `json:"id"`
	Email               string  `json:"email"`
	Name                string  `json:"name"`
	Phone               string  `json:"phone,omitempty"`
	Avatar              string  `json:"avatar,omitempty"`
	Faculty             *string `json:"faculty"`
	IsAdmin             bool    `json:"isAdmin"`
	HasSeenWelcomeModal bool    `json:"hasSeenWelcomeModal"`
}

func toSessionOut(s model.Session) sessionOut {
	return sessionOut{
		ID: s.UserID, Email: s.Email, Name: s.Name(), Phone: s.Phone, Avatar: s.AvatarRef,
		Faculty: s.Faculty, IsAdmin: s.IsAdmin, HasSeenWelcomeModal: s.HasSeenWelcomeModal,
	}
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "email")
	pass := fs.String("password", "", "password ('-' reads stdin)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" || *pass == "" {
		return need("login", "-email and -password")
	}
	pw, err := readSecret(*pass, a.in)
	if err != nil {
		return err
	}
	sess, err := a.sessions.Login(ctx, *email, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "ok: %s\n", sess.Name())
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.sessions.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "ok")
	return nil
}

func cmdMe(ctx context.Context, a *app, _ []string) error {
	sess, err := a.sessions.CurrentUser(ctx)
	if err != nil {
		return err
	}
	printJSON(a.out, toSessionOut(sess))
	return nil
}

// ---- modules & lessons ----

type moduleRow struct {
	ID       string  `json:"id"`
	Number   int     `json:"number"`
	Title    string  `json:"title"`
	Lessons  int     `json:"lessons"`
	Progress float64 `json:"progress"`
	Locked   bool    `json:"locked,omitempty"`
}

func cmdModules(ctx context.Context, a *app, _ []string) error {
	s := a.coord.Modules()
	defer s.Close()
	if err := s.Load(ctx); err != nil {
		return err
	}
	rows := []moduleRow{}
	for _, m := range s.View().Modules {
		rows = append(rows, moduleRow{
			ID: m.ID, Number: m.Number, Title: m.Title,
			Lessons: len(m.Lessons), Progress: m.Progress, Locked: m.Locked,
		})
	}
	printJSON(a.out, rows)
	return nil
}

func cmdModule(ctx context.Context, a *app, args []string) error {
	fs := newFlags("module")
	id := fs.String("id", "", "module id")
	n := fs.Int("n", 0, "module number")
	if err := parse(fs, args); err != nil {
		return err
	}
	var (
		m   model.Module
		err error
	)
	switch {
	case *id != "":
		m, err = a.client.Modules.Get(ctx, *id)
	case *n > 0:
		m, err = a.client.Modules.ByNumber(ctx, *n)
	default:
		return need("module", "-id or -n")
	}
	if err != nil {
		return err
	}
	printJSON(a.out, m)
	return nil
}

type lessonOut struct {
	Module    string           `json:"module"`
	Number    int              `json:"number"`
	Title     string           `json:"title"`
	Video     string           `json:"video"`
	Materials []model.Material `json:"materials,omitempty"`
	Homework  string           `json:"homework,omitempty"`
	Completed bool             `json:"completed"`
	Favorite  bool             `json:"favorite"`
}

func openLesson(ctx context.Context, a *app, name string, args []string) (*engagement.LessonScreen, error) {
	fs := newFlags(name)
	mod, n := lessonFlags(fs)
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	if *mod == "" || *n <= 0 {
		return nil, need(name, "-module and -n")
	}
	s := a.coord.Lesson(*mod, *n)
	if err := s.Load(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func printLesson(w io.Writer, v engagement.LessonView) {
	printJSON(w, lessonOut{
		Module: v.Module.Title, Number: v.Lesson.Number, Title: v.Lesson.Title,
		Video: v.Lesson.VideoRef, Materials: v.Lesson.Materials, Homework: v.Lesson.Homework,
		Completed: v.Completed, Favorite: v.Favorite,
	})
}

func cmdLesson(ctx context.Context, a *app, args []string) error {
	s, err := openLesson(ctx, a, "lesson", args)
	if err != nil {
		return err
	}
	defer s.Close()
	printLesson(a.out, s.View())
	return nil
}

func cmdSetCompleted(ctx context.Context, a *app, name string, args []string, want bool) error {
	s, err := openLesson(ctx, a, name, args)
	if err != nil {
		return err
	}
	defer s.Close()
	if s.View().Completed != want {
		if _, err := s.ToggleCompletion(ctx); err != nil {
			return err
		}
	}
	printLesson(a.out, s.View())
	return nil
}

func cmdCompleteModule(ctx context.Context, a *app, args []string) error {
	fs := newFlags("complete-module")
	mod := fs.String("module", "", "module id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *mod == "" {
		return need("complete-module", "-module")
	}
	s := a.coord.Modules()
	defer s.Close()
	n, err := s.CompleteModule(ctx, *mod)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "completed modules: %d\n", n)
	return nil
}

// ---- favorites ----

func cmdFav(ctx context.Context, a *app, args []string) error {
	if len(args) < 1 {
		return need("fav", "add, rm or list")
	}
	switch args[0] {
	case "add":
		s, err := openLesson(ctx, a, "fav add", args[1:])
		if err != nil {
			return err
		}
		defer s.Close()
		if !s.View().Favorite {
			if _, err := s.ToggleFavorite(ctx); err != nil {
				return err
			}
		}
		printLesson(a.out, s.View())
		return nil
	case "rm":
		fs := newFlags("fav rm")
		mod, n := lessonFlags(fs)
		if err := parse(fs, args[1:]); err != nil {
			return err
		}
		if *mod == "" || *n <= 0 {
			return need("fav rm", "-module and -n")
		}
		s := a.coord.Favorites()
		defer s.Close()
		if err := s.Load(ctx); err != nil {
			return err
		}
		if err := s.Remove(ctx, model.FavoriteKey{ModuleID: *mod, LessonNumber: *n}); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "ok: %d left\n", s.View().Total)
		return nil
	case "list":
		fs := newFlags("fav list")
		q := fs.String("q", "", "search lesson or module title")
		m := fs.Int("m", 0, "module number")
		if err := parse(fs, args[1:]); err != nil {
			return err
		}
		s := a.coord.Favorites()
		defer s.Close()
		if err := s.Load(ctx); err != nil {
			return err
		}
		s.SetSearch(*q)
		s.SetModule(*m)
		printJSON(a.out, s.View())
		return nil
	}
	return need("fav", "add, rm or list")
}

// ---- earnings & progress ----

func cmdEarnings(ctx context.Context, a *app, args []string) error {
	if len(args) < 1 {
		return need("earnings", "list, add or rm")
	}
	s := a.coord.Earnings()
	defer s.Close()
	if err := s.Load(ctx); err != nil {
		return err
	}
	switch args[0] {
	case "list":
	case "add":
		if len(args) < 2 {
			return need("earnings add", "<amount>")
		}
		if err := s.Add(ctx, args[1]); err != nil {
			return err
		}
	case "rm":
		if len(args) < 2 {
			return need("earnings rm", "<id>")
		}
		if err := s.Delete(ctx, args[1]); err != nil {
			return err
		}
	default:
		return need("earnings", "list, add or rm")
	}
	v := s.View()
	printJSON(a.out, struct {
		Total   string                `json:"total"`
		History []model.EarningRecord `json:"history"`
	}{v.Total.String(), v.History})
	return nil
}

func cmdLeaderboard(ctx context.Context, a *app, _ []string) error {
	s := a.coord.Progress()
	defer s.Close()
	if err := s.Load(ctx); err != nil {
		return err
	}
	printJSON(a.out, s.View().Leaderboard)
	return nil
}

func cmdProfile(ctx context.Context, a *app, args []string) error {
	fs := newFlags("profile")
	fs.String("first", "", "first name")
	fs.String("last", "", "last name")
	fs.String("phone", "", "phone")
	if err := parse(fs, args); err != nil {
		return err
	}
	s := a.coord.Progress()
	defer s.Close()

	var u model.ProfileUpdate
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "first":
			u.FirstName = &v
		case "last":
			u.LastName = &v
		case "phone":
			u.Phone = &v
		}
	})
	if u != (model.ProfileUpdate{}) {
		if err := s.UpdateProfile(ctx, u); err != nil {
			return err
		}
	}
	if err := s.Load(ctx); err != nil {
		return err
	}
	v := s.View()
	printJSON(a.out, struct {
		Profile model.Profile      `json:"profile"`
		Stats   model.ProfileStats `json:"stats"`
	}{v.Profile, v.Stats})
	return nil
}

func cmdAvatar(ctx context.Context, a *app, args []string) error {
	fs := newFlags("avatar")
	typ := fs.String("type", "", "content type (default: from extension)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return need("avatar", "<file>")
	}
	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	s := a.coord.Progress()
	defer s.Close()
	if err := s.UploadAvatar(ctx, model.Avatar{Filename: filepath.Base(path), ContentType: *typ, Data: data}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "ok: %s\n", s.View().Profile.AvatarRef)
	return nil
}

// ---- admin ----

func cmdAdmin(ctx context.Context, a *app, args []string) error {
	if len(args) < 1 {
		return need("admin", "users, assign or toggle")
	}
	s := a.coord.Admin()
	defer s.Close()
	if err := s.Load(ctx); err != nil {
		return err
	}

	fs := newFlags("admin " + args[0])
	userID := fs.String("user", "", "user id")
	faculty := fs.String("faculty", "", "faculty")
	if err := parse(fs, args[1:]); err != nil {
		return err
	}

	switch args[0] {
	case "users":
		printJSON(a.out, s.View().Users)
		return nil
	case "assign":
		if *userID == "" {
			return need("admin assign", "-user")
		}
		if err := s.AssignFaculty(ctx, *userID, *faculty); err != nil {
			return err
		}
	case "toggle":
		if *userID == "" {
			return need("admin toggle", "-user")
		}
		if _, err := s.ToggleAdmin(ctx, *userID); err != nil {
			return err
		}
	default:
		return need("admin", "users, assign or toggle")
	}
	for _, u := range s.View().Users {
		if u.ID == *userID {
			printJSON(a.out, u)
		}
	}
	return nil
}

// ---- welcome ----

func cmdWelcome(ctx context.Context, a *app, args []string) error {
	fs := newFlags("welcome")
	dismiss := fs.Bool("dismiss", false, "mark the welcome message as seen")
	if err := parse(fs, args); err != nil {
		return err
	}
	if _, err := a.sessions.CurrentUser(ctx); err != nil {
		return err
	}
	g := a.coord.Welcome()
	if !g.Visible() {
		fmt.Fprintln(a.out, "nothing to show")
		return nil
	}
	fmt.Fprintf(a.out, "Вітаємо на факультеті «%s»!\n", g.Faculty())
	if *dismiss {
		return g.Dismiss(ctx)
	}
	return nil
}
