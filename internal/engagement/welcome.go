package engagement

import (
	"context"

	"go.uber.org/zap"

	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/optimistic"
)

// WelcomeGate decides whether the welcome modal shows. It shows when the
// session has a faculty and the user has not seen it. A dismissal is recorded
// on the Coordinator for the current session, so every gate of that session
// stays hidden even if persisting the flag fails. A new login starts over.
type WelcomeGate struct {
	screen
	c         *Coordinator
	dismissed bool
}

func (c *Coordinator) Welcome() *WelcomeGate {
	g := &WelcomeGate{c: c}
	g.init(c.log, "welcome")
	return g
}

// Visible reports whether the modal should be shown.
func (g *WelcomeGate) Visible() bool {
	g.mu.Lock()
	dismissed := g.dismissed
	g.mu.Unlock()
	if dismissed {
		return false
	}
	sess, ok := g.c.currentSession()
	return ok && !g.c.welcomeDismissed(sess) && WelcomeDue(sess)
}

// sessionKey identifies one login: the same user logging in again gets a new token.
func sessionKey(s model.Session) string { return s.UserID + "\x00" + s.Token }

func (c *Coordinator) welcomeDismissed(s model.Session) bool {
	c.welcomeMu.Lock()
	defer c.welcomeMu.Unlock()
	return c.dismissedIn != "" && c.dismissedIn == sessionKey(s)
}

func (c *Coordinator) dismissWelcome(s model.Session) {
	c.welcomeMu.Lock()
	c.dismissedIn = sessionKey(s)
	c.welcomeMu.Unlock()
}

// WelcomeDue is the server-side part of the rule.
func WelcomeDue(s model.Session) bool {
	return s.Faculty != nil && !s.HasSeenWelcomeModal
}

// Faculty returns the faculty to greet, or "".
func (g *WelcomeGate) Faculty() string {
	if sess, ok := g.c.currentSession(); ok && sess.Faculty != nil {
		return *sess.Faculty
	}
	return ""
}

// Dismiss hides the modal, persists hasSeenWelcomeModal and refreshes the
// session. A persist failure is logged and returned; it is not retried.
func (g *WelcomeGate) Dismiss(ctx context.Context) error {
	sess, hasSession := g.c.currentSession()
	g.mu.Lock()
	if g.dismissed || (hasSession && g.c.welcomeDismissed(sess)) {
		g.mu.Unlock()
		return nil
	}
	g.dismissed = true
	gen := g.gen
	g.mu.Unlock()
	if hasSession {
		g.c.dismissWelcome(sess)
	}

	seen := true
	_, err := optimistic.Run(ctx, g.guard, KeyWelcome, optimistic.Mutation[model.Profile]{
		Call: func(ctx context.Context) (model.Profile, error) {
			return g.c.profile.Update(ctx, model.ProfileUpdate{HasSeenWelcomeModal: &seen})
		},
		Revert: func(err error) {
			g.log.Warn("welcome flag not persisted; modal may show again next session", zap.Error(err))
			g.failedAt(gen, errs.OpProfileUpdate, err)
		},
	})
	if err != nil {
		return err
	}
	g.c.refreshSession(ctx)
	return nil
}
