package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/and161185/academy-client/internal/convert"
	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/wire"
)

// AvatarField is the multipart field name of the avatar upload.
const AvatarField = "avatar"

// ProfileClient covers /profile, earnings and the leaderboard.
type ProfileClient struct{ c *Client }

func (p *ProfileClient) Get(ctx context.Context) (model.Profile, model.ProfileStats, error) {
	var resp wire.ProfileResponse
	if err := p.c.do(ctx, errs.OpProfileGet, http.MethodGet, "/profile", authRequired, nil, &resp); err != nil {
		return model.Profile{}, model.ProfileStats{}, err
	}
	return convert.ToProfile(resp.User), convert.ToProfileStats(resp.Stats), nil
}

// Update sends only the non-nil fields of u.
func (p *ProfileClient) Update(ctx context.Context, u model.ProfileUpdate) (model.Profile, error) {
	var resp wire.Profile
	if err := p.c.do(ctx, errs.OpProfileUpdate, http.MethodPut, "/profile", authRequired,
		convert.FromProfileUpdate(u), &resp); err != nil {
		return model.Profile{}, err
	}
	return convert.ToProfile(resp), nil
}

// UploadAvatar posts the image as multipart field "avatar" and returns the updated profile.
func (p *ProfileClient) UploadAvatar(ctx context.Context, a model.Avatar) (model.Profile, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, AvatarField, filepath.Base(a.Filename)))
	h.Set("Content-Type", a.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return model.Profile{}, err
	}
	if _, err := part.Write(a.Data); err != nil {
		return model.Profile{}, err
	}
	if err := mw.Close(); err != nil {
		return model.Profile{}, err
	}

	var resp wire.AvatarResponse
	err = p.c.send(ctx, call{
		op: errs.OpAvatarUpload, method: http.MethodPost, path: "/profile/avatar",
		auth: authRequired, body: &buf, contentType: mw.FormDataContentType(), out: &resp,
	})
	if err != nil {
		return model.Profile{}, err
	}
	prof := convert.ToProfile(resp.User)
	if prof.AvatarRef == "" {
		prof.AvatarRef = resp.AvatarURL
	}
	return prof, nil
}

func sortedEarnings(r wire.EarningsResponse) model.Earnings {
	e := convert.ToEarnings(r)
	model.SortEarningsDesc(e.History)
	return e
}

// Earnings returns the total and the history, newest date first.
func (p *ProfileClient) Earnings(ctx context.Context) (model.Earnings, error) {
	var resp wire.EarningsResponse
	if err := p.c.do(ctx, errs.OpEarningsList, http.MethodGet, "/profile/earnings", authRequired, nil, &resp); err != nil {
		return model.Earnings{}, err
	}
	return sortedEarnings(resp), nil
}

// AddEarning records amount at date and returns the server's new state.
func (p *ProfileClient) AddEarning(ctx context.Context, amount decimal.Decimal, date time.Time) (model.Earnings, error) {
	var resp wire.EarningsResponse
	req := wire.AddEarningRequest{
		Amount: json.Number(amount.String()),
		Date:   date.UTC().Format(time.RFC3339),
	}
	if err := p.c.do(ctx, errs.OpEarningAdd, http.MethodPost, "/profile/earnings", authRequired, req, &resp); err != nil {
		return model.Earnings{}, err
	}
	return sortedEarnings(resp), nil
}

// DeleteEarning removes one record and returns the server's new state.
func (p *ProfileClient) DeleteEarning(ctx context.Context, id string) (model.Earnings, error) {
	var resp wire.EarningsResponse
	path := "/profile/earnings/" + url.PathEscape(strings.TrimSpace(id))
	if err := p.c.do(ctx, errs.OpEarningDelete, http.MethodDelete, path, authRequired, nil, &resp); err != nil {
		return model.Earnings{}, err
	}
	return sortedEarnings(resp), nil
}

// Leaderboard returns ranked rows in server order.
func (p *ProfileClient) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	var resp []wire.LeaderboardEntry
	if err := p.c.do(ctx, errs.OpLeaderboard, http.MethodGet, "/profile/leaderboard", authRequired, nil, &resp); err != nil {
		return nil, err
	}
	return convert.ToLeaderboard(resp), nil
}
