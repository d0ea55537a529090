// Package api contains the typed resource clients of the course API.
//
// All families share one Client: it attaches the bearer token from the
// injected credentials.Provider, maps HTTP failures onto the errs taxonomy and
// reports 401 answers to the registered teardown hook.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/academy-client/internal/credentials"
	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/wire"
)

// DefaultTimeout bounds a single HTTP exchange when no client is supplied.
const DefaultTimeout = 30 * time.Second

type authMode int

const (
	authNone     authMode = iota
	authOptional          // send the token when present
	authRequired          // fail with ErrUnauthenticated before I/O when absent
)

// Client is the shared HTTP core.
type Client struct {
	base  string
	hc    *http.Client
	creds credentials.Provider
	log   *zap.Logger

	mu     sync.Mutex
	onAuth func(ctx context.Context)

	Auth      *AuthClient
	Modules   *ModulesClient
	Progress  *ProgressClient
	Favorites *FavoritesClient
	Profile   *ProfileClient
	Admin     *AdminClient
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its transport is wrapped for logging.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithLogger sets the logger; nil means no logging.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New builds a client for baseURL that reads the token from creds.
func New(baseURL string, creds credentials.Provider, opts ...Option) *Client {
	c := &Client{
		base:  strings.TrimRight(baseURL, "/"),
		hc:    &http.Client{Timeout: DefaultTimeout},
		creds: creds,
		log:   zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	hc := *c.hc
	hc.Transport = NewLoggingTransport(hc.Transport, c.log)
	c.hc = &hc

	c.Auth = &AuthClient{c: c}
	c.Modules = &ModulesClient{c: c}
	c.Progress = &ProgressClient{c: c}
	c.Favorites = &FavoritesClient{c: c}
	c.Profile = &ProfileClient{c: c}
	c.Admin = &AdminClient{c: c}
	return c
}

// OnUnauthenticated registers the hook run when the server rejects the token
// or a required token is missing. The session store uses it for teardown.
func (c *Client) OnUnauthenticated(fn func(ctx context.Context)) {
	c.mu.Lock()
	c.onAuth = fn
	c.mu.Unlock()
}

func (c *Client) unauthenticated(ctx context.Context) error {
	c.mu.Lock()
	fn := c.onAuth
	c.mu.Unlock()
	if fn != nil {
		fn(ctx)
	}
	return errs.ErrUnauthenticated
}

type call struct {
	op          errs.Op
	method      string
	path        string
	auth        authMode
	token       string // explicit token, bypasses the provider
	body        io.Reader
	contentType string
	out         any
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// do issues a JSON call; in may be nil.
func (c *Client) do(ctx context.Context, op errs.Op, method, path string, auth authMode, in, out any) error {
	cl := call{op: op, method: method, path: path, auth: auth, out: out}
	if in != nil {
		body, err := jsonBody(in)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", op.Human(), err)
		}
		cl.body, cl.contentType = body, "application/json"
	}
	return c.send(ctx, cl)
}

func (c *Client) send(ctx context.Context, cl call) error {
	tok := cl.token
	if tok == "" && cl.auth != authNone {
		t, err := c.creds.Token(ctx)
		if err != nil {
			return fmt.Errorf("%s: read token: %w", cl.op.Human(), err)
		}
		tok = t
	}
	if tok == "" && cl.auth == authRequired {
		return c.unauthenticated(ctx)
	}

	req, err := http.NewRequestWithContext(withOp(ctx, cl.op), cl.method, c.base+cl.path, cl.body)
	if err != nil {
		return fmt.Errorf("%s: %w", cl.op.Human(), err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%s: %w: %w", cl.op.Human(), errs.ErrNetworkUnavailable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if tok != "" && isAuthRejection(cl.op, resp.StatusCode) {
		return c.unauthenticated(ctx)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &errs.RequestError{Op: cl.op, Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if cl.out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%s: decode: %w", cl.op.Human(), err)
	}
	return nil
}

func isAuthRejection(op errs.Op, status int) bool {
	return status == http.StatusUnauthorized || (op == errs.OpCurrentUser && status == http.StatusForbidden)
}

func errorMessage(r io.Reader) string {
	var body wire.ErrorBody
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
