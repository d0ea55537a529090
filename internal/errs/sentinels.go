// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"net/http"
	"strings"
)

// Common sentinels across client layers.
var (
	// ErrUnauthenticated indicates a missing, expired, or rejected bearer token.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidCredentials indicates the server rejected an email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrValidation indicates user input rejected before any request was made.
	ErrValidation = errors.New("validation failed")

	// ErrRequestFailed indicates a non-2xx response for a specific operation.
	ErrRequestFailed = errors.New("request failed")

	// ErrNetworkUnavailable indicates a transport-level failure (dial, timeout, reset).
	ErrNetworkUnavailable = errors.New("network unavailable")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBusy indicates the triggering control already has a request in flight.
	ErrBusy = errors.New("operation in progress")
)

// Op names a single remote operation; used in failure messages and logs.
type Op string

// Operations issued by the resource clients.
const (
	OpLogin              Op = "Login"
	OpLogout             Op = "Logout"
	OpCurrentUser        Op = "CurrentUser"
	OpModulesList        Op = "ModulesList"
	OpModuleGet          Op = "ModuleGet"
	OpLessonComplete     Op = "LessonComplete"
	OpLessonUncomplete   Op = "LessonUncomplete"
	OpLessonStatus       Op = "LessonStatus"
	OpModuleComplete     Op = "ModuleComplete"
	OpFavoriteAdd        Op = "FavoriteAdd"
	OpFavoriteRemove     Op = "FavoriteRemove"
	OpFavoriteCheck      Op = "FavoriteCheck"
	OpFavoritesList      Op = "FavoritesList"
	OpProfileGet         Op = "ProfileGet"
	OpProfileUpdate      Op = "ProfileUpdate"
	OpAvatarUpload       Op = "AvatarUpload"
	OpEarningsList       Op = "EarningsList"
	OpEarningAdd         Op = "EarningAdd"
	OpEarningDelete      Op = "EarningDelete"
	OpLeaderboard        Op = "Leaderboard"
	OpAdminUsers         Op = "AdminUsers"
	OpAdminAssignFaculty Op = "AdminAssignFaculty"
	OpAdminToggle        Op = "AdminToggle"
)

// Human turns "FavoriteAdd" into "favorite add".
func (o Op) Human() string {
	var b strings.Builder
	for i, r := range string(o) {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte(' ')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// RequestError is a non-2xx answer to one operation.
type RequestError struct {
	Op      Op
	Status  int
	Message string // server-provided, may be empty
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Op.Human() + " failed"
}

// Unwrap lets callers match ErrRequestFailed, and ErrNotFound for 404s.
func (e *RequestError) Unwrap() []error {
	if e.Status == http.StatusNotFound {
		return []error{ErrRequestFailed, ErrNotFound}
	}
	return []error{ErrRequestFailed}
}

// OpOf reports the failed operation carried by err, if any.
func OpOf(err error) (Op, bool) {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Op, true
	}
	return "", false
}
