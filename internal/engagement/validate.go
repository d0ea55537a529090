package engagement

import (
	"fmt"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/model"
)

// MaxAvatarSize is the largest accepted avatar upload.
const MaxAvatarSize = 5 << 20

func itoa(n int) string { return strconv.Itoa(n) }

// ParseAmount parses a user-entered earning amount; it must be a positive number.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: amount is required", errs.ErrValidation)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: amount %q is not a number", errs.ErrValidation, s)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: amount must be greater than 0", errs.ErrValidation)
	}
	return d, nil
}

// ValidateAvatar resolves the content type and checks type and size.
// An empty ContentType is taken from the file extension.
func ValidateAvatar(a model.Avatar) (model.Avatar, error) {
	if a.ContentType == "" {
		a.ContentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(a.Filename)))
	}
	if mt, _, err := mime.ParseMediaType(a.ContentType); err == nil {
		a.ContentType = mt
	}
	if !strings.HasPrefix(a.ContentType, "image/") {
		return a, fmt.Errorf("%w: avatar must be an image", errs.ErrValidation)
	}
	if len(a.Data) == 0 {
		return a, fmt.Errorf("%w: avatar is empty", errs.ErrValidation)
	}
	if len(a.Data) > MaxAvatarSize {
		return a, fmt.Errorf("%w: avatar exceeds 5MB", errs.ErrValidation)
	}
	return a, nil
}

// ValidateFaculty checks that faculty is selected and assignable.
func ValidateFaculty(faculty string) error {
	if strings.TrimSpace(faculty) == "" {
		return fmt.Errorf("%w: select a faculty", errs.ErrValidation)
	}
	if !model.IsFaculty(faculty) {
		return fmt.Errorf("%w: unknown faculty %q", errs.ErrValidation, faculty)
	}
	return nil
}
