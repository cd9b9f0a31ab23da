package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"math/big"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/seatplan/seatplan/internal/models"
	apperrors "github.com/seatplan/seatplan/pkg/errors"
)

const slugAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateToken produces an opaque URL-safe secret for cancellation links.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// generateSlug produces a 13 character base-36 public survey reference.
func generateSlug() (string, error) {
	var b strings.Builder
	b.Grow(13)
	max := big.NewInt(int64(len(slugAlphabet)))
	for i := 0; i < 13; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(slugAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func defaultClock() time.Time {
	return time.Now().UTC()
}

// resolvePublicSurvey loads a survey from the reference embedded in its
// shared page URL. The reference is the shareable slug, with the survey id
// accepted as an equivalent form.
func resolvePublicSurvey(db *gorm.DB, ref string) (*models.Survey, error) {
	var survey models.Survey
	err := db.First(&survey, "survey_link = ?", ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = db.First(&survey, "id = ?", ref).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrSurveyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &survey, nil
}
