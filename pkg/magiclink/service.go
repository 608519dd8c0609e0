package magiclink

import (
	"context"
	"errors"
	"time"

	"github.com/clinicore/platform/pkg/common/logger"
	"github.com/clinicore/platform/pkg/common/models"
	"github.com/clinicore/platform/pkg/patient"
	"github.com/google/uuid"
)

var ErrTokenInvalid = errors.New("magic link token invalid or expired")

// PatientResolver is the slice of the identity resolver this package needs.
type PatientResolver interface {
	Resolve(ctx context.Context, identifier patient.Identifier) (models.CanonicalPatient, error)
}

// TokenStore persists magic link tokens with their TTL. Take must be
// single-use: a token can be taken exactly once.
type TokenStore interface {
	Save(ctx context.Context, token string, patientID uuid.UUID, ttl time.Duration) error
	Take(ctx context.Context, token string) (uuid.UUID, error)
}

// Service issues and redeems expiring single-use questionnaire links. A
// link is always bound to a primary-store patient id; issuing one against a
// legacy-only id resolves the patient first, which backfills the mirror.
type Service struct {
	resolver PatientResolver
	tokens   TokenStore
	ttl      time.Duration
}

func NewService(resolver PatientResolver, tokens TokenStore, ttl time.Duration) *Service {
	return &Service{resolver: resolver, tokens: tokens, ttl: ttl}
}

func (s *Service) Issue(ctx context.Context, identifier patient.Identifier) (models.MagicLink, error) {
	resolved, err := s.resolver.Resolve(ctx, identifier)
	if err != nil {
		return models.MagicLink{}, err
	}

	token := uuid.New().String()
	if err := s.tokens.Save(ctx, token, resolved.ID, s.ttl); err != nil {
		return models.MagicLink{}, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"patient_id": resolved.ID,
		"expires_in": s.ttl.String(),
	}).Info("magic link issued")

	return models.MagicLink{
		Token:     token,
		PatientID: resolved.ID,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}, nil
}

// Redeem consumes a token and returns the patient it was bound to. A token
// that is unknown, expired or already redeemed yields ErrTokenInvalid.
func (s *Service) Redeem(ctx context.Context, token string) (uuid.UUID, error) {
	patientID, err := s.tokens.Take(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}
	return patientID, nil
}
