package magiclink

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/clinicore/platform/pkg/common/logger"
	"github.com/clinicore/platform/pkg/common/models"
	"github.com/clinicore/platform/pkg/patient"
	"github.com/google/uuid"
)

func TestMain(m *testing.M) {
	logger.Init("magiclink-test")
	os.Exit(m.Run())
}

type fakeResolver struct {
	patients map[int64]models.CanonicalPatient
	byUUID   map[uuid.UUID]models.CanonicalPatient
	resolved []patient.Identifier
}

func (r *fakeResolver) Resolve(ctx context.Context, identifier patient.Identifier) (models.CanonicalPatient, error) {
	r.resolved = append(r.resolved, identifier)
	if identifier.IsLegacy {
		p, ok := r.patients[identifier.LegacyID]
		if !ok {
			return models.CanonicalPatient{}, patient.ErrPatientNotFound
		}
		return p, nil
	}
	p, ok := r.byUUID[identifier.UUID]
	if !ok {
		return models.CanonicalPatient{}, patient.ErrPatientNotFound
	}
	return p, nil
}

type memoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]uuid.UUID
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{tokens: make(map[string]uuid.UUID)}
}

func (s *memoryTokenStore) Save(ctx context.Context, token string, patientID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = patientID
	return nil
}

func (s *memoryTokenStore) Take(ctx context.Context, token string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[token]
	if !ok {
		return uuid.Nil, ErrTokenInvalid
	}
	delete(s.tokens, token)
	return id, nil
}

func TestIssueAndRedeemOnce(t *testing.T) {
	patientID := uuid.New()
	legacyID := int64(42)
	resolver := &fakeResolver{
		patients: map[int64]models.CanonicalPatient{
			legacyID: {ID: patientID, LegacyID: &legacyID},
		},
	}
	service := NewService(resolver, newMemoryTokenStore(), time.Hour)

	link, err := service.Issue(context.Background(), patient.LegacyIdentifier(legacyID))
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if link.PatientID != patientID {
		t.Fatalf("link bound to wrong patient: %v", link.PatientID)
	}
	if len(resolver.resolved) != 1 || !resolver.resolved[0].IsLegacy {
		t.Fatal("issuing against a legacy id must go through the resolver")
	}

	redeemed, err := service.Redeem(context.Background(), link.Token)
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if redeemed != patientID {
		t.Fatalf("redeemed wrong patient: %v", redeemed)
	}

	if _, err := service.Redeem(context.Background(), link.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("second redeem must fail, got %v", err)
	}
}

func TestIssueUnknownPatient(t *testing.T) {
	service := NewService(&fakeResolver{}, newMemoryTokenStore(), time.Hour)

	_, err := service.Issue(context.Background(), patient.LegacyIdentifier(999))
	if !errors.Is(err, patient.ErrPatientNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRedeemUnknownToken(t *testing.T) {
	service := NewService(&fakeResolver{}, newMemoryTokenStore(), time.Hour)

	if _, err := service.Redeem(context.Background(), "bogus"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}
