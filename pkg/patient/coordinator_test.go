package patient

import (
	"context"
	"errors"
	"testing"

	"github.com/clinicore/platform/pkg/common/models"
	"github.com/google/uuid"
)

func testActor() models.ActorContext {
	return models.ActorContext{UserID: uuid.New(), Role: "doctor"}
}

func testSite() SiteProfile {
	return SiteProfile{Site: "CL1", DefaultDoctor: "dr-default"}
}

func TestCreateWritesBothStores(t *testing.T) {
	legacy := newFakeLegacyStore()
	primary := newFakePrimaryStore()
	producer := &fakePublisher{}
	coordinator := NewCoordinator(legacy, primary, testSite(), producer)

	input := validInput()
	input.ConsentGranted = true

	created, err := coordinator.Create(context.Background(), testActor(), input)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if created.LegacyID == nil {
		t.Fatal("expected legacy id on created patient")
	}
	if legacy.count() != 1 || primary.count() != 1 {
		t.Fatalf("expected exactly one row in each store, got legacy=%d primary=%d", legacy.count(), primary.count())
	}

	row, err := legacy.Get(context.Background(), *created.LegacyID)
	if err != nil {
		t.Fatalf("legacy row missing: %v", err)
	}
	if row.LastName != "Nová" || row.FirstName != "Jana" {
		t.Fatalf("legacy row has wrong names: %+v", row)
	}

	mirrored, err := primary.GetByLegacyID(context.Background(), *created.LegacyID)
	if err != nil {
		t.Fatalf("primary row not linked to legacy id: %v", err)
	}
	if mirrored.ID != created.ID {
		t.Fatalf("linked row id %v does not match created id %v", mirrored.ID, created.ID)
	}

	if created.ConsentAt == nil {
		t.Fatal("expected consent timestamp when consent granted")
	}
	if created.AssignedDoctor != "dr-default" {
		t.Fatalf("expected site default doctor, got %q", created.AssignedDoctor)
	}

	if len(producer.byType(EventPatientCreated)) != 1 {
		t.Fatal("expected one patient.created event")
	}
}

func TestCreateResolvableByEitherKey(t *testing.T) {
	legacy := newFakeLegacyStore()
	primary := newFakePrimaryStore()
	coordinator := NewCoordinator(legacy, primary, testSite(), nil)
	resolver := NewResolver(primary, legacy, nil, nil)

	created, err := coordinator.Create(context.Background(), testActor(), validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	byUUID, err := resolver.Resolve(context.Background(), PrimaryIdentifier(created.ID))
	if err != nil {
		t.Fatalf("resolve by UUID failed: %v", err)
	}
	byLegacy, err := resolver.Resolve(context.Background(), LegacyIdentifier(*created.LegacyID))
	if err != nil {
		t.Fatalf("resolve by legacy id failed: %v", err)
	}
	if byUUID.ID != created.ID || byLegacy.ID != created.ID {
		t.Fatal("both key spaces must resolve to the same patient")
	}
}

func TestCreateLegacyFailureAbortsClean(t *testing.T) {
	legacy := newFakeLegacyStore()
	legacy.insertErr = errors.New("legacy db down")
	primary := newFakePrimaryStore()
	coordinator := NewCoordinator(legacy, primary, testSite(), nil)

	_, err := coordinator.Create(context.Background(), testActor(), validInput())

	var upstream *UpstreamWriteError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamWriteError, got %v", err)
	}
	if primary.count() != 0 {
		t.Fatal("primary store must stay untouched when the legacy write fails")
	}
	if legacy.deletes != 0 {
		t.Fatal("nothing to compensate when the legacy write fails")
	}
}

func TestCreatePrimaryFailureCompensates(t *testing.T) {
	legacy := newFakeLegacyStore()
	primary := newFakePrimaryStore()
	primary.insertErr = errors.New("primary db down")
	coordinator := NewCoordinator(legacy, primary, testSite(), nil)

	_, err := coordinator.Create(context.Background(), testActor(), validInput())

	var dual *DualWriteError
	if !errors.As(err, &dual) {
		t.Fatalf("expected DualWriteError, got %v", err)
	}
	if !dual.CompensationSucceeded {
		t.Fatal("expected successful compensation")
	}
	if legacy.count() != 0 {
		t.Fatal("legacy row must be deleted after compensation")
	}

	// The compensated legacy id must no longer resolve.
	resolver := NewResolver(primary, legacy, nil, nil)
	_, err = resolver.Resolve(context.Background(), LegacyIdentifier(dual.LegacyID))
	if !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("expected not found after compensation, got %v", err)
	}
}

func TestCreateCompensationFailureLeavesOrphan(t *testing.T) {
	legacy := newFakeLegacyStore()
	legacy.deleteErr = errors.New("legacy db gone away")
	primary := newFakePrimaryStore()
	primary.insertErr = errors.New("primary db down")
	coordinator := NewCoordinator(legacy, primary, testSite(), nil)

	_, err := coordinator.Create(context.Background(), testActor(), validInput())

	var dual *DualWriteError
	if !errors.As(err, &dual) {
		t.Fatalf("expected DualWriteError, got %v", err)
	}
	if dual.CompensationSucceeded {
		t.Fatal("compensation must be reported as failed")
	}
	if legacy.count() != 1 {
		t.Fatal("orphaned legacy row should remain for manual reconciliation")
	}
	if primary.count() != 0 {
		t.Fatal("no primary row may exist without its legacy counterpart")
	}
}

func TestCreateKeepsExplicitDoctor(t *testing.T) {
	legacy := newFakeLegacyStore()
	primary := newFakePrimaryStore()
	coordinator := NewCoordinator(legacy, primary, testSite(), nil)

	input := validInput()
	input.AssignedDoctor = "dr-horak"

	created, err := coordinator.Create(context.Background(), testActor(), input)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.AssignedDoctor != "dr-horak" {
		t.Fatalf("explicit doctor must win over site default, got %q", created.AssignedDoctor)
	}
	if created.ConsentAt != nil {
		t.Fatal("no consent timestamp without consent flag")
	}
}
