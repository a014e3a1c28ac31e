package service_test

import (
    "context"
    "errors"
    "testing"

    "github.com/iliyamo/slot-reservation/internal/model"
    "github.com/iliyamo/slot-reservation/internal/repository/memory"
    "github.com/iliyamo/slot-reservation/internal/service"
)

// seedBooking creates a published slot and a registration that already
// holds partySize of its seats, mirroring the state after a booking.
func seedBooking(store *memory.Store, capacity, partySize int) (*model.Slot, *model.Registration) {
    slot := store.PutSlot(model.Slot{
        Date: "2026-10-01", StartTime: "10:00", EndTime: "11:00",
        Capacity: capacity, Remaining: capacity - partySize, Published: true,
    })
    reg := store.PutRegistration(model.Registration{
        SlotID:    &slot.ID,
        Contact:   model.Contact{Name: "Kim", Email: "kim@example.com"},
        PartySize: partySize,
    })
    return slot, reg
}

func remaining(t *testing.T, store *memory.Store, slotID uint64) int {
    t.Helper()
    slot, err := store.GetSlot(context.Background(), slotID)
    if err != nil {
        t.Fatalf("GetSlot: %v", err)
    }
    return slot.Remaining
}

func TestCheckInReleasesUnusedSeats(t *testing.T) {
    store := memory.NewStore()
    slot, reg := seedBooking(store, 10, 4)
    rec := service.NewReconciler(store, &recordingAudit{}, true)

    got, err := rec.ConfirmCheckIn(context.Background(), reg.ID, 3)
    if err != nil {
        t.Fatalf("ConfirmCheckIn: %v", err)
    }
    if !got.CheckedIn {
        t.Errorf("CheckedIn = false, want true")
    }
    if got.CheckInCount == nil || *got.CheckInCount != 3 {
        t.Errorf("CheckInCount = %v, want 3", got.CheckInCount)
    }
    // one of four seats released
    if r := remaining(t, store, slot.ID); r != 7 {
        t.Errorf("Remaining = %d, want 7", r)
    }
}

func TestCheckInIdempotent(t *testing.T) {
    store := memory.NewStore()
    slot, reg := seedBooking(store, 10, 4)
    audit := &recordingAudit{}
    rec := service.NewReconciler(store, audit, true)

    if _, err := rec.ConfirmCheckIn(context.Background(), reg.ID, 4); err != nil {
        t.Fatalf("first ConfirmCheckIn: %v", err)
    }
    before := remaining(t, store, slot.ID)
    got, err := rec.ConfirmCheckIn(context.Background(), reg.ID, 4)
    if err != nil {
        t.Fatalf("repeated ConfirmCheckIn: %v", err)
    }
    if got.CheckInCount == nil || *got.CheckInCount != 4 {
        t.Errorf("CheckInCount = %v, want 4", got.CheckInCount)
    }
    if after := remaining(t, store, slot.ID); after != before {
        t.Errorf("Remaining changed on identical repeat: %d -> %d", before, after)
    }
    if n := audit.count("registration.checked_in"); n != 1 {
        t.Errorf("audit checked_in records = %d, want 1 (repeat is a no-op)", n)
    }
}

// TestCheckInCorrectionReleasesSeats covers the full-party check-in
// followed by a correction down to two attendees: the correction must
// release the difference back to the slot.
func TestCheckInCorrectionReleasesSeats(t *testing.T) {
    store := memory.NewStore()
    slot, reg := seedBooking(store, 10, 4)
    audit := &recordingAudit{}
    rec := service.NewReconciler(store, audit, true)

    if _, err := rec.ConfirmCheckIn(context.Background(), reg.ID, 4); err != nil {
        t.Fatalf("check-in of full party: %v", err)
    }
    if r := remaining(t, store, slot.ID); r != 6 {
        t.Fatalf("Remaining after full check-in = %d, want 6", r)
    }

    got, err := rec.ConfirmCheckIn(context.Background(), reg.ID, 2)
    if err != nil {
        t.Fatalf("correction: %v", err)
    }
    if got.CheckInCount == nil || *got.CheckInCount != 2 {
        t.Errorf("CheckInCount = %v, want 2", got.CheckInCount)
    }
    if r := remaining(t, store, slot.ID); r != 8 {
        t.Errorf("Remaining after correction = %d, want 8 (two seats released)", r)
    }
    if n := audit.count("registration.checkin_corrected"); n != 1 {
        t.Errorf("audit checkin_corrected records = %d, want 1", n)
    }
}

// TestCheckInCorrectionReclaimConflict verifies that a correction
// needing seats that were already resold is rejected, not clamped.
func TestCheckInCorrectionReclaimConflict(t *testing.T) {
    store := memory.NewStore()
    slot, reg := seedBooking(store, 4, 4)
    rec := service.NewReconciler(store, &recordingAudit{}, true)

    // 1 of 4 attended, releasing 3 seats.
    if _, err := rec.ConfirmCheckIn(context.Background(), reg.ID, 1); err != nil {
        t.Fatalf("first check-in: %v", err)
    }
    if r := remaining(t, store, slot.ID); r != 3 {
        t.Fatalf("Remaining = %d, want 3", r)
    }

    // Another booking consumes the released seats.
    alloc := service.NewAllocator(store, &fakeNotifier{}, &recordingAudit{}, 8)
    if _, err := alloc.Reserve(context.Background(), slot.ID, model.Contact{Name: "late"}, 3); err != nil {
        t.Fatalf("follow-up booking: %v", err)
    }

    // Correcting up to 4 would need 3 seats back; they are gone.
    if _, err := rec.ConfirmCheckIn(context.Background(), reg.ID, 4); !errors.Is(err, service.ErrCapacityConflict) {
        t.Errorf("correction = %v, want ErrCapacityConflict", err)
    }
    if r := remaining(t, store, slot.ID); r != 0 {
        t.Errorf("Remaining = %d, want 0 (no partial adjustment)", r)
    }
}

func TestCheckInFinalWhenCorrectionsDisabled(t *testing.T) {
    store := memory.NewStore()
    slot, reg := seedBooking(store, 10, 4)
    rec := service.NewReconciler(store, &recordingAudit{}, false)

    if _, err := rec.ConfirmCheckIn(context.Background(), reg.ID, 4); err != nil {
        t.Fatalf("first check-in: %v", err)
    }
    // identical repeat stays fine
    if _, err := rec.ConfirmCheckIn(context.Background(), reg.ID, 4); err != nil {
        t.Errorf("identical repeat = %v, want nil", err)
    }
    // differing repeat is rejected
    if _, err := rec.ConfirmCheckIn(context.Background(), reg.ID, 2); !errors.Is(err, service.ErrCheckInFinal) {
        t.Errorf("differing repeat = %v, want ErrCheckInFinal", err)
    }
    if r := remaining(t, store, slot.ID); r != 6 {
        t.Errorf("Remaining = %d, want 6 (rejected correction left no trace)", r)
    }
}

func TestCheckInCountBounds(t *testing.T) {
    store := memory.NewStore()
    _, reg := seedBooking(store, 10, 4)
    rec := service.NewReconciler(store, &recordingAudit{}, true)

    for _, count := range []int{0, -2} {
        if _, err := rec.ConfirmCheckIn(context.Background(), reg.ID, count); !errors.Is(err, service.ErrInvalidCheckInCount) {
            t.Errorf("ConfirmCheckIn(count=%d) = %v, want ErrInvalidCheckInCount", count, err)
        }
    }
    if _, err := rec.ConfirmCheckIn(context.Background(), reg.ID, 5); !errors.Is(err, service.ErrInvalidCheckInCount) {
        t.Errorf("ConfirmCheckIn above party size = %v, want ErrInvalidCheckInCount", err)
    }
}

func TestCheckInMissingRegistration(t *testing.T) {
    store := memory.NewStore()
    rec := service.NewReconciler(store, &recordingAudit{}, true)

    if _, err := rec.ConfirmCheckIn(context.Background(), 99, 1); !errors.Is(err, service.ErrRegistrationNotFound) {
        t.Errorf("ConfirmCheckIn = %v, want ErrRegistrationNotFound", err)
    }
}
