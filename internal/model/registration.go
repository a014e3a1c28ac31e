package model

import "time"

// Contact holds the attendee details captured at booking time.  The
// engine never interprets these values; they are passed through to the
// notifier and stored for later check-in.
type Contact struct {
    Name  string `json:"name"`
    Email string `json:"email"`
    Phone string `json:"phone"`
}

// Registration records a confirmed booking of PartySize seats on a
// slot.  It is created inside the same transaction that decrements the
// slot's remaining counter and is never deleted; the slot reference is
// nullable so the row survives slot removal for audit continuity.
//
// Fields:
//  ID           – primary key identifier.
//  SlotID       – booked slot (nullable back-reference).
//  Contact      – attendee contact details.
//  PartySize    – seats reserved at booking time, immutable.
//  CheckedIn    – monotonic false→true, never reverted.
//  CheckInCount – attendees actually present; set when CheckedIn flips,
//                 1 <= CheckInCount <= PartySize.
//  CheckInToken – random hex token for scannable check-in, generated
//                 after the booking transaction commits.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Registration struct {
    ID           uint64    // registrations.id
    SlotID       *uint64   // registrations.slot_id (nullable)
    Contact      Contact   // registrations.name / email / phone
    PartySize    int       // registrations.party_size
    CheckedIn    bool      // registrations.checked_in
    CheckInCount *int      // registrations.check_in_count (nullable)
    CheckInToken string    // registrations.check_in_token
    CreatedAt    time.Time // registrations.created_at
    UpdatedAt    time.Time // registrations.updated_at
}
