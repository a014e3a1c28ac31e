package model

import (
    "fmt"
    "time"
)

// Auto-publish descriptor modes.  A slot carries at most one active
// descriptor; once the scheduler consumes it the AutoPublished flag is
// set and the descriptor is never evaluated again.
const (
    PublishModeNone        = ""             // no auto-publish configured
    PublishModeAt          = "at"           // publish at a fixed UTC instant
    PublishModeHoursBefore = "hours_before" // publish N hours before the slot starts
)

// Layouts used for the zone-less calendar date and local time-of-day
// strings stored on a slot.  Dates and times never carry a zone; they
// are interpreted in the organization's configured timezone when a
// concrete instant is needed.
const (
    DateLayout = "2006-01-02"
    TimeLayout = "15:04"
)

// Slot represents a bookable time window with a finite number of seats.
// Capacity is the immutable intent of the slot; Remaining is the hot
// counter that the allocator decrements and the check-in reconciler
// restores.  0 <= Remaining <= Capacity holds after every committed
// transaction.
//
// Fields:
//  ID                 – primary key identifier.
//  Date               – calendar day ("2006-01-02"), no time component.
//  StartTime          – local time-of-day the window opens ("15:04").
//  EndTime            – local time-of-day the window closes ("15:04").
//  Capacity           – total seats, positive, immutable after creation.
//  Remaining          – seats still available.
//  Published          – visible and bookable.
//  Archived           – retired; never true together with Published.
//  PublishMode        – auto-publish descriptor mode (see constants).
//  PublishAt          – UTC instant for PublishModeAt (nil otherwise).
//  PublishHoursBefore – lead hours for PublishModeHoursBefore (nil otherwise).
//  AutoPublished      – descriptor consumed; never re-evaluated.
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type Slot struct {
    ID                 uint64     // slots.id
    Date               string     // slots.slot_date
    StartTime          string     // slots.start_time
    EndTime            string     // slots.end_time
    Capacity           int        // slots.capacity
    Remaining          int        // slots.remaining
    Published          bool       // slots.published
    Archived           bool       // slots.archived
    PublishMode        string     // slots.publish_mode
    PublishAt          *time.Time // slots.publish_at (nullable, UTC)
    PublishHoursBefore *int       // slots.publish_hours_before (nullable)
    AutoPublished      bool       // slots.auto_published
    CreatedAt          time.Time  // slots.created_at
    UpdatedAt          time.Time  // slots.updated_at
}

// StartsAt combines the slot's calendar date and start time-of-day in
// the given location and returns the resulting instant.  The location
// must be the organization's timezone: the same wall-clock values name
// different instants in different zones.
func (s *Slot) StartsAt(loc *time.Location) (time.Time, error) {
    t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, s.Date+" "+s.StartTime, loc)
    if err != nil {
        return time.Time{}, fmt.Errorf("slot %d: parse start %q %q: %w", s.ID, s.Date, s.StartTime, err)
    }
    return t, nil
}

// IsPast reports whether the slot's window has already begun relative
// to now, evaluated in the given location.  A slot is past when its
// calendar day precedes today in that zone, or when it falls on today
// but its start time-of-day has elapsed.
func (s *Slot) IsPast(now time.Time, loc *time.Location) (bool, error) {
    starts, err := s.StartsAt(loc)
    if err != nil {
        return false, err
    }
    // Comparing the start instant covers both cases: an earlier calendar
    // day always yields an earlier instant in the same zone, and a slot on
    // today's date is past once its start time has elapsed.
    return !starts.After(now.In(loc)), nil
}

// Bookable reports whether the allocator may reserve seats on this
// slot.  It ignores Remaining; availability is decided by the atomic
// conditional decrement, not by this read.
func (s *Slot) Bookable() bool {
    return s.Published && !s.Archived
}
