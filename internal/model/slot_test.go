package model

import (
    "testing"
    "time"
)

func TestStartsAtUsesLocation(t *testing.T) {
    s := Slot{ID: 1, Date: "2026-11-20", StartTime: "09:30"}

    east := time.FixedZone("UTC+3", 3*3600)
    got, err := s.StartsAt(east)
    if err != nil {
        t.Fatalf("StartsAt: %v", err)
    }
    want := time.Date(2026, 11, 20, 9, 30, 0, 0, east)
    if !got.Equal(want) {
        t.Errorf("StartsAt = %v, want %v", got, want)
    }
    // same wall clock, different zone, different instant
    utc, err := s.StartsAt(time.UTC)
    if err != nil {
        t.Fatalf("StartsAt(UTC): %v", err)
    }
    if got.Equal(utc) {
        t.Errorf("expected different instants for different zones, both %v", got)
    }
}

func TestStartsAtRejectsBadValues(t *testing.T) {
    s := Slot{ID: 1, Date: "20.11.2026", StartTime: "09:30"}
    if _, err := s.StartsAt(time.UTC); err == nil {
        t.Errorf("expected error for malformed date")
    }
}

func TestIsPastDependsOnZone(t *testing.T) {
    s := Slot{ID: 1, Date: "2026-11-20", StartTime: "03:00"}
    now := time.Date(2026, 11, 20, 1, 0, 0, 0, time.UTC)

    past, err := s.IsPast(now, time.FixedZone("UTC+3", 3*3600))
    if err != nil {
        t.Fatalf("IsPast: %v", err)
    }
    if !past {
        t.Errorf("04:00 local is past a 03:00 start")
    }

    past, err = s.IsPast(now, time.FixedZone("UTC-8", -8*3600))
    if err != nil {
        t.Fatalf("IsPast: %v", err)
    }
    if past {
        t.Errorf("the slot is still a day away in UTC-8")
    }
}

func TestBookable(t *testing.T) {
    cases := []struct {
        published, archived, want bool
    }{
        {true, false, true},
        {false, false, false},
        {true, true, false},
        {false, true, false},
    }
    for _, tc := range cases {
        s := Slot{Published: tc.published, Archived: tc.archived}
        if got := s.Bookable(); got != tc.want {
            t.Errorf("Bookable(published=%v archived=%v) = %v, want %v", tc.published, tc.archived, got, tc.want)
        }
    }
}
