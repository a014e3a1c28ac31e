package service

import (
    "context"
    "time"
)

// TimezoneProvider yields the organization's timezone.  Slot dates are
// calendar-local concepts: whether a slot "is in the past" depends on
// this zone, never on the server's local zone.
type TimezoneProvider interface {
    CurrentTimezone(ctx context.Context) (*time.Location, error)
}

// FixedTimezone is a TimezoneProvider backed by a single location,
// typically loaded from configuration at startup.
type FixedTimezone struct {
    Loc *time.Location
}

// CurrentTimezone implements TimezoneProvider.
func (f FixedTimezone) CurrentTimezone(ctx context.Context) (*time.Location, error) {
    return f.Loc, nil
}
