package domain

import (
	"context"
	"log/slog"
)

// DefaultTimezone is stored when a lookup fails.
const DefaultTimezone = "America/Los_Angeles"

// TimezoneResolver maps coordinates to an IANA timezone identifier.
type TimezoneResolver interface {
	ResolveTimezone(ctx context.Context, lat, lon float64) (string, error)
}

// ResolveTimezone looks up the timezone for a stored institution. On any
// failure it logs and returns fallback so a batch can continue. The bool
// reports whether the lookup succeeded.
func ResolveTimezone(ctx context.Context, loc Coordinates, resolver TimezoneResolver, fallback string, logger *slog.Logger) (string, bool) {
	if resolver == nil {
		return fallback, false
	}

	tz, err := resolver.ResolveTimezone(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		logger.Error("timezone lookup failed",
			"id", loc.ID,
			"lat", loc.Latitude,
			"lon", loc.Longitude,
			"error", err,
		)
		return fallback, false
	}
	if tz == "" {
		logger.Error("timezone lookup returned no timezone",
			"id", loc.ID,
			"lat", loc.Latitude,
			"lon", loc.Longitude,
		)
		return fallback, false
	}
	return tz, true
}
