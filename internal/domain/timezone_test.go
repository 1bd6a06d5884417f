package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mockResolver struct {
	tz    string
	err   error
	calls int
}

func (m *mockResolver) ResolveTimezone(_ context.Context, _, _ float64) (string, error) {
	m.calls++
	return m.tz, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveTimezone_Success(t *testing.T) {
	r := &mockResolver{tz: "America/Chicago"}
	loc := Coordinates{ID: 7, Latitude: 30.27, Longitude: -97.74}

	tz, ok := ResolveTimezone(context.Background(), loc, r, DefaultTimezone, discardLogger())

	assert.True(t, ok)
	assert.Equal(t, "America/Chicago", tz)
	assert.Equal(t, 1, r.calls)
}

func TestResolveTimezone_ErrorFallsBack(t *testing.T) {
	r := &mockResolver{err: errors.New("connection refused")}

	tz, ok := ResolveTimezone(context.Background(), Coordinates{ID: 1}, r, DefaultTimezone, discardLogger())

	assert.False(t, ok)
	assert.Equal(t, DefaultTimezone, tz)
}

func TestResolveTimezone_EmptyFallsBack(t *testing.T) {
	r := &mockResolver{}

	tz, ok := ResolveTimezone(context.Background(), Coordinates{ID: 1}, r, "UTC", discardLogger())

	assert.False(t, ok)
	assert.Equal(t, "UTC", tz)
}

func TestResolveTimezone_NilResolver(t *testing.T) {
	tz, ok := ResolveTimezone(context.Background(), Coordinates{ID: 1}, nil, DefaultTimezone, discardLogger())

	assert.False(t, ok)
	assert.Equal(t, DefaultTimezone, tz)
}
