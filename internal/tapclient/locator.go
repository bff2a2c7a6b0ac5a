package tapclient

import (
	"context"
	"time"

	"github.com/iliyamo/nfc-tracker/internal/model"
)

// DefaultLocationTimeout is how long a run waits for a position fix.
const DefaultLocationTimeout = 5 * time.Second

// Locator produces a position fix. Implementations should honour ctx, but
// a run never waits past its location timeout either way.
type Locator interface {
	Locate(ctx context.Context, highAccuracy bool) (model.Location, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context, highAccuracy bool) (model.Location, error)

func (f LocatorFunc) Locate(ctx context.Context, highAccuracy bool) (model.Location, error) {
	return f(ctx, highAccuracy)
}

// StaticLocator always reports the same position, stamped with the
// current time when Timestamp is zero.
type StaticLocator struct {
	Location model.Location
}

func (s StaticLocator) Locate(context.Context, bool) (model.Location, error) {
	loc := s.Location
	if loc.Timestamp == 0 {
		loc.Timestamp = time.Now().UnixMilli()
	}
	return loc, nil
}

// DeniedLocator behaves like a device whose user refused location access.
type DeniedLocator struct{}

func (DeniedLocator) Locate(context.Context, bool) (model.Location, error) {
	return model.Location{}, ErrPermissionDenied
}

// locateWithin races loc against timeout and returns whichever settles
// first. A late fix is discarded.
func locateWithin(ctx context.Context, loc Locator, timeout time.Duration) (model.Location, error) {
	if loc == nil {
		return model.Location{}, ErrUnsupported
	}
	if timeout <= 0 {
		timeout = DefaultLocationTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type fix struct {
		loc model.Location
		err error
	}
	done := make(chan fix, 1)
	go func() {
		l, err := loc.Locate(ctx, true)
		done <- fix{l, err}
	}()

	select {
	case f := <-done:
		return f.loc, f.err
	case <-ctx.Done():
		return model.Location{}, ErrLocationTimeout
	}
}
