// Package tapclient drives the public side of a tap: it picks up an
// optional location fix, records the tap, looks up the tag's redirect
// URL and navigates to it.
package tapclient

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/nfc-tracker/internal/model"
)

// State is a step of a tap run.
type State int

const (
	StateInit State = iota
	StateAcquiringLocation
	StateRecordingTap
	StateResolvingURL
	StateRedirecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateAcquiringLocation:
		return "acquiring_location"
	case StateRecordingTap:
		return "recording_tap"
	case StateResolvingURL:
		return "resolving_url"
	case StateRedirecting:
		return "redirecting"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Result is the outcome of Run. On success State is StateRedirecting and
// Target is where the navigator was sent. On failure State is
// StateFailed, FailedAt is the step that failed and Err explains why;
// Err's message is what the user is shown.
type Result struct {
	State    State
	FailedAt State
	Target   string
	Location *model.Location
	Err      error
	Path     []State
}

// Orchestrator runs taps. API and Navigator are required; a nil Locator
// behaves like a device without geolocation and a nil Diagnostics sends
// nothing.
type Orchestrator struct {
	API             *Client
	Locator         Locator
	Navigator       Navigator
	Env             model.ClientEnv
	Diagnostics     *Diagnostics
	LocationTimeout time.Duration
	Log             *zap.Logger
}

// Run executes one tap for tagID. Location problems are soft; any other
// failure stops the run without retrying.
func (o *Orchestrator) Run(ctx context.Context, tagID string) Result {
	log := o.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("tag_id", tagID))

	r := Result{State: StateInit, Path: []State{StateInit}}
	enter := func(s State) {
		r.State = s
		r.Path = append(r.Path, s)
		log.Debug("tap state", zap.Stringer("state", s))
	}
	fail := func(err error) Result {
		r.FailedAt = r.State
		r.Err = err
		enter(StateFailed)
		log.Warn("tap failed", zap.Stringer("at", r.FailedAt), zap.Error(err))
		o.Diagnostics.Send("ERROR", "tap failed at "+r.FailedAt.String()+": "+err.Error(), nil)
		return r
	}

	o.Diagnostics.Send("INFO", "tap started for tag "+tagID, nil)
	if tagID == "" {
		return fail(ErrMissingTagID)
	}

	enter(StateAcquiringLocation)
	var locationData *string
	loc, err := locateWithin(ctx, o.Locator, o.LocationTimeout)
	switch {
	case err == nil:
		r.Location = &loc
		if b, mErr := json.Marshal(loc); mErr == nil {
			s := string(b)
			locationData = &s
		}
		o.Diagnostics.Send("INFO", "location acquired", loc)
	case errors.Is(err, ErrUnsupported):
		o.Diagnostics.Send("WARN", "geolocation not supported", nil)
	default:
		// denied, timed out or broken: carry on without a location
		o.Diagnostics.Send("WARN", "geolocation unavailable: "+err.Error(), nil)
	}

	enter(StateRecordingTap)
	var clientInfo *string
	if b, mErr := json.Marshal(o.Env); mErr == nil {
		s := string(b)
		clientInfo = &s
	}
	o.Diagnostics.Send("INFO", "client info", o.Env)
	if err := o.API.RecordTap(ctx, TapRequest{TagID: tagID, LocationData: locationData, ClientInfo: clientInfo}); err != nil {
		return fail(err)
	}

	enter(StateResolvingURL)
	target, err := o.API.TagInfo(ctx, tagID)
	if err != nil {
		return fail(err)
	}
	if !navigable(target) {
		return fail(ErrUnsafeRedirect)
	}

	enter(StateRedirecting)
	o.Diagnostics.Send("INFO", "redirecting to "+target, nil)
	if err := o.Navigator.Replace(target); err != nil {
		return fail(err)
	}
	r.Target = target
	return r
}
