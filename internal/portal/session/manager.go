package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"schoolkr/internal/components/assert"
	"schoolkr/internal/components/chrono"
	"schoolkr/internal/components/telemetry"
	"schoolkr/internal/region"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("schoolkr/portal/session")

const (
	report_manager_renew    = "manager.renew"
	report_manager_renewals = "manager.renewals"
)

const DefaultTTL = 30 * time.Minute

// Bootstrapper requests the landing page of a region's portal, the response headers are
// expected to set a fresh session cookie.
type Bootstrapper interface {
	Bootstrap(ctx context.Context, id region.ID) (http.Header, error)
}

// Manager owns the current session. Renewals of the same region are coalesced, so callers
// that observe an invalid session at the same time all wait on a single bootstrap request.
type Manager struct {
	bootstrapper Bootstrapper
	time         chrono.API
	tel          telemetry.API
	ttl          time.Duration

	mu      sync.Mutex
	current Session
	region  region.ID

	renewals singleflight.Group
	renewed  atomic.Int64
}

// NewManager creates a manager with `initial` as its active region, a ttl <= 0 uses DefaultTTL.
func NewManager(
	initial region.ID,
	bootstrapper Bootstrapper,
	ttl time.Duration,
	time chrono.API,
	tel telemetry.API,
) *Manager {
	assert.NotNil(bootstrapper)
	assert.NotNil(time)
	assert.NotNil(tel)
	if !initial.Valid() {
		panic(fmt.Sprintf("invalid initial region %d", int(initial)))
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Manager{
		bootstrapper: bootstrapper,
		time:         time,
		tel:          telemetry.NewScopedAPI("session", tel),
		ttl:          ttl,
		region:       initial,
	}
}

// SetRegion changes the active region, the session of the previous region is dropped since
// its token is not accepted by any other host.
func (m *Manager) SetRegion(id region.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.region == id {
		return
	}
	m.region = id
	m.current = Session{}
}

// Region returns the active region.
func (m *Manager) Region() region.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.region
}

// Current returns the stored session, which may already be expired.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Renewals returns the number of successful renewals so far.
func (m *Manager) Renewals() int64 {
	return m.renewed.Load()
}

func (m *Manager) cached(id region.ID) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.Valid(m.time.Now(), id) {
		return m.current, true
	}
	return Session{}, false
}

// Ensure returns a session valid for id, renewing it if the stored one is absent, expired or
// bound to another region.
//
// If ctx ends while waiting on a renewal, Ensure returns ctx.Err() but the renewal itself
// runs to completion and is stored for the next caller.
func (m *Manager) Ensure(ctx context.Context, id region.ID) (Session, error) {
	if s, ok := m.cached(id); ok {
		return s, nil
	}
	return m.await(ctx, id, true)
}

// Renew unconditionally replaces the session of id with a fresh one. Concurrent Renew calls for
// the same region share one bootstrap request, they never share an Ensure's.
func (m *Manager) Renew(ctx context.Context, id region.ID) (Session, error) {
	return m.await(ctx, id, false)
}

func (m *Manager) await(ctx context.Context, id region.ID, reuse bool) (Session, error) {
	// a renewal outlives the caller that started it, the other callers waiting on it must not
	// observe a cancellation that wasn't theirs.
	renewCtx := context.WithoutCancel(ctx)

	// a forced renewal must not join a flight that may hand back the cached session
	key := "ensure:" + id.String()
	if !reuse {
		key = "renew:" + id.String()
	}
	ch := m.renewals.DoChan(key, func() (any, error) {
		// another flight may have completed between the cache check and joining this one
		if s, ok := m.cached(id); reuse && ok {
			return s, nil
		}
		return m.renew(renewCtx, id)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Session{}, res.Err
		}
		return res.Val.(Session), nil
	case <-ctx.Done():
		return Session{}, ctx.Err()
	}
}

func (m *Manager) renew(ctx context.Context, id region.ID) (Session, error) {
	ctx, span := tracer.Start(ctx, "manager:Renew")
	defer span.End()
	span.SetAttributes(attribute.String("region", id.String()))

	m.tel.ReportDebug(report_manager_renew, id.String())

	header, err := m.bootstrapper.Bootstrap(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bootstrap request failed")
		m.tel.ReportBroken(
			report_manager_renew,
			fmt.Errorf("bootstrap: %w", err),
			id.String(),
		)
		return Session{}, err
	}

	token, err := extractToken(id, header)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no session cookie")
		m.tel.ReportBroken(report_manager_renew, err, id.String())
		return Session{}, err
	}

	s := Session{
		Token:     token,
		ExpiresAt: m.time.Now().Add(m.ttl),
		Region:    id,
	}

	m.mu.Lock()
	// a renewal for a region that stopped being active is handed to its callers but not kept
	if m.region == id {
		m.current = s
	}
	m.mu.Unlock()

	m.tel.ReportCount(report_manager_renewals, m.renewed.Add(1))
	return s, nil
}

// IsAcquisitionError reports whether err was caused by a bootstrap response without a usable
// session cookie.
func IsAcquisitionError(err error) bool {
	var acqErr *AcquisitionError
	return errors.As(err, &acqErr)
}
