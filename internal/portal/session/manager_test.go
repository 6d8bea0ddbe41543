package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"schoolkr/internal/components/chrono"
	"schoolkr/internal/components/telemetry"
	"schoolkr/internal/region"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

type bootstrapFunc func(ctx context.Context, id region.ID, n int64) (http.Header, error)

type fakeBootstrapper struct {
	calls   atomic.Int64
	mu      sync.Mutex
	regions []region.ID
	handle  bootstrapFunc
}

func (f *fakeBootstrapper) Bootstrap(ctx context.Context, id region.ID) (http.Header, error) {
	n := f.calls.Add(1)
	f.mu.Lock()
	f.regions = append(f.regions, id)
	f.mu.Unlock()
	return f.handle(ctx, id, n)
}

func cookieHeader(token string) http.Header {
	header := http.Header{}
	header.Add("Set-Cookie", fmt.Sprintf("JSESSIONID=%s; Path=/; HttpOnly", token))
	return header
}

// numbered hands out tok1, tok2, ... in call order.
func numbered(ctx context.Context, id region.ID, n int64) (http.Header, error) {
	return cookieHeader(fmt.Sprintf("tok%d", n)), nil
}

func newTestManager(t testing.TB, handle bootstrapFunc) (*Manager, *fakeBootstrapper, *clockwork.FakeClock, *telemetry.Recorder) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.March, 4, 8, 0, 0, 0, chrono.KST()))
	boot := &fakeBootstrapper{handle: handle}
	rec := &telemetry.Recorder{}
	return NewManager(region.Seoul, boot, 0, clock, rec), boot, clock, rec
}

func TestEnsureReusesSessionWithinTTL(t *testing.T) {
	m, boot, clock, _ := newTestManager(t, numbered)
	ctx := context.Background()

	first, err := m.Ensure(ctx, region.Seoul)
	require.NoError(t, err)
	require.Equal(t, "tok1", first.Token)
	require.Equal(t, clock.Now().Add(DefaultTTL), first.ExpiresAt)

	for i := 0; i < 10; i++ {
		clock.Advance(2 * time.Minute)
		s, err := m.Ensure(ctx, region.Seoul)
		require.NoError(t, err)
		require.Equal(t, first, s)
	}
	require.Equal(t, int64(1), boot.calls.Load())
}

func TestEnsureRenewsAfterTTL(t *testing.T) {
	m, boot, clock, rec := newTestManager(t, numbered)
	ctx := context.Background()

	_, err := m.Ensure(ctx, region.Seoul)
	require.NoError(t, err)

	clock.Advance(DefaultTTL)

	s, err := m.Ensure(ctx, region.Seoul)
	require.NoError(t, err)
	require.Equal(t, "tok2", s.Token)
	require.True(t, s.Valid(clock.Now(), region.Seoul))
	require.Equal(t, int64(2), boot.calls.Load())
	require.Equal(t, int64(2), m.Renewals())

	n, ok := rec.LastCount("session: " + report_manager_renewals)
	require.True(t, ok)
	require.Equal(t, int64(2), n)
}

func TestEnsureCoalescesConcurrentRenewals(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	m, boot, _, _ := newTestManager(t, func(ctx context.Context, id region.ID, n int64) (http.Header, error) {
		once.Do(func() { close(entered) })
		<-release
		return cookieHeader(fmt.Sprintf("tok%d", n)), nil
	})

	const callers = 32
	results := make([]Session, callers)
	errs := make([]error, callers)
	wg := sync.WaitGroup{}
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.Ensure(context.Background(), region.Seoul)
		}(i)
	}

	<-entered
	close(release)
	wg.Wait()

	require.Equal(t, int64(1), boot.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "tok1", results[i].Token)
	}
}

func TestSetRegionInvalidatesSession(t *testing.T) {
	m, boot, _, _ := newTestManager(t, numbered)
	ctx := context.Background()

	seoul, err := m.Ensure(ctx, region.Seoul)
	require.NoError(t, err)

	m.SetRegion(region.Busan)
	require.Equal(t, region.Busan, m.Region())
	require.Equal(t, Session{}, m.Current())

	busan, err := m.Ensure(ctx, region.Busan)
	require.NoError(t, err)
	require.NotEqual(t, seoul.Token, busan.Token)
	require.Equal(t, region.Busan, busan.Region)

	// switching back never revives the first region's token
	m.SetRegion(region.Seoul)
	again, err := m.Ensure(ctx, region.Seoul)
	require.NoError(t, err)
	require.Equal(t, "tok3", again.Token)

	require.Equal(t, []region.ID{region.Seoul, region.Busan, region.Seoul}, boot.regions)
}

func TestSetRegionSameRegionKeepsSession(t *testing.T) {
	m, boot, _, _ := newTestManager(t, numbered)

	_, err := m.Ensure(context.Background(), region.Seoul)
	require.NoError(t, err)
	m.SetRegion(region.Seoul)
	_, err = m.Ensure(context.Background(), region.Seoul)
	require.NoError(t, err)

	require.Equal(t, int64(1), boot.calls.Load())
}

func TestRenewalForInactiveRegionIsNotStored(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	m, _, clock, _ := newTestManager(t, func(ctx context.Context, id region.ID, n int64) (http.Header, error) {
		close(entered)
		<-release
		return cookieHeader("seoul-token"), nil
	})

	done := make(chan Session)
	failed := make(chan error, 1)
	go func() {
		s, err := m.Ensure(context.Background(), region.Seoul)
		if err != nil {
			failed <- err
		}
		done <- s
	}()

	<-entered
	m.SetRegion(region.Incheon)
	close(release)

	s := <-done
	require.Empty(t, failed)
	require.True(t, s.Valid(clock.Now(), region.Seoul))
	require.Equal(t, Session{}, m.Current())
}

func TestAcquisitionFailureKeepsPriorSession(t *testing.T) {
	var fail atomic.Bool
	m, boot, clock, rec := newTestManager(t, func(ctx context.Context, id region.ID, n int64) (http.Header, error) {
		if fail.Load() {
			return http.Header{"Content-Type": {"text/html"}}, nil
		}
		return cookieHeader(fmt.Sprintf("tok%d", n)), nil
	})
	ctx := context.Background()

	first, err := m.Ensure(ctx, region.Seoul)
	require.NoError(t, err)

	clock.Advance(DefaultTTL + time.Second)
	fail.Store(true)

	_, err = m.Ensure(ctx, region.Seoul)
	require.Error(t, err)
	require.True(t, IsAcquisitionError(err))
	var acqErr *AcquisitionError
	require.True(t, errors.As(err, &acqErr))
	require.Equal(t, region.Seoul, acqErr.Region)
	require.Equal(t, first, m.Current())
	require.Contains(t, rec.BrokenIDs(), "session: "+report_manager_renew)

	fail.Store(false)
	s, err := m.Ensure(ctx, region.Seoul)
	require.NoError(t, err)
	require.Equal(t, "tok3", s.Token)
	require.Equal(t, int64(3), boot.calls.Load())
}

func TestBootstrapTransportErrorPropagates(t *testing.T) {
	transportErr := errors.New("dial tcp: connection refused")
	m, _, _, _ := newTestManager(t, func(ctx context.Context, id region.ID, n int64) (http.Header, error) {
		return nil, transportErr
	})

	_, err := m.Ensure(context.Background(), region.Seoul)
	require.ErrorIs(t, err, transportErr)
	require.False(t, IsAcquisitionError(err))
	require.Equal(t, Session{}, m.Current())
}

func TestAbandonedEnsureDoesNotCancelRenewal(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	renewErr := make(chan error, 1)

	m, boot, _, _ := newTestManager(t, func(ctx context.Context, id region.ID, n int64) (http.Header, error) {
		close(entered)
		<-release
		renewErr <- ctx.Err()
		return cookieHeader("survivor"), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error)
	go func() {
		_, err := m.Ensure(ctx, region.Seoul)
		result <- err
	}()

	<-entered
	cancel()
	require.ErrorIs(t, <-result, context.Canceled)

	close(release)
	require.NoError(t, <-renewErr)

	s, err := m.Ensure(context.Background(), region.Seoul)
	require.NoError(t, err)
	require.Equal(t, "survivor", s.Token)
	require.Equal(t, int64(1), boot.calls.Load())
}

func TestRenewReplacesValidSession(t *testing.T) {
	m, boot, _, _ := newTestManager(t, numbered)
	ctx := context.Background()

	_, err := m.Ensure(ctx, region.Seoul)
	require.NoError(t, err)

	s, err := m.Renew(ctx, region.Seoul)
	require.NoError(t, err)
	require.Equal(t, "tok2", s.Token)
	require.Equal(t, s, m.Current())
	require.Equal(t, int64(2), boot.calls.Load())
}

func TestRenewDoesNotJoinEnsure(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	m, boot, _, _ := newTestManager(t, func(ctx context.Context, id region.ID, n int64) (http.Header, error) {
		if n == 1 {
			close(entered)
			<-release
		}
		return cookieHeader(fmt.Sprintf("tok%d", n)), nil
	})

	ensured := make(chan Session, 1)
	go func() {
		s, _ := m.Ensure(context.Background(), region.Seoul)
		ensured <- s
	}()
	<-entered

	renewed, err := m.Renew(context.Background(), region.Seoul)
	require.NoError(t, err)
	require.Equal(t, "tok2", renewed.Token)

	close(release)
	require.Equal(t, "tok1", (<-ensured).Token)
	require.Equal(t, int64(2), boot.calls.Load())
}

func TestNewManagerRejectsInvalidRegion(t *testing.T) {
	require.Panics(t, func() {
		NewManager(region.ID(0), &fakeBootstrapper{handle: numbered}, 0, clockwork.NewFakeClock(), &telemetry.Recorder{})
	})
}
