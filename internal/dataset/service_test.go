package dataset

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wastedash/internal/core"
	"wastedash/internal/log"
	"wastedash/internal/metrics"
)

var twoRows = []core.RawRecord{
	{Year: "2022", Month: "Jan", Category: "recycling", Material: "Plastic", Weight: "1,000"},
	{Year: "2022", Month: "Jan", Category: "recycling", Material: "Glass", Weight: "500"},
	{Year: "2022", Month: "Jan", Category: "recycling", Material: "Glass"},
}

func newTestService(t *testing.T, l Loader) *Service {
	t.Helper()
	s, err := NewService(l, Options{Source: "test", Logger: log.Discard(), Metrics: metrics.New()})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return s
}

func TestNewServiceRequiresLoader(t *testing.T) {
	if _, err := NewService(nil, Options{}); !errors.Is(err, ErrNoLoader) {
		t.Fatalf("expected ErrNoLoader, got %v", err)
	}
}

func TestSnapshotEmptyBeforeLoad(t *testing.T) {
	s := newTestService(t, LoaderFunc(func(context.Context) ([]core.RawRecord, error) { return twoRows, nil }))
	if s.Ready() {
		t.Fatal("service must not be ready before the first load")
	}
	snap := s.Snapshot()
	if snap == nil || snap.Len() != 0 || len(snap.Categories) != 0 || snap.Version != 0 {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}
}

func TestReloadBuildsSnapshot(t *testing.T) {
	s := newTestService(t, LoaderFunc(func(context.Context) ([]core.RawRecord, error) { return twoRows, nil }))
	snap, err := s.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if !s.Ready() || s.Snapshot() != snap {
		t.Fatal("snapshot not installed")
	}
	if snap.Version != 1 || snap.Len() != 2 || snap.Rejected.MissingField != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if len(snap.CategoryTotals) != 1 || snap.CategoryTotals[0].Weight != 1500 {
		t.Fatalf("unexpected totals %+v", snap.CategoryTotals)
	}
	st := s.Status()
	if !st.Ready || st.Observations != 2 || st.Rejected != 1 || st.LastError != "" {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestReloadFailureKeepsPreviousSnapshot(t *testing.T) {
	fail := false
	s := newTestService(t, LoaderFunc(func(context.Context) ([]core.RawRecord, error) {
		if fail {
			return nil, errors.New("disk gone")
		}
		return twoRows, nil
	}))

	first, err := s.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	fail = true
	got, err := s.Reload(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if got != first || s.Snapshot() != first {
		t.Fatal("previous snapshot must be kept")
	}
	if st := s.Status(); !st.Ready || st.LastError == "" {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestReloadFailureBeforeFirstLoad(t *testing.T) {
	s := newTestService(t, LoaderFunc(func(context.Context) ([]core.RawRecord, error) {
		return nil, errors.New("404")
	}))
	if _, err := s.Reload(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if s.Ready() || s.Snapshot().Len() != 0 {
		t.Fatal("service must stay empty and not ready")
	}
}

func TestReloadHonorsTimeout(t *testing.T) {
	s, err := NewService(LoaderFunc(func(ctx context.Context) ([]core.RawRecord, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), Options{Source: "slow", Timeout: 10 * time.Millisecond, Logger: log.Discard()})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Reload(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestConcurrentReloadsProduceDistinctVersions(t *testing.T) {
	s := newTestService(t, LoaderFunc(func(context.Context) ([]core.RawRecord, error) { return twoRows, nil }))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Reload(context.Background())
			_ = s.Snapshot().Len()
		}()
	}
	wg.Wait()
	if v := s.Snapshot().Version; v != 8 {
		t.Fatalf("expected version 8, got %d", v)
	}
}
