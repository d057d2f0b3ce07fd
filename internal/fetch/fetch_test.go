package fetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/runnerr0/browsersearch/internal/browser"
	"github.com/runnerr0/browsersearch/internal/record"
	"github.com/runnerr0/browsersearch/internal/snapshot"
	"github.com/runnerr0/browsersearch/internal/testutil"
)

// stubExtractor returns canned rows keyed by profile ID.
type stubExtractor struct {
	rows   map[string][]record.Raw
	errs   map[string]error
	delay  map[string]time.Duration
	panics map[string]bool

	mu       sync.Mutex
	inFlight int
	peak     int
}

func (s *stubExtractor) Extract(ctx context.Context, src browser.Source) ([]record.Raw, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.peak {
		s.peak = s.inFlight
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.panics[src.ProfileID] {
		panic("corrupt page")
	}
	if d := s.delay[src.ProfileID]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := s.errs[src.ProfileID]; err != nil {
		return nil, err
	}
	return s.rows[src.ProfileID], nil
}

func src(id string) browser.Source {
	return browser.Source{Kind: browser.Chrome, Store: browser.History, ProfileID: id, DisplayName: id}
}

func TestFetchAll_KeepsSourceOrder(t *testing.T) {
	ex := &stubExtractor{
		rows: map[string][]record.Raw{
			"a": {{URL: "https://a", Title: "A"}},
			"b": {{URL: "https://b", Title: "B"}},
			"c": {{URL: "https://c", Title: "C"}},
		},
		delay: map[string]time.Duration{"a": 30 * time.Millisecond},
	}
	f := New(ex, 4, time.Second, nil)

	batches := f.FetchAll(context.Background(), []browser.Source{src("a"), src("b"), src("c")})

	require.Len(t, batches, 3)
	for i, id := range []string{"a", "b", "c"} {
		assert.Equal(t, id, batches[i].Source.ProfileID)
		assert.NoError(t, batches[i].Err)
		require.Len(t, batches[i].Rows, 1)
	}
}

func TestFetchAll_FailuresAreContained(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ex := &stubExtractor{
		rows: map[string][]record.Raw{
			"good": {{URL: "https://ok", Title: "OK"}},
		},
		errs:   map[string]error{"bad": errors.New("database disk image is malformed")},
		panics: map[string]bool{"boom": true},
	}
	f := New(ex, 4, time.Second, zap.New(core))

	batches := f.FetchAll(context.Background(), []browser.Source{src("bad"), src("good"), src("boom")})

	require.Len(t, batches, 3)
	assert.Error(t, batches[0].Err)
	assert.Empty(t, batches[0].Rows)
	assert.NoError(t, batches[1].Err)
	assert.Len(t, batches[1].Rows, 1)
	require.Error(t, batches[2].Err)
	assert.Contains(t, batches[2].Err.Error(), "panic")
	assert.Empty(t, batches[2].Rows)

	assert.Equal(t, 2, logs.FilterMessage("source skipped").Len())
}

func TestFetchAll_SlowSourceTimesOut(t *testing.T) {
	ex := &stubExtractor{
		rows: map[string][]record.Raw{
			"fast": {{URL: "https://fast", Title: "Fast"}},
			"slow": {{URL: "https://slow", Title: "Slow"}},
		},
		delay: map[string]time.Duration{"slow": 5 * time.Second},
	}
	f := New(ex, 4, 50*time.Millisecond, nil)

	start := time.Now()
	batches := f.FetchAll(context.Background(), []browser.Source{src("slow"), src("fast")})

	assert.Less(t, time.Since(start), 2*time.Second, "bounded by the timeout, not the slow source")
	assert.ErrorIs(t, batches[0].Err, context.DeadlineExceeded)
	assert.Empty(t, batches[0].Rows)
	assert.Len(t, batches[1].Rows, 1)
}

// blockingExtractor ignores ctx entirely.
type blockingExtractor struct{ release chan struct{} }

func (b *blockingExtractor) Extract(context.Context, browser.Source) ([]record.Raw, error) {
	<-b.release
	return []record.Raw{{URL: "https://late"}}, nil
}

func TestFetchAll_WaitsForExtractorPastDeadline(t *testing.T) {
	ex := &blockingExtractor{release: make(chan struct{})}
	var released atomic.Bool
	time.AfterFunc(100*time.Millisecond, func() {
		released.Store(true)
		close(ex.release)
	})

	f := New(ex, 1, 20*time.Millisecond, nil)
	batches := f.FetchAll(context.Background(), []browser.Source{src("slow")})

	assert.True(t, released.Load(), "FetchAll returned before the extractor did")
	require.Len(t, batches, 1)
	assert.ErrorIs(t, batches[0].Err, context.DeadlineExceeded)
	assert.Empty(t, batches[0].Rows)
}

func TestFetchAll_GivesUpOnExtractorIgnoringContext(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ex := &blockingExtractor{release: make(chan struct{})}
	defer close(ex.release)

	f := New(ex, 1, 20*time.Millisecond, zap.New(core))
	f.stopGrace = 30 * time.Millisecond

	start := time.Now()
	batches := f.FetchAll(context.Background(), []browser.Source{src("stuck")})

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, batches, 1)
	assert.ErrorIs(t, batches[0].Err, context.DeadlineExceeded)
	assert.Equal(t, 1, logs.FilterMessage("extractor still running after deadline").Len())
}

// tempFileExtractor holds a file in dir until ctx ends, then removes it
// after a short unwind.
type tempFileExtractor struct{ dir string }

func (e *tempFileExtractor) Extract(ctx context.Context, src browser.Source) ([]record.Raw, error) {
	path := filepath.Join(e.dir, snapshot.TempPrefix+src.ProfileID+".db")
	if err := os.WriteFile(path, []byte("copy"), 0600); err != nil {
		return nil, err
	}
	defer os.Remove(path)
	<-ctx.Done()
	time.Sleep(50 * time.Millisecond)
	return nil, ctx.Err()
}

func TestFetchAll_TimedOutExtractorCleansUpBeforeReturn(t *testing.T) {
	dir := t.TempDir()
	f := New(&tempFileExtractor{dir: dir}, 4, 10*time.Millisecond, nil)

	batches := f.FetchAll(context.Background(), []browser.Source{src("a"), src("b"), src("c")})

	for _, b := range batches {
		assert.ErrorIs(t, b.Err, context.DeadlineExceeded)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// A deadline that fires mid-copy must not leave snapshots behind.
func TestFetchAll_TimedOutSnapshotIsRemoved(t *testing.T) {
	dir := t.TempDir()
	var sources []browser.Source
	for _, id := range []string{"a", "b", "c", "d"} {
		path := filepath.Join(dir, id, "History")
		testutil.ChromiumHistory(t, path, []testutil.Visit{{URL: "https://" + id + ".example", Title: id, VisitCount: 1, LastVisit: time.Now()}})
		require.NoError(t, os.Truncate(path, 64<<20))
		sources = append(sources, browser.Source{
			Kind: browser.Chrome, Family: browser.FamilyChromium, Store: browser.History,
			ProfileID: id, StorePath: path,
		})
	}

	scratch := t.TempDir()
	f := New(snapshot.New(scratch, nil), 4, time.Millisecond, nil)
	batches := f.FetchAll(context.Background(), sources)

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
	for _, b := range batches {
		assert.Error(t, b.Err)
	}
}

func TestFetchAll_BoundedParallelism(t *testing.T) {
	ex := &stubExtractor{delay: map[string]time.Duration{}}
	var sources []browser.Source
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7", "8"} {
		ex.delay[id] = 20 * time.Millisecond
		sources = append(sources, src(id))
	}

	f := New(ex, 3, time.Second, nil)
	f.FetchAll(context.Background(), sources)

	assert.LessOrEqual(t, ex.peak, 3)
	assert.Greater(t, ex.peak, 1, "sources run concurrently")
}

func TestFetchAll_NoSources(t *testing.T) {
	ex := &stubExtractor{}
	f := New(ex, 0, 0, nil)
	assert.Empty(t, f.FetchAll(context.Background(), nil))
	assert.Zero(t, ex.peak)
}

func TestRecords_NormalizesInSourceOrder(t *testing.T) {
	batches := []Batch{
		{Source: src("a"), Rows: []record.Raw{{URL: "https://a", Title: "A", VisitCount: 1}}},
		{Source: src("b"), Err: errors.New("failed")},
		{Source: src("c"), Rows: []record.Raw{{URL: "https://c", Title: "C"}, {URL: ""}}},
	}

	recs := Records(batches)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].SourceProfileID)
	assert.Equal(t, "c", recs[1].SourceProfileID)
}

// Three real stores, one of them corrupt: the other two still produce rows.
func TestFetchAll_WithSnapshotExtractorAndCorruptStore(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	goodA := filepath.Join(dir, "a", "History")
	testutil.ChromiumHistory(t, goodA, []testutil.Visit{{URL: "https://a.example", Title: "A", VisitCount: 1, LastVisit: now}})
	goodB := filepath.Join(dir, "b", "History.db")
	testutil.SafariHistory(t, goodB, []testutil.Visit{{URL: "https://b.example", Title: "B", VisitCount: 1, LastVisit: now}})
	corrupt := filepath.Join(dir, "c", "History")
	testutil.WriteFile(t, corrupt, []byte("SQLite format 3\x00 but then nothing sensible follows here"))

	sources := []browser.Source{
		{Kind: browser.Chrome, Family: browser.FamilyChromium, Store: browser.History, ProfileID: "a", StorePath: goodA},
		{Kind: browser.Chrome, Family: browser.FamilyChromium, Store: browser.History, ProfileID: "c", StorePath: corrupt},
		{Kind: browser.Safari, Family: browser.FamilySafari, Store: browser.History, ProfileID: "Safari", StorePath: goodB},
	}

	f := New(snapshot.New(t.TempDir(), nil), 4, 5*time.Second, nil)
	recs := Records(f.FetchAll(context.Background(), sources))

	require.Len(t, recs, 2)
	assert.Equal(t, "https://a.example", recs[0].URL)
	assert.Equal(t, "https://b.example", recs[1].URL)
}
