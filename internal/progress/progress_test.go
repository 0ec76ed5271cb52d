package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerKeepsLatestStateAndOrder(t *testing.T) {
	var seen []Event
	tracker := NewTracker("run-1", func(ev Event) { seen = append(seen, ev) })

	commits := tracker.Stage("fetch_commits")
	prs := tracker.Stage("fetch_prs")

	commits(1, Unknown, "abc1234")
	prs(1, 3, "#1")
	commits(2, Unknown, "def5678")
	commits(2, 2, "commits")
	tracker.Close()

	snapshot := tracker.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "fetch_commits", snapshot[0].Stage)
	assert.Equal(t, 2, snapshot[0].Completed)
	assert.Equal(t, 2, snapshot[0].Total)
	assert.Equal(t, "commits", snapshot[0].LastItem)
	assert.Equal(t, "fetch_prs", snapshot[1].Stage)
	assert.Len(t, seen, 4)
}

func TestTrackerConcurrentSenders(t *testing.T) {
	var (
		mu    sync.Mutex
		count int
	)
	tracker := NewTracker("run-2", func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	report := tracker.Stage("analyze_commits")

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			report(i, 100, "item")
		}(i)
	}
	wg.Wait()
	tracker.Close()

	assert.Equal(t, 100, count)
}

func TestReportAfterCloseIsDropped(t *testing.T) {
	tracker := NewTracker("run-3", nil)
	report := tracker.Stage("content")
	tracker.Close()

	assert.NotPanics(t, func() { report(1, 1, "content") })
	assert.Empty(t, tracker.Snapshot())

	// closing twice is harmless
	tracker.Close()
}

func TestNilFuncReport(t *testing.T) {
	var f Func
	assert.NotPanics(t, func() { f.Report(1, 2, "x") })
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	tracker := NewTracker("run-4", nil)
	defer tracker.Close()

	registry.Add(tracker)
	got, ok := registry.Get("run-4")
	require.True(t, ok)
	assert.Same(t, tracker, got)

	registry.Remove("run-4")
	_, ok = registry.Get("run-4")
	assert.False(t, ok)
}
