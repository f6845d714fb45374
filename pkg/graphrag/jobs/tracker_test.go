package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countAlways(n int) CountFunc {
	return func(_ context.Context, _ string) (int, error) { return n, nil }
}

func waitForState(t *testing.T, tr *Tracker, collection string, want State) Status {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		s := tr.Status(collection)
		if s.State == want {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	s := tr.Status(collection)
	t.Fatalf("state did not reach %s, got %s", want, s.State)
	return s
}

func TestStatusNotStarted(t *testing.T) {
	tr := NewTracker(countAlways(1), nil)
	s := tr.Status("demo")
	assert.Equal(t, "demo", s.Collection)
	assert.Equal(t, StateNotStarted, s.State)
	assert.Zero(t, s.Progress)
	assert.Empty(t, s.Error)
}

func TestStartCompletes(t *testing.T) {
	tr := NewTracker(countAlways(3), nil)
	err := tr.Start(context.Background(), "demo", func(_ context.Context) error { return nil })
	require.NoError(t, err)
	s := waitForState(t, tr, "demo", StateCompleted)
	assert.Equal(t, 100, s.Progress)
	assert.Empty(t, s.Error)
}

func TestStartFails(t *testing.T) {
	tr := NewTracker(countAlways(3), nil)
	err := tr.Start(context.Background(), "demo", func(_ context.Context) error {
		return errors.New("extraction blew up")
	})
	require.NoError(t, err)
	s := waitForState(t, tr, "demo", StateFailed)
	assert.Equal(t, "extraction blew up", s.Error)
}

func TestStartRecoversPanic(t *testing.T) {
	tr := NewTracker(countAlways(3), nil)
	err := tr.Start(context.Background(), "demo", func(_ context.Context) error {
		panic("boom")
	})
	require.NoError(t, err)
	s := waitForState(t, tr, "demo", StateFailed)
	assert.Contains(t, s.Error, "boom")
}

func TestStartRejectsWhenRunning(t *testing.T) {
	tr := NewTracker(countAlways(3), nil)
	release := make(chan struct{})
	err := tr.Start(context.Background(), "demo", func(_ context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)
	waitForState(t, tr, "demo", StateInProgress)

	err = tr.Start(context.Background(), "demo", func(_ context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	// 拒否された Start は状態を変更しない
	assert.Equal(t, StateInProgress, tr.Status("demo").State)

	close(release)
	waitForState(t, tr, "demo", StateCompleted)

	// 完了後は再実行できる
	err = tr.Start(context.Background(), "demo", func(_ context.Context) error { return nil })
	assert.NoError(t, err)
	waitForState(t, tr, "demo", StateCompleted)
}

func TestStartRejectsEmptyCollection(t *testing.T) {
	tr := NewTracker(countAlways(0), nil)
	err := tr.Start(context.Background(), "demo", func(_ context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrNoInput)
	assert.Equal(t, StateNotStarted, tr.Status("demo").State)
}

func TestStartRejectsEmptyAfterCompletion(t *testing.T) {
	count := 1
	var mu sync.Mutex
	tr := NewTracker(func(_ context.Context, _ string) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return count, nil
	}, nil)

	err := tr.Start(context.Background(), "demo", func(_ context.Context) error { return nil })
	require.NoError(t, err)
	waitForState(t, tr, "demo", StateCompleted)

	mu.Lock()
	count = 0
	mu.Unlock()
	err = tr.Start(context.Background(), "demo", func(_ context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrNoInput)
	// 拒否は前回の完了状態を壊さない
	assert.Equal(t, StateCompleted, tr.Status("demo").State)
}

func TestStartCountError(t *testing.T) {
	tr := NewTracker(func(_ context.Context, _ string) (int, error) {
		return 0, errors.New("storage down")
	}, nil)
	err := tr.Start(context.Background(), "demo", func(_ context.Context) error { return nil })
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyRunning)
	assert.NotErrorIs(t, err, ErrNoInput)
	assert.Equal(t, StateNotStarted, tr.Status("demo").State)
}

func TestSetProgress(t *testing.T) {
	tr := NewTracker(countAlways(3), nil)
	release := make(chan struct{})
	err := tr.Start(context.Background(), "demo", func(_ context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)
	waitForState(t, tr, "demo", StateInProgress)

	tr.SetProgress("demo", 40)
	assert.Equal(t, 40, tr.Status("demo").Progress)
	tr.SetProgress("demo", -5)
	assert.Equal(t, 0, tr.Status("demo").Progress)
	tr.SetProgress("demo", 150)
	assert.Equal(t, 100, tr.Status("demo").Progress)

	// 未知のコレクションへの進捗更新は無視される
	tr.SetProgress("other", 50)
	assert.Equal(t, StateNotStarted, tr.Status("other").State)

	close(release)
	s := waitForState(t, tr, "demo", StateCompleted)
	assert.Equal(t, 100, s.Progress)

	// 実行中でなければ進捗更新は無視される
	tr.SetProgress("demo", 10)
	assert.Equal(t, 100, tr.Status("demo").Progress)
}

func TestRemove(t *testing.T) {
	tr := NewTracker(countAlways(3), nil)
	err := tr.Start(context.Background(), "demo", func(_ context.Context) error { return nil })
	require.NoError(t, err)
	waitForState(t, tr, "demo", StateCompleted)

	tr.Remove("demo")
	assert.Equal(t, StateNotStarted, tr.Status("demo").State)
}

func TestConcurrentStartAdmitsExactlyOne(t *testing.T) {
	tr := NewTracker(countAlways(3), nil)
	release := make(chan struct{})
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tr.Start(context.Background(), "demo", func(_ context.Context) error {
				<-release
				return nil
			})
			if err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrAlreadyRunning)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, admitted)
	close(release)
	waitForState(t, tr, "demo", StateCompleted)
}
