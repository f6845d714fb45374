// Package jobs は、コレクション単位のインデキシングジョブ状態を管理します。
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// State はジョブの状態です。
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

var (
	// ErrAlreadyRunning は、同一コレクションでジョブが実行中の場合に返されます。
	ErrAlreadyRunning = errors.New("indexing already in progress")
	// ErrNoInput は、コレクションにインデックス可能なドキュメントがない場合に返されます。
	ErrNoInput = errors.New("no text files found in knowledgebase")
)

// Status はジョブ状態のスナップショットです。
type Status struct {
	Collection string `json:"collection"`
	State      State  `json:"status"`
	Progress   int    `json:"progress"`
	Error      string `json:"error,omitempty"`
}

// RunFunc はバックグラウンドで実行されるインデキシング処理の本体です。
type RunFunc func(ctx context.Context) error

// CountFunc はコレクション内のインデックス可能なドキュメント数を返します。
type CountFunc func(ctx context.Context, collection string) (int, error)

// Tracker はコレクションごとのジョブ状態を保持するプロセス内ステートマシンです。
// 状態はプロセス再起動で失われます。永続化はしない方針です。
type Tracker struct {
	mu        sync.Mutex
	statuses  map[string]*Status
	countDocs CountFunc
	logger    *zap.Logger
}

// NewTracker は新しい Tracker を作成します。
func NewTracker(countDocs CountFunc, logger *zap.Logger) *Tracker {
	return &Tracker{
		statuses:  map[string]*Status{},
		countDocs: countDocs,
		logger:    logger,
	}
}

// Start はコレクションのインデキシングジョブを開始します。
// 実行中のジョブがあれば ErrAlreadyRunning、ドキュメントがなければ ErrNoInput を返し、
// どちらの場合も状態は変更しません。受理した場合は run をバックグラウンドで起動して
// 即座に制御を返します。
func (t *Tracker) Start(ctx context.Context, collection string, run RunFunc) error {
	// ドキュメント有無の確認は状態遷移の前に行う。
	// 拒否された Start が in_progress の残骸を残してはならない。
	count, err := t.countDocs(ctx, collection)
	if err != nil {
		return fmt.Errorf("Failed to count documents for %s: %w", collection, err)
	}

	t.mu.Lock()
	if s, ok := t.statuses[collection]; ok && s.State == StateInProgress {
		t.mu.Unlock()
		return ErrAlreadyRunning
	}
	if count == 0 {
		t.mu.Unlock()
		return ErrNoInput
	}
	t.statuses[collection] = &Status{Collection: collection, State: StateInProgress, Progress: 0}
	t.mu.Unlock()

	go t.execute(collection, run)
	return nil
}

// execute はジョブ本体を実行し、結果を状態に反映します。
// panic を含むいかなる失敗もこの境界を越えて伝播させません。
func (t *Tracker) execute(collection string, run RunFunc) {
	defer func() {
		if r := recover(); r != nil {
			t.fail(collection, fmt.Sprintf("indexing panicked: %v", r))
			if t.logger != nil {
				t.logger.Error("Indexing panicked", zap.String("collection", collection), zap.Any("panic", r))
			}
		}
	}()

	if err := run(context.Background()); err != nil {
		t.fail(collection, err.Error())
		if t.logger != nil {
			t.logger.Error("Indexing failed", zap.String("collection", collection), zap.Error(err))
		}
		return
	}

	t.mu.Lock()
	t.statuses[collection] = &Status{Collection: collection, State: StateCompleted, Progress: 100}
	t.mu.Unlock()
	if t.logger != nil {
		t.logger.Info("Indexing completed", zap.String("collection", collection))
	}
}

func (t *Tracker) fail(collection string, msg string) {
	t.mu.Lock()
	t.statuses[collection] = &Status{Collection: collection, State: StateFailed, Error: msg}
	t.mu.Unlock()
}

// SetProgress は実行中ジョブの進捗を更新します。実行中でない場合は無視します。
func (t *Tracker) SetProgress(collection string, progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.statuses[collection]; ok && s.State == StateInProgress {
		s.Progress = progress
	}
}

// Status は現在のジョブ状態を返します。一度も開始されていないコレクションは not_started です。
func (t *Tracker) Status(collection string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.statuses[collection]; ok {
		return *s
	}
	return Status{Collection: collection, State: StateNotStarted}
}

// Remove はコレクション削除時に状態エントリを破棄します。
func (t *Tracker) Remove(collection string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.statuses, collection)
}
