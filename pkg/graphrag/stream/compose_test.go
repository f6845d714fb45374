package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t-kawata/intelligraph/config"
	"github.com/t-kawata/intelligraph/pkg/graphrag/types"
)

// scriptedSource は、あらかじめ与えられたトークン列を流すテスト用 Source です。
type scriptedSource struct {
	tokens []string
	err    error
	pos    int
	closed bool
}

func (s *scriptedSource) Recv() (string, error) {
	if s.pos < len(s.tokens) {
		token := s.tokens[s.pos]
		s.pos++
		return token, nil
	}
	if s.err != nil {
		err := s.err
		s.err = nil
		return "", err
	}
	return "", io.EOF
}

func (s *scriptedSource) Close() { s.closed = true }

func collect(t *testing.T, ch <-chan types.StreamEvent) []types.StreamEvent {
	t.Helper()
	var events []types.StreamEvent
	for evt := range ch {
		events = append(events, evt)
	}
	return events
}

func requireSingleDoneLast(t *testing.T, events []types.StreamEvent) {
	t.Helper()
	require.NotEmpty(t, events)
	doneCount := 0
	for _, evt := range events {
		if evt.Done {
			doneCount++
		}
	}
	assert.Equal(t, 1, doneCount)
	assert.True(t, events[len(events)-1].Done)
}

func TestComposeEmptyStream(t *testing.T) {
	src := &scriptedSource{}
	events := collect(t, Compose(context.Background(), src, nil))
	require.Len(t, events, 1)
	requireSingleDoneLast(t, events)
	assert.True(t, src.closed)
}

func TestComposePreservesOrder(t *testing.T) {
	src := &scriptedSource{tokens: []string{"The ", "answer ", "", "is 42."}}
	events := collect(t, Compose(context.Background(), src, nil))
	requireSingleDoneLast(t, events)
	// 空トークンは落とし、順序は保つ
	require.Len(t, events, 4)
	assert.Equal(t, "The ", events[0].Content)
	assert.Equal(t, "answer ", events[1].Content)
	assert.Equal(t, "is 42.", events[2].Content)
}

func TestComposeAppendsSources(t *testing.T) {
	src := &scriptedSource{tokens: []string{"answer"}}
	reports := []types.CommunityReport{
		{Title: "Chapter One"},
		{Title: "Chapter Two"},
	}
	events := collect(t, Compose(context.Background(), src, reports))
	requireSingleDoneLast(t, events)
	require.Len(t, events, 3)
	assert.Equal(t, "answer", events[0].Content)
	assert.Contains(t, events[1].Content, "Sources")
	assert.Contains(t, events[1].Content, "1. Chapter One")
	assert.Contains(t, events[1].Content, "2. Chapter Two")
}

func TestComposeStreamErrorInBand(t *testing.T) {
	src := &scriptedSource{tokens: []string{"partial "}, err: errors.New("provider gone")}
	reports := []types.CommunityReport{{Title: "Chapter One"}}
	events := collect(t, Compose(context.Background(), src, reports))
	requireSingleDoneLast(t, events)
	require.Len(t, events, 3)
	assert.Equal(t, "partial ", events[0].Content)
	assert.Contains(t, events[1].Content, "Answer stream failed")
	assert.Contains(t, events[1].Content, "provider gone")
	// 失敗時は Sources を流さない
	for _, evt := range events {
		assert.NotContains(t, evt.Content, "Sources\n")
	}
}

func TestComposeFailedSource(t *testing.T) {
	src := &FailedSource{Err: errors.New("connect refused")}
	events := collect(t, Compose(context.Background(), src, nil))
	requireSingleDoneLast(t, events)
	require.Len(t, events, 2)
	assert.Contains(t, events[0].Content, "connect refused")
}

func TestComposeCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &scriptedSource{tokens: []string{"never delivered"}}
	events := collect(t, Compose(ctx, src, nil))
	// 観測者がいないためイベントは流れず、チャネルは閉じる
	assert.Empty(t, events)
}

func TestSourcesText(t *testing.T) {
	assert.Empty(t, SourcesText(nil))
	assert.Empty(t, SourcesText([]types.CommunityReport{{Title: "  "}}))

	text := SourcesText([]types.CommunityReport{
		{Title: "Alpha"},
		{Title: ""},
		{Title: "Alpha"},
	})
	assert.True(t, strings.HasPrefix(text, "\n\nSources\n"))
	// 空タイトルは飛ばし、重複はそのまま残す
	assert.Contains(t, text, "1. Alpha")
	assert.Contains(t, text, "2. Alpha")
}

func TestSourcesTextWindow(t *testing.T) {
	var reports []types.CommunityReport
	for i := 0; i < config.REPORTS_MAX_COUNT+4; i++ {
		reports = append(reports, types.CommunityReport{Title: fmt.Sprintf("Report %d", i)})
	}
	text := SourcesText(reports)
	assert.Contains(t, text, fmt.Sprintf("%d. Report %d", config.REPORTS_MAX_COUNT, config.REPORTS_MAX_COUNT-1))
	assert.NotContains(t, text, fmt.Sprintf("Report %d", config.REPORTS_MAX_COUNT))
}
