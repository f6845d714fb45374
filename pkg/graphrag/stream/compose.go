// Package stream は、LLM のトークンストリームを回答ストリームに合成する処理を提供します。
package stream

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/t-kawata/intelligraph/config"
	"github.com/t-kawata/intelligraph/pkg/graphrag/types"
)

// Source は上流のトークンストリームです。
// Recv は次のトークンを返し、終端で io.EOF を返します。
type Source interface {
	Recv() (string, error)
	Close()
}

// Compose は上流ストリームの Delta をそのままの順序で転送し、
// 終端後に Sources チャンクを1つ追加してから、必ず1回だけ Done を流します。
// 上流がエラーで切れた場合は、エラーメッセージを含む Delta を1つ流してから Done で閉じます。
// Done より後にイベントが流れることはありません。
func Compose(ctx context.Context, src Source, reports []types.CommunityReport) <-chan types.StreamEvent {
	out := make(chan types.StreamEvent)
	go func() {
		defer close(out)
		defer src.Close()
		failed := false
		for {
			select {
			case <-ctx.Done():
				// クライアント切断。観測者がいないため Done は保証しない。
				return
			default:
			}
			content, err := src.Recv()
			if err == io.EOF {
				break
			}
			if err != nil {
				if !emit(ctx, out, types.StreamEvent{Content: fmt.Sprintf("Answer stream failed: %s", err.Error())}) {
					return
				}
				failed = true
				break
			}
			if content == "" {
				continue
			}
			if !emit(ctx, out, types.StreamEvent{Content: content}) {
				return
			}
		}
		if !failed {
			if sources := SourcesText(reports); sources != "" {
				if !emit(ctx, out, types.StreamEvent{Content: sources}) {
					return
				}
			}
		}
		emit(ctx, out, types.StreamEvent{Done: true})
	}()
	return out
}

func emit(ctx context.Context, out chan<- types.StreamEvent, ev types.StreamEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// SourcesText は、レポートのタイトルから引用リストを合成します。
// タイトルが1つもない場合は空文字を返します。
// タイトルの重複はそのまま残します。
func SourcesText(reports []types.CommunityReport) string {
	head := reports
	if len(head) > config.REPORTS_MAX_COUNT {
		head = head[:config.REPORTS_MAX_COUNT]
	}
	var titles []string
	for _, r := range head {
		t := strings.TrimSpace(r.Title)
		if t != "" {
			titles = append(titles, t)
		}
	}
	if len(titles) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nSources\n")
	for i, t := range titles {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, t))
	}
	return b.String()
}

// FailedSource は、ストリーム確立自体に失敗した場合に使うソースです。
// 最初の Recv でエラーを返します。
type FailedSource struct {
	Err  error
	done bool
}

func (s *FailedSource) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	s.done = true
	return "", s.Err
}

func (s *FailedSource) Close() {}

// EinoSource は eino の StreamReader を Source に適合させます。
type EinoSource struct {
	Reader *schema.StreamReader[*schema.Message]
}

func (s *EinoSource) Recv() (string, error) {
	msg, err := s.Reader.Recv()
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

func (s *EinoSource) Close() {
	s.Reader.Close()
}
