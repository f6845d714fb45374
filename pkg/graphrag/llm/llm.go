// Package llm は、Eino ChatModel / Embedder 呼び出しの薄いラッパーを提供します。
package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/t-kawata/intelligraph/pkg/graphrag/types"
)

const (
	typeChatCompletion = "ChatModel"
	typeEmbedding      = "Embedding"
)

// TokenUsageAggregator は、複数のEino呼び出しにまたがってトークン使用量を集計するためのヘルパーです。
// スレッドセーフに実装されています。
type TokenUsageAggregator struct {
	TotalUsage types.TokenUsage
	mu         sync.Mutex
}

// Handler は Eino の Callback ハンドラを生成して返します。
// このハンドラを callbacks.InitCallbacks(ctx, info, handler) で注入してください。
func (agg *TokenUsageAggregator) Handler() callbacks.Handler {
	return callbacks.NewHandlerBuilder().
		OnEndFn(func(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
			agg.mu.Lock()
			defer agg.mu.Unlock()

			var prompt, completion int

			if info.Type == typeChatCompletion {
				modelOutput := model.ConvCallbackOutput(output)
				if modelOutput != nil && modelOutput.TokenUsage != nil {
					prompt = modelOutput.TokenUsage.PromptTokens
					completion = modelOutput.TokenUsage.CompletionTokens
				}
			} else if info.Type == typeEmbedding {
				embOutput := embedding.ConvCallbackOutput(output)
				if embOutput != nil && embOutput.TokenUsage != nil {
					prompt = embOutput.TokenUsage.PromptTokens
					completion = embOutput.TokenUsage.CompletionTokens
				}
			}

			if prompt > 0 || completion > 0 {
				agg.TotalUsage.Add(types.TokenUsage{
					PromptTokens:     prompt,
					CompletionTokens: completion,
					TotalTokens:      prompt + completion,
				})
			}
			return ctx
		}).
		Build()
}

// GenerateWithUsage は、Eino ChatModel を呼び出し、生成テキストとトークン使用量を返します。
func GenerateWithUsage(ctx context.Context, llm model.ToolCallingChatModel, systemPrompt string, userPrompt string) (string, types.TokenUsage, error) {
	agg := &TokenUsageAggregator{}
	ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{Name: "ChatModel", Type: typeChatCompletion}, agg.Handler())

	msgs := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	}

	result, err := llm.Generate(ctx, msgs)
	if err != nil {
		return "", agg.TotalUsage, fmt.Errorf("eino generate error: %w", err)
	}

	content := ""
	if result != nil {
		content = result.Content
	}
	return content, agg.TotalUsage, nil
}

// Stream は、Eino ChatModel のトークンストリームを開きます。
func Stream(ctx context.Context, llm model.ToolCallingChatModel, systemPrompt string, userPrompt string) (*schema.StreamReader[*schema.Message], error) {
	msgs := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	}
	reader, err := llm.Stream(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("eino stream error: %w", err)
	}
	return reader, nil
}

// EmbedWithUsage は、Embedder を呼び出し、ベクトルとトークン使用量を返します。
func EmbedWithUsage(ctx context.Context, embedder embedding.Embedder, texts []string) ([][]float64, types.TokenUsage, error) {
	agg := &TokenUsageAggregator{}
	ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{Name: "Embedding", Type: typeEmbedding}, agg.Handler())

	vectors, err := embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, agg.TotalUsage, fmt.Errorf("eino embedding error: %w", err)
	}
	return vectors, agg.TotalUsage, nil
}
