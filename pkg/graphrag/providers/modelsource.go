package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"go.uber.org/zap"
)

// ModelSource は、コレクションごとに使用するチャットモデルと埋め込みモデルを解決します。
type ModelSource interface {
	ChatModel(ctx context.Context, collection string) (model.ToolCallingChatModel, error)
	Embedder(ctx context.Context, collection string) (embedding.Embedder, error)
}

// StaticModels は、常に同じモデルを返す ModelSource です。
type StaticModels struct {
	Chat model.ToolCallingChatModel
	Emb  embedding.Embedder
}

func (s *StaticModels) ChatModel(ctx context.Context, collection string) (model.ToolCallingChatModel, error) {
	return s.Chat, nil
}

func (s *StaticModels) Embedder(ctx context.Context, collection string) (embedding.Embedder, error) {
	return s.Emb, nil
}

// SettingsFunc は、コレクションに設定されたモデル名の上書きを返します。
// 上書きが無い場合は空文字列を返します。
type SettingsFunc func(ctx context.Context, collection string) (chatModel string, embeddingModel string, err error)

// OverrideModels は、コレクション設定によるモデル名の上書きを解決する ModelSource です。
// 上書きが無い、または設定の取得に失敗した場合はベースモデルにフォールバックします。
// 上書きモデルの構築はモデル名ごとに1回だけ行い、以後はキャッシュを返します。
type OverrideModels struct {
	base      ModelSource
	chatCfg   ProviderConfig
	embCfg    ProviderConfig
	settings  SettingsFunc
	logger    *zap.Logger
	mu        sync.Mutex
	chatCache map[string]model.ToolCallingChatModel
	embCache  map[string]embedding.Embedder
}

// NewOverrideModels は新しい OverrideModels を作成します。
func NewOverrideModels(base ModelSource, chatCfg ProviderConfig, embCfg ProviderConfig, settings SettingsFunc, logger *zap.Logger) *OverrideModels {
	return &OverrideModels{
		base:      base,
		chatCfg:   chatCfg,
		embCfg:    embCfg,
		settings:  settings,
		logger:    logger,
		chatCache: map[string]model.ToolCallingChatModel{},
		embCache:  map[string]embedding.Embedder{},
	}
}

func (o *OverrideModels) resolve(ctx context.Context, collection string) (string, string) {
	if o.settings == nil {
		return "", ""
	}
	chatName, embName, err := o.settings(ctx, collection)
	if err != nil {
		if o.logger != nil {
			o.logger.Warn("Failed to load collection settings, falling back to default models",
				zap.String("collection", collection), zap.Error(err))
		}
		return "", ""
	}
	return chatName, embName
}

func (o *OverrideModels) ChatModel(ctx context.Context, collection string) (model.ToolCallingChatModel, error) {
	name, _ := o.resolve(ctx, collection)
	if name == "" || name == o.chatCfg.ModelName {
		return o.base.ChatModel(ctx, collection)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if m, ok := o.chatCache[name]; ok {
		return m, nil
	}
	cfg := o.chatCfg
	cfg.ModelName = name
	m, err := NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("Failed to build chat model %s for %s: %w", name, collection, err)
	}
	o.chatCache[name] = m
	return m, nil
}

func (o *OverrideModels) Embedder(ctx context.Context, collection string) (embedding.Embedder, error) {
	_, name := o.resolve(ctx, collection)
	if name == "" || name == o.embCfg.ModelName {
		return o.base.Embedder(ctx, collection)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if e, ok := o.embCache[name]; ok {
		return e, nil
	}
	cfg := o.embCfg
	cfg.ModelName = name
	e, err := NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("Failed to build embedder %s for %s: %w", name, collection, err)
	}
	o.embCache[name] = e
	return e, nil
}
