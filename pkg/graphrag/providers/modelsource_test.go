package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChat struct{}

func (s *stubChat) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	return schema.AssistantMessage("", nil), nil
}

func (s *stubChat) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	sr, sw := schema.Pipe[*schema.Message](1)
	sw.Close()
	return sr, nil
}

func (s *stubChat) WithTools(_ []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return s, nil
}

type stubEmbedder struct{}

func (s *stubEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	return make([][]float64, len(texts)), nil
}

func staticSettings(chat, emb string) SettingsFunc {
	return func(_ context.Context, _ string) (string, string, error) {
		return chat, emb, nil
	}
}

func newTestOverrideModels(settings SettingsFunc) (*OverrideModels, *stubChat, *stubEmbedder) {
	baseChat := &stubChat{}
	baseEmb := &stubEmbedder{}
	chatCfg := ProviderConfig{Type: ProviderOpenAI, APIKey: "test-key", ModelName: "gpt-base"}
	embCfg := ProviderConfig{Type: ProviderOpenAI, APIKey: "test-key", ModelName: "emb-base"}
	o := NewOverrideModels(&StaticModels{Chat: baseChat, Emb: baseEmb}, chatCfg, embCfg, settings, nil)
	return o, baseChat, baseEmb
}

func TestStaticModels(t *testing.T) {
	chat := &stubChat{}
	emb := &stubEmbedder{}
	s := &StaticModels{Chat: chat, Emb: emb}

	c, err := s.ChatModel(context.Background(), "any")
	require.NoError(t, err)
	assert.Same(t, chat, c)

	e, err := s.Embedder(context.Background(), "any")
	require.NoError(t, err)
	assert.Same(t, emb, e)
}

func TestOverrideModelsNoOverrideFallsBack(t *testing.T) {
	o, baseChat, baseEmb := newTestOverrideModels(staticSettings("", ""))

	c, err := o.ChatModel(context.Background(), "demo")
	require.NoError(t, err)
	assert.Same(t, baseChat, c)

	e, err := o.Embedder(context.Background(), "demo")
	require.NoError(t, err)
	assert.Same(t, baseEmb, e)
}

func TestOverrideModelsSameNameFallsBack(t *testing.T) {
	// 上書き名が環境設定と同じ場合はベースモデルを使い回す
	o, baseChat, baseEmb := newTestOverrideModels(staticSettings("gpt-base", "emb-base"))

	c, err := o.ChatModel(context.Background(), "demo")
	require.NoError(t, err)
	assert.Same(t, baseChat, c)

	e, err := o.Embedder(context.Background(), "demo")
	require.NoError(t, err)
	assert.Same(t, baseEmb, e)
}

func TestOverrideModelsSettingsErrorFallsBack(t *testing.T) {
	o, baseChat, _ := newTestOverrideModels(func(_ context.Context, _ string) (string, string, error) {
		return "", "", errors.New("db down")
	})

	c, err := o.ChatModel(context.Background(), "demo")
	require.NoError(t, err)
	assert.Same(t, baseChat, c)
}

func TestOverrideModelsBuildsAndCachesOverride(t *testing.T) {
	o, baseChat, baseEmb := newTestOverrideModels(staticSettings("gpt-tuned", "emb-tuned"))

	c1, err := o.ChatModel(context.Background(), "demo")
	require.NoError(t, err)
	assert.NotSame(t, baseChat, c1)

	c2, err := o.ChatModel(context.Background(), "demo")
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	e1, err := o.Embedder(context.Background(), "demo")
	require.NoError(t, err)
	assert.NotSame(t, baseEmb, e1)

	e2, err := o.Embedder(context.Background(), "demo")
	require.NoError(t, err)
	assert.Same(t, e1, e2)
}

func TestOverrideModelsNilSettings(t *testing.T) {
	o, baseChat, _ := newTestOverrideModels(nil)
	c, err := o.ChatModel(context.Background(), "demo")
	require.NoError(t, err)
	assert.Same(t, baseChat, c)
}
