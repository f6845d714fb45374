package providers

import (
	"context"
	"fmt"
	"strings"

	ollamaemb "github.com/cloudwego/eino-ext/components/embedding/ollama"
	openaiemb "github.com/cloudwego/eino-ext/components/embedding/openai"
	claudemodel "github.com/cloudwego/eino-ext/components/model/claude"
	deepseekmodel "github.com/cloudwego/eino-ext/components/model/deepseek"
	geminimodel "github.com/cloudwego/eino-ext/components/model/gemini"
	ollamamodel "github.com/cloudwego/eino-ext/components/model/ollama"
	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	openroutermodel "github.com/cloudwego/eino-ext/components/model/openrouter"
	qwenmodel "github.com/cloudwego/eino-ext/components/model/qwen"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// ProviderType はサポートするLLMプロバイダーの識別子です。
type ProviderType string

const (
	ProviderOpenAI     ProviderType = "openai"
	ProviderAzure      ProviderType = "azure"
	ProviderAnthropic  ProviderType = "anthropic"
	ProviderClaude     ProviderType = "claude" // alias for anthropic
	ProviderGemini     ProviderType = "gemini"
	ProviderGoogle     ProviderType = "google" // alias for gemini
	ProviderDeepSeek   ProviderType = "deepseek"
	ProviderQwen       ProviderType = "qwen"
	ProviderOpenRouter ProviderType = "openrouter"
	ProviderOllama     ProviderType = "ollama"
	// 以下のプロバイダーは OpenAI 互換 API として扱います
	ProviderMeta    ProviderType = "meta"
	ProviderMistral ProviderType = "mistral"
	ProviderGroq    ProviderType = "groq"
	ProviderLocal   ProviderType = "local"
)

// ProviderConfig はプロバイダー接続に必要な設定情報です。
type ProviderConfig struct {
	Type      ProviderType
	APIKey    string
	BaseURL   string // OpenAI互換プロバイダーの場合は必須
	ModelName string
	MaxTokens int // Anthropic 系で必須。0 の場合はデフォルト値を使用。
}

const defaultMaxTokens = 8192

// NewChatModel は指定された設定に基づいて Eino ChatModel を生成します。
func NewChatModel(ctx context.Context, cfg ProviderConfig) (model.ToolCallingChatModel, error) {
	providerType := ProviderType(strings.ToLower(string(cfg.Type)))
	switch providerType {
	case ProviderOpenAI, ProviderAzure, ProviderMeta, ProviderMistral, ProviderGroq, ProviderLocal:
		// OpenAI 互換クライアントを使用して初期化
		// BaseURL が空の場合は openaimodel.NewChatModel 側でデフォルト(https://api.openai.com/v1)が使われる
		chatModel, err := openaimodel.NewChatModel(ctx, &openaimodel.ChatModelConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.ModelName,
		})
		if err != nil {
			return nil, fmt.Errorf("Failed to create openai-compatible chat model for %s: %w", providerType, err)
		}
		return chatModel, nil
	case ProviderAnthropic, ProviderClaude:
		maxTokens := cfg.MaxTokens
		if maxTokens == 0 {
			maxTokens = defaultMaxTokens
		}
		chatModel, err := claudemodel.NewChatModel(ctx, &claudemodel.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.ModelName,
			MaxTokens: maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("Failed to create claude chat model: %w", err)
		}
		return chatModel, nil
	case ProviderGemini, ProviderGoogle:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("Failed to create genai client: %w", err)
		}
		chatModel, err := geminimodel.NewChatModel(ctx, &geminimodel.Config{
			Client: client,
			Model:  cfg.ModelName,
		})
		if err != nil {
			return nil, fmt.Errorf("Failed to create gemini chat model: %w", err)
		}
		return chatModel, nil
	case ProviderDeepSeek:
		chatModel, err := deepseekmodel.NewChatModel(ctx, &deepseekmodel.ChatModelConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.ModelName,
		})
		if err != nil {
			return nil, fmt.Errorf("Failed to create deepseek chat model: %w", err)
		}
		return chatModel, nil
	case ProviderQwen:
		chatModel, err := qwenmodel.NewChatModel(ctx, &qwenmodel.ChatModelConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.ModelName,
		})
		if err != nil {
			return nil, fmt.Errorf("Failed to create qwen chat model: %w", err)
		}
		return chatModel, nil
	case ProviderOpenRouter:
		chatModel, err := openroutermodel.NewChatModel(ctx, &openroutermodel.Config{
			APIKey: cfg.APIKey,
			Model:  cfg.ModelName,
		})
		if err != nil {
			return nil, fmt.Errorf("Failed to create openrouter chat model: %w", err)
		}
		return chatModel, nil
	case ProviderOllama:
		chatModel, err := ollamamodel.NewChatModel(ctx, &ollamamodel.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.ModelName,
		})
		if err != nil {
			return nil, fmt.Errorf("Failed to create ollama chat model: %w", err)
		}
		return chatModel, nil
	default:
		return nil, fmt.Errorf("Unsupported provider type: %s", cfg.Type)
	}
}

// NewEmbedder は指定された設定に基づいて Eino Embedder を生成。
func NewEmbedder(ctx context.Context, cfg ProviderConfig) (embedding.Embedder, error) {
	providerType := ProviderType(strings.ToLower(string(cfg.Type)))
	switch providerType {
	case ProviderOllama:
		emb, err := ollamaemb.NewEmbedder(ctx, &ollamaemb.EmbeddingConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.ModelName,
		})
		if err != nil {
			return nil, fmt.Errorf("Failed to create ollama embedder: %w", err)
		}
		return emb, nil
	case ProviderOpenAI, ProviderAzure, ProviderMeta, ProviderMistral,
		ProviderDeepSeek, ProviderQwen, ProviderGroq, ProviderLocal:
		emb, err := openaiemb.NewEmbedder(ctx, &openaiemb.EmbeddingConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.ModelName,
		})
		if err != nil {
			return nil, fmt.Errorf("Failed to create openai-compatible embedder for %s: %w", providerType, err)
		}
		return emb, nil
	default:
		return nil, fmt.Errorf("Unsupported provider type for embedding: %s", cfg.Type)
	}
}
