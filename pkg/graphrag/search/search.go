// Package search は、コミュニティレポートに対するグローバル検索を提供します。
// 質問の埋め込みと各レポートの事前計算済み埋め込みのコサイン類似度で候補を絞り、
// 絞り込んだレポートから要約回答を1回の生成で作ります。
package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/t-kawata/intelligraph/config"
	"github.com/t-kawata/intelligraph/pkg/graphrag/contextbuild"
	"github.com/t-kawata/intelligraph/pkg/graphrag/llm"
	"github.com/t-kawata/intelligraph/pkg/graphrag/providers"
	"github.com/t-kawata/intelligraph/pkg/graphrag/reports"
	"github.com/t-kawata/intelligraph/pkg/graphrag/types"
	"go.uber.org/zap"
)

// Result はグローバル検索の結果です。
type Result struct {
	Answer  string
	Reports []types.CommunityReport
	Usage   types.TokenUsage
}

// Engine はグローバル検索エンジンです。
type Engine struct {
	models  providers.ModelSource
	reports *reports.Store
	logger  *zap.Logger
}

// NewEngine は新しい Engine を作成します。
func NewEngine(models providers.ModelSource, reportStore *reports.Store, logger *zap.Logger) *Engine {
	return &Engine{models: models, reports: reportStore, logger: logger}
}

const searchSystemPrompt = "You are a helpful assistant. Summarize what the provided community reports say " +
	"in relation to the question. Base your summary only on the reports."

// Search は質問に関連するレポートと要約回答を返します。
// 成果物が存在しない場合はエラーを返します。呼び出し側で縮退継続するかを判断してください。
func (e *Engine) Search(ctx context.Context, collection string, question string) (*Result, error) {
	var usage types.TokenUsage

	artifact, err := e.reports.Load(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(artifact.Reports) == 0 {
		return &Result{Reports: []types.CommunityReport{}, Usage: usage}, nil
	}

	embedder, err := e.models.Embedder(ctx, collection)
	if err != nil {
		return nil, err
	}
	vectors, embUsage, err := llm.EmbedWithUsage(ctx, embedder, []string{question})
	usage.Add(embUsage)
	if err != nil {
		return nil, fmt.Errorf("Failed to embed question: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("Embedder returned no vector for question")
	}
	qvec := vectors[0]

	ranked := make([]types.RankedReport, 0, len(artifact.Reports))
	for _, r := range artifact.Reports {
		score := Cosine(qvec, r.Embedding)
		ranked = append(ranked, types.RankedReport{Report: r, Score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > config.SEARCH_TOP_K {
		ranked = ranked[:config.SEARCH_TOP_K]
	}

	selected := make([]types.CommunityReport, 0, len(ranked))
	for _, rr := range ranked {
		r := rr.Report
		r.Embedding = nil // プロンプトやレスポンスにベクトルを持ち回らない
		selected = append(selected, r)
	}

	if e.logger != nil {
		e.logger.Debug("Global search selected reports",
			zap.String("collection", collection),
			zap.Int("selected", len(selected)),
			zap.Int("total", len(artifact.Reports)))
	}

	answer, genUsage, err := e.generateNarrative(ctx, collection, question, selected)
	usage.Add(genUsage)
	if err != nil {
		// 要約生成の失敗はレポート取得まで巻き戻さない
		if e.logger != nil {
			e.logger.Warn("Global search narrative generation failed", zap.Error(err))
		}
		answer = ""
	}

	return &Result{Answer: answer, Reports: selected, Usage: usage}, nil
}

func (e *Engine) generateNarrative(ctx context.Context, collection string, question string, selected []types.CommunityReport) (string, types.TokenUsage, error) {
	if len(selected) == 0 {
		return "", types.TokenUsage{}, nil
	}
	block := contextbuild.RankAndFormat(selected, config.REPORTS_MAX_CHARS, config.REPORTS_MAX_COUNT)
	if strings.TrimSpace(block.Text) == "" {
		return "", types.TokenUsage{}, nil
	}
	chat, err := e.models.ChatModel(ctx, collection)
	if err != nil {
		return "", types.TokenUsage{}, err
	}
	userPrompt := fmt.Sprintf("REPORTS\n%s\n\nQUESTION\n%s", block.Text, question)
	return llm.GenerateWithUsage(ctx, chat, searchSystemPrompt, userPrompt)
}

// Cosine は2つのベクトルのコサイン類似度を返します。
// 次元が合わない場合やゼロベクトルの場合は 0 を返します。
func Cosine(a []float64, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
