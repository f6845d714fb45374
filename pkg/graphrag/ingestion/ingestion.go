// Package ingestion は、コレクションのドキュメントからコミュニティレポートを
// 生成するインデキシングパイプラインを提供します。
// 流れ: ドキュメント読込 → チャンク分割 → コミュニティ化 → レポート生成（並列）
// → レポート埋め込み → 成果物保存 → メトリクス保存。
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/t-kawata/intelligraph/config"
	"github.com/t-kawata/intelligraph/lib/common"
	"github.com/t-kawata/intelligraph/lib/eventbus"
	"github.com/t-kawata/intelligraph/pkg/graphrag/chunking"
	"github.com/t-kawata/intelligraph/pkg/graphrag/contextbuild"
	"github.com/t-kawata/intelligraph/pkg/graphrag/llm"
	"github.com/t-kawata/intelligraph/pkg/graphrag/providers"
	"github.com/t-kawata/intelligraph/pkg/graphrag/reports"
	"github.com/t-kawata/intelligraph/pkg/graphrag/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProgressEventName は進捗通知イベント名です。
const ProgressEventName = "index.progress"

// ProgressEvent は進捗通知のペイロードです。
type ProgressEvent struct {
	Collection string
	Progress   int
}

// DocStore はドキュメントと成果物の読み書きを行う外部コラボレータです。
type DocStore interface {
	contextbuild.DocSource
	Write(ctx context.Context, collection string, dir string, filename string, content []byte) (*string, error)
}

// Pipeline はインデキシングパイプラインです。
type Pipeline struct {
	store   DocStore
	chunker *chunking.Chunker
	models  providers.ModelSource
	reports *reports.Store
	bus     *eventbus.EventBus
	logger  *zap.Logger
}

// NewPipeline は新しい Pipeline を作成します。
func NewPipeline(
	store DocStore,
	chunker *chunking.Chunker,
	models providers.ModelSource,
	reportStore *reports.Store,
	bus *eventbus.EventBus,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		store:   store,
		chunker: chunker,
		models:  models,
		reports: reportStore,
		bus:     bus,
		logger:  logger,
	}
}

var ingestibleRegexp = regexp.MustCompile(`(?i)\.(txt|md|markdown)$`)

// CountDocs はコレクション内のインデックス可能なドキュメント数を返します。
func (p *Pipeline) CountDocs(ctx context.Context, collection string) (int, error) {
	names, err := p.store.List(ctx, collection, config.KB_DIR_NAME, ingestibleRegexp)
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// Process はコレクション全体をインデキシングします。
// 成功時は成果物とメトリクスを保存します。失敗時もメトリクスは残します。
func (p *Pipeline) Process(ctx context.Context, collection string) error {
	startedAt := time.Now()
	metrics := types.IndexMetrics{Collection: collection, StartedAt: startedAt}

	err := p.process(ctx, collection, &metrics)

	metrics.FinishedAt = time.Now()
	metrics.DurationMsec = metrics.FinishedAt.Sub(startedAt).Milliseconds()
	metrics.Succeeded = err == nil
	if err != nil {
		metrics.FailureReason = err.Error()
	}
	p.saveMetrics(collection, &metrics)
	return err
}

func (p *Pipeline) process(ctx context.Context, collection string, metrics *types.IndexMetrics) error {
	docs, err := p.loadDocs(ctx, collection)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("No text files found in knowledgebase for %s", collection)
	}
	metrics.DocCount = len(docs)
	p.progress(collection, 10)

	var chunks []chunking.Chunk
	for _, doc := range docs {
		chunks = append(chunks, p.chunker.Split(doc.Content)...)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("Documents in %s produced no chunks", collection)
	}
	metrics.ChunkCount = len(chunks)
	p.progress(collection, 20)

	communities := groupChunks(chunks, config.COMMUNITY_CHUNK_COUNT)
	if p.logger != nil {
		p.logger.Info("Generating community reports",
			zap.String("collection", collection),
			zap.Int("docs", len(docs)),
			zap.Int("chunks", len(chunks)),
			zap.Int("communities", len(communities)))
	}

	generated, usage, err := p.generateReports(ctx, collection, communities)
	metrics.Usage.Add(usage)
	if err != nil {
		return err
	}
	p.progress(collection, 80)

	embUsage, err := p.embedReports(ctx, collection, generated)
	metrics.Usage.Add(embUsage)
	if err != nil {
		return err
	}
	metrics.ReportCount = len(generated)
	p.progress(collection, 90)

	artifact := &types.ReportArtifact{
		Collection: collection,
		CreatedAt:  common.GetNowStr(),
		Reports:    generated,
	}
	if err := p.reports.Save(ctx, artifact); err != nil {
		return err
	}
	p.progress(collection, 100)
	return nil
}

// loadDocs は knowledgebase 内のテキストドキュメントを読み込みます。
// 読み出しに失敗したファイルはスキップします。
func (p *Pipeline) loadDocs(ctx context.Context, collection string) ([]types.DocFile, error) {
	names, err := p.store.List(ctx, collection, config.KB_DIR_NAME, ingestibleRegexp)
	if err != nil {
		return nil, fmt.Errorf("Failed to list documents for %s: %w", collection, err)
	}
	var docs []types.DocFile
	for _, name := range names {
		content, err := p.store.Read(ctx, collection, config.KB_DIR_NAME, name)
		if err != nil {
			if p.logger != nil {
				p.logger.Warn("Skipping unreadable document", zap.String("file", name), zap.Error(err))
			}
			continue
		}
		if strings.TrimSpace(string(content)) == "" {
			continue
		}
		docs = append(docs, types.DocFile{Filename: name, Content: string(content)})
	}
	return docs, nil
}

// groupChunks は、連続するチャンクを size 件ずつのコミュニティにまとめます。
func groupChunks(chunks []chunking.Chunk, size int) [][]chunking.Chunk {
	if size <= 0 {
		size = 1
	}
	var groups [][]chunking.Chunk
	for i := 0; i < len(chunks); i += size {
		end := i + size
		if end > len(chunks) {
			end = len(chunks)
		}
		groups = append(groups, chunks[i:end])
	}
	return groups
}

const reportSystemPrompt = "You are an analyst writing community reports over document fragments.\n" +
	"Given a set of text fragments, write one report that summarizes the entities, facts and " +
	"relationships they describe.\n" +
	"Respond with a single JSON object: " +
	`{"title": "<short descriptive title>", "content": "<report body>", "rating": <importance 0.0-10.0>}` + "\n" +
	"Respond with JSON only, no surrounding text."

type reportPayload struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Rating  float64 `json:"rating"`
}

// generateReports は、各コミュニティのレポートを並列に生成します。
// 生成順に関わらず、返り値はコミュニティの元の順序を保ちます。
func (p *Pipeline) generateReports(ctx context.Context, collection string, communities [][]chunking.Chunk) ([]types.CommunityReport, types.TokenUsage, error) {
	chat, err := p.models.ChatModel(ctx, collection)
	if err != nil {
		return nil, types.TokenUsage{}, err
	}
	results := make([]types.CommunityReport, len(communities))
	usages := make([]types.TokenUsage, len(communities))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.INGEST_CONCURRENCY)
	for i, community := range communities {
		g.Go(func() error {
			var fragments []string
			for _, c := range community {
				fragments = append(fragments, c.Text)
			}
			userPrompt := fmt.Sprintf("FRAGMENTS\n%s", strings.Join(fragments, "\n---\n"))
			raw, usage, err := llm.GenerateWithUsage(gctx, chat, reportSystemPrompt, userPrompt)
			usages[i] = usage
			if err != nil {
				return fmt.Errorf("Failed to generate report for community %d: %w", i, err)
			}
			results[i] = parseReport(i, raw)
			return nil
		})
	}
	var total types.TokenUsage
	err = g.Wait()
	for _, u := range usages {
		total.Add(u)
	}
	if err != nil {
		return nil, total, err
	}
	return results, total, nil
}

// parseReport は LLM の出力をレポートに変換します。
// JSON として解釈できない出力は、全文をレポート本文として扱います。
func parseReport(index int, raw string) types.CommunityReport {
	report := types.CommunityReport{
		ReportID: fmt.Sprintf("%d", index),
		Title:    fmt.Sprintf("Community %d", index),
		Content:  strings.TrimSpace(raw),
		Rank:     0,
	}
	jsonPart := extractJSONObject(raw)
	if jsonPart == "" {
		return report
	}
	var payload reportPayload
	if err := json.Unmarshal([]byte(jsonPart), &payload); err != nil {
		return report
	}
	if strings.TrimSpace(payload.Title) != "" {
		report.Title = strings.TrimSpace(payload.Title)
	}
	if strings.TrimSpace(payload.Content) != "" {
		report.Content = strings.TrimSpace(payload.Content)
	}
	report.Rank = contextbuild.CoerceRank(payload.Rating)
	return report
}

// extractJSONObject は、テキストから最初の JSON オブジェクトらしき範囲を切り出します。
// コードフェンスで囲まれた出力にも対応します。
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

// embedReports は、全レポート本文の埋め込みを一括生成して書き込みます。
func (p *Pipeline) embedReports(ctx context.Context, collection string, generated []types.CommunityReport) (types.TokenUsage, error) {
	if len(generated) == 0 {
		return types.TokenUsage{}, nil
	}
	embedder, err := p.models.Embedder(ctx, collection)
	if err != nil {
		return types.TokenUsage{}, err
	}
	texts := make([]string, len(generated))
	for i, r := range generated {
		texts[i] = fmt.Sprintf("%s\n%s", r.Title, r.Content)
	}
	vectors, usage, err := llm.EmbedWithUsage(ctx, embedder, texts)
	if err != nil {
		return usage, fmt.Errorf("Failed to embed reports: %w", err)
	}
	if len(vectors) != len(generated) {
		return usage, fmt.Errorf("Embedder returned %d vectors for %d reports", len(vectors), len(generated))
	}
	for i := range generated {
		generated[i].Embedding = vectors[i]
	}
	return usage, nil
}

// progress は進捗をイベントバスに通知します。購読者がいない場合のエラーは無視します。
func (p *Pipeline) progress(collection string, progress int) {
	if p.bus == nil {
		return
	}
	_ = eventbus.Emit(p.bus, ProgressEventName, ProgressEvent{Collection: collection, Progress: progress})
}

// saveMetrics はインデキシング1回分のメトリクスJSONを保存します。
// メトリクス保存の失敗はインデキシング自体を失敗させません。
func (p *Pipeline) saveMetrics(collection string, metrics *types.IndexMetrics) {
	content, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return
	}
	filename := fmt.Sprintf("%s_ingestion_%d.json", collection, metrics.StartedAt.Unix())
	if _, err := p.store.Write(context.Background(), collection, config.METRICS_DIR_NAME, filename, content); err != nil {
		if p.logger != nil {
			p.logger.Warn("Failed to save ingestion metrics", zap.String("collection", collection), zap.Error(err))
		}
	}
}
