package types

import (
	"time"
)

// CommunityReport はインデキシングで生成されたコミュニティ要約1件です。
// Rank はレポートの重要度で、コンテキスト採用順を決めます。
type CommunityReport struct {
	ReportID  string    `json:"report_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Rank      float64   `json:"rank"`
	Embedding []float64 `json:"embedding,omitempty"`
}

// ReportArtifact はコレクション単位のインデキシング成果物です。
type ReportArtifact struct {
	Collection string            `json:"collection"`
	CreatedAt  string            `json:"created_at"`
	Reports    []CommunityReport `json:"reports"`
}

// ContextBlock はプロンプトに注入する整形済みコンテキストの1区画です。
type ContextBlock struct {
	Label     string
	Text      string
	CharCount int
	Truncated bool
}

// RankedReport は検索でスコアリングされたレポートです。
type RankedReport struct {
	Report CommunityReport
	Score  float64
}

// StreamEvent は回答ストリームの1イベントです。
// Done=true のイベントはストリームの終端を示し、必ず1回だけ流れます。
type StreamEvent struct {
	Content string
	Done    bool
}

// TokenUsage は LLM 呼び出しのトークン消費量です。
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add は別の使用量を加算します。
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// IndexMetrics はインデキシング1回分の計測値です。
type IndexMetrics struct {
	Collection    string     `json:"collection"`
	DocCount      int        `json:"doc_count"`
	ChunkCount    int        `json:"chunk_count"`
	ReportCount   int        `json:"report_count"`
	Usage         TokenUsage `json:"usage"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    time.Time  `json:"finished_at"`
	DurationMsec  int64      `json:"duration_msec"`
	Succeeded     bool       `json:"succeeded"`
	FailureReason string     `json:"failure_reason,omitempty"`
}

// DocFile は knowledgebase 内の1ドキュメントです。
type DocFile struct {
	Filename string
	Content  string
}
