// Package contextbuild は、コミュニティレポートと原文テキストから
// LLM プロンプトに注入するコンテキストを組み立てる処理を提供します。
package contextbuild

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/t-kawata/intelligraph/config"
	"github.com/t-kawata/intelligraph/pkg/graphrag/types"
)

// ReportsLabel と RawTextLabel は、コンテキスト内の区画ラベルです。
// プロンプト内の指示文が参照するため変更しないこと。
const (
	ReportsLabel = "--- COMMUNITY REPORTS ---"
	RawTextLabel = "--- RAW DOCUMENT CONTENT ---"
)

// DocSource は原文ドキュメントの列挙と読み出しを行う外部コラボレータです。
type DocSource interface {
	List(ctx context.Context, collection string, dir string, re *regexp.Regexp) ([]string, error)
	Read(ctx context.Context, collection string, dir string, filename string) ([]byte, error)
}

// CoerceRank は任意の値を順位付けに使える float64 に変換します。
// 変換できない値は 0 になります。決して失敗しません。
func CoerceRank(v any) float64 {
	switch r := v.(type) {
	case float64:
		return r
	case float32:
		return float64(r)
	case int:
		return float64(r)
	case int64:
		return float64(r)
	case json.Number:
		f, err := r.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(r), 64)
		if err != nil {
			return 0
		}
		return f
	case nil:
		return 0
	default:
		return 0
	}
}

// SortedByRank はレポートをランク降順に並べたコピーを返します。
// ソートは安定で、同ランクのレポートは入力順を保ちます。
func SortedByRank(reports []types.CommunityReport) []types.CommunityReport {
	sorted := make([]types.CommunityReport, len(reports))
	copy(sorted, reports)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rank > sorted[j].Rank
	})
	return sorted
}

// RankAndFormat はレポートをランク降順に並べ、文字数予算内で整形済みブロックを構築します。
// ソートは安定で、同ランクのレポートは入力順を保ちます。
// 予算を超える最初のブロックは、残量が headroom を超える場合のみ先頭部分を切り出して含めます。
// それ以降のブロックは一切考慮しません。
func RankAndFormat(reports []types.CommunityReport, maxChars int, maxCount int) types.ContextBlock {
	if len(reports) == 0 {
		return types.ContextBlock{Label: ReportsLabel}
	}

	sorted := SortedByRank(reports)
	if maxCount > 0 && len(sorted) > maxCount {
		sorted = sorted[:maxCount]
	}

	var chunks []string
	total := 0
	truncated := false
	for i, r := range sorted {
		title := r.Title
		if title == "" {
			title = "report"
		}
		id := r.ReportID
		if id == "" {
			id = "unknown"
		}
		block := fmt.Sprintf("[Report %d] Title: %s | Id: %s | Rank: %s\n%s\n",
			i+1, title, id, formatRank(r.Rank), strings.TrimSpace(r.Content))
		blockChars := utf8.RuneCountInString(block)
		sep := 0
		if len(chunks) > 0 {
			sep = 1 // 結合時の改行分
		}
		if total+sep+blockChars > maxChars {
			remaining := maxChars - total - sep
			if remaining > config.REPORTS_TRUNCATE_HEADROOM {
				chunks = append(chunks, string([]rune(block)[:remaining])+"\n")
			}
			truncated = true
			break
		}
		chunks = append(chunks, block)
		total += sep + blockChars
	}

	text := strings.TrimSpace(strings.Join(chunks, "\n"))
	return types.ContextBlock{
		Label:     ReportsLabel,
		Text:      text,
		CharCount: utf8.RuneCountInString(text),
		Truncated: truncated,
	}
}

// formatRank はランクを最短表現で文字列化します。
func formatRank(rank float64) string {
	return strconv.FormatFloat(rank, 'g', -1, 64)
}

// LoadFallbackText は、コレクションの knowledgebase 内のテキストドキュメントを
// 「FILE: ファイル名」ヘッダ付きで連結し、maxChars でハードカットして返します。
// 個別ファイルの読み出し失敗はスキップし、処理全体は失敗させません。
func LoadFallbackText(ctx context.Context, src DocSource, collection string, maxChars int) types.ContextBlock {
	block := types.ContextBlock{Label: RawTextLabel}
	names, err := src.List(ctx, collection, config.KB_DIR_NAME, textFileRegexp)
	if err != nil {
		return block
	}

	var texts []string
	for _, name := range names {
		content, err := src.Read(ctx, collection, config.KB_DIR_NAME, name)
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(content)) == "" {
			continue
		}
		texts = append(texts, fmt.Sprintf("FILE: %s\n%s\n", name, string(content)))
	}

	combined := strings.TrimSpace(strings.Join(texts, "\n"))
	if combined == "" {
		return block
	}
	runes := []rune(combined)
	if len(runes) > maxChars {
		runes = runes[:maxChars]
		block.Truncated = true
	}
	block.Text = string(runes)
	block.CharCount = len(runes)
	return block
}

var textFileRegexp = regexp.MustCompile(`(?i)\.(txt|md)$`)

// Assemble は2つのブロックをラベル付きで結合します。
// isEmpty は両方のブロックが空白のみの場合に true になります。
// その場合、呼び出し側は LLM を呼ばずに固定回答で打ち切るのが正です。
func Assemble(reportsBlock types.ContextBlock, rawBlock types.ContextBlock) (string, bool) {
	var parts []string
	if strings.TrimSpace(reportsBlock.Text) != "" {
		parts = append(parts, fmt.Sprintf("%s\n%s", reportsBlock.Label, reportsBlock.Text))
	}
	if strings.TrimSpace(rawBlock.Text) != "" {
		parts = append(parts, fmt.Sprintf("%s\n%s", rawBlock.Label, rawBlock.Text))
	}
	combined := strings.Join(parts, "\n\n")
	return combined, strings.TrimSpace(combined) == ""
}
