package contextbuild

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t-kawata/intelligraph/config"
	"github.com/t-kawata/intelligraph/pkg/graphrag/types"
)

func TestCoerceRank(t *testing.T) {
	assert.Equal(t, 8.5, CoerceRank(8.5))
	assert.Equal(t, 7.0, CoerceRank(float32(7)))
	assert.Equal(t, 3.0, CoerceRank(3))
	assert.Equal(t, 4.0, CoerceRank(int64(4)))
	assert.Equal(t, 6.5, CoerceRank(json.Number("6.5")))
	assert.Equal(t, 9.0, CoerceRank(" 9 "))
	assert.Equal(t, 0.0, CoerceRank("high"))
	assert.Equal(t, 0.0, CoerceRank(nil))
	assert.Equal(t, 0.0, CoerceRank([]string{"8"}))
	assert.Equal(t, 0.0, CoerceRank(json.Number("abc")))
}

func TestSortedByRankIsStable(t *testing.T) {
	reports := []types.CommunityReport{
		{ReportID: "a", Rank: 5},
		{ReportID: "b", Rank: 9},
		{ReportID: "c", Rank: 5},
		{ReportID: "d", Rank: 1},
	}
	sorted := SortedByRank(reports)
	require.Len(t, sorted, 4)
	assert.Equal(t, "b", sorted[0].ReportID)
	// 同ランクは入力順を保つ
	assert.Equal(t, "a", sorted[1].ReportID)
	assert.Equal(t, "c", sorted[2].ReportID)
	assert.Equal(t, "d", sorted[3].ReportID)
	// 入力スライスは変更しない
	assert.Equal(t, "a", reports[0].ReportID)
}

func TestRankAndFormatEmpty(t *testing.T) {
	block := RankAndFormat(nil, 1000, 6)
	assert.Equal(t, ReportsLabel, block.Label)
	assert.Empty(t, block.Text)
	assert.Zero(t, block.CharCount)
	assert.False(t, block.Truncated)
}

func TestRankAndFormatOrdersByRank(t *testing.T) {
	reports := []types.CommunityReport{
		{ReportID: "low", Title: "Low", Content: "low content", Rank: 1},
		{ReportID: "high", Title: "High", Content: "high content", Rank: 9},
	}
	block := RankAndFormat(reports, 10000, 6)
	require.NotEmpty(t, block.Text)
	assert.False(t, block.Truncated)
	assert.Less(t, strings.Index(block.Text, "Id: high"), strings.Index(block.Text, "Id: low"))
	assert.Contains(t, block.Text, "[Report 1] Title: High")
	assert.Contains(t, block.Text, "[Report 2] Title: Low")
	assert.Equal(t, utf8.RuneCountInString(block.Text), block.CharCount)
}

func TestRankAndFormatRespectsMaxCount(t *testing.T) {
	var reports []types.CommunityReport
	for i := 0; i < 10; i++ {
		reports = append(reports, types.CommunityReport{
			ReportID: fmt.Sprintf("r%d", i),
			Title:    fmt.Sprintf("Report %d", i),
			Content:  "content",
			Rank:     float64(10 - i),
		})
	}
	block := RankAndFormat(reports, 100000, 3)
	assert.Contains(t, block.Text, "Id: r0")
	assert.Contains(t, block.Text, "Id: r2")
	assert.NotContains(t, block.Text, "Id: r3")
}

func TestRankAndFormatBudget(t *testing.T) {
	big := strings.Repeat("あ", 600)
	reports := []types.CommunityReport{
		{ReportID: "r1", Title: "First", Content: big, Rank: 9},
		{ReportID: "r2", Title: "Second", Content: big, Rank: 5},
	}

	// 1件目は収まり、2件目の残量が headroom を超えるため先頭部分が切り出される
	block := RankAndFormat(reports, 1000, 6)
	assert.True(t, block.Truncated)
	assert.LessOrEqual(t, block.CharCount, 1000)
	assert.Contains(t, block.Text, "Id: r1")
	assert.Contains(t, block.Text, "[Report 2]")

	// 残量が headroom 以下なら2件目は丸ごと捨てられる
	tight := utf8.RuneCountInString(fmt.Sprintf("[Report 1] Title: First | Id: r1 | Rank: 9\n%s\n", big)) + 50
	require.LessOrEqual(t, 50, config.REPORTS_TRUNCATE_HEADROOM)
	blockTight := RankAndFormat(reports, tight, 6)
	assert.True(t, blockTight.Truncated)
	assert.Contains(t, blockTight.Text, "Id: r1")
	assert.NotContains(t, blockTight.Text, "[Report 2]")
}

func TestRankAndFormatFillsMissingFields(t *testing.T) {
	reports := []types.CommunityReport{{Content: "body", Rank: 2}}
	block := RankAndFormat(reports, 1000, 6)
	assert.Contains(t, block.Text, "Title: report")
	assert.Contains(t, block.Text, "Id: unknown")
}

type fakeDocSource struct {
	files   map[string]string
	listErr error
	readErr map[string]error
}

func (f *fakeDocSource) List(_ context.Context, _ string, _ string, _ *regexp.Regexp) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var names []string
	for name := range f.files {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeDocSource) Read(_ context.Context, _ string, _ string, filename string) ([]byte, error) {
	if err, ok := f.readErr[filename]; ok {
		return nil, err
	}
	return []byte(f.files[filename]), nil
}

func TestLoadFallbackText(t *testing.T) {
	src := &fakeDocSource{files: map[string]string{"doc.txt": "hello world"}}
	block := LoadFallbackText(context.Background(), src, "demo", 1000)
	assert.Equal(t, RawTextLabel, block.Label)
	assert.Contains(t, block.Text, "FILE: doc.txt")
	assert.Contains(t, block.Text, "hello world")
	assert.False(t, block.Truncated)
}

func TestLoadFallbackTextSkipsFailedReads(t *testing.T) {
	src := &fakeDocSource{
		files:   map[string]string{"ok.txt": "readable", "broken.txt": "never seen"},
		readErr: map[string]error{"broken.txt": errors.New("read failed")},
	}
	block := LoadFallbackText(context.Background(), src, "demo", 1000)
	assert.Contains(t, block.Text, "readable")
	assert.NotContains(t, block.Text, "never seen")
}

func TestLoadFallbackTextListError(t *testing.T) {
	src := &fakeDocSource{listErr: errors.New("storage down")}
	block := LoadFallbackText(context.Background(), src, "demo", 1000)
	assert.Empty(t, block.Text)
	assert.False(t, block.Truncated)
}

func TestLoadFallbackTextHardCut(t *testing.T) {
	src := &fakeDocSource{files: map[string]string{"big.txt": strings.Repeat("い", 500)}}
	block := LoadFallbackText(context.Background(), src, "demo", 100)
	assert.True(t, block.Truncated)
	assert.Equal(t, 100, block.CharCount)
	assert.Equal(t, 100, utf8.RuneCountInString(block.Text))
}

func TestAssemble(t *testing.T) {
	reports := types.ContextBlock{Label: ReportsLabel, Text: "report text"}
	raw := types.ContextBlock{Label: RawTextLabel, Text: "raw text"}

	combined, isEmpty := Assemble(reports, raw)
	assert.False(t, isEmpty)
	assert.Contains(t, combined, ReportsLabel)
	assert.Contains(t, combined, RawTextLabel)
	assert.Less(t, strings.Index(combined, ReportsLabel), strings.Index(combined, RawTextLabel))

	combined, isEmpty = Assemble(types.ContextBlock{Label: ReportsLabel}, raw)
	assert.False(t, isEmpty)
	assert.NotContains(t, combined, ReportsLabel)

	_, isEmpty = Assemble(
		types.ContextBlock{Label: ReportsLabel, Text: "   "},
		types.ContextBlock{Label: RawTextLabel, Text: "\n"},
	)
	assert.True(t, isEmpty)
}
