package rtbl

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "report.txt", SanitizeFileName("report.txt"))
	// パス要素は落とす
	assert.Equal(t, "notes.md", SanitizeFileName("../../etc/notes.md"))
	// 危険な文字はハイフンに置換する
	assert.Equal(t, "my-file-1-.txt", SanitizeFileName("my file (1).txt"))
	// 空になった場合はUUIDにフォールバック
	fallback := SanitizeFileName("///")
	assert.NotEmpty(t, fallback)
	assert.NotContains(t, fallback, "/")
}

func TestFileNameForUrl(t *testing.T) {
	u, err := url.Parse("https://example.com/articles/intro")
	require.NoError(t, err)

	// タイトルがあればタイトル優先
	name := FileNameForUrl(u, "Getting Started Guide")
	assert.Equal(t, "getting-started-guide.md", name)

	// タイトルがなければホストとパスから生成する
	name = FileNameForUrl(u, "")
	assert.Equal(t, "example.com-articles-intro.md", name)

	// 長いタイトルは100文字で切り詰める
	name = FileNameForUrl(u, strings.Repeat("a", 300))
	assert.Equal(t, 100+len(".md"), len(name))

	// すべて落ちた場合はUUIDにフォールバック
	name = FileNameForUrl(nil, "")
	assert.True(t, strings.HasSuffix(name, ".md"))
	assert.Greater(t, len(name), len(".md"))
}
