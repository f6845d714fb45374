package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t-kawata/intelligraph/config"
	"github.com/t-kawata/intelligraph/pkg/graphrag/chunking"
	"github.com/t-kawata/intelligraph/pkg/graphrag/providers"
	"github.com/t-kawata/intelligraph/pkg/graphrag/reports"
	"github.com/t-kawata/intelligraph/pkg/graphrag/types"
)

type memStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{files: map[string][]byte{}}
}

func (s *memStore) key(collection, dir, filename string) string {
	return collection + "/" + dir + "/" + filename
}

func (s *memStore) put(collection, dir, filename, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[s.key(collection, dir, filename)] = []byte(content)
}

func (s *memStore) List(_ context.Context, collection string, dir string, re *regexp.Regexp) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := collection + "/" + dir + "/"
	var names []string
	for key := range s.files {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			name := key[len(prefix):]
			if re == nil || re.MatchString(name) {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

func (s *memStore) Read(_ context.Context, collection string, dir string, filename string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.files[s.key(collection, dir, filename)]
	if !ok {
		return nil, errors.New("not found")
	}
	return content, nil
}

func (s *memStore) Write(_ context.Context, collection string, dir string, filename string, content []byte) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.key(collection, dir, filename)
	s.files[key] = content
	return &key, nil
}

type fakeChat struct {
	reply string
	err   error
}

func (f *fakeChat) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChat) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not used")
}

func (f *fakeChat) WithTools(_ []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return f, nil
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = []float64{1, 0, 0}
	}
	return vectors, nil
}

func newTestPipeline(t *testing.T, store *memStore, chat *fakeChat, embedder *fakeEmbedder) *Pipeline {
	t.Helper()
	chunker, err := chunking.NewChunker(config.CHUNK_MAX_CHARS, config.CHUNK_OVERLAP)
	require.NoError(t, err)
	return NewPipeline(store, chunker, &providers.StaticModels{Chat: chat, Emb: embedder}, reports.NewStore(store), nil, nil)
}

func TestCountDocs(t *testing.T) {
	store := newMemStore()
	store.put("demo", config.KB_DIR_NAME, "a.txt", "text")
	store.put("demo", config.KB_DIR_NAME, "b.md", "text")
	store.put("demo", config.KB_DIR_NAME, "c.pdf", "binary")
	store.put("other", config.KB_DIR_NAME, "d.txt", "text")

	p := newTestPipeline(t, store, &fakeChat{}, &fakeEmbedder{})
	count, err := p.CountDocs(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestProcessSavesArtifactAndMetrics(t *testing.T) {
	store := newMemStore()
	store.put("demo", config.KB_DIR_NAME, "story.txt", "Alice lived in a small town. She visited the library every day.")
	chat := &fakeChat{reply: `{"title": "Alice", "content": "Alice visits the library.", "rating": 7.5}`}
	p := newTestPipeline(t, store, chat, &fakeEmbedder{})

	err := p.Process(context.Background(), "demo")
	require.NoError(t, err)

	rs := reports.NewStore(store)
	artifact, err := rs.Load(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, "demo", artifact.Collection)
	require.Len(t, artifact.Reports, 1)
	assert.Equal(t, "Alice", artifact.Reports[0].Title)
	assert.Equal(t, 7.5, artifact.Reports[0].Rank)
	assert.NotEmpty(t, artifact.Reports[0].Embedding)

	// メトリクスも保存される
	names, err := store.List(context.Background(), "demo", config.METRICS_DIR_NAME, nil)
	require.NoError(t, err)
	require.Len(t, names, 1)
	content, err := store.Read(context.Background(), "demo", config.METRICS_DIR_NAME, names[0])
	require.NoError(t, err)
	var metrics types.IndexMetrics
	require.NoError(t, json.Unmarshal(content, &metrics))
	assert.True(t, metrics.Succeeded)
	assert.Equal(t, 1, metrics.DocCount)
	assert.Equal(t, 1, metrics.ReportCount)
}

func TestProcessEmptyCollection(t *testing.T) {
	store := newMemStore()
	p := newTestPipeline(t, store, &fakeChat{}, &fakeEmbedder{})
	err := p.Process(context.Background(), "empty")
	require.Error(t, err)

	// 失敗してもメトリクスは残る
	names, err := store.List(context.Background(), "empty", config.METRICS_DIR_NAME, nil)
	require.NoError(t, err)
	require.Len(t, names, 1)
	content, err := store.Read(context.Background(), "empty", config.METRICS_DIR_NAME, names[0])
	require.NoError(t, err)
	var metrics types.IndexMetrics
	require.NoError(t, json.Unmarshal(content, &metrics))
	assert.False(t, metrics.Succeeded)
	assert.NotEmpty(t, metrics.FailureReason)
}

func TestProcessGenerateFailure(t *testing.T) {
	store := newMemStore()
	store.put("demo", config.KB_DIR_NAME, "story.txt", "Some content here.")
	p := newTestPipeline(t, store, &fakeChat{err: errors.New("rate limited")}, &fakeEmbedder{})
	err := p.Process(context.Background(), "demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestGroupChunks(t *testing.T) {
	var chunks []chunking.Chunk
	for i := 0; i < 10; i++ {
		chunks = append(chunks, chunking.Chunk{Index: i, Text: fmt.Sprintf("chunk %d", i)})
	}
	groups := groupChunks(chunks, 4)
	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 4)
	assert.Len(t, groups[1], 4)
	assert.Len(t, groups[2], 2)
	assert.Equal(t, 0, groups[0][0].Index)
	assert.Equal(t, 8, groups[2][0].Index)

	assert.Empty(t, groupChunks(nil, 4))
	// size <= 0 は 1 として扱う
	assert.Len(t, groupChunks(chunks, 0), 10)
}

func TestParseReport(t *testing.T) {
	r := parseReport(0, `{"title": "T", "content": "C", "rating": 3.5}`)
	assert.Equal(t, "0", r.ReportID)
	assert.Equal(t, "T", r.Title)
	assert.Equal(t, "C", r.Content)
	assert.Equal(t, 3.5, r.Rank)

	// コードフェンス付きのJSONも受け付ける
	r = parseReport(1, "```json\n{\"title\": \"Fenced\", \"content\": \"Body\", \"rating\": 2}\n```")
	assert.Equal(t, "Fenced", r.Title)
	assert.Equal(t, 2.0, r.Rank)

	// JSONとして解釈できない出力は全文を本文として扱う
	r = parseReport(2, "plain text answer")
	assert.Equal(t, "Community 2", r.Title)
	assert.Equal(t, "plain text answer", r.Content)
	assert.Zero(t, r.Rank)

	// 壊れたJSONも本文フォールバック
	r = parseReport(3, `{"title": broken`)
	assert.Equal(t, "Community 3", r.Title)
	assert.Zero(t, r.Rank)
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSONObject(`prefix {"a":1} suffix`))
	assert.Empty(t, extractJSONObject("no braces"))
	assert.Empty(t, extractJSONObject("} reversed {"))
}
