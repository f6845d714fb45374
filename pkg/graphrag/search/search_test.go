package search

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t-kawata/intelligraph/config"
	"github.com/t-kawata/intelligraph/pkg/graphrag/providers"
	"github.com/t-kawata/intelligraph/pkg/graphrag/reports"
	"github.com/t-kawata/intelligraph/pkg/graphrag/types"
)

type fakeFiles struct {
	files map[string][]byte
}

func (f *fakeFiles) key(collection, dir, filename string) string {
	return collection + "/" + dir + "/" + filename
}

func (f *fakeFiles) Write(_ context.Context, collection string, dir string, filename string, content []byte) (*string, error) {
	if f.files == nil {
		f.files = map[string][]byte{}
	}
	key := f.key(collection, dir, filename)
	f.files[key] = content
	return &key, nil
}

func (f *fakeFiles) Read(_ context.Context, collection string, dir string, filename string) ([]byte, error) {
	content, ok := f.files[f.key(collection, dir, filename)]
	if !ok {
		return nil, errors.New("not found")
	}
	return content, nil
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
	vector []float64
	err    error
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = f.vector
	}
	return vectors, nil
}

func saveArtifact(t *testing.T, files *fakeFiles, artifact *types.ReportArtifact) *reports.Store {
	t.Helper()
	store := reports.NewStore(files)
	require.NoError(t, store.Save(context.Background(), artifact))
	return store
}

func TestSearchMissingArtifact(t *testing.T) {
	engine := NewEngine(&providers.StaticModels{Chat: &fakeChat{}, Emb: &fakeEmbedder{}}, reports.NewStore(&fakeFiles{}), nil)
	_, err := engine.Search(context.Background(), "demo", "question")
	assert.Error(t, err)
}

func TestSearchEmptyArtifact(t *testing.T) {
	files := &fakeFiles{}
	store := saveArtifact(t, files, &types.ReportArtifact{Collection: "demo"})
	engine := NewEngine(&providers.StaticModels{Chat: &fakeChat{}, Emb: &fakeEmbedder{}}, store, nil)

	result, err := engine.Search(context.Background(), "demo", "question")
	require.NoError(t, err)
	assert.Empty(t, result.Reports)
	assert.Empty(t, result.Answer)
}

func TestSearchRanksBySimilarity(t *testing.T) {
	files := &fakeFiles{}
	store := saveArtifact(t, files, &types.ReportArtifact{
		Collection: "demo",
		Reports: []types.CommunityReport{
			{ReportID: "far", Title: "Far", Content: "far", Embedding: []float64{0, 1, 0}},
			{ReportID: "near", Title: "Near", Content: "near", Embedding: []float64{1, 0, 0}},
		},
	})
	chat := &fakeChat{reply: "summary answer"}
	engine := NewEngine(&providers.StaticModels{Chat: chat, Emb: &fakeEmbedder{vector: []float64{1, 0, 0}}}, store, nil)

	result, err := engine.Search(context.Background(), "demo", "question")
	require.NoError(t, err)
	require.Len(t, result.Reports, 2)
	assert.Equal(t, "near", result.Reports[0].ReportID)
	assert.Equal(t, "far", result.Reports[1].ReportID)
	assert.Equal(t, "summary answer", result.Answer)
	// 選抜結果にはベクトルを持ち回らない
	assert.Nil(t, result.Reports[0].Embedding)
}

func TestSearchEmbedderFailure(t *testing.T) {
	files := &fakeFiles{}
	store := saveArtifact(t, files, &types.ReportArtifact{
		Collection: "demo",
		Reports:    []types.CommunityReport{{ReportID: "r1", Embedding: []float64{1}}},
	})
	engine := NewEngine(&providers.StaticModels{Chat: &fakeChat{}, Emb: &fakeEmbedder{err: errors.New("quota")}}, store, nil)
	_, err := engine.Search(context.Background(), "demo", "question")
	assert.Error(t, err)
}

func TestSearchNarrativeFailureDegrades(t *testing.T) {
	files := &fakeFiles{}
	store := saveArtifact(t, files, &types.ReportArtifact{
		Collection: "demo",
		Reports: []types.CommunityReport{
			{ReportID: "r1", Title: "T", Content: "body", Embedding: []float64{1, 0}},
		},
	})
	engine := NewEngine(&providers.StaticModels{Chat: &fakeChat{err: errors.New("rate limited")}, Emb: &fakeEmbedder{vector: []float64{1, 0}}}, store, nil)

	result, err := engine.Search(context.Background(), "demo", "question")
	// 要約生成の失敗はレポート取得を巻き戻さない
	require.NoError(t, err)
	require.Len(t, result.Reports, 1)
	assert.Empty(t, result.Answer)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	assert.InDelta(t, math.Sqrt2/2, Cosine([]float64{1, 0}, []float64{1, 1}), 1e-9)
	// 次元不一致とゼロベクトルは 0
	assert.Zero(t, Cosine([]float64{1, 2}, []float64{1}))
	assert.Zero(t, Cosine(nil, nil))
	assert.Zero(t, Cosine([]float64{0, 0}, []float64{1, 1}))
}

func TestArtifactRoundtrip(t *testing.T) {
	files := &fakeFiles{}
	store := reports.NewStore(files)
	artifact := &types.ReportArtifact{
		Collection: "demo",
		CreatedAt:  "2026-01-01 00:00:00",
		Reports:    []types.CommunityReport{{ReportID: "r1", Title: "T", Content: "C", Rank: 4}},
	}
	require.NoError(t, store.Save(context.Background(), artifact))

	loaded, err := store.Load(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, artifact.Collection, loaded.Collection)
	require.Len(t, loaded.Reports, 1)
	assert.Equal(t, "T", loaded.Reports[0].Title)

	// 壊れたJSONはエラー
	_, err = files.Write(context.Background(), "demo", config.OUTPUT_DIR_NAME, reports.ArtifactFileName, []byte("{broken"))
	require.NoError(t, err)
	_, err = store.Load(context.Background(), "demo")
	assert.Error(t, err)
}
