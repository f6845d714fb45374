// Package reports は、インデキシング成果物（コミュニティレポート）の保存と読み出しを行います。
package reports

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/t-kawata/intelligraph/config"
	"github.com/t-kawata/intelligraph/pkg/graphrag/types"
)

// ArtifactFileName はコレクションの output ディレクトリに置く成果物ファイル名です。
const ArtifactFileName = "community_reports.json"

// FileStore は成果物の読み書きを行う外部コラボレータです。
type FileStore interface {
	Write(ctx context.Context, collection string, dir string, filename string, content []byte) (*string, error)
	Read(ctx context.Context, collection string, dir string, filename string) ([]byte, error)
}

// Store はコレクション単位の成果物ストアです。
type Store struct {
	files FileStore
}

// NewStore は新しい Store を作成します。
func NewStore(files FileStore) *Store {
	return &Store{files: files}
}

// Save は成果物をコレクションの output ディレクトリに保存します。
func (s *Store) Save(ctx context.Context, artifact *types.ReportArtifact) error {
	content, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("Failed to marshal report artifact: %w", err)
	}
	if _, err := s.files.Write(ctx, artifact.Collection, config.OUTPUT_DIR_NAME, ArtifactFileName, content); err != nil {
		return fmt.Errorf("Failed to save report artifact for %s: %w", artifact.Collection, err)
	}
	return nil
}

// Load はコレクションの成果物を読み出します。
// インデキシングが一度も行われていない場合はエラーを返します。
func (s *Store) Load(ctx context.Context, collection string) (*types.ReportArtifact, error) {
	content, err := s.files.Read(ctx, collection, config.OUTPUT_DIR_NAME, ArtifactFileName)
	if err != nil {
		return nil, fmt.Errorf("Failed to load report artifact for %s: %w", collection, err)
	}
	var artifact types.ReportArtifact
	if err := json.Unmarshal(content, &artifact); err != nil {
		return nil, fmt.Errorf("Failed to parse report artifact for %s: %w", collection, err)
	}
	return &artifact, nil
}
