// Package query は、質問応答のオーケストレーションを提供します。
// コンテキスト組み立てパイプラインを共有する2つの経路があります。
// ストリーミング経路（対話用）と、同期回答を返すバッチ経路（評価用）です。
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/t-kawata/intelligraph/config"
	"github.com/t-kawata/intelligraph/pkg/graphrag/contextbuild"
	"github.com/t-kawata/intelligraph/pkg/graphrag/llm"
	"github.com/t-kawata/intelligraph/pkg/graphrag/providers"
	"github.com/t-kawata/intelligraph/pkg/graphrag/search"
	"github.com/t-kawata/intelligraph/pkg/graphrag/stream"
	"github.com/t-kawata/intelligraph/pkg/graphrag/types"
	"go.uber.org/zap"
)

var (
	// ErrValidation は質問またはコレクション名が欠けている場合に返されます。
	ErrValidation = errors.New("question and collection are required")
	// ErrUnauthorized はコレクションへのアクセス権がない場合に返されます。
	ErrUnauthorized = errors.New("unauthorized access to collection")
)

// Authorizer はコレクションへのアクセス可否を判定する外部コラボレータです。
type Authorizer interface {
	UserHasAccess(ctx context.Context, usrID uint, collection string) (bool, error)
}

// SearchEngine はグローバル検索エンジンです。
type SearchEngine interface {
	Search(ctx context.Context, collection string, question string) (*search.Result, error)
}

// Orchestrator は質問応答の最上位コントラクトです。
type Orchestrator struct {
	models providers.ModelSource
	engine SearchEngine
	docs   contextbuild.DocSource
	auth   Authorizer
	logger *zap.Logger
}

// NewOrchestrator は新しい Orchestrator を作成します。
func NewOrchestrator(
	models providers.ModelSource,
	engine SearchEngine,
	docs contextbuild.DocSource,
	auth Authorizer,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{models: models, engine: engine, docs: docs, auth: auth, logger: logger}
}

// systemPrompt 内の refusal 文は config.NOT_FOUND_ANSWER と一字一句一致させること。
const systemPrompt = "You are IntelliGraph.\n\n" +
	"The user has uploaded documents and you are provided with extracted CONTEXT from those documents.\n" +
	"The CONTEXT is user-provided content which you have permission to use.\n" +
	"You ARE allowed to quote exact sentences from the CONTEXT.\n" +
	"You MUST only answer using the provided CONTEXT.\n\n" +
	"If the user asks for an exact sentence or quote, you MUST quote the exact sentence from CONTEXT.\n" +
	"Do NOT refuse due to copyright. treat the CONTEXT as if it is the user's own notes.\n" +
	"If the answer is not in CONTEXT, say: I cannot find that in the uploaded document.\n"

type assembled struct {
	Text    string
	IsEmpty bool
	Reports []types.CommunityReport
	Usage   types.TokenUsage
}

// buildContext は、グローバル検索と原文フォールバックからコンテキストを組み立てます。
// 検索エンジンの失敗はレポートなしでの縮退継続に変換します。
func (o *Orchestrator) buildContext(ctx context.Context, collection string, question string) assembled {
	var a assembled

	rawBlock := contextbuild.LoadFallbackText(ctx, o.docs, collection, config.RAW_TEXT_MAX_CHARS)

	result, err := o.engine.Search(ctx, collection, question)
	if err != nil {
		if o.logger != nil {
			o.logger.Warn("Global search failed, continuing with raw text only",
				zap.String("collection", collection), zap.Error(err))
		}
	} else {
		a.Reports = contextbuild.SortedByRank(result.Reports)
		a.Usage.Add(result.Usage)
	}

	reportsBlock := contextbuild.RankAndFormat(a.Reports, config.REPORTS_MAX_CHARS, config.REPORTS_MAX_COUNT)
	a.Text, a.IsEmpty = contextbuild.Assemble(reportsBlock, rawBlock)
	return a
}

func (o *Orchestrator) guard(ctx context.Context, usrID uint, collection string, question string) error {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(collection) == "" {
		return ErrValidation
	}
	ok, err := o.auth.UserHasAccess(ctx, usrID, collection)
	if err != nil {
		return fmt.Errorf("Failed to check access to %s: %w", collection, err)
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// StreamQuery は対話用のストリーミング経路です。
// 認可と検証でのエラーはストリームを開く前に返します。
// ストリーム確立後のプロバイダ障害は、ストリーム内のイベントとして表現されます。
func (o *Orchestrator) StreamQuery(ctx context.Context, usrID uint, collection string, question string) (<-chan types.StreamEvent, error) {
	if err := o.guard(ctx, usrID, collection, question); err != nil {
		return nil, err
	}

	a := o.buildContext(ctx, collection, question)

	userPrompt := fmt.Sprintf(
		"CONTEXT\n%s\n\nQUESTION\n%s\n\nINSTRUCTIONS\n"+
			"Answer using ONLY CONTEXT. If the user asks for an exact quote, quote exact sentences from CONTEXT.",
		a.Text, question)

	chat, err := o.models.ChatModel(ctx, collection)
	if err != nil {
		return nil, err
	}

	var src stream.Source
	reader, err := llm.Stream(ctx, chat, systemPrompt, userPrompt)
	if err != nil {
		// レスポンスは既にストリーミングにコミットしているため、確立失敗もイベントで伝える
		src = &stream.FailedSource{Err: err}
	} else {
		src = &stream.EinoSource{Reader: reader}
	}
	return stream.Compose(ctx, src, a.Reports), nil
}

// Ask はバッチ経路です。1回の同期生成で回答文字列とコンテキストメタデータを返します。
// コンテキストが空の場合は LLM を呼ばずに固定回答を返します。
func (o *Orchestrator) Ask(ctx context.Context, usrID uint, collection string, question string) (string, []types.CommunityReport, types.TokenUsage, error) {
	if err := o.guard(ctx, usrID, collection, question); err != nil {
		return "", nil, types.TokenUsage{}, err
	}

	a := o.buildContext(ctx, collection, question)
	if a.IsEmpty {
		return config.NOT_FOUND_ANSWER, a.Reports, a.Usage, nil
	}

	chat, err := o.models.ChatModel(ctx, collection)
	if err != nil {
		return "", a.Reports, a.Usage, err
	}

	userPrompt := fmt.Sprintf("CONTEXT\n%s\n\nQUESTION\n%s", a.Text, question)
	answer, usage, err := llm.GenerateWithUsage(ctx, chat, systemPrompt, userPrompt)
	a.Usage.Add(usage)
	if err != nil {
		return "", a.Reports, a.Usage, fmt.Errorf("Failed to generate answer: %w", err)
	}
	return answer, a.Reports, a.Usage, nil
}
