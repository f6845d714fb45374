package rtbl

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/t-kawata/intelligraph/lib/common"
	"github.com/t-kawata/intelligraph/mode/rt/rtreq"
	"github.com/t-kawata/intelligraph/mode/rt/rtres"
	"github.com/t-kawata/intelligraph/mode/rt/rtstream"
	"github.com/t-kawata/intelligraph/mode/rt/rtutil"
	"github.com/t-kawata/intelligraph/pkg/graphrag/query"
)

const (
	MIN_STREAM_DELAY = 5 * time.Millisecond // トークン間の最低送信間隔
	TOKEN_SIZE       = 8                    // 演出としてのトークン区切りを何文字単位にするか
	SSE_MODEL_NAME   = "intelligraph-chat"
)

// Chat は、コンテキスト組み立て済みの回答を OpenAI 互換の SSE で流します。
func Chat(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr, req *rtreq.ChatReq, res *rtres.DummyRes) bool {
	question := req.LastUserContent()
	events, err := u.Orchestrator.StreamQuery(c.Request.Context(), *ju.UsrID, req.Collection, question)
	if err != nil {
		if errors.Is(err, query.ErrValidation) {
			return BadRequestCustomMsg(c, res, err.Error())
		}
		if errors.Is(err, query.ErrUnauthorized) {
			return Forbidden(c, res)
		}
		return InternalServerErrorCustomMsg(c, res, fmt.Sprintf("Failed to start answer stream: %s", err.Error()))
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Nginx対策
	streamWriter := rtstream.NewStreamWriter(c.Request.Context(), MIN_STREAM_DELAY)
	requestUUID := common.GenUUID() // リクエスト単位で共通のID
	// ストリーム送信ゴルーチン
	go func() {
		defer streamWriter.Done()
		ticker := time.NewTicker(streamWriter.MinDelay())
		defer ticker.Stop()
		for {
			select {
			case token, ok := <-streamWriter.Ch():
				if !ok {
					// チャンネルクローズ = 終了
					fmt.Fprint(c.Writer, rtstream.CreateSSEChunk(*requestUUID, SSE_MODEL_NAME, "", true))
					c.Writer.Flush()
					return
				}
				chunk := rtstream.CreateSSEChunk(*requestUUID, SSE_MODEL_NAME, token, false)
				fmt.Fprint(c.Writer, chunk)
				c.Writer.Flush()
				// 最低遅延を保証
				<-ticker.C
			case <-c.Request.Context().Done():
				return
			}
		}
	}()
	for evt := range events {
		if evt.Done {
			break
		}
		for _, token := range rtstream.Tokenize(evt.Content, TOKEN_SIZE) {
			streamWriter.Write(token)
		}
	}
	streamWriter.Close()
	streamWriter.Wait()
	return true
}

// Ask は、コンテキスト組み立て済みの回答を1回のレスポンスで返します。
func Ask(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr, req *rtreq.AskReq, res *rtres.AskRes) bool {
	answer, reports, usage, err := u.Orchestrator.Ask(c.Request.Context(), *ju.UsrID, req.Collection, req.Question)
	if err != nil {
		if errors.Is(err, query.ErrValidation) {
			return BadRequestCustomMsg(c, res, err.Error())
		}
		if errors.Is(err, query.ErrUnauthorized) {
			return Forbidden(c, res)
		}
		return InternalServerErrorCustomMsg(c, res, fmt.Sprintf("Failed to answer: %s", err.Error()))
	}
	data := rtres.AskResData{}
	return OK(c, data.Of(answer, reports, usage), res)
}
