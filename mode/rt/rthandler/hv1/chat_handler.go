package hv1

import (
	"github.com/gin-gonic/gin"
	"github.com/t-kawata/intelligraph/mode/rt/rtbl"
	"github.com/t-kawata/intelligraph/mode/rt/rtreq"
	"github.com/t-kawata/intelligraph/mode/rt/rtutil"
)

// @Tags v1 Chat
// @Router /v1/chat [post]
// @Summary ドキュメントに基づく回答を OpenAI 互換の SSE で流す。
// @Description - messages の最後の user メッセージを質問として扱う
// @Description - 回答本文の後に Sources チャンクが続き、data: [DONE] で終端する
// @Accept application/json
// @Param Authorization header string true "token" example(Bearer ??????????)
// @Param json body ChatReq true "json"
// @Success 200 {string} string "text/event-stream"
// @Failure 400 {object} ErrRes
// @Failure 401 {object} ErrRes
// @Failure 403 {object} ErrRes
func Chat(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr) {
	if req, res, ok := rtreq.ChatReqBind(c, u); ok {
		rtbl.Chat(c, u, ju, &req, &res)
	} else {
		rtbl.BadRequest(c, &res)
	}
}

// @Tags v1 Chat
// @Router /v1/ask [post]
// @Summary ドキュメントに基づく回答を1回のレスポンスで返す。
// @Description - コンテキストが空の場合は定型の回答を返す
// @Accept application/json
// @Param Authorization header string true "token" example(Bearer ??????????)
// @Param json body AskReq true "json"
// @Success 200 {object} AskRes{errors=[]int}
// @Failure 400 {object} ErrRes
// @Failure 401 {object} ErrRes
// @Failure 403 {object} ErrRes
func Ask(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr) {
	if req, res, ok := rtreq.AskReqBind(c, u); ok {
		rtbl.Ask(c, u, ju, &req, &res)
	} else {
		rtbl.BadRequest(c, &res)
	}
}
