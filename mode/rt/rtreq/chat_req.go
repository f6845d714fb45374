package rtreq

import (
	"github.com/gin-gonic/gin"
	"github.com/t-kawata/intelligraph/mode/rt/rtres"
	"github.com/t-kawata/intelligraph/mode/rt/rtutil"
)

type ChatMsg struct {
	Role    string `json:"role" binding:"required,oneof=system user assistant"`
	Content string `json:"content" binding:"required"`
}

type ChatReq struct {
	Collection string    `json:"index_name" binding:"required,collectionname"`
	Messages   []ChatMsg `json:"messages" binding:"required,min=1,dive"`
}

// LastUserContent は、最後の user ロールメッセージの本文を返します。
func (r *ChatReq) LastUserContent() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			return r.Messages[i].Content
		}
	}
	return ""
}

func ChatReqBind(c *gin.Context, u *rtutil.RtUtil) (ChatReq, rtres.DummyRes, bool) {
	ok := true
	req := ChatReq{}
	res := rtres.DummyRes{Errors: []rtres.Err{}}
	if err := c.ShouldBindJSON(&req); err != nil {
		res.Errors = u.GetValidationErrs(err)
		ok = false
	}
	return req, res, ok
}

type AskReq struct {
	Collection string `json:"index_name" binding:"required,collectionname"`
	Question   string `json:"question" binding:"required"`
}

func AskReqBind(c *gin.Context, u *rtutil.RtUtil) (AskReq, rtres.AskRes, bool) {
	ok := true
	req := AskReq{}
	res := rtres.AskRes{Errors: []rtres.Err{}}
	if err := c.ShouldBindJSON(&req); err != nil {
		res.Errors = u.GetValidationErrs(err)
		ok = false
	}
	return req, res, ok
}
