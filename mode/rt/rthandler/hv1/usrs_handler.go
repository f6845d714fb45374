package hv1

import (
	"github.com/gin-gonic/gin"
	"github.com/t-kawata/intelligraph/mode/rt/rtbl"
	"github.com/t-kawata/intelligraph/mode/rt/rtreq"
	"github.com/t-kawata/intelligraph/mode/rt/rtutil"
)

// @Tags v1 User
// @Router /v1/usrs/auth [post]
// @Summary 認証を行い、tokenを返す。
// @Description - email & password で認証し、JWT token を返す
// @Description - expire は hour で指定すること
// @Accept application/json
// @Param expire query number true "expire" example(24)
// @Param json body AuthUsrReq true "json"
// @Success 200 {object} AuthUsrRes{errors=[]int}
// @Failure 400 {object} ErrRes
// @Failure 401 {object} ErrRes
func AuthUsr(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr) {
	if req, res, ok := rtreq.AuthUsrReqBind(c, u); ok {
		rtbl.AuthUsr(c, u, &req, &res)
	} else {
		rtbl.BadRequest(c, &res)
	}
}
