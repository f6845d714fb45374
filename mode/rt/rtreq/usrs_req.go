package rtreq

import (
	"github.com/gin-gonic/gin"
	"github.com/t-kawata/intelligraph/lib/common"
	"github.com/t-kawata/intelligraph/mode/rt/rtres"
	"github.com/t-kawata/intelligraph/mode/rt/rtutil"
)

type AuthUsrReq struct {
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,max=100"`
	Expire   uint   `form:"expire" binding:"required,gte=1"`
}

func AuthUsrReqBind(c *gin.Context, u *rtutil.RtUtil) (AuthUsrReq, rtres.AuthUsrRes, bool) {
	ok := true
	req := AuthUsrReq{Expire: common.StrToUint(c.Query("expire"))}
	res := rtres.AuthUsrRes{Errors: []rtres.Err{}}
	if err := c.ShouldBindJSON(&req); err != nil {
		res.Errors = u.GetValidationErrs(err)
		ok = false
	}
	return req, res, ok
}
