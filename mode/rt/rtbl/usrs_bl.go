package rtbl

import (
	"github.com/gin-gonic/gin"
	"github.com/t-kawata/intelligraph/mode/rt/rtreq"
	"github.com/t-kawata/intelligraph/mode/rt/rtres"
	"github.com/t-kawata/intelligraph/mode/rt/rtutil"
	"github.com/t-kawata/intelligraph/model"
)

func AuthUsr(c *gin.Context, u *rtutil.RtUtil, req *rtreq.AuthUsrReq, res *rtres.AuthUsrRes) bool {
	usr := model.Usr{}
	u.DB.Select("id", "email", "password", "is_staff").Where("`usrs`.`email` = ?", req.Email).First(&usr)
	if usr.ID == 0 || len(usr.Password) == 0 || !u.IsEqualHashAndPassword(usr.Password, req.Password) {
		return Unauthorized(c, res)
	}
	jwtUsr := &rtutil.JwtUsr{UsrID: &usr.ID, Email: usr.Email, IsStaff: usr.IsStaff}
	token, err := rtutil.GenerateToken(u.SKey, req.Expire, jwtUsr)
	if err != nil {
		return Unauthorized(c, res)
	}
	return OK(c, &rtres.AuthUsrResData{Token: token}, res)
}
