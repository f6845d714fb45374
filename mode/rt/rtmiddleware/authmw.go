package rtmiddleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/t-kawata/intelligraph/config"
	"github.com/t-kawata/intelligraph/enum/rterr"
	"github.com/t-kawata/intelligraph/lib/eventbus"
	"github.com/t-kawata/intelligraph/lib/httpclient"
	"github.com/t-kawata/intelligraph/mode/rt/rtres"
	"github.com/t-kawata/intelligraph/mode/rt/rtutil"
	"github.com/t-kawata/intelligraph/pkg/docstore"
	"github.com/t-kawata/intelligraph/pkg/graphrag/ingestion"
	"github.com/t-kawata/intelligraph/pkg/graphrag/jobs"
	"github.com/t-kawata/intelligraph/pkg/graphrag/query"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const UTIL_KEY = "RUTIL"

const JWT_U_KEY = "JWT_U"

// Deps は、リクエスト処理に必要な共有コンポーネント一式です。
type Deps struct {
	Logger       *zap.Logger
	Env          *config.Env
	Client       *httpclient.HttpClient
	Hostname     *string
	DB           *gorm.DB
	SKey         *string
	Store        *docstore.Store
	Tracker      *jobs.Tracker
	Orchestrator *query.Orchestrator
	Pipeline     *ingestion.Pipeline
	Bus          *eventbus.EventBus
}

func AuthMiddleware(r *gin.Engine, deps *Deps) gin.HandlerFunc {
	authSkipTargets := []string{
		"/v1/usrs/auth",
	}
	return func(c *gin.Context) {
		u := initRequest(deps)
		ju := &rtutil.JwtUsr{}
		fp := c.FullPath()
		if slices.Contains(authSkipTargets, fp) {
			c.Set(UTIL_KEY, u)
			c.Set(JWT_U_KEY, ju)
			c.Next()
			return
		}
		token := rtutil.GetToken(c)
		res := rtres.DummyRes{}
		if len(token) <= 100 || !rtutil.IsJwtFormat(token) {
			c.Set(UTIL_KEY, u)
			c.Set(JWT_U_KEY, ju)
			authFailed(c, &res)
			return
		}
		if t, err := rtutil.ParseToken(u.SKey, token); err == nil && t.Valid {
			if clames, ok := t.Claims.(jwt.MapClaims); ok {
				exp := clames["exp"].(float64)
				expt := time.Unix(int64(exp), 0)
				now := time.Now()
				if now.After(expt) {
					c.Set(UTIL_KEY, u)
					c.Set(JWT_U_KEY, ju)
					authFailed(c, &res)
					return
				}
				uid := clames["usr_id"].(float64)
				email := clames["email"].(string)
				isStaff := clames["is_staff"].(bool)
				var uID *uint = nil
				if uid > 0 {
					ui := uint(uid)
					uID = &ui
				}
				if uID == nil {
					c.Set(UTIL_KEY, u)
					c.Set(JWT_U_KEY, ju)
					authFailed(c, &res)
					return
				}
				ju = &rtutil.JwtUsr{UsrID: uID, Email: email, IsStaff: isStaff, Exp: expt}
				c.Set(JWT_U_KEY, ju)
			}
		} else {
			c.Set(UTIL_KEY, u)
			c.Set(JWT_U_KEY, ju)
			authFailed(c, &res)
			return
		}
		c.Set(UTIL_KEY, u)
		c.Next()
	}
}

func authFailed(c *gin.Context, res *rtres.DummyRes) {
	res.Errors = []rtres.Err{{Field: "auth", Code: rterr.Unauthorized.Code(), Message: rterr.Unauthorized.Msg()}}
	c.JSON(http.StatusUnauthorized, res)
	c.Abort()
}

func initRequest(deps *Deps) (u *rtutil.RtUtil) {
	u = &rtutil.RtUtil{
		Logger:       deps.Logger,
		Env:          deps.Env,
		Client:       deps.Client,
		Hostname:     deps.Hostname,
		DB:           deps.DB,
		SKey:         *deps.SKey,
		Store:        deps.Store,
		Tracker:      deps.Tracker,
		Orchestrator: deps.Orchestrator,
		Pipeline:     deps.Pipeline,
		Bus:          deps.Bus,
	}
	return
}
