package rt

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/t-kawata/intelligraph/mode/rt/rthandler/hv1"
	"github.com/t-kawata/intelligraph/mode/rt/rtmiddleware"
	"github.com/t-kawata/intelligraph/mode/rt/rtutil"
)

func MapRequest(r *gin.Engine, deps *rtmiddleware.Deps) {
	rtutil.RegisterValidations()

	/**********************
	 * v1 mapping
	 **********************/
	v1 := r.Group("/v1")
	v1.Use(rtmiddleware.AuthMiddleware(r, deps))
	{

		// User
		usrs := v1.Group("/usrs")
		usrs.POST("/auth", func(c *gin.Context) {
			u, ju, ok := GetUtil(c)
			if !ok {
				c.JSON(http.StatusForbidden, nil)
				return
			}
			hv1.AuthUsr(c, u, ju)
		})

		// Collection
		collections := v1.Group("/collections")
		collections.POST("/search", func(c *gin.Context) {
			u, ju, ok := GetUtil(c)
			if !ok {
				c.JSON(http.StatusForbidden, nil)
				return
			}
			hv1.SearchCollections(c, u, ju)
		})
		collections.POST("", func(c *gin.Context) {
			u, ju, ok := GetUtil(c)
			if !ok {
				c.JSON(http.StatusForbidden, nil)
				return
			}
			hv1.CreateCollection(c, u, ju)
		})
		collections.PUT("/:collection", func(c *gin.Context) {
			u, ju, ok := GetUtil(c)
			if !ok {
				c.JSON(http.StatusForbidden, nil)
				return
			}
			hv1.UpdateCollection(c, u, ju)
		})
		collections.DELETE("/:collection", func(c *gin.Context) {
			u, ju, ok := GetUtil(c)
			if !ok {
				c.JSON(http.StatusForbidden, nil)
				return
			}
			hv1.DeleteCollection(c, u, ju)
		})
		collections.POST("/:collection/upload", func(c *gin.Context) {
			u, ju, ok := GetUtil(c)
			if !ok {
				c.JSON(http.StatusForbidden, nil)
				return
			}
			hv1.UploadFiles(c, u, ju)
		})
		collections.POST("/:collection/fetch", func(c *gin.Context) {
			u, ju, ok := GetUtil(c)
			if !ok {
				c.JSON(http.StatusForbidden, nil)
				return
			}
			hv1.FetchUrl(c, u, ju)
		})
		collections.GET("/:collection/files", func(c *gin.Context) {
			u, ju, ok := GetUtil(c)
			if !ok {
				c.JSON(http.StatusForbidden, nil)
				return
			}
			hv1.GetFiles(c, u, ju)
		})
		collections.POST("/:collection/index", func(c *gin.Context) {
			u, ju, ok := GetUtil(c)
			if !ok {
				c.JSON(http.StatusForbidden, nil)
				return
			}
			hv1.IndexCollection(c, u, ju)
		})
		collections.GET("/:collection/index/status", func(c *gin.Context) {
			u, ju, ok := GetUtil(c)
			if !ok {
				c.JSON(http.StatusForbidden, nil)
				return
			}
			hv1.IndexStatus(c, u, ju)
		})

		// Chat
		v1.POST("/chat", func(c *gin.Context) {
			u, ju, ok := GetUtil(c)
			if !ok {
				c.JSON(http.StatusForbidden, nil)
				return
			}
			hv1.Chat(c, u, ju)
		})
		v1.POST("/ask", func(c *gin.Context) {
			u, ju, ok := GetUtil(c)
			if !ok {
				c.JSON(http.StatusForbidden, nil)
				return
			}
			hv1.Ask(c, u, ju)
		})

	}

}

func GetUtil(c *gin.Context) (*rtutil.RtUtil, *rtutil.JwtUsr, bool) {
	v, ok := c.Get(rtmiddleware.UTIL_KEY)
	if !ok {
		return nil, nil, false
	}
	u, ok := v.(*rtutil.RtUtil)
	if !ok {
		return nil, nil, false
	}
	v2, ok := c.Get(rtmiddleware.JWT_U_KEY)
	if !ok {
		return nil, nil, false
	}
	ju, ok := v2.(*rtutil.JwtUsr)
	if !ok {
		return nil, nil, false
	}
	return u, ju, true
}
