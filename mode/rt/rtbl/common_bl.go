package rtbl

import (
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/t-kawata/intelligraph/enum/rterr"
	"github.com/t-kawata/intelligraph/mode/rt/rtres"
)

func OK[DATA any, RES any](c *gin.Context, data *DATA, res *RES) bool {
	v := reflect.ValueOf(res).Elem()
	field := v.FieldByName("Data")
	if field.IsValid() && field.CanSet() {
		field.Set(reflect.ValueOf(*data))
	}
	c.JSON(http.StatusOK, res)
	return true
}

func Accepted[DATA any, RES any](c *gin.Context, data *DATA, res *RES) bool {
	v := reflect.ValueOf(res).Elem()
	field := v.FieldByName("Data")
	if field.IsValid() && field.CanSet() {
		field.Set(reflect.ValueOf(*data))
	}
	c.JSON(http.StatusAccepted, res)
	return true
}

func BadRequest[T any](c *gin.Context, res *T) bool {
	c.JSON(http.StatusBadRequest, res)
	return false
}

func BadRequestWithSpecErr[T any](c *gin.Context, res *T) bool {
	SetErrInRes(res, "system", rterr.BadRequest.Code(), rterr.BadRequest.Msg())
	c.JSON(http.StatusBadRequest, res)
	return false
}

func BadRequestCustomMsg[T any](c *gin.Context, res *T, msg string) bool {
	return errRes(c, res, http.StatusBadRequest, "system", rterr.BadRequest.Code(), msg)
}

func Unauthorized[T any](c *gin.Context, res *T) bool {
	return errRes(c, res, http.StatusUnauthorized, "auth", rterr.Unauthorized.Code(), rterr.Unauthorized.Msg())
}

func Forbidden[T any](c *gin.Context, res *T) bool {
	return errRes(c, res, http.StatusForbidden, "system", rterr.Forbidden.Code(), rterr.Forbidden.Msg())
}

func ForbiddenCustomMsg[T any](c *gin.Context, res *T, msg string) bool {
	return errRes(c, res, http.StatusForbidden, "system", rterr.Forbidden.Code(), msg)
}

func NotFound[T any](c *gin.Context, res *T) bool {
	return errRes(c, res, http.StatusNotFound, "system", rterr.NotFound.Code(), rterr.NotFound.Msg())
}

func NotFoundCustomMsg[T any](c *gin.Context, res *T, msg string) bool {
	return errRes(c, res, http.StatusNotFound, "system", rterr.NotFound.Code(), msg)
}

func Conflict[T any](c *gin.Context, res *T, code uint16, msg string) bool {
	return errRes(c, res, http.StatusConflict, "system", code, msg)
}

func InternalServerError[T any](c *gin.Context, res *T) bool {
	return errRes(c, res, http.StatusInternalServerError, "system", rterr.InternalServerError.Code(), rterr.InternalServerError.Msg())
}

func InternalServerErrorCustomMsg[T any](c *gin.Context, res *T, msg string) bool {
	return errRes(c, res, http.StatusInternalServerError, "system", rterr.InternalServerError.Code(), msg)
}

func SetErrInRes[T any](res *T, filed string, code uint16, msg string) {
	v := reflect.ValueOf(res).Elem()
	field := v.FieldByName("Errors")
	if field.IsValid() && field.CanSet() {
		field.Set(reflect.ValueOf([]rtres.Err{{Field: filed, Code: code, Message: msg}}))
	}
}

func errRes[T any](c *gin.Context, res *T, status int, filed string, code uint16, msg string) bool {
	v := reflect.ValueOf(res).Elem()
	field := v.FieldByName("Errors")
	if field.IsValid() && field.CanSet() {
		field.Set(reflect.ValueOf([]rtres.Err{{Field: filed, Code: code, Message: msg}}))
	}
	c.JSON(status, res)
	return false
}
