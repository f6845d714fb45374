package rtreq

import (
	"github.com/gin-gonic/gin"
	"github.com/t-kawata/intelligraph/mode/rt/rtres"
	"github.com/t-kawata/intelligraph/mode/rt/rtutil"
)

type SearchCollectionsReq struct {
	Name        string `json:"name" binding:"max=63"`
	Description string `json:"description" binding:"max=255"`
	OwnerID     uint   `json:"owner_id" binding:"gte=0"`
	Limit       uint16 `json:"limit" binding:"gte=1,lte=25"`
	Offset      uint16 `json:"offset" binding:"gte=0"`
}

func SearchCollectionsReqBind(c *gin.Context, u *rtutil.RtUtil) (SearchCollectionsReq, rtres.SearchCollectionsRes, bool) {
	ok := true
	req := SearchCollectionsReq{}
	res := rtres.SearchCollectionsRes{Errors: []rtres.Err{}}
	if err := c.ShouldBindJSON(&req); err != nil {
		res.Errors = u.GetValidationErrs(err)
		ok = false
	}
	return req, res, ok
}

type CollectionSettingsReq struct {
	ChatModel      string `json:"chat_model" binding:"max=100"`
	EmbeddingModel string `json:"embedding_model" binding:"max=100"`
	CommunityLevel int    `json:"community_level" binding:"gte=0,lte=3"`
}

type CreateCollectionReq struct {
	Name         string                 `json:"name" binding:"required,collectionname,max=63"`
	Description  string                 `json:"description" binding:"max=255"`
	IsRestricted *bool                  `json:"is_restricted" binding:"omitempty"`
	Settings     *CollectionSettingsReq `json:"settings" binding:"omitempty"`
}

func CreateCollectionReqBind(c *gin.Context, u *rtutil.RtUtil) (CreateCollectionReq, rtres.CreateCollectionRes, bool) {
	ok := true
	req := CreateCollectionReq{}
	res := rtres.CreateCollectionRes{Errors: []rtres.Err{}}
	if err := c.ShouldBindJSON(&req); err != nil {
		res.Errors = u.GetValidationErrs(err)
		ok = false
	}
	return req, res, ok
}

type UpdateCollectionReq struct {
	Collection   string `form:"collection" binding:"required,collectionname"`
	Description  string `json:"description" binding:"max=255"`
	IsRestricted *bool  `json:"is_restricted" binding:"omitempty"`
}

func UpdateCollectionReqBind(c *gin.Context, u *rtutil.RtUtil) (UpdateCollectionReq, rtres.UpdateCollectionRes, bool) {
	ok := true
	req := UpdateCollectionReq{Collection: c.Param("collection")}
	res := rtres.UpdateCollectionRes{Errors: []rtres.Err{}}
	if err := c.ShouldBindJSON(&req); err != nil {
		res.Errors = u.GetValidationErrs(err)
		ok = false
	}
	return req, res, ok
}

type DeleteCollectionReq struct {
	Collection string `form:"collection" binding:"required,collectionname"`
}

func DeleteCollectionReqBind(c *gin.Context, u *rtutil.RtUtil) (DeleteCollectionReq, rtres.DeleteCollectionRes, bool) {
	ok := true
	req := DeleteCollectionReq{Collection: c.Param("collection")}
	res := rtres.DeleteCollectionRes{Errors: []rtres.Err{}}
	if err := c.ShouldBind(&req); err != nil {
		res.Errors = u.GetValidationErrs(err)
		ok = false
	}
	return req, res, ok
}

type UploadFilesReq struct {
	Collection string `form:"collection" binding:"required,collectionname"`
}

func UploadFilesReqBind(c *gin.Context, u *rtutil.RtUtil) (UploadFilesReq, rtres.UploadFilesRes, bool) {
	ok := true
	req := UploadFilesReq{Collection: c.Param("collection")}
	res := rtres.UploadFilesRes{Data: rtres.UploadFilesResData{Files: []string{}}, Errors: []rtres.Err{}}
	if err := c.ShouldBind(&req); err != nil {
		res.Errors = u.GetValidationErrs(err)
		ok = false
	}
	return req, res, ok
}

type FetchUrlReq struct {
	Collection string `form:"collection" binding:"required,collectionname"`
	Url        string `json:"url" binding:"required,http_url,max=2048"`
}

func FetchUrlReqBind(c *gin.Context, u *rtutil.RtUtil) (FetchUrlReq, rtres.FetchUrlRes, bool) {
	ok := true
	req := FetchUrlReq{Collection: c.Param("collection")}
	res := rtres.FetchUrlRes{Errors: []rtres.Err{}}
	if err := c.ShouldBindJSON(&req); err != nil {
		res.Errors = u.GetValidationErrs(err)
		ok = false
	}
	return req, res, ok
}

type GetFilesReq struct {
	Collection string `form:"collection" binding:"required,collectionname"`
}

func GetFilesReqBind(c *gin.Context, u *rtutil.RtUtil) (GetFilesReq, rtres.GetFilesRes, bool) {
	ok := true
	req := GetFilesReq{Collection: c.Param("collection")}
	res := rtres.GetFilesRes{Data: rtres.GetFilesResData{Files: []string{}}, Errors: []rtres.Err{}}
	if err := c.ShouldBind(&req); err != nil {
		res.Errors = u.GetValidationErrs(err)
		ok = false
	}
	return req, res, ok
}

type IndexCollectionReq struct {
	Collection string `form:"collection" binding:"required,collectionname"`
}

func IndexCollectionReqBind(c *gin.Context, u *rtutil.RtUtil) (IndexCollectionReq, rtres.IndexCollectionRes, bool) {
	ok := true
	req := IndexCollectionReq{Collection: c.Param("collection")}
	res := rtres.IndexCollectionRes{Errors: []rtres.Err{}}
	if err := c.ShouldBind(&req); err != nil {
		res.Errors = u.GetValidationErrs(err)
		ok = false
	}
	return req, res, ok
}

type IndexStatusReq struct {
	Collection string `form:"collection" binding:"required,collectionname"`
}

func IndexStatusReqBind(c *gin.Context, u *rtutil.RtUtil) (IndexStatusReq, rtres.IndexStatusRes, bool) {
	ok := true
	req := IndexStatusReq{Collection: c.Param("collection")}
	res := rtres.IndexStatusRes{Errors: []rtres.Err{}}
	if err := c.ShouldBind(&req); err != nil {
		res.Errors = u.GetValidationErrs(err)
		ok = false
	}
	return req, res, ok
}
