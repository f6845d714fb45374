package hv1

import (
	"github.com/gin-gonic/gin"
	"github.com/t-kawata/intelligraph/mode/rt/rtbl"
	"github.com/t-kawata/intelligraph/mode/rt/rtreq"
	"github.com/t-kawata/intelligraph/mode/rt/rtutil"
)

// @Tags v1 Collection
// @Router /v1/collections/search [post]
// @Summary コレクションを検索する。
// @Description - スタッフは全てのコレクションを検索できる
// @Description - 一般ユーザは、自分がオーナーのコレクションと非制限コレクションのみ検索できる
// @Accept application/json
// @Param Authorization header string true "token" example(Bearer ??????????)
// @Param json body SearchCollectionsReq true "json"
// @Success 200 {object} SearchCollectionsRes{errors=[]int}
// @Failure 400 {object} ErrRes
// @Failure 401 {object} ErrRes
func SearchCollections(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr) {
	if req, res, ok := rtreq.SearchCollectionsReqBind(c, u); ok {
		rtbl.SearchCollections(c, u, ju, &req, &res)
	} else {
		rtbl.BadRequest(c, &res)
	}
}

// @Tags v1 Collection
// @Router /v1/collections [post]
// @Summary コレクションを作成する。
// @Description - name は英小文字・数字・ハイフンのみ
// @Description - is_restricted を省略した場合は true（オーナーとスタッフのみアクセス可能）
// @Description - settings でモデルの上書き等を指定できる（省略可）
// @Accept application/json
// @Param Authorization header string true "token" example(Bearer ??????????)
// @Param json body CreateCollectionReq true "json"
// @Success 200 {object} CreateCollectionRes{errors=[]int}
// @Failure 400 {object} ErrRes
// @Failure 401 {object} ErrRes
func CreateCollection(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr) {
	if req, res, ok := rtreq.CreateCollectionReqBind(c, u); ok {
		rtbl.CreateCollection(c, u, ju, &req, &res)
	} else {
		rtbl.BadRequest(c, &res)
	}
}

// @Tags v1 Collection
// @Router /v1/collections/{collection} [put]
// @Summary コレクションを更新する。
// @Description - description と is_restricted を更新できる
// @Description - 空の description は無視される（クリアは不可）
// @Accept application/json
// @Param Authorization header string true "token" example(Bearer ??????????)
// @Param collection path string true "collection"
// @Param json body UpdateCollectionReq true "json"
// @Success 200 {object} UpdateCollectionRes{errors=[]int}
// @Failure 400 {object} ErrRes
// @Failure 401 {object} ErrRes
// @Failure 403 {object} ErrRes
// @Failure 404 {object} ErrRes
func UpdateCollection(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr) {
	if req, res, ok := rtreq.UpdateCollectionReqBind(c, u); ok {
		rtbl.UpdateCollection(c, u, ju, &req, &res)
	} else {
		rtbl.BadRequest(c, &res)
	}
}

// @Tags v1 Collection
// @Router /v1/collections/{collection} [delete]
// @Summary コレクションを削除する。
// @Description - ドキュメントと成果物も全て削除される
// @Description - インデキシング実行中は削除できない
// @Accept application/json
// @Param Authorization header string true "token" example(Bearer ??????????)
// @Param collection path string true "collection"
// @Success 200 {object} DeleteCollectionRes{errors=[]int}
// @Failure 400 {object} ErrRes
// @Failure 401 {object} ErrRes
// @Failure 403 {object} ErrRes
// @Failure 404 {object} ErrRes
// @Failure 409 {object} ErrRes
func DeleteCollection(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr) {
	if req, res, ok := rtreq.DeleteCollectionReqBind(c, u); ok {
		rtbl.DeleteCollection(c, u, ju, &req, &res)
	} else {
		rtbl.BadRequest(c, &res)
	}
}

// @Tags v1 Collection
// @Router /v1/collections/{collection}/upload [post]
// @Summary ドキュメントをアップロードする。
// @Description - multipart/form-data の files フィールドで複数ファイルを受け付ける
// @Description - 受け付けるのは .txt / .md / .markdown のみ
// @Accept multipart/form-data
// @Param Authorization header string true "token" example(Bearer ??????????)
// @Param collection path string true "collection"
// @Param files formData file true "files"
// @Success 200 {object} UploadFilesRes{errors=[]int}
// @Failure 400 {object} ErrRes
// @Failure 401 {object} ErrRes
// @Failure 403 {object} ErrRes
// @Failure 404 {object} ErrRes
func UploadFiles(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr) {
	if req, res, ok := rtreq.UploadFilesReqBind(c, u); ok {
		rtbl.UploadFiles(c, u, ju, &req, &res)
	} else {
		rtbl.BadRequest(c, &res)
	}
}

// @Tags v1 Collection
// @Router /v1/collections/{collection}/fetch [post]
// @Summary URLから本文を抽出してMarkdownとして取り込む。
// @Accept application/json
// @Param Authorization header string true "token" example(Bearer ??????????)
// @Param collection path string true "collection"
// @Param json body FetchUrlReq true "json"
// @Success 200 {object} FetchUrlRes{errors=[]int}
// @Failure 400 {object} ErrRes
// @Failure 401 {object} ErrRes
// @Failure 403 {object} ErrRes
// @Failure 404 {object} ErrRes
func FetchUrl(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr) {
	if req, res, ok := rtreq.FetchUrlReqBind(c, u); ok {
		rtbl.FetchUrl(c, u, ju, &req, &res)
	} else {
		rtbl.BadRequest(c, &res)
	}
}

// @Tags v1 Collection
// @Router /v1/collections/{collection}/files [get]
// @Summary コレクション内のドキュメント一覧を返す。
// @Accept application/json
// @Param Authorization header string true "token" example(Bearer ??????????)
// @Param collection path string true "collection"
// @Success 200 {object} GetFilesRes{errors=[]int}
// @Failure 400 {object} ErrRes
// @Failure 401 {object} ErrRes
// @Failure 403 {object} ErrRes
// @Failure 404 {object} ErrRes
func GetFiles(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr) {
	if req, res, ok := rtreq.GetFilesReqBind(c, u); ok {
		rtbl.GetFiles(c, u, ju, &req, &res)
	} else {
		rtbl.BadRequest(c, &res)
	}
}

// @Tags v1 Collection
// @Router /v1/collections/{collection}/index [post]
// @Summary インデキシングをバックグラウンドで開始する。
// @Description - 受理した場合は 202 を返し、進捗は status で確認する
// @Description - 同一コレクションで実行中の場合は 409
// @Description - ドキュメントが1件もない場合は 400
// @Accept application/json
// @Param Authorization header string true "token" example(Bearer ??????????)
// @Param collection path string true "collection"
// @Success 202 {object} IndexCollectionRes{errors=[]int}
// @Failure 400 {object} ErrRes
// @Failure 401 {object} ErrRes
// @Failure 403 {object} ErrRes
// @Failure 404 {object} ErrRes
// @Failure 409 {object} ErrRes
func IndexCollection(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr) {
	if req, res, ok := rtreq.IndexCollectionReqBind(c, u); ok {
		rtbl.IndexCollection(c, u, ju, &req, &res)
	} else {
		rtbl.BadRequest(c, &res)
	}
}

// @Tags v1 Collection
// @Router /v1/collections/{collection}/index/status [get]
// @Summary インデキシングの進捗を返す。
// @Description - 一度も実行していないコレクションは not_started
// @Accept application/json
// @Param Authorization header string true "token" example(Bearer ??????????)
// @Param collection path string true "collection"
// @Success 200 {object} IndexStatusRes{errors=[]int}
// @Failure 400 {object} ErrRes
// @Failure 401 {object} ErrRes
// @Failure 403 {object} ErrRes
// @Failure 404 {object} ErrRes
func IndexStatus(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr) {
	if req, res, ok := rtreq.IndexStatusReqBind(c, u); ok {
		rtbl.IndexStatus(c, u, ju, &req, &res)
	} else {
		rtbl.BadRequest(c, &res)
	}
}
