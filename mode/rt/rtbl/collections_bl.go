package rtbl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	readability "github.com/go-shiori/go-readability"
	"github.com/t-kawata/intelligraph/config"
	"github.com/t-kawata/intelligraph/enum/rterr"
	"github.com/t-kawata/intelligraph/lib/common"
	"github.com/t-kawata/intelligraph/mode/rt/rtreq"
	"github.com/t-kawata/intelligraph/mode/rt/rtres"
	"github.com/t-kawata/intelligraph/mode/rt/rtutil"
	"github.com/t-kawata/intelligraph/model"
	"github.com/t-kawata/intelligraph/pkg/graphrag/jobs"
	"gorm.io/datatypes"
)

// uploadableRegexp は、アップロードを受け付けるファイル名のパターンです。
var uploadableRegexp = regexp.MustCompile(`(?i)\.(txt|md|markdown)$`)

// unsafeFileCharRegexp は、docstore のキーとして安全でない文字のパターンです。
var unsafeFileCharRegexp = regexp.MustCompile(`[^0-9a-zA-Z._-]+`)

func findCollection(u *rtutil.RtUtil, name string) (*model.Collection, error) {
	col := model.Collection{}
	if err := u.DB.Where("`collections`.`name` = ?", name).First(&col).Error; err != nil {
		return nil, err
	}
	return &col, nil
}

// CanAccessCollection は、閲覧系操作のアクセス可否を判定します。
// スタッフ、オーナー、または非制限コレクションのみ許可します。
func CanAccessCollection(ju *rtutil.JwtUsr, col *model.Collection) bool {
	if ju.IsStaff {
		return true
	}
	if !col.IsRestricted {
		return true
	}
	return ju.IsOwnerOf(col.OwnerID)
}

// CanManageCollection は、削除やインデキシング等の変更系操作のアクセス可否を判定します。
func CanManageCollection(ju *rtutil.JwtUsr, col *model.Collection) bool {
	return ju.IsStaff || ju.IsOwnerOf(col.OwnerID)
}

func SearchCollections(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr, req *rtreq.SearchCollectionsReq, res *rtres.SearchCollectionsRes) bool {
	cols := []model.Collection{}
	db := common.GenSingleTableSearchConds(u.DB, "collections", req, &[]string{"name", "description"})
	if !ju.IsStaff {
		db = db.Where("`collections`.`is_restricted` = ? OR `collections`.`owner_id` = ?", false, *ju.UsrID)
	}
	if r := db.Find(&cols); r.Error != nil {
		return InternalServerError(c, res)
	}
	data := rtres.SearchCollectionsResData{}
	return OK(c, data.Of(&cols), res)
}

func CreateCollection(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr, req *rtreq.CreateCollectionReq, res *rtres.CreateCollectionRes) bool {
	if col, _ := findCollection(u, req.Name); col != nil {
		return BadRequestCustomMsg(c, res, fmt.Sprintf("Collection already exists: %s", req.Name))
	}
	isRestricted := true
	if req.IsRestricted != nil {
		isRestricted = *req.IsRestricted
	}
	col := model.Collection{
		UUID:         *common.GenUUID(),
		Name:         req.Name,
		Description:  req.Description,
		IsRestricted: isRestricted,
		OwnerID:      *ju.UsrID,
	}
	if req.Settings != nil {
		s := model.CollectionSettings{
			ChatModel:      req.Settings.ChatModel,
			EmbeddingModel: req.Settings.EmbeddingModel,
			CommunityLevel: req.Settings.CommunityLevel,
		}
		jsonStr, err := common.ToJson(s)
		if err != nil {
			return BadRequestCustomMsg(c, res, fmt.Sprintf("Invalid settings: %s", err.Error()))
		}
		col.Settings = datatypes.JSON(jsonStr)
	}
	if err := u.DB.Create(&col).Error; err != nil {
		return InternalServerErrorCustomMsg(c, res, fmt.Sprintf("Failed to create collection: %s", err.Error()))
	}
	return OK(c, &rtres.CreateCollectionResData{ID: col.ID, UUID: col.UUID}, res)
}

func UpdateCollection(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr, req *rtreq.UpdateCollectionReq, res *rtres.UpdateCollectionRes) bool {
	col, err := findCollection(u, req.Collection)
	if err != nil {
		return NotFound(c, res)
	}
	if !CanManageCollection(ju, col) {
		return Forbidden(c, res)
	}
	upd := struct{ Description string }{Description: req.Description}
	if err := common.UpdateSingleTable(u.DB, "collections", col, &upd); err != nil {
		return InternalServerErrorCustomMsg(c, res, fmt.Sprintf("Failed to update collection: %s", err.Error()))
	}
	if req.IsRestricted != nil && *req.IsRestricted != col.IsRestricted {
		if err := u.DB.Model(col).Update("is_restricted", *req.IsRestricted).Error; err != nil {
			return InternalServerErrorCustomMsg(c, res, fmt.Sprintf("Failed to update collection: %s", err.Error()))
		}
	}
	return OK(c, &rtres.UpdateCollectionResData{}, res)
}

func DeleteCollection(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr, req *rtreq.DeleteCollectionReq, res *rtres.DeleteCollectionRes) bool {
	col, err := findCollection(u, req.Collection)
	if err != nil {
		return NotFound(c, res)
	}
	if !CanManageCollection(ju, col) {
		return Forbidden(c, res)
	}
	if s := u.Tracker.Status(req.Collection); s.State == jobs.StateInProgress {
		return Conflict(c, res, rterr.AlreadyRunning.Code(), rterr.AlreadyRunning.Msg())
	}
	if err := u.Store.DelCollection(c.Request.Context(), req.Collection); err != nil {
		return InternalServerErrorCustomMsg(c, res, fmt.Sprintf("Failed to delete documents: %s", err.Error()))
	}
	u.Tracker.Remove(req.Collection)
	// name には uniqueIndex があるため、論理削除だと同名コレクションを再作成できない。
	if err := common.DeleteSingleTablePhysic(u.DB, col); err != nil {
		return InternalServerErrorCustomMsg(c, res, fmt.Sprintf("Failed to delete collection: %s", err.Error()))
	}
	return OK(c, &rtres.DeleteCollectionResData{}, res)
}

func UploadFiles(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr, req *rtreq.UploadFilesReq, res *rtres.UploadFilesRes) bool {
	col, err := findCollection(u, req.Collection)
	if err != nil {
		return NotFound(c, res)
	}
	if !CanManageCollection(ju, col) {
		return Forbidden(c, res)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return BadRequestCustomMsg(c, res, fmt.Sprintf("Invalid multipart form: %s", err.Error()))
	}
	files := form.File["files"]
	if len(files) == 0 {
		return BadRequestCustomMsg(c, res, "No files attached.")
	}
	saved := []string{}
	for _, fh := range files {
		name := SanitizeFileName(fh.Filename)
		if !uploadableRegexp.MatchString(name) {
			return BadRequestCustomMsg(c, res, fmt.Sprintf("Unsupported file type: %s", fh.Filename))
		}
		f, err := fh.Open()
		if err != nil {
			return InternalServerErrorCustomMsg(c, res, fmt.Sprintf("Failed to open file: %s", err.Error()))
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return InternalServerErrorCustomMsg(c, res, fmt.Sprintf("Failed to read file: %s", err.Error()))
		}
		if _, err := u.Store.Write(c.Request.Context(), req.Collection, config.KB_DIR_NAME, name, content); err != nil {
			return InternalServerErrorCustomMsg(c, res, fmt.Sprintf("Failed to store file: %s", err.Error()))
		}
		saved = append(saved, name)
	}
	return OK(c, &rtres.UploadFilesResData{Files: saved}, res)
}

func FetchUrl(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr, req *rtreq.FetchUrlReq, res *rtres.FetchUrlRes) bool {
	col, err := findCollection(u, req.Collection)
	if err != nil {
		return NotFound(c, res)
	}
	if !CanManageCollection(ju, col) {
		return Forbidden(c, res)
	}
	resp, err := u.Client.Client.Get(req.Url)
	if err != nil {
		return BadRequestCustomMsg(c, res, fmt.Sprintf("Failed to fetch url: %s", err.Error()))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return BadRequestCustomMsg(c, res, fmt.Sprintf("Failed to fetch url: status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return InternalServerErrorCustomMsg(c, res, fmt.Sprintf("Failed to read response: %s", err.Error()))
	}
	pageUrl, _ := url.Parse(req.Url)
	article, err := readability.FromReader(strings.NewReader(string(body)), pageUrl)
	if err != nil {
		return BadRequestCustomMsg(c, res, fmt.Sprintf("Failed to extract article: %s", err.Error()))
	}
	markdown, err := md.NewConverter("", true, nil).ConvertString(article.Content)
	if err != nil {
		return InternalServerErrorCustomMsg(c, res, fmt.Sprintf("Failed to convert to markdown: %s", err.Error()))
	}
	title := strings.TrimSpace(article.Title)
	if len(title) == 0 {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body))); err == nil {
			title = strings.TrimSpace(doc.Find("title").First().Text())
		}
	}
	name := FileNameForUrl(pageUrl, title)
	if _, err := u.Store.Write(c.Request.Context(), req.Collection, config.KB_DIR_NAME, name, []byte(markdown)); err != nil {
		return InternalServerErrorCustomMsg(c, res, fmt.Sprintf("Failed to store file: %s", err.Error()))
	}
	return OK(c, &rtres.FetchUrlResData{File: name, Title: title, Chars: common.CountUTF8Chars(markdown)}, res)
}

func GetFiles(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr, req *rtreq.GetFilesReq, res *rtres.GetFilesRes) bool {
	col, err := findCollection(u, req.Collection)
	if err != nil {
		return NotFound(c, res)
	}
	if !CanAccessCollection(ju, col) {
		return Forbidden(c, res)
	}
	names, err := u.Store.List(c.Request.Context(), req.Collection, config.KB_DIR_NAME, nil)
	if err != nil {
		return InternalServerErrorCustomMsg(c, res, fmt.Sprintf("Failed to list files: %s", err.Error()))
	}
	return OK(c, &rtres.GetFilesResData{Files: names}, res)
}

func IndexCollection(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr, req *rtreq.IndexCollectionReq, res *rtres.IndexCollectionRes) bool {
	col, err := findCollection(u, req.Collection)
	if err != nil {
		return NotFound(c, res)
	}
	if !CanManageCollection(ju, col) {
		return Forbidden(c, res)
	}
	collection := req.Collection
	err = u.Tracker.Start(c.Request.Context(), collection, func(ctx context.Context) error {
		return u.Pipeline.Process(ctx, collection)
	})
	if err != nil {
		if errors.Is(err, jobs.ErrAlreadyRunning) {
			return Conflict(c, res, rterr.AlreadyRunning.Code(), rterr.AlreadyRunning.Msg())
		}
		if errors.Is(err, jobs.ErrNoInput) {
			return BadRequestCustomMsg(c, res, rterr.NoInput.Msg())
		}
		return InternalServerErrorCustomMsg(c, res, fmt.Sprintf("Failed to start indexing: %s", err.Error()))
	}
	return Accepted(c, &rtres.IndexCollectionResData{Status: "initiated"}, res)
}

func IndexStatus(c *gin.Context, u *rtutil.RtUtil, ju *rtutil.JwtUsr, req *rtreq.IndexStatusReq, res *rtres.IndexStatusRes) bool {
	col, err := findCollection(u, req.Collection)
	if err != nil {
		return NotFound(c, res)
	}
	if !CanAccessCollection(ju, col) {
		return Forbidden(c, res)
	}
	status := u.Tracker.Status(req.Collection)
	data := rtres.IndexStatusResData{}
	return OK(c, data.Of(&status), res)
}

// SanitizeFileName は、ファイル名を docstore のキーとして安全な形に変換します。
func SanitizeFileName(name string) string {
	base := filepath.Base(name)
	safe := unsafeFileCharRegexp.ReplaceAllString(base, "-")
	safe = strings.Trim(safe, "-.")
	if len(safe) == 0 {
		safe = *common.GenUUID()
	}
	return safe
}

// FileNameForUrl は、取得したWebページの保存ファイル名を決定します。
func FileNameForUrl(pageUrl *url.URL, title string) string {
	stem := ""
	if len(title) > 0 {
		stem = strings.ToLower(unsafeFileCharRegexp.ReplaceAllString(title, "-"))
	} else if pageUrl != nil {
		stem = strings.ToLower(unsafeFileCharRegexp.ReplaceAllString(pageUrl.Host+pageUrl.Path, "-"))
	}
	stem = strings.Trim(stem, "-.")
	if len(stem) > 100 {
		stem = stem[:100]
	}
	if len(stem) == 0 {
		stem = *common.GenUUID()
	}
	return stem + ".md"
}
