package common

import (
	"fmt"
	"reflect"

	"github.com/iancoleman/strcase"
	"github.com/t-kawata/intelligraph/config"
	"github.com/t-kawata/intelligraph/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// GetDb はマスタ DB への接続を確立し、レプリカが設定されていれば dbresolver を登録します。
func GetDb(env *config.Env) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN: getDbDns(env.NodesMDb.Username, env.NodesMDb.Password, env.NodesMDb.Host, env.NodesMDb.Port),
	}), &gorm.Config{})

	if err != nil {
		return db, err
	}

	if len(env.NodesRDbs) == 0 {
		return db, nil
	}
	var ds []gorm.Dialector
	for _, rdb := range env.NodesRDbs {
		ds = append(ds, mysql.Open(getDbDns(rdb.Username, rdb.Password, rdb.Host, rdb.Port)))
	}
	err = db.Use(dbresolver.Register(dbresolver.Config{Replicas: ds, TraceResolverMode: true}))
	return db, err
}

func AutoMigrateNDb(db *gorm.DB) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		tx.Exec("CREATE TABLE IF NOT EXISTS `usrs` (`id` bigint unsigned AUTO_INCREMENT,PRIMARY KEY (`id`))")
		return tx.AutoMigrate(
			&model.Usr{},
			&model.Collection{},
		)
	})
	return err
}

func getDbDns(un string, pw string, h string, pt string) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8&parseTime=True&loc=Asia%%2FTokyo", un, pw, h, pt, config.NODES_DB_NAME)
}

// GenSingleTableSearchConds はリクエスト構造体の非空フィールドから単一テーブル検索条件を構築します。
// likeTargets に含まれるフィールドは部分一致、それ以外は完全一致で比較します。
func GenSingleTableSearchConds[R any](db *gorm.DB, tbl string, req *R, likeTargets *[]string) *gorm.DB {
	var (
		condsStr    = ""
		condsValues = []any{}
		limit       = -1
		offset      = -1
	)
	v := reflect.ValueOf(req).Elem()
	for i := range v.NumField() {
		fld := v.Type().Field(i)
		f := strcase.ToSnake(fld.Name)
		val := v.Field(i).Interface()
		if (f == "owner_id" && val.(uint) == 0) || IsEmpty(val) {
			continue
		}
		switch f {
		case "limit":
			limit = int(val.(uint16))
			continue
		case "offset":
			offset = int(val.(uint16))
			continue
		}
		if len(condsStr) > 0 {
			condsStr += " AND "
		}
		if InArray(&f, likeTargets) {
			condsStr += fmt.Sprintf("`%s`.`%s` LIKE ?", tbl, f)
			condsValues = append(condsValues, fmt.Sprintf("%%%s%%", val))
		} else {
			condsStr += fmt.Sprintf("`%s`.`%s` = ?", tbl, f)
			condsValues = append(condsValues, val)
		}
	}
	return db.Where(condsStr, condsValues...).Limit(limit).Offset(offset)
}

func UpdateSingleTable[M any, R any](db *gorm.DB, tbl string, mdl *M, req *R) error {
	reqValues := reflect.ValueOf(req).Elem()
	reqMap := make(map[string]any)
	for i := range reqValues.NumField() {
		reqMap[reqValues.Type().Field(i).Name] = reqValues.Field(i).Interface()
	}
	mdlValues := reflect.ValueOf(mdl).Elem()
	mdlMap := make(map[string]any)
	for i := range mdlValues.NumField() {
		if mdlValues.Field(i).CanInterface() {
			mdlMap[mdlValues.Type().Field(i).Name] = mdlValues.Field(i).Interface()
		}
	}
	changedFields := make(map[string]any)
	for k, v := range reqMap {
		if k == "ID" || IsEmpty(v) {
			continue
		}
		if mdlMap[k] != v {
			changedFields[strcase.ToSnake(k)] = v
		}
	}
	if len(changedFields) == 0 {
		return nil
	}
	changedFields["updated_at"] = GetNowStr()
	return db.Table(tbl).Where("id = ?", mdlValues.FieldByName("ID").Interface()).Updates(changedFields).Error
}

func DeleteSingleTablePhysic[M any](db *gorm.DB, mdl *M) error {
	err := db.Unscoped().Delete(mdl).Error
	if err != nil {
		return err
	}
	return nil
}
