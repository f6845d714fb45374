package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Usr構造体（ログイン識別用）
// IsStaff: 全コレクションへのアクセスと運用系操作を許可する管理者フラグ
type Usr struct {
	gorm.Model
	Name     string `gorm:"size:50;not null;default:''"`
	Email    string `gorm:"size:100;not null;default:'';uniqueIndex"` // ログインID
	Password string `gorm:"size:255;not null;default:''"`             // パスワードハッシュ
	IsStaff  bool   `gorm:"default:false;column:is_staff"`
}

func (Usr) TableName() string {
	return "usrs"
}

// CollectionSettings は collections.settings カラム（JSON）に格納される詳細設定です。
type CollectionSettings struct {
	ChatModel      string `json:"chat_model"`      // コレクション単位のチャットモデル上書き（空ならenv）
	EmbeddingModel string `json:"embedding_model"` // コレクション単位の埋め込みモデル上書き（空ならenv）
	CommunityLevel int    `json:"community_level"` // インデキシング時のコミュニティ階層（現状1固定）
}

// Collection は、アップロードされたドキュメント群とその派生成果物の名前空間です。
// 実ファイルは docstore（ローカル or S3）側に置き、DBにはメタデータのみを持ちます。
type Collection struct {
	gorm.Model
	UUID         string         `gorm:"size:36;not null;uniqueIndex"`
	Name         string         `gorm:"size:63;not null;uniqueIndex"`
	Description  string         `gorm:"size:255;not null;default:''"`
	IsRestricted bool           `gorm:"default:true"` // trueの場合はオーナーとスタッフのみアクセス可能
	OwnerID      uint           `gorm:"not null;index"`
	Settings     datatypes.JSON `gorm:"default:null"`
}

func (Collection) TableName() string {
	return "collections"
}
