package config

const VERSION = "v0.2.1"

const TIME_ZONE = "Asia/Tokyo"

const DEFAULT_SKEY = "kP2fUXwZgc9VvDZyvhebvjVz/+J3IkKpvkb++HYc40A/="

const PW_REGEXP = "^[0-9a-zA-Z!?-_@]{6,20}$"

// COLLECTION_NAME_REGEXP は、コレクション名として許可するパターンです。
// ストレージのディレクトリ名・S3プレフィックスにそのまま使うため厳しめに制限します。
const COLLECTION_NAME_REGEXP = "^[a-z0-9][a-z0-9-]{1,62}$"

const NODES_DB_NAME = "intelligraph"

const REST_PORT = 8890

const S3C_LOCAL_ROOT = "/home/asterisk/s3" // s3c をローカルで使用する時のファイル保管ルートディレクトリ

const DL_LOCAL_ROOT = "/home/asterisk/dl" // s3c で Down を実行する時にダウンロード先になるルートディレクトリ

// KB_DIR_NAME は、コレクションごとの原文ドキュメントを置くディレクトリ名です。
const KB_DIR_NAME = "knowledgebase"

// OUTPUT_DIR_NAME は、インデキシング成果物（コミュニティレポート）を置くディレクトリ名です。
const OUTPUT_DIR_NAME = "output"

// METRICS_DIR_NAME は、インデキシングのメトリクスJSONを置くディレクトリ名です。
const METRICS_DIR_NAME = "metrics"

// REPORTS_MAX_CHARS は、コミュニティレポートブロック全体の文字数上限です。
const REPORTS_MAX_CHARS = 10000

// REPORTS_MAX_COUNT は、コンテキストに採用するレポートの最大件数です。
// 引用（Sources）に載せるタイトル数の上限も同じ値を使います。
const REPORTS_MAX_COUNT = 6

// REPORTS_TRUNCATE_HEADROOM は、予算超過時に先頭レポートの部分切り出しを行う最低残量です。
// 残量がこれ以下の場合は部分切り出しをせずに打ち切ります。
const REPORTS_TRUNCATE_HEADROOM = 200

// RAW_TEXT_MAX_CHARS は、原文フォールバックテキストの文字数上限です。
const RAW_TEXT_MAX_CHARS = 20000

// NOT_FOUND_ANSWER は、コンテキストが空の場合に返す固定回答です。
// プロンプト内の指示文と一字一句一致させること。
const NOT_FOUND_ANSWER = "I cannot find that in the uploaded document."

// SEARCH_TOP_K は、グローバル検索で候補に残すレポートの最大件数です。
const SEARCH_TOP_K = 10

// COMMUNITY_CHUNK_COUNT は、1コミュニティにまとめるチャンク数です。
const COMMUNITY_CHUNK_COUNT = 8

// INGEST_CONCURRENCY は、コミュニティレポート生成の並列数です。
const INGEST_CONCURRENCY = 4

// CHUNK_MAX_CHARS は、インデキシング時のチャンク最大文字数です。
const CHUNK_MAX_CHARS = 1200

// CHUNK_OVERLAP は、隣接チャンク間で重複させる文字数の目安です。
const CHUNK_OVERLAP = 100

type DbInfo struct {
	Host     string
	Port     string
	Username string
	Password string
}

type Env struct {
	Name      string
	Empty     bool
	NodesMDb  DbInfo
	NodesRDbs []DbInfo
}

var (
	LocalEnv Env = Env{
		Name:     "local",
		Empty:    false,
		NodesMDb: DbInfo{Host: "127.0.0.1", Port: "3306", Username: "asterisk", Password: "yu51043chie3"},
		NodesRDbs: []DbInfo{
			{Host: "127.0.0.1", Port: "3306", Username: "asterisk", Password: "yu51043chie3"},
		},
	}
	DevEnv Env = Env{
		Name:     "dev",
		Empty:    false,
		NodesMDb: DbInfo{Host: "127.0.0.1", Port: "3306", Username: "asterisk", Password: "yu51043chie3"},
		NodesRDbs: []DbInfo{
			{Host: "127.0.0.1", Port: "3306", Username: "asterisk", Password: "yu51043chie3"},
		},
	}
	StgEnv Env = Env{
		Name:     "stg",
		Empty:    false,
		NodesMDb: DbInfo{Host: "127.0.0.1", Port: "3306", Username: "asterisk", Password: "yu51043chie3"},
		NodesRDbs: []DbInfo{
			{Host: "127.0.0.1", Port: "3306", Username: "asterisk", Password: "yu51043chie3"},
		},
	}
	ProdEnv Env = Env{
		Name:     "prod",
		Empty:    false,
		NodesMDb: DbInfo{Host: "127.0.0.1", Port: "3306", Username: "asterisk", Password: "yu51043chie3"},
		NodesRDbs: []DbInfo{
			{Host: "127.0.0.1", Port: "3306", Username: "asterisk", Password: "yu51043chie3"},
		},
	}
)

func GetEnv(e string) *Env {
	switch e {
	case LocalEnv.Name:
		return &LocalEnv
	case DevEnv.Name:
		return &DevEnv
	case StgEnv.Name:
		return &StgEnv
	case ProdEnv.Name:
		return &ProdEnv
	default:
		return &Env{Empty: true}
	}
}
