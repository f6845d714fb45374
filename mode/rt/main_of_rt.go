package rt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/t-kawata/intelligraph/config"
	"github.com/t-kawata/intelligraph/lib/common"
	"github.com/t-kawata/intelligraph/lib/eventbus"
	"github.com/t-kawata/intelligraph/mode/rt/rtmiddleware"
	"github.com/t-kawata/intelligraph/model"
	"github.com/t-kawata/intelligraph/pkg/docstore"
	"github.com/t-kawata/intelligraph/pkg/graphrag/chunking"
	"github.com/t-kawata/intelligraph/pkg/graphrag/ingestion"
	"github.com/t-kawata/intelligraph/pkg/graphrag/jobs"
	"github.com/t-kawata/intelligraph/pkg/graphrag/providers"
	"github.com/t-kawata/intelligraph/pkg/graphrag/query"
	"github.com/t-kawata/intelligraph/pkg/graphrag/reports"
	"github.com/t-kawata/intelligraph/pkg/graphrag/search"

	_ "github.com/t-kawata/intelligraph/docs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type RTFlags struct {
	SKey                     string
	Dotenv                   string
	StorageUseLocal          bool
	StorageS3AccessKey       string
	StorageS3SecretAccessKey string
	StorageS3Region          string
	StorageS3Bucket          string
	CorsOnAtRT               bool
}

func MainOfRT() {
	flgs := RTFlags{}
	_, cflgs, l, env, hc, err := common.Init("intelligraph rt mode", &[]common.Flag{
		{Dst: &flgs.SKey, Name: "s", Default: "", Doc: "Secret Key to generate and check jwt."},
		{Dst: &flgs.Dotenv, Name: "d", Default: ".env", Doc: "Settings dotenv file path."},
	})
	if err != nil {
		log.Fatalf("Error: %s", err.Error())
		return
	}
	err = godotenv.Load(flgs.Dotenv)
	if err != nil {
		log.Fatalf("Error loading env file: %s", err.Error())
		return
	}
	hn, err := os.Hostname()
	if err != nil {
		log.Fatalf("Failed to get hostname: %s", err.Error())
		return
	}
	l.Info(
		"Set RT flags: ",
		zap.String("e", cflgs.Env),
		zap.String("l", cflgs.LogLevel),
		zap.String("o", cflgs.Output),
		zap.String("s", flgs.SKey),
		zap.String("d", flgs.Dotenv),
	)
	defer l.Info("REST API server was closed.")
	DOCSTORE_USE_LOCAL := os.Getenv("DOCSTORE_USE_LOCAL")
	AWS_ACCESS_KEY_ID := os.Getenv("AWS_ACCESS_KEY_ID")
	AWS_SECRET_ACCESS_KEY := os.Getenv("AWS_SECRET_ACCESS_KEY")
	AWS_REGION := os.Getenv("AWS_REGION")
	S3_BUCKET := os.Getenv("S3_BUCKET")
	CORS_ON_AT_RT := os.Getenv("CORS_ON_AT_RT")
	CHAT_PROVIDER := os.Getenv("CHAT_PROVIDER")
	CHAT_API_KEY := os.Getenv("CHAT_API_KEY")
	CHAT_BASE_URL := os.Getenv("CHAT_BASE_URL")
	CHAT_MODEL := os.Getenv("CHAT_MODEL")
	EMBEDDING_PROVIDER := os.Getenv("EMBEDDING_PROVIDER")
	EMBEDDING_API_KEY := os.Getenv("EMBEDDING_API_KEY")
	EMBEDDING_BASE_URL := os.Getenv("EMBEDDING_BASE_URL")
	EMBEDDING_MODEL := os.Getenv("EMBEDDING_MODEL")
	if len(DOCSTORE_USE_LOCAL) == 0 {
		l.Warn(fmt.Sprintf("Failed to read DOCSTORE_USE_LOCAL from env file (%s).", flgs.Dotenv))
		return
	}
	if len(AWS_ACCESS_KEY_ID) == 0 {
		l.Warn(fmt.Sprintf("Failed to read AWS_ACCESS_KEY_ID from env file (%s).", flgs.Dotenv))
		return
	}
	if len(AWS_SECRET_ACCESS_KEY) == 0 {
		l.Warn(fmt.Sprintf("Failed to read AWS_SECRET_ACCESS_KEY from env file (%s).", flgs.Dotenv))
		return
	}
	if len(AWS_REGION) == 0 {
		l.Warn(fmt.Sprintf("Failed to read AWS_REGION from env file (%s).", flgs.Dotenv))
		return
	}
	if len(S3_BUCKET) == 0 {
		l.Warn(fmt.Sprintf("Failed to read S3_BUCKET from env file (%s).", flgs.Dotenv))
		return
	}
	if len(CORS_ON_AT_RT) == 0 {
		l.Warn(fmt.Sprintf("Failed to read CORS_ON_AT_RT from env file (%s).", flgs.Dotenv))
		return
	}
	if len(CHAT_PROVIDER) == 0 {
		l.Warn(fmt.Sprintf("Failed to read CHAT_PROVIDER from env file (%s).", flgs.Dotenv))
		return
	}
	if len(CHAT_MODEL) == 0 {
		l.Warn(fmt.Sprintf("Failed to read CHAT_MODEL from env file (%s).", flgs.Dotenv))
		return
	}
	if len(EMBEDDING_PROVIDER) == 0 {
		l.Warn(fmt.Sprintf("Failed to read EMBEDDING_PROVIDER from env file (%s).", flgs.Dotenv))
		return
	}
	if len(EMBEDDING_MODEL) == 0 {
		l.Warn(fmt.Sprintf("Failed to read EMBEDDING_MODEL from env file (%s).", flgs.Dotenv))
		return
	}
	flgs.StorageUseLocal = DOCSTORE_USE_LOCAL == "1"
	flgs.StorageS3AccessKey = AWS_ACCESS_KEY_ID
	flgs.StorageS3SecretAccessKey = AWS_SECRET_ACCESS_KEY
	flgs.StorageS3Region = AWS_REGION
	flgs.StorageS3Bucket = S3_BUCKET
	flgs.CorsOnAtRT = CORS_ON_AT_RT == "1"
	// ドキュメント保管用
	store, err := docstore.NewStore(flgs.StorageS3AccessKey, flgs.StorageS3SecretAccessKey, flgs.StorageS3Region, flgs.StorageS3Bucket, config.S3C_LOCAL_ROOT, flgs.StorageUseLocal)
	if err != nil {
		l.Warn(fmt.Sprintf("Failed to build new document store: %s", err.Error()))
		return
	}

	ctx := context.Background()
	chatCfg := providers.ProviderConfig{
		Type:      providers.ProviderType(CHAT_PROVIDER),
		APIKey:    CHAT_API_KEY,
		BaseURL:   CHAT_BASE_URL,
		ModelName: CHAT_MODEL,
	}
	chat, err := providers.NewChatModel(ctx, chatCfg)
	if err != nil {
		l.Warn(fmt.Sprintf("Failed to build chat model: %s", err.Error()))
		return
	}
	embCfg := providers.ProviderConfig{
		Type:      providers.ProviderType(EMBEDDING_PROVIDER),
		APIKey:    EMBEDDING_API_KEY,
		BaseURL:   EMBEDDING_BASE_URL,
		ModelName: EMBEDDING_MODEL,
	}
	embedder, err := providers.NewEmbedder(ctx, embCfg)
	if err != nil {
		l.Warn(fmt.Sprintf("Failed to build embedder: %s", err.Error()))
		return
	}
	chunker, err := chunking.NewChunker(config.CHUNK_MAX_CHARS, config.CHUNK_OVERLAP)
	if err != nil {
		l.Warn(fmt.Sprintf("Failed to build chunker: %s", err.Error()))
		return
	}

	if env.Name == config.ProdEnv.Name {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(func(c *gin.Context) {
		c.Set("RequestID", uuid.New().String())
		c.Next()
	})

	if flgs.CorsOnAtRT {
		r.Use(corsFunc())
	}

	r.NoRoute(func(c *gin.Context) { c.JSON(http.StatusNotFound, gin.H{}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	db, err := common.GetDb(env)
	if err != nil {
		l.Fatal(fmt.Sprintf("Failed to connect to a DB. Error: %s", err.Error()))
		return
	}

	if l.Level() == zapcore.DebugLevel {
		db.Logger = db.Logger.LogMode(logger.Info)
	}

	bus := eventbus.New()
	reportStore := reports.NewStore(store)
	// コレクション設定の chat_model / embedding_model 上書きをモデル解決に反映する
	models := providers.NewOverrideModels(
		&providers.StaticModels{Chat: chat, Emb: embedder},
		chatCfg, embCfg, collectionModelSettings(db), l)
	engine := search.NewEngine(models, reportStore, l)
	pipeline := ingestion.NewPipeline(store, chunker, models, reportStore, bus, l)
	tracker := jobs.NewTracker(pipeline.CountDocs, l)
	if err := eventbus.Subscribe(bus, ingestion.ProgressEventName, func(evt ingestion.ProgressEvent) error {
		tracker.SetProgress(evt.Collection, evt.Progress)
		return nil
	}); err != nil {
		l.Warn(fmt.Sprintf("Failed to subscribe progress events: %s", err.Error()))
		return
	}
	orchestrator := query.NewOrchestrator(models, engine, store, &dbAuthorizer{db: db}, l)

	sk := flgs.SKey
	if len(sk) == 0 {
		sk = config.DEFAULT_SKEY
	}
	deps := &rtmiddleware.Deps{
		Logger:       l,
		Env:          env,
		Client:       hc,
		Hostname:     &hn,
		DB:           db,
		SKey:         &sk,
		Store:        store,
		Tracker:      tracker,
		Orchestrator: orchestrator,
		Pipeline:     pipeline,
		Bus:          bus,
	}
	MapRequest(r, deps)

	err = r.Run(fmt.Sprintf(":%d", config.REST_PORT))
	if err != nil {
		log.Fatalf("Failed to create REST API on port %d.", config.REST_PORT)
		return
	}
}

// collectionModelSettings は、collections.settings からモデル名の上書きを読み出す
// providers.SettingsFunc を返します。コレクションが無い・設定が空の場合は上書きなしです。
func collectionModelSettings(db *gorm.DB) providers.SettingsFunc {
	return func(ctx context.Context, collection string) (string, string, error) {
		col := model.Collection{}
		if err := db.WithContext(ctx).Select("settings").Where("`collections`.`name` = ?", collection).First(&col).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", "", nil
			}
			return "", "", err
		}
		if len(col.Settings) == 0 {
			return "", "", nil
		}
		s, err := common.ParseDatatypesJson[model.CollectionSettings](&col.Settings)
		if err != nil {
			return "", "", err
		}
		return s.ChatModel, s.EmbeddingModel, nil
	}
}

// dbAuthorizer は collections テーブルに基づいてアクセス可否を判定します。
type dbAuthorizer struct {
	db *gorm.DB
}

func (a *dbAuthorizer) UserHasAccess(ctx context.Context, usrID uint, collection string) (bool, error) {
	col := model.Collection{}
	if err := a.db.WithContext(ctx).Where("`collections`.`name` = ?", collection).First(&col).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if !col.IsRestricted || col.OwnerID == usrID {
		return true, nil
	}
	usr := model.Usr{}
	if err := a.db.WithContext(ctx).Select("is_staff").Where("`usrs`.`id` = ?", usrID).First(&usr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return usr.IsStaff, nil
}

func corsFunc() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
