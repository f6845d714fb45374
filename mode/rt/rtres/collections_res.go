package rtres

import (
	"github.com/t-kawata/intelligraph/lib/common"
	"github.com/t-kawata/intelligraph/model"
	"github.com/t-kawata/intelligraph/pkg/graphrag/jobs"
	"github.com/t-kawata/intelligraph/pkg/graphrag/types"
)

type SearchCollectionsResSettings struct {
	ChatModel      string `json:"chat_model" swaggertype:"string" example:"gpt-4.1-mini"`
	EmbeddingModel string `json:"embedding_model" swaggertype:"string" example:"text-embedding-3-small"`
	CommunityLevel int    `json:"community_level" swaggertype:"integer" example:"1"`
} // @name SearchCollectionsResSettings

type SearchCollectionsResData struct {
	ID           uint                          `json:"id" swaggertype:"integer" example:"1"`
	UUID         string                        `json:"uuid" swaggertype:"string" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name         string                        `json:"name" swaggertype:"string" example:"my-documents"`
	Description  string                        `json:"description" swaggertype:"string" example:"Contract PDFs for 2025"`
	IsRestricted bool                          `json:"is_restricted" swaggertype:"boolean" example:"true"`
	OwnerID      uint                          `json:"owner_id" swaggertype:"integer" example:"1"`
	Settings     *SearchCollectionsResSettings `json:"settings,omitempty"`
	CreatedAt    string                        `json:"created_at" swaggertype:"string" format:"date-time" example:"2025-01-01T00:00:00"`
	UpdatedAt    string                        `json:"updated_at" swaggertype:"string" format:"date-time" example:"2025-01-01T00:00:00"`
} // @name SearchCollectionsResData

func (d *SearchCollectionsResData) Of(collections *[]model.Collection) *[]SearchCollectionsResData {
	data := []SearchCollectionsResData{}
	for _, m := range *collections {
		var settings *SearchCollectionsResSettings
		if len(m.Settings) > 0 {
			if s, err := common.ParseDatatypesJson[model.CollectionSettings](&m.Settings); err == nil {
				settings = &SearchCollectionsResSettings{
					ChatModel:      s.ChatModel,
					EmbeddingModel: s.EmbeddingModel,
					CommunityLevel: s.CommunityLevel,
				}
			}
		}
		data = append(data, SearchCollectionsResData{
			ID:           m.ID,
			UUID:         m.UUID,
			Name:         m.Name,
			Description:  m.Description,
			IsRestricted: m.IsRestricted,
			OwnerID:      m.OwnerID,
			Settings:     settings,
			CreatedAt:    common.ParseDatetimeToStr(&m.CreatedAt),
			UpdatedAt:    common.ParseDatetimeToStr(&m.UpdatedAt),
		})
	}
	return &data
}

type SearchCollectionsRes struct {
	Data   []SearchCollectionsResData `json:"data"`
	Errors []Err                      `json:"errors"`
} // @name SearchCollectionsRes

type CreateCollectionResData struct {
	ID   uint   `json:"id" swaggertype:"integer" example:"1"`
	UUID string `json:"uuid" swaggertype:"string" example:"550e8400-e29b-41d4-a716-446655440000"`
} // @name CreateCollectionResData

type CreateCollectionRes struct {
	Data   CreateCollectionResData `json:"data"`
	Errors []Err                   `json:"errors"`
} // @name CreateCollectionRes

type UpdateCollectionResData struct {
} // @name UpdateCollectionResData

type UpdateCollectionRes struct {
	Data   UpdateCollectionResData `json:"data"`
	Errors []Err                   `json:"errors"`
} // @name UpdateCollectionRes

type DeleteCollectionResData struct {
} // @name DeleteCollectionResData

type DeleteCollectionRes struct {
	Data   DeleteCollectionResData `json:"data"`
	Errors []Err                   `json:"errors"`
} // @name DeleteCollectionRes

type UploadFilesResData struct {
	Files []string `json:"files"`
} // @name UploadFilesResData

type UploadFilesRes struct {
	Data   UploadFilesResData `json:"data"`
	Errors []Err              `json:"errors"`
} // @name UploadFilesRes

type FetchUrlResData struct {
	File  string `json:"file" swaggertype:"string" example:"example-com-article.md"`
	Title string `json:"title" swaggertype:"string" example:"Some Article Title"`
	Chars int    `json:"chars" swaggertype:"integer" example:"12345"`
} // @name FetchUrlResData

type FetchUrlRes struct {
	Data   FetchUrlResData `json:"data"`
	Errors []Err           `json:"errors"`
} // @name FetchUrlRes

type GetFilesResData struct {
	Files []string `json:"files"`
} // @name GetFilesResData

type GetFilesRes struct {
	Data   GetFilesResData `json:"data"`
	Errors []Err           `json:"errors"`
} // @name GetFilesRes

type IndexCollectionResData struct {
	Status string `json:"status" swaggertype:"string" example:"initiated"`
} // @name IndexCollectionResData

type IndexCollectionRes struct {
	Data   IndexCollectionResData `json:"data"`
	Errors []Err                  `json:"errors"`
} // @name IndexCollectionRes

type IndexStatusResData struct {
	Status   string `json:"status" swaggertype:"string" example:"in_progress"`
	Progress int    `json:"progress" swaggertype:"integer" example:"80"`
	Error    string `json:"error,omitempty" swaggertype:"string" example:""`
} // @name IndexStatusResData

func (d *IndexStatusResData) Of(s *jobs.Status) *IndexStatusResData {
	return &IndexStatusResData{
		Status:   string(s.State),
		Progress: s.Progress,
		Error:    s.Error,
	}
}

type IndexStatusRes struct {
	Data   IndexStatusResData `json:"data"`
	Errors []Err              `json:"errors"`
} // @name IndexStatusRes

type AskResReport struct {
	ReportID string  `json:"report_id" swaggertype:"string" example:"3"`
	Title    string  `json:"title" swaggertype:"string" example:"Community 3"`
	Rank     float64 `json:"rank" swaggertype:"number" example:"8.5"`
} // @name AskResReport

type AskResUsage struct {
	Prompt     int `json:"prompt_tokens" swaggertype:"integer" example:"1200"`
	Completion int `json:"completion_tokens" swaggertype:"integer" example:"350"`
	Total      int `json:"total_tokens" swaggertype:"integer" example:"1550"`
} // @name AskResUsage

type AskResData struct {
	Answer  string         `json:"answer" swaggertype:"string" example:"The contract expires on 2025-12-31."`
	Reports []AskResReport `json:"reports"`
	Usage   AskResUsage    `json:"usage"`
} // @name AskResData

func (d *AskResData) Of(answer string, reports []types.CommunityReport, usage types.TokenUsage) *AskResData {
	rs := []AskResReport{}
	for _, r := range reports {
		rs = append(rs, AskResReport{ReportID: r.ReportID, Title: r.Title, Rank: r.Rank})
	}
	return &AskResData{
		Answer:  answer,
		Reports: rs,
		Usage:   AskResUsage{Prompt: usage.PromptTokens, Completion: usage.CompletionTokens, Total: usage.TotalTokens},
	}
}

type AskRes struct {
	Data   AskResData `json:"data"`
	Errors []Err      `json:"errors"`
} // @name AskRes
