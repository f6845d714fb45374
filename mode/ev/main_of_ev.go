package ev

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/t-kawata/intelligraph/lib/common"
	"go.uber.org/zap"
)

type EVFlags struct {
	Endpoint   string
	Token      string
	Collection string
	QAFile     string
	OutFile    string
}

// QAEntry は、評価データセットの1エントリです。
type QAEntry struct {
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	IsAnswerable bool   `json:"is_answerable"`
}

// ResultEntry は1件の評価結果です。
type ResultEntry struct {
	Question       string `json:"question"`
	ExpectedAnswer string `json:"expected_answer"`
	ActualAnswer   string `json:"actual_answer"`
	Hit            bool   `json:"hit"`
	LatencyMsec    int64  `json:"latency_msec"`
}

// Summary は評価全体の要約です。
type Summary struct {
	Collection      string        `json:"collection"`
	TotalQuestions  int           `json:"total_questions"`
	HitCount        int           `json:"hit_count"`
	HitRate         string        `json:"hit_rate"`
	AvgLatencyMsec  string        `json:"avg_latency_msec"`
	MaxLatencyMsec  int64         `json:"max_latency_msec"`
	Results         []ResultEntry `json:"results"`
}

type askReqBody struct {
	Collection string `json:"index_name"`
	Question   string `json:"question"`
}

type askResBody struct {
	Data struct {
		Answer string `json:"answer"`
	} `json:"data"`
}

// MainOfEV は、稼働中のサーバに対してオフライン評価を実行します。
// QA JSON の各質問を /v1/ask に投げ、期待回答の部分一致とレイテンシを集計します。
func MainOfEV() {
	flgs := EVFlags{}
	_, cflgs, l, _, hc, err := common.Init("intelligraph ev mode", &[]common.Flag{
		{Dst: &flgs.Endpoint, Name: "p", Default: "http://127.0.0.1:8890", Doc: "Endpoint of the running REST API server."},
		{Dst: &flgs.Token, Name: "t", Default: "", Doc: "JWT token to call the API."},
		{Dst: &flgs.Collection, Name: "c", Default: "", Doc: "Collection name to evaluate."},
		{Dst: &flgs.QAFile, Name: "j", Default: "", Doc: "QA JSON file path."},
		{Dst: &flgs.OutFile, Name: "w", Default: "", Doc: "Output file path for the summary JSON."},
	})
	if err != nil {
		log.Fatalf("Error: %s", err.Error())
		return
	}
	l.Info(
		"Set EV flags: ",
		zap.String("e", cflgs.Env),
		zap.String("p", flgs.Endpoint),
		zap.String("c", flgs.Collection),
		zap.String("j", flgs.QAFile),
	)
	if len(flgs.Token) == 0 || len(flgs.Collection) == 0 || len(flgs.QAFile) == 0 {
		l.Warn("Missing -t or -c or -j arg.")
		return
	}
	content, err := os.ReadFile(flgs.QAFile)
	if err != nil {
		l.Warn(fmt.Sprintf("Failed to read QA file: %s", err.Error()))
		return
	}
	jsonStr := string(content)
	qaList, err := common.ParseJson[[]QAEntry](&jsonStr)
	if err != nil {
		l.Warn(fmt.Sprintf("Failed to parse QA file: %s", err.Error()))
		return
	}
	if len(qaList) == 0 {
		l.Warn("QA file has no entries.")
		return
	}
	summary := Summary{Collection: flgs.Collection, Results: []ResultEntry{}}
	totalLatency := decimal.Zero
	for i, qa := range qaList {
		if !qa.IsAnswerable {
			continue
		}
		answer, latency, err := ask(hc.Client, &flgs, qa.Question)
		if err != nil {
			l.Warn(fmt.Sprintf("Failed to ask question %d: %s", i+1, err.Error()))
			continue
		}
		hit := isHit(answer, qa.Answer)
		summary.TotalQuestions++
		if hit {
			summary.HitCount++
		}
		if latency > summary.MaxLatencyMsec {
			summary.MaxLatencyMsec = latency
		}
		totalLatency = totalLatency.Add(decimal.NewFromInt(latency))
		summary.Results = append(summary.Results, ResultEntry{
			Question:       qa.Question,
			ExpectedAnswer: qa.Answer,
			ActualAnswer:   answer,
			Hit:            hit,
			LatencyMsec:    latency,
		})
		l.Info("Evaluated", zap.Int("no", i+1), zap.Bool("hit", hit), zap.Int64("latency_msec", latency))
	}
	if summary.TotalQuestions == 0 {
		l.Warn("No answerable questions were evaluated.")
		return
	}
	total := decimal.NewFromInt(int64(summary.TotalQuestions))
	summary.HitRate = decimal.NewFromInt(int64(summary.HitCount)).Div(total).Round(4).String()
	summary.AvgLatencyMsec = totalLatency.Div(total).Round(1).String()
	out, err := common.ToJsonIndent(summary)
	if err != nil {
		l.Warn(fmt.Sprintf("Failed to marshal summary: %s", err.Error()))
		return
	}
	if len(flgs.OutFile) > 0 {
		if err := os.WriteFile(flgs.OutFile, []byte(out), 0644); err != nil {
			l.Warn(fmt.Sprintf("Failed to write summary file: %s", err.Error()))
			return
		}
		l.Info("Wrote evaluation summary.", zap.String("file", flgs.OutFile))
		return
	}
	fmt.Println(out)
}

func ask(client *http.Client, flgs *EVFlags, question string) (string, int64, error) {
	body, err := json.Marshal(askReqBody{Collection: flgs.Collection, Question: question})
	if err != nil {
		return "", 0, err
	}
	req, err := http.NewRequest(http.MethodPost, flgs.Endpoint+"/v1/ask", bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+flgs.Token)
	begin := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	latency := time.Since(begin).Milliseconds()
	if resp.StatusCode != http.StatusOK {
		return "", latency, fmt.Errorf("Unexpected status: %d", resp.StatusCode)
	}
	res := askResBody{}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", latency, err
	}
	return res.Data.Answer, latency, nil
}

// isHit は、期待回答が実回答に含まれているかを大小文字無視で判定します。
func isHit(actual string, expected string) bool {
	a := strings.ToLower(strings.TrimSpace(actual))
	e := strings.ToLower(strings.TrimSpace(expected))
	if len(e) == 0 {
		return false
	}
	return strings.Contains(a, e)
}
