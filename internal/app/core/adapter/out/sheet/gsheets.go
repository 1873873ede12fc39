package sheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// maxSheetBytes 下載上限
const maxSheetBytes = 10 << 20

var sheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// ErrInvalidSheetURL 不是 Google Sheets 網址
var ErrInvalidSheetURL = errors.New("URL Google Sheets tidak valid")

// CSVExportURL 將 Google Sheets 網址轉成 CSV 匯出網址，可指定工作表名稱
func CSVExportURL(sheetURL, sheetName string) (string, error) {
	m := sheetIDPattern.FindStringSubmatch(sheetURL)
	if m == nil {
		return "", ErrInvalidSheetURL
	}
	u := "https://docs.google.com/spreadsheets/d/" + m[1] + "/export?format=csv"
	if name := strings.TrimSpace(sheetName); name != "" {
		u += "&sheet=" + url.QueryEscape(name)
	}
	return u, nil
}

// Fetcher 下載公開的 Google Sheets 並解析為 CSV
type Fetcher struct {
	client *http.Client
}

// NewFetcher client 為 nil 時使用 15 秒逾時的預設 client
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client}
}

// Fetch 下載並解析
//
// 參數:
//
//	ctx: 上下文
//	sheetURL: 試算表網址
//	sheetName: 工作表名稱 (可空)
//
// 回傳:
//
//	[][]string: 資料列
//	error: 網址無效、下載失敗或內容無法解析
func (f *Fetcher) Fetch(ctx context.Context, sheetURL, sheetName string) ([][]string, error) {
	csvURL, err := CSVExportURL(sheetURL, sheetName)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, csvURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sheet: HTTP %d", resp.StatusCode)
	}
	return ReadCSV(io.LimitReader(resp.Body, maxSheetBytes))
}
