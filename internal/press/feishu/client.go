package feishu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"bitable-press/internal/press/metrics"
	"bitable-press/internal/press/model"
)

const (
	// PageSize 单次拉取上限。只读第一页，超过 100 行会被截断
	PageSize = 100

	defaultMediaContentType = "image/jpeg"
)

// Client 多维表格记录查询和素材下载
type Client struct {
	Log        *zap.Logger
	HTTPClient *http.Client
	baseURL    string
}

// NewClient 创建飞书开放平台客户端
func NewClient(log *zap.Logger, httpClient *http.Client, baseURL string) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Log:        log,
		HTTPClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type recordsResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Items     []model.RawRecord `json:"items"`
		HasMore   bool              `json:"has_more"`
		PageToken string            `json:"page_token"`
		Total     int               `json:"total"`
	} `json:"data"`
}

// ListRecords 查询一张表的记录，返回原始 items
func (c *Client) ListRecords(ctx context.Context, token, appToken, tableID string) ([]model.RawRecord, error) {
	start := time.Now()

	q := make(url.Values)
	q.Set("page_size", fmt.Sprint(PageSize))
	endpoint := fmt.Sprintf("%s/bitable/v1/apps/%s/tables/%s/records?%s",
		c.baseURL, url.PathEscape(appToken), url.PathEscape(tableID), q.Encode())

	req, err := c.newRequest(ctx, endpoint, token)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		metrics.RecordRemote(metrics.OpRecords, metrics.StatusError, time.Since(start))
		return nil, fmt.Errorf("list records request failed: %w", err)
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordRemote(metrics.OpRecords, metrics.StatusTransport, time.Since(start))
		c.Log.Error("Records endpoint returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("tableId", tableID),
		)
		return nil, transportError(KindFetchTransport, "fetch posts", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var data recordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		metrics.RecordRemote(metrics.OpRecords, metrics.StatusError, time.Since(start))
		return nil, fmt.Errorf("decode records response: %w", err)
	}
	if data.Code != 0 {
		metrics.RecordRemote(metrics.OpRecords, metrics.StatusProtocol, time.Since(start))
		c.Log.Error("Records endpoint returned error code",
			zap.Int("code", data.Code),
			zap.String("msg", data.Msg),
			zap.String("tableId", tableID),
		)
		return nil, protocolError(KindFetchProtocol, data.Code, data.Msg)
	}

	if data.Data.HasMore {
		c.Log.Warn("Record listing truncated to first page",
			zap.String("tableId", tableID),
			zap.Int("pageSize", PageSize),
			zap.Int("total", data.Data.Total),
		)
	}

	metrics.RecordRemote(metrics.OpRecords, metrics.StatusOK, time.Since(start))
	c.Log.Debug("Fetched records",
		zap.String("tableId", tableID),
		zap.Int("count", len(data.Data.Items)),
	)

	items := data.Data.Items
	if items == nil {
		items = []model.RawRecord{}
	}
	return items, nil
}

// DownloadMedia 下载素材原始字节
func (c *Client) DownloadMedia(ctx context.Context, token, fileID string) (*model.Media, error) {
	start := time.Now()

	endpoint := fmt.Sprintf("%s/drive/v1/medias/%s/download", c.baseURL, url.PathEscape(fileID))
	req, err := c.newRequest(ctx, endpoint, token)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		metrics.RecordRemote(metrics.OpMedia, metrics.StatusError, time.Since(start))
		return nil, fmt.Errorf("download media request failed: %w", err)
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordRemote(metrics.OpMedia, metrics.StatusTransport, time.Since(start))
		c.Log.Warn("Media endpoint returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("fileId", fileID),
		)
		return nil, transportError(KindMediaTransport, "download file", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordRemote(metrics.OpMedia, metrics.StatusError, time.Since(start))
		return nil, fmt.Errorf("read media body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultMediaContentType
	}

	metrics.RecordRemote(metrics.OpMedia, metrics.StatusOK, time.Since(start))
	return &model.Media{Data: data, ContentType: contentType}, nil
}

func (c *Client) newRequest(ctx context.Context, endpoint, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

func (c *Client) closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		c.Log.Warn("Failed to close response body", zap.Error(err))
	}
}
