package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"bitable-press/internal/press/metrics"
	"bitable-press/internal/press/model"
)

const (
	DefaultBaseURL = "https://open.feishu.cn/open-apis"

	// tokenSafetyMargin 提前一分钟过期，避免拿到刚好失效的 token
	tokenSafetyMargin = 60 * time.Second
)

type accessToken struct {
	key       string
	value     string
	expiresAt time.Time
}

// TokenManager 缓存 tenant_access_token。
// 刷新不互斥：两个请求同时看到过期可能都去刷新，后写者胜出，两个 token 都有效。
// singleflight 只用来合并同一时刻的刷新，省一次调用。
type TokenManager struct {
	Log        *zap.Logger
	HTTPClient *http.Client

	baseURL string
	now     func() time.Time

	mu     sync.RWMutex
	cached accessToken
	group  singleflight.Group
}

type TokenOption func(*TokenManager)

// WithClock 注入时钟，测试用
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) { m.now = now }
}

// NewTokenManager 创建 token 管理器
func NewTokenManager(log *zap.Logger, httpClient *http.Client, baseURL string, opts ...TokenOption) *TokenManager {
	if log == nil {
		log = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	m := &TokenManager{
		Log:        log,
		HTTPClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type tokenRequest struct {
	AppID     string `json:"app_id"`
	AppSecret string `json:"app_secret"`
}

type tokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"`
}

// GetAccessToken 命中缓存直接返回，否则向鉴权接口换一次新 token
func (m *TokenManager) GetAccessToken(ctx context.Context, creds model.Credentials) (string, error) {
	if missing := creds.MissingApp(); len(missing) > 0 {
		return "", NewConfigurationError(missing)
	}

	key := creds.AppID + "\x00" + creds.AppSecret
	if token, ok := m.lookup(key); ok {
		return token, nil
	}

	// 共享的刷新不能跟随某一个调用方取消，超时由 HTTPClient.Timeout 兜住
	refreshCtx := context.WithoutCancel(ctx)
	v, err, shared := m.group.Do(key, func() (any, error) {
		return m.refresh(refreshCtx, creds, key)
	})
	if err != nil {
		return "", err
	}
	if shared {
		m.Log.Debug("Token refresh shared with concurrent caller", zap.String("appId", creds.AppID))
	}
	return v.(string), nil
}

// ExpiresAt 当前缓存 token 的过期时间，没有缓存时返回零值
func (m *TokenManager) ExpiresAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cached.expiresAt
}

func (m *TokenManager) lookup(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cached.value == "" || m.cached.key != key {
		return "", false
	}
	if !m.now().Before(m.cached.expiresAt) {
		return "", false
	}
	return m.cached.value, true
}

func (m *TokenManager) refresh(ctx context.Context, creds model.Credentials, key string) (string, error) {
	start := time.Now()

	body, err := json.Marshal(tokenRequest{AppID: creds.AppID, AppSecret: creds.AppSecret})
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.baseURL+"/auth/v3/tenant_access_token/internal", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		metrics.RecordRemote(metrics.OpToken, metrics.StatusError, time.Since(start))
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			m.Log.Warn("Failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordRemote(metrics.OpToken, metrics.StatusTransport, time.Since(start))
		m.Log.Error("Token endpoint returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("appId", creds.AppID),
		)
		return "", transportError(KindAuthTransport, "get access token", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var data tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		metrics.RecordRemote(metrics.OpToken, metrics.StatusError, time.Since(start))
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if data.Code != 0 {
		metrics.RecordRemote(metrics.OpToken, metrics.StatusProtocol, time.Since(start))
		m.Log.Error("Token endpoint returned error code",
			zap.Int("code", data.Code),
			zap.String("msg", data.Msg),
			zap.String("appId", creds.AppID),
		)
		return "", protocolError(KindAuthProtocol, data.Code, data.Msg)
	}

	expiresAt := m.now().Add(time.Duration(data.Expire)*time.Second - tokenSafetyMargin)

	m.mu.Lock()
	m.cached = accessToken{key: key, value: data.TenantAccessToken, expiresAt: expiresAt}
	m.mu.Unlock()

	metrics.RecordRemote(metrics.OpToken, metrics.StatusOK, time.Since(start))
	m.Log.Info("Refreshed tenant access token",
		zap.String("appId", creds.AppID),
		zap.Time("expiresAt", expiresAt),
	)
	return data.TenantAccessToken, nil
}
