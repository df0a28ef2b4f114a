package helper

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"

	"bitable-press/internal/press/model"
)

// 凭证兜底用的环境变量
const (
	EnvAppID     = "FEISHU_APP_ID"
	EnvAppSecret = "FEISHU_APP_SECRET"
	EnvAppToken  = "FEISHU_APP_TOKEN"
	EnvTableID   = "FEISHU_TABLE_ID"
)

// CredentialResolver 先读站点配置，每个字段单独用环境变量兜底。
// 配置读取失败只记日志，不中断，和没有配置文件时的行为一致。
type CredentialResolver struct {
	Log    *zap.Logger
	Store  ConfigStore
	Getenv func(string) string
}

func NewCredentialResolver(log *zap.Logger, store ConfigStore) *CredentialResolver {
	return &CredentialResolver{Log: log, Store: store, Getenv: os.Getenv}
}

func (r *CredentialResolver) Credentials(ctx context.Context) (model.Credentials, error) {
	var stored model.FeishuConfig
	if r.Store != nil {
		cfg, err := r.Store.Load(ctx)
		if err != nil {
			r.Log.Error("Failed to load site config, falling back to environment", zap.Error(err))
		} else {
			stored = cfg.Feishu
		}
	}

	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	return model.Credentials{
		AppID:     firstNonEmpty(stored.AppID, getenv(EnvAppID)),
		AppSecret: firstNonEmpty(stored.AppSecret, getenv(EnvAppSecret)),
		AppToken:  firstNonEmpty(stored.AppToken, getenv(EnvAppToken)),
		TableID:   firstNonEmpty(stored.TableID, getenv(EnvTableID)),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
