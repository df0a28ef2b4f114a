package helper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"bitable-press/internal/press/model"
)

// ConfigStore 站点配置的持久化
type ConfigStore interface {
	Load(ctx context.Context) (model.SiteConfig, error)
	Save(ctx context.Context, cfg model.SiteConfig) error
}

// FileStore 站点配置存本地 JSON 文件（默认 feishu-config.json）
type FileStore struct {
	Path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load 兼容两种格式：嵌套的 {"feishu": {...}, "site": {...}} 和旧版扁平的 {"appId": ...}
func (s *FileStore) Load(_ context.Context) (model.SiteConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.DefaultSiteConfig(), nil
	}
	if err != nil {
		return model.SiteConfig{}, fmt.Errorf("read config file: %w", err)
	}
	return parseSiteConfig(data)
}

func parseSiteConfig(data []byte) (model.SiteConfig, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return model.SiteConfig{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := model.DefaultSiteConfig()
	if _, nested := probe["feishu"]; nested {
		// 预填默认值后再解码，等于按段深合并
		if err := json.Unmarshal(data, &cfg); err != nil {
			return model.SiteConfig{}, fmt.Errorf("parse config file: %w", err)
		}
		return cfg, nil
	}

	if _, flat := probe["appId"]; flat {
		if err := json.Unmarshal(data, &cfg.Feishu); err != nil {
			return model.SiteConfig{}, fmt.Errorf("parse legacy config file: %w", err)
		}
	}
	return cfg, nil
}

// Save 先写临时文件再 rename，文件里有密钥所以权限 0600
func (s *FileStore) Save(_ context.Context, cfg model.SiteConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	return nil
}
