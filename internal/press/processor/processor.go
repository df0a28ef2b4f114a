package processor

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"bitable-press/internal/press/feishu"
	"bitable-press/internal/press/metrics"
	"bitable-press/internal/press/model"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrEmptyFileID  = errors.New("file id is required")
)

// CredentialSource 凭证来源（配置存储 + 环境变量兜底）
type CredentialSource interface {
	Credentials(ctx context.Context) (model.Credentials, error)
}

// Processor 串起 凭证 → token → 拉记录 → 归一化，以及素材代理
type Processor struct {
	Log         *zap.Logger
	Credentials CredentialSource
	Tokens      *feishu.TokenManager
	Client      *feishu.Client
	Now         func() time.Time
}

// NewProcessor 创建新的数据处理器
func NewProcessor(log *zap.Logger, creds CredentialSource, tokens *feishu.TokenManager, client *feishu.Client) *Processor {
	return &Processor{
		Log:         log,
		Credentials: creds,
		Tokens:      tokens,
		Client:      client,
		Now:         time.Now,
	}
}

// FetchPosts 每次都实时拉取，不缓存文章
func (p *Processor) FetchPosts(ctx context.Context) (*model.PostList, error) {
	creds, err := p.Credentials.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	if missing := creds.Missing(); len(missing) > 0 {
		p.Log.Warn("Feishu configuration incomplete", zap.Strings("missingFields", missing))
		return nil, feishu.NewConfigurationError(missing)
	}

	token, err := p.Tokens.GetAccessToken(ctx, creds)
	if err != nil {
		return nil, err
	}

	records, err := p.Client.ListRecords(ctx, token, creds.AppToken, creds.TableID)
	if err != nil {
		return nil, err
	}

	posts, dropped := normalize(records, p.Now())
	for reason, n := range dropped {
		metrics.RecordFiltered(reason, n)
	}
	metrics.SetPublished(len(posts))

	p.Log.Info("Normalized posts",
		zap.Int("records", len(records)),
		zap.Int("posts", len(posts)),
		zap.Int("droppedMissingField", dropped[DropMissingField]),
		zap.Int("droppedUnpublished", dropped[DropUnpublished]),
		zap.Int("droppedAdvertisement", dropped[DropAdvertisement]),
	)

	return &model.PostList{Posts: posts, Total: len(posts)}, nil
}

// FindPost 按 slug 查单篇文章
func (p *Processor) FindPost(ctx context.Context, slug string) (*model.Post, error) {
	list, err := p.FetchPosts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list.Posts {
		if list.Posts[i].Slug == slug {
			return &list.Posts[i], nil
		}
	}
	return nil, ErrPostNotFound
}

// FetchMedia 代理下载飞书素材，只需要 appId/appSecret
func (p *Processor) FetchMedia(ctx context.Context, fileID string) (*model.Media, error) {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return nil, ErrEmptyFileID
	}

	creds, err := p.Credentials.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	if missing := creds.MissingApp(); len(missing) > 0 {
		return nil, feishu.NewConfigurationError(missing)
	}

	token, err := p.Tokens.GetAccessToken(ctx, creds)
	if err != nil {
		return nil, err
	}
	return p.Client.DownloadMedia(ctx, token, fileID)
}

// WarmToken 预先换好 token，返回缓存的过期时间
func (p *Processor) WarmToken(ctx context.Context) (time.Time, error) {
	creds, err := p.Credentials.Credentials(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if _, err := p.Tokens.GetAccessToken(ctx, creds); err != nil {
		return time.Time{}, err
	}
	return p.Tokens.ExpiresAt(), nil
}
