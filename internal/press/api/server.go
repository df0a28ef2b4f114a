package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bitable-press/internal/middleware/logger"
	"bitable-press/internal/press/feishu"
	"bitable-press/internal/press/helper"
	"bitable-press/internal/press/model"
	"bitable-press/internal/press/processor"
)

const (
	postsCacheControl = "s-maxage=300, stale-while-revalidate"
	mediaCacheControl = "public, max-age=86400, s-maxage=86400"

	adminPasswordHeader = "X-Admin-Password"
)

// PostService 列表、详情和素材代理
type PostService interface {
	FetchPosts(ctx context.Context) (*model.PostList, error)
	FindPost(ctx context.Context, slug string) (*model.Post, error)
	FetchMedia(ctx context.Context, fileID string) (*model.Media, error)
}

type Server struct {
	Log   *zap.Logger
	Posts PostService
	Store helper.ConfigStore
	// AdminPassword 为空时不注册 /api/admin 路由
	AdminPassword string
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(logger.GinZap(s.Log), logger.GinRecovery(s.Log))

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/posts", s.listPosts)
	api.GET("/posts/:slug", s.getPost)
	api.GET("/image/:fileId", s.getImage)
	api.GET("/config", s.publicConfig)

	if s.AdminPassword != "" {
		admin := api.Group("/admin", s.requireAdmin)
		admin.GET("/config", s.adminConfig)
		admin.POST("/config", s.saveConfig)
	}
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listPosts(c *gin.Context) {
	list, err := s.Posts.FetchPosts(c.Request.Context())
	if err != nil {
		s.respondError(c, err, "Failed to fetch posts")
		return
	}
	c.Header("Cache-Control", postsCacheControl)
	c.JSON(http.StatusOK, list)
}

func (s *Server) getPost(c *gin.Context) {
	post, err := s.Posts.FindPost(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, processor.ErrPostNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found", "message": err.Error()})
		return
	}
	if err != nil {
		s.respondError(c, err, "Failed to fetch post")
		return
	}
	c.Header("Cache-Control", postsCacheControl)
	c.JSON(http.StatusOK, post)
}

func (s *Server) getImage(c *gin.Context) {
	media, err := s.Posts.FetchMedia(c.Request.Context(), c.Param("fileId"))
	if errors.Is(err, processor.ErrEmptyFileID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File ID is required"})
		return
	}
	if err != nil {
		s.respondError(c, err, "Failed to load image")
		return
	}

	// 同一个 file id 的字节视为不可变，长缓存
	c.Header("Cache-Control", mediaCacheControl)
	c.Header("Content-Length", strconv.Itoa(len(media.Data)))
	c.Data(http.StatusOK, media.ContentType, media.Data)
}

func (s *Server) publicConfig(c *gin.Context) {
	cfg, err := s.Store.Load(c.Request.Context())
	if err != nil {
		s.Log.Error("Failed to read configuration", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read configuration"})
		return
	}
	c.JSON(http.StatusOK, cfg.Public())
}

func (s *Server) adminConfig(c *gin.Context) {
	cfg, err := s.Store.Load(c.Request.Context())
	if err != nil {
		s.Log.Error("Failed to read configuration", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read configuration"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) saveConfig(c *gin.Context) {
	// 缺省段落保留默认值；feishu 段不继承任何默认值，允许先保存空凭证
	cfg := model.DefaultSiteConfig()
	cfg.Feishu = model.FeishuConfig{}
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid configuration payload", "message": err.Error()})
		return
	}
	cfg.Sanitize()

	if err := s.Store.Save(c.Request.Context(), cfg); err != nil {
		s.Log.Error("Failed to save configuration", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save configuration"})
		return
	}
	s.Log.Info("Site configuration saved", zap.Bool("feishuComplete", len(cfg.Feishu.Credentials().Missing()) == 0))
	c.JSON(http.StatusOK, gin.H{"message": "Configuration saved successfully"})
}

func (s *Server) requireAdmin(c *gin.Context) {
	got := c.GetHeader(adminPasswordHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.AdminPassword)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Next()
}

// respondError 把管道错误映射成状态码：配置缺失 500，远端失败 502，其余 500
func (s *Server) respondError(c *gin.Context, err error, title string) {
	var fe *feishu.Error
	if !errors.As(err, &fe) {
		s.Log.Error(title, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": title, "message": err.Error()})
		return
	}

	if fe.Kind == feishu.KindConfiguration {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":         "Missing configuration",
			"missingFields": fe.MissingFields,
			"message":       "Set the Feishu credentials in the site config or the FEISHU_* environment variables",
		})
		return
	}

	s.Log.Error(title, zap.String("kind", string(fe.Kind)), zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{
		"error":   title,
		"kind":    fe.Kind,
		"message": fe.Message,
	})
}
