package model

import "strings"

// Credentials 飞书应用凭证 + 目标表
type Credentials struct {
	AppID     string
	AppSecret string
	AppToken  string
	TableID   string
}

// Missing 返回缺失的字段名（使用配置文件里的 camelCase 名称）
func (c Credentials) Missing() []string {
	var missing []string
	if c.AppID == "" {
		missing = append(missing, "appId")
	}
	if c.AppSecret == "" {
		missing = append(missing, "appSecret")
	}
	if c.AppToken == "" {
		missing = append(missing, "appToken")
	}
	if c.TableID == "" {
		missing = append(missing, "tableId")
	}
	return missing
}

// MissingApp 只检查换取 token 需要的两个字段
func (c Credentials) MissingApp() []string {
	var missing []string
	if c.AppID == "" {
		missing = append(missing, "appId")
	}
	if c.AppSecret == "" {
		missing = append(missing, "appSecret")
	}
	return missing
}

type FeishuConfig struct {
	AppID     string `json:"appId" bson:"appId"`
	AppSecret string `json:"appSecret" bson:"appSecret"`
	AppToken  string `json:"appToken" bson:"appToken"`
	TableID   string `json:"tableId" bson:"tableId"`
}

func (f FeishuConfig) Credentials() Credentials {
	return Credentials{
		AppID:     f.AppID,
		AppSecret: f.AppSecret,
		AppToken:  f.AppToken,
		TableID:   f.TableID,
	}
}

type SiteInfo struct {
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
	Author      string `json:"author" bson:"author"`
	Logo        string `json:"logo" bson:"logo"`
	Favicon     string `json:"favicon" bson:"favicon"`
	Domain      string `json:"domain" bson:"domain"`
}

type SocialLinks struct {
	Twitter string `json:"twitter" bson:"twitter"`
	GitHub  string `json:"github" bson:"github"`
	Email   string `json:"email" bson:"email"`
	Weibo   string `json:"weibo" bson:"weibo"`
}

type QRCodes struct {
	Donation string `json:"donation" bson:"donation"`
	Wechat   string `json:"wechat" bson:"wechat"`
}

type Features struct {
	PostsPerPage     int  `json:"postsPerPage" bson:"postsPerPage"`
	ShowDonation     bool `json:"showDonation" bson:"showDonation"`
	ShowWechat       bool `json:"showWechat" bson:"showWechat"`
	ShowSearch       bool `json:"showSearch" bson:"showSearch"`
	ShowRelatedPosts bool `json:"showRelatedPosts" bson:"showRelatedPosts"`
}

type SEO struct {
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`
	Keywords    string `json:"keywords" bson:"keywords"`
}

// SiteConfig 站点配置。feishu 段是凭证来源，其余段只给渲染层用
type SiteConfig struct {
	Feishu   FeishuConfig `json:"feishu" bson:"feishu"`
	Site     SiteInfo     `json:"site" bson:"site"`
	Social   SocialLinks  `json:"social" bson:"social"`
	QRCodes  QRCodes      `json:"qrCodes" bson:"qrCodes"`
	Features Features     `json:"features" bson:"features"`
	SEO      SEO          `json:"seo" bson:"seo"`
}

// PublicSiteConfig 不含凭证，可以直接返回给前端
type PublicSiteConfig struct {
	Site     SiteInfo    `json:"site"`
	Social   SocialLinks `json:"social"`
	QRCodes  QRCodes     `json:"qrCodes"`
	Features Features    `json:"features"`
	SEO      SEO         `json:"seo"`
}

// DefaultSiteConfig 默认配置。feishu 段留空，由 helper.CredentialResolver 从环境变量兜底
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		Site: SiteInfo{
			Name:        "乔木飞书收藏",
			Description: "基于飞书多维表格的动态博客系统",
			Author:      "向阳乔木",
			Logo:        "/icon.png",
			Favicon:     "/favicon.ico",
		},
		Social: SocialLinks{
			Twitter: "https://x.com/vista8",
			GitHub:  "https://github.com/joeseesun/",
		},
		Features: Features{
			PostsPerPage:     20,
			ShowDonation:     true,
			ShowWechat:       true,
			ShowSearch:       true,
			ShowRelatedPosts: true,
		},
		SEO: SEO{
			Title:       "乔木飞书收藏",
			Description: "基于飞书多维表格的动态博客系统",
			Keywords:    "博客,飞书,多维表格,内容管理",
		},
	}
}

func (c SiteConfig) Public() PublicSiteConfig {
	return PublicSiteConfig{
		Site:     c.Site,
		Social:   c.Social,
		QRCodes:  c.QRCodes,
		Features: c.Features,
		SEO:      c.SEO,
	}
}

// Sanitize 去掉首尾空白，空字段回填默认值。feishu 段允许为空（初次配置）
func (c *SiteConfig) Sanitize() {
	def := DefaultSiteConfig()

	c.Feishu.AppID = strings.TrimSpace(c.Feishu.AppID)
	c.Feishu.AppSecret = strings.TrimSpace(c.Feishu.AppSecret)
	c.Feishu.AppToken = strings.TrimSpace(c.Feishu.AppToken)
	c.Feishu.TableID = strings.TrimSpace(c.Feishu.TableID)

	fill(&c.Site.Name, def.Site.Name)
	fill(&c.Site.Description, def.Site.Description)
	fill(&c.Site.Author, def.Site.Author)
	fill(&c.Site.Logo, def.Site.Logo)
	fill(&c.Site.Favicon, def.Site.Favicon)
	fill(&c.Site.Domain, def.Site.Domain)

	fill(&c.Social.Twitter, def.Social.Twitter)
	fill(&c.Social.GitHub, def.Social.GitHub)
	fill(&c.Social.Email, def.Social.Email)
	fill(&c.Social.Weibo, def.Social.Weibo)

	fill(&c.QRCodes.Donation, def.QRCodes.Donation)
	fill(&c.QRCodes.Wechat, def.QRCodes.Wechat)

	if c.Features.PostsPerPage <= 0 {
		c.Features.PostsPerPage = def.Features.PostsPerPage
	}

	fill(&c.SEO.Title, def.SEO.Title)
	fill(&c.SEO.Description, def.SEO.Description)
	fill(&c.SEO.Keywords, def.SEO.Keywords)
}

func fill(field *string, fallback string) {
	*field = strings.TrimSpace(*field)
	if *field == "" {
		*field = fallback
	}
}
