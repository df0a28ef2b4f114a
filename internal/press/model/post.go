package model

const StatusPublished = 1

// Post 归一化后的文章，供渲染层直接使用
type Post struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Excerpt     string   `json:"excerpt"`
	URL         string   `json:"url,omitempty"`
	Screenshot  string   `json:"screenshot,omitempty"`
	CreatedTime string   `json:"createdTime"`
	Slug        string   `json:"slug"`
	ReadTime    int      `json:"readTime"`
	Status      int      `json:"status"`
	Keywords    []string `json:"keywords"`
	IsAd        bool     `json:"isAd"`

	// AI 补充字段，原样保留给前端展示
	Quality        string `json:"quality,omitempty"`
	Description    string `json:"description,omitempty"`
	Summary        string `json:"summary,omitempty"`
	OneSentence    string `json:"oneSentence,omitempty"`
	Unconventional string `json:"unconventional,omitempty"`
	Xiaohongshu    string `json:"xiaohongshu,omitempty"`
	ArticleScan    string `json:"articleScan,omitempty"`
}

type PostList struct {
	Posts []Post `json:"posts"`
	Total int    `json:"total"`
}

// Media 代理下载的附件
type Media struct {
	Data        []byte
	ContentType string
}
