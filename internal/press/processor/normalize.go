package processor

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"bitable-press/internal/press/model"
)

// 表格列名（中英文混合，以远端表头为准）
const (
	colTitle          = "Title"
	colContent        = "Content"
	colURL            = "URL"
	colScreenshot     = "Screenshot"
	colDescription    = "Description"
	colRewrittenTitle = "新标题"
	colStatus         = "状态"
	colIsAd           = "是广告吗"
	colSummary        = "摘要总结"
	colOneSentence    = "一句话总结"
	colUnconventional = "反常识"
	colXiaohongshu    = "改写成小红书风格"
	colArticleScan    = "文章略读"
	colKeywords       = "关键词"
	colReadingTime    = "阅读时长"
	colQuality        = "质量判断"
	colCollectDate    = "收藏日期"
)

// 过滤原因
const (
	DropMissingField  = "missing_field"
	DropUnpublished   = "unpublished"
	DropAdvertisement = "advertisement"
)

const (
	excerptLimit   = 200
	wordsPerMinute = 200
)

var (
	mediaURLPattern = regexp.MustCompile(`/medias/([^/]+)/download`)
	keywordSplit    = regexp.MustCompile(`[,，、]`)
	firstInteger    = regexp.MustCompile(`\d+`)
)

// Normalize 过滤 + 转换 + 排序，纯函数，不会失败
func Normalize(records []model.RawRecord, now time.Time) []model.Post {
	posts, _ := normalize(records, now)
	return posts
}

// normalize 同 Normalize，额外返回每种过滤原因丢弃的条数
func normalize(records []model.RawRecord, now time.Time) ([]model.Post, map[string]int) {
	dropped := make(map[string]int)
	posts := make([]model.Post, 0, len(records))

	for _, r := range records {
		if reason := dropReason(r); reason != "" {
			dropped[reason]++
			continue
		}
		posts = append(posts, transformRecord(r, now))
	}

	sortByCreatedTime(posts)
	dedupeSlugs(posts)
	return posts, dropped
}

// dropReason 返回记录被过滤的原因，保留时返回空串
func dropReason(r model.RawRecord) string {
	// 标题和原文两列都要有，作为真实条目的证据
	if strings.TrimSpace(r.Field(colTitle).Text()) == "" || strings.TrimSpace(r.Field(colContent).Text()) == "" {
		return DropMissingField
	}

	// 状态列缺省视为已发布
	if status := r.Field(colStatus); !status.IsNull() && !isPublished(status) {
		return DropUnpublished
	}

	adMarker := r.Field(colIsAd)
	if isPureAd(strings.TrimSpace(adMarker.Text())) || isAffirmativeAd(adMarker) {
		return DropAdvertisement
	}
	return ""
}

func isPublished(v model.Value) bool {
	switch v.Kind {
	case model.KindNumber:
		return v.Num == model.StatusPublished
	case model.KindString:
		return strings.TrimSpace(v.Str) == "1"
	default:
		return strings.TrimSpace(v.Text()) == "1"
	}
}

// isPureAd 只拦明确的纯广告标记，“轻度推广”之类放行
func isPureAd(marker string) bool {
	return marker == "纯广告" || marker == "垃圾广告" || strings.Contains(marker, "纯广告")
}

// isAffirmativeAd 文本“是”/yes，或复选框列勾选
func isAffirmativeAd(v model.Value) bool {
	if v.Kind == model.KindBool {
		return v.Bool
	}
	marker := strings.TrimSpace(v.Text())
	return marker == "是" || strings.EqualFold(marker, "yes")
}

func transformRecord(r model.RawRecord, now time.Time) model.Post {
	text := func(col string) string { return r.Field(col).Text() }

	title := text(colRewrittenTitle)
	if strings.TrimSpace(title) == "" {
		title = text(colTitle)
	}

	rawContent := text(colContent)
	description := text(colDescription)
	summary := text(colSummary)
	oneSentence := text(colOneSentence)
	unconventional := text(colUnconventional)
	xiaohongshu := text(colXiaohongshu)
	articleScan := text(colArticleScan)

	content := composeContent(oneSentence, summary, unconventional, xiaohongshu)
	if content == "" {
		content = rawContent
	}

	slug := Slugify(title)
	if slug == "" {
		slug = r.RecordID
	}

	return model.Post{
		ID:             r.RecordID,
		Title:          title,
		Content:        content,
		Excerpt:        Excerpt(oneSentence, summary, description, rawContent, unconventional, xiaohongshu, articleScan),
		URL:            text(colURL),
		Screenshot:     screenshotPath(r.Field(colScreenshot)),
		CreatedTime:    createdTime(r, now),
		Slug:           slug,
		ReadTime:       readTime(r.Field(colReadingTime), rawContent),
		Status:         model.StatusPublished,
		Keywords:       SplitKeywords(r.Field(colKeywords)),
		IsAd:           isAffirmativeAd(r.Field(colIsAd)),
		Quality:        text(colQuality),
		Description:    description,
		Summary:        summary,
		OneSentence:    oneSentence,
		Unconventional: unconventional,
		Xiaohongshu:    xiaohongshu,
		ArticleScan:    articleScan,
	}
}

// composeContent 用 AI 字段拼 markdown，顺序固定；全部为空时返回空串
func composeContent(oneSentence, summary, unconventional, xiaohongshu string) string {
	sections := []struct {
		heading string
		body    string
	}{
		{"## 💡 核心观点", oneSentence},
		{"## 📚 内容摘要", summary},
		{"## 🤔 反常识思考", unconventional},
		{"## 🌟 小红书风格解读", xiaohongshu},
	}

	var b strings.Builder
	for _, s := range sections {
		if s.body == "" {
			continue
		}
		b.WriteString(s.heading)
		b.WriteString("\n\n")
		b.WriteString(s.body)
		b.WriteString("\n\n")
	}
	return b.String()
}

// Excerpt 按优先级取第一个非空：一句话总结、摘要、描述、原文纯文本，
// 最后才用其余 AI 字段兜底。超过 200 字截断并加省略号。
func Excerpt(oneSentence, summary, description, rawContent string, rest ...string) string {
	candidates := []string{oneSentence, summary, description, PlainText(rawContent)}
	for _, r := range rest {
		candidates = append(candidates, PlainText(r))
	}
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return Truncate(c, excerptLimit)
		}
	}
	// 原文只有 markdown 符号时去完就空了，退回原文本身
	return Truncate(strings.TrimSpace(rawContent), excerptLimit)
}

// MediaFileID 从飞书素材下载地址里取 file id
func MediaFileID(rawURL string) (string, bool) {
	m := mediaURLPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// screenshotPath 附件地址改写成本地代理路径，匹配不上时原样透传
func screenshotPath(v model.Value) string {
	items := v.Items()
	if len(items) == 0 {
		return ""
	}
	first := items[0]

	u := first.Get("url").Text()
	if u == "" && first.Kind == model.KindString {
		u = first.Str
	}
	if u == "" {
		if token := first.Get("file_token").Text(); token != "" {
			return "/api/image/" + token
		}
		return ""
	}

	if fileID, ok := MediaFileID(u); ok {
		return "/api/image/" + fileID
	}
	return u
}

// readTime 优先用 AI 预估的阅读时长，否则按 200 词/分钟估算
func readTime(explicit model.Value, rawContent string) int {
	if !explicit.IsNull() {
		if explicit.Kind == model.KindNumber {
			return atLeastOne(int(explicit.Num))
		}
		if s := explicit.Text(); s != "" {
			n, err := strconv.Atoi(firstInteger.FindString(s))
			if err != nil {
				return 1
			}
			return atLeastOne(n)
		}
	}
	return EstimateReadTime(rawContent)
}

// EstimateReadTime max(1, ceil(词数/200))
func EstimateReadTime(content string) int {
	words := len(strings.Fields(PlainText(content)))
	return atLeastOne(int(math.Ceil(float64(words) / wordsPerMinute)))
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// SplitKeywords 按中英文逗号、顿号切分；多选列表逐项切
func SplitKeywords(v model.Value) []string {
	keywords := []string{}
	for _, item := range v.Items() {
		for _, k := range keywordSplit.Split(item.Text(), -1) {
			if k = strings.TrimSpace(k); k != "" {
				keywords = append(keywords, k)
			}
		}
	}
	return keywords
}

// createdTime 收藏日期 > 记录创建时间 > 当前时间
func createdTime(r model.RawRecord, now time.Time) string {
	if s := timeText(r.Field(colCollectDate)); s != "" {
		return s
	}
	if s := timeText(r.CreatedTime); s != "" {
		return s
	}
	return now.UTC().Format(time.RFC3339)
}

// timeText 日期列在飞书里是毫秒时间戳，统一转成 RFC3339
func timeText(v model.Value) string {
	if v.Kind == model.KindNumber {
		if v.Num == 0 {
			return ""
		}
		return time.UnixMilli(int64(v.Num)).UTC().Format(time.RFC3339)
	}
	return strings.TrimSpace(v.Text())
}

// sortByCreatedTime 按创建时间倒序，解析不了的排在最后
func sortByCreatedTime(posts []model.Post) {
	type entry struct {
		post   model.Post
		at     time.Time
		parsed bool
	}
	entries := make([]entry, len(posts))
	for i, p := range posts {
		t, err := dateparse.ParseIn(p.CreatedTime, time.UTC)
		entries[i] = entry{post: p, at: t, parsed: err == nil}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].parsed != entries[j].parsed {
			return entries[i].parsed
		}
		return entries[i].at.After(entries[j].at)
	})
	for i := range entries {
		posts[i] = entries[i].post
	}
}

// dedupeSlugs 重名 slug 追加记录 id，先出现的保留原 slug
func dedupeSlugs(posts []model.Post) {
	seen := make(map[string]bool, len(posts))
	for i := range posts {
		if seen[posts[i].Slug] {
			posts[i].Slug = posts[i].Slug + "-" + posts[i].ID
		}
		seen[posts[i].Slug] = true
	}
}
