package processor

import (
	"regexp"
	"strings"
)

var (
	markdownPunct = regexp.MustCompile("[#*`\\[\\]()]")
	whitespaceRun = regexp.MustCompile(`[\s\p{Z}]+`)

	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[\s_-]+`)
)

// PlainText 去掉 markdown 标点并压缩空白
func PlainText(s string) string {
	s = markdownPunct.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Slugify 小写 → 去掉非单词字符 → 空白/下划线/连字符合并为 "-" → 去首尾 "-"。
// \w 只匹配 ASCII，中文标题会得到空串，由调用方回退到记录 id。
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Truncate 按字符（rune）截断，超出部分以 "..." 结尾
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
