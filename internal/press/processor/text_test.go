package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Hello, World! 测试", "hello-world"},
		{"  Go_Lang -- Tips  ", "go-lang-tips"},
		{"already-a-slug", "already-a-slug"},
		{"!!!", ""},
		{"Version 2.0 Released!", "version-20-released"},
		{"Multiple   Spaces\tTabs", "multiple-spaces-tabs"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Heading bold code linkurl", PlainText("## Heading\n**bold** `code` [link](url)"))
	assert.Equal(t, "a b", PlainText("a 　 b"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab...", Truncate("abc", 2))
	assert.Equal(t, "测试...", Truncate("测试文本", 2))
}

func TestMediaFileID(t *testing.T) {
	id, ok := MediaFileID("https://open.feishu.cn/open-apis/drive/v1/medias/boxcnABC/download")
	assert.True(t, ok)
	assert.Equal(t, "boxcnABC", id)

	_, ok = MediaFileID("https://example.com/a.png")
	assert.False(t, ok)
}
