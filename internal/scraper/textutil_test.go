package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanTextIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"\x00\x01\x02\x7f",
		"hello   world",
		"line1\nline2\tline3",
		"&amp;nbsp; entities &lt;b&gt;",
		"全角　スペース　テスト",
		" \r\n mixed \x1f control \x9f chars \n ",
	}
	for _, in := range inputs {
		once := CleanText(in, 0)
		twice := CleanText(once, 0)
		assert.Equal(t, once, twice, "input %q", in)
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "hello world", CleanText("  hello \n\t world  ", 0))
	assert.Equal(t, "a b", CleanText("a \x01 b", 0))
	assert.Equal(t, "&<>", CleanText("&amp;&lt;&gt;", 0))
	assert.Equal(t, "", CleanText("\x00\x1f\x7f", 0))
	// NFKC folds full-width forms.
	assert.Equal(t, "ABC 123", CleanText("ＡＢＣ　１２３", 0))
}

func TestCleanTextMaxLength(t *testing.T) {
	got := CleanText("あいうえおかきくけこ", 5)
	assert.Equal(t, "あいうえお...", got)
	assert.Equal(t, "short", CleanText("short", 10))
}

func TestExtractDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024年12月19日 09:50", time.Date(2024, 12, 19, 9, 50, 0, 0, time.Local)},
		{"2023年12月25日", time.Date(2023, 12, 25, 0, 0, 0, 0, time.Local)},
		{"2023/1/5 8:03", time.Date(2023, 1, 5, 8, 3, 0, 0, time.Local)},
		{"2023-12-25 15:30", time.Date(2023, 12, 25, 15, 30, 0, 0, time.Local)},
		{"2023-12-25", time.Date(2023, 12, 25, 0, 0, 0, 0, time.Local)},
		{"公開日: 2024年1月1日 00:00 更新", time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)},
	}
	for _, tc := range cases {
		got := ExtractDate(tc.in)
		require.NotNil(t, got, "input %q", tc.in)
		assert.True(t, tc.want.Equal(*got), "input %q: got %v", tc.in, got)
	}
}

func TestExtractDateInvalid(t *testing.T) {
	assert.Nil(t, ExtractDate("not a date"))
	assert.Nil(t, ExtractDate(""))
	// Month 13 is rejected, and no later pattern matches either.
	assert.Nil(t, ExtractDate("2023年13月1日"))
	assert.Nil(t, ExtractDate("2023/2/30"))
}

func TestNormalizeURL(t *testing.T) {
	// Query order and fragments must not affect identity.
	a := NormalizeURL("http://EX.com/a?b=2&a=1", "")
	b := NormalizeURL("http://ex.com/a?a=1&b=2#frag", "")
	assert.Equal(t, a, b)

	// Idempotent.
	assert.Equal(t, a, NormalizeURL(a, ""))

	// Relative resolution.
	assert.Equal(t,
		"https://example.co.jp/news/2024/01.html",
		NormalizeURL("/news/2024/01.html", "https://example.co.jp/news/"))
	assert.Equal(t,
		"https://example.co.jp/news/01.html",
		NormalizeURL("01.html", "https://example.co.jp/news/"))

	// Empty path becomes "/".
	assert.Equal(t, "https://example.com/", NormalizeURL("https://EXAMPLE.com", ""))
}

func TestIsValidArticleURL(t *testing.T) {
	assert.True(t, IsValidArticleURL("https://prtimes.jp/main/html/rd/p/000000001.html"))
	assert.True(t, IsValidArticleURL("http://example.com/news"))
	assert.False(t, IsValidArticleURL(""))
	assert.False(t, IsValidArticleURL("ftp://example.com/a"))
	assert.False(t, IsValidArticleURL("https:///no-host"))
	assert.False(t, IsValidArticleURL("https://example.com/photo.JPG"))
	assert.False(t, IsValidArticleURL("https://example.com/doc.pdf"))
}

func TestExtractCompanyName(t *testing.T) {
	assert.Equal(t, "株式会社サンプル", ExtractCompanyName("新製品を株式会社サンプルが発表"))
	assert.Equal(t, "テスト株式会社", ExtractCompanyName("テスト株式会社のお知らせ"))
	assert.Equal(t, "", ExtractCompanyName("no company here"))
}
