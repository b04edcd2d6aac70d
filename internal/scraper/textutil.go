package scraper

import (
	"html"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// reWhitespace matches runs of whitespace (spaces, tabs, newlines).
var reWhitespace = regexp.MustCompile(`\s+`)

// datePattern pairs a regexp with whether it captures a time of day.
type datePattern struct {
	re      *regexp.Regexp
	hasTime bool
}

// datePatterns are tried in order; the first match with valid calendar
// values wins. Covers the formats press pages in the wild actually use:
// 2023年12月25日 15:30 / 2023/12/25 15:30 / 2023-12-25 15:30 and their
// date-only forms.
var datePatterns = []datePattern{
	{regexp.MustCompile(`(\d{4})年\s*(\d{1,2})月\s*(\d{1,2})日\s*(\d{1,2}):(\d{2})`), true},
	{regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})\s*(\d{1,2}):(\d{2})`), true},
	{regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})\s*(\d{1,2}):(\d{2})`), true},
	{regexp.MustCompile(`(\d{4})年\s*(\d{1,2})月\s*(\d{1,2})日`), false},
	{regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})`), false},
	{regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`), false},
}

// companyNamePatterns match Japanese corporate names in running text.
var companyNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`株式会社[^\s\d「」（）()]{2,}`),
	regexp.MustCompile(`[^\s\d「」（）()]{2,}株式会社`),
	regexp.MustCompile(`合同会社[^\s\d「」（）()]{2,}`),
	regexp.MustCompile(`[^\s\d「」（）()]{2,}合同会社`),
}

// CleanText normalizes scraped text: HTML entities are unescaped, the
// result is NFKC-normalized, control characters are removed, whitespace
// runs collapse to single spaces, and the ends are trimmed. When maxLen > 0
// the result is truncated to maxLen runes with a trailing ellipsis.
// Without a length limit the function is idempotent.
func CleanText(s string, maxLen int) string {
	if s == "" {
		return ""
	}

	s = html.UnescapeString(s)
	s = norm.NFKC.String(s)

	// Drop control characters, keeping whitespace controls (tab, newline,
	// carriage return) so they collapse to spaces below instead of gluing
	// adjacent words together.
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\t' || r == '\n' || r == '\r' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 || (r >= 0x7f && r <= 0x9f) {
			continue
		}
		b.WriteRune(r)
	}
	s = b.String()

	s = reWhitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if maxLen > 0 {
		runes := []rune(s)
		if len(runes) > maxLen {
			s = string(runes[:maxLen]) + "..."
		}
	}

	return s
}

// ExtractDate pulls a publication date out of free-form text. It tries the
// known date patterns in order and returns nil when nothing parses; it
// never fails loudly. Calendar-invalid matches (month 13, day 32) reject
// that pattern and the next one is tried.
func ExtractDate(s string) *time.Time {
	s = CleanText(s, 0)

	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}

		year := atoi(m[1])
		month := atoi(m[2])
		day := atoi(m[3])
		hour, minute := 0, 0
		if p.hasTime {
			hour = atoi(m[4])
			minute = atoi(m[5])
		}

		t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local)
		// time.Date normalizes out-of-range values (month 13 rolls into
		// January); a changed month or day means the match was invalid.
		if int(t.Month()) != month || t.Day() != day || t.Hour() != hour || t.Minute() != minute {
			continue
		}
		return &t
	}

	return nil
}

// NormalizeURL canonicalizes a URL: relative references resolve against
// baseURL, scheme and host are lowercased, an empty path becomes "/",
// query parameters sort lexically by their raw key=value form, and the
// fragment is dropped. Unparseable input is returned trimmed but
// otherwise as-is.
func NormalizeURL(rawURL, baseURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	if baseURL != "" {
		if base, err := url.Parse(baseURL); err == nil {
			if ref, err := url.Parse(rawURL); err == nil {
				rawURL = base.ResolveReference(ref).String()
			}
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	if u.Scheme == "" {
		u.Scheme = "https"
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Path == "" {
		u.Path = "/"
	} else if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
	}

	if u.RawQuery != "" {
		pairs := strings.Split(u.RawQuery, "&")
		sort.Strings(pairs)
		u.RawQuery = strings.Join(pairs, "&")
	}

	u.Fragment = ""
	u.RawFragment = ""

	return u.String()
}

// invalidExtensions are path suffixes that never point at an article.
var invalidExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".pdf", ".zip"}

// IsValidArticleURL reports whether a URL can identify an article: http(s)
// scheme, a host, and a path that is not a binary asset.
func IsValidArticleURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" {
		return false
	}

	path := strings.ToLower(u.Path)
	for _, ext := range invalidExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}

	return true
}

// ExtractCompanyName finds the first Japanese corporate name
// (株式会社/合同会社, prefix or suffix form) in the text, or "".
func ExtractCompanyName(s string) string {
	s = CleanText(s, 0)
	for _, re := range companyNamePatterns {
		if m := re.FindString(s); m != "" {
			return m
		}
	}
	return ""
}

// atoi is strconv.Atoi for digit-only regexp captures.
func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
