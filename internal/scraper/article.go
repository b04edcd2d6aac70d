// Package scraper collects press-release articles from PR Times and
// company homepages. Each source has its own extractor; both share the
// text/date/URL normalization helpers and emit the same Article shape.
package scraper

import "time"

// Article source tags.
const (
	SourcePRTimes = "prtimes"
	SourceHP      = "hp"
)

// Article is one discovered press item, identified by its canonical URL.
// PublishedAt is nil when no date could be parsed; downstream code must
// tolerate that.
type Article struct {
	Title       string
	URL         string
	PublishedAt *time.Time
	Content     string
	ImageURL    string
	CompanyName string
	Source      string
}
