package notify

import (
	"context"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/20yuto20/slack-news-aggregator/internal/collector"
	"github.com/20yuto20/slack-news-aggregator/internal/models"
)

type fakeSlackAPI struct {
	posts int
}

func (f *fakeSlackAPI) PostMessageContext(context.Context, string, ...slack.MsgOption) (string, string, error) {
	f.posts++
	return "C123", "167.89", nil
}

func TestNewArticleBlocks(t *testing.T) {
	when := time.Date(2024, 12, 19, 9, 50, 0, 0, time.Local)
	articles := []models.Article{
		{Title: "新サービス開始", URL: "https://example.com/1", PublishedAt: &when, Content: "概要です。"},
		{Title: "続報", URL: "https://example.com/2"},
	}

	blocks := newArticleBlocks("株式会社サンプル", articles)
	require.NotEmpty(t, blocks)

	header, ok := blocks[0].(*slack.HeaderBlock)
	require.True(t, ok)
	assert.Equal(t, "🆕 株式会社サンプルの新着記事 (2件)", header.Text.Text)

	// Header plus divider+section per article.
	assert.Len(t, blocks, 5)
}

func TestNewArticleBlocksCapped(t *testing.T) {
	articles := make([]models.Article, 25)
	for i := range articles {
		articles[i] = models.Article{Title: "x", URL: "https://example.com/x"}
	}

	blocks := newArticleBlocks("株式会社サンプル", articles)

	// Header + 10 capped articles (divider+section each) + overflow context.
	assert.Len(t, blocks, 1+2*maxArticlesPerMessage+1)
}

func TestRunSummaryBlocksListsFailures(t *testing.T) {
	summary := &collector.Summary{
		Succeeded:   2,
		Failed:      1,
		NewArticles: 5,
		Duration:    42 * time.Second,
		Results: []models.ScrapingResult{
			{CompanyID: "alpha", Source: "prtimes", Success: true},
			{CompanyID: "beta", Source: "hp", Success: false, ErrorMessage: "timeout"},
		},
	}

	blocks := runSummaryBlocks(summary)
	require.Len(t, blocks, 4, "failure section appended")

	section, ok := blocks[3].(*slack.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, section.Text.Text, "beta")
	assert.Contains(t, section.Text.Text, "timeout")
}

func TestNotifierUnconfiguredIsNoOp(t *testing.T) {
	var n *SlackNotifier
	assert.False(t, n.Configured())

	n = &SlackNotifier{}
	err := n.NotifyNewArticles(context.Background(), "株式会社サンプル", []models.Article{{Title: "x"}})
	assert.NoError(t, err)
	err = n.NotifyCriticalError(context.Background(), "boom", nil)
	assert.NoError(t, err)
}

func TestNotifierPosts(t *testing.T) {
	api := &fakeSlackAPI{}
	n := &SlackNotifier{api: api, channel: "#news"}

	err := n.NotifyNewArticles(context.Background(), "株式会社サンプル", []models.Article{
		{Title: "x", URL: "https://example.com/1"},
	})
	require.NoError(t, err)

	err = n.NotifyRunSummary(context.Background(), &collector.Summary{})
	require.NoError(t, err)

	assert.Equal(t, 2, api.posts)
}
