// Package notify posts run outcomes and new-article digests to Slack.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"

	"github.com/20yuto20/slack-news-aggregator/internal/collector"
	"github.com/20yuto20/slack-news-aggregator/internal/config"
	"github.com/20yuto20/slack-news-aggregator/internal/models"
)

// maxArticlesPerMessage caps the article sections in one digest so the
// message stays under Slack's block limit.
const maxArticlesPerMessage = 10

// slackAPI is the slice of the Slack client the notifier uses.
type slackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier implements the collector's notifier over the Slack Web API.
// With no credentials configured every method is a logged no-op.
type SlackNotifier struct {
	api     slackAPI
	channel string
}

// NewSlackNotifier builds a notifier from the Slack configuration.
func NewSlackNotifier(cfg config.SlackConfig) *SlackNotifier {
	n := &SlackNotifier{channel: cfg.Channel}
	if cfg.Configured() {
		n.api = slack.New(cfg.BotToken)
	} else {
		slog.Warn("Slack not configured, notifications disabled")
	}
	return n
}

// Configured reports whether messages will actually be sent.
func (n *SlackNotifier) Configured() bool {
	return n != nil && n.api != nil
}

// NotifyNewArticles posts a digest of freshly stored articles for one company.
func (n *SlackNotifier) NotifyNewArticles(ctx context.Context, companyName string, articles []models.Article) error {
	if !n.Configured() || len(articles) == 0 {
		return nil
	}

	blocks := newArticleBlocks(companyName, articles)
	fallback := fmt.Sprintf("%sの新着記事 (%d件)", companyName, len(articles))
	return n.post(ctx, fallback, blocks)
}

// NotifyRunSummary posts the aggregate outcome of one collection run.
func (n *SlackNotifier) NotifyRunSummary(ctx context.Context, summary *collector.Summary) error {
	if !n.Configured() {
		return nil
	}

	blocks := runSummaryBlocks(summary)
	fallback := fmt.Sprintf("スクレイピング実行結果: 成功%d件 / 失敗%d件 / 新着%d件",
		summary.Succeeded, summary.Failed, summary.NewArticles)
	return n.post(ctx, fallback, blocks)
}

// NotifyCriticalError posts a failure alert for errors that abort a run.
func (n *SlackNotifier) NotifyCriticalError(ctx context.Context, message string, cause error) error {
	if !n.Configured() {
		return nil
	}
	return n.post(ctx, "エラーが発生しました: "+message, criticalErrorBlocks(message, cause))
}

func (n *SlackNotifier) post(ctx context.Context, fallback string, blocks []slack.Block) error {
	_, _, err := n.api.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(fallback, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return fmt.Errorf("notify: post message: %w", err)
	}
	return nil
}

func newArticleBlocks(companyName string, articles []models.Article) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(plainText(fmt.Sprintf("🆕 %sの新着記事 (%d件)", companyName, len(articles)))),
	}

	shown := articles
	if len(shown) > maxArticlesPerMessage {
		shown = shown[:maxArticlesPerMessage]
	}

	for _, a := range shown {
		text := fmt.Sprintf("*<%s|%s>*", a.URL, a.Title)
		if a.PublishedAt != nil {
			text += "\n📅 " + a.PublishedAt.Format("2006年1月2日 15:04")
		}
		if a.Content != "" {
			text += "\n" + truncateRunes(a.Content, 200)
		}
		blocks = append(blocks,
			slack.NewDividerBlock(),
			slack.NewSectionBlock(markdownText(text), nil, nil),
		)
	}

	if rest := len(articles) - len(shown); rest > 0 {
		blocks = append(blocks, slack.NewContextBlock("",
			markdownText(fmt.Sprintf("ほか %d 件", rest))))
	}
	return blocks
}

func runSummaryBlocks(summary *collector.Summary) []slack.Block {
	fields := []*slack.TextBlockObject{
		markdownText(fmt.Sprintf("✅ *成功:* %d件", summary.Succeeded)),
		markdownText(fmt.Sprintf("❌ *失敗:* %d件", summary.Failed)),
		markdownText(fmt.Sprintf("📄 *新着記事:* %d件", summary.NewArticles)),
		markdownText(fmt.Sprintf("🕒 *実行時間:* %.1f秒", summary.Duration.Seconds())),
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(plainText("🤖 スクレイピング実行結果")),
		slack.NewSectionBlock(nil, fields, nil),
	}

	var failures string
	for _, r := range summary.Results {
		if !r.Success {
			failures += fmt.Sprintf("• %s (%s): %s\n", r.CompanyID, r.Source, r.ErrorMessage)
		}
	}
	if failures != "" {
		blocks = append(blocks,
			slack.NewDividerBlock(),
			slack.NewSectionBlock(markdownText("*失敗したタスク*\n"+failures), nil, nil),
		)
	}
	return blocks
}

func criticalErrorBlocks(message string, cause error) []slack.Block {
	text := message
	if cause != nil {
		text += fmt.Sprintf("\n```%v```", cause)
	}
	return []slack.Block{
		slack.NewHeaderBlock(plainText("⚠️ エラーが発生しました")),
		slack.NewSectionBlock(markdownText(text), nil, nil),
	}
}

func plainText(s string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, s, true, false)
}

func markdownText(s string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, s, false, false)
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
