// Package slackbot answers @mentions with article lookups and on-demand
// collection runs.
package slackbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/20yuto20/slack-news-aggregator/internal/collector"
	"github.com/20yuto20/slack-news-aggregator/internal/models"
)

const defaultRecentDays = 7

var (
	reMention    = regexp.MustCompile(`<@[A-Z0-9]+>`)
	reDaysJP     = regexp.MustCompile(`(\d+)日`)
	reDaysEN     = regexp.MustCompile(`(\d+)\s*days?`)
	reAllKeyword = regexp.MustCompile(`(?:(?i:all)|全件)\s*(\S.*)?`)
)

// ArticleReader is the slice of the article store the bot queries.
type ArticleReader interface {
	ListRecent(ctx context.Context, companyID string, days, limit int) ([]models.Article, error)
	ListByCompanyKeyword(ctx context.Context, keyword string, limit int) ([]models.Article, error)
	TotalCount(ctx context.Context) (int, error)
	CountByCompany(ctx context.Context) (map[string]int, error)
	CountBySource(ctx context.Context) (map[string]int, error)
}

// Runner triggers a full collection run.
type Runner interface {
	Run(ctx context.Context) (*collector.Summary, error)
}

// slackAPI is the slice of the Slack client the bot replies through.
type slackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
}

// Bot dispatches mention text to commands.
type Bot struct {
	api      slackAPI
	articles ArticleReader
	runner   Runner

	// RunTimeout bounds the background run a "run" command starts.
	RunTimeout time.Duration
}

// New builds a bot posting replies with the given token.
func New(botToken string, articles ArticleReader, runner Runner) *Bot {
	return &Bot{
		api:        slack.New(botToken),
		articles:   articles,
		runner:     runner,
		RunTimeout: 30 * time.Minute,
	}
}

// command is a parsed mention.
type command struct {
	name    string
	days    int
	keyword string
}

// parseCommand maps mention text to a command. Unknown input falls back to
// help so the bot always answers something useful.
func parseCommand(text string) command {
	cleaned := strings.TrimSpace(reMention.ReplaceAllString(text, ""))
	lower := strings.ToLower(cleaned)

	switch {
	case strings.Contains(lower, "recent"), strings.Contains(cleaned, "最近"):
		days := defaultRecentDays
		if m := reDaysJP.FindStringSubmatch(cleaned); m != nil {
			days, _ = strconv.Atoi(m[1])
		} else if m := reDaysEN.FindStringSubmatch(lower); m != nil {
			days, _ = strconv.Atoi(m[1])
		}
		if days <= 0 {
			days = defaultRecentDays
		}
		return command{name: "recent", days: days}
	case strings.Contains(lower, "stats"), strings.Contains(cleaned, "統計"):
		return command{name: "stats"}
	case strings.Contains(lower, "all"), strings.Contains(cleaned, "全件"):
		var keyword string
		if m := reAllKeyword.FindStringSubmatch(cleaned); m != nil {
			keyword = strings.TrimSpace(m[1])
		}
		return command{name: "all", keyword: keyword}
	case strings.Contains(lower, "run"), strings.Contains(cleaned, "実行"):
		return command{name: "run"}
	default:
		return command{name: "help"}
	}
}

// HandleMention answers one app mention in the channel it was posted to.
func (b *Bot) HandleMention(ctx context.Context, channelID, text string) {
	cmd := parseCommand(text)
	slog.Info("bot command", "command", cmd.name, "channel", channelID)

	var err error
	switch cmd.name {
	case "recent":
		err = b.replyRecent(ctx, channelID, cmd.days)
	case "stats":
		err = b.replyStats(ctx, channelID)
	case "all":
		err = b.replyAll(ctx, channelID, cmd.keyword)
	case "run":
		err = b.replyRun(ctx, channelID)
	default:
		err = b.replyHelp(ctx, channelID)
	}
	if err != nil {
		slog.Error("bot reply failed", "command", cmd.name, "err", err)
	}
}

func (b *Bot) replyRecent(ctx context.Context, channelID string, days int) error {
	articles, err := b.articles.ListRecent(ctx, "", days, 20)
	if err != nil {
		return b.reply(ctx, channelID, "記事の取得に失敗しました。")
	}
	if len(articles) == 0 {
		return b.reply(ctx, channelID, fmt.Sprintf("過去%d日間の新着記事はありません。", days))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*過去%d日間の記事 (%d件)*\n", days, len(articles))
	for _, a := range articles {
		fmt.Fprintf(&sb, "• <%s|%s>", a.URL, a.Title)
		if a.CompanyName != "" {
			fmt.Fprintf(&sb, " (%s)", a.CompanyName)
		}
		sb.WriteString("\n")
	}
	return b.reply(ctx, channelID, sb.String())
}

func (b *Bot) replyStats(ctx context.Context, channelID string) error {
	total, err := b.articles.TotalCount(ctx)
	if err != nil {
		return b.reply(ctx, channelID, "統計の取得に失敗しました。")
	}
	byCompany, err := b.articles.CountByCompany(ctx)
	if err != nil {
		return b.reply(ctx, channelID, "統計の取得に失敗しました。")
	}
	bySource, err := b.articles.CountBySource(ctx)
	if err != nil {
		return b.reply(ctx, channelID, "統計の取得に失敗しました。")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*📊 記事統計*\n総記事数: %d件\n", total)
	if len(bySource) > 0 {
		sb.WriteString("\n*ソース別*\n")
		for source, n := range bySource {
			fmt.Fprintf(&sb, "• %s: %d件\n", source, n)
		}
	}
	if len(byCompany) > 0 {
		sb.WriteString("\n*会社別*\n")
		for name, n := range byCompany {
			fmt.Fprintf(&sb, "• %s: %d件\n", name, n)
		}
	}
	return b.reply(ctx, channelID, sb.String())
}

// replyAll exports every stored article of the matching companies as a
// JSON file attached to the channel.
func (b *Bot) replyAll(ctx context.Context, channelID, keyword string) error {
	if keyword == "" {
		return b.reply(ctx, channelID, "会社名のキーワードを指定してください (例: `all サンプル`)")
	}

	articles, err := b.articles.ListByCompanyKeyword(ctx, keyword, 500)
	if err != nil {
		return b.reply(ctx, channelID, "記事の取得に失敗しました。")
	}
	if len(articles) == 0 {
		return b.reply(ctx, channelID, fmt.Sprintf("「%s」に一致する会社の記事はありません。", keyword))
	}

	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return fmt.Errorf("slackbot: marshal export: %w", err)
	}

	_, err = b.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:        channelID,
		Filename:       fmt.Sprintf("articles_%s.json", keyword),
		FileSize:       len(data),
		Reader:         bytes.NewReader(data),
		InitialComment: fmt.Sprintf("📦 「%s」の全記事 (%d件)", keyword, len(articles)),
	})
	if err != nil {
		return fmt.Errorf("slackbot: upload export: %w", err)
	}
	return nil
}

// replyRun acknowledges immediately and runs the collection in the
// background; Slack retries the event if the handler blocks too long.
func (b *Bot) replyRun(ctx context.Context, channelID string) error {
	if b.runner == nil {
		return b.reply(ctx, channelID, "このボットからは実行できません。")
	}
	if err := b.reply(ctx, channelID, "🏃 スクレイピングを開始しました。完了したら結果をお知らせします。"); err != nil {
		return err
	}

	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), b.RunTimeout)
		defer cancel()
		if _, err := b.runner.Run(runCtx); err != nil {
			slog.Error("on-demand run failed", "err", err)
		}
	}()
	return nil
}

func (b *Bot) replyHelp(ctx context.Context, channelID string) error {
	help := strings.Join([]string{
		"*使い方*",
		"• `recent [N日]` : 過去N日間の記事を表示 (デフォルト7日)",
		"• `all <会社名>` : 該当する会社の全記事をJSONで出力",
		"• `stats` : 記事の統計を表示",
		"• `run` : スクレイピングを今すぐ実行",
		"• `help` : このメッセージを表示",
	}, "\n")
	return b.reply(ctx, channelID, help)
}

func (b *Bot) reply(ctx context.Context, channelID, text string) error {
	_, _, err := b.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("slackbot: post reply: %w", err)
	}
	return nil
}
