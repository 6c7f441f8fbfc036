package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"donorhub/internal/models"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Bot posts reconciliation summaries to the admin chat. It is a no-op when no
// token or chat is configured.
type Bot struct {
	token  string
	chatID int64
	logger *zap.Logger
}

func NewBot(token string, chatID int64, logger *zap.Logger) (*Bot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{token, chatID, logger}, nil
}

func (bot *Bot) Enabled() bool {
	return bot.token != "" && bot.chatID != 0
}

func (bot *Bot) SendMsg(chatID int64, text string) error {
	b, err := tele.NewBot(tele.Settings{
		Token:   bot.token,
		Offline: true,
	})
	if err != nil {
		return err
	}

	_, err = b.Send(&tele.Chat{ID: chatID}, text, &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
	})
	return err
}

func (bot *Bot) NotifyRun(ctx context.Context, run *models.AssignmentRun) error {
	if !bot.Enabled() || run == nil {
		return nil
	}

	if err := bot.SendMsg(bot.chatID, FormatRunSummary(run)); err != nil {
		bot.logger.Warn("run summary not delivered", zap.String("run_id", run.ID), zap.Error(err))
		return err
	}
	return nil
}

const maxListedFailures = 10

func FormatRunSummary(run *models.AssignmentRun) string {
	var sb strings.Builder

	title := "Reward assignment finished"
	if run.RetryOf != nil {
		title = "Reward assignment retry finished"
	}
	fmt.Fprintf(&sb, "<b>%s</b>\n", title)
	fmt.Fprintf(&sb, "Run: <code>%s</code>\n", html.EscapeString(run.ID))
	if run.Actor != "" {
		fmt.Fprintf(&sb, "By: %s\n", html.EscapeString(run.Actor))
	}
	fmt.Fprintf(&sb, "Attempted: %d, succeeded: %d, failed: %d, skipped: %d\n",
		run.Attempted, run.Succeeded, run.Failed, run.Skipped)

	listed := 0
	for _, r := range run.Results {
		if r.Status != models.ASSIGNMENT_FAILED {
			continue
		}
		if listed == maxListedFailures {
			fmt.Fprintf(&sb, "and %d more\n", run.Failed-listed)
			break
		}
		fmt.Fprintf(&sb, "pledge #%d: %s\n", r.PledgeID, html.EscapeString(r.Error))
		listed++
	}

	return strings.TrimRight(sb.String(), "\n")
}
