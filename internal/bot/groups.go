package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"whatnow/internal/repository"
	"whatnow/internal/service"
)

func (b *Bot) handleGroups(ctx context.Context, msg *tgbotapi.Message) error {
	profile, err := b.ensureProfile(ctx, msg.From)
	if err != nil {
		return err
	}

	groups, err := b.groupSvc.ListForMember(ctx, profile)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't load your groups: %s", escape(err.Error())))
	}
	if len(groups) == 0 {
		return b.sendText(msg.Chat.ID, "No groups yet. Create one with /newgroup or join with /joingroup &lt;code&gt;.")
	}

	var builder strings.Builder
	builder.WriteString("👥 <b>Your groups</b>\n\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, group := range groups {
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", escape(group.Name)))
		if group.Description != "" {
			builder.WriteString(fmt.Sprintf("   %s\n", escape(group.Description)))
		}
		builder.WriteString(fmt.Sprintf("   🔑 Invite code: <code>%s</code>\n", escape(group.InviteCode)))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🏆 %s", shortName(group.Name, 18)), fmt.Sprintf("%s%d", cbBoardPrefix, group.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🚪 Leave", fmt.Sprintf("%s%d", cbLeavePrefix, group.ID)),
		))
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, strings.TrimSpace(builder.String()))
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	out.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(out)
	return err
}

func (b *Bot) startNewGroupConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureProfile(ctx, msg.From); err != nil {
		return err
	}
	b.setConversation(msg.From.ID, &conversationState{kind: convNewGroup, stage: stageGroupName})
	return b.sendWithReplyMarkup(msg.Chat.ID, "👥 New group.\nWhat should it be called?", cancelKeyboard())
}

func (b *Bot) handleNewGroupStep(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)

	switch state.stage {
	case stageGroupName:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The group needs a name.", cancelKeyboard())
		}
		state.groupName = text
		state.stage = stageGroupDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Add a description (or Skip).", skipKeyboard())

	case stageGroupDescription:
		description := ""
		if !isSkipInput(text) {
			description = text
		}
		profile, err := b.ensureProfile(ctx, msg.From)
		if err != nil {
			return err
		}
		group, err := b.groupSvc.CreateGroup(ctx, profile, state.groupName, description)
		b.clearConversation(msg.From.ID)
		if err != nil {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't create the group: %s", escape(err.Error())))
		}
		log.Printf("[info] group created id=%d by user=%d", group.ID, profile.ID)
		return b.sendText(msg.Chat.ID, fmt.Sprintf(
			"🎉 <b>%s</b> created!\n🔑 Invite code: <code>%s</code>\nShare it so friends can /joingroup %s.",
			escape(group.Name), escape(group.InviteCode), escape(group.InviteCode),
		))

	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Dialog reset. Try /newgroup again.")
	}
}

func (b *Bot) handleJoinGroup(ctx context.Context, msg *tgbotapi.Message) error {
	code := strings.TrimSpace(msg.CommandArguments())
	if code == "" {
		return b.sendText(msg.Chat.ID, "Usage: /joingroup ABC123")
	}

	profile, err := b.ensureProfile(ctx, msg.From)
	if err != nil {
		return err
	}

	group, err := b.groupSvc.JoinByCode(ctx, profile, code)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return b.sendText(msg.Chat.ID, "Invalid invite code.")
	case errors.Is(err, repository.ErrAlreadyMember):
		return b.sendText(msg.Chat.ID, fmt.Sprintf("You're already in «%s».", escape(group.Name)))
	case err != nil:
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't join: %s", escape(err.Error())))
	}

	log.Printf("[info] user=%d joined group=%d", profile.ID, group.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🎉 You've joined <b>%s</b>! See the board under /groups.", escape(group.Name)))
}

func (b *Bot) handleLeaderboard(ctx context.Context, chatID int64, groupID uint) error {
	group, err := b.groupSvc.Get(ctx, groupID)
	if err != nil {
		return b.sendText(chatID, "Group not found.")
	}

	entries, err := b.leaderboardSvc.Standings(ctx, groupID)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Couldn't load the leaderboard: %s", escape(err.Error())))
	}
	if len(entries) == 0 {
		return b.sendText(chatID, fmt.Sprintf("🏆 <b>%s</b>\nNo points on the board yet this week. First task wins!", escape(group.Name)))
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🏆 <b>%s</b> — this week\n\n", escape(group.Name)))
	for i, entry := range entries {
		medal := fmt.Sprintf("%d.", i+1)
		switch i {
		case 0:
			medal = "🥇"
		case 1:
			medal = "🥈"
		case 2:
			medal = "🥉"
		}
		name := entry.DisplayName
		if name == "" {
			name = "Anonymous"
		}
		builder.WriteString(fmt.Sprintf("%s <b>%s</b> (%s)\n    ⭐ %d pts · ✅ %d tasks\n",
			medal, escape(name), escape(entry.CurrentRank), entry.WeeklyPoints, entry.WeeklyTasks))
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleLeaveRequest(ctx context.Context, chatID int64, groupID uint) error {
	group, err := b.groupSvc.Get(ctx, groupID)
	if err != nil {
		return b.sendText(chatID, "Group not found.")
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚪 Leave", fmt.Sprintf("%s%d", cbConfirmLeavePrefix, group.ID)),
			tgbotapi.NewInlineKeyboardButtonData("↩ Stay", cbCancelLeave),
		),
	)
	return b.sendWithReplyMarkup(chatID, fmt.Sprintf("Leave «%s»?", escape(group.Name)), markup)
}

func (b *Bot) handleLeaveConfirmed(ctx context.Context, chatID int64, from *tgbotapi.User, groupID uint) error {
	profile, err := b.ensureProfile(ctx, from)
	if err != nil {
		return err
	}
	if err := b.groupSvc.Leave(ctx, profile, groupID); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Couldn't leave: %s", escape(err.Error())))
	}
	log.Printf("[info] user=%d left group=%d", profile.ID, groupID)
	return b.sendText(chatID, "You've left the group.")
}

// SendWeeklyDigests pushes last week's score to every known profile.
// Runs from the scheduler on Monday mornings.
func (b *Bot) SendWeeklyDigests(ctx context.Context) error {
	profiles, err := b.profileRepo.ListAll(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	thisWeek := service.WeekStart(now)
	lastWeek := thisWeek.AddDate(0, 0, -7)

	for _, profile := range profiles {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		total, err := b.completionRepo.TotalInRange(ctx, profile.ID, lastWeek, thisWeek)
		if err != nil {
			log.Printf("digest for user %d: %v", profile.TelegramID, err)
			continue
		}
		if total.Tasks == 0 {
			continue
		}

		text := fmt.Sprintf(
			"🗓 <b>Your week in review</b>\n⭐ %d pts from ✅ %d tasks.\nNew week, fresh leaderboard — /whatnext when you're ready.",
			total.Points, total.Tasks,
		)
		if err := b.sendText(profile.TelegramID, text); err != nil {
			log.Printf("send digest to %d: %v", profile.TelegramID, err)
		}
	}
	return nil
}
