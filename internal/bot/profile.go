package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"whatnow/internal/points"
)

func (b *Bot) handleProfile(ctx context.Context, msg *tgbotapi.Message) error {
	profile, err := b.ensureProfile(ctx, msg.From)
	if err != nil {
		return err
	}

	info := points.RankInfo(profile.TotalPoints)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🏅 <b>%s</b>\n\n", escape(profile.DisplayName)))
	builder.WriteString(fmt.Sprintf("🎖 Rank: <b>%s</b>\n", escape(info.Current)))
	if info.Next != "" {
		builder.WriteString(fmt.Sprintf("%s %.0f%% to %s\n", progressBar(info.Progress), info.Progress, escape(info.Next)))
	} else {
		builder.WriteString("👑 Top of the ladder!\n")
	}
	builder.WriteString(fmt.Sprintf("\n⭐ Points: <b>%d</b>\n", profile.TotalPoints))
	builder.WriteString(fmt.Sprintf("✅ Tasks completed: <b>%d</b>\n", profile.TotalTasksCompleted))
	builder.WriteString(fmt.Sprintf("⏰ Time on tasks: <b>%s min</b>\n", formatMinutes(profile.TotalTimeSpent)))
	builder.WriteString("\nChange your name with /name &lt;new name&gt;.")
	return b.sendText(msg.Chat.ID, builder.String())
}

func (b *Bot) handleCompleted(ctx context.Context, msg *tgbotapi.Message) error {
	profile, err := b.ensureProfile(ctx, msg.From)
	if err != nil {
		return err
	}

	recs, err := b.completionRepo.ListRecentByUser(ctx, profile.ID, 50)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't load your history: %s", escape(err.Error())))
	}
	if len(recs) == 0 {
		return b.sendText(msg.Chat.ID, "Nothing completed yet. Let's change that — /whatnext!")
	}

	var builder strings.Builder
	builder.WriteString("📜 <b>Recent completions</b>\n\n")
	for _, rec := range recs {
		builder.WriteString(fmt.Sprintf("%s %s — ⭐ %d pts", typeBadge(rec.TaskType), escape(rec.TaskName), rec.Points))
		if rec.TimeSpent != nil {
			builder.WriteString(fmt.Sprintf(" · %s min", formatMinutes(*rec.TimeSpent)))
		}
		builder.WriteString(fmt.Sprintf(" · %s\n", rec.CompletedAt.Format("Jan 2 15:04")))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleRename(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		return b.sendText(msg.Chat.ID, "Usage: /name Jamie the Unstoppable")
	}

	profile, err := b.ensureProfile(ctx, msg.From)
	if err != nil {
		return err
	}
	if err := b.profileRepo.UpdateDisplayName(ctx, profile.ID, name); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't rename: %s", escape(err.Error())))
	}
	log.Printf("[info] profile renamed user=%d", profile.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ You're now <b>%s</b>.", escape(name)))
}

func progressBar(percent float64) string {
	const width = 10
	filled := int(percent / 100 * width)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
}
