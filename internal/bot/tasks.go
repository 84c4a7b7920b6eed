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

	"whatnow/internal/model"
	"whatnow/internal/points"
	"whatnow/internal/service"
)

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureProfile(ctx, msg.From); err != nil {
		return err
	}
	log.Printf("[info] start new task conversation user=%d", msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{kind: convNewTask, stage: stageTaskName})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what's it called?", cancelKeyboard())
}

func (b *Bot) handleNewTaskStep(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)

	switch state.stage {
	case stageTaskName:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The name can't be empty. What's the task called?", cancelKeyboard())
		}
		state.input.Name = text
		state.stage = stageTaskDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Add a short description (or Skip).", skipKeyboard())

	case stageTaskDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageTaskType
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 What kind of task is it? Pick one or type your own.", typeKeyboard())

	case stageTaskType:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick a type or type your own.", typeKeyboard())
		}
		state.input.Type = text
		state.stage = stageTaskTime
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ How long does it usually take?", timeKeyboard(false))

	case stageTaskTime:
		minutes, ok := parseTimeOption(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick one of the buttons, e.g. <b>15 min</b>.", timeKeyboard(false))
		}
		state.input.Time = minutes
		state.stage = stageTaskEnergy
		return b.sendWithReplyMarkup(msg.Chat.ID, "⚡ How much energy does it take?", levelKeyboard(false))

	case stageTaskEnergy:
		level, ok := model.ParseLevel(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick Low, Medium or High.", levelKeyboard(false))
		}
		state.input.Energy = level
		state.stage = stageTaskSocial
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔋 How much social battery does it take?", levelKeyboard(false))

	case stageTaskSocial:
		level, ok := model.ParseLevel(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick Low, Medium or High.", levelKeyboard(false))
		}
		state.input.Social = level
		state.stage = stageTaskDueDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "📅 Due date as <code>2026-12-31</code> (or Skip).", skipKeyboard())

	case stageTaskDueDate:
		if !isSkipInput(text) {
			parsed, err := time.Parse("2006-01-02", text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Can't read that date. Use <code>2026-12-31</code> or Skip.", skipKeyboard())
			}
			state.input.DueDate = &parsed
		}
		state.stage = stageTaskRecurring
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 Does it repeat?", recurrenceKeyboard())

	case stageTaskRecurring:
		switch strings.ToLower(text) {
		case "none", "no", "-":
			state.input.Recurring = ""
		case model.RecurDaily, model.RecurWeekly, model.RecurMonthly:
			state.input.Recurring = strings.ToLower(text)
		default:
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick None, Daily, Weekly or Monthly.", recurrenceKeyboard())
		}
		err := b.finishTaskCreation(ctx, msg.From, state.input, msg.Chat.ID)
		b.clearConversation(msg.From.ID)
		return err

	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Dialog reset. Try /newtask again.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, input service.TaskInput, chatID int64) error {
	profile, err := b.ensureProfile(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.CreateTask(ctx, profile, input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Couldn't save the task: %s", escape(err.Error())))
	}

	log.Printf("[info] task created id=%d user=%d", task.ID, profile.ID)

	pts := points.Calculate(task.Time, task.Social, task.Energy)
	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("%s <b>%s</b>\n", typeBadge(task.Type), escape(task.Name)))
	if task.Description != "" {
		summary.WriteString(fmt.Sprintf("📝 %s\n", escape(task.Description)))
	}
	summary.WriteString(fmt.Sprintf("⏰ %d min · ⚡ %s · 🔋 %s · ⭐ %d pts\n", task.Time, task.Energy.Label(), task.Social.Label(), pts))
	if task.DueDate != nil {
		summary.WriteString(fmt.Sprintf("📅 Due %s\n", task.DueDate.Format("2006-01-02")))
	}
	if task.Recurring != "" {
		summary.WriteString(fmt.Sprintf("🔁 Repeats %s\n", task.Recurring))
	}
	return b.sendText(chatID, strings.TrimSpace(summary.String()))
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	profile, err := b.ensureProfile(ctx, msg.From)
	if err != nil {
		return err
	}

	tasks, err := b.taskSvc.List(ctx, profile)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't load your tasks: %s", escape(err.Error())))
	}
	if len(tasks) == 0 {
		return b.sendText(msg.Chat.ID, "No tasks yet. Add one with /newtask or paste a batch with /import.")
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Your tasks</b>\n")
	builder.WriteString("Start one right away, or edit and delete below.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		pts := points.Calculate(task.Time, task.Social, task.Energy)
		builder.WriteString(fmt.Sprintf("%s <b>#%d</b> %s\n", typeBadge(task.Type), task.ID, escape(task.Name)))
		builder.WriteString(fmt.Sprintf("   ⏰ %d min · ⚡ %s · 🔋 %s · ⭐ %d pts\n", task.Time, task.Energy.Label(), task.Social.Label(), pts))
		if task.DueDate != nil {
			builder.WriteString(fmt.Sprintf("   📅 %s\n", task.DueDate.Format("2006-01-02")))
		}
		if task.TimesCompleted > 0 {
			builder.WriteString(fmt.Sprintf("   ✅ done %d× (%d pts so far)\n", task.TimesCompleted, task.PointsEarned))
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("▶ #%d %s", task.ID, shortName(task.Name, 18)), fmt.Sprintf("%s%d", cbStartPrefix, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("✏️", fmt.Sprintf("%s%d", cbEditPrefix, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)),
		))
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, strings.TrimSpace(builder.String()))
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	out.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(out)
	return err
}

func (b *Bot) handleDeleteRequest(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	profile, err := b.ensureProfile(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.GetTask(ctx, profile, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(chatID, "Task not found — already deleted?")
		}
		return err
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", fmt.Sprintf("%s%d", cbConfirmDelPrefix, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("↩ Keep", cbCancelDelete),
		),
	)
	return b.sendWithReplyMarkup(chatID, fmt.Sprintf("Delete «%s» (#%d)? Its completion history stays.", escape(task.Name), task.ID), markup)
}

func (b *Bot) handleDeleteConfirmed(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	profile, err := b.ensureProfile(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.GetTask(ctx, profile, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(chatID, "Task not found — already deleted?")
		}
		return err
	}
	if err := b.taskSvc.DeleteTask(ctx, profile, taskID); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Couldn't delete the task: %s", escape(err.Error())))
	}
	log.Printf("[info] task deleted id=%d user=%d", taskID, profile.ID)
	return b.sendText(chatID, fmt.Sprintf("🗑 «%s» deleted.", escape(task.Name)))
}

// handleEditMenu shows one button per editable attribute.
func (b *Bot) handleEditMenu(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	profile, err := b.ensureProfile(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.GetTask(ctx, profile, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(chatID, "Task not found — already deleted?")
		}
		return err
	}

	fields := []struct{ label, field string }{
		{"Name", "name"}, {"Description", "description"},
		{"Type", "type"}, {"Time", "time"},
		{"Energy", "energy"}, {"Social", "social"},
		{"Due date", "due"}, {"Repeat", "recurring"},
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(fields); i += 2 {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(fields[i].label, fmt.Sprintf("%s%s:%d", cbEditFieldPrefix, fields[i].field, task.ID)),
		}
		if i+1 < len(fields) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(fields[i+1].label, fmt.Sprintf("%s%s:%d", cbEditFieldPrefix, fields[i+1].field, task.ID)))
		}
		rows = append(rows, row)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return b.sendWithReplyMarkup(chatID, fmt.Sprintf("✏️ Editing «%s» (#%d). What do you want to change?", escape(task.Name), task.ID), markup)
}

// handleEditFieldChoice parses "field:taskID" and prompts for the value.
func (b *Bot) handleEditFieldChoice(ctx context.Context, chatID int64, from *tgbotapi.User, data string) error {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return nil
	}
	field := parts[0]
	taskID := parseID(parts[1], "")
	if taskID == 0 {
		return nil
	}

	b.setConversation(from.ID, &conversationState{
		kind:       convEditField,
		stage:      stageEditValue,
		editTaskID: taskID,
		editField:  field,
	})

	switch field {
	case "type":
		return b.sendWithReplyMarkup(chatID, "🏷 New type — pick one or type your own.", typeKeyboard())
	case "time":
		return b.sendWithReplyMarkup(chatID, "⏰ New duration.", timeKeyboard(false))
	case "energy", "social":
		return b.sendWithReplyMarkup(chatID, "New level?", levelKeyboard(false))
	case "due":
		return b.sendWithReplyMarkup(chatID, "📅 New due date as <code>2026-12-31</code>, or <code>-</code> to clear.", cancelKeyboard())
	case "recurring":
		return b.sendWithReplyMarkup(chatID, "🔁 How often should it repeat?", recurrenceKeyboard())
	default:
		return b.sendWithReplyMarkup(chatID, "Send the new value.", cancelKeyboard())
	}
}

func (b *Bot) handleEditValue(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	profile, err := b.ensureProfile(ctx, msg.From)
	if err != nil {
		return err
	}
	raw := msg.Text
	if state.editField == "recurring" && strings.EqualFold(strings.TrimSpace(raw), "none") {
		raw = ""
	}

	task, err := b.taskSvc.UpdateField(ctx, profile, state.editTaskID, state.editField, raw)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			b.clearConversation(msg.From.ID)
			return b.sendText(msg.Chat.ID, "Task not found — already deleted?")
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, fmt.Sprintf("That didn't work: %s. Try again or ⏪ Cancel.", escape(err.Error())), cancelKeyboard())
	}

	b.clearConversation(msg.From.ID)
	log.Printf("[info] task edited id=%d field=%s user=%d", task.ID, state.editField, profile.ID)
	pts := points.Calculate(task.Time, task.Social, task.Energy)
	return b.sendText(msg.Chat.ID, fmt.Sprintf(
		"✅ Updated. «%s»: ⏰ %d min · ⚡ %s · 🔋 %s · ⭐ %d pts.",
		escape(task.Name), task.Time, task.Energy.Label(), task.Social.Label(), pts,
	))
}

func recurrenceKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("None"),
			tgbotapi.NewKeyboardButton("Daily"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Weekly"),
			tgbotapi.NewKeyboardButton("Monthly"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func shortName(name string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(name, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
