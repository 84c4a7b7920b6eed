package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"whatnow/internal/model"
	"whatnow/internal/service"
)

func (b *Bot) startImportConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureProfile(ctx, msg.From); err != nil {
		return err
	}
	b.setConversation(msg.From.ID, &conversationState{
		kind:  convImport,
		stage: stageImportMode,
		importDefaults: service.ImportDefaults{
			Type:   "Chores",
			Time:   15,
			Energy: model.LevelLow,
			Social: model.LevelLow,
		},
	})
	return b.sendWithReplyMarkup(msg.Chat.ID,
		"📥 <b>Import tasks.</b>\nPlain <b>Text</b> (one task name per line) or <b>CSV</b> (<code>name,type,time,energy,social</code>)?",
		importModeKeyboard())
}

func (b *Bot) handleImportStep(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)

	switch state.stage {
	case stageImportMode:
		switch strings.ToLower(text) {
		case "text":
			state.importMode = "text"
			state.stage = stageImportType
			return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Which type should the imported tasks get?", typeKeyboard())
		case "csv":
			state.importMode = "csv"
			state.stage = stageImportPaste
			return b.sendWithReplyMarkup(msg.Chat.ID,
				"Paste your CSV lines now, e.g.\n<code>Do laundry,Chores,15,low,low\nCall mom,Social,30,medium,high</code>\nInvalid fields fall back to Chores / 15 min / low / low.",
				cancelKeyboard())
		default:
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick Text or CSV.", importModeKeyboard())
		}

	case stageImportType:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick a type or type your own.", typeKeyboard())
		}
		state.importDefaults.Type = text
		state.stage = stageImportTime
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ How long do they take?", timeKeyboard(false))

	case stageImportTime:
		minutes, ok := parseTimeOption(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick one of the buttons, e.g. <b>15 min</b>.", timeKeyboard(false))
		}
		state.importDefaults.Time = minutes
		state.stage = stageImportEnergy
		return b.sendWithReplyMarkup(msg.Chat.ID, "⚡ How much energy do they take?", levelKeyboard(false))

	case stageImportEnergy:
		level, ok := model.ParseLevel(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick Low, Medium or High.", levelKeyboard(false))
		}
		state.importDefaults.Energy = level
		state.stage = stageImportSocial
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔋 How much social battery?", levelKeyboard(false))

	case stageImportSocial:
		level, ok := model.ParseLevel(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick Low, Medium or High.", levelKeyboard(false))
		}
		state.importDefaults.Social = level
		state.stage = stageImportPaste
		return b.sendWithReplyMarkup(msg.Chat.ID,
			"Paste your tasks now, one per line:\n<code>Do laundry\nBuy groceries\nCall dentist</code>",
			cancelKeyboard())

	case stageImportPaste:
		var inputs []service.TaskInput
		if state.importMode == "csv" {
			inputs = service.ParseCSVImport(msg.Text, state.importDefaults)
		} else {
			inputs = service.ParseTextImport(msg.Text, state.importDefaults)
		}
		if len(inputs) == 0 {
			return b.sendWithReplyMarkup(msg.Chat.ID, "I couldn't find any tasks in that. Paste again or ⏪ Cancel.", cancelKeyboard())
		}

		profile, err := b.ensureProfile(ctx, msg.From)
		if err != nil {
			return err
		}
		count, err := b.taskSvc.Import(ctx, profile, inputs)
		b.clearConversation(msg.From.ID)
		if err != nil {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("Import failed: %s", escape(err.Error())))
		}
		log.Printf("[info] imported %d tasks user=%d mode=%s", count, profile.ID, state.importMode)
		plural := "s"
		if count == 1 {
			plural = ""
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Imported %d task%s! See them with /tasks.", count, plural))

	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Dialog reset. Try /import again.")
	}
}

func importModeKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Text"),
			tgbotapi.NewKeyboardButton("CSV"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
