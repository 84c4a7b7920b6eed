package bot

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"whatnow/internal/model"
	"whatnow/internal/points"
	"whatnow/internal/recommend"
)

// startWhatNext opens the state query dialog: how much time, energy and
// social battery does the user have right now. Every answer is optional
// but at least one is required before a session starts.
func (b *Bot) startWhatNext(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureProfile(ctx, msg.From); err != nil {
		return err
	}
	if run := b.getRun(msg.From.ID); run != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("You're already on «%s». Send /done when finished or /giveup to drop it.", escape(run.taskName)))
	}

	b.setConversation(msg.From.ID, &conversationState{kind: convWhatNext, stage: stageQueryTime})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🎯 <b>What next?</b>\n⏰ How much time do you have? (or Skip)", timeKeyboard(true))
}

func (b *Bot) handleWhatNextStep(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)

	switch state.stage {
	case stageQueryTime:
		if !isSkipInput(text) {
			minutes, ok := parseTimeOption(text)
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick one of the buttons, e.g. <b>15 min</b>, or Skip.", timeKeyboard(true))
			}
			state.query.MaxTime = &minutes
		}
		state.stage = stageQueryEnergy
		return b.sendWithReplyMarkup(msg.Chat.ID, "⚡ What's your energy level? (or Skip)", levelKeyboard(true))

	case stageQueryEnergy:
		if !isSkipInput(text) {
			level, ok := model.ParseLevel(text)
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick Low, Medium or High, or Skip.", levelKeyboard(true))
			}
			state.query.MaxEnergy = &level
		}
		state.stage = stageQuerySocial
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔋 What's your social battery? (or Skip)", levelKeyboard(true))

	case stageQuerySocial:
		if !isSkipInput(text) {
			level, ok := model.ParseLevel(text)
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick Low, Medium or High, or Skip.", levelKeyboard(true))
			}
			state.query.MaxSocial = &level
		}
		if state.query.IsEmpty() {
			state.stage = stageQueryTime
			state.query = recommend.Query{}
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick at least one filter so I know what fits.\n⏰ How much time do you have?", timeKeyboard(true))
		}
		query := state.query
		b.clearConversation(msg.From.ID)
		return b.startSwipe(ctx, msg.Chat.ID, msg.From, query)

	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Dialog reset. Try /whatnext again.")
	}
}

// startSwipe computes the ranked queue once and opens the card loop.
func (b *Bot) startSwipe(ctx context.Context, chatID int64, from *tgbotapi.User, query recommend.Query) error {
	profile, err := b.ensureProfile(ctx, from)
	if err != nil {
		return err
	}

	tasks, err := b.taskSvc.List(ctx, profile)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Couldn't load your tasks: %s", escape(err.Error())))
	}

	queue := recommend.SelectCandidates(tasks, query)
	log.Printf("[info] session start user=%d candidates=%d of %d", from.ID, len(queue), len(tasks))

	b.setSession(from.ID, &swipeState{
		session:   recommend.NewSession(queue),
		profileID: profile.ID,
		chatID:    chatID,
	})
	return b.presentCard(ctx, from.ID)
}

// presentCard shows the current card, or the fallback list when the
// session has run out. The shown counter is bumped at most once per task
// per session, driven by the session's own bookkeeping.
func (b *Bot) presentCard(ctx context.Context, userID int64) error {
	state := b.getSession(userID)
	if state == nil {
		return nil
	}

	task, ok := state.session.Current()
	if !ok {
		b.clearSession(userID)
		return b.sendFallback(state.chatID, state.session.Len())
	}

	if taskID, first := state.session.MarkShown(); first {
		if err := b.taskRepo.IncrementShown(ctx, state.profileID, taskID); err != nil {
			log.Printf("mark shown task=%d: %v", taskID, err)
		}
	}

	pts := points.Calculate(task.Time, task.Social, task.Energy)

	var card strings.Builder
	card.WriteString(fmt.Sprintf("%s <b>%s</b>  <i>(%d / %d)</i>\n", typeBadge(task.Type), escape(task.Name), state.session.Position(), state.session.Len()))
	if task.Description != "" {
		card.WriteString(fmt.Sprintf("📝 %s\n", escape(task.Description)))
	}
	card.WriteString(fmt.Sprintf("⏰ %d min · ⚡ %s · 🔋 %s\n", task.Time, task.Energy.Label(), task.Social.Label()))
	card.WriteString(fmt.Sprintf("⭐ <b>%d pts</b>", pts))

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Accept", fmt.Sprintf("%s%d", cbAcceptPrefix, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("⏭ Skip", fmt.Sprintf("%s%d", cbSkipPrefix, task.ID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩ Stop", cbStopSwipe),
		),
	)
	return b.sendWithReplyMarkup(state.chatID, card.String(), markup)
}

func (b *Bot) sendFallback(chatID int64, queueLen int) error {
	var builder strings.Builder
	if queueLen == 0 {
		builder.WriteString("💡 <b>No matching tasks found.</b>\n")
	} else {
		builder.WriteString("💡 <b>You've gone through all matching tasks!</b>\n")
	}
	builder.WriteString("Here are some quick wins to keep your momentum going:\n\n")
	for i, suggestion := range recommend.FallbackSuggestions {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, suggestion))
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleAccept(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	state := b.getSession(from.ID)
	if state == nil {
		return b.sendText(chatID, "That session is over. Start a new one with /whatnext.")
	}
	current, ok := state.session.Current()
	if !ok || current.ID != taskID {
		// Stale button from an earlier card; ignore.
		return nil
	}

	task, pts, ok := state.session.Accept()
	if !ok {
		return nil
	}
	b.clearSession(from.ID)
	b.setRun(from.ID, &activeRun{
		taskID:    task.ID,
		taskName:  task.Name,
		points:    pts,
		nominal:   task.Time,
		startedAt: time.Now(),
	})

	log.Printf("[info] task accepted user=%d task=%d points=%d", from.ID, task.ID, pts)
	return b.sendText(chatID, fmt.Sprintf(
		"⏱ <b>Go!</b> You're on «%s» (~%d min, %d pts waiting).\nSend /done when you finish, or /giveup to bail.",
		escape(task.Name), task.Time, pts,
	))
}

func (b *Bot) handleSkip(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	state := b.getSession(from.ID)
	if state == nil {
		return b.sendText(chatID, "That session is over. Start a new one with /whatnext.")
	}
	current, ok := state.session.Current()
	if !ok || current.ID != taskID {
		return nil
	}

	skippedID, ok := state.session.Skip()
	if ok {
		if err := b.taskRepo.IncrementSkipped(ctx, state.profileID, skippedID); err != nil {
			log.Printf("mark skipped task=%d: %v", skippedID, err)
		}
	}
	return b.presentCard(ctx, from.ID)
}

func (b *Bot) handleStopSwipe(chatID int64, from *tgbotapi.User) error {
	b.clearSession(from.ID)
	return b.sendText(chatID, "Session closed. Come back with /whatnext anytime.")
}

// handleStartFromList begins a run straight from the manage list. The
// point value is computed here, at entry, same as accepting a card.
func (b *Bot) handleStartFromList(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	if run := b.getRun(from.ID); run != nil {
		return b.sendText(chatID, fmt.Sprintf("You're already on «%s». /done or /giveup first.", escape(run.taskName)))
	}

	profile, err := b.ensureProfile(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.GetTask(ctx, profile, taskID)
	if err != nil {
		return b.sendText(chatID, "Task not found — it may have been deleted.")
	}

	pts := points.Calculate(task.Time, task.Social, task.Energy)
	b.clearSession(from.ID)
	b.setRun(from.ID, &activeRun{
		taskID:    task.ID,
		taskName:  task.Name,
		points:    pts,
		nominal:   task.Time,
		startedAt: time.Now(),
	})

	log.Printf("[info] task started from list user=%d task=%d points=%d", from.ID, task.ID, pts)
	return b.sendText(chatID, fmt.Sprintf(
		"⏱ <b>Go!</b> You're on «%s» (~%d min, %d pts waiting).\nSend /done when you finish, or /giveup to bail.",
		escape(task.Name), task.Time, pts,
	))
}

// handleDone settles the active run with the measured elapsed time.
func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	run := b.getRun(msg.From.ID)
	if run == nil {
		return b.sendText(msg.Chat.ID, "No task in progress. Pick one with /whatnext or /tasks.")
	}

	profile, err := b.ensureProfile(ctx, msg.From)
	if err != nil {
		return err
	}
	b.clearRun(msg.From.ID)

	elapsed := math.Round(time.Since(run.startedAt).Minutes()*100) / 100

	task, err := b.taskSvc.GetTask(ctx, profile, run.taskID)
	if err != nil {
		// The task vanished mid-run. The session is still a win for the
		// user; there is just nothing left to settle against.
		log.Printf("done: task %d gone before settlement: %v", run.taskID, err)
		return b.sendText(msg.Chat.ID, fmt.Sprintf("🎉 «%s» done — but the task no longer exists, so no points were recorded.", escape(run.taskName)))
	}

	updated, err := b.settlementSvc.Complete(ctx, profile.ID, task, run.points, &elapsed)
	if err != nil {
		// Best-effort settlement: report and let the user move on.
		log.Printf("settlement failed user=%d task=%d: %v", profile.ID, task.ID, err)
		return b.sendText(msg.Chat.ID, fmt.Sprintf(
			"🎉 «%s» done in %s min! Some of your stats couldn't be saved right now — they may lag behind.",
			escape(run.taskName), formatMinutes(elapsed),
		))
	}

	log.Printf("[info] task completed user=%d task=%d points=%d elapsed=%.2f", profile.ID, task.ID, run.points, elapsed)

	info := points.RankInfo(updated.TotalPoints)
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🎉 <b>«%s» done in %s min!</b>\n", escape(run.taskName), formatMinutes(elapsed)))
	builder.WriteString(fmt.Sprintf("⭐ +%d pts → <b>%d total</b>\n", run.points, updated.TotalPoints))
	builder.WriteString(fmt.Sprintf("🏅 %s", escape(info.Current)))
	if info.Next != "" {
		builder.WriteString(fmt.Sprintf(" · %.0f%% to %s", info.Progress, escape(info.Next)))
	}
	return b.sendText(msg.Chat.ID, builder.String())
}

// handleGiveUp abandons the run. Counters already incremented stay as
// they are; nothing is settled.
func (b *Bot) handleGiveUp(ctx context.Context, msg *tgbotapi.Message) error {
	run := b.getRun(msg.From.ID)
	if run == nil {
		return b.sendText(msg.Chat.ID, "No task in progress.")
	}
	b.clearRun(msg.From.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Dropped «%s». It stays in your list for another day.", escape(run.taskName)))
}

func formatMinutes(minutes float64) string {
	if minutes == math.Trunc(minutes) {
		return fmt.Sprintf("%.0f", minutes)
	}
	return fmt.Sprintf("%.2f", minutes)
}
