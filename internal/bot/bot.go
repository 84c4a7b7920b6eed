package bot

import (
	"context"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"whatnow/internal/config"
	"whatnow/internal/model"
	"whatnow/internal/points"
	"whatnow/internal/recommend"
	"whatnow/internal/repository"
	"whatnow/internal/service"
)

type convKind int

const (
	convNone convKind = iota
	convNewTask
	convEditField
	convWhatNext
	convImport
	convNewGroup
)

type conversationStage int

const (
	stageNone conversationStage = iota

	// new task
	stageTaskName
	stageTaskDescription
	stageTaskType
	stageTaskTime
	stageTaskEnergy
	stageTaskSocial
	stageTaskDueDate
	stageTaskRecurring

	// what next state query
	stageQueryTime
	stageQueryEnergy
	stageQuerySocial

	// import
	stageImportMode
	stageImportType
	stageImportTime
	stageImportEnergy
	stageImportSocial
	stageImportPaste

	// groups
	stageGroupName
	stageGroupDescription

	// single field edit
	stageEditValue
)

const (
	cbAcceptPrefix       = "accept:"
	cbSkipPrefix         = "skip:"
	cbStopSwipe          = "stopswipe"
	cbStartPrefix        = "start:"
	cbEditPrefix         = "edit:"
	cbEditFieldPrefix    = "editf:"
	cbDeletePrefix       = "del:"
	cbConfirmDelPrefix   = "confirmdel:"
	cbCancelDelete       = "canceldel"
	cbBoardPrefix        = "board:"
	cbLeavePrefix        = "leave:"
	cbConfirmLeavePrefix = "confirmleave:"
	cbCancelLeave        = "cancelleave"
)

const (
	btnSkip         = "⏭ Skip"
	btnCancelDialog = "⏪ Cancel"
	menuLabelNext   = "🎯 What Next?"
	menuLabelNew    = "➕ New Task"
	menuLabelTasks  = "📋 My Tasks"
	menuLabelMe     = "🏅 Profile"
	menuLabelGroups = "👥 Groups"
	menuLabelHelp   = "ℹ️ Help"
)

type conversationState struct {
	kind  convKind
	stage conversationStage

	input service.TaskInput

	editTaskID uint
	editField  string

	query recommend.Query

	importMode     string
	importDefaults service.ImportDefaults

	groupName string
}

// swipeState binds one in-flight recommendation session to its chat.
type swipeState struct {
	session   *recommend.Session
	profileID uint
	chatID    int64
}

// activeRun is an accepted task with the timer running. Points were
// computed at accept time and are carried through to settlement as-is.
type activeRun struct {
	taskID    uint
	taskName  string
	points    int
	nominal   int
	startedAt time.Time
}

// Bot aggregates the Telegram API with services.
type Bot struct {
	api            *tgbotapi.BotAPI
	profileRepo    *repository.ProfileRepository
	taskRepo       *repository.TaskRepository
	completionRepo *repository.CompletionRepository
	taskSvc        *service.TaskService
	settlementSvc  *service.SettlementService
	groupSvc       *service.GroupService
	leaderboardSvc *service.LeaderboardService
	config         *config.Config

	conversations map[int64]*conversationState
	sessions      map[int64]*swipeState
	runs          map[int64]*activeRun
	mu            sync.Mutex
}

func New(token string, profileRepo *repository.ProfileRepository, taskRepo *repository.TaskRepository, completionRepo *repository.CompletionRepository, taskSvc *service.TaskService, settlementSvc *service.SettlementService, groupSvc *service.GroupService, leaderboardSvc *service.LeaderboardService, cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:            api,
		profileRepo:    profileRepo,
		taskRepo:       taskRepo,
		completionRepo: completionRepo,
		taskSvc:        taskSvc,
		settlementSvc:  settlementSvc,
		groupSvc:       groupSvc,
		leaderboardSvc: leaderboardSvc,
		config:         cfg,
		conversations:  make(map[int64]*conversationState),
		sessions:       make(map[int64]*swipeState),
		runs:           make(map[int64]*activeRun),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled. Pick something from the menu whenever you're ready.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "Not sure what you mean. Try 🎯 What Next? to get a recommendation, or /help for commands.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "whatnext":
		return b.startWhatNext(ctx, msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg)
	case "tasks":
		return b.handleListTasks(ctx, msg)
	case "import":
		return b.startImportConversation(ctx, msg)
	case "done":
		return b.handleDone(ctx, msg)
	case "giveup":
		return b.handleGiveUp(ctx, msg)
	case "profile":
		return b.handleProfile(ctx, msg)
	case "completed":
		return b.handleCompleted(ctx, msg)
	case "name":
		return b.handleRename(ctx, msg)
	case "groups":
		return b.handleGroups(ctx, msg)
	case "newgroup":
		return b.startNewGroupConversation(ctx, msg)
	case "joingroup":
		return b.handleJoinGroup(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	profile, err := b.ensureProfile(ctx, msg.From)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(profile.DisplayName)
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf(
		"👋 Hi %s!\n<b>I help you figure out what to do next — and make it count.</b>\n\n"+
			"Log your tasks with how much time, energy and social battery they need. "+
			"When you don't know what to do, tell me how you're feeling and I'll deal you matching tasks one card at a time. "+
			"Completing tasks earns points and ranks; join a group to compare weekly scores with friends.\n\n"+
			"Commands:\n"+
			"• /whatnext — get a recommendation\n"+
			"• /newtask — add a task\n"+
			"• /tasks — manage your tasks\n"+
			"• /import — bulk import tasks\n"+
			"• /profile — points and rank\n"+
			"• /groups — groups and leaderboards\n"+
			"• /help — all commands",
		escape(name),
	)

	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /whatnext — tell me your time/energy/social state, get matching tasks to accept or skip\n" +
		"• /newtask — add a task step by step\n" +
		"• /tasks — list tasks; start, edit or delete them\n" +
		"• /import — paste many tasks at once (plain lines or CSV)\n" +
		"• /done — finish the task you're on and collect points\n" +
		"• /giveup — abandon the task you're on\n" +
		"• /profile — your points, rank and totals\n" +
		"• /completed — recent completions\n" +
		"• /name &lt;new name&gt; — change your display name\n" +
		"• /groups — your groups and weekly leaderboards\n" +
		"• /newgroup — create a group\n" +
		"• /joingroup &lt;code&gt; — join with an invite code\n" +
		"• /cancel — abort the current dialog"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(msg.Text)
	switch text {
	case menuLabelNext:
		return true, b.startWhatNext(ctx, msg)
	case menuLabelNew:
		return true, b.startNewTaskConversation(ctx, msg)
	case menuLabelTasks:
		return true, b.handleListTasks(ctx, msg)
	case menuLabelMe:
		return true, b.handleProfile(ctx, msg)
	case menuLabelGroups:
		return true, b.handleGroups(ctx, msg)
	case menuLabelHelp:
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}
	switch state.kind {
	case convNewTask:
		return b.handleNewTaskStep(ctx, msg, state)
	case convEditField:
		return b.handleEditValue(ctx, msg, state)
	case convWhatNext:
		return b.handleWhatNextStep(ctx, msg, state)
	case convImport:
		return b.handleImportStep(ctx, msg, state)
	case convNewGroup:
		return b.handleNewGroupStep(ctx, msg, state)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Dialog reset. Try again from the menu.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID

	switch {
	case strings.HasPrefix(data, cbAcceptPrefix):
		return b.handleAccept(ctx, chatID, cb.From, parseID(data, cbAcceptPrefix))
	case strings.HasPrefix(data, cbSkipPrefix):
		return b.handleSkip(ctx, chatID, cb.From, parseID(data, cbSkipPrefix))
	case data == cbStopSwipe:
		return b.handleStopSwipe(chatID, cb.From)
	case strings.HasPrefix(data, cbStartPrefix):
		return b.handleStartFromList(ctx, chatID, cb.From, parseID(data, cbStartPrefix))
	case strings.HasPrefix(data, cbEditFieldPrefix):
		return b.handleEditFieldChoice(ctx, chatID, cb.From, strings.TrimPrefix(data, cbEditFieldPrefix))
	case strings.HasPrefix(data, cbEditPrefix):
		return b.handleEditMenu(ctx, chatID, cb.From, parseID(data, cbEditPrefix))
	case strings.HasPrefix(data, cbConfirmDelPrefix):
		return b.handleDeleteConfirmed(ctx, chatID, cb.From, parseID(data, cbConfirmDelPrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.handleDeleteRequest(ctx, chatID, cb.From, parseID(data, cbDeletePrefix))
	case data == cbCancelDelete:
		return b.sendText(chatID, "Nothing deleted.")
	case strings.HasPrefix(data, cbBoardPrefix):
		return b.handleLeaderboard(ctx, chatID, parseID(data, cbBoardPrefix))
	case strings.HasPrefix(data, cbConfirmLeavePrefix):
		return b.handleLeaveConfirmed(ctx, chatID, cb.From, parseID(data, cbConfirmLeavePrefix))
	case strings.HasPrefix(data, cbLeavePrefix):
		return b.handleLeaveRequest(ctx, chatID, parseID(data, cbLeavePrefix))
	case data == cbCancelLeave:
		return b.sendText(chatID, "Staying in the group.")
	default:
		return nil
	}
}

// ensureProfile resolves the Telegram account to its profile, creating it
// on first contact with the starting rank.
func (b *Bot) ensureProfile(ctx context.Context, from *tgbotapi.User) (*model.Profile, error) {
	name := strings.TrimSpace(strings.TrimSpace(from.FirstName) + " " + strings.TrimSpace(from.LastName))
	if name == "" {
		name = from.UserName
	}
	return b.profileRepo.UpsertFromTelegram(ctx, from.ID, name, points.RankForPoints(0))
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func (b *Bot) setSession(userID int64, s *swipeState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[userID] = s
}

func (b *Bot) getSession(userID int64) *swipeState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[userID]
}

func (b *Bot) clearSession(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, userID)
}

func (b *Bot) setRun(userID int64, r *activeRun) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runs[userID] = r
}

func (b *Bot) getRun(userID int64) *activeRun {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runs[userID]
}

func (b *Bot) clearRun(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.runs, userID)
}

func parseID(data, prefix string) uint {
	raw := strings.TrimPrefix(data, prefix)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return uint(value)
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNext),
			tgbotapi.NewKeyboardButton(menuLabelNew),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelTasks),
			tgbotapi.NewKeyboardButton(menuLabelMe),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelGroups),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func levelKeyboard(withSkip bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Low"),
			tgbotapi.NewKeyboardButton("Medium"),
			tgbotapi.NewKeyboardButton("High"),
		),
	}
	second := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(btnCancelDialog)}
	if withSkip {
		second = append([]tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(btnSkip)}, second...)
	}
	rows = append(rows, second)
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func timeKeyboard(withSkip bool) tgbotapi.ReplyKeyboardMarkup {
	row := make([]tgbotapi.KeyboardButton, 0, len(model.TimeOptions))
	for _, minutes := range model.TimeOptions {
		row = append(row, tgbotapi.NewKeyboardButton(fmt.Sprintf("%d min", minutes)))
	}
	second := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(btnCancelDialog)}
	if withSkip {
		second = append([]tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(btnSkip)}, second...)
	}
	kb := tgbotapi.NewReplyKeyboard(row, second)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func typeKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(model.SuggestedTypes); i += 2 {
		row := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(model.SuggestedTypes[i])}
		if i+1 < len(model.SuggestedTypes) {
			row = append(row, tgbotapi.NewKeyboardButton(model.SuggestedTypes[i+1]))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == "skip" || value == strings.ToLower(btnSkip)
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "cancel" || value == strings.ToLower(btnCancelDialog)
}

func parseTimeOption(text string) (int, bool) {
	raw := strings.TrimSuffix(strings.TrimSpace(strings.ToLower(text)), " min")
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return 0, false
	}
	return minutes, true
}

func escape(s string) string {
	return html.EscapeString(s)
}

func typeBadge(taskType string) string {
	switch strings.ToLower(strings.TrimSpace(taskType)) {
	case "chores":
		return "🧹"
	case "work":
		return "💼"
	case "health":
		return "🩺"
	case "admin":
		return "🗂"
	case "errand":
		return "🛒"
	case "self-care":
		return "🌿"
	case "creative":
		return "🎨"
	case "social":
		return "💬"
	default:
		return "🏷"
	}
}
