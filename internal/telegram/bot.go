package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wolfman30/spa-ledger/internal/catalog"
	"github.com/wolfman30/spa-ledger/internal/ledger"
	"github.com/wolfman30/spa-ledger/internal/period"
	"github.com/wolfman30/spa-ledger/internal/records"
	"github.com/wolfman30/spa-ledger/internal/report"
	"github.com/wolfman30/spa-ledger/internal/session"
	"github.com/wolfman30/spa-ledger/internal/store"
	"github.com/wolfman30/spa-ledger/pkg/logging"
)

// Messenger delivers bot output. *Client implements it.
type Messenger interface {
	SendMessage(ctx context.Context, msg OutgoingMessage) (int, error)
	EditMessageText(ctx context.Context, msg OutgoingMessage) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string, alert bool) error
}

// Ledger is the part of the ledger service the bot drives.
type Ledger interface {
	Now() time.Time
	Register(ctx context.Context, reg ledger.Registration) (records.Record, error)
	ListDay(ctx context.Context, date time.Time) (report.RangeSummary, error)
	Summarize(ctx context.Context, mode period.Mode, input string) (ledger.Summary, error)
	Candidates(ctx context.Context, date time.Time) ([]records.Record, error)
	Delete(ctx context.Context, expected records.Record) error
	Analytics(ctx context.Context, kind report.Kind) (ledger.Analytics, error)
}

// errStale marks a button that does not belong to the current step.
var errStale = errors.New("telegram: stale callback")

// Bot is the conversation state machine. It keeps no state of its own; every
// update works on the session handed to Handle.
type Bot struct {
	ledger Ledger
	out    Messenger
	logger *logging.Logger
}

func NewBot(l Ledger, out Messenger, logger *logging.Logger) *Bot {
	if l == nil || out == nil {
		panic("telegram: ledger and messenger required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Bot{ledger: l, out: out, logger: logger}
}

// turn is one inbound interaction.
type turn struct {
	sess       *session.Session
	chatID     int64
	messageID  int
	callbackID string
	data       string
	text       string
	answered   bool
	edited     bool
}

// Handle processes one update against sess, mutating it in place.
func (b *Bot) Handle(ctx context.Context, sess *session.Session, upd Update) error {
	t := &turn{sess: sess, chatID: sess.ChatID}
	switch {
	case upd.CallbackQuery != nil:
		cq := upd.CallbackQuery
		t.callbackID = cq.ID
		t.data = cq.Data
		if cq.Message != nil {
			t.messageID = cq.Message.MessageID
		}
		err := b.handleCallback(ctx, t)
		if !t.answered {
			if ackErr := b.out.AnswerCallbackQuery(ctx, t.callbackID, "", false); ackErr != nil {
				b.logger.Warn("telegram: answer callback failed", "error", ackErr)
			}
		}
		return b.finish(ctx, t, err)
	case upd.Message != nil:
		t.text = strings.TrimSpace(upd.Message.Text)
		return b.finish(ctx, t, b.handleMessage(ctx, t))
	}
	return nil
}

func (b *Bot) finish(ctx context.Context, t *turn, err error) error {
	if err == nil {
		return nil
	}
	msg := msgGenericError
	if errors.Is(err, store.ErrStoreUnavailable) {
		msg = msgStoreUnavailable
	}
	b.logger.Error("telegram: update failed",
		"chat_id", t.chatID,
		"state", t.sess.State,
		"flow_id", t.sess.FlowID,
		"error", err,
	)
	t.sess.Reset()
	if _, sendErr := b.out.SendMessage(ctx, OutgoingMessage{ChatID: t.chatID, Text: msg}); sendErr != nil {
		b.logger.Warn("telegram: failed to report error to chat", "error", sendErr)
	}
	return err
}

func (b *Bot) handleMessage(ctx context.Context, t *turn) error {
	if strings.HasPrefix(t.text, "/") {
		return b.handleCommand(ctx, t)
	}
	sess := t.sess
	switch sess.State {
	case session.StateRegDate:
		date, ok := b.parseDayMonth(t.text)
		if !ok {
			return b.reply(ctx, t, msgInvalidDateDDMM, nil)
		}
		sess.Draft.Date = date
		sess.State = session.StateRegPatient
		return b.reply(ctx, t, msgRegPromptPatient, nil)
	case session.StateRegPatient:
		name := strings.Join(strings.Fields(t.text), " ")
		if name == "" {
			return b.reply(ctx, t, msgRegPatientEmpty, nil)
		}
		sess.Draft.Patient = name
		sess.Draft.Procedures = nil
		sess.State = session.StateRegProcedures
		return b.reply(ctx, t, msgRegSelectProcs, proceduresKeyboard(sess.Draft.HasProcedure))
	case session.StateListDate:
		date, ok := b.parseDayMonth(t.text)
		if !ok {
			return b.reply(ctx, t, msgInvalidDateDDMM, nil)
		}
		return b.showDay(ctx, t, date)
	case session.StateCalcDate, session.StateCalcMonth, session.StateCalcRange:
		return b.summarize(ctx, t, sess.CalcMode, t.text)
	case session.StateDelDate:
		date, ok := b.parseDayMonth(t.text)
		if !ok {
			return b.reply(ctx, t, msgInvalidDateDDMM, nil)
		}
		return b.listForDeletion(ctx, t, date)
	}
	return b.reply(ctx, t, msgUseMenu, nil)
}

func (b *Bot) handleCommand(ctx context.Context, t *turn) error {
	cmd := strings.ToLower(strings.Fields(t.text)[0])
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	switch cmd {
	case "/start":
		t.sess.Reset()
		return b.reply(ctx, t, msgGreeting, mainMenuKeyboard())
	case "/menu":
		t.sess.Reset()
		return b.reply(ctx, t, msgMainMenu, mainMenuKeyboard())
	case "/cancel":
		t.sess.Reset()
		return b.reply(ctx, t, msgCancelled+" "+msgUseMenu, nil)
	case "/procedimentos":
		return b.replyMarkdown(ctx, t, renderProcedures(), nil)
	}
	return b.reply(ctx, t, msgUseMenu, nil)
}

func (b *Bot) handleCallback(ctx context.Context, t *turn) error {
	var err error
	if strings.HasPrefix(t.data, "menu_") {
		err = b.onMenu(ctx, t)
	} else {
		switch t.sess.State {
		case session.StateRegDate:
			err = b.onDateChoice(ctx, t, "reg", b.startPatient)
		case session.StateRegProcedures:
			err = b.onProcedures(ctx, t)
		case session.StateRegPrice:
			err = b.onPrice(ctx, t)
		case session.StateRegMore:
			err = b.onRegisterMore(ctx, t)
		case session.StateListDate:
			err = b.onDateChoice(ctx, t, "list", b.showDay)
		case session.StateCalcMode:
			err = b.onCalcMode(ctx, t)
		case session.StateCalcMonthly:
			err = b.onCalcMonthly(ctx, t)
		case session.StateAnalytics:
			err = b.onAnalytics(ctx, t)
		case session.StateDelDate:
			err = b.onDateChoice(ctx, t, "del", b.listForDeletion)
		case session.StateDelSelect:
			err = b.onDeleteSelect(ctx, t)
		case session.StateDelConfirm:
			err = b.onDeleteConfirm(ctx, t)
		default:
			err = errStale
		}
	}
	if errors.Is(err, errStale) {
		b.logger.Debug("telegram: ignoring stale callback", "data", t.data, "state", t.sess.State)
		return b.alert(ctx, t, msgExpired)
	}
	return err
}

func (b *Bot) onMenu(ctx context.Context, t *turn) error {
	sess := t.sess
	switch t.data {
	case "menu_back":
		sess.Reset()
		return b.reply(ctx, t, msgMainMenu, mainMenuKeyboard())
	case "menu_registrar":
		sess.Begin(session.StateRegDate)
		return b.reply(ctx, t, msgRegAskDate, dateChoiceKeyboard("reg"))
	case "menu_listar":
		sess.Begin(session.StateListDate)
		return b.reply(ctx, t, msgListAskDate, dateChoiceKeyboard("list"))
	case "menu_calcular":
		sess.Begin(session.StateCalcMode)
		return b.reply(ctx, t, msgCalcChoosePeriod, calcKeyboard())
	case "menu_deletar":
		sess.Begin(session.StateDelDate)
		return b.reply(ctx, t, msgDelAskDate, dateChoiceKeyboard("del"))
	case "menu_analytics":
		sess.Begin(session.StateAnalytics)
		return b.replyMarkdown(ctx, t, msgAnalyticsMenu, analyticsKeyboard())
	case "menu_procedimentos":
		sess.Reset()
		return b.replyMarkdown(ctx, t, renderProcedures(), keyboard(backToMenuRow()))
	}
	return errStale
}

// onDateChoice handles the "today / other date" keyboard shared by the
// register, list and delete flows.
func (b *Bot) onDateChoice(ctx context.Context, t *turn, prefix string, next func(context.Context, *turn, time.Time) error) error {
	switch t.data {
	case prefix + "_today":
		return next(ctx, t, records.Day(b.ledger.Now()))
	case prefix + "_other_date":
		return b.reply(ctx, t, msgPromptDateDDMM, nil)
	}
	return errStale
}

func (b *Bot) startPatient(ctx context.Context, t *turn, date time.Time) error {
	t.sess.Draft.Date = date
	t.sess.State = session.StateRegPatient
	return b.reply(ctx, t, msgRegPromptPatient, nil)
}

func (b *Bot) onProcedures(ctx context.Context, t *turn) error {
	sess := t.sess
	switch t.data {
	case "reg_cancel":
		sess.Reset()
		return b.reply(ctx, t, msgCancelled+"\n\n"+msgMainMenu, mainMenuKeyboard())
	case "proc_done":
		if len(sess.Draft.Procedures) == 0 {
			return b.alert(ctx, t, msgRegNoProcSelected)
		}
		sess.State = session.StateRegPrice
		return b.reply(ctx, t, msgRegSelectPrice, priceKeyboard())
	}
	slug, ok := strings.CutPrefix(t.data, "proc_")
	if !ok || !catalog.Known(slug) {
		return errStale
	}
	sess.Draft.Toggle(slug)
	return b.reply(ctx, t, msgRegSelectProcs, proceduresKeyboard(sess.Draft.HasProcedure))
}

func (b *Bot) onPrice(ctx context.Context, t *turn) error {
	sess := t.sess
	if t.data == "price_back" {
		sess.State = session.StateRegProcedures
		return b.reply(ctx, t, msgRegSelectProcs, proceduresKeyboard(sess.Draft.HasProcedure))
	}
	raw, ok := strings.CutPrefix(t.data, "price_")
	if !ok {
		return errStale
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return errStale
	}
	sess.Draft.Price = &price

	rec, err := b.ledger.Register(ctx, ledger.Registration{
		Date:       sess.Draft.Date,
		Patient:    sess.Draft.Patient,
		Procedures: sess.Draft.Procedures,
		Price:      price,
	})
	if errors.Is(err, ledger.ErrInvalidRegistration) {
		b.logger.Warn("telegram: registration rejected", "error", err)
		sess.Reset()
		return b.reply(ctx, t, msgCancelled+" "+msgUseMenu, nil)
	}
	if err != nil {
		return err
	}
	if err := b.replyMarkdown(ctx, t, renderRegistered(rec), nil); err != nil {
		return err
	}
	sess.State = session.StateRegMore
	return b.reply(ctx, t, msgRegAskAnother, anotherKeyboard())
}

func (b *Bot) onRegisterMore(ctx context.Context, t *turn) error {
	date := t.sess.Draft.Date
	switch t.data {
	case "reg_another_yes":
		t.sess.Begin(session.StateRegPatient)
		t.sess.Draft.Date = date
		return b.reply(ctx, t, msgRegPromptPatient, nil)
	case "reg_another_no":
		if err := b.reply(ctx, t, msgRegFinished, nil); err != nil {
			return err
		}
		return b.showDay(ctx, t, date)
	}
	return errStale
}

func (b *Bot) showDay(ctx context.Context, t *turn, date time.Time) error {
	sum, err := b.ledger.ListDay(ctx, date)
	if err != nil {
		return err
	}
	t.sess.Reset()
	dateStr := date.Format(records.DateLayout)
	if sum.Empty() {
		if err := b.reply(ctx, t, fmt.Sprintf(msgNoRecordsForDate, dateStr), nil); err != nil {
			return err
		}
	} else if err := b.replyMarkdown(ctx, t, renderDay(dateStr, sum), nil); err != nil {
		return err
	}
	return b.reply(ctx, t, msgFinal, nil)
}

func (b *Bot) onCalcMode(ctx context.Context, t *turn) error {
	sess := t.sess
	if t.data == "calc_monthly_report" {
		sess.State = session.StateCalcMonthly
		return b.reply(ctx, t, msgCalcMonthlyPrompt, monthlyKeyboard(b.ledger.Now().Format("01/2006")))
	}
	parts := strings.SplitN(t.data, "_", 3)
	if len(parts) != 3 || parts[0] != "calc" {
		return errStale
	}
	mode, err := period.ParseMode(parts[1])
	if err != nil {
		return errStale
	}
	switch parts[2] {
	case "today", "this":
		return b.summarize(ctx, t, mode, "")
	case "other":
		sess.CalcMode = mode
		sess.State = calcInputState(mode)
		return b.reply(ctx, t, calcPrompts[mode], nil)
	}
	return errStale
}

func calcInputState(mode period.Mode) session.State {
	switch mode {
	case period.ModeMonth, period.ModeMonthlyReport:
		return session.StateCalcMonth
	case period.ModeRange:
		return session.StateCalcRange
	}
	return session.StateCalcDate
}

func (b *Bot) onCalcMonthly(ctx context.Context, t *turn) error {
	sess := t.sess
	switch t.data {
	case "calc_monthly_this":
		return b.summarize(ctx, t, period.ModeMonthlyReport, "")
	case "calc_monthly_other":
		sess.CalcMode = period.ModeMonthlyReport
		sess.State = session.StateCalcMonth
		return b.reply(ctx, t, msgCalcPromptMonth, nil)
	case "calc_back":
		sess.State = session.StateCalcMode
		return b.reply(ctx, t, msgCalcChoosePeriod, calcKeyboard())
	}
	return errStale
}

func (b *Bot) summarize(ctx context.Context, t *turn, mode period.Mode, input string) error {
	out, err := b.ledger.Summarize(ctx, mode, input)
	if errors.Is(err, period.ErrInvalidInput) {
		return b.reply(ctx, t, msgCalcInvalidInput, nil)
	}
	if err != nil {
		return err
	}
	t.sess.Reset()
	if err := b.replyMarkdown(ctx, t, renderSummary(out), nil); err != nil {
		return err
	}
	return b.reply(ctx, t, msgFinal, nil)
}

func (b *Bot) onAnalytics(ctx context.Context, t *turn) error {
	raw, ok := strings.CutPrefix(t.data, "analytics_")
	if !ok {
		return errStale
	}
	kind := report.Kind(raw)
	known := false
	for _, k := range report.Kinds {
		known = known || k == kind
	}
	if !known {
		return errStale
	}

	result, err := b.ledger.Analytics(ctx, kind)
	switch {
	case errors.Is(err, report.ErrNoData):
		err = b.reply(ctx, t, msgAnalyticsNoData, nil)
	case err != nil:
		return err
	default:
		err = b.replyMarkdown(ctx, t, renderAnalytics(result), nil)
	}
	if err != nil {
		return err
	}
	t.sess.Reset()
	return b.reply(ctx, t, msgFinal, nil)
}

func (b *Bot) listForDeletion(ctx context.Context, t *turn, date time.Time) error {
	sess := t.sess
	candidates, err := b.ledger.Candidates(ctx, date)
	if err != nil {
		return err
	}
	dateStr := date.Format(records.DateLayout)
	if len(candidates) == 0 {
		sess.Reset()
		if err := b.reply(ctx, t, fmt.Sprintf(msgNoRecordsForDate, dateStr), nil); err != nil {
			return err
		}
		return b.reply(ctx, t, msgFinal, nil)
	}
	sess.State = session.StateDelSelect
	sess.Draft.Date = date
	sess.Candidates = candidates
	sess.PendingDelete = nil
	return b.replyMarkdown(ctx, t, fmt.Sprintf(msgDelSelectRecord, dateStr), deleteKeyboard(candidates))
}

func (b *Bot) onDeleteSelect(ctx context.Context, t *turn) error {
	sess := t.sess
	if t.data == "del_cancel" {
		sess.Reset()
		return b.reply(ctx, t, msgCancelled+"\n\n"+msgMainMenu, mainMenuKeyboard())
	}
	raw, ok := strings.CutPrefix(t.data, "del_record_")
	if !ok {
		return errStale
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return errStale
	}
	rec, ok := sess.Candidate(i)
	if !ok {
		if err := b.reply(ctx, t, msgDelRecordNotFound, nil); err != nil {
			return err
		}
		return b.listForDeletion(ctx, t, sess.Draft.Date)
	}
	sess.PendingDelete = &rec
	sess.State = session.StateDelConfirm
	text := fmt.Sprintf("⚠️ *Confirma a exclusão?*\n\n👤 *Paciente:* %s\n💆 *Procedimentos:* %s\n💰 *Valor:* %s",
		escape(rec.PatientName()), escape(records.DisplayProcedures(rec.Procedures)), records.FormatBRL(rec.Price))
	return b.replyMarkdown(ctx, t, text, confirmDeleteKeyboard())
}

func (b *Bot) onDeleteConfirm(ctx context.Context, t *turn) error {
	sess := t.sess
	switch t.data {
	case "del_confirm_no":
		return b.listForDeletion(ctx, t, sess.Draft.Date)
	case "del_confirm_yes":
	default:
		return errStale
	}
	if sess.PendingDelete == nil {
		return errStale
	}

	err := b.ledger.Delete(ctx, *sess.PendingDelete)
	if errors.Is(err, store.ErrNotFound) {
		if err := b.reply(ctx, t, msgDelStale, nil); err != nil {
			return err
		}
		return b.listForDeletion(ctx, t, sess.Draft.Date)
	}
	if err != nil {
		return err
	}
	sess.Reset()
	if err := b.reply(ctx, t, msgDelSuccess, nil); err != nil {
		return err
	}
	return b.reply(ctx, t, msgFinal, nil)
}

func (b *Bot) parseDayMonth(text string) (time.Time, bool) {
	date, err := period.ParseDayMonth(text, b.ledger.Now())
	return date, err == nil
}

func (b *Bot) alert(ctx context.Context, t *turn, text string) error {
	t.answered = true
	return b.out.AnswerCallbackQuery(ctx, t.callbackID, text, true)
}

func (b *Bot) reply(ctx context.Context, t *turn, text string, markup *InlineKeyboardMarkup) error {
	return b.deliver(ctx, t, OutgoingMessage{ChatID: t.chatID, Text: text, Markup: markup})
}

func (b *Bot) replyMarkdown(ctx context.Context, t *turn, text string, markup *InlineKeyboardMarkup) error {
	return b.deliver(ctx, t, OutgoingMessage{ChatID: t.chatID, Text: text, Markup: markup, ParseMode: parseModeMarkdown})
}

// deliver edits the tapped message on the first reply to a callback and sends
// new messages otherwise.
func (b *Bot) deliver(ctx context.Context, t *turn, msg OutgoingMessage) error {
	if t.messageID != 0 && !t.edited {
		t.edited = true
		msg.MessageID = t.messageID
		return b.out.EditMessageText(ctx, msg)
	}
	id, err := b.out.SendMessage(ctx, msg)
	if err != nil {
		return err
	}
	if msg.Markup != nil {
		t.sess.MessageID = id
	}
	return nil
}
