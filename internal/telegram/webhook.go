package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/wolfman30/spa-ledger/internal/observability/metrics"
	"github.com/wolfman30/spa-ledger/internal/session"
	"github.com/wolfman30/spa-ledger/pkg/logging"
)

// SecretHeader carries the secret_token registered with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const maxUpdateBytes = 1 << 20

// WebhookConfig configures the webhook handler.
type WebhookConfig struct {
	Secret string
	// AllowedChats restricts the bot to these chats; empty allows every chat.
	AllowedChats []int64
}

// WebhookHandler receives Bot API updates, loads the chat session, runs the
// bot and saves the session.
type WebhookHandler struct {
	bot      *Bot
	sessions session.Store
	secret   string
	allowed  map[int64]struct{}
	metrics  *metrics.TelegramMetrics
	logger   *logging.Logger

	locksMu sync.Mutex
	locks   map[int64]*chatLock
}

// chatLock is dropped from the map when its last holder or waiter releases it.
type chatLock struct {
	mu   sync.Mutex
	refs int
}

func NewWebhookHandler(bot *Bot, sessions session.Store, cfg WebhookConfig, m *metrics.TelegramMetrics, logger *logging.Logger) *WebhookHandler {
	if bot == nil || sessions == nil {
		panic("telegram: bot and session store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	var allowed map[int64]struct{}
	if len(cfg.AllowedChats) > 0 {
		allowed = make(map[int64]struct{}, len(cfg.AllowedChats))
		for _, id := range cfg.AllowedChats {
			allowed[id] = struct{}{}
		}
	}
	return &WebhookHandler{
		bot:      bot,
		sessions: sessions,
		secret:   cfg.Secret,
		allowed:  allowed,
		metrics:  m,
		logger:   logger,
		locks:    make(map[int64]*chatLock),
	}
}

// ServeHTTP handles POST /telegram/webhook. Processing failures still answer
// 200 so Telegram does not redeliver the update.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.secret != "" {
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.metrics.ObserveUpdate("unknown", "unauthorized")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBytes))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	var upd Update
	if err := json.Unmarshal(body, &upd); err != nil {
		h.metrics.ObserveUpdate("unknown", "invalid")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	status := h.process(r.Context(), upd)
	h.metrics.ObserveUpdate(upd.Kind(), status)
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) process(ctx context.Context, upd Update) string {
	chatID := upd.ChatID()
	if chatID == 0 {
		return "ignored"
	}
	if h.allowed != nil {
		if _, ok := h.allowed[chatID]; !ok {
			h.logger.Warn("telegram: update from chat not allowed", "chat_id", chatID)
			return "forbidden"
		}
	}

	unlock := h.lockChat(chatID)
	defer unlock()

	sess, err := h.sessions.Load(ctx, chatID)
	if err != nil {
		h.logger.Error("telegram: failed to load session", "chat_id", chatID, "error", err)
		sess = session.New(chatID)
	}

	status := "ok"
	if err := h.bot.Handle(ctx, sess, upd); err != nil {
		status = "error"
	}
	if err := h.sessions.Save(ctx, sess); err != nil {
		h.logger.Error("telegram: failed to save session", "chat_id", chatID, "error", err)
		status = "error"
	}
	return status
}

// lockChat serializes updates of one chat so session load/save pairs do not
// interleave.
func (h *WebhookHandler) lockChat(chatID int64) func() {
	h.locksMu.Lock()
	l, ok := h.locks[chatID]
	if !ok {
		l = &chatLock{}
		h.locks[chatID] = l
	}
	l.refs++
	h.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		h.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(h.locks, chatID)
		}
		h.locksMu.Unlock()
	}
}
