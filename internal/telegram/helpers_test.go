package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wolfman30/spa-ledger/internal/ledger"
	"github.com/wolfman30/spa-ledger/internal/period"
	"github.com/wolfman30/spa-ledger/internal/records"
	"github.com/wolfman30/spa-ledger/internal/store"
	"github.com/wolfman30/spa-ledger/pkg/logging"
)

var testNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.FixedZone("UTC-3", -3*3600))

type callbackAnswer struct {
	id    string
	text  string
	alert bool
}

type fakeMessenger struct {
	mu      sync.Mutex
	out     []OutgoingMessage
	answers []callbackAnswer
	nextID  int
}

func (f *fakeMessenger) SendMessage(_ context.Context, msg OutgoingMessage) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	msg.MessageID = 0
	f.out = append(f.out, msg)
	return 1000 + f.nextID, nil
}

func (f *fakeMessenger) EditMessageText(_ context.Context, msg OutgoingMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, msg)
	return nil
}

func (f *fakeMessenger) AnswerCallbackQuery(_ context.Context, id, text string, alert bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, callbackAnswer{id: id, text: text, alert: alert})
	return nil
}

func (f *fakeMessenger) last() OutgoingMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.out) == 0 {
		return OutgoingMessage{}
	}
	return f.out[len(f.out)-1]
}

// texts returns every message text emitted since index from.
func (f *fakeMessenger) texts(from int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := make([]string, 0, len(f.out))
	for _, m := range f.out[from:] {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "\n---\n")
}

func (f *fakeMessenger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.out)
}

type unavailableStore struct{}

func (unavailableStore) ReadAll(context.Context) ([]records.Row, error) {
	return nil, fmt.Errorf("sheets: read values: %w", store.ErrStoreUnavailable)
}

func (unavailableStore) Append(context.Context, []any) error {
	return store.ErrStoreUnavailable
}

func (unavailableStore) DeleteRow(context.Context, int) error {
	return store.ErrStoreUnavailable
}

func newTestBot(t *testing.T, rows ...[]string) (*Bot, *fakeMessenger, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	st.Seed(rows...)
	svc := ledger.NewService(st, period.Fixed(testNow), logging.Discard(), nil)
	out := &fakeMessenger{}
	return NewBot(svc, out, logging.Discard()), out, st
}

func textUpdate(chatID int64, text string) Update {
	return Update{Message: &Message{MessageID: 1, Chat: Chat{ID: chatID, Type: "private"}, Text: text}}
}

func callbackUpdate(chatID int64, messageID int, data string) Update {
	return Update{CallbackQuery: &CallbackQuery{
		ID:      "cb-" + data,
		Data:    data,
		Message: &Message{MessageID: messageID, Chat: Chat{ID: chatID, Type: "private"}},
	}}
}
