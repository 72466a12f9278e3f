// Package session holds the per-chat conversation state of the bot. The
// transport loads a Session at the start of an update, hands it to the
// handlers by pointer and saves it afterwards.
package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wolfman30/spa-ledger/internal/period"
	"github.com/wolfman30/spa-ledger/internal/records"
)

// State is the step a chat is waiting on.
type State string

const (
	StateMenu State = "menu"

	StateRegDate       State = "reg_date"
	StateRegPatient    State = "reg_patient"
	StateRegProcedures State = "reg_procedures"
	StateRegPrice      State = "reg_price"
	StateRegMore       State = "reg_more"

	StateListDate State = "list_date"

	StateCalcMode    State = "calc_mode"
	StateCalcDate    State = "calc_date"
	StateCalcMonth   State = "calc_month"
	StateCalcRange   State = "calc_range"
	StateCalcMonthly State = "calc_monthly"

	StateAnalytics State = "analytics"

	StateDelDate    State = "del_date"
	StateDelSelect  State = "del_select"
	StateDelConfirm State = "del_confirm"
)

// Draft is a registration being collected.
type Draft struct {
	Date       time.Time        `json:"date"`
	Patient    string           `json:"patient,omitempty"`
	Procedures []string         `json:"procedures,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
}

// HasProcedure reports whether slug is already selected.
func (d Draft) HasProcedure(slug string) bool {
	for _, p := range d.Procedures {
		if p == slug {
			return true
		}
	}
	return false
}

// Toggle adds slug when absent and removes it otherwise.
func (d *Draft) Toggle(slug string) {
	for i, p := range d.Procedures {
		if p == slug {
			d.Procedures = append(d.Procedures[:i], d.Procedures[i+1:]...)
			return
		}
	}
	d.Procedures = append(d.Procedures, slug)
}

// Session is the conversation state of one chat.
type Session struct {
	ChatID int64  `json:"chat_id"`
	FlowID string `json:"flow_id"`
	State  State  `json:"state"`

	Draft    Draft       `json:"draft"`
	CalcMode period.Mode `json:"calc_mode,omitempty"`

	// Candidates are the deletable records last shown to the user.
	Candidates    []records.Record `json:"candidates,omitempty"`
	PendingDelete *records.Record  `json:"pending_delete,omitempty"`

	// MessageID is the menu message edited in place by callbacks.
	MessageID int       `json:"message_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns a session at the main menu.
func New(chatID int64) *Session {
	s := &Session{ChatID: chatID}
	s.Reset()
	return s
}

// Reset drops any in-flight flow and returns to the main menu.
func (s *Session) Reset() {
	s.FlowID = uuid.NewString()
	s.State = StateMenu
	s.Draft = Draft{}
	s.CalcMode = ""
	s.Candidates = nil
	s.PendingDelete = nil
}

// Begin starts a new flow at state, keeping the chat and message ids.
func (s *Session) Begin(state State) {
	s.Reset()
	s.State = state
}

// Candidate returns the i-th deletion candidate.
func (s *Session) Candidate(i int) (records.Record, bool) {
	if i < 0 || i >= len(s.Candidates) {
		return records.Record{}, false
	}
	return s.Candidates[i], true
}
