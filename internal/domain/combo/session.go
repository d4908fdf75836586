package combo

import (
	"sync"
	"time"

	"github.com/Zhima-Mochi/foodtruck/internal/domain/menu"
)

// Binding ties a rendered row to the category and item a toggle on that row must apply.
type Binding struct {
	Key      string
	Category menu.Category
	Item     *menu.Item
}

// Receipt is one rendered receipt block on the receipts surface.
type Receipt struct {
	SaleID string
	Block  string
}

// Session is the state of one page view: its selection, the row bindings of the last committed
// render and the receipts shown so far.
type Session struct {
	ID        string
	Selection *Selection
	CreatedAt time.Time

	mu         sync.Mutex
	bindings   map[string]Binding
	receipts   []Receipt
	submitting bool
	lastSeen   time.Time
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Selection: NewSelection(),
		CreatedAt: now,
		bindings:  map[string]Binding{},
		lastSeen:  now,
	}
}

// Bind replaces the row bindings. It is called once the rendered rows are visible.
func (s *Session) Bind(bindings []Binding) {
	table := make(map[string]Binding, len(bindings))
	for _, b := range bindings {
		table[b.Key] = b
	}
	s.mu.Lock()
	s.bindings = table
	s.mu.Unlock()
}

// Unbind drops every row binding; used when the combo UI was replaced by the error placeholder.
func (s *Session) Unbind() {
	s.Bind(nil)
}

// Resolve looks up the binding for a row key.
func (s *Session) Resolve(key string) (Binding, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bindings[key]
	return b, ok
}

// AppendReceipt adds a receipt block after the existing ones.
func (s *Session) AppendReceipt(r Receipt) {
	s.mu.Lock()
	s.receipts = append(s.receipts, r)
	s.mu.Unlock()
}

// Receipts returns the receipts in the order they were appended.
func (s *Session) Receipts() []Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Receipt(nil), s.receipts...)
}

// BeginSubmit marks a purchase as in flight. It reports false when one already is.
func (s *Session) BeginSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return false
	}
	s.submitting = true
	return true
}

func (s *Session) EndSubmit() {
	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()
}

func (s *Session) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// Touch records activity for expiry.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	if now.After(s.lastSeen) {
		s.lastSeen = now
	}
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
