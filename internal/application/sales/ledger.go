package sales

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MonthlySales is the tally of confirmed sales for one calendar month (UTC).
type MonthlySales struct {
	Month   string
	Count   int
	Revenue decimal.Decimal
}

// Ledger keeps the monthly tally in memory. Sale ids are remembered so redelivered events count once.
type Ledger struct {
	mu     sync.RWMutex
	months map[string]*MonthlySales
	seen   map[string]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{
		months: make(map[string]*MonthlySales),
		seen:   make(map[string]struct{}),
	}
}

// Record adds a sale and reports whether it was new.
func (l *Ledger) Record(saleID string, total decimal.Decimal, at time.Time) bool {
	month := at.UTC().Format("2006-01")

	l.mu.Lock()
	defer l.mu.Unlock()

	if saleID != "" {
		if _, dup := l.seen[saleID]; dup {
			return false
		}
		l.seen[saleID] = struct{}{}
	}
	m, ok := l.months[month]
	if !ok {
		m = &MonthlySales{Month: month, Revenue: decimal.Zero}
		l.months[month] = m
	}
	m.Count++
	m.Revenue = m.Revenue.Add(total)
	return true
}

// Months returns the tally, most recent month first.
func (l *Ledger) Months() []MonthlySales {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]MonthlySales, 0, len(l.months))
	for _, m := range l.months {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out
}
