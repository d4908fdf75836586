package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"

	"github.com/Zhima-Mochi/foodtruck/internal/application/sales"
	"github.com/Zhima-Mochi/foodtruck/internal/domain/combo"
	"github.com/Zhima-Mochi/foodtruck/internal/domain/menu"
	"github.com/Zhima-Mochi/foodtruck/internal/domain/sale"
	"github.com/shopspring/decimal"
)

// FetchErrorText replaces the combo columns when any category list could not be loaded.
const FetchErrorText = "Failed to load data. Please try again later."

var ErrNilSale = errors.New("render: sale is required")

//go:embed templates/*.html
var templateFS embed.FS

// Renderer produces the kiosk markup. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

func New() (*Renderer, error) {
	tmpl, err := template.New("kiosk").
		Funcs(template.FuncMap{"price": menu.FormatPrice}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Fragment is the rendered combo section together with the row bindings it produced.
// The bindings become active only once the fragment is visible, see Page.
type Fragment struct {
	HTML     template.HTML
	bindings []combo.Binding
	failed   bool
}

func (f Fragment) Bindings() []combo.Binding {
	return append([]combo.Binding(nil), f.bindings...)
}

// Bindable reports whether the fragment holds selectable rows rather than the error placeholder.
func (f Fragment) Bindable() bool { return !f.failed }

type row struct {
	Key     string
	Group   string
	Label   string
	Checked bool
}

type column struct {
	Category menu.Category
	Title    string
	Rows     []row
}

// Combo renders one column per category with a single-choice row per item, pre-checking the
// current selection. A fetch error or an incomplete menu yields the placeholder and no bindings.
func (r *Renderer) Combo(m *menu.Menu, sel combo.Snapshot, fetchErr error) (Fragment, error) {
	if fetchErr != nil || !m.Complete() {
		var buf bytes.Buffer
		if err := r.tmpl.ExecuteTemplate(&buf, "placeholder", FetchErrorText); err != nil {
			return Fragment{}, fmt.Errorf("render: placeholder: %w", err)
		}
		return Fragment{HTML: template.HTML(buf.String()), failed: true}, nil
	}

	columns := make([]column, 0, len(menu.Categories()))
	var bindings []combo.Binding
	for _, c := range menu.Categories() {
		items, err := m.Items(c)
		if err != nil {
			return Fragment{}, err
		}
		selected := sel.Get(c)
		col := column{Category: c, Title: c.Title(), Rows: make([]row, 0, len(items))}
		for i := range items {
			item := &items[i]
			key := menu.RowKey(c, item.ID)
			col.Rows = append(col.Rows, row{
				Key:     key,
				Group:   string(c),
				Label:   item.Label + " - " + item.PriceText(),
				Checked: selected != nil && selected.ID == item.ID,
			})
			bindings = append(bindings, combo.Binding{Key: key, Category: c, Item: item})
		}
		columns = append(columns, col)
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "combo", columns); err != nil {
		return Fragment{}, fmt.Errorf("render: combo: %w", err)
	}
	return Fragment{HTML: template.HTML(buf.String()), bindings: bindings}, nil
}

// Page is everything the page shell shows.
type Page struct {
	Combo    Fragment
	Total    decimal.Decimal
	Notice   string
	InFlight bool
	Receipts []combo.Receipt
	Sales    []sales.MonthlySales
}

type pageData struct {
	Combo    template.HTML
	Total    decimal.Decimal
	Notice   string
	InFlight bool
	Receipts []template.HTML
	Sales    []sales.MonthlySales
}

// Page writes the full page to w. committed runs only after the whole document was written,
// which is the point where the rows of p.Combo exist for the visitor.
func (r *Renderer) Page(w io.Writer, p Page, committed func()) error {
	data := pageData{
		Combo:    p.Combo.HTML,
		Total:    p.Total,
		Notice:   p.Notice,
		InFlight: p.InFlight,
		Receipts: make([]template.HTML, 0, len(p.Receipts)),
		Sales:    p.Sales,
	}
	// receipt blocks were escaped when they were rendered
	for _, rc := range p.Receipts {
		data.Receipts = append(data.Receipts, template.HTML(rc.Block))
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "page", data); err != nil {
		return fmt.Errorf("render: page: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("render: write page: %w", err)
	}
	if committed != nil {
		committed()
	}
	return nil
}

type receiptSection struct {
	Title string
	Lines []sale.Line
}

type receiptData struct {
	ID       string
	Total    decimal.Decimal
	Sections []receiptSection
}

// Receipt renders the block appended to the receipts surface for a confirmed sale.
func (r *Renderer) Receipt(s *sale.Sale) (string, error) {
	if s == nil {
		return "", ErrNilSale
	}
	data := receiptData{ID: s.ID, Total: s.Total}
	for _, c := range menu.Categories() {
		data.Sections = append(data.Sections, receiptSection{Title: c.Title(), Lines: s.Lines(c)})
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "receipt", data); err != nil {
		return "", fmt.Errorf("render: receipt: %w", err)
	}
	return buf.String(), nil
}
