package menu

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownCategory = errors.New("menu: unknown category")
	ErrIncomplete      = errors.New("menu: category list missing")
	ErrInvalidRowKey   = errors.New("menu: invalid row key")
)

// Category is one of the three fixed menu sections.
type Category string

const (
	Entrees    Category = "entrees"
	Vegetables Category = "vegetables"
	Sides      Category = "sides"
)

// Categories lists every category in display and submission order.
func Categories() []Category {
	return []Category{Entrees, Vegetables, Sides}
}

func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
	}
	return c, nil
}

func (c Category) Valid() bool {
	switch c {
	case Entrees, Vegetables, Sides:
		return true
	default:
		return false
	}
}

// Title is the column heading shown for the category.
func (c Category) Title() string {
	switch c {
	case Entrees:
		return "Entrees"
	case Vegetables:
		return "Vegetables"
	case Sides:
		return "Sides"
	default:
		return string(c)
	}
}

// Item is one entry of a category list. Label carries the entree name, the vegetable type or the side title.
// Items are immutable after fetch; selections point at them rather than copying.
type Item struct {
	ID    int
	Label string
	Price decimal.Decimal
}

// PriceText renders the price the way the kiosk prints money.
func (i *Item) PriceText() string {
	return FormatPrice(i.Price)
}

func FormatPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Menu holds the three category lists as returned by the menu API.
type Menu struct {
	Entrees    []Item
	Vegetables []Item
	Sides      []Item
}

// Items returns the list for c.
func (m *Menu) Items(c Category) ([]Item, error) {
	switch c {
	case Entrees:
		return m.Entrees, nil
	case Vegetables:
		return m.Vegetables, nil
	case Sides:
		return m.Sides, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
}

// Complete reports whether every category list was delivered. An empty list still counts as delivered.
func (m *Menu) Complete() bool {
	return m != nil && m.Entrees != nil && m.Vegetables != nil && m.Sides != nil
}

// RowKey identifies a selectable row: "<category>-<id>".
func RowKey(c Category, id int) string {
	return string(c) + "-" + strconv.Itoa(id)
}

// ParseRowKey splits a row key back into its category and item id.
func ParseRowKey(key string) (Category, int, error) {
	idx := strings.LastIndex(key, "-")
	if idx <= 0 || idx == len(key)-1 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidRowKey, key)
	}
	c, err := ParseCategory(key[:idx])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidRowKey, key)
	}
	id, err := strconv.Atoi(key[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidRowKey, key)
	}
	return c, id, nil
}
