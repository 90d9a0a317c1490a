// Package category suggests an expense category for a receipt by matching
// its merchant name and text against a keyword table.
package category

import (
	"errors"
	"fmt"
	"strings"
)

// Category is one of the fixed expense categories.
type Category string

const (
	Transport     Category = "transport"
	Lodging       Category = "lodging"
	Food          Category = "food"
	Telecom       Category = "telecom"
	Shopping      Category = "shopping"
	Entertainment Category = "entertainment"
	Attraction    Category = "attraction"
	Miscellaneous Category = "miscellaneous"
)

// ErrUnknownCategory is returned when a name is not one of the categories.
var ErrUnknownCategory = errors.New("unknown category")

type presentation struct {
	label string
	icon  string
}

var presentations = map[Category]presentation{
	Transport:     {label: "Transport", icon: "car.fill"},
	Lodging:       {label: "Lodging", icon: "bed.double.fill"},
	Food:          {label: "Food & Drink", icon: "fork.knife"},
	Telecom:       {label: "Telecom", icon: "simcard.fill"},
	Shopping:      {label: "Shopping", icon: "bag.fill"},
	Entertainment: {label: "Entertainment", icon: "theatermasks.fill"},
	Attraction:    {label: "Attractions", icon: "ticket.fill"},
	Miscellaneous: {label: "Miscellaneous", icon: "ellipsis.circle.fill"},
}

// All returns every category in display order.
func All() []Category {
	return []Category{Transport, Lodging, Food, Telecom, Shopping, Entertainment, Attraction, Miscellaneous}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := presentations[c]
	return ok
}

// Label is the human readable name of the category.
func (c Category) Label() string {
	return presentations[c].label
}

// Icon is the symbol name used to draw the category.
func (c Category) Icon() string {
	return presentations[c].icon
}

// ParseCategory converts a name such as "food" into a Category.
func ParseCategory(name string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(name)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	return c, nil
}
