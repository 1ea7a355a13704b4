package models

import (
	"fmt"
	"strconv"
	"strings"
)

// SortOption is one entry of the client sort menu, persisted as
// {sort, order, label}.
type SortOption struct {
	Sort  string `json:"sort"`
	Order string `json:"order"`
	Label string `json:"label"`
}

func (o SortOption) String() string {
	return o.Label
}

// ClientSortOptions is the fixed client sort menu.
var ClientSortOptions = []SortOption{
	{Sort: "name", Order: OrderAsc, Label: "Name (A-Z)"},
	{Sort: "name", Order: OrderDesc, Label: "Name (Z-A)"},
	{Sort: "createdAt", Order: OrderDesc, Label: "Date Added (Newest)"},
	{Sort: "createdAt", Order: OrderAsc, Label: "Date Added (Oldest)"},
	{Sort: "updatedAt", Order: OrderDesc, Label: "Last Modified (Newest)"},
	{Sort: "updatedAt", Order: OrderAsc, Label: "Last Modified (Oldest)"},
}

// DefaultClientSortIndex selects "Date Added (Newest)".
const DefaultClientSortIndex = 2

// DefaultClientSort returns the sort used when nothing valid is persisted,
// and the sort forced after a client is created.
func DefaultClientSort() SortOption {
	return ClientSortOptions[DefaultClientSortIndex]
}

// FindClientSort returns the menu entry for a sort key and direction.
func FindClientSort(sort, order string) (SortOption, bool) {
	for _, o := range ClientSortOptions {
		if o.Sort == sort && o.Order == order {
			return o, true
		}
	}
	return SortOption{}, false
}

// ParseClientSort resolves user input: a 1-based menu index, a label
// (case-insensitive) or "key:order".
func ParseClientSort(input string) (SortOption, error) {
	input = strings.TrimSpace(input)
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(ClientSortOptions) {
			return SortOption{}, fmt.Errorf("sort index %d out of range 1-%d", n, len(ClientSortOptions))
		}
		return ClientSortOptions[n-1], nil
	}
	for _, o := range ClientSortOptions {
		if strings.EqualFold(o.Label, input) {
			return o, nil
		}
	}
	if key, order, ok := strings.Cut(input, ":"); ok {
		if o, found := FindClientSort(key, strings.ToLower(order)); found {
			return o, nil
		}
	}
	return SortOption{}, fmt.Errorf("unknown sort %q", input)
}

// NextClientSort cycles through the menu.
func NextClientSort(current SortOption) SortOption {
	for i, o := range ClientSortOptions {
		if o.Sort == current.Sort && o.Order == current.Order {
			return ClientSortOptions[(i+1)%len(ClientSortOptions)]
		}
	}
	return DefaultClientSort()
}
