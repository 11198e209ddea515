package dashboard

import (
	"sort"
	"strings"

	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/shared"
)

// SortField names a sortable reservation column
type SortField string

const (
	SortCheckIn   SortField = "check_in"
	SortCheckOut  SortField = "check_out"
	SortCreatedAt SortField = "created_at"
	SortGuestName SortField = "guest_name"
	SortTotal     SortField = "total"
	SortBalance   SortField = "balance_due"
)

// Sort is a field and direction
type Sort struct {
	Field SortField
	Desc  bool
}

// DefaultSort lists upcoming stays first
var DefaultSort = Sort{Field: SortCheckIn}

// ParseSort reads "field" or "-field". Empty input gives DefaultSort.
func ParseSort(s string) (Sort, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSort, nil
	}
	out := Sort{}
	if strings.HasPrefix(s, "-") {
		out.Desc = true
		s = s[1:]
	}
	switch f := SortField(s); f {
	case SortCheckIn, SortCheckOut, SortCreatedAt, SortGuestName, SortTotal, SortBalance:
		out.Field = f
	default:
		return Sort{}, shared.NewValidationError("unknown sort field: " + s)
	}
	return out, nil
}

// String returns the wire form
func (s Sort) String() string {
	if s.Desc {
		return "-" + string(s.Field)
	}
	return string(s.Field)
}

// Filter is the list filter of the reservations view
type Filter struct {
	booking.ReservationFilter
	// PaymentState keeps only reservations whose ledger is in this state
	PaymentState booking.PaymentState
	// SelectedOnly keeps only reservations in the selection set
	SelectedOnly bool
	Sort         Sort
}

// List returns the filtered and sorted reservation cards
func (b *Builder) List(src Source, f Filter) []Card {
	return filterCards(load(src), f)
}

func filterCards(d *dataset, f Filter) []Card {
	cards := make([]Card, 0, len(d.reservations))
	for i := range d.reservations {
		r := &d.reservations[i]
		if !f.ReservationFilter.Matches(r) {
			continue
		}
		c := d.card(r)
		if f.PaymentState != "" && c.PaymentState != f.PaymentState {
			continue
		}
		if f.SelectedOnly && !c.Selected {
			continue
		}
		cards = append(cards, c)
	}
	sortCards(cards, f.Sort)
	return cards
}

func sortCards(cards []Card, s Sort) {
	if s.Field == "" {
		s = DefaultSort
	}
	less := func(a, b Card) int {
		switch s.Field {
		case SortCheckOut:
			return a.CheckOut.Compare(b.CheckOut)
		case SortCreatedAt:
			return a.CreatedAt.Compare(b.CreatedAt)
		case SortGuestName:
			return strings.Compare(strings.ToLower(a.GuestName), strings.ToLower(b.GuestName))
		case SortTotal:
			return a.Total.Cmp(b.Total)
		case SortBalance:
			return a.BalanceDue.Cmp(b.BalanceDue)
		default:
			return a.CheckIn.Compare(b.CheckIn)
		}
	}
	sort.SliceStable(cards, func(i, j int) bool {
		c := less(cards[i], cards[j])
		if c == 0 {
			// booking id keeps the order total
			return cards[i].BookingID < cards[j].BookingID
		}
		if s.Desc {
			return c > 0
		}
		return c < 0
	})
}
