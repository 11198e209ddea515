package dashboard

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/shared/valueobject"
)

// Money is an amount with its display label
type Money struct {
	Amount decimal.Decimal `json:"amount"`
	Label  string          `json:"label"`
}

func money(d decimal.Decimal) Money {
	return Money{Amount: d, Label: valueobject.FormatINR(d, true)}
}

// Occupancy is one property's occupancy over the summary period
type Occupancy struct {
	PropertyID      uuid.UUID `json:"property_id"`
	PropertyName    string    `json:"property_name"`
	Active          bool      `json:"active"`
	OccupiedNights  int       `json:"occupied_nights"`
	AvailableNights int       `json:"available_nights"`
	// Rate and Target are percentages
	Rate     float64 `json:"rate"`
	Target   int     `json:"target"`
	OnTarget bool    `json:"on_target"`
}

// Summary is the dashboard headline view
type Summary struct {
	Date        time.Time              `json:"date"`
	PeriodStart time.Time              `json:"period_start"`
	PeriodEnd   time.Time              `json:"period_end"`
	Total       int                    `json:"total_reservations"`
	ByStatus    map[booking.Status]int `json:"by_status"`

	Arrivals   []Card `json:"arrivals"`
	Departures []Card `json:"departures"`
	InHouse    []Card `json:"in_house"`

	Booked      Money `json:"booked"`
	Collected   Money `json:"collected"`
	Outstanding Money `json:"outstanding"`
	// UnpaidCount counts active reservations with a balance due
	UnpaidCount int `json:"unpaid_count"`

	Occupancy []Occupancy `json:"occupancy"`
}

// Summary computes the dashboard for today. Revenue covers every
// reservation that is not cancelled; occupancy covers the current calendar
// month and counts confirmed, checked-in and checked-out nights.
func (b *Builder) Summary(src Source) Summary {
	d := load(src)
	today := b.today()
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	s := Summary{
		Date:        today,
		PeriodStart: start,
		PeriodEnd:   end,
		Total:       len(d.reservations),
		ByStatus:    make(map[booking.Status]int, len(booking.AllStatuses())),
		Arrivals:    []Card{},
		Departures:  []Card{},
		InHouse:     []Card{},
	}
	for _, st := range booking.AllStatuses() {
		s.ByStatus[st] = 0
	}

	booked, collected, outstanding := decimal.Zero, decimal.Zero, decimal.Zero
	occupied := make(map[uuid.UUID]int, len(d.properties))

	for i := range d.reservations {
		r := &d.reservations[i]
		s.ByStatus[r.Status]++
		if r.Status == booking.StatusCancelled {
			continue
		}

		l := d.ledger(r)
		booked = booked.Add(r.TotalAmount)
		collected = collected.Add(l.Paid)
		outstanding = outstanding.Add(l.BalanceDue)
		if l.BalanceDue.IsPositive() {
			s.UnpaidCount++
		}

		switch {
		case r.CheckIn.Equal(today) && r.Status != booking.StatusCheckedOut:
			s.Arrivals = append(s.Arrivals, d.card(r))
		case r.CheckOut.Equal(today) && r.Status != booking.StatusPending:
			s.Departures = append(s.Departures, d.card(r))
		}
		if r.Status == booking.StatusCheckedIn {
			s.InHouse = append(s.InHouse, d.card(r))
		}

		if r.Status != booking.StatusPending {
			occupied[r.PropertyID] += overlapNights(r.CheckIn, r.CheckOut, start, end)
		}
	}

	s.Booked = money(booked)
	s.Collected = money(collected)
	s.Outstanding = money(outstanding)
	s.Occupancy = occupancy(d, occupied, daysBetween(start, end))

	sortCards(s.Arrivals, Sort{Field: SortGuestName})
	sortCards(s.Departures, Sort{Field: SortGuestName})
	sortCards(s.InHouse, Sort{Field: SortCheckOut})
	return s
}

func occupancy(d *dataset, occupied map[uuid.UUID]int, days int) []Occupancy {
	out := make([]Occupancy, 0, len(d.properties))
	for _, p := range d.properties {
		nights := occupied[p.ID]
		// overlapping bookings on one unit must not push the rate past 100
		if nights > days {
			nights = days
		}
		rate := 0.0
		if days > 0 {
			rate = float64(nights*1000/days) / 10
		}
		out = append(out, Occupancy{
			PropertyID:      p.ID,
			PropertyName:    p.Name,
			Active:          p.Active,
			OccupiedNights:  nights,
			AvailableNights: days,
			Rate:            rate,
			Target:          p.OccupancyTarget,
			OnTarget:        rate >= float64(p.OccupancyTarget),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].PropertyName) < strings.ToLower(out[j].PropertyName)
	})
	return out
}

// overlapNights counts the nights of [in, out) that fall inside [from, to)
func overlapNights(in, out, from, to time.Time) int {
	if in.Before(from) {
		in = from
	}
	if out.After(to) {
		out = to
	}
	if !in.Before(out) {
		return 0
	}
	return daysBetween(in, out)
}

// daysBetween counts whole days between two UTC midnights
func daysBetween(from, to time.Time) int {
	return int((to.Unix() - from.Unix()) / 86400)
}
