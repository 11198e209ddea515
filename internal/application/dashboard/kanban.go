package dashboard

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/shared/valueobject"
)

// Column is one status lane of the board
type Column struct {
	Status     booking.Status  `json:"status"`
	Title      string          `json:"title"`
	Count      int             `json:"count"`
	Total      decimal.Decimal `json:"total"`
	TotalLabel string          `json:"total_label"`
	Cards      []Card          `json:"cards"`
	// Next lists the statuses a card in this lane may be moved to
	Next []booking.Status `json:"next"`
}

// Board is the kanban view
type Board struct {
	Columns []Column `json:"columns"`
	Total   int      `json:"total"`
}

// Kanban groups the filtered reservations into one column per status, in
// lifecycle order. Every status has a column even when it is empty. The
// filter's Status field is ignored so lanes are never hidden.
func (b *Builder) Kanban(src Source, f Filter) Board {
	f.Status = ""
	cards := filterCards(load(src), f)

	title := cases.Title(language.English)
	statuses := booking.AllStatuses()
	index := make(map[booking.Status]int, len(statuses))
	board := Board{Columns: make([]Column, len(statuses))}
	for i, s := range statuses {
		index[s] = i
		board.Columns[i] = Column{
			Status: s,
			Title:  title.String(string(s)),
			Total:  decimal.Zero,
			Cards:  []Card{},
			Next:   nextStatuses(s),
		}
	}

	for _, c := range cards {
		i, ok := index[c.Status]
		if !ok {
			b.logger.Warn("Reservation with unknown status left off the board",
				zap.String("booking_id", c.BookingID), zap.String("status", string(c.Status)))
			continue
		}
		col := &board.Columns[i]
		col.Cards = append(col.Cards, c)
		col.Count++
		col.Total = col.Total.Add(c.Total)
		board.Total++
	}
	for i := range board.Columns {
		board.Columns[i].TotalLabel = valueobject.FormatINR(board.Columns[i].Total, true)
	}
	return board
}

func nextStatuses(from booking.Status) []booking.Status {
	next := []booking.Status{}
	for _, s := range booking.AllStatuses() {
		if from.CanTransitionTo(s) {
			next = append(next, s)
		}
	}
	return next
}
