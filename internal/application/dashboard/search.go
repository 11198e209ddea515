package dashboard

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Result kinds of the command palette
const (
	KindReservation = "reservation"
	KindProperty    = "property"
	KindAction      = "action"
)

// DefaultSearchLimit caps palette results when no limit is given
const DefaultSearchLimit = 20

// Action is a static palette command
type Action struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Method   string   `json:"method"`
	Path     string   `json:"path"`
	Keywords []string `json:"-"`
}

// Actions are the commands the palette offers next to data results
var Actions = []Action{
	{ID: "sync.refresh", Title: "Refresh data", Method: "POST", Path: "/sync/refresh", Keywords: []string{"sync", "reload", "fetch"}},
	{ID: "sync.online", Title: "Go online", Method: "POST", Path: "/sync/online", Keywords: []string{"connect", "network"}},
	{ID: "sync.offline", Title: "Work offline", Method: "POST", Path: "/sync/offline", Keywords: []string{"disconnect", "network"}},
	{ID: "view.dashboard", Title: "Open dashboard", Method: "GET", Path: "/dashboard", Keywords: []string{"home", "summary", "revenue"}},
	{ID: "view.kanban", Title: "Open kanban board", Method: "GET", Path: "/kanban", Keywords: []string{"board", "status"}},
	{ID: "selection.clear", Title: "Clear selection", Method: "DELETE", Path: "/selection", Keywords: []string{"deselect", "reset"}},
	{ID: "session.logout", Title: "Log out", Method: "POST", Path: "/session/logout", Keywords: []string{"sign out", "exit"}},
}

// SearchResult is one palette hit
type SearchResult struct {
	Kind     string  `json:"kind"`
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle,omitempty"`
	Score    int     `json:"score"`
	Action   *Action `json:"action,omitempty"`
}

// Search runs the command palette query over reservations, properties and
// actions. An empty query lists the actions. Results are ordered by score,
// then kind, then title.
func (b *Builder) Search(src Source, query string, limit int) []SearchResult {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := strings.ToLower(strings.TrimSpace(query))
	results := []SearchResult{}

	if q == "" {
		for i := range Actions {
			results = append(results, actionResult(&Actions[i], 0))
		}
		return truncate(results, limit)
	}

	d := load(src)
	for i := range d.reservations {
		r := &d.reservations[i]
		score := best(q, r.BookingID, r.GuestName, r.GuestEmail, r.GuestPhone)
		if score == 0 {
			continue
		}
		c := d.card(r)
		results = append(results, SearchResult{
			Kind:     KindReservation,
			ID:       r.BookingID,
			Title:    r.GuestName,
			Subtitle: r.BookingID + " · " + c.PropertyName + " · " + r.CheckIn.Format("02 Jan") + " to " + r.CheckOut.Format("02 Jan 2006"),
			Score:    score,
		})
	}
	for _, p := range d.properties {
		score := best(q, p.Name, p.Address)
		if score == 0 {
			continue
		}
		results = append(results, SearchResult{
			Kind:     KindProperty,
			ID:       p.ID.String(),
			Title:    p.Name,
			Subtitle: p.Address,
			Score:    score,
		})
	}
	for i := range Actions {
		a := &Actions[i]
		fields := append([]string{a.Title, a.ID}, a.Keywords...)
		if score := best(q, fields...); score > 0 {
			results = append(results, actionResult(a, score))
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		x, y := results[i], results[j]
		if x.Score != y.Score {
			return x.Score > y.Score
		}
		if x.Kind != y.Kind {
			return kindRank(x.Kind) < kindRank(y.Kind)
		}
		return strings.ToLower(x.Title) < strings.ToLower(y.Title)
	})
	return truncate(results, limit)
}

func actionResult(a *Action, score int) SearchResult {
	return SearchResult{Kind: KindAction, ID: a.ID, Title: a.Title, Score: score, Action: a}
}

func kindRank(kind string) int {
	switch kind {
	case KindReservation:
		return 0
	case KindProperty:
		return 1
	}
	return 2
}

func truncate(results []SearchResult, limit int) []SearchResult {
	if len(results) > limit {
		return results[:limit]
	}
	return results
}

func best(q string, fields ...string) int {
	top := 0
	for _, f := range fields {
		if s := Score(q, f); s > top {
			top = s
		}
	}
	return top
}

// Score rates how well the lower-case query q matches text:
// 100 for an exact match, 80 for a prefix, 60 for a word prefix, 40 for a
// substring and up to 20 for an in-order subsequence. Zero means no match.
func Score(q, text string) int {
	if q == "" || text == "" {
		return 0
	}
	t := strings.ToLower(text)
	switch {
	case t == q:
		return 100
	case strings.HasPrefix(t, q):
		return 80
	case wordPrefix(t, q):
		return 60
	case strings.Contains(t, q):
		return 40
	}
	return subsequence(q, t)
}

func wordPrefix(t, q string) bool {
	for _, w := range strings.FieldsFunc(t, isSeparator) {
		if strings.HasPrefix(w, q) {
			return true
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return r == ' ' || r == '-' || r == '.' || r == '@' || r == '_' || r == ','
}

// subsequence scores q as a scattered match in t. Tighter matches score
// higher; a match spread over more than three times the query length is
// rejected.
func subsequence(q, t string) int {
	qr := []rune(q)
	if len(qr) < 2 {
		return 0
	}
	first, last, k := -1, -1, 0
	for i, r := range []rune(t) {
		if k < len(qr) && r == qr[k] {
			if first < 0 {
				first = i
			}
			last = i
			k++
		}
	}
	if k < len(qr) {
		return 0
	}
	span := last - first + 1
	n := utf8.RuneCountInString(q)
	if span > 3*n {
		return 0
	}
	return 10 + 10*n/span
}
