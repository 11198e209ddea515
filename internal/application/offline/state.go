// Package offline holds the agent's in-memory state, the sync controller
// that fills it from the remote data service, and the connectivity watcher.
package offline

import (
	"sort"
	"sync"
	"time"

	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/identity"
	"github.com/staydesk/backend/internal/domain/property"
)

// ChangeKind names the part of the state that changed
type ChangeKind string

const (
	ChangeReservations ChangeKind = "reservations"
	ChangePayments     ChangeKind = "payments"
	ChangeProperties   ChangeKind = "properties"
	ChangeUser         ChangeKind = "user"
	ChangeOnline       ChangeKind = "online"
	ChangeSyncing      ChangeKind = "syncing"
	ChangeError        ChangeKind = "error"
	ChangeSynced       ChangeKind = "synced"
	ChangeSelection    ChangeKind = "selection"
)

// Change is delivered to observers after a mutation
type Change struct {
	Kind ChangeKind
	At   time.Time
}

// Snapshot is a consistent copy of the whole state
type Snapshot struct {
	Reservations   []booking.Reservation `json:"reservations"`
	Payments       []booking.Payment     `json:"payments"`
	Properties     []property.Property   `json:"properties"`
	CurrentUser    *identity.Session     `json:"current_user,omitempty"`
	Online         bool                  `json:"online"`
	SyncInProgress bool                  `json:"sync_in_progress"`
	LastError      string                `json:"last_error,omitempty"`
	LastSyncedAt   *time.Time            `json:"last_synced_at,omitempty"`
	Selected       []string              `json:"selected"`
}

// State is the agent's authoritative in-memory copy of the remote data.
// Every mutator takes the write lock, so readers never observe a collection
// and its index out of step. Reads return copies.
type State struct {
	mu sync.RWMutex

	reservations []booking.Reservation
	byBookingID  map[string]int
	payments     []booking.Payment
	properties   []property.Property

	currentUser    *identity.Session
	online         bool
	syncInProgress bool
	lastError      error
	lastSyncedAt   time.Time
	selected       map[string]struct{}

	obsMu     sync.RWMutex
	observers map[int]func(Change)
	nextObs   int
}

// NewState creates an empty, offline state
func NewState() *State {
	return &State{
		reservations: []booking.Reservation{},
		byBookingID:  map[string]int{},
		payments:     []booking.Payment{},
		properties:   []property.Property{},
		selected:     map[string]struct{}{},
		observers:    map[int]func(Change){},
	}
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. Notifications run on the mutating goroutine, after the
// lock is released.
func (s *State) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *State) notify(kinds ...ChangeKind) {
	s.obsMu.RLock()
	fns := make([]func(Change), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.RUnlock()

	now := time.Now()
	for _, kind := range kinds {
		for _, fn := range fns {
			fn(Change{Kind: kind, At: now})
		}
	}
}

// SetAllReservations replaces the reservation collection and its index. A
// nil slice is stored as an empty collection.
func (s *State) SetAllReservations(rs []booking.Reservation) {
	s.mu.Lock()
	s.setReservationsLocked(rs)
	s.mu.Unlock()
	s.notify(ChangeReservations)
}

func (s *State) setReservationsLocked(rs []booking.Reservation) {
	s.reservations = detach(rs)
	s.byBookingID = make(map[string]int, len(rs))
	for i := range s.reservations {
		s.byBookingID[s.reservations[i].BookingID] = i
	}
}

// SetAllPayments replaces the payment collection
func (s *State) SetAllPayments(ps []booking.Payment) {
	s.mu.Lock()
	s.payments = detach(ps)
	s.mu.Unlock()
	s.notify(ChangePayments)
}

// SetAllProperties replaces the property collection
func (s *State) SetAllProperties(ps []property.Property) {
	s.mu.Lock()
	s.properties = cloneSlice(ps)
	s.mu.Unlock()
	s.notify(ChangeProperties)
}

// ReplaceAll swaps every collection in one critical section
func (s *State) ReplaceAll(rs []booking.Reservation, pays []booking.Payment, props []property.Property) {
	s.mu.Lock()
	s.setReservationsLocked(rs)
	s.payments = detach(pays)
	s.properties = cloneSlice(props)
	s.mu.Unlock()
	s.notify(ChangeReservations, ChangePayments, ChangeProperties)
}

// Reservations returns a copy of every reservation
func (s *State) Reservations() []booking.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.reservations)
}

// Reservation looks up one reservation by booking id
func (s *State) Reservation(bookingID string) (booking.Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byBookingID[bookingID]
	if !ok {
		return booking.Reservation{}, false
	}
	return s.reservations[i], true
}

// Payments returns a copy of every payment
func (s *State) Payments() []booking.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.payments)
}

// PaymentsFor returns the payments recorded against one booking
func (s *State) PaymentsFor(bookingID string) []booking.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []booking.Payment{}
	for _, p := range s.payments {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	return out
}

// Properties returns a copy of every property
func (s *State) Properties() []property.Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.properties)
}

// SetCurrentUser records the signed-in session
func (s *State) SetCurrentUser(sess *identity.Session) {
	s.mu.Lock()
	if sess == nil {
		s.currentUser = nil
	} else {
		cp := *sess
		s.currentUser = &cp
	}
	s.mu.Unlock()
	s.notify(ChangeUser)
}

// ClearCurrentUser forgets the session
func (s *State) ClearCurrentUser() {
	s.SetCurrentUser(nil)
}

// CurrentUser returns a copy of the session, or nil when signed out
func (s *State) CurrentUser() *identity.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentUser == nil {
		return nil
	}
	cp := *s.currentUser
	return &cp
}

// SetOnline sets the connectivity flag. It reports whether the value changed.
func (s *State) SetOnline(online bool) bool {
	s.mu.Lock()
	changed := s.online != online
	s.online = online
	s.mu.Unlock()
	if changed {
		s.notify(ChangeOnline)
	}
	return changed
}

// IsOnline reports the connectivity flag
func (s *State) IsOnline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online
}

// SetSyncInProgress sets the syncing badge flag
func (s *State) SetSyncInProgress(inProgress bool) {
	s.mu.Lock()
	s.syncInProgress = inProgress
	s.mu.Unlock()
	s.notify(ChangeSyncing)
}

// SyncInProgress reports the syncing badge flag
func (s *State) SyncInProgress() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncInProgress
}

// SetLastError records the most recent sync failure. nil clears it.
func (s *State) SetLastError(err error) {
	s.mu.Lock()
	s.lastError = err
	s.mu.Unlock()
	s.notify(ChangeError)
}

// LastError returns the most recent sync failure
func (s *State) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// MarkSynced stamps the time of the last applied remote snapshot
func (s *State) MarkSynced(at time.Time) {
	s.mu.Lock()
	s.lastSyncedAt = at.UTC()
	s.mu.Unlock()
	s.notify(ChangeSynced)
}

// LastSyncedAt returns the last sync time, zero when never synced
func (s *State) LastSyncedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSyncedAt
}

// AddSelectedReservation adds a booking id to the selection. Adding twice is a no-op.
func (s *State) AddSelectedReservation(bookingID string) {
	if bookingID == "" {
		return
	}
	s.mu.Lock()
	_, had := s.selected[bookingID]
	s.selected[bookingID] = struct{}{}
	s.mu.Unlock()
	if !had {
		s.notify(ChangeSelection)
	}
}

// RemoveSelectedReservation removes a booking id. Removing an absent id is a no-op.
func (s *State) RemoveSelectedReservation(bookingID string) {
	s.mu.Lock()
	_, had := s.selected[bookingID]
	delete(s.selected, bookingID)
	s.mu.Unlock()
	if had {
		s.notify(ChangeSelection)
	}
}

// ClearSelection empties the selection
func (s *State) ClearSelection() {
	s.mu.Lock()
	s.selected = map[string]struct{}{}
	s.mu.Unlock()
	s.notify(ChangeSelection)
}

// IsSelected reports whether bookingID is selected
func (s *State) IsSelected(bookingID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[bookingID]
	return ok
}

// Selected returns the selected booking ids in sorted order
func (s *State) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedLocked()
}

func (s *State) selectedLocked() []string {
	out := make([]string, 0, len(s.selected))
	for id := range s.selected {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a consistent copy of everything
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Reservations:   cloneSlice(s.reservations),
		Payments:       cloneSlice(s.payments),
		Properties:     cloneSlice(s.properties),
		Online:         s.online,
		SyncInProgress: s.syncInProgress,
		Selected:       s.selectedLocked(),
	}
	if s.currentUser != nil {
		cp := *s.currentUser
		snap.CurrentUser = &cp
	}
	if s.lastError != nil {
		snap.LastError = s.lastError.Error()
	}
	if !s.lastSyncedAt.IsZero() {
		at := s.lastSyncedAt
		snap.LastSyncedAt = &at
	}
	return snap
}

func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// detach copies aggregates for storage with their pending domain events
// dropped, so no stored value shares an event slice with the caller's.
func detach[T any, P interface {
	*T
	ClearDomainEvents()
}](in []T) []T {
	out := cloneSlice(in)
	for i := range out {
		P(&out[i]).ClearDomainEvents()
	}
	return out
}
