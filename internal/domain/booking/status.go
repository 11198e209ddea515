package booking

// Status represents the lifecycle state of a reservation
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked-in"
	StatusCheckedOut Status = "checked-out"
	StatusCancelled  Status = "cancelled"
)

// allowedTransitions lists the statuses reachable from each status
var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn: {StatusCheckedOut},
}

// AllStatuses returns statuses in board order
func AllStatuses() []Status {
	return []Status{StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled}
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true for statuses with no outgoing transitions
func (s Status) IsTerminal() bool {
	return s == StatusCheckedOut || s == StatusCancelled
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// String returns the status value
func (s Status) String() string {
	return string(s)
}

// Source is the channel a reservation came from
type Source string

const (
	SourceDirect     Source = "direct"
	SourceAirbnb     Source = "airbnb"
	SourceBookingCom Source = "booking.com"
	SourceOther      Source = "other"
)

// IsValid reports whether the source is known
func (s Source) IsValid() bool {
	switch s {
	case SourceDirect, SourceAirbnb, SourceBookingCom, SourceOther:
		return true
	}
	return false
}
