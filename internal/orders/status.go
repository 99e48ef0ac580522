package orders

import "fmt"

type Status string

const (
	StatusPending  Status = "pending"
	StatusUnused   Status = "unused"
	StatusUsed     Status = "used"
	StatusRefunded Status = "refunded"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:  {StatusUnused: true, StatusRefunded: true},
	StatusUnused:   {StatusUsed: true, StatusRefunded: true},
	StatusUsed:     {},
	StatusRefunded: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s Status) bool {
	next, ok := validNext[s]
	return ok && len(next) == 0
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, v)
	}
	return s, nil
}
