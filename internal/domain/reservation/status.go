package reservation

import (
	"errors"
	"fmt"
	"strings"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

var ErrInvalidTransition = errors.New("invalid status transition")

type Transition struct {
	From Status
	To   Status
}

// transitions is the whole lifecycle. Cancelled and completed are terminal.
var transitions = []Transition{
	{From: StatusConfirmed, To: StatusCancelled},
	{From: StatusConfirmed, To: StatusCompleted},
}

var transitionSet = func() map[Transition]bool {
	m := make(map[Transition]bool, len(transitions))
	for _, t := range transitions {
		m[t] = true
	}
	return m
}()

func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// ValidTransitionsFrom lists the statuses reachable from s in one step.
func ValidTransitionsFrom(s Status) []Status {
	var out []Status
	for _, t := range transitions {
		if t.From == s {
			out = append(out, t.To)
		}
	}
	return out
}

func CanTransition(from, to Status) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: unknown status in %q -> %q", ErrInvalidTransition, from, to)
	}
	if transitionSet[Transition{From: from, To: to}] {
		return nil
	}
	next := ValidTransitionsFrom(from)
	if len(next) == 0 {
		return fmt.Errorf("%w: %s -> %s, %s is terminal", ErrInvalidTransition, from, to, from)
	}
	names := make([]string, len(next))
	for i, s := range next {
		names[i] = string(s)
	}
	return fmt.Errorf("%w: %s -> %s, valid: %s", ErrInvalidTransition, from, to, strings.Join(names, ", "))
}
