package order

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusNew        Status = "new"
	StatusCanceled   Status = "canceled"
	StatusFunded     Status = "funded"
	StatusRepaid     Status = "repaid"
	StatusLiquidated Status = "liquidated"
)

// Statuses lists every lifecycle state, initial state first.
var Statuses = []Status{StatusNew, StatusCanceled, StatusFunded, StatusRepaid, StatusLiquidated}

// DeriveStatus is the only classifier of an order. Every precondition check and
// every read-side label goes through it.
func DeriveStatus(withdrewAt, paidBackAt, loanStartTime int64, statusFlag bool) Status {
	switch {
	case withdrewAt != 0:
		return StatusLiquidated
	case paidBackAt != 0:
		return StatusRepaid
	case loanStartTime != 0:
		return StatusFunded
	case !statusFlag:
		return StatusCanceled
	default:
		return StatusNew
	}
}

func (s Status) Terminal() bool {
	return s == StatusCanceled || s == StatusRepaid || s == StatusLiquidated
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown order status %q", raw)
	}
	return s, nil
}
