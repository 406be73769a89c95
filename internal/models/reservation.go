package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidEntry is returned when a reservation entry is incomplete
var ErrInvalidEntry = errors.New("invalid reservation entry")

// ReservationID identifies a reservation. The upstream sends it either as a
// JSON number or a JSON string; both are kept in their textual form.
type ReservationID string

// UnmarshalJSON accepts both numeric and string ids
func (id *ReservationID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ReservationID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("reservationId must be a string or a number: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("reservationId must be an integer: %w", err)
	}
	*id = ReservationID(n.String())
	return nil
}

// String returns the textual id
func (id ReservationID) String() string {
	return string(id)
}

// ReservationEntry is one row of the member's reservation list as returned
// by the reservation API. Entries are read-only on this side.
type ReservationEntry struct {
	ReservationID ReservationID `json:"reservationId"`
	Theme         string        `json:"theme"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	Status        string        `json:"status"`
	// Rank is the position in the waitlist; only set for waitlisted entries
	Rank *int `json:"rank,omitempty"`
}

// IsConfirmed reports whether the entry carries the confirmed status label
func (e ReservationEntry) IsConfirmed(confirmedLabel string) bool {
	return e.Status == confirmedLabel
}

// Validate checks that the id and status are set and that an entry that is
// not confirmed carries a rank
func (e ReservationEntry) Validate(confirmedLabel string) error {
	if e.ReservationID == "" {
		return fmt.Errorf("%w: missing reservationId", ErrInvalidEntry)
	}
	if e.Status == "" {
		return fmt.Errorf("%w: reservation %s has no status", ErrInvalidEntry, e.ReservationID)
	}
	if !e.IsConfirmed(confirmedLabel) && e.Rank == nil {
		return fmt.Errorf("%w: waitlisted reservation %s has no rank", ErrInvalidEntry, e.ReservationID)
	}
	return nil
}

// reservationList is the wrapped form some servers use for list responses
type reservationList struct {
	Responses json.RawMessage `json:"responses"`
}

// DecodeReservationEntries decodes either a bare JSON array of entries or an
// object wrapping the array under "responses". Order is preserved.
func DecodeReservationEntries(data []byte) ([]ReservationEntry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty reservation list body")
	}

	if data[0] == '{' {
		var wrapped reservationList
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("failed to decode reservation list: %w", err)
		}
		if len(wrapped.Responses) == 0 {
			return nil, errors.New("reservation list object has no responses field")
		}
		data = wrapped.Responses
	}

	var entries []ReservationEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode reservation list: %w", err)
	}
	if entries == nil {
		entries = []ReservationEntry{}
	}
	return entries, nil
}
