package main

import (
	"fmt"
	"strings"
	"time"
)

// SearchCriteria describes one SRT schedule search. Values are validated on
// construction and never mutated afterwards.
type SearchCriteria struct {
	Departure     string
	Destination   string
	Date          string // YYYYMMDD, as used by the #dptDt select
	DepartureTime string // HHMMSS on an even hour, as used by the #dptTm select
	TicketCount   int
}

func NewSearchCriteria(departure, destination, date, departureTime string, ticketCount int) (SearchCriteria, error) {
	departure = strings.TrimSpace(departure)
	destination = strings.TrimSpace(destination)

	if departure == "" {
		return SearchCriteria{}, fmt.Errorf("%w: departure station is required", ErrConfiguration)
	}
	if destination == "" {
		return SearchCriteria{}, fmt.Errorf("%w: destination station is required", ErrConfiguration)
	}
	if err := validateDate(date); err != nil {
		return SearchCriteria{}, err
	}
	if err := validateDepartureTime(departureTime); err != nil {
		return SearchCriteria{}, err
	}
	if ticketCount < 1 || ticketCount > 9 {
		return SearchCriteria{}, fmt.Errorf("%w: ticket count must be between 1 and 9, got %d", ErrConfiguration, ticketCount)
	}

	return SearchCriteria{
		Departure:     departure,
		Destination:   destination,
		Date:          date,
		DepartureTime: departureTime,
		TicketCount:   ticketCount,
	}, nil
}

func validateDate(date string) error {
	if _, err := time.Parse("20060102", date); err != nil {
		return fmt.Errorf("%w: invalid date '%s'. Use format: YYYYMMDD (e.g., 20251003)", ErrConfiguration, date)
	}

	// Lexicographic compare is exact for zero-padded YYYYMMDD and stays in
	// local time, so today is accepted and yesterday is not.
	if date < time.Now().Format("20060102") {
		return fmt.Errorf("%w: date '%s' is in the past", ErrConfiguration, date)
	}

	return nil
}

// The SRT departure-time select only offers even hours: 000000, 020000, ... 220000.
func validateDepartureTime(departureTime string) error {
	t, err := time.Parse("150405", departureTime)
	if err != nil {
		return fmt.Errorf("%w: invalid departure time '%s'. Use format: HHMMSS (e.g., 200000)", ErrConfiguration, departureTime)
	}

	if t.Hour()%2 != 0 || t.Minute() != 0 || t.Second() != 0 {
		return fmt.Errorf("%w: departure time '%s' must be an even hour (e.g., 080000, 140000, 200000)", ErrConfiguration, departureTime)
	}

	return nil
}
