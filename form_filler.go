package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-rod/rod"
	"go.uber.org/zap"
)

const (
	departureStationID   = "dptRsStnCdNm"
	destinationStationID = "arvRsStnCdNm"
	dateSelectID         = "dptDt"
	timeSelectID         = "dptTm"
	ticketCountSelectID  = "psgInfoPerPrnb1"

	elementTimeout = 10 * time.Second
)

// fillStrategy is one way of setting a form field. Strategies for a field are
// tried in a fixed order; the first one that succeeds wins.
type fillStrategy struct {
	name  string
	apply func() error
}

// FormFiller populates the SRT schedule search form.
type FormFiller struct {
	log *zap.SugaredLogger
}

func NewFormFiller(log *zap.SugaredLogger) *FormFiller {
	return &FormFiller{log: log}
}

// Fill populates every search field. Failures are field-fill failures, which
// the caller treats as recoverable.
func (f *FormFiller) Fill(page *rod.Page, c SearchCriteria) error {
	if err := runStrategies(f.log, "departure station", f.stationStrategies(page, departureStationID, c.Departure)); err != nil {
		return err
	}
	if err := runStrategies(f.log, "destination station", f.stationStrategies(page, destinationStationID, c.Destination)); err != nil {
		return err
	}
	if err := runStrategies(f.log, "date", f.selectStrategies(page, dateSelectID, c.Date)); err != nil {
		return err
	}
	if err := runStrategies(f.log, "departure time", f.selectStrategies(page, timeSelectID, c.DepartureTime)); err != nil {
		return err
	}
	return runStrategies(f.log, "ticket count", f.selectStrategies(page, ticketCountSelectID, strconv.Itoa(c.TicketCount)))
}

// Refill reapplies stations, date and time after a search round. The site
// keeps most of the form but occasionally drops fields, so missing elements
// are tolerated here rather than failing the cycle.
func (f *FormFiller) Refill(page *rod.Page, c SearchCriteria) error {
	if exists, _ := f.elementExists(page, departureStationID); exists {
		if err := runStrategies(f.log, "departure station", f.stationStrategies(page, departureStationID, c.Departure)); err != nil {
			return err
		}
		if err := runStrategies(f.log, "destination station", f.stationStrategies(page, destinationStationID, c.Destination)); err != nil {
			return err
		}
	}

	for _, field := range []struct {
		label string
		id    string
		value string
	}{
		{"date", dateSelectID, c.Date},
		{"departure time", timeSelectID, c.DepartureTime},
	} {
		exists, err := f.elementExists(page, field.id)
		if err != nil {
			return fmt.Errorf("refill %s: %w", field.label, err)
		}
		if !exists {
			f.log.Warnw("field missing after search, skipping refill", "field", field.label)
			continue
		}
		if err := runStrategies(f.log, field.label, f.selectStrategies(page, field.id, field.value)); err != nil {
			return err
		}
	}

	return nil
}

func runStrategies(log *zap.SugaredLogger, field string, strategies []fillStrategy) error {
	for _, s := range strategies {
		if err := s.apply(); err != nil {
			log.Debugw("fill strategy failed", "field", field, "strategy", s.name, "error", err)
			continue
		}
		log.Debugw("field filled", "field", field, "strategy", s.name)
		return nil
	}
	return fmt.Errorf("all fill strategies failed for %s", field)
}

func (f *FormFiller) stationStrategies(page *rod.Page, id, value string) []fillStrategy {
	return []fillStrategy{
		{
			name: "element-input",
			apply: func() error {
				el, err := page.Timeout(elementTimeout).Element("#" + id)
				if err != nil {
					return err
				}
				if err := el.SelectAllText(); err != nil {
					return err
				}
				return el.Input(value)
			},
		},
		{
			name: "js-assign",
			apply: func() error {
				return f.evalFieldSet(page, `(id, value) => {
					const el = document.getElementById(id);
					if (!el) return false;
					el.value = value;
					el.dispatchEvent(new Event('input', { bubbles: true }));
					return true;
				}`, id, value)
			},
		},
	}
}

func (f *FormFiller) selectStrategies(page *rod.Page, id, value string) []fillStrategy {
	return []fillStrategy{
		{
			name: "js-assign",
			apply: func() error {
				return f.evalFieldSet(page, `(id, value) => {
					const el = document.getElementById(id);
					if (!el) return false;
					el.value = value;
					return el.value === value;
				}`, id, value)
			},
		},
		{
			name: "option-attribute-rewrite",
			apply: func() error {
				return f.evalFieldSet(page, `(id, value) => {
					const select = document.getElementById(id);
					if (!select) return false;
					const options = select.querySelectorAll('option');
					options.forEach(option => option.removeAttribute('selected'));
					const target = select.querySelector('option[value="' + value + '"]');
					if (!target) return false;
					target.setAttribute('selected', 'selected');
					select.value = value;
					return true;
				}`, id, value)
			},
		},
		{
			name: "element-select",
			apply: func() error {
				el, err := page.Timeout(elementTimeout).Element("#" + id)
				if err != nil {
					return err
				}
				return el.Select([]string{fmt.Sprintf(`[value=%q]`, value)}, true, rod.SelectorTypeCSSSector)
			},
		},
	}
}

func (f *FormFiller) evalFieldSet(page *rod.Page, js, id, value string) error {
	res, err := page.Eval(js, id, value)
	if err != nil {
		return err
	}
	if !res.Value.Bool() {
		return fmt.Errorf("element #%s not found or rejected value %q", id, value)
	}
	return nil
}

func (f *FormFiller) elementExists(page *rod.Page, id string) (bool, error) {
	res, err := page.Eval(`(id) => document.getElementById(id) !== null`, id)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}
