package main

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// The reserve links live in the 7th column of the schedule result rows; a
// bookable train's link reads 예약하기.
const reserveLinksJS = `() => {
	const xpath = "//*[@id='result-form']//tbody//tr//td[7]/a";
	const result = document.evaluate(xpath, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);

	const available = [];
	for (let i = 0; i < result.snapshotLength; i++) {
		const link = result.snapshotItem(i);
		if (!link || !link.textContent || !link.textContent.includes('예약하기')) continue;
		const row = link.closest('tr');
		const cells = row ? row.querySelectorAll('td') : [];
		available.push({
			train: cells.length > 1 ? cells[1].textContent.trim() : '',
			time: cells.length > 3 ? cells[3].textContent.trim() : '',
			text: link.textContent.trim(),
		});
	}
	return available;
}`

const clickReserveJS = `() => {
	const xpath = "//*[@id='result-form']//tbody//tr//td[7]/a";
	const result = document.evaluate(xpath, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);

	for (let i = 0; i < result.snapshotLength; i++) {
		const link = result.snapshotItem(i);
		if (link && link.textContent && link.textContent.includes('예약하기')) {
			link.click();
			return true;
		}
	}
	return false;
}`

// Poller triggers a schedule search and inspects the result for a clickable
// reserve link. In notify-only mode the link is reported but never clicked,
// so the search form stays intact for the next cycle.
type Poller struct {
	settle     time.Duration
	notifyOnly bool
	log        *zap.SugaredLogger

	// submit and eval touch the live page. Swapped in tests.
	submit func(page *rod.Page) error
	eval   func(page *rod.Page, js string) (*proto.RuntimeRemoteObject, error)
}

func NewPoller(settle time.Duration, notifyOnly bool, log *zap.SugaredLogger) *Poller {
	p := &Poller{settle: settle, notifyOnly: notifyOnly, log: log}
	p.submit = func(page *rod.Page) error {
		button, err := page.Timeout(elementTimeout).Element("input[type='submit']")
		if err != nil {
			return fmt.Errorf("search button not found: %w", err)
		}
		if err := button.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("failed to click search button: %w", err)
		}
		return nil
	}
	p.eval = func(page *rod.Page, js string) (*proto.RuntimeRemoteObject, error) {
		return page.Eval(js)
	}
	return p
}

// Search submits the form and checks the result table. When a reserve link is
// present it is clicked immediately so the reservation is held before the
// user is notified, unless notify-only mode leaves the page untouched.
func (p *Poller) Search(page *rod.Page) Outcome {
	if err := p.submit(page); err != nil {
		return classifyOutcome(err)
	}

	time.Sleep(p.settle)

	res, err := p.eval(page, reserveLinksJS)
	if err != nil {
		return classifyOutcome(fmt.Errorf("failed to inspect search results: %w", err))
	}

	links := res.Value.Arr()
	if len(links) == 0 {
		return noTicketsYet()
	}

	details := &TicketDetails{
		Train:         links[0].Get("train").Str(),
		DepartureTime: links[0].Get("time").Str(),
		LinkText:      links[0].Get("text").Str(),
	}
	p.log.Infow("reserve link available", "count", len(links), "train", details.Train, "time", details.DepartureTime)

	if p.notifyOnly {
		return ticketsFound(details)
	}

	clicked, err := p.eval(page, clickReserveJS)
	if err != nil {
		return classifyOutcome(fmt.Errorf("failed to click reservation link: %w", err))
	}
	if !clicked.Value.Bool() {
		return classifyOutcome(fmt.Errorf("reservation link disappeared before it could be clicked"))
	}

	return ticketsFound(details)
}
