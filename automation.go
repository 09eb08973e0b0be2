package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

const srtSearchURL = "https://etk.srail.kr/hpg/hra/01/selectScheduleList.do?pageId=TK0101010000"

// Automation owns the live browser session and satisfies Searcher. The page
// handle is borrowed by the form filler and poller for single calls only; a
// restart invalidates it and the next cycle acquires a fresh one.
type Automation struct {
	config   *Config
	criteria SearchCriteria
	log      *zap.SugaredLogger

	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	filler *FormFiller
	poller *Poller
}

func NewAutomation(config *Config, criteria SearchCriteria, log *zap.SugaredLogger) *Automation {
	return &Automation{
		config:   config,
		criteria: criteria,
		log:      log,
		filler:   NewFormFiller(log),
		poller:   NewPoller(time.Duration(config.SearchSettleSeconds)*time.Second, config.NotifyOnly, log),
	}
}

// Cycle runs one full poll: acquire a session if needed, search, and re-fill
// the form for the next round. All errors are converted to Outcomes here; no
// raw error escapes a cycle.
func (a *Automation) Cycle() Outcome {
	if !a.isBrowserAlive() {
		a.Close()
		if err := a.start(); err != nil {
			return classifyOutcome(fmt.Errorf("session setup failed: %w", err))
		}
	}

	outcome := a.poller.Search(a.page)

	if outcome.Kind == OutcomeNoTicketsYet {
		if err := a.filler.Refill(a.page, a.criteria); err != nil {
			return classifyOutcome(fmt.Errorf("form refill failed: %w", err))
		}
	}

	return outcome
}

// Restart discards the current session and acquires a fresh one with the
// search form filled again.
func (a *Automation) Restart() error {
	a.Close()
	return a.start()
}

func (a *Automation) start() error {
	if err := a.setupBrowser(); err != nil {
		return err
	}
	return a.prepareSearchPage()
}

func (a *Automation) setupBrowser() error {
	a.log.Info("launching browser")

	// Leakless deadlocks on Windows, see go-rod/rod#853
	useLeakless := runtime.GOOS != "windows"

	a.launcher = launcher.New().
		Leakless(useLeakless).
		Headless(a.config.Headless)

	if a.config.BrowserProfilePath != "" {
		a.launcher = a.launcher.UserDataDir(a.config.BrowserProfilePath)
	}

	if chromePath, chromeExists := launcher.LookPath(); chromeExists {
		a.launcher = a.launcher.Bin(chromePath)
		a.log.Debugw("using system chrome", "path", chromePath)
	} else {
		a.log.Debug("system chrome not found, downloading chromium")
	}

	url, err := a.launcher.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	a.browser = browser

	a.log.Info("browser launched")
	return nil
}

func (a *Automation) prepareSearchPage() error {
	page, err := stealth.Page(a.browser)
	if err != nil {
		return fmt.Errorf("failed to create stealth page: %w", err)
	}
	a.page = page

	a.log.Infow("opening schedule search page", "url", srtSearchURL)

	if err := a.page.Navigate(srtSearchURL); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	if err := a.page.WaitLoad(); err != nil {
		return fmt.Errorf("search page failed to load: %w", err)
	}

	// The form is rendered by script shortly after the load event.
	time.Sleep(time.Duration(a.config.SearchSettleSeconds) * time.Second)

	if err := a.filler.Fill(a.page, a.criteria); err != nil {
		return err
	}

	a.log.Info("search form filled")
	return nil
}

func (a *Automation) isBrowserAlive() bool {
	if a.browser == nil {
		return false
	}

	if _, err := a.browser.Version(); err != nil {
		a.log.Debugw("browser version check failed", "error", err)
		return false
	}

	if a.page != nil {
		if _, err := a.page.Info(); err != nil {
			a.log.Debugw("page info check failed", "error", err)
			return false
		}
	}

	return true
}

func (a *Automation) Close() {
	if a.page != nil {
		_ = a.page.Close()
		a.page = nil
	}

	if a.browser != nil {
		_ = a.browser.Close()
		a.browser = nil
	}

	if a.launcher != nil {
		a.launcher.Cleanup()
		a.launcher = nil
	}
}
