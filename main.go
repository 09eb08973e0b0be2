package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	date := flag.String("date", "", "Travel date in YYYYMMDD format (overrides config)")
	departureTime := flag.String("time", "", "Departure time in HHMMSS format, even hours only (overrides config)")
	count := flag.Int("count", 0, "Number of tickets (overrides config)")
	from := flag.String("from", "", "Departure station (overrides config)")
	to := flag.String("to", "", "Destination station (overrides config)")
	headless := flag.Bool("headless", false, "Run the browser headless")
	debug := flag.Bool("debug", false, "Enable detailed debug logging")
	notifyOnly := flag.Bool("notify-only", false, "Keep polling after a ticket is found instead of stopping")
	flag.Parse()

	// SMTP credentials may live in a .env file next to the binary.
	_ = godotenv.Load()

	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *date != "" {
		config.Date = *date
	}
	if *departureTime != "" {
		config.DepartureTime = *departureTime
	}
	if *count > 0 {
		config.TicketCount = *count
	}
	if *from != "" {
		config.Departure = *from
	}
	if *to != "" {
		config.Destination = *to
	}
	if *headless {
		config.Headless = true
	}
	if *debug {
		config.DebugMode = true
	}
	if *notifyOnly {
		config.NotifyOnly = true
	}

	if err := config.Validate(); err != nil {
		log.Fatalf("Misconfiguration: %v", err)
	}

	criteria, err := NewSearchCriteria(config.Departure, config.Destination, config.Date, config.DepartureTime, config.TicketCount)
	if err != nil {
		log.Fatalf("Misconfiguration: %v", err)
	}

	logger, flush, err := NewLogger(config.LogFile, config.DebugMode)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer flush()

	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                   SRT Ticket Watcher                      ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Route: %s → %s\n", criteria.Departure, criteria.Destination)
	fmt.Printf("Date: %s  Departure: %s  Tickets: %d\n", criteria.Date, criteria.DepartureTime, criteria.TicketCount)
	fmt.Printf("Browser Profile: %s\n", config.BrowserProfilePath)
	if config.NotifyOnly {
		fmt.Println("🔁 NOTIFY-ONLY MODE - Polling continues after a ticket is found")
	}
	if config.DebugMode {
		fmt.Println("🔍 DEBUG MODE - Detailed logging enabled")
	}
	fmt.Println()

	automation := NewAutomation(config, criteria, logger)
	defer automation.Close()

	notifier := NewNotifier(config, logger)
	watcher := NewWatcher(automation, notifier, config.Limits(), config.NotifyOnly, logger)

	if err := watcher.Run(); err != nil {
		if errors.Is(err, ErrRestartBudgetExhausted) {
			notifier.DispatchFailure(fmt.Sprintf("Gave up after %d browser restarts. Check the logs.", config.MaxRestarts))
			logger.Errorw("exhausted retries", "error", err)
			fmt.Println()
			fmt.Printf("✗ Exhausted retries: the browser kept failing. Check %s for details.\n", config.LogFile)
		} else {
			logger.Errorw("watcher aborted", "error", err)
			fmt.Println()
			fmt.Printf("✗ Aborted: %v\n", err)
		}
		// os.Exit skips deferred calls.
		automation.Close()
		flush()
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("✓ Ticket found and reservation clicked - complete payment within 10 minutes!")
}
