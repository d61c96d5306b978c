package cmd

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Terminal colors
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

var titleCaser = cases.Title(language.English)

// PerformanceTimer records named phases of a command
type PerformanceTimer struct {
	mu      sync.Mutex
	started time.Time
	starts  map[string]time.Time
	events  map[string]time.Duration
}

// NewPerformanceTimer creates a timer that starts now
func NewPerformanceTimer() *PerformanceTimer {
	return &PerformanceTimer{
		started: time.Now(),
		starts:  make(map[string]time.Time),
		events:  make(map[string]time.Duration),
	}
}

// StartEvent marks the beginning of an event
func (pt *PerformanceTimer) StartEvent(name string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.starts[name] = time.Now()
}

// EndEvent records the duration since the matching StartEvent
func (pt *PerformanceTimer) EndEvent(name string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if start, ok := pt.starts[name]; ok {
		pt.events[name] = time.Since(start)
		delete(pt.starts, name)
	}
}

// GetDuration returns the recorded duration of an event, zero if unfinished
func (pt *PerformanceTimer) GetDuration(name string) time.Duration {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.events[name]
}

// GetTotalDuration returns the time since the timer was created
func (pt *PerformanceTimer) GetTotalDuration() time.Duration {
	return time.Since(pt.started)
}

// Events lists finished events in name order
func (pt *PerformanceTimer) Events() []string {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	names := make([]string, 0, len(pt.events))
	for name := range pt.events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func displayPerformanceSummary(timer *PerformanceTimer) {
	printInfo("Performance Breakdown:")
	for _, event := range timer.Events() {
		eventName := titleCaser.String(strings.ReplaceAll(event, "_", " "))
		fmt.Printf("      %s: %v\n", eventName, timer.GetDuration(event).Round(time.Millisecond))
	}
	fmt.Printf("\n%sTotal Duration: %v%s\n", ColorBold, timer.GetTotalDuration().Round(time.Millisecond), ColorReset)
}

func printSection(title string) {
	fmt.Printf("\n%s\n", title)
	fmt.Println(strings.Repeat("-", len(title)))
}

func printKeyValue(key, value string) {
	if value == "" {
		fmt.Printf("%-35s\n", key)
	} else {
		fmt.Printf("%-35s %s\n", key+":", value)
	}
}

func printSuccess(format string, args ...any) {
	fmt.Printf("%s✓ %s%s\n", ColorGreen, fmt.Sprintf(format, args...), ColorReset)
}

func printWarning(format string, args ...any) {
	fmt.Printf("%s! %s%s\n", ColorYellow, fmt.Sprintf(format, args...), ColorReset)
}

func printInfo(format string, args ...any) {
	fmt.Printf("%s%s%s\n", ColorCyan, fmt.Sprintf(format, args...), ColorReset)
}
