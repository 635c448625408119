// Package observability provides metrics collection for plumb.
package observability

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Metrics collects routing counters. All counters are atomic so
// concurrent passes can record without coordination.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	messagesRouted     atomic.Int64
	messagesStopped    atomic.Int64
	rulesMatched       atomic.Int64
	actionsExecuted    atomic.Int64
	actionsFailed      atomic.Int64
	transfersTotal     atomic.Int64
	filesTransferred   atomic.Int64
	bytesTransferred   atomic.Int64
	commandInvocations map[string]*atomic.Int64

	// Gauges
	activeMessages atomic.Int64

	// Histograms (simplified - just track count and sum)
	routeLatencyCount   atomic.Int64
	routeLatencySum     atomic.Int64
	commandLatencyCount map[string]*atomic.Int64
	commandLatencySum   map[string]*atomic.Int64

	// Info
	version   string
	startTime time.Time
}

// knownCommands lists CLI commands to pre-initialize metrics for,
// avoiding lock contention on the hot path during command invocation.
var knownCommands = []string{
	"route", "check", "rules", "trace", "watch", "init", "version",
}

// NewMetrics creates a new Metrics instance.
// Pre-initializes metrics for known commands to reduce lock contention.
func NewMetrics(version string) *Metrics {
	commandInvocations := make(map[string]*atomic.Int64, len(knownCommands))
	commandLatencyCount := make(map[string]*atomic.Int64, len(knownCommands))
	commandLatencySum := make(map[string]*atomic.Int64, len(knownCommands))

	for _, cmd := range knownCommands {
		commandInvocations[cmd] = &atomic.Int64{}
		commandLatencyCount[cmd] = &atomic.Int64{}
		commandLatencySum[cmd] = &atomic.Int64{}
	}

	return &Metrics{
		commandInvocations:  commandInvocations,
		commandLatencyCount: commandLatencyCount,
		commandLatencySum:   commandLatencySum,
		version:             version,
		startTime:           time.Now(),
	}
}

// RecordMessage records one completed routing pass.
func (m *Metrics) RecordMessage(matched int, stopped bool, duration time.Duration) {
	m.messagesRouted.Add(1)
	if stopped {
		m.messagesStopped.Add(1)
	}
	m.rulesMatched.Add(int64(matched))
	m.routeLatencyCount.Add(1)
	m.routeLatencySum.Add(duration.Milliseconds())
}

// RecordActions records action outcomes from an execution phase.
func (m *Metrics) RecordActions(executed, failed int) {
	m.actionsExecuted.Add(int64(executed))
	m.actionsFailed.Add(int64(failed))
}

// RecordTransfer records one completed transfer batch.
func (m *Metrics) RecordTransfer(files int, bytes int64) {
	m.transfersTotal.Add(1)
	m.filesTransferred.Add(int64(files))
	m.bytesTransferred.Add(bytes)
}

// RecordCommandInvocation records a CLI command invocation.
// Uses optimistic read lock for pre-initialized commands (hot path),
// falling back to write lock only for unknown commands.
func (m *Metrics) RecordCommandInvocation(command string, duration time.Duration) {
	m.mu.RLock()
	counter := m.commandInvocations[command]
	latencyCount := m.commandLatencyCount[command]
	latencySum := m.commandLatencySum[command]
	m.mu.RUnlock()

	if counter == nil {
		m.mu.Lock()
		// Double-check after acquiring write lock
		if m.commandInvocations[command] == nil {
			m.commandInvocations[command] = &atomic.Int64{}
			m.commandLatencyCount[command] = &atomic.Int64{}
			m.commandLatencySum[command] = &atomic.Int64{}
		}
		counter = m.commandInvocations[command]
		latencyCount = m.commandLatencyCount[command]
		latencySum = m.commandLatencySum[command]
		m.mu.Unlock()
	}

	counter.Add(1)
	latencyCount.Add(1)
	latencySum.Add(duration.Milliseconds())
}

// SetActiveMessages sets the number of messages currently in a pass.
func (m *Metrics) SetActiveMessages(count int64) {
	m.activeMessages.Store(count)
}

// IncrementActiveMessages increments the in-flight message count.
func (m *Metrics) IncrementActiveMessages() {
	m.activeMessages.Add(1)
}

// DecrementActiveMessages decrements the in-flight message count.
func (m *Metrics) DecrementActiveMessages() {
	m.activeMessages.Add(-1)
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	commandCounts := make(map[string]int64)
	for cmd, count := range m.commandInvocations {
		commandCounts[cmd] = count.Load()
	}

	return MetricsSnapshot{
		MessagesRouted:     m.messagesRouted.Load(),
		MessagesStopped:    m.messagesStopped.Load(),
		RulesMatched:       m.rulesMatched.Load(),
		ActionsExecuted:    m.actionsExecuted.Load(),
		ActionsFailed:      m.actionsFailed.Load(),
		TransfersTotal:     m.transfersTotal.Load(),
		FilesTransferred:   m.filesTransferred.Load(),
		BytesTransferred:   m.bytesTransferred.Load(),
		ActiveMessages:     m.activeMessages.Load(),
		CommandInvocations: commandCounts,
		Uptime:             time.Since(m.startTime),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	MessagesRouted     int64
	MessagesStopped    int64
	RulesMatched       int64
	ActionsExecuted    int64
	ActionsFailed      int64
	TransfersTotal     int64
	FilesTransferred   int64
	BytesTransferred   int64
	ActiveMessages     int64
	CommandInvocations map[string]int64
	Uptime             time.Duration
}

// Summary renders a short human-readable dump of the counters, printed
// by route and watch on shutdown.
func (m *Metrics) Summary() string {
	s := m.Snapshot()

	var sb strings.Builder
	fmt.Fprintf(&sb, "messages routed:  %d (%d stopped)\n", s.MessagesRouted, s.MessagesStopped)
	fmt.Fprintf(&sb, "rules matched:    %d\n", s.RulesMatched)
	fmt.Fprintf(&sb, "actions executed: %d (%d failed)\n", s.ActionsExecuted, s.ActionsFailed)
	fmt.Fprintf(&sb, "transferred:      %d files, %s in %d batches\n",
		s.FilesTransferred, humanize.Bytes(uint64(s.BytesTransferred)), s.TransfersTotal)
	fmt.Fprintf(&sb, "uptime:           %s\n", s.Uptime.Round(time.Millisecond))
	return sb.String()
}

// Global metrics instance with separate sync.Once for initialization control.
// This prevents race conditions where Global() could initialize with "unknown"
// before InitGlobal() is called.
var (
	globalMetrics     *Metrics
	globalMetricsOnce sync.Once
	initOnce          sync.Once
	initialized       bool
)

// Global returns the global metrics instance.
// If InitGlobal has not been called, this will initialize with "unknown" version.
// For proper initialization, call InitGlobal before any calls to Global.
func Global() *Metrics {
	globalMetricsOnce.Do(func() {
		if !initialized {
			globalMetrics = NewMetrics("unknown")
		}
	})
	return globalMetrics
}

// InitGlobal initializes the global metrics instance with version info.
// This should be called early in application startup, before any calls to Global().
// If Global() was called first, the version may already be set to "unknown".
func InitGlobal(version string) *Metrics {
	initOnce.Do(func() {
		initialized = true
		globalMetrics = NewMetrics(version)
	})
	// Also trigger globalMetricsOnce so Global() returns correctly
	globalMetricsOnce.Do(func() {})
	return globalMetrics
}
