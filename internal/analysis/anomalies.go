package analysis

import (
	"fmt"
	"natbwdash/internal/models"
	"sync"
	"time"
)

// AnomalyType represents the type of change detected between two snapshots.
type AnomalyType string

const (
	AnomalyNewHost   AnomalyType = "NEW_HOST"
	AnomalyHostGone  AnomalyType = "HOST_GONE"
	AnomalyRateSpike AnomalyType = "RATE_SPIKE"
)

// Config holds configuration for the change detector.
type Config struct {
	SpikeFactor   float64       // Rate multiplier over the previous poll
	SpikeFloor    float64       // Minimum combined bytes/s for a spike to count
	SpikeCooldown time.Duration // Cooldown for spike alerts per host
	DataRetention time.Duration // How long to keep cooldown entries
	MaxAlerts     int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		SpikeFactor:   10,
		SpikeFloor:    1024 * 1024,
		SpikeCooldown: 30 * time.Second,
		DataRetention: 5 * time.Minute,
		MaxAlerts:     20,
	}
}

// Alert represents a detected change on the network.
type Alert struct {
	Type      AnomalyType
	Source    string // IP address
	Message   string // Human-readable description
	Timestamp time.Time
}

// ChangeDetector compares consecutive snapshots for hosts that appear,
// disappear or suddenly ramp up their traffic.
type ChangeDetector struct {
	mu sync.Mutex

	config Config

	// Spike throttling, IP -> last alert time
	spikeAlerts map[string]time.Time

	// Alert History (circular buffer)
	alerts []Alert

	lastCleanup time.Time
	now         func() time.Time
}

// NewChangeDetector creates a new change detector.
func NewChangeDetector(cfg Config) *ChangeDetector {
	if cfg.MaxAlerts <= 0 {
		cfg.MaxAlerts = 20
	}
	return &ChangeDetector{
		config:      cfg,
		spikeAlerts: make(map[string]time.Time),
		alerts:      make([]Alert, 0),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Compare records alerts for the differences between prev and cur. Nothing
// is reported against an empty prev, the first poll is not news.
func (cd *ChangeDetector) Compare(prev, cur models.Snapshot) {
	if prev.Empty() {
		return
	}

	cd.mu.Lock()
	defer cd.mu.Unlock()

	now := cd.now()
	if now.Sub(cd.lastCleanup) > cd.config.DataRetention {
		cd.cleanup(now)
		cd.lastCleanup = now
	}

	before := make(map[string]models.HostStat, len(prev.Stats))
	for _, s := range prev.Stats {
		before[s.IP] = s
	}
	seen := make(map[string]bool, len(cur.Stats))

	for _, s := range cur.Stats {
		seen[s.IP] = true
		old, ok := before[s.IP]
		if !ok {
			cd.addAlert(Alert{
				Type:      AnomalyNewHost,
				Source:    s.IP,
				Message:   fmt.Sprintf("New host %s", describe(s)),
				Timestamp: now,
			})
			continue
		}
		cd.detectSpike(old, s, now)
	}

	for _, s := range prev.Stats {
		if !seen[s.IP] {
			cd.addAlert(Alert{
				Type:      AnomalyHostGone,
				Source:    s.IP,
				Message:   fmt.Sprintf("Host %s no longer reported", describe(s)),
				Timestamp: now,
			})
		}
	}
}

func (cd *ChangeDetector) detectSpike(old, cur models.HostStat, now time.Time) {
	rate := cur.InRate + cur.OutRate
	if rate < cd.config.SpikeFloor {
		return
	}
	if rate < (old.InRate+old.OutRate)*cd.config.SpikeFactor {
		return
	}
	if last, ok := cd.spikeAlerts[cur.IP]; ok && now.Sub(last) <= cd.config.SpikeCooldown {
		return
	}
	cd.addAlert(Alert{
		Type:      AnomalyRateSpike,
		Source:    cur.IP,
		Message:   fmt.Sprintf("Traffic spike on %s: %s", describe(cur), FmtRateDefault(rate)),
		Timestamp: now,
	})
	cd.spikeAlerts[cur.IP] = now
}

func describe(s models.HostStat) string {
	if s.Name != "" {
		return fmt.Sprintf("%s (%s)", s.IP, s.Name)
	}
	return s.IP
}

// cleanup removes old entries to prevent memory leaks.
func (cd *ChangeDetector) cleanup(now time.Time) {
	for ip, lastAlert := range cd.spikeAlerts {
		if now.Sub(lastAlert) > cd.config.DataRetention {
			delete(cd.spikeAlerts, ip)
		}
	}
}

// addAlert adds an alert to the history (circular buffer).
func (cd *ChangeDetector) addAlert(alert Alert) {
	cd.alerts = append(cd.alerts, alert)

	if len(cd.alerts) > cd.config.MaxAlerts {
		cd.alerts = cd.alerts[len(cd.alerts)-cd.config.MaxAlerts:]
	}
}

// GetRecentAlerts returns the most recent alerts (thread-safe).
func (cd *ChangeDetector) GetRecentAlerts(limit int) []Alert {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	if len(cd.alerts) == 0 {
		return []Alert{}
	}

	// Return last N alerts (newest last)
	start := 0
	if len(cd.alerts) > limit {
		start = len(cd.alerts) - limit
	}

	result := make([]Alert, len(cd.alerts)-start)
	copy(result, cd.alerts[start:])

	return result
}
