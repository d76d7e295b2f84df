package metrics

import (
	"time"

	"media-catalog/internal/logging"
)

// StatsProvider reports the current size of the catalog.
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current catalog statistics
type Stats struct {
	TotalAssets          int `json:"totalAssets"`
	TotalFolders         int `json:"totalFolders"`
	TotalCorruptedAssets int `json:"totalCorruptedAssets"`
}

// Collector periodically collects and updates catalog gauges
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	CatalogAssetsTotal.Set(float64(stats.TotalAssets))
	CatalogFoldersTotal.Set(float64(stats.TotalFolders))
	CatalogCorruptedAssetsTotal.Set(float64(stats.TotalCorruptedAssets))

	logging.Debug("Metrics collected: assets=%d, folders=%d, corrupted=%d",
		stats.TotalAssets, stats.TotalFolders, stats.TotalCorruptedAssets)
}
