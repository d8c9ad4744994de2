// Package metrics exports the Stats of versioned collections to
// Prometheus.
package metrics

import (
	"sync"

	"github.com/jrhy/vhash"
	"github.com/prometheus/client_golang/prometheus"
)

// StatsSource is satisfied by *vhash.Map and *vhash.Set.
type StatsSource interface {
	Stats() vhash.Stats
}

// Collector is a prometheus.Collector reporting the Stats of named
// sources, labelled by name. Stats are taken at scrape time.
type Collector struct {
	mu      sync.Mutex
	sources map[string]StatsSource

	size           *prometheus.GaugeVec
	entries        *prometheus.GaugeVec
	historyNodes   *prometheus.GaugeVec
	buckets        *prometheus.GaugeVec
	rehashes       *prometheus.GaugeVec
	longestChain   *prometheus.GaugeVec
	longestHistory *prometheus.GaugeVec
	highestVersion *prometheus.GaugeVec
	branchClones   *prometheus.GaugeVec
	cachedLookups  *prometheus.GaugeVec
	exhausted      *prometheus.GaugeVec
}

func newGaugeVec(namespace, name, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "vhash",
			Name:      name,
			Help:      help,
		}, []string{"lineage"})
}

// NewCollector returns an empty Collector whose metrics are named
// <namespace>_vhash_<stat>.
func NewCollector(namespace string) *Collector {
	return &Collector{
		sources:        make(map[string]StatsSource),
		size:           newGaugeVec(namespace, "size", "Number of keys in the registered version."),
		entries:        newGaugeVec(namespace, "entries", "Distinct keys ever written to the lineage's table."),
		historyNodes:   newGaugeVec(namespace, "history_nodes", "Writes recorded across all versions of the lineage."),
		buckets:        newGaugeVec(namespace, "buckets", "Bucket count of the lineage's table."),
		rehashes:       newGaugeVec(namespace, "rehashes", "Times the lineage's table has been rehashed."),
		longestChain:   newGaugeVec(namespace, "longest_chain", "Longest bucket chain of the lineage's table."),
		longestHistory: newGaugeVec(namespace, "longest_history", "Longest history of any key in the lineage."),
		highestVersion: newGaugeVec(namespace, "highest_version", "Highest version number allocated in the lineage."),
		branchClones:   newGaugeVec(namespace, "branch_clones", "Ancestor sets copied at branch points."),
		cachedLookups:  newGaugeVec(namespace, "cached_lookups", "Lookups held by the lineage's lookup cache."),
		exhausted:      newGaugeVec(namespace, "exhausted", "1 if the lineage has run out of version numbers."),
	}
}

// Register starts reporting src under name, replacing any source
// registered under the same name. Registering a newer version of a
// collection moves the size gauge to that version.
func (c *Collector) Register(name string, src StatsSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[name] = src
}

// Unregister stops reporting name.
func (c *Collector) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sources, name)
	for _, vec := range c.vecs() {
		vec.DeleteLabelValues(name)
	}
}

func (c *Collector) vecs() []*prometheus.GaugeVec {
	return []*prometheus.GaugeVec{
		c.size, c.entries, c.historyNodes, c.buckets, c.rehashes,
		c.longestChain, c.longestHistory, c.highestVersion,
		c.branchClones, c.cachedLookups, c.exhausted,
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, vec := range c.vecs() {
		vec.Describe(ch)
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, src := range c.sources {
		s := src.Stats()
		c.size.WithLabelValues(name).Set(float64(s.Size))
		c.entries.WithLabelValues(name).Set(float64(s.Entries))
		c.historyNodes.WithLabelValues(name).Set(float64(s.HistoryNodes))
		c.buckets.WithLabelValues(name).Set(float64(s.Buckets))
		c.rehashes.WithLabelValues(name).Set(float64(s.Rehashes))
		c.longestChain.WithLabelValues(name).Set(float64(s.LongestChain))
		c.longestHistory.WithLabelValues(name).Set(float64(s.LongestHistory))
		c.highestVersion.WithLabelValues(name).Set(float64(s.HighestVersion))
		c.branchClones.WithLabelValues(name).Set(float64(s.BranchClones))
		c.cachedLookups.WithLabelValues(name).Set(float64(s.CachedLookups))
		exhausted := 0.0
		if s.Exhausted {
			exhausted = 1
		}
		c.exhausted.WithLabelValues(name).Set(exhausted)
	}
	for _, vec := range c.vecs() {
		vec.Collect(ch)
	}
}
