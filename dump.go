package vhash

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// dump logs the table as seen from version: a summary line, then with
// includeContent one line per bucket listing each entry's full history,
// visible or not.
func (t *table[K, P]) dump(kind, label string, version *Version, size int, includeContent bool, format func(P) string) {
	s := t.stats(version, size)
	log := t.opts.Logger.With(zap.String("kind", kind), zap.String("label", label))
	log.Info("start of dump",
		zap.Stringer("version", version),
		zap.Int("size", s.Size),
		zap.Int("entries", s.Entries),
		zap.Int("historyNodes", s.HistoryNodes),
		zap.Int("buckets", s.Buckets),
		zap.Int("rehashes", s.Rehashes),
		zap.Int("longestChain", s.LongestChain),
		zap.Int("longestHistory", s.LongestHistory),
		zap.Uint32("highestVersion", s.HighestVersion))
	if includeContent {
		t.lin.mu.RLock()
		lines := make([]string, len(t.buckets))
		for i, head := range t.buckets {
			lines[i] = t.formatChain(head, format)
		}
		t.lin.mu.RUnlock()
		for i, line := range lines {
			log.Info("bucket", zap.Int("index", i), zap.String("entries", line))
		}
	}
	log.Info("end of dump")
}

// formatChain renders a bucket chain as "key{v3:value v1:-}" per entry,
// with "-" for a tombstone. Callers hold the read lock.
func (t *table[K, P]) formatChain(head ref, format func(P) string) string {
	if head == nilRef {
		return "empty"
	}
	var sb strings.Builder
	for e := head; e != nilRef; e = t.entries[e].next {
		if e != head {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%v{", t.entries[e].key)
		for n := t.entries[e].history; n != nilRef; n = t.nodes[n].next {
			if n != t.entries[e].history {
				sb.WriteByte(' ')
			}
			payload := "-"
			if t.present(t.nodes[n].payload) {
				payload = format(t.nodes[n].payload)
			}
			fmt.Fprintf(&sb, "v%d:%s", t.nodes[n].version, payload)
		}
		sb.WriteByte('}')
	}
	return sb.String()
}

// Dump logs this version's statistics to the lineage's logger at info
// level, and with includeContent every bucket and history too.
func (m *Map[K, V]) Dump(label string, includeContent bool) {
	m.t.dump("map", label, m.version, m.size, includeContent, func(s slot[V]) string {
		return fmt.Sprintf("%v", s.value)
	})
}

// Dump logs this version's statistics, and with includeContent every
// bucket and history too.
func (s *Set[V]) Dump(label string, includeContent bool) {
	s.t.dump("set", label, s.version, s.size, includeContent, func(bool) string {
		return "+"
	})
}
