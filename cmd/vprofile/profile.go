package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jrhy/vhash"
	"github.com/jrhy/vhash/corpus"
	"github.com/jrhy/vhash/metrics"
	"go.uber.org/zap"
)

// report is what one profiling run measured.
type report struct {
	Words       int
	UniqueWords int
	Pairs       int

	LoadSet   time.Duration
	CheckSet  time.Duration
	LoadMap   time.Duration
	CheckMap  time.Duration
	SetStats  vhash.Stats
	MapStats  vhash.Stats
	SetDigest string
	MapDigest string
}

// profile reads every word from src, then builds a set with one version
// per word and a map with one version per chained word pair, checking
// that the final versions hold everything that went in.
func profile(ctx context.Context, cfg *Config, src corpus.WordSource, collector *metrics.Collector, log *zap.Logger) (*report, error) {
	words, err := corpus.Words(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	pairs := corpus.Pairs(words)
	r := &report{
		Words:       len(words),
		UniqueWords: len(corpus.UniqueWords(words)),
		Pairs:       len(pairs),
	}
	log.Info("corpus loaded",
		zap.Int("words", r.Words),
		zap.Int("uniqueWords", r.UniqueWords),
		zap.Int("pairs", r.Pairs))
	opts := cfg.options(log)

	start := time.Now()
	set := vhash.NewSet[string](opts)
	collector.Register("set", set)
	for _, word := range words {
		if set, err = set.Add(word); err != nil {
			return nil, fmt.Errorf("adding %q: %w", word, err)
		}
	}
	collector.Register("set", set)
	r.LoadSet = time.Since(start)

	start = time.Now()
	for _, word := range words {
		if !set.Contains(word) {
			return nil, fmt.Errorf("set version %d lost %q", set.VersionNumber(), word)
		}
	}
	if set.Size() != r.UniqueWords {
		return nil, fmt.Errorf("set has %d members, want %d", set.Size(), r.UniqueWords)
	}
	r.CheckSet = time.Since(start)

	start = time.Now()
	m := vhash.NewMap[string, string](opts)
	collector.Register("map", m)
	for _, p := range pairs {
		if m, err = m.Put(p.Key, p.Value); err != nil {
			return nil, fmt.Errorf("putting %q: %w", p.Key, err)
		}
	}
	collector.Register("map", m)
	r.LoadMap = time.Since(start)

	start = time.Now()
	for _, p := range pairs {
		if v, ok := m.Get(p.Key); !ok || v != p.Value {
			return nil, fmt.Errorf("map version %d has %q=%q, want %q", m.VersionNumber(), p.Key, v, p.Value)
		}
	}
	if m.Size() != r.Pairs {
		return nil, fmt.Errorf("map has %d keys, want %d", m.Size(), r.Pairs)
	}
	r.CheckMap = time.Since(start)

	r.SetStats = set.Stats()
	r.MapStats = m.Stats()
	if r.SetDigest, err = set.Digest(); err != nil {
		return nil, err
	}
	if r.MapDigest, err = m.Digest(); err != nil {
		return nil, err
	}
	if cfg.Dump {
		set.Dump("vprofile set", cfg.DumpContent)
		m.Dump("vprofile map", cfg.DumpContent)
	}
	return r, nil
}

func (r *report) log(log *zap.Logger) {
	log.Info("set",
		zap.Duration("load", r.LoadSet),
		zap.Duration("check", r.CheckSet),
		zap.Int("size", r.SetStats.Size),
		zap.Uint32("version", r.SetStats.Version),
		zap.Int("buckets", r.SetStats.Buckets),
		zap.Int("rehashes", r.SetStats.Rehashes),
		zap.Int("longestChain", r.SetStats.LongestChain),
		zap.String("digest", r.SetDigest))
	log.Info("map",
		zap.Duration("load", r.LoadMap),
		zap.Duration("check", r.CheckMap),
		zap.Int("size", r.MapStats.Size),
		zap.Uint32("version", r.MapStats.Version),
		zap.Int("buckets", r.MapStats.Buckets),
		zap.Int("rehashes", r.MapStats.Rehashes),
		zap.Int("longestHistory", r.MapStats.LongestHistory),
		zap.String("digest", r.MapDigest))
}
