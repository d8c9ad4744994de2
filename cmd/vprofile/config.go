package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jrhy/vhash"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// Config is the profiler configuration. A TOML file sets it first, then
// any flags given on the command line override it.
type Config struct {
	LogLevel string `toml:"log-level"`
	Dump     bool   `toml:"dump"`
	// DumpContent also dumps every bucket, which is huge for a real corpus.
	DumpContent bool   `toml:"dump-content"`
	MetricsAddr string `toml:"metrics-addr"`

	Corpus CorpusConfig `toml:"corpus"`
	Table  TableConfig  `toml:"table"`
}

// CorpusConfig names where words come from: a local file, or an S3
// object if Bucket is set.
type CorpusConfig struct {
	File     string `toml:"file"`
	Bucket   string `toml:"bucket"`
	Key      string `toml:"key"`
	Region   string `toml:"region"`
	Endpoint string `toml:"endpoint"`
}

type TableConfig struct {
	InitialBuckets  int     `toml:"initial-buckets"`
	LoadFactor      float64 `toml:"load-factor"`
	AlwaysAllocate  bool    `toml:"always-allocate"`
	LookupCacheSize int     `toml:"lookup-cache-size"`
	MaxVersion      uint32  `toml:"max-version"`
}

func defaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Corpus: CorpusConfig{
			File: "data.txt",
		},
	}
}

// configFromFile overlays the file at path onto c, refusing keys that
// don't belong to Config.
func (c *Config) configFromFile(path string) error {
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return fmt.Errorf("config %s contains undefined item: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// adjust applies the flags that were set explicitly.
func (c *Config) adjust(ctx *cli.Context) {
	if ctx.IsSet(logLevelFlag.Name) {
		c.LogLevel = ctx.String(logLevelFlag.Name)
	}
	if ctx.IsSet(dumpFlag.Name) {
		c.Dump = ctx.Bool(dumpFlag.Name)
	}
	if ctx.IsSet(dumpContentFlag.Name) {
		c.DumpContent = ctx.Bool(dumpContentFlag.Name)
	}
	if ctx.IsSet(metricsAddrFlag.Name) {
		c.MetricsAddr = ctx.String(metricsAddrFlag.Name)
	}
	if ctx.IsSet(fileFlag.Name) {
		c.Corpus.File = ctx.String(fileFlag.Name)
	}
	if ctx.IsSet(bucketFlag.Name) {
		c.Corpus.Bucket = ctx.String(bucketFlag.Name)
	}
	if ctx.IsSet(keyFlag.Name) {
		c.Corpus.Key = ctx.String(keyFlag.Name)
	}
	if ctx.IsSet(regionFlag.Name) {
		c.Corpus.Region = ctx.String(regionFlag.Name)
	}
	if ctx.IsSet(endpointFlag.Name) {
		c.Corpus.Endpoint = ctx.String(endpointFlag.Name)
	}
	if ctx.IsSet(bucketsFlag.Name) {
		c.Table.InitialBuckets = ctx.Int(bucketsFlag.Name)
	}
	if ctx.IsSet(loadFactorFlag.Name) {
		c.Table.LoadFactor = ctx.Float64(loadFactorFlag.Name)
	}
	if ctx.IsSet(alwaysAllocateFlag.Name) {
		c.Table.AlwaysAllocate = ctx.Bool(alwaysAllocateFlag.Name)
	}
	if ctx.IsSet(cacheSizeFlag.Name) {
		c.Table.LookupCacheSize = ctx.Int(cacheSizeFlag.Name)
	}
}

func (c *Config) validate() error {
	if c.Table.LoadFactor < 0 {
		return fmt.Errorf("load-factor must not be negative, got %v", c.Table.LoadFactor)
	}
	if c.Table.InitialBuckets < 0 {
		return fmt.Errorf("initial-buckets must not be negative, got %d", c.Table.InitialBuckets)
	}
	if c.Corpus.Bucket != "" && c.Corpus.Key == "" {
		return fmt.Errorf("corpus bucket %q given without a key", c.Corpus.Bucket)
	}
	if c.Corpus.Bucket == "" && c.Corpus.File == "" {
		return fmt.Errorf("no corpus file or bucket given")
	}
	return nil
}

func (c *Config) options(logger *zap.Logger) *vhash.Options {
	policy := vhash.ReuseVersion
	if c.Table.AlwaysAllocate {
		policy = vhash.AlwaysAllocate
	}
	return &vhash.Options{
		InitialBuckets:  c.Table.InitialBuckets,
		LoadFactor:      c.Table.LoadFactor,
		NoOpPolicy:      policy,
		MaxVersion:      c.Table.MaxVersion,
		LookupCacheSize: c.Table.LookupCacheSize,
		Logger:          logger,
		Debug:           c.LogLevel == "debug",
	}
}

func (c *Config) logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log-level: %w", err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = level
	cfg.DisableStacktrace = true
	return cfg.Build()
}
