package vhash

import (
	"encoding/json"
	"reflect"

	"go.uber.org/zap"
)

const (
	// DefaultInitialBuckets is the bucket count of a new table.
	DefaultInitialBuckets = 11
	// DefaultLoadFactor is the entries-per-bucket ratio above which a table
	// rehashes.
	DefaultLoadFactor = 0.75
)

// NoOpPolicy decides what a mutation that changes nothing returns.
type NoOpPolicy int

const (
	// ReuseVersion returns the receiver unchanged from a mutation that
	// changes nothing, so no version number is consumed.
	ReuseVersion NoOpPolicy = iota
	// AlwaysAllocate gives every mutation a new version and a new handle,
	// even when nothing changed.
	AlwaysAllocate
)

func (p NoOpPolicy) String() string {
	switch p {
	case ReuseVersion:
		return "reuse-version"
	case AlwaysAllocate:
		return "always-allocate"
	}
	return "unknown"
}

// Options configures a new lineage. The zero value, or a nil *Options,
// means defaults.
type Options struct {
	// InitialBuckets is the starting bucket count. 0 means
	// DefaultInitialBuckets.
	InitialBuckets int

	// LoadFactor triggers a rehash to 2n+1 buckets when entries/buckets
	// exceeds it. 0 means DefaultLoadFactor.
	LoadFactor float64

	// NoOpPolicy applies to every handle of the lineage.
	NoOpPolicy NoOpPolicy

	// MaxVersion is the highest version number the lineage may allocate.
	// 0 means DefaultMaxVersion.
	MaxVersion uint32

	// LookupCacheSize, when positive, caches that many (version, key)
	// lookups in an ARC cache shared by every handle of the lineage.
	LookupCacheSize int

	// Logger receives Dump output and rehash tracing. Defaults to a no-op
	// logger.
	Logger *zap.Logger

	// Equal decides whether a put would store a value equal to the one
	// already visible, making it a no-op. Defaults to reflect.DeepEqual.
	Equal func(a, b interface{}) bool

	// Marshal encodes keys and values for Digest. Defaults to JSON.
	Marshal func(interface{}) ([]byte, error)

	// Debug enables rehash tracing at debug level.
	Debug bool
}

func (o *Options) withDefaults() Options {
	var res Options
	if o != nil {
		res = *o
	}
	if res.InitialBuckets <= 0 {
		res.InitialBuckets = DefaultInitialBuckets
	}
	if res.LoadFactor <= 0 {
		res.LoadFactor = DefaultLoadFactor
	}
	if res.MaxVersion == 0 {
		res.MaxVersion = DefaultMaxVersion
	}
	if res.Logger == nil {
		res.Logger = zap.NewNop()
	}
	if res.Equal == nil {
		res.Equal = reflect.DeepEqual
	}
	if res.Marshal == nil {
		res.Marshal = defaultMarshal
	}
	return res
}

var defaultMarshal = json.Marshal
