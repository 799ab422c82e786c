package lang

import (
	"bytes"
	"context"
	"encoding/gob"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

var (
	// globalCache stores parsed trees keyed by the combined hash of source
	// and options. Trees are immutable, so entries are shared freely.
	globalCache sync.Map

	// cacheSize counts entries in globalCache.
	cacheSize atomic.Int64
)

// state holds the outcome of parsing one source under one set of options.
// Each state is parsed exactly once.
type state struct {
	once sync.Once
	expr Expr
	err  error
}

// hashOptions encodes options using gob and hashes with xxh3.
// Returns a hash that uniquely identifies the options configuration.
func hashOptions(opts optionsKey) uint64 {
	var buf bytes.Buffer

	enc := gob.NewEncoder(&buf)

	// Encode relevant options fields
	_ = enc.Encode(opts.maxDepth)
	_ = enc.Encode(opts.foldCase)

	return xxh3.Hash(buf.Bytes())
}

// cacheKey combines the source hash with the options hash.
func cacheKey(src string, opts optionsKey) (key string, srcHash, optsHash uint64) {
	srcHash = xxh3.HashString(src)
	optsHash = hashOptions(opts)

	return strconv.FormatUint(srcHash^optsHash, 36), srcHash, optsHash
}

// ParseReader reads all of r and parses it like [Parse].
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (Expr, error) {
	// Wrap reader with async read-ahead for concurrent I/O.
	// This allows data to be pre-fetched while we process previous chunks.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	cfg := makeConfig(opts...)

	cfg.logger.TraceContext(
		ctx,
		"read input",
		slog.Int("source_bytes", len(data)),
		slog.Bool("read_ahead", true),
	)

	return Parse(ctx, string(data), opts...)
}

// parseCached parses src through the process-wide cache.
func parseCached(ctx context.Context, src string, cfg config) (Expr, error) {
	key, srcHash, optsHash := cacheKey(src, cfg.opts)

	value, cacheHit := globalCache.LoadOrStore(key, new(state))
	if !cacheHit {
		cacheSize.Add(1)
	}

	entry, _ := value.(*state)

	cfg.logger.TraceContext(
		ctx,
		"cache lookup",
		slog.String("source_hash", strconv.FormatUint(srcHash, 16)),
		slog.String("opts_hash", strconv.FormatUint(optsHash, 16)),
		slog.Bool("cache_hit", cacheHit),
	)

	entry.once.Do(func() {
		entry.expr, entry.err = parse(ctx, src, cfg)
	})

	return entry.expr, entry.err
}

// ClearCache removes all cached trees.
// This is primarily useful for testing or when memory needs to be reclaimed.
func ClearCache() {
	globalCache.Range(func(key, _ any) bool {
		if _, ok := globalCache.LoadAndDelete(key); ok {
			cacheSize.Add(-1)
		}

		return true
	})
}

// CacheLen returns the number of cached sources.
func CacheLen() int {
	return int(cacheSize.Load())
}
