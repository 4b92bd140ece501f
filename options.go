package seqlog

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/seqlog/seqlog/internal/segment"
)

// defaultBranchFactor matches BRANCH_FACTOR in the original C engine's mqlog.c.
const defaultBranchFactor = 7

// Option configures a Log at Open time.
type Option func(*resolvedOptions)

// resolvedOptions holds every extension point after defaults are applied.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	logger       *zap.Logger
	registerer   prometheus.Registerer
	branchFactor int
	readPolicy   segment.ReadPolicy
}

func defaultOptions() resolvedOptions {
	return resolvedOptions{
		logger:       zap.NewNop(),
		registerer:   nil,
		branchFactor: defaultBranchFactor,
		readPolicy:   segment.ReadDirty,
	}
}

// WithLogger sets the structured logger a Log and its segments report
// through. If not set, logging is silent.
func WithLogger(logger *zap.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithMetricsRegisterer registers the Log's Prometheus collectors against
// registerer instead of a private, unscraped registry.
func WithMetricsRegisterer(registerer prometheus.Registerer) Option {
	return func(o *resolvedOptions) { o.registerer = registerer }
}

// WithBranchFactor overrides the index B+ tree's branch factor. It takes
// effect on every Open: the index is rebuilt from segment files on disk,
// not from a stored tree structure, so this is safe to change between runs.
func WithBranchFactor(branchFactor int) Option {
	return func(o *resolvedOptions) { o.branchFactor = branchFactor }
}

// WithReadPolicy selects whether Read may observe frames that have been
// published but not yet synced to disk.
func WithReadPolicy(policy segment.ReadPolicy) Option {
	return func(o *resolvedOptions) { o.readPolicy = policy }
}
