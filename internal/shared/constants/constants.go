package constants

import "io/fs"

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// DefaultBatchValidationSize is how many controls are grouped per batch
	// validation pass.
	DefaultBatchValidationSize = 10
	// DefaultMaxConcurrentBatches caps how many validation batches run at once.
	DefaultMaxConcurrentBatches = 3
	// DefaultRequirementsCacheSize bounds the control-requirements LRU cache.
	DefaultRequirementsCacheSize = 1000
	// DefaultCostPerMillionTokens is the USD rate applied by the estimator.
	DefaultCostPerMillionTokens = 5.0
	// MaxEvidenceBytes caps how much extracted evidence text a single unit may carry.
	MaxEvidenceBytes = 1 << 20
)
