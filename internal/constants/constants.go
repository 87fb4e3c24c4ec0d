// Package constants provides centralized constant values used throughout RELAB.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Directory names and paths used by RELAB for organizing data.
const (
	// RelabHome is the hidden directory name where RELAB stores its data.
	// This directory is created in the user's home directory.
	RelabHome = ".relab"

	// LogsDir is the subdirectory name for log files, both under RelabHome
	// and inside every allocated run directory.
	LogsDir = "logs"

	// NotebooksDir is the run subdirectory where providers deposit notebooks.
	NotebooksDir = "notebooks"

	// ResultsDir is the run subdirectory where providers deposit result files.
	ResultsDir = "results"

	// CLILogFileName is the rotating log file written under RelabHome/logs.
	CLILogFileName = "relab.log"

	// InvocationFileName is the per-job audit record written into the run's
	// logs directory after the provider call completes.
	InvocationFileName = "invocation.json"
)

// Template and prompt defaults for the construct command.
const (
	// DefaultTemplateDir is where mode-variant prompt templates are read from.
	DefaultTemplateDir = "templates_open_replication"

	// DefaultPromptOutputDir is where resolved prompts are written.
	DefaultPromptOutputDir = "prompts/evaluation/open_question"
)

// Timeout configurations for various operations.
const (
	// DefaultProviderTimeout is the default maximum duration for a single
	// provider CLI invocation.
	DefaultProviderTimeout = 30 * time.Minute

	// DefaultDependencyTimeout is the default maximum duration the stage gate
	// waits for an upstream artifact before failing the downstream job.
	// The upstream replication run is itself bounded by provider timeouts,
	// so two hours covers several queued invocations ahead of it.
	DefaultDependencyTimeout = 2 * time.Hour

	// DependencyPollInterval is how often the stage gate re-checks for an
	// upstream artifact while waiting.
	DependencyPollInterval = 2 * time.Second
)

// Dispatcher defaults.
const (
	// DefaultConcurrency is the per-provider concurrency cap when a task does
	// not specify one.
	DefaultConcurrency = 3
)

// Output allocation limits.
const (
	// MaxAllocateAttempts bounds collision-suffix retries when two runs land
	// on the same (task, provider, timestamp) directory name.
	MaxAllocateAttempts = 10

	// RunTimestampFormat is the timestamp layout embedded in run directory names.
	RunTimestampFormat = "20060102_150405"
)

// Log rotation settings for the global CLI log file.
const (
	// LogMaxSizeMB is the maximum size of the log file before rotation.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated log files to retain.
	LogMaxBackups = 3

	// LogMaxAgeDays is the maximum age of rotated log files.
	LogMaxAgeDays = 30

	// LogCompress enables gzip compression of rotated log files.
	LogCompress = true
)
