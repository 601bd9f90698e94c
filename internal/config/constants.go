package config

import "time"

// Application constants
const (
	AppName   = "creditfile"
	EnvPrefix = "CREDITFILE"

	// Interest rate used to impute a missing amortization (monthly)
	DefaultInterestRate = 0.039881

	// File paths (relative to the working directory unless absolute)
	DefaultInputDir  = "reports"
	DefaultOutputDir = "output"
	DefaultLogsDir   = "logs"
	DefaultLogFile   = "logs/creditfile.log"

	// Pipeline
	DefaultWorkers     = 4
	DefaultWatchSettle = 500 * time.Millisecond

	// HTTP
	DefaultPort           = 8080
	DefaultMaxUploadSize  = 10 << 20
	DefaultRequestTimeout = 30 * time.Second

	// Log settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
