package config

const (
	defaultStateDir                 = "~/.local/share/yearfix/state"
	defaultLogDir                   = "~/.local/share/yearfix/logs"
	defaultBatchSize                = 10
	defaultDelayBetweenBatches      = 2
	defaultPendingIntervalDays      = 30
	defaultPrereleaseRecheckDays    = 7
	defaultMaxRetries               = 3
	defaultRetryDelaySeconds        = 1
	defaultConcurrentAPICalls       = 4
	defaultConcurrentScriptCalls    = 2
	defaultAbsurdYearThreshold      = 1970
	defaultFutureYearTolerance      = 1
	defaultYearDifferenceThreshold  = 5
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		YearRetrieval: YearRetrieval{
			Processing: Processing{
				BatchSize:                       defaultBatchSize,
				DelayBetweenBatches:             defaultDelayBetweenBatches,
				AdaptiveDelay:                   false,
				PendingVerificationIntervalDays: defaultPendingIntervalDays,
				PrereleaseRecheckDays:           defaultPrereleaseRecheckDays,
				MaxRetries:                      defaultMaxRetries,
				RetryDelaySeconds:               defaultRetryDelaySeconds,
			},
		},
		RateLimits: RateLimits{
			ConcurrentAPICalls:    defaultConcurrentAPICalls,
			ConcurrentScriptCalls: defaultConcurrentScriptCalls,
		},
		Logic: Logic{
			AbsurdYearThreshold: defaultAbsurdYearThreshold,
			FutureYearTolerance: defaultFutureYearTolerance,
		},
		Fallback: Fallback{
			Enabled:                 true,
			YearDifferenceThreshold: defaultYearDifferenceThreshold,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
