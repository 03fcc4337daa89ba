package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidPeriod        ErrorCode = 108
	ErrCodeMissingParameter     ErrorCode = 109

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 204
	ErrCodeInvalidSeries         ErrorCode = 206

	// Indicator errors (300-399)
	ErrCodeIndicatorCalculation ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyNotFound     ErrorCode = 400
	ErrCodeStrategyRuntimeError ErrorCode = 402
	ErrCodeStrategyExists       ErrorCode = 405

	// Backtest errors (600-699)
	ErrCodeBacktestInitFailed    ErrorCode = 601
	ErrCodeBacktestConfigError   ErrorCode = 602
	ErrCodeBacktestNoStrategies  ErrorCode = 604
	ErrCodeBacktestNoDataPaths   ErrorCode = 606
	ErrCodeBacktestNoResultsDir  ErrorCode = 607
	ErrCodeSimulationNotReady    ErrorCode = 609
	ErrCodeBacktestWriteFailed   ErrorCode = 610
	ErrCodeBacktestJournalFailed ErrorCode = 611
	ErrCodeIncompatibleVersion   ErrorCode = 612

	// Market data errors (700-799)
	ErrCodeMarketDataParseFailed ErrorCode = 702

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800

	// Invariant violations (900-999). These signal programming errors in
	// strategy or engine code rather than expected runtime conditions.
	ErrCodeInvariantViolation ErrorCode = 900
	ErrCodeWindowOverrun      ErrorCode = 901
	ErrCodeInsufficientData   ErrorCode = 902
)
