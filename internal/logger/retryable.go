package logger

import "github.com/hashicorp/go-retryablehttp"

// RetryableHTTP routes go-retryablehttp's logs through this package.
type RetryableHTTP struct{}

var _ retryablehttp.LeveledLogger = RetryableHTTP{}

func (RetryableHTTP) Error(msg string, keysAndValues ...any) { Error(msg, keysAndValues...) }

func (RetryableHTTP) Info(msg string, keysAndValues ...any) { Info(msg, keysAndValues...) }

func (RetryableHTTP) Debug(msg string, keysAndValues ...any) { Debug(msg, keysAndValues...) }

func (RetryableHTTP) Warn(msg string, keysAndValues ...any) { Warn(msg, keysAndValues...) }
