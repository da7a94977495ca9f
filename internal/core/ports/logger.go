// Package ports defines the core interfaces for the application.
package ports

// Logger defines the interface for logging.
//
//go:generate mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	// Info logs a progress message.
	Info(msg string)
	// Warn logs a non fatal diagnostic, such as a warning raised while configuring.
	Warn(msg string)
	// Error logs an error together with its cause chain.
	Error(err error)
}
