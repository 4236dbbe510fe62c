package logging

import (
	"log/slog"
)

// WithTable returns a logger carrying the table name.
//
//	log := logging.WithTable("orders")
//	log.Debug("select", "where", "orders.id=1")
func WithTable(table string) *slog.Logger {
	return GetLogger().With("table", table)
}

// WithComponent returns a logger carrying a subsystem name.
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithError returns a logger carrying err's message.
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
