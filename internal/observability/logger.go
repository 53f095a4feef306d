// Package observability builds the logger, tracer and metrics shared by the service.
package observability

import "go.uber.org/zap"

// NewLogger returns a development console logger when env is "development"
// and a production JSON logger otherwise. It never returns nil.
func NewLogger(service, env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger.With(zap.String("service", service))
}
