package billing

import (
	"log/slog"
	"strings"
)

// ServiceOption configures the billing service.
type ServiceOption func(*service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBaseURL sets the public application URL used for checkout redirects.
func WithBaseURL(u string) ServiceOption {
	return func(s *service) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}
