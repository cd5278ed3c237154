package service

import (
	"time"

	"github.com/topcoder-platform/work-manager-sub000/internal/engine"
	"github.com/topcoder-platform/work-manager-sub000/pkg/logger"
	"github.com/topcoder-platform/work-manager-sub000/pkg/metrics"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets a custom metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithResourceAPI sets the resource API base URL.
func WithResourceAPI(url string) Option {
	return func(s *Service) {
		s.resourceAPIURL = url
	}
}

// WithCatalogAPI sets the catalog API base URL.
func WithCatalogAPI(url string) Option {
	return func(s *Service) {
		s.catalogAPIURL = url
	}
}

// WithAuthToken sets the bearer token for backend calls.
func WithAuthToken(token string) Option {
	return func(s *Service) {
		s.authToken = token
	}
}

// WithSettleWindow overrides the resync suppression window applied to
// new sessions.
func WithSettleWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.settleWindow = d
		}
	}
}

// WithSubmissionCount sets the assumed submission count used by cost
// estimation.
func WithSubmissionCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.submissionCount = n
		}
	}
}

// WithCollaborators injects the engine collaborators directly; used by
// tests to bypass the HTTP clients. Any nil collaborator falls back to
// the HTTP client built at Start.
func WithCollaborators(
	resources engine.ResourceService,
	roles engine.RoleDirectory,
	templates engine.TemplateStore,
	workflows engine.WorkflowDirectory,
	lister AssignmentLister,
) Option {
	return func(s *Service) {
		s.resources = resources
		s.roles = roles
		s.templates = templates
		s.workflows = workflows
		s.lister = lister
	}
}
