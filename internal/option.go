package internal

import "github.com/avila-roffe/ansuz/internal/repository"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	repo   repository.Provider
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithRepository overrides the repository provider. Used by tests.
func WithRepository(repo repository.Provider) Option {
	return func(a *application) {
		a.repo = repo
	}
}
