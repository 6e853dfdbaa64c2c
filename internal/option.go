package internal

// Option configures the application before Run starts its services.
type Option func(*application)

type application struct {
	config *Config
}

// WithConfig supplies the validated application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}
