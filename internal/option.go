package internal

// Option customizes application startup.
type Option func(*application)

type application struct {
	config *Config
}

// WithConfig supplies the loaded configuration. Run and RunMCP both
// require it.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}
