package registry

import "time"

// Config contains configuration for the registry API client.
type Config struct {
	// BaseURL is the registry API root, e.g. https://registry.example.com/api
	BaseURL string

	// Token is sent as a bearer token when set.
	Token string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the number of additional attempts after a 5xx or 429 response.
	MaxRetries int

	// RetryBackoff is multiplied by the attempt number between retries.
	RetryBackoff time.Duration

	// RequestsPerSecond limits outgoing calls. Zero disables limiting.
	RequestsPerSecond float64

	// Burst is the limiter bucket size.
	Burst int
}

// DefaultConfig returns the default registry client configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:           10 * time.Second,
		MaxRetries:        3,
		RetryBackoff:      time.Second,
		RequestsPerSecond: 10,
		Burst:             5,
	}
}
