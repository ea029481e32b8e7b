// Package loadtest drives concurrent signups against a running activities
// service and checks the roster stays consistent afterwards.
package loadtest

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Default run parameters.
const (
	DefaultBaseURL     = "http://localhost:8000"
	DefaultActivity    = "Chess Club"
	DefaultStudents    = 50
	DefaultConcurrency = 8
	DefaultTimeout     = 10 * time.Second
	DefaultDomain      = "loadtest.mergington.edu"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid load test config")

// Config holds configuration for a load test run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Activity    string        // Activity to sign students up for
	Students    int           // Number of distinct students to sign up
	Concurrency int           // Number of in-flight requests
	Timeout     time.Duration // HTTP request timeout
	Domain      string        // Email domain for generated students
	Verbose     bool          // Log every request outcome
}

// NewConfig returns a Config with defaults.
func NewConfig() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Activity:    DefaultActivity,
		Students:    DefaultStudents,
		Concurrency: DefaultConcurrency,
		Timeout:     DefaultTimeout,
		Domain:      DefaultDomain,
	}
}

// Validate checks the run parameters.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.BaseURL) == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case strings.TrimSpace(c.Activity) == "":
		return fmt.Errorf("%w: activity is required", ErrInvalidConfig)
	case c.Students <= 0:
		return fmt.Errorf("%w: students must be positive", ErrInvalidConfig)
	case c.Concurrency <= 0:
		return fmt.Errorf("%w: concurrency must be positive", ErrInvalidConfig)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	InitialParticipants int
	Capacity            int
	Attempted           int
	Succeeded           int
	Full                int
	Failed              int
	Unregistered        int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
