package core

import "strings"

// Environment represents the deployment environment of the help line service.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// IsProduction reports whether the environment corresponds to production.
func (e Environment) IsProduction() bool {
	return e == Production
}

// IsTesting reports whether the service runs under tests or CI.
func (e Environment) IsTesting() bool {
	return e == Testing
}

// ParseEnvironment normalises ENVIRONMENT values ("PROD", " staging ") into one
// of the known environments. Unknown values fall back to Development.
func ParseEnvironment(v string) Environment {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	case "testing", "test":
		return Testing
	default:
		return Development
	}
}
