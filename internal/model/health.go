package model

// BackendStatus is the upstream classification reported by the health endpoint.
type BackendStatus string

const (
	BackendHealthy     BackendStatus = "healthy"
	BackendUnhealthy   BackendStatus = "unhealthy"
	BackendUnreachable BackendStatus = "unreachable"
)

// HealthReport is the fixed-shape payload served on /health.
type HealthReport struct {
	Status  string        `json:"status"`
	Proxy   string        `json:"proxy"`
	Backend BackendStatus `json:"backend"`
	Message string        `json:"message"`
}

// ServiceInfo is the descriptor served on the root endpoint.
type ServiceInfo struct {
	Service     string            `json:"service"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
	Backend     string            `json:"backend"`
}

// ErrorResponse is the JSON payload written for both error kinds.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
