package domain

// RiskEngine computes a complete assessment for one profile. Implementations
// must be safe for concurrent use.
type RiskEngine interface {
	Compute(profile PatientProfile) (*AssessmentResult, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetHistoryConfig() *HistoryConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
