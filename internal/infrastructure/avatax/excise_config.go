package avatax

import (
	"errors"
)

// ExciseConfig holds configuration for the Avalara Excise API integration
type ExciseConfig struct {
	// Username is the Avalara account username
	Username string
	// Password is the Avalara account password or license key
	Password string
	// CompanyID is the Avalara company identifier sent in the x-company-id header
	CompanyID string
	// Sandbox selects the sandbox API environment
	Sandbox bool
	// Autocommit commits order transactions right after creation
	Autocommit bool
	// FreightProductCode is the product code used for the shipping line
	FreightProductCode string
	// APIBaseURL is the base URL for the excise API (production or sandbox)
	APIBaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// ExciseProductionAPIURL is the production API endpoint
	ExciseProductionAPIURL = "https://excise.avalara.com/api/v1/"
	// ExciseSandboxAPIURL is the sandbox API endpoint
	ExciseSandboxAPIURL = "https://excisesbx.avalara.com/api/v1/"

	// defaultFreightProductCode is the Avalara product code for freight lines
	defaultFreightProductCode = "TAXFREIGHT"
	// defaultCompanyID is the Avalara default company scope
	defaultCompanyID = "DEFAULT"
)

// Errors for excise configuration
var (
	ErrExciseConfigMissingUsername = errors.New("avatax: username is required")
	ErrExciseConfigMissingPassword = errors.New("avatax: password is required")
)

// NewExciseConfig creates a new production configuration with defaults
func NewExciseConfig(username, password, companyID string) *ExciseConfig {
	return &ExciseConfig{
		Username:           username,
		Password:           password,
		CompanyID:          companyID,
		Sandbox:            false,
		FreightProductCode: defaultFreightProductCode,
		APIBaseURL:         ExciseProductionAPIURL,
		TimeoutSeconds:     30,
	}
}

// NewSandboxExciseConfig creates a new configuration for the sandbox environment
func NewSandboxExciseConfig(username, password, companyID string) *ExciseConfig {
	cfg := NewExciseConfig(username, password, companyID)
	cfg.Sandbox = true
	cfg.APIBaseURL = ExciseSandboxAPIURL
	return cfg
}

// Validate validates the configuration and fills in defaults
func (c *ExciseConfig) Validate() error {
	if c.Username == "" {
		return ErrExciseConfigMissingUsername
	}
	if c.Password == "" {
		return ErrExciseConfigMissingPassword
	}
	if c.CompanyID == "" {
		c.CompanyID = defaultCompanyID
	}
	if c.FreightProductCode == "" {
		c.FreightProductCode = defaultFreightProductCode
	}
	if c.APIBaseURL == "" {
		if c.Sandbox {
			c.APIBaseURL = ExciseSandboxAPIURL
		} else {
			c.APIBaseURL = ExciseProductionAPIURL
		}
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
