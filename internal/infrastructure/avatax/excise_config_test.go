package avatax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExciseConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *ExciseConfig
		wantErr error
	}{
		{
			name: "valid config",
			config: &ExciseConfig{
				Username: "avalara_user",
				Password: "avalara_pass",
			},
			wantErr: nil,
		},
		{
			name: "missing username",
			config: &ExciseConfig{
				Password: "avalara_pass",
			},
			wantErr: ErrExciseConfigMissingUsername,
		},
		{
			name: "missing password",
			config: &ExciseConfig{
				Username: "avalara_user",
			},
			wantErr: ErrExciseConfigMissingPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				// Check defaults are set
				assert.Equal(t, defaultCompanyID, tt.config.CompanyID)
				assert.Equal(t, defaultFreightProductCode, tt.config.FreightProductCode)
				assert.NotEmpty(t, tt.config.APIBaseURL)
				assert.True(t, tt.config.TimeoutSeconds > 0)
			}
		})
	}
}

func TestExciseConfig_Validate_SandboxURL(t *testing.T) {
	config := &ExciseConfig{
		Username: "user",
		Password: "pass",
		Sandbox:  true,
	}
	assert.NoError(t, config.Validate())
	assert.Equal(t, ExciseSandboxAPIURL, config.APIBaseURL)
}

func TestNewExciseConfig(t *testing.T) {
	config := NewExciseConfig("user", "pass", "COMPANY")
	assert.Equal(t, "user", config.Username)
	assert.Equal(t, "pass", config.Password)
	assert.Equal(t, "COMPANY", config.CompanyID)
	assert.Equal(t, ExciseProductionAPIURL, config.APIBaseURL)
	assert.False(t, config.Sandbox)
}

func TestNewSandboxExciseConfig(t *testing.T) {
	config := NewSandboxExciseConfig("user", "pass", "COMPANY")
	assert.Equal(t, ExciseSandboxAPIURL, config.APIBaseURL)
	assert.True(t, config.Sandbox)
}
