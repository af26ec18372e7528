package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:     30000, // 30 seconds
		ValidateSSL: boolPtr(true),
		Credentials: &CredentialsConfig{
			EnvPrefix: DefaultCredentialEnvPrefix,
		},
		Verbose: boolPtr(false),
		NoColor: boolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Endpoint == "" &&
		c.APIToken == "" &&
		c.APITokenCredentialID == "" &&
		c.Timeout == defaults.Timeout &&
		c.RateLimit == 0 &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.Proxy == nil &&
		c.credentials() == *defaults.Credentials &&
		len(c.Environments) == 0 &&
		c.EnvFile == "" &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.GetNoColor() == defaults.GetNoColor()
}
