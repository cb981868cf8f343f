package config

// DefaultBaseURL is the public reqres service.
const DefaultBaseURL = "https://reqres.in"

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         DefaultBaseURL,
		Timeout:         30000, // 30 seconds
		Fixtures:        "testdata/UserDetails.json",
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    10,
		ValidateSSL:     BoolPtr(true),
		Output:          "console",
		Bail:            BoolPtr(false),
		NoColor:         BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	d := DefaultConfig()
	return c.BaseURL == d.BaseURL &&
		c.Timeout == d.Timeout &&
		c.Fixtures == d.Fixtures &&
		c.GetFollowRedirects() == d.GetFollowRedirects() &&
		c.MaxRedirects == d.MaxRedirects &&
		c.GetValidateSSL() == d.GetValidateSSL() &&
		c.Proxy == d.Proxy &&
		c.Rate == d.Rate &&
		c.History == d.History &&
		c.Output == d.Output &&
		c.GetBail() == d.GetBail() &&
		c.GetNoColor() == d.GetNoColor() &&
		len(c.Headers) == 0
}
