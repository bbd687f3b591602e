package config

// Vivafile represents the structure of the viva.yaml configuration file.
type Vivafile struct {
	DefaultChannels []string `yaml:"default_channels"`
	Concurrency     int      `yaml:"concurrency,omitempty"`
	ChannelAlias    string   `yaml:"channel_alias,omitempty"`
	Platform        string   `yaml:"platform,omitempty"`
	RepodataTTL     string   `yaml:"repodata_ttl,omitempty"`
}
