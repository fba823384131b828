// Package config loads the gateway's INI configuration file with viper,
// the way the teacher repo's sibling project (dmr-nexus) loads its own
// mapstructure-tagged configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the fully parsed gateway configuration.
type Config struct {
	Identity   Identity             `mapstructure:"identity"`
	Network    Network              `mapstructure:"network"`
	DGIds      map[string]DGIdEntry `mapstructure:"dgid"`
	APRS       APRS                 `mapstructure:"aprs"`
	Daemon     Daemon               `mapstructure:"daemon"`
	Log        Log                  `mapstructure:"log"`
	Database   Database             `mapstructure:"database"`
	Reflectors Reflectors           `mapstructure:"reflectors"`
}

// Identity holds the repeater's operator-facing identity fields.
type Identity struct {
	Callsign    string  `mapstructure:"callsign"`
	Suffix      string  `mapstructure:"suffix"`
	StationID   int     `mapstructure:"station_id"`
	RXFrequency uint32  `mapstructure:"rx_frequency"`
	TXFrequency uint32  `mapstructure:"tx_frequency"`
	Latitude    float64 `mapstructure:"latitude"`
	Longitude   float64 `mapstructure:"longitude"`
	Height      int     `mapstructure:"height"`
}

// Network holds the local bind and repeater endpoints.
type Network struct {
	LocalAddress    string `mapstructure:"local_address"`
	LocalPort       int    `mapstructure:"local_port"`
	RepeaterAddress string `mapstructure:"repeater_address"`
	RepeaterPort    int    `mapstructure:"repeater_port"`
	YSFHostsPath    string `mapstructure:"ysf_hosts_path"`
	YSFHostsURL     string `mapstructure:"ysf_hosts_url"`
}

// DGIdEntry is one row of the DG-ID list, §6 of the specification. The
// map key in Config.DGIds is the DG-ID itself (an INI section like
// "[dgid.10]"); Destinations, when the entry is IMRS-typed, is a
// comma-separated "remote_dgid:host:port" list — the same flat-string
// convention the teacher's original INI parser used for byte-array
// fields, chosen because viper's ini codec has no native nested-struct
// slice.
type DGIdEntry struct {
	Type           string `mapstructure:"type"`
	Name           string `mapstructure:"name"`
	LocalPort      int    `mapstructure:"local_port"`
	Static         bool   `mapstructure:"static"`
	RFHangSeconds  int    `mapstructure:"rf_hang_seconds"`
	NetHangSeconds int    `mapstructure:"net_hang_seconds"`
	Debug          bool   `mapstructure:"debug"`
	Address        string `mapstructure:"address"`
	Port           int    `mapstructure:"port"`
	Options        string `mapstructure:"options"`
	Destinations   string `mapstructure:"destinations"`
}

// APRS holds the APRS/GPSD reporting section.
type APRS struct {
	Enabled     bool   `mapstructure:"enabled"`
	Address     string `mapstructure:"address"`
	Port        int    `mapstructure:"port"`
	Suffix      string `mapstructure:"suffix"`
	Description string `mapstructure:"description"`
	GPSDEnabled bool   `mapstructure:"gpsd_enabled"`
	GPSDAddress string `mapstructure:"gpsd_address"`
	GPSDPort    int    `mapstructure:"gpsd_port"`
}

// Daemon holds process-management flags that the core gateway treats as
// an external collaborator's concern.
type Daemon struct {
	Enabled bool   `mapstructure:"enabled"`
	User    string `mapstructure:"user"`
}

// Log holds the logging section.
type Log struct {
	FilePath     string `mapstructure:"file_path"`
	FileRoot     string `mapstructure:"file_root"`
	FileLevel    string `mapstructure:"file_level"`
	DisplayLevel string `mapstructure:"display_level"`
}

// Database holds the optional call-history audit log section.
type Database struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Reflectors holds the YSF-reflector hosts-file loader section.
type Reflectors struct {
	RefreshHours int `mapstructure:"refresh_hours"`
}

// Load reads and parses path, applying defaults for anything the file
// omits.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if strings.TrimSpace(cfg.Identity.Callsign) == "" {
		return nil, fmt.Errorf("config: identity.callsign is required")
	}
	if cfg.Network.RepeaterPort == 0 {
		return nil, fmt.Errorf("config: network.repeater_port is required")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("network.local_port", 42000)
	v.SetDefault("log.display_level", "info")
	v.SetDefault("log.file_level", "info")
	v.SetDefault("database.path", "dgidgateway_history.db")
	v.SetDefault("reflectors.refresh_hours", 24)
}

// DefaultPath returns the OS-appropriate default config path per §6:
// "./dgidgateway.ini" on Windows-like hosts, "/etc/DGIdGateway.ini"
// elsewhere.
func DefaultPath(goos string) string {
	if goos == "windows" {
		return "./dgidgateway.ini"
	}
	return "/etc/DGIdGateway.ini"
}
