// config.go: settings struct and functions to load and save the engine configuration.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// MainSettings contains top-level application settings.
type MainSettings struct {
	Name    string // station name, used in logs and API responses
	DataDir string // base directory for region packs and runtime data
	LogDir  string // directory for per-service log files
}

// SQLiteSettings contains settings for the SQLite detection store.
type SQLiteSettings struct {
	Enabled bool   // true to use SQLite for detection storage
	Path    string // path to the SQLite database file
}

// MySQLSettings contains settings for the MySQL detection store.
type MySQLSettings struct {
	Enabled  bool   // true to use MySQL for detection storage
	Username string // MySQL username
	Password string // MySQL password
	Database string // MySQL database name
	Host     string // MySQL host
	Port     string // MySQL port
}

// OutputSettings groups the detection store backends.
type OutputSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// AudioSettings contains the audio clip export settings the engine reads.
// Clip files live under Export.Path; the cleanup operator deletes them from there.
type AudioSettings struct {
	Export struct {
		Enabled bool   // true when audio clips are exported alongside detections
		Path    string // path to audio clip export directory
	}
}

// NeighborSearchSettings controls the ring expansion of the confidence resolver.
type NeighborSearchSettings struct {
	Enabled      bool    // true to search neighboring cells when the exact cell has no data
	MaxRings     int     // maximum ring distance to search, 0 means exact cell only
	DecayPerRing float64 // confidence boost decay per ring of distance
}

// QualitySettings controls the data-quality multiplier of the resolver.
type QualitySettings struct {
	Base  float64 // multiplier floor applied at quality score 0
	Range float64 // multiplier span, full multiplier = base + range at score 1
}

// SeasonalSettings controls the temporal multiplier of the resolver.
type SeasonalSettings struct {
	Enabled          bool    // true to apply monthly frequency adjustment
	PeakThreshold    float64 // monthly frequency above which the peak boost applies
	PeakBoost        float64 // multiplier for in-season detections, >= 1.0
	AbsencePenalty   float64 // multiplier for months with zero recorded frequency, < 1.0
	OffSeasonPenalty float64 // multiplier for low but non-zero months, 1.0 disables
}

// EBirdFilterSettings contains the regional confidence engine configuration.
type EBirdFilterSettings struct {
	Enabled        bool   // master switch for the regional confidence engine
	Debug          bool   // true to enable debug logging
	Resolution     int    // H3 grid resolution, must match the installed pack
	Mode           string // detection filtering mode: off, warn or filter
	Strictness     string // minimum tier required: common, uncommon, rare or vagrant
	RegionPack     string // name of the active region pack, e.g. na-east-coast-2025.08
	UnknownSpecies string // policy for species absent from the pack: allow or block
	NeighborSearch NeighborSearchSettings
	Quality        QualitySettings
	Seasonal       SeasonalSettings
}

// DetectionMode reports the validated detection mode. Call only after
// ValidateSettings has accepted the settings.
func (s *EBirdFilterSettings) DetectionMode() DetectionMode {
	return DetectionMode(s.Mode)
}

// UnknownSpeciesPolicy reports the validated unknown-species policy.
func (s *EBirdFilterSettings) UnknownSpeciesPolicy() UnknownSpeciesPolicy {
	return UnknownSpeciesPolicy(s.UnknownSpecies)
}

// Settings is the root configuration entity.
type Settings struct {
	Debug bool // true to enable debug mode

	Main        MainSettings
	Output      OutputSettings
	Audio       AudioSettings
	EBirdFilter EBirdFilterSettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration into a validated Settings struct.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return createDefaultConfig(configPaths)
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes a config.yaml with the default settings into
// the first config path and points viper at it. Running twice is harmless.
func createDefaultConfig(configPaths []string) error {
	configPath := filepath.Join(configPaths[0], "config.yaml")

	defaults := &Settings{}
	if err := viper.Unmarshal(defaults); err != nil {
		return fmt.Errorf("error unmarshaling default config: %w", err)
	}

	yamlConfig, err := yaml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("error marshaling default config: %w", err)
	}

	if err := os.WriteFile(configPath, yamlConfig, 0o600); err != nil {
		return fmt.Errorf("error writing default config file %s: %w", configPath, err)
	}

	fmt.Println("Created default config file at:", configPath)
	viper.SetConfigFile(configPath)
	return viper.ReadInConfig()
}

// Setting returns the current settings instance, loading it on first use.
func Setting() *Settings {
	settingsMutex.RLock()
	if settingsInstance != nil {
		defer settingsMutex.RUnlock()
		return settingsInstance
	}
	settingsMutex.RUnlock()

	settings, err := Load()
	if err != nil {
		return nil
	}
	return settings
}

// GetDefaultConfigPaths returns the list of directories searched for config.yaml.
func GetDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "ebird-engine"))
	}
	paths = append(paths, "/etc/ebird-engine")

	return paths, nil
}

// PackDir returns the directory region packs are installed into:
// <datadir>/packs. Pack names map to files inside it.
func PackDir(settings *Settings) string {
	return filepath.Join(GetBasePath(settings.Main.DataDir), "packs")
}

// GetBasePath expands and normalizes a directory path, creating it if missing.
func GetBasePath(path string) string {
	expandedPath := os.ExpandEnv(path)
	basePath := filepath.Clean(expandedPath)

	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		if err := os.MkdirAll(basePath, 0o750); err != nil {
			fmt.Printf("failed to create directory '%s': %v\n", basePath, err)
		}
	}

	return basePath
}
