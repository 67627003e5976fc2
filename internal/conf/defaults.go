// defaults.go default values for viper settings
package conf

import "github.com/spf13/viper"

// setDefaultConfig sets the default values for all configuration parameters.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main
	viper.SetDefault("main.name", "EBirdEngine")
	viper.SetDefault("main.datadir", "data")
	viper.SetDefault("main.logdir", "logs")

	// Detection store
	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "detections.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "ebird")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "ebird")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	// Audio clip export
	viper.SetDefault("audio.export.enabled", true)
	viper.SetDefault("audio.export.path", "clips/")

	// Regional confidence engine
	viper.SetDefault("ebirdfilter.enabled", false)
	viper.SetDefault("ebirdfilter.debug", false)
	viper.SetDefault("ebirdfilter.resolution", 5)
	viper.SetDefault("ebirdfilter.mode", "warn")
	viper.SetDefault("ebirdfilter.strictness", "vagrant")
	viper.SetDefault("ebirdfilter.regionpack", "")
	viper.SetDefault("ebirdfilter.unknownspecies", "allow")
	viper.SetDefault("ebirdfilter.neighborsearch.enabled", true)
	viper.SetDefault("ebirdfilter.neighborsearch.maxrings", 2)
	viper.SetDefault("ebirdfilter.neighborsearch.decayperring", 0.15)
	viper.SetDefault("ebirdfilter.quality.base", 0.7)
	viper.SetDefault("ebirdfilter.quality.range", 0.3)
	viper.SetDefault("ebirdfilter.seasonal.enabled", true)
	viper.SetDefault("ebirdfilter.seasonal.peakthreshold", 0.1)
	viper.SetDefault("ebirdfilter.seasonal.peakboost", 1.1)
	viper.SetDefault("ebirdfilter.seasonal.absencepenalty", 0.7)
	viper.SetDefault("ebirdfilter.seasonal.offseasonpenalty", 1.0)
}
