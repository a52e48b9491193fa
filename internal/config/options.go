package config

const (
	defaultLogFile           = "e-shelf.log"
	defaultLogLevel          = "info"
	defaultLogFileMaxSize    = 20
	defaultLogFileMaxBackups = 3
	defaultLogFileMaxAge     = 28
	defaultLogCompress       = false
	defaultPort              = 8080
	defaultHost              = "127.0.0.1"
	defaultData              = "/var/opt/e-shelf"
	defaultDSN               = defaultData + "/e-shelf.db"
	defaultTheme             = "dark"
	defaultSupportedTypes    = "pdf"
	defaultReaderDebounceMs  = 150
	defaultReaderMargin      = 0.2
	defaultReaderZoom        = 100
	defaultPersistWorkers    = 2
	defaultPersistTimeoutMs  = 5000

	// EnvPrefix is prepended to every option key when read from the environment,
	// e.g. E_SHELF_PORT or E_SHELF_READER_DEBOUNCE_MS.
	EnvPrefix = "E_SHELF"
)

// defaultReaderThresholds are the visible-area fractions at which a page's
// visibility is reported as changed.
var defaultReaderThresholds = []float64{0, 0.25, 0.5, 0.75, 1}

// Why use mapstructure instead of json, if use json as field tags, it can't recgnize the field, since the viper use mapstructure.
// see: https://pkg.go.dev/github.com/mitchellh/mapstructure#hdr-Field_Tags
type Options struct {
	// LogFile is the file to write logs to
	LogFile string `mapstructure:"log_file"`
	// LogLevel is the level of logging to show
	LogLevel string `mapstructure:"log_level"`
	// LogFilemaxSize is the maximum size of the log file before it is rotated
	LogFileMaxSize int `mapstructure:"log_file_max_size"`
	// LogFileMaxBackups is the maximum number of log files to keep
	LogFileMaxBackups int `mapstructure:"log_file_max_backups"`
	// LogFileMaxAge is the maximum number of days to keep a log file
	LogFileMaxAge int `mapstructure:"log_file_max_age"`
	// LogCompress is whether or not to compress the log files
	LogCompress bool `mapstructure:"log_compress"`
	// DSN is the path of the sqlite database
	DSN string `mapstructure:"dsn_uri"`
	// Port is the port the local API listens on
	Port int `mapstructure:"port"`
	// Host is the host the local API listens on
	Host string `mapstructure:"host"`
	// Data is the directory imported books and the database live in
	Data string `mapstructure:"data"`
	// Theme is the initial UI theme written on first start
	Theme string `mapstructure:"theme"`
	// SupportedTypes is the list of importable file extensions
	SupportedTypes []string `mapstructure:"supported_types"`

	// ReaderDebounceMs is how long a page must stay centered before it is committed
	ReaderDebounceMs int `mapstructure:"reader_debounce_ms"`
	// ReaderViewportMargin shrinks the viewport top and bottom by this fraction
	ReaderViewportMargin float64 `mapstructure:"reader_viewport_margin"`
	ReaderThresholds     []float64 `mapstructure:"reader_thresholds"`
	ReaderDefaultZoom    int       `mapstructure:"reader_default_zoom"`

	// PersistWorkers is the number of goroutines writing reading positions
	PersistWorkers   int `mapstructure:"persist_workers"`
	PersistTimeoutMs int `mapstructure:"persist_timeout_ms"`
}

func GetDefaultOptions() *Options {
	thresholds := make([]float64, len(defaultReaderThresholds))
	copy(thresholds, defaultReaderThresholds)

	Opts = &Options{
		LogFile:              defaultLogFile,
		LogLevel:             defaultLogLevel,
		LogFileMaxSize:       defaultLogFileMaxSize,
		LogFileMaxBackups:    defaultLogFileMaxBackups,
		LogFileMaxAge:        defaultLogFileMaxAge,
		LogCompress:          defaultLogCompress,
		DSN:                  defaultDSN,
		Port:                 defaultPort,
		Host:                 defaultHost,
		Data:                 defaultData,
		Theme:                defaultTheme,
		SupportedTypes:       []string{defaultSupportedTypes},
		ReaderDebounceMs:     defaultReaderDebounceMs,
		ReaderViewportMargin: defaultReaderMargin,
		ReaderThresholds:     thresholds,
		ReaderDefaultZoom:    defaultReaderZoom,
		PersistWorkers:       defaultPersistWorkers,
		PersistTimeoutMs:     defaultPersistTimeoutMs,
	}
	return Opts
}

// defaultsMap mirrors GetDefaultOptions keyed by mapstructure name, so viper
// knows every key and can resolve it from the environment.
func defaultsMap() map[string]interface{} {
	return map[string]interface{}{
		"log_file":               defaultLogFile,
		"log_level":              defaultLogLevel,
		"log_file_max_size":      defaultLogFileMaxSize,
		"log_file_max_backups":   defaultLogFileMaxBackups,
		"log_file_max_age":       defaultLogFileMaxAge,
		"log_compress":           defaultLogCompress,
		"dsn_uri":                "",
		"port":                   defaultPort,
		"host":                   defaultHost,
		"data":                   defaultData,
		"theme":                  defaultTheme,
		"supported_types":        []string{defaultSupportedTypes},
		"reader_debounce_ms":     defaultReaderDebounceMs,
		"reader_viewport_margin": defaultReaderMargin,
		"reader_thresholds":      defaultReaderThresholds,
		"reader_default_zoom":    defaultReaderZoom,
		"persist_workers":        defaultPersistWorkers,
		"persist_timeout_ms":     defaultPersistTimeoutMs,
	}
}
