package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var Opts *Options

const homeDataDir = ".e-shelf"

// GetConfig builds the options from defaults and E_SHELF_* environment
// variables, then makes sure the data directory exists.
func GetConfig() (*Options, error) {
	GetDefaultOptions()

	v := newViper()
	if err := v.Unmarshal(Opts); err != nil {
		return nil, errors.Wrap(err, "unable to decode options")
	}
	return finalize()
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaultsMap() {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finalize() (*Options, error) {
	dataDir, err := checkDataDir(Opts.Data)
	if err != nil {
		fmt.Println("Error checking data directory: ", err)
		return nil, err
	}

	Opts.Data = dataDir
	if Opts.DSN == "" || Opts.DSN == defaultDSN {
		Opts.DSN = filepath.Join(Opts.Data, "e-shelf.db")
	}
	if Opts.PersistWorkers < 1 {
		Opts.PersistWorkers = 1
	}
	if Opts.ReaderDebounceMs < 0 {
		Opts.ReaderDebounceMs = 0
	}
	if len(Opts.ReaderThresholds) == 0 {
		Opts.ReaderThresholds = append([]float64(nil), defaultReaderThresholds...)
	}
	return Opts, nil
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err == nil {
		return dataDir, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}

	err := os.MkdirAll(dataDir, 0755)
	if err == nil {
		return dataDir, nil
	}
	if !errors.Is(err, os.ErrPermission) || dataDir != defaultData {
		return "", errors.Wrapf(err, "unable to create data folder %s", dataDir)
	}

	// Permission denied on the system default, fall back to the user's home directory
	currentUser, err := user.Current()
	if err != nil {
		return "", errors.Wrap(err, "unable to get current user")
	}
	if currentUser.HomeDir == "" {
		return "", errors.New("unable to get home directory")
	}
	homeData := filepath.Join(currentUser.HomeDir, homeDataDir)
	if err := os.MkdirAll(homeData, 0755); err != nil {
		return "", errors.Wrapf(err, "unable to create default data folder %s", homeData)
	}
	fmt.Println("Data folder in user's home directory: ", homeData)
	return homeData, nil
}

// ParseFile reads a config file on top of the defaults. Environment variables
// still take precedence over values from the file.
func ParseFile(file string) (*Options, error) {
	// Check if file exists
	if _, err := os.Stat(file); err != nil {
		return nil, errors.Wrapf(err, "unable to access config file %s", file)
	}

	GetDefaultOptions()
	v := newViper()
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "unable to read config file %s", file)
	}
	if err := v.Unmarshal(Opts); err != nil {
		return nil, errors.Wrap(err, "unable to decode options")
	}
	return finalize()
}

// CheckSupportedTypes checks if the file type is supported
func CheckSupportedTypes(fileType string) bool {
	if Opts == nil || len(Opts.SupportedTypes) == 0 {
		return false
	}

	fileType = strings.TrimPrefix(strings.ToLower(fileType), ".")
	for _, t := range Opts.SupportedTypes {
		if t == fileType {
			return true
		}
	}

	return false
}
