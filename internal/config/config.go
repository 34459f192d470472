package config

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "LIBROS"

var Opts *Options

// GetConfig returns the default options overridden by LIBROS_* environment
// variables, with the data directory resolved.
func GetConfig() (*Options, error) {
	return Load("")
}

// Load reads the optional config file, applies environment overrides and
// resolves the data directory and the session database path.
func Load(file string) (*Options, error) {
	var (
		opts *Options
		err  error
	)
	if file != "" {
		opts, err = ParseFile(file)
	} else {
		opts, err = parse(newViper())
	}
	if err != nil {
		return nil, err
	}

	dataDir, err := checkDataDir(opts.Data)
	if err != nil {
		return nil, err
	}
	if opts.DSN == "" || opts.DSN == defaultDSN {
		opts.DSN = filepath.Join(dataDir, "libros.db")
	}
	opts.Data = dataDir

	return opts, nil
}

func ParseFile(file string) (*Options, error) {
	// Check if file exists
	if _, err := os.Stat(file); err != nil {
		return nil, errors.Wrapf(err, "unable to access config file %s", file)
	}

	v := newViper()
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "unable to read config file %s", file)
	}
	return parse(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, GetDefaultOptions())
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func parse(v *viper.Viper) (*Options, error) {
	opts := GetDefaultOptions()
	if err := v.Unmarshal(opts); err != nil {
		return nil, errors.Wrap(err, "unable to decode options")
	}
	Opts = opts
	return Opts, nil
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
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

	// Permission denied on the system folder, fall back to the user's home.
	currentUser, err := user.Current()
	if err != nil {
		return "", errors.Wrap(err, "unable to get current user")
	}
	if currentUser.HomeDir == "" {
		return "", errors.New("unable to get home directory")
	}
	homeData := filepath.Join(currentUser.HomeDir, ".libros")
	if _, err := os.Stat(homeData); err == nil {
		return homeData, nil
	}
	if err := os.MkdirAll(homeData, 0755); err != nil {
		return "", errors.Wrapf(err, "unable to create default data folder %s", homeData)
	}
	return homeData, nil
}
