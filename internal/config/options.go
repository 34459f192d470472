package config

const (
	defaultLogFile                = "libros.log"
	defaultLogLevel               = "info"
	defaultLogFileMaxSize         = 20
	defaultLogFileMaxBackups      = 3
	defaultLogFileMaxAge          = 28
	defaultLogCompress            = false
	defaultAPIURL                 = "http://localhost:3000/api"
	defaultPageSize               = 10
	defaultSort                   = "createdAt"
	defaultRequestTimeout         = 10
	defaultData                   = "/var/opt/libros"
	defaultDSN                    = defaultData + "/libros.db"
	defaultWorkerPoolSize         = 4
	defaultDevServerHost          = "127.0.0.1"
	defaultDevServerPort          = 3000
	defaultDevServerAdminUsername = "admin"
	defaultDevServerAdminPassword = "admin123"
	defaultDevServerSeed          = true
)

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
	// APIURL is the base URL of the remote library API, including the /api prefix
	APIURL string `mapstructure:"api_url"`
	// PageSize is the number of books requested per page
	PageSize int `mapstructure:"page_size"`
	// Sort is the server-side sort key for book listings
	Sort string `mapstructure:"sort"`
	// RequestTimeout is the HTTP timeout in seconds
	RequestTimeout int `mapstructure:"request_timeout"`
	// DSN is the sqlite file holding the persisted session
	DSN string `mapstructure:"dsn_uri"`
	// data is the directory to store data
	Data           string `mapstructure:"data"`
	WorkerPoolSize int    `mapstructure:"worker_pool_size"`
	// For the development API server
	DevServerHost          string `mapstructure:"devserver_host"`
	DevServerPort          int    `mapstructure:"devserver_port"`
	DevServerAdminUsername string `mapstructure:"devserver_admin_username"`
	DevServerAdminPassword string `mapstructure:"devserver_admin_password"`
	DevServerJWTSecret     string `mapstructure:"devserver_jwt_secret"`
	DevServerSeed          bool   `mapstructure:"devserver_seed"`
}

func GetDefaultOptions() *Options {
	Opts = &Options{
		LogFile:                defaultLogFile,
		LogLevel:               defaultLogLevel,
		LogFileMaxSize:         defaultLogFileMaxSize,
		LogFileMaxBackups:      defaultLogFileMaxBackups,
		LogFileMaxAge:          defaultLogFileMaxAge,
		LogCompress:            defaultLogCompress,
		APIURL:                 defaultAPIURL,
		PageSize:               defaultPageSize,
		Sort:                   defaultSort,
		RequestTimeout:         defaultRequestTimeout,
		DSN:                    defaultDSN,
		Data:                   defaultData,
		WorkerPoolSize:         defaultWorkerPoolSize,
		DevServerHost:          defaultDevServerHost,
		DevServerPort:          defaultDevServerPort,
		DevServerAdminUsername: defaultDevServerAdminUsername,
		DevServerAdminPassword: defaultDevServerAdminPassword,
		DevServerSeed:          defaultDevServerSeed,
	}
	return Opts
}

// setDefaults registers every option with viper so environment variables
// are picked up by Unmarshal even when no config file sets the key.
func setDefaults(v interface{ SetDefault(string, any) }, o *Options) {
	v.SetDefault("log_file", o.LogFile)
	v.SetDefault("log_level", o.LogLevel)
	v.SetDefault("log_file_max_size", o.LogFileMaxSize)
	v.SetDefault("log_file_max_backups", o.LogFileMaxBackups)
	v.SetDefault("log_file_max_age", o.LogFileMaxAge)
	v.SetDefault("log_compress", o.LogCompress)
	v.SetDefault("api_url", o.APIURL)
	v.SetDefault("page_size", o.PageSize)
	v.SetDefault("sort", o.Sort)
	v.SetDefault("request_timeout", o.RequestTimeout)
	v.SetDefault("dsn_uri", o.DSN)
	v.SetDefault("data", o.Data)
	v.SetDefault("worker_pool_size", o.WorkerPoolSize)
	v.SetDefault("devserver_host", o.DevServerHost)
	v.SetDefault("devserver_port", o.DevServerPort)
	v.SetDefault("devserver_admin_username", o.DevServerAdminUsername)
	v.SetDefault("devserver_admin_password", o.DevServerAdminPassword)
	v.SetDefault("devserver_jwt_secret", o.DevServerJWTSecret)
	v.SetDefault("devserver_seed", o.DevServerSeed)
}
