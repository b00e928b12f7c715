/*
Package log is a global and configurable logger pkg, based on zerolog (https://github.com/rs/zerolog)

The logger is configured through viper. Available fields, all optional:

 # A default log level for all sub modules
 # must be one of this; debug/info/warn/error/fatal/panic
 level = "info"

 # A log output formatter
 # can be chosen among this; console, console_no_color, json
 formatter = "json"

 # Enabling source file and line printer
 caller = false

 # If a sub module needs different options from the defaults,
 # sub modules can be configured using a map struct of toml
 [executor]
 level = "debug"

The config file (name "solsim_log") is searched in the working directory, or
at the path held by the SOLSIM_LOGCONFIG environment variable.
*/
package log

import (
	"os"
	"strings"
	"sync"

	colorable "github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

var (
	baseLogger  = zerolog.New(os.Stderr)
	baseLevel   = zerolog.InfoLevel
	logInitLock sync.Mutex
	isLogInit   = false
	viperConf   = viper.New()
)

const (
	confFilePathKey     = "LOGCONFIG"
	confEnvPrefix       = "SOLSIM"
	defaultConfFileName = "solsim_log"
)

func loadConfigFile() {
	viperConf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperConf.SetEnvPrefix(confEnvPrefix)
	viperConf.AutomaticEnv()

	viperConf.SetConfigType("toml")
	viperConf.SetConfigName(defaultConfFileName)
	viperConf.AddConfigPath(".")

	if viperConf.GetString(confFilePathKey) != "" {
		confFilePath := viperConf.GetString(confFilePathKey)
		viperConf.SetConfigFile(confFilePath)
		baseLogger.Info().Str("file", confFilePath).Msg("Init logger using a configuration file")
	}

	if err := viperConf.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			baseLogger.Error().Err(err).Msg("Fail to read the logger's config file")
		}
	}
}

func initLog() {
	if viperConf.GetString("timefieldformat") != "" {
		zerolog.TimeFieldFormat = viperConf.GetString("timefieldformat")
	}

	out := os.Stderr
	switch strings.ToLower(viperConf.GetString("formatter")) {
	case "", "json":
		baseLogger = baseLogger.Output(out)
	case "console":
		baseLogger = baseLogger.Output(
			zerolog.ConsoleWriter{Out: colorable.NewColorable(out), NoColor: false, TimeFormat: zerolog.TimeFieldFormat})
	case "console_no_color":
		baseLogger = baseLogger.Output(
			zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: zerolog.TimeFieldFormat})
	default:
		baseLogger.Warn().Str("formatter", viperConf.GetString("formatter")).Msg("Invalid message formatter. Only allowed; console/console_no_color/json")
		baseLogger = baseLogger.Output(out)
	}

	if viperConf.GetBool("caller") {
		baseLogger = baseLogger.With().Caller().Logger()
	}

	level := viperConf.GetString("level")
	zLevel := zerolog.InfoLevel
	if level != "" {
		var err error
		if zLevel, err = zerolog.ParseLevel(level); err != nil {
			baseLogger.Warn().Err(err).Msg("Fail to parse the default log level. Set the level as info")
			zLevel = zerolog.InfoLevel
		}
	}

	baseLogger = baseLogger.With().Timestamp().Logger().Level(zLevel)
	baseLevel = zLevel
}

// Logger keeps configurations, and provides funcs to print logs.
type Logger struct {
	*zerolog.Logger
	name  string
	level zerolog.Level
}

// NewLogger creates and returns a new logger using the current setting.
// To classify and debug easily, this gets moduleName and makes all
// corresponding sources have a same tag 'module'.
func NewLogger(moduleName string) *Logger {
	logInitLock.Lock()
	defer logInitLock.Unlock()

	// init logger only once at a start
	if !isLogInit {
		loadConfigFile()
		initLog()
		isLogInit = true
	}

	zLogger := baseLogger.With().Str("module", moduleName).Logger()

	// try to load a sub config
	zLevel := baseLevel
	if subConf := viperConf.Sub(moduleName); subConf != nil {
		if level := subConf.GetString("level"); level != "" {
			var err error
			if zLevel, err = zerolog.ParseLevel(level); err != nil {
				zLevel = zerolog.InfoLevel
			}
			zLogger = zLogger.Level(zLevel)
		}
	}

	return &Logger{
		Logger: &zLogger,
		name:   moduleName,
		level:  zLevel,
	}
}

// Default returns a default logger. This logger does not have a module name.
func Default() *Logger {
	logInitLock.Lock()
	defer logInitLock.Unlock()

	if !isLogInit {
		loadConfigFile()
		initLog()
		isLogInit = true
	}

	return &Logger{
		Logger: &baseLogger,
		name:   "",
		level:  baseLevel,
	}
}

// IsDebugEnabled is used to check whether this logger's level is debug or not.
// This helps to prevent heavy computation to generate debug log statements.
func (logger *Logger) IsDebugEnabled() bool {
	return logger.level <= zerolog.DebugLevel
}

// Level returns the current logger level.
func (logger *Logger) Level() string {
	return logger.level.String()
}
