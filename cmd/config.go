package cmd

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dannyswat/vdom"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configBaseName = "vdompatch"
	configFileName = configBaseName + ".yaml"
	envPrefix      = "VDOMPATCH"

	configFlagName   = "config"
	logLevelFlagName = "log-level"
	logFileFlagName  = "log-file"
	maxDepthFlagName = "max-depth"
	indentFlagName   = "indent"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"
	maxDepthKey      = "parse.max_depth"
	indentKey        = "output.indent"

	defaultLogFilename   = ""
	defaultLogLevel      = "info"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
	defaultIndent        = false
)

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
	viper.SetDefault(maxDepthKey, vdom.DefaultMaxDepth)
	viper.SetDefault(indentKey, defaultIndent)
}

// readConfig loads the config file named by path, or vdompatch.yaml from the
// working directory when path is empty. A missing default file is fine.
func readConfig(path string) error {
	if path != "" {
		viper.SetConfigFile(path)
		return viper.ReadInConfig()
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return err
	}
	return nil
}

// parseSlogLevel maps a log.level value onto a slog level. The slog names
// and offsets ("debug", "info+2") are understood, as are "warning" and bare
// integers; anything else yields fallback.
func parseSlogLevel(value string, fallback slog.Level) slog.Level {
	s := strings.TrimSpace(value)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	if n, err := strconv.Atoi(s); err == nil {
		return slog.Level(n)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return fallback
	}
	return level
}

// configureLogger installs the default slog logger. It writes to stderr
// unless log.filename is set, in which case the file is rotated by
// lumberjack.
func configureLogger(stderr io.Writer) *slog.Logger {
	var w io.Writer = stderr
	if path := strings.TrimSpace(viper.GetString(logFilenameKey)); path != "" {
		w = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    viper.GetInt(logMaxSizeKey),
			MaxBackups: viper.GetInt(logMaxBackupsKey),
			MaxAge:     viper.GetInt(logMaxAgeKey),
			Compress:   viper.GetBool(logCompressKey),
		}
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
