// Package profiling は Pyroscope への継続的プロファイリングを開始します。
package profiling

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/grafana/pyroscope-go"
)

// Config はプロファイラーの設定です。ServerAddress が空なら無効です。
type Config struct {
	ApplicationName string
	ServerAddress   string
	Env             string
}

// LoadConfigFromEnv は PYROSCOPE_SERVER_ADDRESS / PYROSCOPE_APP_NAME / APP_ENV を読み込みます。
func LoadConfigFromEnv(defaultApp string) Config {
	cfg := Config{
		ApplicationName: os.Getenv("PYROSCOPE_APP_NAME"),
		ServerAddress:   os.Getenv("PYROSCOPE_SERVER_ADDRESS"),
		Env:             os.Getenv("APP_ENV"),
	}
	if cfg.ApplicationName == "" {
		cfg.ApplicationName = defaultApp
	}
	if cfg.Env == "" {
		cfg.Env = "local"
	}
	return cfg
}

// slogAdapter は pyroscope.Logger を slog に流します。
type slogAdapter struct{ l *slog.Logger }

func (a slogAdapter) Infof(format string, args ...interface{}) {
	a.l.Debug(fmt.Sprintf(format, args...))
}

func (a slogAdapter) Debugf(format string, args ...interface{}) {
	a.l.Debug(fmt.Sprintf(format, args...))
}

func (a slogAdapter) Errorf(format string, args ...interface{}) {
	a.l.Error(fmt.Sprintf(format, args...))
}

// Start はプロファイラーを開始し、停止関数を返します。無効な場合は何もしない停止関数を返します。
func Start(cfg Config) (func(), error) {
	if cfg.ServerAddress == "" {
		return func() {}, nil
	}
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ApplicationName,
		ServerAddress:   cfg.ServerAddress,
		Tags:            map[string]string{"env": cfg.Env},
		Logger:          slogAdapter{l: slog.Default().With("component", "pyroscope")},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("pyroscope start failed: %w", err)
	}
	slog.Info("profiling enabled", "server", cfg.ServerAddress, "app", cfg.ApplicationName)
	return func() { _ = profiler.Stop() }, nil
}

var _ pyroscope.Logger = slogAdapter{}
