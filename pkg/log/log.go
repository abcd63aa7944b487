// Copyright (c) 2024 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package log

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GlobalConfig defines the global logger configurations.
type GlobalConfig struct {
	Zap *zap.Config `json:"zap" yaml:"zap"`
}

var (
	_logMu     sync.RWMutex
	_subLogger map[string]*zap.Logger
)

func init() {
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level.SetLevel(zap.InfoLevel)
	l, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(l)
	_subLogger = make(map[string]*zap.Logger)
}

// L wraps zap.L().
func L() *zap.Logger { return zap.L() }

// S wraps zap.S().
func S() *zap.SugaredLogger { return zap.S() }

// Logger returns the logger registered under name, or a named child of the global logger.
func Logger(name string) *zap.Logger {
	_logMu.RLock()
	l, ok := _subLogger[name]
	_logMu.RUnlock()
	if ok {
		return l
	}
	return L().Named(name)
}

// InitLoggers initializes the global logger and the named sub loggers.
func InitLoggers(globalCfg GlobalConfig, subCfgs map[string]GlobalConfig, opts ...zap.Option) error {
	gl, err := build(globalCfg, opts...)
	if err != nil {
		return errors.Wrap(err, "failed to build global logger")
	}
	subs := make(map[string]*zap.Logger, len(subCfgs))
	for name, cfg := range subCfgs {
		l, err := build(cfg, opts...)
		if err != nil {
			return errors.Wrapf(err, "failed to build sub logger %s", name)
		}
		subs[name] = l.Named(name)
	}
	_logMu.Lock()
	defer _logMu.Unlock()
	zap.ReplaceGlobals(gl)
	_subLogger = subs
	return nil
}

func build(cfg GlobalConfig, opts ...zap.Option) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Zap != nil {
		zapCfg = *cfg.Zap
	}
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapCfg.Build(opts...)
}
