// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package logging defines the leveled logger that decoder components accept.
//
// Components never configure logging globally. Instead, each exposes a Logger
// field that is resolved with Must, so a nil Logger silently discards output.
package logging

import (
	"fmt"
	"log"
)

// L accepts logging data.
//
// L is designed to automatically conform to zap's zap.SugaredLogger, but is
// generic enough that any logger should be able to match it.
type L interface {
	// Error emits an error-level log.
	Error(args ...interface{})
	// Warn emits a warning-level log.
	Warn(args ...interface{})
	// Info emits an info-level log.
	Info(args ...interface{})
	// Debug emits a debug-level log.
	Debug(args ...interface{})

	// Errorf emits a formatted error-level log.
	Errorf(fmt string, args ...interface{})
	// Warnf emits a formatted warning-level log.
	Warnf(fmt string, args ...interface{})
	// Infof emits a formatted info-level log.
	Infof(fmt string, args ...interface{})
	// Debugf emits a formatted debug-level log.
	Debugf(fmt string, args ...interface{})
}

// Nop is a L instance that does nothing.
var Nop L = nopLogger{}

// Must ensures that a valid L is available. If l is not nil, it will be
// returned; otherwise, Must will return Nop.
func Must(l L) L {
	if l != nil {
		return l
	}
	return Nop
}

type nopLogger struct{}

func (nopLogger) Error(args ...interface{}) {}
func (nopLogger) Warn(args ...interface{})  {}
func (nopLogger) Info(args ...interface{})  {}
func (nopLogger) Debug(args ...interface{}) {}

func (nopLogger) Errorf(fmt string, args ...interface{}) {}
func (nopLogger) Warnf(fmt string, args ...interface{})  {}
func (nopLogger) Infof(fmt string, args ...interface{})  {}
func (nopLogger) Debugf(fmt string, args ...interface{}) {}

// Prefixed returns an L that prepends prefix to every message logged to l.
//
// If l is nil or Nop, Nop is returned.
func Prefixed(l L, prefix string) L {
	if l == nil || l == Nop {
		return Nop
	}
	return &prefixedLogger{base: l, prefix: prefix}
}

type prefixedLogger struct {
	base   L
	prefix string
}

func (pl *prefixedLogger) msg(args []interface{}) string {
	return pl.prefix + fmt.Sprint(args...)
}

func (pl *prefixedLogger) Error(args ...interface{}) { pl.base.Error(pl.msg(args)) }
func (pl *prefixedLogger) Warn(args ...interface{})  { pl.base.Warn(pl.msg(args)) }
func (pl *prefixedLogger) Info(args ...interface{})  { pl.base.Info(pl.msg(args)) }
func (pl *prefixedLogger) Debug(args ...interface{}) { pl.base.Debug(pl.msg(args)) }

func (pl *prefixedLogger) Errorf(f string, args ...interface{}) { pl.base.Errorf(pl.prefix+f, args...) }
func (pl *prefixedLogger) Warnf(f string, args ...interface{})  { pl.base.Warnf(pl.prefix+f, args...) }
func (pl *prefixedLogger) Infof(f string, args ...interface{})  { pl.base.Infof(pl.prefix+f, args...) }
func (pl *prefixedLogger) Debugf(f string, args ...interface{}) { pl.base.Debugf(pl.prefix+f, args...) }

// Std adapts a standard library Logger to L.
//
// Debug-level messages are dropped unless debug is true.
func Std(l *log.Logger, debug bool) L { return &stdLogger{base: l, debug: debug} }

type stdLogger struct {
	base  *log.Logger
	debug bool
}

func (sl *stdLogger) emit(level, msg string) { sl.base.Printf("[%s] %s", level, msg) }

func (sl *stdLogger) Error(args ...interface{}) { sl.emit("E", fmt.Sprint(args...)) }
func (sl *stdLogger) Warn(args ...interface{})  { sl.emit("W", fmt.Sprint(args...)) }
func (sl *stdLogger) Info(args ...interface{})  { sl.emit("I", fmt.Sprint(args...)) }
func (sl *stdLogger) Debug(args ...interface{}) {
	if sl.debug {
		sl.emit("D", fmt.Sprint(args...))
	}
}

func (sl *stdLogger) Errorf(f string, args ...interface{}) { sl.emit("E", fmt.Sprintf(f, args...)) }
func (sl *stdLogger) Warnf(f string, args ...interface{})  { sl.emit("W", fmt.Sprintf(f, args...)) }
func (sl *stdLogger) Infof(f string, args ...interface{})  { sl.emit("I", fmt.Sprintf(f, args...)) }
func (sl *stdLogger) Debugf(f string, args ...interface{}) {
	if sl.debug {
		sl.emit("D", fmt.Sprintf(f, args...))
	}
}
