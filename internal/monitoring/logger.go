// Package monitoring holds the diagnostic logger shared by the measurement
// packages.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Infof logs an informational message.
func Infof(format string, v ...interface{}) {
	Logf("INFO: "+format, v...)
}

// Warnf logs a warning. Warnings never stop a run.
func Warnf(format string, v ...interface{}) {
	Logf("WARNING: "+format, v...)
}

// Errorf logs an error that affects a method or a region.
func Errorf(format string, v ...interface{}) {
	Logf("ERROR: "+format, v...)
}
