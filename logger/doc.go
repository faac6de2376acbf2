// Package logger provides structured logging built on zerolog.
//
// Loggers are constructed once at startup and passed explicitly to the
// components that need them; there is no ambient global instance.
package logger
