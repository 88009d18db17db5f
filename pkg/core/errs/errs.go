// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package errs defines the three failure kinds of the augmentation pipeline.
//
// All of them are unrecoverable for the sample being processed: the pipeline never coerces
// bad input, it returns the error to the caller, who may decide to skip the sample.
//
// Errors are created with a stack trace (github.com/pkg/errors), so they print nicely with "%+v",
// and they can be detected after wrapping with errors.As, or with the IsConfiguration, IsGeometry
// and IsMapping helpers.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigurationError reports an invalid relationship among the numeric configuration parameters
// (base size, low/high scale factors, standard deviation, class mapping tables).
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return "invalid configuration: " + e.Msg }

// GeometryError reports mismatched image/mask dimensions, non-positive crop sizes, or a crop
// window that doesn't fit the canvas.
type GeometryError struct {
	Msg string
}

func (e *GeometryError) Error() string { return "invalid geometry: " + e.Msg }

// MappingError reports a label value that is not part of the configured domain.
type MappingError struct {
	// Code is the offending value: a raw code for Remap, a training index for Inverse.
	Code int
	Msg  string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("label mapping failed for value %d: %s", e.Code, e.Msg)
}

// Configurationf returns a ConfigurationError with a stack trace.
func Configurationf(format string, args ...any) error {
	return errors.WithStack(&ConfigurationError{Msg: fmt.Sprintf(format, args...)})
}

// Geometryf returns a GeometryError with a stack trace.
func Geometryf(format string, args ...any) error {
	return errors.WithStack(&GeometryError{Msg: fmt.Sprintf(format, args...)})
}

// Mappingf returns a MappingError for the given code with a stack trace.
func Mappingf(code int, format string, args ...any) error {
	return errors.WithStack(&MappingError{Code: code, Msg: fmt.Sprintf(format, args...)})
}

// IsConfiguration returns whether err (or any error it wraps) is a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsGeometry returns whether err (or any error it wraps) is a GeometryError.
func IsGeometry(err error) bool {
	var target *GeometryError
	return errors.As(err, &target)
}

// IsMapping returns whether err (or any error it wraps) is a MappingError.
func IsMapping(err error) bool {
	var target *MappingError
	return errors.As(err, &target)
}

// MappingCode returns the offending code of a MappingError wrapped in err, and whether one was found.
func MappingCode(err error) (code int, found bool) {
	var target *MappingError
	if !errors.As(err, &target) {
		return 0, false
	}
	return target.Code, true
}
