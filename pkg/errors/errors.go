// Package errors wraps github.com/pkg/errors so that every error created in
// this module carries a stack. The *AndReport variants additionally forward
// the error to the registered reporters.
package errors

import (
	stderrors "errors"
	"github.com/pkg/errors"
)

func New(message string) error {
	return errors.New(message)
}

func NewWithReport(message string) error {
	err := errors.New(message)
	report(err)
	return err
}

func Errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

func ErrorfAndReport(format string, args ...interface{}) error {
	err := errors.Errorf(format, args...)
	report(err)
	return err
}

// Wrap returns nil when err is nil.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

func WrapAndReport(err error, message string) error {
	if err == nil {
		return nil
	}
	err = errors.Wrap(err, message)
	report(err)
	return err
}

func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

func WrapfAndReport(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	err = errors.Wrapf(err, format, args...)
	report(err)
	return err
}

func WithStack(err error) error {
	return errors.WithStack(err)
}

func WithStackAndReport(err error) error {
	if err == nil {
		return nil
	}
	err = errors.WithStack(err)
	report(err)
	return err
}

func WithMessage(err error, message string) error {
	return errors.WithMessage(err, message)
}

func WithMessageAndReport(err error, message string) error {
	if err == nil {
		return nil
	}
	err = errors.WithMessage(err, message)
	report(err)
	return err
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

func Cause(err error) error {
	return errors.Cause(err)
}
