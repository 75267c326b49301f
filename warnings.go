package dirdisk

import (
	"errors"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// LogrusWarningSink forwards warnings to a logrus logger at Warn level.
type LogrusWarningSink struct {
	logger logrus.FieldLogger
}

// NewLogrusWarningSink creates a [WarningSink] that logs through `logger`. If
// `logger` is nil, the logrus standard logger is used.
func NewLogrusWarningSink(logger logrus.FieldLogger) LogrusWarningSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return LogrusWarningSink{logger: logger.WithField("component", "dirdisk")}
}

func (sink LogrusWarningSink) Warn(message string) {
	sink.logger.Warn(message)
}

// CollectingWarningSink keeps every warning it receives, in order. The zero
// value is ready to use.
type CollectingWarningSink struct {
	warnings *multierror.Error
}

func (sink *CollectingWarningSink) Warn(message string) {
	sink.warnings = multierror.Append(sink.warnings, errors.New(message))
}

// Len returns the number of warnings received so far.
func (sink *CollectingWarningSink) Len() int {
	if sink.warnings == nil {
		return 0
	}
	return sink.warnings.Len()
}

// Messages returns the text of every warning received so far.
func (sink *CollectingWarningSink) Messages() []string {
	if sink.warnings == nil {
		return nil
	}

	messages := make([]string, 0, len(sink.warnings.Errors))
	for _, err := range sink.warnings.Errors {
		messages = append(messages, err.Error())
	}
	return messages
}

// ErrorOrNil returns all collected warnings as a single error, or nil if there
// weren't any.
func (sink *CollectingWarningSink) ErrorOrNil() error {
	return sink.warnings.ErrorOrNil()
}

// Reset discards all collected warnings.
func (sink *CollectingWarningSink) Reset() {
	sink.warnings = nil
}
