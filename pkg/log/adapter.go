package log

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// BadgerAdapter implements badger.Logger on top of a logrus entry.
// Badger reports routine housekeeping (compactions, value log replay) at info level,
// so info is demoted to debug and debug to trace.
type BadgerAdapter struct {
	entry *logrus.Entry
}

// NewBadgerAdapter creates a new adapter
func NewBadgerAdapter(entry *logrus.Entry) *BadgerAdapter {
	return &BadgerAdapter{entry: entry}
}

func (a *BadgerAdapter) Errorf(f string, v ...interface{}) {
	a.entry.Errorf(trimNewline(f), v...)
}

func (a *BadgerAdapter) Warningf(f string, v ...interface{}) {
	a.entry.Warnf(trimNewline(f), v...)
}

func (a *BadgerAdapter) Infof(f string, v ...interface{}) {
	a.entry.Debugf(trimNewline(f), v...)
}

func (a *BadgerAdapter) Debugf(f string, v ...interface{}) {
	a.entry.Tracef(trimNewline(f), v...)
}

// Badger terminates its format strings with a newline; logrus adds its own
func trimNewline(f string) string {
	return strings.TrimSuffix(f, "\n")
}
