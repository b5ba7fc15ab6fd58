package runtime

import "github.com/sirupsen/logrus"

// Module is a loaded unit of code: an executed Risor script plus the
// members its top level defined.
type Module struct {
	// Path is the module's identity, a dotted path like "pooply.widgets.a".
	Path string
	// File is the module's location relative to the search root.
	File string

	members []Member
}

// Members returns the module's top-level members, ordered by name.
func (m *Module) Members() []Member {
	return m.members
}

// Member is one (name, value) pair defined at a module's top level.
type Member struct {
	Name string
	// Value is the member's Go value where Risor can produce one, or the
	// raw Risor object otherwise.
	Value any
	// Type is the member's Risor runtime type name ("map", "string", ...).
	Type string
}

// logObject provides log.debug/info/error methods for scanned scripts.
type logObject struct {
	prefix string
}

func (l *logObject) Debug(msg string) {
	logrus.Debugf("[%s] %s", l.prefix, msg)
}

func (l *logObject) Info(msg string) {
	logrus.Infof("[%s] %s", l.prefix, msg)
}

func (l *logObject) Error(msg string) {
	logrus.Errorf("[%s] %s", l.prefix, msg)
}
