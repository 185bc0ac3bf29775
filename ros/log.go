package ros

import (
	"os"
	"sort"
	"strings"

	modular "github.com/edwinhayes/logrus-modular"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Module names of the loggers a node creates. Publishers log under
// TopicModule followed by the resolved topic, e.g. "topic/mocap/posestamped".
const (
	NodeModule  = "node"
	TopicModule = "topic"
)

// NewRootLogger returns a root module logger writing text to stderr.
func NewRootLogger() modular.RootLogger {
	logger := logrus.New()
	logger.Out = os.Stderr
	logger.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	return modular.NewRootLogger(logger)
}

// ChildLogger returns the named child of parent, created at parent's level
// when it does not exist yet. A nil parent gets a fresh root logger.
func ChildLogger(parent modular.ModuleLogger, name string) modular.ModuleLogger {
	if parent == nil {
		parent = NewRootLogger()
	}
	return parent.GetOrCreateChild(name, parent.GetLevel())
}

// LogLevels is a root level and per-module overrides.
type LogLevels struct {
	Root    logrus.Level
	Modules map[string]logrus.Level
}

// ParseLogLevels parses a comma separated list of levels. A bare level sets
// the root, "module=level" sets one module and its children:
//
//	info,udpstream=debug,topic/mocap/posestamped=warn
//
// The root defaults to info.
func ParseLogLevels(spec string) (LogLevels, error) {
	levels := LogLevels{Root: logrus.InfoLevel, Modules: map[string]logrus.Level{}}
	for _, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		module, level := "", item
		if i := strings.Index(item, "="); i >= 0 {
			module, level = strings.TrimSpace(item[:i]), strings.TrimSpace(item[i+1:])
			if module == "" {
				return LogLevels{}, errors.Errorf("log level %q: empty module name", item)
			}
		}
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return LogLevels{}, errors.Wrapf(err, "log level %q", item)
		}
		if module == "" {
			levels.Root = lvl
		} else {
			levels.Modules[module] = lvl
		}
	}
	return levels, nil
}

// Apply sets the root level, which propagates to every existing module, then
// the overrides, parents before children. Overridden modules are created if
// they do not exist yet.
func (l LogLevels) Apply(root modular.RootLogger) {
	root.SetLevel(l.Root)
	names := make([]string, 0, len(l.Modules))
	for name := range l.Modules {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lvl := l.Modules[name]
		root.GetOrCreateChild(name, lvl).SetLevel(lvl)
	}
}

// SetLogLevel parses spec and applies it to the root behind logger.
func SetLogLevel(logger modular.ModuleLogger, spec string) error {
	levels, err := ParseLogLevels(spec)
	if err != nil {
		return err
	}
	levels.Apply(logger.GetRoot())
	return nil
}
