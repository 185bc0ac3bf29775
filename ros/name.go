package ros

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

const (
	Sep       = "/"
	GlobalNS  = "/"
	PrivateNS = "~"
	Remap     = ":="
)

type NameMap map[string]string

var validName = regexp.MustCompile(`^[~/]?([a-zA-Z]\w*/)*[a-zA-Z]\w*/?$`)

func isValidName(name string) bool {
	if name == "" || name == GlobalNS || name == PrivateNS {
		return true
	}
	return validName.MatchString(name)
}

func isGlobalName(name string) bool {
	return strings.HasPrefix(name, GlobalNS)
}

func isPrivateName(name string) bool {
	return strings.HasPrefix(name, PrivateNS)
}

// canonicalizeName removes empty and trailing components.
func canonicalizeName(name string) string {
	if name == "" || name == GlobalNS {
		return name
	}
	var components []string
	for _, word := range strings.Split(name, Sep) {
		if len(word) > 0 {
			components = append(components, word)
		}
	}
	joined := strings.Join(components, Sep)
	if isGlobalName(name) {
		return GlobalNS + joined
	}
	return joined
}

// getNamespace returns the parent namespace of name, always ending in Sep.
func getNamespace(name string) string {
	name = canonicalizeName(name)
	if name == "" || name == GlobalNS {
		return GlobalNS
	}
	i := strings.LastIndex(name, Sep)
	if i < 0 {
		return GlobalNS
	}
	return name[:i+1]
}

// qualifyNodeName splits a node name into its namespace and base name.
func qualifyNodeName(nodeName string) (string, string, error) {
	if nodeName == "" {
		return "", "", errors.New("empty node name")
	}
	if isPrivateName(nodeName) {
		return "", "", errors.Errorf("node name %q should not contain '~'", nodeName)
	}
	if !isValidName(nodeName) {
		return "", "", errors.Errorf("invalid node name %q", nodeName)
	}
	canonName := canonicalizeName(nodeName)
	components := strings.Split(strings.TrimPrefix(canonName, GlobalNS), Sep)
	last := len(components) - 1
	if last == 0 {
		return GlobalNS, components[0], nil
	}
	return GlobalNS + strings.Join(components[:last], Sep) + Sep, components[last], nil
}

// resolveName turns a relative, private or global name into a global one.
// Private names resolve below nodeName, relative names in namespace.
func resolveName(name, namespace, nodeName string, mappings NameMap) string {
	var resolvedName string
	switch {
	case name == "":
		resolvedName = canonicalizeName(namespace)
		if resolvedName == "" {
			resolvedName = GlobalNS
		}
	case isGlobalName(name):
		resolvedName = canonicalizeName(name)
	case isPrivateName(name):
		resolvedName = canonicalizeName(nodeName + Sep + name[1:])
	default:
		resolvedName = canonicalizeName(ensureTrailingSep(namespace) + name)
	}
	if remapped, ok := mappings[resolvedName]; ok {
		return remapped
	}
	return resolvedName
}

func ensureTrailingSep(namespace string) string {
	if namespace == "" {
		return GlobalNS
	}
	if !strings.HasSuffix(namespace, Sep) {
		namespace += Sep
	}
	if !isGlobalName(namespace) {
		namespace = GlobalNS + namespace
	}
	return namespace
}

// processArguments splits command line arguments into remappings, private
// params, special keys and everything else.
func processArguments(args []string) (NameMap, NameMap, NameMap, []string) {
	mapping := make(NameMap)
	params := make(NameMap)
	specials := make(NameMap)
	rest := make([]string, 0)
	for _, arg := range args {
		components := strings.Split(arg, Remap)
		if len(components) != 2 {
			rest = append(rest, arg)
			continue
		}
		key, value := components[0], components[1]
		switch {
		case strings.HasPrefix(key, "__"):
			specials[key] = value
		case strings.HasPrefix(key, "_"):
			params[PrivateNS+key[1:]] = value
		default:
			mapping[key] = value
		}
	}
	return mapping, params, specials, rest
}

// NameResolver resolves names against a node's namespace and remappings.
type NameResolver struct {
	namespace       string
	nodeName        string
	resolvedMapping NameMap
}

func newNameResolver(namespace, qualifiedName string, remapping NameMap) *NameResolver {
	n := &NameResolver{
		namespace:       ensureTrailingSep(canonicalizeName(namespace)),
		nodeName:        qualifiedName,
		resolvedMapping: make(NameMap),
	}
	for k, v := range remapping {
		n.resolvedMapping[resolveName(k, n.namespace, n.nodeName, nil)] =
			resolveName(v, n.namespace, n.nodeName, nil)
	}
	return n
}

func (n *NameResolver) resolve(name string) string {
	return resolveName(name, n.namespace, n.nodeName, nil)
}

func (n *NameResolver) remap(name string) string {
	return resolveName(name, n.namespace, n.nodeName, n.resolvedMapping)
}
