// Package ref validates object references and resolves app references into
// the locator used in request paths.
package ref

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultAlias is used when an app is given by name without a version or tag.
const DefaultAlias = "default"

// AppPrefix prefixes every app hash ID and app name.
const AppPrefix = "app-"

var (
	appHashID = regexp.MustCompile(`^app-[0-9A-Za-z]{24}$`)
	appName   = regexp.MustCompile(`^app-[a-zA-Z0-9._-]+$`)
)

// Object validates an object reference and returns it unchanged.
func Object(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", ErrEmptyObjectRef
	}
	return id, nil
}

// IsAppHashID reports whether s looks like an app hash ID (app- followed by
// 24 alphanumerics).
func IsAppHashID(s string) bool {
	return appHashID.MatchString(s)
}

// Locator identifies an app in a request path: either "app-<hash>" or
// "app-<name>/<alias>".
type Locator struct {
	ID    string
	Name  string
	Alias string
}

// String renders the path segment(s) for l.
func (l Locator) String() string {
	if l.ID != "" {
		return l.ID
	}
	return l.Name + "/" + l.Alias
}

// ByHashID reports whether l addresses a hash ID.
func (l Locator) ByHashID() bool { return l.ID != "" }

// App resolves nameOrID and alias. A hash ID must come without alias. A name
// gets the app- prefix when missing and alias defaults to DefaultAlias.
func App(nameOrID, alias string) (Locator, error) {
	nameOrID = strings.TrimSpace(nameOrID)
	if nameOrID == "" || nameOrID == AppPrefix {
		return Locator{}, ErrEmptyAppRef
	}
	if IsAppHashID(nameOrID) {
		if alias != "" {
			return Locator{}, fmt.Errorf("%w: %s/%s", ErrAliasWithHashID, nameOrID, alias)
		}
		return Locator{ID: nameOrID}, nil
	}
	name := nameOrID
	if !strings.HasPrefix(name, AppPrefix) {
		name = AppPrefix + name
	}
	if !appName.MatchString(name) {
		return Locator{}, fmt.Errorf("%w: %q", ErrInvalidAppName, nameOrID)
	}
	if alias == "" {
		alias = DefaultAlias
	}
	if strings.ContainsAny(alias, "/ \t\n") {
		return Locator{}, fmt.Errorf("%w: %q", ErrInvalidAlias, alias)
	}
	return Locator{Name: name, Alias: alias}, nil
}
