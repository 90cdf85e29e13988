package pluginloader

import (
	"fmt"
	"strconv"
	"strings"
)

// version is a parsed major.minor.patch triple. Pre-release/build
// metadata suffixes are not supported — plugin and framework versions
// are plain release numbers.
type version struct {
	major, minor, patch int
}

func parseVersion(s string) (version, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	parts := strings.SplitN(s, ".", 3)
	if len(parts) != 3 {
		return version{}, fmt.Errorf("pluginloader: malformed version %q, want major.minor.patch", s)
	}
	var v version
	var err error
	if v.major, err = strconv.Atoi(parts[0]); err != nil {
		return version{}, fmt.Errorf("pluginloader: malformed version %q: %w", s, err)
	}
	if v.minor, err = strconv.Atoi(parts[1]); err != nil {
		return version{}, fmt.Errorf("pluginloader: malformed version %q: %w", s, err)
	}
	if v.patch, err = strconv.Atoi(parts[2]); err != nil {
		return version{}, fmt.Errorf("pluginloader: malformed version %q: %w", s, err)
	}
	return v, nil
}

// caretCompatible implements the caret compatibility a plugin declares
// against the running framework: the plugin's required version and the
// runner's actual version must share a major, and the plugin must not
// require more than the runner provides.
func caretCompatible(required, actual version) bool {
	if required.major != actual.major {
		return false
	}
	if required.minor != actual.minor {
		return required.minor < actual.minor
	}
	return required.patch <= actual.patch
}

// CheckCompatible parses both version strings and applies
// caretCompatible, returning a descriptive error on mismatch.
func CheckCompatible(requiredStr, actualStr string) error {
	required, err := parseVersion(requiredStr)
	if err != nil {
		return err
	}
	actual, err := parseVersion(actualStr)
	if err != nil {
		return err
	}
	if !caretCompatible(required, actual) {
		return fmt.Errorf("pluginloader: requires framework ^%s, runner is %s", requiredStr, actualStr)
	}
	return nil
}
