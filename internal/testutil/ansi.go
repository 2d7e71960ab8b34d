// Package testutil holds helpers shared by the tests of several packages.
package testutil

import "regexp"

// csi matches ANSI CSI sequences such as "\x1b[1;32m".
var csi = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripAnsiCodes removes terminal escape sequences so that colored CLI
// output can be compared as plain text.
func StripAnsiCodes(s string) string {
	return csi.ReplaceAllString(s, "")
}
