// Package sanitize cleans raw model output before it reaches a user.
package sanitize

import "regexp"

// ansiEscape matches 7-bit ANSI escape sequences: a two-byte Fe escape or a
// CSI sequence (parameter bytes, intermediate bytes, final byte).
var ansiEscape = regexp.MustCompile(`\x1B(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

// Strip removes terminal escape sequences from s and leaves every other byte
// in place. Removal repeats until nothing matches, so a sequence split around
// another one ("\x1b\x1b[0m[0m") is gone too and Strip(Strip(s)) == Strip(s).
// The cost is that text which only forms an escape once an inner one is
// removed goes with it: the trailing literal "[0m" above is dropped. Keep
// the loop; a single pass is not idempotent.
func Strip(s string) string {
	for s != "" {
		out := ansiEscape.ReplaceAllString(s, "")
		if out == s {
			break
		}
		s = out
	}
	return s
}
