// Package cmdline splits raw command strings into pipeline stages and
// argv-style words without ever handing them to a shell.
package cmdline

import "strings"

// IsPipeline reports whether command contains a '|' outside of quotes.
func IsPipeline(command string) bool {
	found := false
	scanPipes(command, func(int) bool {
		found = true
		return false
	})
	return found
}

// SplitPipeline splits command on unquoted '|' characters. Each stage is
// trimmed and all-whitespace stages are dropped, so an empty result means
// the command had no content at all.
func SplitPipeline(command string) []string {
	var stages []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			stages = append(stages, s)
		}
	}

	start := 0
	scanPipes(command, func(i int) bool {
		add(command[start:i])
		start = i + 1
		return true
	})
	add(command[start:])
	return stages
}

// scanPipes walks command left to right and calls sep with the byte offset
// of each pipe that sits outside single and double quotes. A quote toggles
// its own state only when it is not preceded by a backslash and the other
// quote kind is not open. Scanning stops early when sep returns false.
func scanPipes(command string, sep func(offset int) bool) {
	var inSingle, inDouble bool
	for i := 0; i < len(command); i++ {
		escaped := i > 0 && command[i-1] == '\\'
		switch command[i] {
		case '\'':
			if !escaped && !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !escaped && !inSingle {
				inDouble = !inDouble
			}
		case '|':
			if !inSingle && !inDouble && !sep(i) {
				return
			}
		}
	}
}
