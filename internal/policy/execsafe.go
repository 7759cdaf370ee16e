package policy

import "strings"

// Raw shell targets that turn `kubectl exec` into a blind remote shell.
var execShellMarkers = []string{
	"-- sh",
	"-- bash",
	"-- /bin/sh",
	"-- /bin/bash",
	"-- zsh",
	"-- /usr/bin/bash",
	"-- ksh",
	"-- csh",
}

var execInteractiveFlags = []string{"-i", "--stdin", "-t", "--tty", "-it", "-ti"}

// IsSafeExec applies the kubectl exec heuristic. Help and version requests
// are always safe. A raw shell target is allowed only as `<shell> -c ...`
// or in an interactive session; exec targets that are not shells pass.
func IsSafeExec(command string) bool {
	padded := " " + command + " "

	if strings.Contains(padded, " --help") || strings.Contains(padded, " -h ") || strings.Contains(padded, " version") {
		return true
	}

	for _, m := range execShellMarkers {
		marker := " " + m + " "
		if !strings.Contains(padded, marker) {
			continue
		}
		if strings.Contains(padded, marker+"-c ") {
			return true
		}
		return hasInteractiveFlag(padded)
	}
	return true
}

func hasInteractiveFlag(padded string) bool {
	for _, f := range execInteractiveFlags {
		if strings.Contains(padded, " "+f+" ") {
			return true
		}
	}
	return false
}
