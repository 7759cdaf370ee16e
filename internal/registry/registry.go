// Package registry holds the fixed set of cluster CLIs the gateway governs
// and the general-purpose utilities allowed after a pipe.
package registry

import "sort"

// Tool describes one supported cluster-management CLI.
type Tool struct {
	Name         string
	CheckCommand string // availability probe run at startup
	HelpFlag     string
}

var tools = map[string]Tool{
	"kubectl": {
		Name:         "kubectl",
		CheckCommand: "kubectl version --client",
		HelpFlag:     "--help",
	},
	"helm": {
		Name:         "helm",
		CheckCommand: "helm version --short",
		HelpFlag:     "--help",
	},
	"istioctl": {
		Name:         "istioctl",
		CheckCommand: "istioctl version --remote=false",
		HelpFlag:     "--help",
	},
	"argocd": {
		Name:         "argocd",
		CheckCommand: "argocd version --client",
		HelpFlag:     "--help",
	},
}

// Utilities that may appear as any stage after the first in a pipeline.
var utilities = map[string]bool{
	// file operations
	"cat": true, "ls": true, "cd": true, "pwd": true, "cp": true, "mv": true,
	"rm": true, "mkdir": true, "touch": true, "chmod": true, "chown": true,
	// text processing
	"grep": true, "sed": true, "awk": true, "cut": true, "sort": true,
	"uniq": true, "wc": true, "head": true, "tail": true, "tr": true, "find": true,
	// system information
	"ps": true, "top": true, "df": true, "du": true, "uname": true,
	"whoami": true, "date": true, "which": true, "echo": true,
	// networking
	"ping": true, "ifconfig": true, "netstat": true, "curl": true, "wget": true,
	"dig": true, "nslookup": true, "ssh": true, "scp": true,
	// other
	"man": true, "less": true, "tar": true, "gzip": true, "gunzip": true,
	"zip": true, "unzip": true, "xargs": true, "jq": true, "yq": true,
	"tee": true, "column": true, "watch": true,
}

// Lookup returns the tool registered under name.
func Lookup(name string) (Tool, bool) {
	t, ok := tools[name]
	return t, ok
}

// IsTool reports whether name is a registered cluster CLI.
func IsTool(name string) bool {
	_, ok := tools[name]
	return ok
}

// Tools returns every registered tool sorted by name.
func Tools() []Tool {
	out := make([]Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered tool names in sorted order.
func Names() []string {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsUtility reports whether name may be used as a non-first pipeline stage.
func IsUtility(name string) bool {
	return utilities[name]
}
