package policy

// Built-in prefix tables. A document that names a tool replaces that tool's
// lists entirely.
var defaultDangerous = map[string][]string{
	"kubectl": {
		"kubectl delete",
		"kubectl drain",
		"kubectl replace --force",
		"kubectl exec",
		"kubectl port-forward",
		"kubectl cp",
		"kubectl delete pods --all",
	},
	"istioctl": {
		"istioctl experimental",
		"istioctl proxy-config",
		"istioctl dashboard",
	},
	"helm": {
		"helm delete",
		"helm uninstall",
		"helm rollback",
		"helm upgrade",
	},
	"argocd": {
		"argocd app delete",
		"argocd cluster rm",
		"argocd repo rm",
		"argocd app set",
	},
}

var defaultSafe = map[string][]string{
	"kubectl": {
		"kubectl delete pod",
		"kubectl delete deployment",
		"kubectl delete service",
		"kubectl delete configmap",
		"kubectl delete secret",
		"kubectl exec --help",
		"kubectl exec -it",
		"kubectl exec pod",
		"kubectl exec deployment",
		"kubectl port-forward --help",
		"kubectl cp --help",
	},
	"istioctl": {
		"istioctl experimental -h",
		"istioctl experimental --help",
		"istioctl proxy-config --help",
		"istioctl dashboard --help",
	},
	"helm": {
		"helm delete --help",
		"helm uninstall --help",
		"helm rollback --help",
		"helm upgrade --help",
	},
	"argocd": {
		"argocd app delete --help",
		"argocd cluster rm --help",
		"argocd repo rm --help",
		"argocd app set --help",
	},
}

// DefaultRuleSet returns the built-in rules with no regex rules.
func DefaultRuleSet() *RuleSet {
	tools := make(map[string]ToolRules)
	for tool, prefixes := range defaultDangerous {
		r := tools[tool]
		r.Dangerous = append([]string{}, prefixes...)
		tools[tool] = r
	}
	for tool, prefixes := range defaultSafe {
		r := tools[tool]
		r.Safe = append([]string{}, prefixes...)
		tools[tool] = r
	}
	return &RuleSet{tools: tools}
}
