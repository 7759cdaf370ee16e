package cli

import (
	"github.com/spf13/cobra"
)

var (
	securityConfigPath string
	auditLogPath       string
	mode               string
	logLevel           string
)

var rootCmd = &cobra.Command{
	Use:   "kubeshield",
	Short: "kubeshield - Secure gateway for Kubernetes CLIs",
	Long: `kubeshield validates and runs kubectl, helm, istioctl and argocd commands
on behalf of automated agents. Every command is checked against a layered
security policy and the cluster's RBAC before it runs, executes under a
bounded timeout, and is recorded in an audit log.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&securityConfigPath, "security-config", "", "Path to security rules YAML (default: $K8S_MCP_SECURITY_CONFIG or ~/.kubeshield/security.yaml)")
	rootCmd.PersistentFlags().StringVar(&auditLogPath, "audit-log", "", "Path to audit log file (default: $KUBESHIELD_AUDIT_LOG or ~/.kubeshield/audit.jsonl)")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "", "Security mode: strict or permissive (default: $K8S_MCP_SECURITY_MODE or strict)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (default: $KUBESHIELD_LOG_LEVEL or info)")
}

func Execute() error {
	return rootCmd.Execute()
}
