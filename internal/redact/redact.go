// Package redact masks credentials in commands and messages before they
// are written to the audit log.
package redact

import "regexp"

var sensitivePatterns = []*regexp.Regexp{
	// Credential flags: kubectl --token, argocd --auth-token, --password
	regexp.MustCompile(`(?i)--(token|auth-token|password|client-secret)(=|\s+)[^\s'"]+`),

	// kubeconfig inline material
	regexp.MustCompile(`(?i)(client-key-data|client-certificate-data)\s*:\s*['"]?[A-Za-z0-9/+=]+['"]?`),

	// AWS
	regexp.MustCompile(`(?i)(aws_access_key_id|aws_secret_access_key|aws_session_token)\s*[=:]\s*['"]?[A-Za-z0-9/+=]{20,}['"]?`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),

	// Generic API keys
	regexp.MustCompile(`(?i)(api_key|apikey|api-key|secret_key|secretkey|secret-key|access_token|auth_token)\s*[=:]\s*['"]?[A-Za-z0-9_-]{16,}['"]?`),

	// Private keys
	regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----`),

	// Bearer tokens, including service account JWTs
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_.-]{20,}`),

	// Basic auth in URLs (helm repo add, argocd repo add)
	regexp.MustCompile(`https?://[^:/\s]+:[^@\s]+@`),

	// password=..., secret: ..., including --from-literal and --set values
	regexp.MustCompile(`(?i)(password|passwd|pwd|secret)\s*[=:]\s*['"]?[^\s'"]{8,}['"]?`),
}

const redactedPlaceholder = "[REDACTED]"

func Redact(input string) string {
	result := input
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, redactedPlaceholder)
	}
	return result
}

func RedactArgs(args []string) []string {
	if args == nil {
		return nil
	}
	result := make([]string, len(args))
	for i, arg := range args {
		result[i] = Redact(arg)
	}
	return result
}
