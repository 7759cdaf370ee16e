package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gzhole/kubeshield/internal/config"
	"github.com/gzhole/kubeshield/internal/logger"
)

var (
	logFilterDecision string
	logFilterTool     string
	logLast           int
	logSummary        bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View and filter the audit log",
	Long: `View the kubeshield audit log with filtering and summary options.

Examples:
  kubeshield log                        # Show all entries
  kubeshield log --last 20              # Show last 20 entries
  kubeshield log --decision REJECT      # Show only rejected commands
  kubeshield log --tool helm            # Show only helm invocations
  kubeshield log --summary              # Show summary stats`,
	RunE: logCommand,
}

func init() {
	logCmd.Flags().StringVar(&logFilterDecision, "decision", "", "Filter by decision (ALLOW, REJECT, DENY_RBAC)")
	logCmd.Flags().StringVar(&logFilterTool, "tool", "", "Filter by tool (kubectl, helm, istioctl, argocd)")
	logCmd.Flags().IntVar(&logLast, "last", 0, "Show last N entries")
	logCmd.Flags().BoolVar(&logSummary, "summary", false, "Show summary statistics")
	rootCmd.AddCommand(logCmd)
}

func logCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(securityConfigPath, auditLogPath, mode)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	events, err := readAuditLog(cfg.AuditLogPath)
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	w := cmd.OutOrStdout()
	if len(events) == 0 {
		fmt.Fprintln(w, "No audit log entries found.")
		return nil
	}

	filtered := filterEvents(events, logFilterDecision, logFilterTool)

	if logLast > 0 && logLast < len(filtered) {
		filtered = filtered[len(filtered)-logLast:]
	}

	if logSummary {
		printSummary(w, events)
		return nil
	}

	printEvents(w, filtered)
	return nil
}

func readAuditLog(path string) ([]logger.AuditEvent, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var events []logger.AuditEvent
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		var event logger.AuditEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue // skip malformed lines
		}
		events = append(events, event)
	}
	return events, scanner.Err()
}

func filterEvents(events []logger.AuditEvent, decision, tool string) []logger.AuditEvent {
	if decision == "" && tool == "" {
		return events
	}

	var filtered []logger.AuditEvent
	for _, e := range events {
		if decision != "" && !strings.EqualFold(e.Decision, decision) {
			continue
		}
		if tool != "" && e.Tool != tool {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

func printEvents(w io.Writer, events []logger.AuditEvent) {
	for _, e := range events {
		fmt.Fprintf(w, "%s %s %s\n", decisionMark(e.Decision), subtleStyle.Render(formatTimestamp(e.Timestamp)), e.Command)

		if e.Reason != "" {
			fmt.Fprintf(w, "     Reason: %s\n", e.Reason)
		}
		if e.ExitCode != nil {
			fmt.Fprintf(w, "     Exit:   %d (%.2fs)\n", *e.ExitCode, e.DurationSeconds)
		}
		if e.Error != "" {
			fmt.Fprintf(w, "     Error:  %s\n", e.Error)
		}
		fmt.Fprintf(w, "     ID:     %s\n", e.ID)
		fmt.Fprintln(w)
	}
}

func printSummary(w io.Writer, all []logger.AuditEvent) {
	counts := map[string]int{}
	tools := map[string]int{}
	failed := 0

	for _, e := range all {
		counts[e.Decision]++
		if e.Tool != "" {
			tools[e.Tool]++
		}
		if e.ExitCode != nil && *e.ExitCode != 0 {
			failed++
		}
	}

	fmt.Fprintln(w, "═══════════════════════════════════════════")
	fmt.Fprintln(w, "  kubeshield Audit Summary")
	fmt.Fprintln(w, "═══════════════════════════════════════════")
	fmt.Fprintf(w, "  Total events:    %d\n", len(all))
	fmt.Fprintf(w, "  ALLOW:           %d\n", counts[logger.DecisionAllow])
	fmt.Fprintf(w, "  REJECT:          %d\n", counts[logger.DecisionReject])
	fmt.Fprintf(w, "  DENY_RBAC:       %d\n", counts[logger.DecisionDenyRBAC])
	fmt.Fprintf(w, "  Failed runs:     %d\n", failed)
	for _, name := range []string{"kubectl", "helm", "istioctl", "argocd"} {
		if tools[name] > 0 {
			fmt.Fprintf(w, "  %-16s %d\n", name+":", tools[name])
		}
	}
	fmt.Fprintln(w, "═══════════════════════════════════════════")

	fmt.Fprintf(w, "  First event:     %s\n", formatTimestamp(all[0].Timestamp))
	fmt.Fprintf(w, "  Last event:      %s\n", formatTimestamp(all[len(all)-1].Timestamp))

	var rejected []logger.AuditEvent
	for _, e := range all {
		if e.Decision == logger.DecisionReject {
			rejected = append(rejected, e)
		}
	}
	if len(rejected) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  Rejected commands:")
		limit := len(rejected)
		if limit > 10 {
			limit = 10
		}
		for _, e := range rejected[len(rejected)-limit:] {
			fmt.Fprintf(w, "    %s %s\n", formatTimestamp(e.Timestamp), e.Command)
		}
	}

	fmt.Fprintln(w)
}

func decisionMark(decision string) string {
	switch decision {
	case logger.DecisionAllow:
		return successStyle.Render("✔")
	case logger.DecisionReject, logger.DecisionDenyRBAC:
		return errorStyle.Render("✘")
	default:
		return "?"
	}
}

func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
