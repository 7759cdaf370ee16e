package registry

import "testing"

func TestLookup(t *testing.T) {
	for _, name := range []string{"kubectl", "helm", "istioctl", "argocd"} {
		tool, ok := Lookup(name)
		if !ok {
			t.Fatalf("expected %s to be registered", name)
		}
		if tool.Name != name {
			t.Errorf("Lookup(%q).Name = %q", name, tool.Name)
		}
		if tool.HelpFlag != "--help" {
			t.Errorf("%s: expected --help flag, got %q", name, tool.HelpFlag)
		}
		if tool.CheckCommand == "" {
			t.Errorf("%s: missing check command", name)
		}
	}

	if IsTool("bash") {
		t.Error("bash must not be a registered tool")
	}
}

func TestToolsSorted(t *testing.T) {
	got := Names()
	want := []string{"argocd", "helm", "istioctl", "kubectl"}
	if len(got) != len(want) {
		t.Fatalf("expected %d names, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if len(Tools()) != len(want) {
		t.Errorf("Tools() length mismatch")
	}
}

func TestIsUtility(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"grep", true},
		{"jq", true},
		{"wc", true},
		{"bash", false},
		{"sh", false},
		{"python", false},
		{"kubectl", false},
	}
	for _, tt := range tests {
		if got := IsUtility(tt.name); got != tt.want {
			t.Errorf("IsUtility(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
