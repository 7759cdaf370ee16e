package cmdline

import (
	"errors"
	"reflect"
	"testing"
)

func TestWords(t *testing.T) {
	tests := []struct {
		command string
		want    []string
	}{
		{"kubectl get pods", []string{"kubectl", "get", "pods"}},
		{"  kubectl   get  pods  ", []string{"kubectl", "get", "pods"}},
		{
			`kubectl get pods -o jsonpath='{.items[*].metadata.name}'`,
			[]string{"kubectl", "get", "pods", "-o", "jsonpath={.items[*].metadata.name}"},
		},
		{
			`kubectl exec -it web -- sh -c "ls -la | wc -l"`,
			[]string{"kubectl", "exec", "-it", "web", "--", "sh", "-c", "ls -la | wc -l"},
		},
		{`kubectl get pod my\ pod`, []string{"kubectl", "get", "pod", "my pod"}},
		{`kubectl annotate pod web note="say \"hi\""`, []string{"kubectl", "annotate", "pod", "web", `note=say "hi"`}},
		{`kubectl logs $POD`, []string{"kubectl", "logs", "$POD"}},
		{`kubectl logs "${POD}"`, []string{"kubectl", "logs", "${POD}"}},
		{"kubectl get pods 2>&1", []string{"kubectl", "get", "pods", "2>&1"}},
		{"kubectl get pods > out.txt", []string{"kubectl", "get", "pods", ">", "out.txt"}},
		{"", nil},
		{"   ", nil},
	}

	for _, tt := range tests {
		got, err := Words(tt.command)
		if err != nil {
			t.Errorf("Words(%q) unexpected error: %v", tt.command, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Words(%q) = %q, want %q", tt.command, got, tt.want)
		}
	}
}

func TestWords_RejectsShellConstructs(t *testing.T) {
	commands := []string{
		"kubectl get pods; rm -rf /",
		"kubectl get pods && rm -rf /",
		"kubectl get pods || rm -rf /",
		"kubectl get pods &",
		"kubectl get $(whoami)",
		"kubectl get `whoami`",
		"kubectl get <(cat /etc/passwd)",
		"kubectl scale --replicas=$((1+1)) deploy/web",
		"KUBECONFIG=/tmp/x kubectl get pods",
		"(kubectl get pods)",
		"{ kubectl get pods; }",
		"kubectl get pods | grep x",
		"kubectl apply -f - <<EOF\nx\nEOF",
		"kubectl get ${X:-$(id)}",
		"kubectl get ${X:-<(id)}",
		"kubectl get \"${X:-`id`}\"",
		"kubectl get ${X:-${Y:-$(id)}}",
		"kubectl get ${X:-$((1+1))}",
		"kubectl get {a,$(id)}",
	}

	for _, cmd := range commands {
		if _, err := Words(cmd); !errors.Is(err, ErrUnsupportedSyntax) {
			t.Errorf("Words(%q): expected ErrUnsupportedSyntax, got %v", cmd, err)
		}
	}
}

func TestWords_ParseError(t *testing.T) {
	if _, err := Words("kubectl get 'unterminated"); err == nil {
		t.Fatal("expected a parse error for an unterminated quote")
	}
}

func TestStages(t *testing.T) {
	got, err := Stages(`kubectl get pods -A | grep "Crash|Error" | wc -l`)
	if err != nil {
		t.Fatalf("Stages: %v", err)
	}
	want := [][]string{
		{"kubectl", "get", "pods", "-A"},
		{"grep", "Crash|Error"},
		{"wc", "-l"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Stages = %q, want %q", got, want)
	}

	got, err = Stages("kubectl logs web |& tail -n 5")
	if err != nil {
		t.Fatalf("Stages with |&: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 stages for |&, got %d", len(got))
	}

	if _, err := Stages("kubectl get pods || echo failed"); !errors.Is(err, ErrUnsupportedSyntax) {
		t.Errorf("expected ErrUnsupportedSyntax for ||, got %v", err)
	}
}
