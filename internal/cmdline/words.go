package cmdline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ErrUnsupportedSyntax is returned for shell constructs the gateway refuses
// to tokenize: statement lists, background jobs, substitutions, subshells
// and similar.
var ErrUnsupportedSyntax = errors.New("unsupported shell syntax")

// Words splits a single command into argv-style words. Quotes are removed and
// backslash escapes resolved, but nothing is expanded: "$HOME" stays
// "$HOME". Redirection operators are kept as words in source order. An empty
// command yields no words and no error.
func Words(command string) ([]string, error) {
	stages, err := Stages(command)
	if err != nil {
		return nil, err
	}
	switch len(stages) {
	case 0:
		return nil, nil
	case 1:
		return stages[0], nil
	default:
		return nil, fmt.Errorf("%w: pipeline where a single command was expected", ErrUnsupportedSyntax)
	}
}

// Stages parses command with a bash parser and returns the words of every
// pipeline stage in execution order. Only '|' and '|&' may join stages.
func Stages(command string) ([][]string, error) {
	parser := syntax.NewParser(syntax.KeepComments(false), syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	switch len(file.Stmts) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, fmt.Errorf("%w: %d statements", ErrUnsupportedSyntax, len(file.Stmts))
	}

	var stages [][]string
	if err := collectStages(file.Stmts[0], &stages); err != nil {
		return nil, err
	}
	return stages, nil
}

func collectStages(stmt *syntax.Stmt, out *[][]string) error {
	if stmt.Background || stmt.Coprocess || stmt.Negated {
		return fmt.Errorf("%w: background, coprocess or negated statement", ErrUnsupportedSyntax)
	}

	switch cmd := stmt.Cmd.(type) {
	case *syntax.CallExpr:
		words, err := callWords(cmd, stmt.Redirs)
		if err != nil {
			return err
		}
		*out = append(*out, words)
		return nil

	case *syntax.BinaryCmd:
		if cmd.Op != syntax.Pipe && cmd.Op != syntax.PipeAll {
			return fmt.Errorf("%w: operator %s", ErrUnsupportedSyntax, cmd.Op)
		}
		if len(stmt.Redirs) > 0 {
			return fmt.Errorf("%w: redirection of a whole pipeline", ErrUnsupportedSyntax)
		}
		if err := collectStages(cmd.X, out); err != nil {
			return err
		}
		return collectStages(cmd.Y, out)

	case nil:
		return fmt.Errorf("%w: redirection without a command", ErrUnsupportedSyntax)

	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedSyntax, cmd)
	}
}

type token struct {
	offset uint
	values []string
}

func callWords(call *syntax.CallExpr, redirs []*syntax.Redirect) ([]string, error) {
	if len(call.Assigns) > 0 {
		return nil, fmt.Errorf("%w: environment assignment", ErrUnsupportedSyntax)
	}

	tokens := make([]token, 0, len(call.Args)+len(redirs))
	for _, word := range call.Args {
		value, err := literal(word)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token{offset: word.Pos().Offset(), values: []string{value}})
	}

	for _, redir := range redirs {
		if redir.Op == syntax.Hdoc || redir.Op == syntax.DashHdoc || redir.Word == nil {
			return nil, fmt.Errorf("%w: here-document", ErrUnsupportedSyntax)
		}
		op := redir.Op.String()
		opEnd := redir.OpPos.Offset() + uint(len(op))
		if redir.N != nil {
			op = redir.N.Value + op
		}
		target, err := literal(redir.Word)
		if err != nil {
			return nil, err
		}
		// "2>&1" stays one word, "> out.txt" stays two.
		values := []string{op, target}
		if redir.Word.Pos().Offset() == opEnd {
			values = []string{op + target}
		}
		tokens = append(tokens, token{offset: redir.Pos().Offset(), values: values})
	}

	sort.SliceStable(tokens, func(i, j int) bool { return tokens[i].offset < tokens[j].offset })

	words := make([]string, 0, len(tokens))
	for _, t := range tokens {
		words = append(words, t.values...)
	}
	return words, nil
}

// literal renders a word the way it would reach the program after quote
// removal, without performing any expansion.
func literal(word *syntax.Word) (string, error) {
	var sb strings.Builder
	for _, part := range word.Parts {
		if err := writePart(&sb, part, false); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func writePart(sb *strings.Builder, part syntax.WordPart, quoted bool) error {
	switch p := part.(type) {
	case *syntax.Lit:
		sb.WriteString(unescape(p.Value, quoted))
	case *syntax.SglQuoted:
		sb.WriteString(p.Value)
	case *syntax.DblQuoted:
		for _, inner := range p.Parts {
			if err := writePart(sb, inner, true); err != nil {
				return err
			}
		}
	case *syntax.ParamExp, *syntax.ExtGlob, *syntax.BraceExp:
		if err := checkNested(part); err != nil {
			return err
		}
		printer := syntax.NewPrinter()
		if err := printer.Print(sb, &syntax.Word{Parts: []syntax.WordPart{part}}); err != nil {
			return fmt.Errorf("failed to print word: %w", err)
		}
	case *syntax.CmdSubst, *syntax.ProcSubst:
		return fmt.Errorf("%w: command substitution", ErrUnsupportedSyntax)
	case *syntax.ArithmExp:
		return fmt.Errorf("%w: arithmetic expansion", ErrUnsupportedSyntax)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedSyntax, part)
	}
	return nil
}

// checkNested rejects substitutions hidden inside an expansion that is
// otherwise kept verbatim, such as "${X:-$(id)}".
func checkNested(part syntax.WordPart) error {
	var err error
	syntax.Walk(part, func(node syntax.Node) bool {
		if err != nil {
			return false
		}
		switch n := node.(type) {
		case *syntax.CmdSubst, *syntax.ProcSubst:
			err = fmt.Errorf("%w: command substitution", ErrUnsupportedSyntax)
		case *syntax.Lit:
			// The parser keeps "<(" literal inside "${X:-...}".
			if strings.Contains(n.Value, "<(") || strings.Contains(n.Value, ">(") {
				err = fmt.Errorf("%w: process substitution", ErrUnsupportedSyntax)
			}
		case *syntax.ArithmExp:
			err = fmt.Errorf("%w: arithmetic expansion", ErrUnsupportedSyntax)
		}
		return err == nil
	})
	return err
}

// unescape resolves backslash escapes in a literal. Outside double quotes a
// backslash escapes any character; inside them only $ ` " \ and newline.
func unescape(s string, quoted bool) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			sb.WriteByte(c)
			continue
		}
		next := s[i+1]
		switch {
		case next == '\n':
			i++
		case !quoted || strings.IndexByte("$`\"\\", next) >= 0:
			sb.WriteByte(next)
			i++
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
