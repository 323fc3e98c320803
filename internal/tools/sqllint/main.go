// Command sqllint checks that every SQL statement literal starts with a
// `--sql <uuid>` marker and that no marker is used twice. SQLRunner rejects
// unmarked statements at runtime and logs each call under its marker.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	sqlMarkerPattern  = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with|create)\b`)
	uuidMarkerPattern = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

type violation struct {
	file    string
	name    string
	line    int
	message string
}

type statement struct {
	file   string
	name   string
	line   int
	marker string
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"."}
	}

	violations, err := lint(targets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
		os.Exit(1)
	}
	if len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "sqllint: SQL marker violations")
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "  %s:%d %s (%s)\n", v.file, v.line, v.message, v.name)
		}
		os.Exit(1)
	}
}

func lint(targets []string) ([]violation, error) {
	var stmts []statement
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if filepath.Ext(target) == ".go" {
				found, err := collectFile(target)
				if err != nil {
					return nil, err
				}
				stmts = append(stmts, found...)
			}
			continue
		}
		err = filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != target && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			found, err := collectFile(path)
			if err != nil {
				return err
			}
			stmts = append(stmts, found...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return check(stmts), nil
}

func check(stmts []statement) []violation {
	var violations []violation
	seen := make(map[string]statement, len(stmts))
	for _, s := range stmts {
		if !uuidMarkerPattern.MatchString(s.marker) {
			violations = append(violations, violation{file: s.file, line: s.line, name: s.name, message: "missing or invalid --sql <uuid> marker"})
			continue
		}
		if prev, ok := seen[s.marker]; ok {
			violations = append(violations, violation{
				file:    s.file,
				line:    s.line,
				name:    s.name,
				message: fmt.Sprintf("marker already used by %s at %s:%d", prev.name, prev.file, prev.line),
			})
			continue
		}
		seen[s.marker] = s
	}
	return violations
}

func collectFile(path string) ([]statement, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	var stmts []statement
	ast.Inspect(file, func(n ast.Node) bool {
		vs, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for _, value := range vs.Values {
			bl, ok := value.(*ast.BasicLit)
			if !ok || bl.Kind != token.STRING {
				continue
			}
			raw, err := unquote(bl.Value)
			if err != nil || !sqlMarkerPattern.MatchString(raw) {
				continue
			}
			stmts = append(stmts, statement{
				file:   path,
				name:   joinNames(vs.Names),
				line:   fset.Position(bl.Pos()).Line,
				marker: firstLine(raw),
			})
		}
		return true
	})
	return stmts, nil
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) == 0 {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}

func joinNames(idents []*ast.Ident) string {
	parts := make([]string, 0, len(idents))
	for _, ident := range idents {
		if ident == nil {
			continue
		}
		parts = append(parts, ident.Name)
	}
	return strings.Join(parts, ",")
}
