// Command sqllint checks that every inline SQL constant carries the
// "--sql <uuid>" marker line SQLRunner requires, and that no two constants
// share a marker, so a marker in the logs always identifies one statement.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	sqlPattern    = regexp.MustCompile(`(?i)\b(select|insert|update|delete|create|with)\b`)
	markerPattern = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

type sqlConst struct {
	file   string
	name   string
	line   int
	marker string
}

type problem struct {
	file    string
	name    string
	line    int
	message string
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"./internal/sqlinline"}
	}

	var consts []sqlConst
	var problems []problem
	for _, target := range targets {
		cs, ps, err := scanTarget(target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(1)
		}
		consts = append(consts, cs...)
		problems = append(problems, ps...)
	}

	seen := make(map[string]sqlConst, len(consts))
	for _, c := range consts {
		if prev, dup := seen[c.marker]; dup {
			problems = append(problems, problem{
				file:    c.file,
				name:    c.name,
				line:    c.line,
				message: fmt.Sprintf("marker already used by %s (%s:%d)", prev.name, prev.file, prev.line),
			})
			continue
		}
		seen[c.marker] = c
	}

	if len(problems) > 0 {
		fmt.Fprintln(os.Stderr, "sqllint: SQL marker violations")
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "  %s:%d %s (%s)\n", p.file, p.line, p.message, p.name)
		}
		os.Exit(1)
	}
}

func scanTarget(target string) ([]sqlConst, []problem, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		if filepath.Ext(target) != ".go" {
			return nil, nil, nil
		}
		return scanFile(target)
	}

	var consts []sqlConst
	var problems []problem
	err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		cs, ps, err := scanFile(path)
		if err != nil {
			return err
		}
		consts = append(consts, cs...)
		problems = append(problems, ps...)
		return nil
	})
	return consts, problems, err
}

func scanFile(path string) ([]sqlConst, []problem, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, nil, err
	}

	var consts []sqlConst
	var problems []problem
	ast.Inspect(file, func(n ast.Node) bool {
		spec, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for _, value := range spec.Values {
			lit, ok := value.(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				continue
			}
			raw, err := unquote(lit.Value)
			if err != nil || !sqlPattern.MatchString(raw) {
				continue
			}
			pos := fset.Position(lit.Pos())
			marker := firstLine(raw)
			if !markerPattern.MatchString(marker) {
				problems = append(problems, problem{
					file:    path,
					name:    specName(spec),
					line:    pos.Line,
					message: "missing or invalid --sql <uuid> marker",
				})
				continue
			}
			consts = append(consts, sqlConst{
				file:   path,
				name:   specName(spec),
				line:   pos.Line,
				marker: marker,
			})
		}
		return true
	})
	return consts, problems, nil
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

func specName(spec *ast.ValueSpec) string {
	names := make([]string, 0, len(spec.Names))
	for _, ident := range spec.Names {
		if ident != nil {
			names = append(names, ident.Name)
		}
	}
	return strings.Join(names, ",")
}
