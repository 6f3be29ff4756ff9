// Package util holds small helpers shared by internal packages.
package util

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"text/template/parse"
)

// RenderTemplate replaces template variables using Go's text/template package.
// Text without "{{" is returned unchanged. Missing top-level keys render as "".
// This lives in internal to avoid committing to public API stability prematurely.
func RenderTemplate(text string, data map[string]any) (string, error) {
	if !strings.Contains(text, "{{") { // fast path: no template markers
		return text, nil
	}

	tmpl, err := template.New("prompt").Funcs(template.FuncMap{
		"default": func(defaultVal any, val any) any {
			if val == nil || val == "" {
				return defaultVal
			}
			return val
		},
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"join": func(sep string, items any) string {
			switch v := items.(type) {
			case []string:
				return strings.Join(v, sep)
			case []any:
				strItems := make([]string, len(v))
				for i, item := range v {
					strItems[i] = fmt.Sprintf("%v", item)
				}
				return strings.Join(strItems, sep)
			default:
				return fmt.Sprintf("%v", items)
			}
		},
	}).Parse(text)
	if err != nil {
		return "", err
	}

	seeded := make(map[string]any, len(data))
	for k, v := range data {
		seeded[k] = v
	}
	if tmpl.Tree != nil {
		for _, key := range fieldKeys(tmpl.Tree.Root) {
			if _, ok := seeded[key]; !ok {
				seeded[key] = ""
			}
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, seeded); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fieldKeys lists the first identifier of every field reference (.name or
// $.name) in the tree.
func fieldKeys(node parse.Node) []string {
	var keys []string
	var walk func(n parse.Node)
	walk = func(n parse.Node) {
		switch n := n.(type) {
		case *parse.ListNode:
			if n == nil {
				return
			}
			for _, c := range n.Nodes {
				walk(c)
			}
		case *parse.ActionNode:
			walk(n.Pipe)
		case *parse.IfNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.RangeNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.WithNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.TemplateNode:
			walk(n.Pipe)
		case *parse.PipeNode:
			if n == nil {
				return
			}
			for _, c := range n.Cmds {
				walk(c)
			}
		case *parse.CommandNode:
			for _, a := range n.Args {
				walk(a)
			}
		case *parse.FieldNode:
			keys = append(keys, n.Ident[0])
		case *parse.VariableNode:
			if len(n.Ident) > 1 && n.Ident[0] == "$" {
				keys = append(keys, n.Ident[1])
			}
		case *parse.ChainNode:
			walk(n.Node)
		}
	}
	walk(node)
	return keys
}
