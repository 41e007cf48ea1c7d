// Package docgen renders the doc comments of modules, interfaces and
// packages to HTML pages.
package docgen

import (
	"bytes"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/roach88/veryl-go/internal/syntax"
)

// Page is the documentation of one component.
type Page struct {
	Name     string
	Kind     string
	Summary  string
	Markdown string
	HTML     []byte
}

// FileName is the name the page is written under.
func (p *Page) FileName() string { return p.Name + ".html" }

// Generator renders pages for one project.
type Generator struct {
	project string
	md      goldmark.Markdown
}

// New returns a generator for project.
func New(project string) *Generator {
	return &Generator{
		project: project,
		md:      goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

// Pages renders one page per module, interface and package, in source
// order. Proto declarations are documented like the others.
func (g *Generator) Pages(files []*syntax.File) ([]*Page, error) {
	var pages []*Page
	for _, f := range files {
		for _, it := range f.Items {
			var md *markdown
			switch d := it.(type) {
			case *syntax.ModuleDecl:
				md = moduleMarkdown(f, d)
			case *syntax.InterfaceDecl:
				md = interfaceMarkdown(f, d)
			case *syntax.PackageDecl:
				md = packageMarkdown(f, d)
			default:
				continue
			}
			p, err := g.render(md.name, md.kind, md.String())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", md.name, err)
			}
			pages = append(pages, p)
		}
	}
	slog.Debug("rendered documentation", "project", g.project, "pages", len(pages))
	return pages, nil
}

// Index renders the project page linking to every page.
func (g *Generator) Index(pages []*Page) (*Page, error) {
	md := &markdown{name: "index"}
	md.line("# " + g.project)
	for _, kind := range []string{"module", "interface", "package"} {
		var rows [][]string
		for _, p := range pages {
			if p.Kind == kind {
				rows = append(rows, []string{"[" + p.Name + "](" + p.FileName() + ")", cell(p.Summary)})
			}
		}
		if len(rows) == 0 {
			continue
		}
		md.line("")
		md.line("## " + titles[kind])
		md.table([]string{"Name", "Description"}, rows)
	}
	return g.render("index", "", md.String())
}

var titles = map[string]string{
	"module":    "Modules",
	"interface": "Interfaces",
	"package":   "Packages",
}

func (g *Generator) render(name, kind, source string) (*Page, error) {
	src := []byte(source)
	doc := g.md.Parser().Parse(text.NewReader(src))

	var body bytes.Buffer
	if err := g.md.Renderer().Render(&body, src, doc); err != nil {
		return nil, err
	}

	title := g.project
	if kind != "" {
		title += ": " + name
	}
	var out bytes.Buffer
	fmt.Fprintf(&out, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n",
		html.EscapeString(title))
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")

	return &Page{
		Name:     name,
		Kind:     kind,
		Summary:  summary(doc, src),
		Markdown: source,
		HTML:     out.Bytes(),
	}, nil
}

// summary returns the text of the first paragraph of doc.
func summary(doc ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		p, ok := n.(*ast.Paragraph)
		if !ok {
			return ast.WalkContinue, nil
		}
		_ = ast.Walk(p, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if t, ok := n.(*ast.Text); ok && entering {
				buf.Write(t.Segment.Value(src))
				if t.SoftLineBreak() {
					buf.WriteByte(' ')
				}
			}
			return ast.WalkContinue, nil
		})
		return ast.WalkStop, nil
	})
	return strings.TrimSpace(buf.String())
}
