package docgen

import (
	"strings"

	"github.com/roach88/veryl-go/internal/syntax"
)

type markdown struct {
	name string
	kind string
	sb   strings.Builder
}

func (m *markdown) String() string { return m.sb.String() }

func (m *markdown) line(s string) {
	m.sb.WriteString(s)
	m.sb.WriteByte('\n')
}

func (m *markdown) doc(lines []string) {
	if len(lines) == 0 {
		return
	}
	m.line("")
	for _, l := range lines {
		m.line(l)
	}
}

func (m *markdown) table(head []string, rows [][]string) {
	m.line("")
	m.line("| " + strings.Join(head, " | ") + " |")
	m.line(strings.Repeat("|---", len(head)) + "|")
	for _, r := range rows {
		m.line("| " + strings.Join(r, " | ") + " |")
	}
}

func (m *markdown) section(title string, head []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	m.line("")
	m.line("## " + title)
	m.table(head, rows)
}

func code(s string) string {
	if s == "" {
		return ""
	}
	return "`" + cell(s) + "`"
}

// cell escapes s for use inside a table cell.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func docText(lines []string) string {
	return cell(strings.Join(lines, " "))
}

// declText is the source line declaring tok, without a trailing comma or
// semicolon.
func declText(f *syntax.File, tok syntax.Token) string {
	s := strings.TrimSpace(f.Line(tok.Line))
	if i := strings.Index(s, "//"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return strings.TrimRight(s, ",;{ ")
}

func heading(kind string, name syntax.Token, proto bool) string {
	if proto {
		kind = "proto " + kind
	}
	return "# " + kind + " " + name.Text
}

func paramRows(f *syntax.File, params []*syntax.ParamDecl) [][]string {
	rows := make([][]string, 0, len(params))
	for _, p := range params {
		rows = append(rows, []string{code(p.Name.Text), code(declText(f, p.Tok)), docText(p.Doc)})
	}
	return rows
}

func genericRows(generics []syntax.GenericParam) [][]string {
	rows := make([][]string, 0, len(generics))
	for _, p := range generics {
		rows = append(rows, []string{code(p.Name.Text), boundText(p)})
	}
	return rows
}

func boundText(p syntax.GenericParam) string {
	switch p.Bound {
	case syntax.BoundType:
		return "type"
	case syntax.BoundInst:
		return "inst " + code(p.Proto.String())
	case syntax.BoundProto:
		return code(p.Proto.String())
	}
	return "const"
}

func moduleMarkdown(f *syntax.File, d *syntax.ModuleDecl) *markdown {
	m := &markdown{name: d.Name.Text, kind: "module"}
	m.line(heading("module", d.Name, d.Proto))
	m.doc(d.Doc)
	m.section("Generic Parameters", []string{"Name", "Bound"}, genericRows(d.Generics))
	m.section("Parameters", []string{"Name", "Declaration", "Description"}, paramRows(f, d.Params))

	rows := make([][]string, 0, len(d.Ports))
	for _, p := range d.Ports {
		rows = append(rows, []string{code(p.Name.Text), p.Direction.String(), code(declText(f, p.Name)), docText(p.Doc)})
	}
	m.section("Ports", []string{"Name", "Direction", "Declaration", "Description"}, rows)
	return m
}

func interfaceMarkdown(f *syntax.File, d *syntax.InterfaceDecl) *markdown {
	m := &markdown{name: d.Name.Text, kind: "interface"}
	m.line(heading("interface", d.Name, d.Proto))
	m.doc(d.Doc)
	m.section("Generic Parameters", []string{"Name", "Bound"}, genericRows(d.Generics))
	m.section("Parameters", []string{"Name", "Declaration", "Description"}, paramRows(f, d.Params))

	var vars, modports [][]string
	for _, decl := range d.Body {
		switch decl := decl.(type) {
		case *syntax.VarDecl:
			vars = append(vars, []string{code(decl.Name.Text), code(declText(f, decl.Tok)), docText(decl.Doc)})
		case *syntax.ModportDecl:
			items := make([]string, len(decl.Items))
			for i, it := range decl.Items {
				items[i] = it.Name.Text + ": " + it.Direction.String()
			}
			modports = append(modports, []string{code(decl.Name.Text), cell(strings.Join(items, ", "))})
		}
	}
	m.section("Variables", []string{"Name", "Declaration", "Description"}, vars)
	m.section("Modports", []string{"Name", "Members"}, modports)
	return m
}

func packageMarkdown(f *syntax.File, d *syntax.PackageDecl) *markdown {
	m := &markdown{name: d.Name.Text, kind: "package"}
	m.line(heading("package", d.Name, d.Proto))
	m.doc(d.Doc)
	m.section("Generic Parameters", []string{"Name", "Bound"}, genericRows(d.Generics))

	var consts, types, funcs [][]string
	for _, decl := range d.Body {
		switch decl := decl.(type) {
		case *syntax.ConstDecl:
			consts = append(consts, []string{code(decl.Name.Text), code(declText(f, decl.Tok)), docText(decl.Doc)})
		case *syntax.StructDecl:
			types = append(types, []string{code(decl.Name.Text), code(declText(f, decl.Tok)), docText(decl.Doc)})
		case *syntax.EnumDecl:
			types = append(types, []string{code(decl.Name.Text), code(declText(f, decl.Tok)), docText(decl.Doc)})
		case *syntax.TypeDefDecl:
			types = append(types, []string{code(decl.Name.Text), code(declText(f, decl.Tok)), docText(decl.Doc)})
		case *syntax.FunctionDecl:
			funcs = append(funcs, []string{code(decl.Name.Text), code(declText(f, decl.Tok)), docText(decl.Doc)})
		}
	}
	m.section("Constants", []string{"Name", "Declaration", "Description"}, consts)
	m.section("Types", []string{"Name", "Declaration", "Description"}, types)
	m.section("Functions", []string{"Name", "Declaration", "Description"}, funcs)
	return m
}
