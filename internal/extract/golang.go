package extract

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strconv"
	"strings"
)

// Go extracts imports, named types with their methods and functions from Go
// sources using the standard parser.
type Go struct{}

func (Go) Language() string     { return "go" }
func (Go) Extensions() []string { return []string{".go"} }

func (Go) Extract(path string, src []byte) (*Facts, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}
	facts := &Facts{Path: path, Language: "go"}
	line := func(p token.Pos) int { return fset.Position(p).Line }

	for _, imp := range file.Imports {
		target, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		// Standard library paths have no dot in their first element.
		first, _, _ := strings.Cut(target, "/")
		facts.Includes = append(facts.Includes, Include{Target: target, System: !strings.Contains(first, ".")})
	}

	classIndex := make(map[string]int)
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			kind := "type"
			switch ts.Type.(type) {
			case *ast.StructType:
				kind = "struct"
			case *ast.InterfaceType:
				kind = "interface"
			}
			classIndex[ts.Name.Name] = len(facts.Classes)
			facts.Classes = append(facts.Classes, Class{
				Name:      ts.Name.Name,
				Kind:      kind,
				LineStart: line(ts.Pos()),
				LineEnd:   line(ts.End()),
			})
		}
	}

	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		fn := Function{
			Name:      fd.Name.Name,
			Signature: goSignature(fd),
			LineStart: line(fd.Pos()),
			LineEnd:   line(fd.End()),
		}
		if recv := receiverType(fd); recv != "" {
			if i, ok := classIndex[recv]; ok {
				facts.Classes[i].Methods = append(facts.Classes[i].Methods, fn)
				continue
			}
		}
		facts.Functions = append(facts.Functions, fn)
	}
	return facts, nil
}

func goSignature(fd *ast.FuncDecl) string {
	var b strings.Builder
	b.WriteString("func ")
	if fd.Recv != nil && len(fd.Recv.List) > 0 {
		b.WriteString("(")
		b.WriteString(types.ExprString(fd.Recv.List[0].Type))
		b.WriteString(") ")
	}
	b.WriteString(fd.Name.Name)
	b.WriteString(strings.TrimPrefix(types.ExprString(fd.Type), "func"))
	return b.String()
}

func receiverType(fd *ast.FuncDecl) string {
	if fd.Recv == nil || len(fd.Recv.List) == 0 {
		return ""
	}
	expr := fd.Recv.List[0].Type
	for {
		switch t := expr.(type) {
		case *ast.StarExpr:
			expr = t.X
		case *ast.IndexExpr:
			expr = t.X
		case *ast.IndexListExpr:
			expr = t.X
		case *ast.Ident:
			return t.Name
		default:
			return ""
		}
	}
}
