package ast

import (
	"fmt"
	"os"

	"github.com/funvibe/classinfer/internal/token"
	"gopkg.in/yaml.v3"
)

// The YAML form of a translation unit. It is produced by external front ends
// (and written by hand in tests); LoadYAML resolves names while building the
// arena, so the result satisfies the "name-resolved" input contract.
//
//	source: example.sol
//	declarations:
//	  - class: Eq
//	    var: T
//	    functions:
//	      - function: eq
//	        params: [{name: a, type: {ident: T}}, {name: b, type: {ident: T}}]
//	        returns: [{name: r, type: {elementary: bool}}]
//	  - type: Flag
//	    underlying: {elementary: word}
//	  - instantiation: {class: Eq}
//	    target: {ident: Flag}
//	    functions: [...]
//	  - function: main
//	    body:
//	      - let: [{name: x}]
//	        value: {number: "1", unit: ether}
type yamlUnit struct {
	Source       string      `yaml:"source"`
	Declarations []*yamlDecl `yaml:"declarations"`
}

type yamlDecl struct {
	Line   int `yaml:"line,omitempty"`
	Column int `yaml:"column,omitempty"`

	Function string       `yaml:"function,omitempty"`
	Params   []*yamlParam `yaml:"params,omitempty"`
	Returns  []*yamlParam `yaml:"returns,omitempty"`
	Body     []*yamlStmt  `yaml:"body,omitempty"`

	Type       string       `yaml:"type,omitempty"`
	Args       []*yamlParam `yaml:"args,omitempty"`
	Underlying *yamlExpr    `yaml:"underlying,omitempty"`

	Class     string      `yaml:"class,omitempty"`
	Var       *yamlParam  `yaml:"var,omitempty"`
	Functions []*yamlDecl `yaml:"functions,omitempty"`

	Instantiation *yamlClassRef `yaml:"instantiation,omitempty"`
	Target        *yamlExpr     `yaml:"target,omitempty"`
	Sorts         []*yamlParam  `yaml:"sorts,omitempty"`
}

type yamlClassRef struct {
	Class   string `yaml:"class,omitempty"`
	Builtin string `yaml:"builtin,omitempty"`
}

type yamlParam struct {
	Name   string    `yaml:"name"`
	Type   *yamlExpr `yaml:"type,omitempty"`
	Line   int       `yaml:"line,omitempty"`
	Column int       `yaml:"column,omitempty"`
}

type yamlStmt struct {
	Line   int `yaml:"line,omitempty"`
	Column int `yaml:"column,omitempty"`

	Return     *yamlExpr      `yaml:"return,omitempty"`
	ReturnUnit bool           `yaml:"return_unit,omitempty"`
	Let        []*yamlParam   `yaml:"let,omitempty"`
	Value      *yamlExpr      `yaml:"value,omitempty"`
	Expr       *yamlExpr      `yaml:"expr,omitempty"`
	Assembly   []*yamlAsmName `yaml:"assembly,omitempty"`
}

type yamlAsmName struct {
	Name string `yaml:"name"`
	Use  string `yaml:"use,omitempty"` // rvalue (default), lvalue, local
}

type yamlExpr struct {
	Line   int `yaml:"line,omitempty"`
	Column int `yaml:"column,omitempty"`

	Ident      string      `yaml:"ident,omitempty"`
	Path       []string    `yaml:"path,omitempty"`
	Number     string      `yaml:"number,omitempty"`
	Unit       string      `yaml:"unit,omitempty"`
	String     *string     `yaml:"string,omitempty"`
	Bool       *bool       `yaml:"bool,omitempty"`
	Elementary string      `yaml:"elementary,omitempty"`
	Binary     string      `yaml:"binary,omitempty"`
	Left       *yamlExpr   `yaml:"left,omitempty"`
	Right      *yamlExpr   `yaml:"right,omitempty"`
	Call       *yamlExpr   `yaml:"call,omitempty"`
	Args       []*yamlExpr `yaml:"args,omitempty"`
	Tuple      []*yamlExpr `yaml:"tuple,omitempty"`
	Member     string      `yaml:"member,omitempty"`
	Of         *yamlExpr   `yaml:"of,omitempty"`
	Assign     *yamlExpr   `yaml:"assign,omitempty"`
	Value      *yamlExpr   `yaml:"value,omitempty"`
}

type scope struct {
	parent *scope
	names  map[string]Declaration
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, names: make(map[string]Declaration)}
}

func (s *scope) lookup(name string) Declaration {
	for sc := s; sc != nil; sc = sc.parent {
		if d, ok := sc.names[name]; ok {
			return d
		}
	}
	return nil
}

type loader struct {
	b      *Builder
	global *scope
}

// LoadFile reads a YAML translation unit from disk.
func LoadFile(path string) (*SourceUnit, *Arena, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading unit %s: %w", path, err)
	}
	return LoadYAML(data, path)
}

// LoadYAML builds a name-resolved syntax tree from its YAML form.
func LoadYAML(data []byte, source string) (*SourceUnit, *Arena, error) {
	var doc yamlUnit
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", source, err)
	}
	if doc.Source != "" {
		source = doc.Source
	}
	l := &loader{b: NewBuilder(source), global: newScope(nil)}

	// Declarations are created first so that bodies can refer forward.
	decls := make([]Node, len(doc.Declarations))
	for i, d := range doc.Declarations {
		n, err := l.declare(d)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: declarations[%d]: %w", source, i, err)
		}
		decls[i] = n
	}
	for i, d := range doc.Declarations {
		if err := l.fill(decls[i], d, l.global); err != nil {
			return nil, nil, fmt.Errorf("%s: declarations[%d]: %w", source, i, err)
		}
	}
	unit := l.b.SourceUnit(decls...)
	return unit, l.b.Arena(), nil
}

func (l *loader) at(line, column int) {
	if line > 0 {
		l.b.At(line, column)
	}
}

func (l *loader) declare(d *yamlDecl) (Node, error) {
	l.at(d.Line, d.Column)
	switch {
	case d.Function != "":
		fn := l.b.Function(d.Function, nil, nil, nil)
		return fn, l.define(l.global, fn)
	case d.Type != "":
		td := l.b.TypeDef(d.Type, nil, nil)
		return td, l.define(l.global, td)
	case d.Class != "":
		cd := l.b.Class(d.Class, nil)
		return cd, l.define(l.global, cd)
	case d.Instantiation != nil:
		n := &TypeClassInstantiation{}
		l.b.add(n)
		return n, nil
	default:
		return nil, fmt.Errorf("declaration needs one of function, type, class or instantiation")
	}
}

func (l *loader) define(s *scope, d Declaration) error {
	name := d.DeclarationName()
	if _, dup := s.names[name]; dup {
		return fmt.Errorf("%s declared twice", name)
	}
	s.names[name] = d
	return nil
}

func (l *loader) fill(n Node, d *yamlDecl, s *scope) error {
	switch n := n.(type) {
	case *FunctionDefinition:
		return l.fillFunction(n, d, s)
	case *TypeDefinition:
		inner := newScope(s)
		if d.Args != nil {
			args, err := l.params(d.Args, inner, inner)
			if err != nil {
				return err
			}
			n.Arguments = args
		}
		if d.Underlying != nil {
			e, err := l.expr(d.Underlying, inner)
			if err != nil {
				return err
			}
			n.TypeExpression = e
		}
		return nil
	case *TypeClassDefinition:
		inner := newScope(s)
		if d.Var == nil {
			return fmt.Errorf("class %s: var is required", d.Class)
		}
		v, err := l.param(d.Var, inner)
		if err != nil {
			return err
		}
		n.TypeVariable = v
		if err := l.define(inner, v); err != nil {
			return err
		}
		for _, f := range d.Functions {
			l.at(f.Line, f.Column)
			fn := l.b.Function(f.Function, nil, nil, nil)
			if err := l.fillFunction(fn, f, inner); err != nil {
				return fmt.Errorf("class %s: %w", d.Class, err)
			}
			n.Functions = append(n.Functions, fn)
		}
		return nil
	case *TypeClassInstantiation:
		return l.fillInstantiation(n, d, s)
	}
	return fmt.Errorf("unexpected node %s", KindName(n))
}

func (l *loader) fillInstantiation(n *TypeClassInstantiation, d *yamlDecl, s *scope) error {
	ref := d.Instantiation
	switch {
	case ref.Class != "":
		decl := s.lookup(ref.Class)
		n.TypeClass = TypeClassName{Path: l.b.Path(decl, ref.Class)}
		n.TypeClass.Loc = n.TypeClass.Path.Location()
	case ref.Builtin != "":
		k, ok := token.Lookup(ref.Builtin)
		if !ok {
			return fmt.Errorf("unknown builtin class %q", ref.Builtin)
		}
		n.TypeClass = TypeClassName{Builtin: k, Loc: n.Location()}
	default:
		return fmt.Errorf("instantiation needs class or builtin")
	}
	if d.Target == nil {
		return fmt.Errorf("instantiation needs a target type")
	}
	inner := newScope(s)
	if d.Target.Ident != "" {
		l.at(d.Target.Line, d.Target.Column)
		n.TypeConstructor = l.b.Path(s.lookup(d.Target.Ident), d.Target.Ident)
	} else {
		target, err := l.expr(d.Target, s)
		if err != nil {
			return err
		}
		n.TypeConstructor = target
	}
	if d.Sorts != nil {
		sorts, err := l.params(d.Sorts, inner, inner)
		if err != nil {
			return err
		}
		n.ArgumentSorts = sorts
	}
	for _, f := range d.Functions {
		l.at(f.Line, f.Column)
		fn := l.b.Function(f.Function, nil, nil, nil)
		if err := l.fillFunction(fn, f, inner); err != nil {
			return err
		}
		n.Functions = append(n.Functions, fn)
	}
	return nil
}

func (l *loader) fillFunction(fn *FunctionDefinition, d *yamlDecl, s *scope) error {
	inner := newScope(s)
	params, err := l.params(d.Params, inner, s)
	if err != nil {
		return fmt.Errorf("function %s: %w", fn.Name, err)
	}
	fn.Parameters = params
	if d.Returns != nil {
		returns, err := l.params(d.Returns, inner, s)
		if err != nil {
			return fmt.Errorf("function %s: %w", fn.Name, err)
		}
		fn.ReturnParameters = returns
	}
	if d.Body != nil {
		body, err := l.block(d.Body, inner)
		if err != nil {
			return fmt.Errorf("function %s: %w", fn.Name, err)
		}
		fn.Body = body
	}
	return nil
}

// params declares every parameter into def while resolving their type
// expressions in typeScope.
func (l *loader) params(ps []*yamlParam, def, typeScope *scope) (*ParameterList, error) {
	var vars []*VariableDeclaration
	for _, p := range ps {
		v, err := l.param(p, typeScope)
		if err != nil {
			return nil, err
		}
		if p.Name != "" {
			if err := l.define(def, v); err != nil {
				return nil, err
			}
		}
		vars = append(vars, v)
	}
	return l.b.Params(vars...), nil
}

func (l *loader) param(p *yamlParam, s *scope) (*VariableDeclaration, error) {
	var typeExpr Expression
	if p.Type != nil {
		e, err := l.expr(p.Type, s)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		typeExpr = e
	}
	l.at(p.Line, p.Column)
	return l.b.Var(p.Name, typeExpr), nil
}

func (l *loader) block(stmts []*yamlStmt, s *scope) (*Block, error) {
	var out []Node
	for i, st := range stmts {
		n, err := l.stmt(st, s)
		if err != nil {
			return nil, fmt.Errorf("body[%d]: %w", i, err)
		}
		out = append(out, n)
	}
	return l.b.Block(out...), nil
}

func (l *loader) stmt(st *yamlStmt, s *scope) (Node, error) {
	switch {
	case st.Return != nil:
		e, err := l.expr(st.Return, s)
		if err != nil {
			return nil, err
		}
		l.at(st.Line, st.Column)
		return l.b.Return(e), nil
	case st.ReturnUnit:
		l.at(st.Line, st.Column)
		return l.b.Return(nil), nil
	case st.Let != nil:
		var init Expression
		if st.Value != nil {
			e, err := l.expr(st.Value, s)
			if err != nil {
				return nil, err
			}
			init = e
		}
		var decls []*VariableDeclaration
		for _, p := range st.Let {
			v, err := l.param(p, s)
			if err != nil {
				return nil, err
			}
			decls = append(decls, v)
		}
		// Variables become visible after their initializer.
		for _, v := range decls {
			s.names[v.Name] = v
		}
		l.at(st.Line, st.Column)
		return l.b.Let(init, decls...), nil
	case st.Expr != nil:
		e, err := l.expr(st.Expr, s)
		if err != nil {
			return nil, err
		}
		l.at(st.Line, st.Column)
		return l.b.ExprStmt(e), nil
	case st.Assembly != nil:
		return l.assembly(st, s)
	}
	return nil, fmt.Errorf("statement needs one of return, return_unit, let, expr or assembly")
}

func (l *loader) assembly(st *yamlStmt, s *scope) (Node, error) {
	var ids []*AsmIdentifier
	var bound []Declaration
	locals := make(map[string]bool)
	for _, a := range st.Assembly {
		ctx := AsmRValue
		switch a.Use {
		case "", "rvalue":
		case "lvalue":
			ctx = AsmLValue
		case "local":
			ctx = AsmNonExternal
			locals[a.Name] = true
		default:
			return nil, fmt.Errorf("assembly identifier %s: unknown use %q", a.Name, a.Use)
		}
		ids = append(ids, l.b.AsmIdent(a.Name, ctx))
		var decl Declaration
		if ctx != AsmNonExternal && !locals[a.Name] {
			decl = s.lookup(a.Name)
		}
		bound = append(bound, decl)
	}
	l.at(st.Line, st.Column)
	block := l.b.Assembly(ids...)
	for i, id := range ids {
		if bound[i] != nil {
			l.b.BindExternal(block, id, bound[i])
		}
	}
	return block, nil
}

func (l *loader) expr(e *yamlExpr, s *scope) (Expression, error) {
	// Children are built before the node so that l.at applies to the node itself.
	switch {
	case e.Ident != "":
		l.at(e.Line, e.Column)
		return l.b.Ident(e.Ident, s.lookup(e.Ident)), nil
	case e.Path != nil:
		if len(e.Path) == 0 {
			return nil, fmt.Errorf("path needs at least one name")
		}
		l.at(e.Line, e.Column)
		return l.b.Path(s.lookup(e.Path[0]), e.Path...), nil
	case e.Number != "":
		unit := UnitNone
		if e.Unit != "" {
			u, ok := ParseUnit(e.Unit)
			if !ok {
				return nil, fmt.Errorf("unknown unit %q", e.Unit)
			}
			unit = u
		}
		l.at(e.Line, e.Column)
		return l.b.Number(e.Number, unit), nil
	case e.String != nil:
		l.at(e.Line, e.Column)
		return l.b.String(*e.String), nil
	case e.Bool != nil:
		l.at(e.Line, e.Column)
		return l.b.Bool(*e.Bool), nil
	case e.Elementary != "":
		k, ok := token.Lookup(e.Elementary)
		if !ok || !k.IsElementaryTypeName() {
			return nil, fmt.Errorf("unknown elementary type %q", e.Elementary)
		}
		l.at(e.Line, e.Column)
		return l.b.Elementary(k), nil
	case e.Binary != "":
		op, ok := token.Lookup(e.Binary)
		if !ok {
			return nil, fmt.Errorf("unknown operator %q", e.Binary)
		}
		if e.Left == nil || e.Right == nil {
			return nil, fmt.Errorf("binary %s needs left and right", e.Binary)
		}
		left, err := l.expr(e.Left, s)
		if err != nil {
			return nil, err
		}
		right, err := l.expr(e.Right, s)
		if err != nil {
			return nil, err
		}
		l.at(e.Line, e.Column)
		return l.b.Binary(op, left, right), nil
	case e.Call != nil:
		callee, err := l.expr(e.Call, s)
		if err != nil {
			return nil, err
		}
		args, err := l.exprs(e.Args, s)
		if err != nil {
			return nil, err
		}
		l.at(e.Line, e.Column)
		return l.b.Call(callee, args...), nil
	case e.Tuple != nil:
		comps, err := l.exprs(e.Tuple, s)
		if err != nil {
			return nil, err
		}
		l.at(e.Line, e.Column)
		return l.b.Tuple(comps...), nil
	case e.Member != "":
		if e.Of == nil {
			return nil, fmt.Errorf("member %s needs of", e.Member)
		}
		obj, err := l.expr(e.Of, s)
		if err != nil {
			return nil, err
		}
		l.at(e.Line, e.Column)
		return l.b.Member(obj, e.Member), nil
	case e.Assign != nil:
		if e.Value == nil {
			return nil, fmt.Errorf("assign needs value")
		}
		left, err := l.expr(e.Assign, s)
		if err != nil {
			return nil, err
		}
		right, err := l.expr(e.Value, s)
		if err != nil {
			return nil, err
		}
		l.at(e.Line, e.Column)
		return l.b.Assign(left, right), nil
	}
	return nil, fmt.Errorf("empty expression")
}

func (l *loader) exprs(es []*yamlExpr, s *scope) ([]Expression, error) {
	out := make([]Expression, 0, len(es))
	for _, e := range es {
		x, err := l.expr(e, s)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}
