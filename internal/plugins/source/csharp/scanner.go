package csharp

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/efebarandurmaz/blueprint/internal/ir"
)

// The scanner splits a C# file into segments at top-level braces and
// semicolons, classifies each segment header and builds the ir node tree
// alongside the declaration tables the binder needs. It is a structural
// scanner in the same spirit as the other source plugins: regular
// expressions over segment headers, no grammar.

type typeDecl struct {
	ns      string
	name    string
	node    *ir.Node
	fields  map[string]string // field/property name -> declared type text
	methods map[string]*methodDecl
}

func (t *typeDecl) qualified() string {
	if t.ns == "" {
		return t.name
	}
	return t.ns + "." + t.name
}

type methodDecl struct {
	name       string
	returnType string // declared type text, "" for constructors and void
	ctor       bool
	node       *ir.Node
	owner      *typeDecl
	locals     map[string]string // params and locals, name -> type text
}

type fileParse struct {
	unit  *ir.CompilationUnit
	types []*typeDecl
}

var (
	namespaceRe = regexp.MustCompile(`^namespace\s+([\w.]+)$`)
	classRe     = regexp.MustCompile(`(?:^|\s)(?:class|struct|interface|record)\s+(\w+)`)
	memberRe    = regexp.MustCompile(`^([\w.<>\[\],?\s]*?)\s*(\w+)\s*(?:<[^>]*>)?\s*\((.*)\)\s*(?::\s*(?:base|this)\s*\(.*\))?$`)
	fieldRe     = regexp.MustCompile(`^([\w.<>\[\],?]+)\s+(\w+)\s*(?:=\s*(.+))?$`)
	localRe     = regexp.MustCompile(`^([\w.<>\[\],?]+)\s+(\w+)\s*(?:=\s*(.+))?$`)
	foreachRe   = regexp.MustCompile(`^(?:var|[\w.<>\[\],?]+)\s+(\w+)\s+in\s+(.+)$`)
	newTypeRe   = regexp.MustCompile(`^new\s+([\w.]+)`)
	attributeRe = regexp.MustCompile(`^(?:\[[^\]]*\]\s*)+`)
)

var modifierWords = map[string]bool{
	"public": true, "private": true, "protected": true, "internal": true,
	"static": true, "virtual": true, "override": true, "sealed": true,
	"async": true, "abstract": true, "partial": true, "readonly": true,
	"const": true, "new": true, "extern": true, "unsafe": true,
}

var statementKeywords = map[string]bool{
	"return": true, "throw": true, "await": true, "yield": true,
	"break": true, "continue": true, "goto": true, "using": true,
	"case": true, "default": true, "else": true, "if": true,
	"while": true, "for": true, "foreach": true, "switch": true,
	"new": true,
}

type frame struct {
	node *ir.Node
	typ  *typeDecl
	meth *methodDecl
}

type fileScanner struct {
	parse   *fileParse
	stack   []frame
	pending *ir.Node // do block awaiting its trailing while condition
	lastIf  *ir.Node // most recently closed if block, target for else
}

// parseFile scans one file into a compilation unit and its declarations.
func parseFile(path string, content []byte) *fileParse {
	root := ir.NewNode(ir.KindUnit, path)
	fs := &fileScanner{
		parse: &fileParse{
			unit: &ir.CompilationUnit{Path: path, Root: root},
		},
		stack: []frame{{node: root}},
	}
	fs.scan(stripComments(string(content)))
	if fs.parse.unit.Module == "" {
		base := filepath.Base(path)
		fs.parse.unit.Module = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return fs.parse
}

func (fs *fileScanner) top() *frame { return &fs.stack[len(fs.stack)-1] }

func (fs *fileScanner) push(f frame) {
	fs.stack = append(fs.stack, f)
	fs.pending = nil
	fs.lastIf = nil
}

// scan walks the source splitting segments at braces and semicolons that sit
// outside strings, parentheses and brackets.
func (fs *fileScanner) scan(src string) {
	var (
		start int
		depth int // () and [] nesting
	)
	i := 0
	for i < len(src) {
		c := src[i]
		switch c {
		case '"', '\'':
			i = skipString(src, i)
			continue
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case '{', '}', ';':
			if depth == 0 {
				head := strings.TrimSpace(src[start:i])
				switch c {
				case '{':
					fs.openBlock(head)
				case ';':
					fs.statement(head)
				case '}':
					fs.closeBlock()
				}
				start = i + 1
			}
		}
		i++
	}
}

// openBlock classifies a segment that introduces a brace-delimited block and
// pushes the matching frame.
func (fs *fileScanner) openBlock(head string) {
	head = attributeRe.ReplaceAllString(head, "")
	cur := fs.top()

	if m := namespaceRe.FindStringSubmatch(head); m != nil {
		fs.pushNamespace(m[1])
		return
	}
	if m := classRe.FindStringSubmatch(head); m != nil {
		fs.pushType(m[1])
		return
	}
	if cur.typ != nil && cur.meth == nil {
		if fs.tryMember(head) {
			return
		}
		// Property block: record the declared type, keep the accessor
		// bodies reachable for traversal.
		if m := fieldRe.FindStringSubmatch(stripModifiers(head)); m != nil {
			cur.typ.fields[m[2]] = m[1]
		}
		fs.pushGeneric(head)
		return
	}
	if fs.tryControl(head) {
		return
	}
	fs.pushGeneric(head)
}

func (fs *fileScanner) pushNamespace(name string) {
	node := ir.NewNode(ir.KindNamespace, name)
	fs.top().node.Add(node)
	if fs.parse.unit.Module == "" {
		fs.parse.unit.Module = name
	}
	fs.push(frame{node: node})
}

func (fs *fileScanner) pushType(name string) {
	cur := fs.top()
	ns := ""
	if cur.node.Kind == ir.KindNamespace {
		ns = cur.node.Text
	}
	node := ir.NewNode(ir.KindClass, name)
	cur.node.Add(node)
	td := &typeDecl{
		ns:      ns,
		name:    name,
		node:    node,
		fields:  make(map[string]string),
		methods: make(map[string]*methodDecl),
	}
	fs.parse.types = append(fs.parse.types, td)
	fs.push(frame{node: node, typ: td})
}

// tryMember matches a method or constructor header inside a type body.
func (fs *fileScanner) tryMember(head string) bool {
	cur := fs.top()
	stripped := stripModifiers(head)
	m := memberRe.FindStringSubmatch(stripped)
	if m == nil {
		return false
	}
	retType, name, params := strings.TrimSpace(m[1]), m[2], m[3]
	if statementKeywords[name] || classRe.MatchString(stripped) {
		return false
	}

	md := &methodDecl{
		name:   name,
		owner:  cur.typ,
		locals: parseParams(params),
	}
	kind := ir.KindMethod
	switch {
	case retType == "" && name == cur.typ.name:
		md.ctor = true
		kind = ir.KindConstructor
	case retType == "" || retType == "void":
		// void method, or malformed header we still treat as one
	default:
		md.returnType = retType
	}
	node := ir.NewNode(kind, name)
	cur.node.Add(node)
	md.node = node
	cur.typ.methods[name] = md
	fs.push(frame{node: node, typ: cur.typ, meth: md})
	return true
}

// tryControl matches control-flow headers. if/for/foreach/while/do become
// group nodes; switch/try/using and friends become plain statement blocks.
func (fs *fileScanner) tryControl(head string) bool {
	cur := fs.top()
	keyword, rest := headKeyword(head)
	cond := parenContents(rest)

	switch keyword {
	case "if":
		node := ir.NewNode(ir.KindIf, "")
		cur.node.Add(node)
		fs.addConditions(node, cond)
		fs.push(frame{node: node, typ: cur.typ, meth: cur.meth})
	case "else":
		target := fs.lastIf
		rest = strings.TrimSpace(rest)
		if kw, _ := headKeyword(rest); kw == "if" {
			node := ir.NewNode(ir.KindIf, "")
			if target != nil {
				target.Add(node)
			} else {
				cur.node.Add(node)
			}
			fs.addConditions(node, parenContents(rest))
			fs.push(frame{node: node, typ: cur.typ, meth: cur.meth})
			return true
		}
		if target == nil {
			fs.pushGeneric(head)
			return true
		}
		// Re-open the if block: the else body nests under it.
		fs.push(frame{node: target, typ: cur.typ, meth: cur.meth})
	case "for":
		node := ir.NewNode(ir.KindFor, "")
		cur.node.Add(node)
		for _, part := range strings.Split(cond, ";") {
			fs.localOrExpr(node, cur.meth, strings.TrimSpace(part))
		}
		fs.push(frame{node: node, typ: cur.typ, meth: cur.meth})
	case "foreach":
		node := ir.NewNode(ir.KindForeach, "")
		cur.node.Add(node)
		if m := foreachRe.FindStringSubmatch(cond); m != nil {
			if cur.meth != nil {
				cur.meth.locals[m[1]] = ""
			}
			fs.addExpr(node, m[2])
		} else {
			fs.addConditions(node, cond)
		}
		fs.push(frame{node: node, typ: cur.typ, meth: cur.meth})
	case "while":
		node := ir.NewNode(ir.KindWhile, "")
		cur.node.Add(node)
		fs.addConditions(node, cond)
		fs.push(frame{node: node, typ: cur.typ, meth: cur.meth})
	case "do":
		node := ir.NewNode(ir.KindDoWhile, "")
		cur.node.Add(node)
		fs.push(frame{node: node, typ: cur.typ, meth: cur.meth})
	case "switch", "try", "catch", "finally", "lock", "using", "checked", "unchecked", "fixed":
		fs.pushGeneric(head)
	default:
		return false
	}
	return true
}

func (fs *fileScanner) pushGeneric(head string) {
	cur := fs.top()
	node := ir.NewNode(ir.KindStatement, "")
	cur.node.Add(node)
	if cond := parenContents(head); cond != "" {
		fs.addConditions(node, cond)
	}
	fs.push(frame{node: node, typ: cur.typ, meth: cur.meth})
}

// statement handles a semicolon-terminated segment in the current frame.
func (fs *fileScanner) statement(head string) {
	head = attributeRe.ReplaceAllString(head, "")
	if head == "" {
		return
	}
	cur := fs.top()

	// A do block is followed by "while (cond);" at the same level. The
	// condition belongs to the loop that just closed.
	if fs.pending != nil {
		if keyword, rest := headKeyword(head); keyword == "while" {
			fs.addConditions(fs.pending, parenContents(rest))
			fs.pending = nil
			return
		}
		fs.pending = nil
	}

	switch {
	case cur.node.Kind == ir.KindUnit:
		if m := namespaceRe.FindStringSubmatch(head); m != nil {
			// File-scoped namespace: the rest of the file nests in it.
			fs.pushNamespace(m[1])
			return
		}
		// using directives and assembly-level noise
	case cur.typ != nil && cur.meth == nil && cur.node.Kind == ir.KindClass:
		fs.classMember(head)
	default:
		fs.localOrExpr(cur.node, cur.meth, head)
	}
}

// classMember records a field, constant or expression-bodied member.
func (fs *fileScanner) classMember(head string) {
	cur := fs.top()
	stripped := stripModifiers(head)
	if body := strings.Index(stripped, "=>"); body >= 0 {
		// Expression-bodied member: declared type still matters for
		// binding, the body expression stays traversable.
		decl := strings.TrimSpace(stripped[:body])
		if strings.Contains(decl, "(") {
			if m := memberRe.FindStringSubmatch(decl); m != nil {
				fs.recordExprBodiedMethod(strings.TrimSpace(m[1]), m[2], m[3], stripped[body+2:])
				return
			}
		}
		if m := fieldRe.FindStringSubmatch(decl); m != nil {
			cur.typ.fields[m[2]] = m[1]
		}
		fs.addExpr(cur.node, stripped[body+2:])
		return
	}
	if m := fieldRe.FindStringSubmatch(stripped); m != nil {
		cur.typ.fields[m[2]] = m[1]
		if m[3] != "" {
			fs.addExpr(cur.node, m[3])
		}
	}
}

func (fs *fileScanner) recordExprBodiedMethod(retType, name, params, body string) {
	cur := fs.top()
	md := &methodDecl{
		name:   name,
		owner:  cur.typ,
		locals: parseParams(params),
	}
	if retType != "" && retType != "void" {
		md.returnType = retType
	}
	kind := ir.KindMethod
	if retType == "" && name == cur.typ.name {
		md.ctor = true
		kind = ir.KindConstructor
	}
	node := ir.NewNode(kind, name)
	cur.node.Add(node)
	md.node = node
	cur.typ.methods[name] = md
	fs.addExpr(node, body)
}

// localOrExpr parses a statement body: a braceless control statement, a local
// declaration (recorded for binding, initializer kept) or a bare expression.
func (fs *fileScanner) localOrExpr(parent *ir.Node, meth *methodDecl, head string) {
	if head == "" {
		return
	}
	keyword, rest := headKeyword(head)
	switch keyword {
	case "return", "throw", "await":
		fs.addExpr(parent, rest)
		return
	case "yield":
		fs.addExpr(parent, strings.TrimPrefix(strings.TrimSpace(rest), "return"))
		return
	case "break", "continue", "goto":
		return
	case "if", "while", "foreach", "for":
		fs.bracelessControl(parent, meth, keyword, rest)
		return
	case "else":
		target := fs.lastIf
		if target == nil {
			target = parent
		}
		fs.localOrExpr(target, meth, strings.TrimSpace(rest))
		return
	}

	if m := localRe.FindStringSubmatch(head); m != nil && !statementKeywords[m[1]] {
		declType := m[1]
		if declType == "var" {
			declType = inferredFromNew(m[3])
		}
		if meth != nil {
			meth.locals[m[2]] = declType
		}
		if m[3] != "" {
			fs.addExpr(parent, m[3])
		}
		return
	}
	fs.addExpr(parent, head)
}

// bracelessControl handles single-statement control flow without braces,
// e.g. "if (x) Run();". The body statement nests under the group node.
func (fs *fileScanner) bracelessControl(parent *ir.Node, meth *methodDecl, keyword, rest string) {
	cond, body := parenSplit(rest)
	var node *ir.Node
	switch keyword {
	case "if":
		node = ir.NewNode(ir.KindIf, "")
	case "while":
		node = ir.NewNode(ir.KindWhile, "")
	case "foreach":
		node = ir.NewNode(ir.KindForeach, "")
	case "for":
		node = ir.NewNode(ir.KindFor, "")
	}
	parent.Add(node)
	switch keyword {
	case "for":
		for _, part := range strings.Split(cond, ";") {
			fs.localOrExpr(node, meth, strings.TrimSpace(part))
		}
	case "foreach":
		if m := foreachRe.FindStringSubmatch(cond); m != nil {
			if meth != nil {
				meth.locals[m[1]] = ""
			}
			fs.addExpr(node, m[2])
		} else {
			fs.addConditions(node, cond)
		}
	default:
		fs.addConditions(node, cond)
	}
	fs.localOrExpr(node, meth, strings.TrimSpace(body))
	if keyword == "if" {
		fs.lastIf = node
	}
}

func (fs *fileScanner) closeBlock() {
	if len(fs.stack) <= 1 {
		return
	}
	closed := fs.top()
	fs.stack = fs.stack[:len(fs.stack)-1]
	fs.pending = nil
	fs.lastIf = nil
	switch closed.node.Kind {
	case ir.KindDoWhile:
		fs.pending = closed.node
	case ir.KindIf:
		fs.lastIf = closed.node
	}
}

func (fs *fileScanner) addExpr(parent *ir.Node, src string) {
	src = strings.TrimSpace(src)
	if src == "" {
		return
	}
	if e := parseExpr(src); e != nil {
		parent.Add(ir.NewNode(ir.KindStatement, "").Add(e))
	}
}

// addConditions parses a control-flow condition into the group node.
func (fs *fileScanner) addConditions(node *ir.Node, cond string) {
	if cond == "" {
		return
	}
	if e := parseExpr(cond); e != nil {
		node.Add(e)
	}
}

// parseParams turns a parameter list into the name -> type table.
func parseParams(params string) map[string]string {
	locals := make(map[string]string)
	for _, part := range splitTopLevel(params, ',') {
		part = strings.TrimSpace(part)
		for _, mod := range []string{"ref ", "out ", "in ", "params ", "this "} {
			part = strings.TrimPrefix(part, mod)
		}
		if i := strings.Index(part, "="); i >= 0 {
			part = strings.TrimSpace(part[:i])
		}
		fields := strings.Fields(part)
		if len(fields) >= 2 {
			locals[fields[len(fields)-1]] = strings.Join(fields[:len(fields)-1], " ")
		}
	}
	return locals
}

// splitTopLevel splits on sep outside any <>, (), [] nesting.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func stripModifiers(head string) string {
	words := strings.Fields(head)
	for len(words) > 0 && modifierWords[words[0]] {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

// headKeyword returns the leading identifier of a segment and the remainder.
func headKeyword(head string) (string, string) {
	i := 0
	for i < len(head) && isIdentPart(head[i]) {
		i++
	}
	return head[:i], head[i:]
}

// parenContents returns the text between the first '(' and its matching ')'.
func parenContents(s string) string {
	cond, _ := parenSplit(s)
	return cond
}

// parenSplit returns the contents of the first parenthesized group and the
// text after its closing paren.
func parenSplit(s string) (string, string) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return "", s
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[open+1 : i], s[i+1:]
			}
		case '"', '\'':
			i = skipString(s, i) - 1
		}
	}
	return s[open+1:], ""
}

// inferredFromNew extracts the created type from a "new T(...)" initializer,
// the one var form the binder can see through.
func inferredFromNew(init string) string {
	if m := newTypeRe.FindStringSubmatch(strings.TrimSpace(init)); m != nil {
		return m[1]
	}
	return ""
}

// skipString advances past the string or char literal starting at i and
// returns the index just after its closing quote.
func skipString(s string, i int) int {
	quote := s[i]
	verbatim := i > 0 && s[i-1] == '@'
	i++
	for i < len(s) {
		switch {
		case !verbatim && s[i] == '\\':
			i += 2
		case s[i] == quote:
			return i + 1
		default:
			i++
		}
	}
	return i
}

// stripComments blanks out // and /* */ comments, leaving strings intact.
func stripComments(src string) string {
	out := []byte(src)
	i := 0
	for i < len(out) {
		switch {
		case out[i] == '"' || out[i] == '\'':
			i = skipString(src, i)
		case out[i] == '/' && i+1 < len(out) && out[i+1] == '/':
			for i < len(out) && out[i] != '\n' {
				out[i] = ' '
				i++
			}
		case out[i] == '/' && i+1 < len(out) && out[i+1] == '*':
			for i < len(out) && !(out[i] == '*' && i+1 < len(out) && out[i+1] == '/') {
				if out[i] != '\n' {
					out[i] = ' '
				}
				i++
			}
			if i+1 < len(out) {
				out[i], out[i+1] = ' ', ' '
				i += 2
			}
		default:
			i++
		}
	}
	return string(out)
}
