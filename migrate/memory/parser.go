package memory

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// cqlLexer tokenizes the DDL subset understood by the shadow keyspace.
var cqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `(?:--|//)[^\n]*`},
	{Name: "MultiLineComment", Pattern: `/\*(?:[^*]|\*[^/])*\*/`},
	{Name: "QuotedIdent", Pattern: `"(?:""|[^"])*"`},
	{Name: "String", Pattern: `'(?:''|[^'])*'`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[(),.;<>{}:=*]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// document is a single statement with an optional terminating semicolon.
type document struct {
	Statement *statement `@@ ";"?`
}

type statement struct {
	Create *createStmt `  "CREATE" @@`
	Drop   *dropStmt   `| "DROP" @@`
	Alter  *alterStmt  `| "ALTER" @@`
}

type createStmt struct {
	Keyspace *createKeyspace `  "KEYSPACE" @@`
	Table    *createTable    `| ("TABLE" | "COLUMNFAMILY") @@`
	Type     *createType     `| "TYPE" @@`
	View     *createView     `| "MATERIALIZED" "VIEW" @@`
}

type createKeyspace struct {
	IfNotExists bool      `@("IF" "NOT" "EXISTS")?`
	Name        string    `@(Ident | QuotedIdent)`
	Options     []*option `"WITH" @@ ("AND" @@)*`
}

type createTable struct {
	IfNotExists bool            `@("IF" "NOT" "EXISTS")?`
	Name        *qualifiedName  `@@`
	Elements    []*tableElement `"(" @@ ("," @@)* ")"`
	Options     []*tableOption  `("WITH" @@ ("AND" @@)*)?`
}

type tableElement struct {
	PrimaryKey *primaryKey `  "PRIMARY" "KEY" @@`
	Column     *columnDef  `| @@`
}

type columnDef struct {
	Name    string   `@(Ident | QuotedIdent)`
	Type    *typeRef `@@`
	Static  bool     `@"STATIC"?`
	Primary bool     `@("PRIMARY" "KEY")?`
}

type primaryKey struct {
	Partition  []string `"(" ( "(" @(Ident | QuotedIdent) ("," @(Ident | QuotedIdent))* ")" | @(Ident | QuotedIdent) )`
	Clustering []string `("," @(Ident | QuotedIdent))* ")"`
}

type tableOption struct {
	ClusteringOrder []*orderItem `  "CLUSTERING" "ORDER" "BY" "(" @@ ("," @@)* ")"`
	CompactStorage  bool         `| @("COMPACT" "STORAGE")`
	Option          *option      `| @@`
}

type orderItem struct {
	Column string `@(Ident | QuotedIdent)`
	Desc   bool   `(@"DESC" | "ASC")?`
}

type createType struct {
	IfNotExists bool           `@("IF" "NOT" "EXISTS")?`
	Name        *qualifiedName `@@`
	Fields      []*fieldDef    `"(" @@ ("," @@)* ")"`
}

type fieldDef struct {
	Name string   `@(Ident | QuotedIdent)`
	Type *typeRef `@@`
}

type createView struct {
	IfNotExists bool           `@("IF" "NOT" "EXISTS")?`
	Name        *qualifiedName `@@`
	Columns     []string       `"AS" "SELECT" ( @"*" | @(Ident | QuotedIdent) ("," @(Ident | QuotedIdent))* )`
	Base        *qualifiedName `"FROM" @@`
	NotNull     []string       `"WHERE" @(Ident | QuotedIdent) "IS" "NOT" "NULL" ("AND" @(Ident | QuotedIdent) "IS" "NOT" "NULL")*`
	Key         *primaryKey    `"PRIMARY" "KEY" @@`
	Options     []*tableOption `("WITH" @@ ("AND" @@)*)?`
}

type dropStmt struct {
	Keyspace *dropTarget `  "KEYSPACE" @@`
	Table    *dropTarget `| ("TABLE" | "COLUMNFAMILY") @@`
	Type     *dropTarget `| "TYPE" @@`
	View     *dropTarget `| "MATERIALIZED" "VIEW" @@`
}

type dropTarget struct {
	IfExists bool           `@("IF" "EXISTS")?`
	Name     *qualifiedName `@@`
}

type alterStmt struct {
	Table *alterTable `  ("TABLE" | "COLUMNFAMILY") @@`
	Type  *alterType  `| "TYPE" @@`
}

type alterTable struct {
	Name   *qualifiedName `@@`
	Action *tableAction   `@@`
}

type tableAction struct {
	Add    []*fieldDef    `  "ADD" ( "(" @@ ("," @@)* ")" | @@ )`
	Alter  *alterColumn   `| "ALTER" @@`
	Rename []*renamePair  `| "RENAME" @@ ("AND" @@)*`
	Drop   []string       `| "DROP" ( "(" @(Ident | QuotedIdent) ("," @(Ident | QuotedIdent))* ")" | @(Ident | QuotedIdent) )`
	With   []*tableOption `| "WITH" @@ ("AND" @@)*`
}

type alterColumn struct {
	Column string   `@(Ident | QuotedIdent)`
	Type   *typeRef `"TYPE" @@`
}

type renamePair struct {
	From string `@(Ident | QuotedIdent)`
	To   string `"TO" @(Ident | QuotedIdent)`
}

type alterType struct {
	Name   *qualifiedName `@@`
	Action *typeAction    `@@`
}

type typeAction struct {
	Add    *fieldDef     `  "ADD" @@`
	Rename []*renamePair `| "RENAME" @@ ("AND" @@)*`
}

type qualifiedName struct {
	First  string `@(Ident | QuotedIdent)`
	Second string `("." @(Ident | QuotedIdent))?`
}

// split returns the keyspace qualifier (possibly empty) and the object name.
func (n *qualifiedName) split() (keyspace, object string) {
	if n.Second == "" {
		return "", ident(n.First)
	}
	return ident(n.First), ident(n.Second)
}

type typeRef struct {
	Frozen *typeRef   `  "FROZEN" "<" @@ ">"`
	Name   string     `| @(Ident | QuotedIdent)`
	Args   []*typeRef `  ("<" @@ ("," @@)* ">")?`
}

type option struct {
	Key   string `@(Ident | QuotedIdent)`
	Value *value `"=" @@`
}

type value struct {
	Map    []*mapEntry `  "{" ( @@ ("," @@)* )? "}"`
	String *string     `| @String`
	Number *string     `| @Number`
	Ident  *string     `| @Ident`
}

type mapEntry struct {
	Key   string `@String`
	Value string `":" @(String | Number | Ident)`
}

var parser = participle.MustBuild[document](
	participle.Lexer(cqlLexer),
	participle.Elide("Whitespace", "Comment", "MultiLineComment"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(10),
)

var typeParser = participle.MustBuild[typeRef](
	participle.Lexer(cqlLexer),
	participle.Elide("Whitespace", "Comment", "MultiLineComment"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(10),
)

func parse(stmt string) (*statement, error) {
	doc, err := parser.ParseString("", stmt)
	if err != nil {
		return nil, err
	}
	return doc.Statement, nil
}

// ident normalizes an identifier: quoted identifiers keep their case,
// unquoted ones are folded to lowercase.
func ident(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return strings.ToLower(s)
}

// literal strips the quotes of a string literal.
func literal(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}

// options flattens WITH options into a map keyed by lowercase option name.
// Map-valued options are stored with their entries under "name.key".
func options(opts []*option) map[string]string {
	out := make(map[string]string)
	for _, o := range opts {
		if o == nil || o.Value == nil {
			continue
		}
		key := ident(o.Key)
		switch v := o.Value; {
		case v.String != nil:
			out[key] = literal(*v.String)
		case v.Number != nil:
			out[key] = *v.Number
		case v.Ident != nil:
			out[key] = strings.ToLower(*v.Ident)
		default:
			out[key] = ""
			for _, e := range v.Map {
				out[key+"."+literal(e.Key)] = literal(e.Value)
			}
		}
	}
	return out
}
