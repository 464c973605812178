package filter

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// filterLexer defines the token types of the filter syntax.
// Keywords are case-insensitive and must come before Ident.
var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `\b(?i:AND|OR|NOT|IS|NULL|IN|LIKE|TRUE|FALSE)\b`},

	// Literals. Strings use SQL quoting: '' is an embedded quote.
	{Name: "String", Pattern: `'(?:''|[^'])*'`},
	{Name: "Int", Pattern: `-?\d+`},

	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},

	// Operators (longest first) and punctuation
	{Name: "Op", Pattern: `<>|!=|<=|>=|[=<>]`},
	{Name: "Punct", Pattern: `[(),]`},

	{Name: "Whitespace", Pattern: `\s+`},
})

// orExpr is the grammar root: a disjunction of conjunctions.
type orExpr struct {
	Pos   lexer.Position
	Terms []*andExpr `parser:"@@ ( \"OR\" @@ )*"`
}

type andExpr struct {
	Pos   lexer.Position
	Terms []*unary `parser:"@@ ( \"AND\" @@ )*"`
}

// unary is one operand of AND: a negation, a group, a constant or a
// predicate on a column.
type unary struct {
	Pos   lexer.Position
	Not   *unary     `parser:"  \"NOT\" @@"`
	Group *orExpr    `parser:"| \"(\" @@ \")\""`
	Const *string    `parser:"| @(\"TRUE\" | \"FALSE\")"`
	Pred  *predicate `parser:"| @@"`
}

// predicate is a column test. A bare column name tests a boolean column
// for TRUE.
type predicate struct {
	Pos     lexer.Position
	Column  string      `parser:"@Ident"`
	Compare *comparison `parser:"( @@"`
	Null    *nullCheck  `parser:"| @@"`
	Member  *membership `parser:"| @@"`
	Like    *literal    `parser:"| \"LIKE\" @@ )?"`
}

type comparison struct {
	Op    string   `parser:"@Op"`
	Value *literal `parser:"@@"`
}

type nullCheck struct {
	Not bool `parser:"\"IS\" @\"NOT\"? \"NULL\""`
}

type membership struct {
	Not    bool       `parser:"@\"NOT\"? \"IN\""`
	Values []*literal `parser:"\"(\" ( @@ ( \",\" @@ )* )? \")\""`
}

type literal struct {
	Pos    lexer.Position
	String *string `parser:"  @String"`
	Int    *string `parser:"| @Int"`
	Bool   *string `parser:"| @(\"TRUE\" | \"FALSE\")"`
}

var parser = participle.MustBuild[orExpr](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Keyword"),
	participle.UseLookahead(2),
)
