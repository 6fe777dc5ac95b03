package models

// ClauseType is the tag of a clause in the host's structured query tree
type ClauseType string

const (
	ClauseTypeDataPattern   ClauseType = "data-pattern"
	ClauseTypeFnExpr        ClauseType = "fn-expr"
	ClauseTypePredExpr      ClauseType = "pred-expr"
	ClauseTypeRuleExpr      ClauseType = "rule-expr"
	ClauseTypeNotClause     ClauseType = "not-clause"
	ClauseTypeAndClause     ClauseType = "and-clause"
	ClauseTypeOrClause      ClauseType = "or-clause"
	ClauseTypeNotJoinClause ClauseType = "not-join-clause"
	ClauseTypeOrJoinClause  ClauseType = "or-join-clause"
)

// ArgumentType tags a clause argument
type ArgumentType string

const (
	ArgumentTypeVariable   ArgumentType = "variable"
	ArgumentTypeConstant   ArgumentType = "constant"
	ArgumentTypeSrcVar     ArgumentType = "src-var"
	ArgumentTypeUnderscore ArgumentType = "underscore"
)

// Argument is one positional argument of a pattern or expression clause
type Argument struct {
	Type  ArgumentType `json:"type"`
	Value string       `json:"value"`
}

// Var is shorthand for a variable argument
func Var(name string) Argument {
	return Argument{Type: ArgumentTypeVariable, Value: name}
}

// Const is shorthand for a constant argument
func Const(value string) Argument {
	return Argument{Type: ArgumentTypeConstant, Value: value}
}

// Clause is one node of a structured query. The set of implementations is closed:
// only types in this package satisfy it.
type Clause interface {
	ClauseType() ClauseType
	clause()
}

// DataPattern matches datoms, e.g. [?b :block/uid ?uid]
type DataPattern struct {
	Arguments []Argument `json:"arguments"`
}

// FnExpr binds the result of a function call, e.g. [(get-else $ ?b :x "") ?x]
type FnExpr struct {
	Arguments []Argument `json:"arguments"`
}

// PredExpr filters with a predicate, e.g. [(< ?a ?b)]
type PredExpr struct {
	Arguments []Argument `json:"arguments"`
}

// RuleExpr invokes a named rule
type RuleExpr struct {
	Arguments []Argument `json:"arguments"`
}

type NotClause struct {
	Clauses []Clause `json:"clauses"`
}

type AndClause struct {
	Clauses []Clause `json:"clauses"`
}

type OrClause struct {
	Clauses []Clause `json:"clauses"`
}

// NotJoinClause declares which variables join with the enclosing query
type NotJoinClause struct {
	Variables []Argument `json:"variables"`
	Clauses   []Clause   `json:"clauses"`
}

// OrJoinClause declares which variables join with the enclosing query
type OrJoinClause struct {
	Variables []Argument `json:"variables"`
	Clauses   []Clause   `json:"clauses"`
}

// UnknownClause carries any tag this package does not model
type UnknownClause struct {
	Type ClauseType `json:"type"`
}

func (DataPattern) ClauseType() ClauseType   { return ClauseTypeDataPattern }
func (FnExpr) ClauseType() ClauseType        { return ClauseTypeFnExpr }
func (PredExpr) ClauseType() ClauseType      { return ClauseTypePredExpr }
func (RuleExpr) ClauseType() ClauseType      { return ClauseTypeRuleExpr }
func (NotClause) ClauseType() ClauseType     { return ClauseTypeNotClause }
func (AndClause) ClauseType() ClauseType     { return ClauseTypeAndClause }
func (OrClause) ClauseType() ClauseType      { return ClauseTypeOrClause }
func (NotJoinClause) ClauseType() ClauseType { return ClauseTypeNotJoinClause }
func (OrJoinClause) ClauseType() ClauseType  { return ClauseTypeOrJoinClause }
func (c UnknownClause) ClauseType() ClauseType {
	return c.Type
}

func (DataPattern) clause()   {}
func (FnExpr) clause()        {}
func (PredExpr) clause()      {}
func (RuleExpr) clause()      {}
func (NotClause) clause()     {}
func (AndClause) clause()     {}
func (OrClause) clause()      {}
func (NotJoinClause) clause() {}
func (OrJoinClause) clause()  {}
func (UnknownClause) clause() {}

var (
	_ Clause = DataPattern{}
	_ Clause = FnExpr{}
	_ Clause = PredExpr{}
	_ Clause = RuleExpr{}
	_ Clause = NotClause{}
	_ Clause = AndClause{}
	_ Clause = OrClause{}
	_ Clause = NotJoinClause{}
	_ Clause = OrJoinClause{}
	_ Clause = UnknownClause{}
)
