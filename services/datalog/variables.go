// Package datalog analyses clauses of the host's structured query tree.
package datalog

import (
	"sort"

	"dgexport/models"
)

// VariableSet is an unordered set of variable names such as "?b"
type VariableSet map[string]struct{}

func NewVariableSet(names ...string) VariableSet {
	set := make(VariableSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func (s VariableSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Union adds every name of other to s
func (s VariableSet) Union(other VariableSet) {
	for name := range other {
		s[name] = struct{}{}
	}
}

// Sorted returns the names in lexical order
func (s VariableSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CollectVariables returns the variables a clause makes visible at its own level.
//
// Pattern and expression clauses contribute their variable-tagged arguments.
// not/and/or clauses contribute the union of their children. not-join and or-join
// clauses contribute only their declared join variables; variables used solely
// inside their bodies stay local. Unknown clause kinds contribute nothing.
func CollectVariables(clause models.Clause) VariableSet {
	switch c := clause.(type) {
	case models.DataPattern:
		return variablesOf(c.Arguments)
	case models.FnExpr:
		return variablesOf(c.Arguments)
	case models.PredExpr:
		return variablesOf(c.Arguments)
	case models.RuleExpr:
		return variablesOf(c.Arguments)
	case models.NotClause:
		return unionOf(c.Clauses)
	case models.AndClause:
		return unionOf(c.Clauses)
	case models.OrClause:
		return unionOf(c.Clauses)
	case models.NotJoinClause:
		return joinVariablesOf(c.Variables)
	case models.OrJoinClause:
		return joinVariablesOf(c.Variables)
	default:
		return NewVariableSet()
	}
}

func variablesOf(args []models.Argument) VariableSet {
	set := NewVariableSet()
	for _, arg := range args {
		if arg.Type == models.ArgumentTypeVariable {
			set[arg.Value] = struct{}{}
		}
	}
	return set
}

// Join variables are listed explicitly, so the tag is not consulted.
func joinVariablesOf(args []models.Argument) VariableSet {
	set := NewVariableSet()
	for _, arg := range args {
		set[arg.Value] = struct{}{}
	}
	return set
}

func unionOf(clauses []models.Clause) VariableSet {
	set := NewVariableSet()
	for _, child := range clauses {
		set.Union(CollectVariables(child))
	}
	return set
}
