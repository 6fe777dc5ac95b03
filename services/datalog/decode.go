package datalog

import (
	"errors"

	"github.com/tidwall/gjson"

	"dgexport/models"
)

var ErrInvalidClauseJSON = errors.New("invalid clause json")

// DecodeClause reads one clause from the host's JSON form:
//
//	{"type": "or-join-clause", "variables": [...], "clauses": [...]}
//
// Unknown tags decode to models.UnknownClause; only malformed JSON is an error.
func DecodeClause(data []byte) (models.Clause, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidClauseJSON
	}
	return decodeClause(gjson.ParseBytes(data)), nil
}

// DecodeClauses reads either a single clause object or an array of clauses
// (the :where section of a query).
func DecodeClauses(data []byte) ([]models.Clause, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidClauseJSON
	}
	root := gjson.ParseBytes(data)
	if root.IsArray() {
		return decodeClauseList(root), nil
	}
	return []models.Clause{decodeClause(root)}, nil
}

func decodeClause(node gjson.Result) models.Clause {
	if !node.IsObject() {
		return models.UnknownClause{}
	}

	tag := models.ClauseType(node.Get("type").String())
	switch tag {
	case models.ClauseTypeDataPattern:
		return models.DataPattern{Arguments: decodeArguments(node.Get("arguments"))}
	case models.ClauseTypeFnExpr:
		return models.FnExpr{Arguments: decodeArguments(node.Get("arguments"))}
	case models.ClauseTypePredExpr:
		return models.PredExpr{Arguments: decodeArguments(node.Get("arguments"))}
	case models.ClauseTypeRuleExpr:
		return models.RuleExpr{Arguments: decodeArguments(node.Get("arguments"))}
	case models.ClauseTypeNotClause:
		return models.NotClause{Clauses: decodeClauseList(node.Get("clauses"))}
	case models.ClauseTypeAndClause:
		return models.AndClause{Clauses: decodeClauseList(node.Get("clauses"))}
	case models.ClauseTypeOrClause:
		return models.OrClause{Clauses: decodeClauseList(node.Get("clauses"))}
	case models.ClauseTypeNotJoinClause:
		return models.NotJoinClause{
			Variables: decodeArguments(node.Get("variables")),
			Clauses:   decodeClauseList(node.Get("clauses")),
		}
	case models.ClauseTypeOrJoinClause:
		return models.OrJoinClause{
			Variables: decodeArguments(node.Get("variables")),
			Clauses:   decodeClauseList(node.Get("clauses")),
		}
	default:
		return models.UnknownClause{Type: tag}
	}
}

func decodeClauseList(list gjson.Result) []models.Clause {
	var clauses []models.Clause
	for _, child := range list.Array() {
		clauses = append(clauses, decodeClause(child))
	}
	return clauses
}

func decodeArguments(list gjson.Result) []models.Argument {
	var args []models.Argument
	for _, arg := range list.Array() {
		args = append(args, models.Argument{
			Type:  models.ArgumentType(arg.Get("type").String()),
			Value: arg.Get("value").String(),
		})
	}
	return args
}
