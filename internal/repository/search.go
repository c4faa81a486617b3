package repository

import (
	"fmt"
	"strings"
)

// SearchBuilder renders a text-match predicate over the cohort columns of alias.
// nextArg is the number of the first placeholder the predicate may use.
type SearchBuilder interface {
	Build(query, alias string, nextArg int) (string, []interface{})
}

// LikeSearch matches a case-insensitive substring of name, id number or description.
type LikeSearch struct{}

// Build returns an empty predicate for a blank query.
func (LikeSearch) Build(query, alias string, nextArg int) (string, []interface{}) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", nil
	}
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	predicate := fmt.Sprintf(`(LOWER(%[1]s.name) LIKE $%[2]d ESCAPE '\' OR LOWER(%[1]s.id_number) LIKE $%[2]d ESCAPE '\' OR LOWER(%[1]s.description) LIKE $%[2]d ESCAPE '\')`, alias, nextArg)
	return predicate, []interface{}{pattern}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
