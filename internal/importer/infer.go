package importer

import (
	"regexp"
	"strings"
)

// inferPatterns holds the priority-ordered header patterns for each field.
// Patterns are matched case-insensitively against each header in original
// column order; the first matching, still-unclaimed header wins.
var inferPatterns = map[Field][]*regexp.Regexp{
	FieldName:         compilePatterns(`^name$`, `full.?name`, `lead.?name`, `contact.?name`, `^first.?name$`),
	FieldEmail:        compilePatterns(`email`, `e-mail`, `mail`),
	FieldPhone:        compilePatterns(`phone`, `tel`, `mobile`, `cell`),
	FieldSource:       compilePatterns(`source`, `lead.?source`, `origin`, `channel`),
	FieldStatus:       compilePatterns(`status`, `lead.?status`, `state`),
	FieldOrganization: compilePatterns(`company`, `organization`, `org`, `business`, `employer`),
}

func compilePatterns(exprs ...string) []*regexp.Regexp {
	pats := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		pats[i] = regexp.MustCompile(`(?i)` + expr)
	}
	return pats
}

// InferMapping proposes a field mapping from header text alone. Fields are
// processed in fixed priority order (name, email, phone, source, status,
// organization) so earlier fields claim ambiguous headers first: a header
// already assigned in this pass is never assigned again, but the losing
// field keeps trying its lower-priority patterns, which may land on a
// different, still-free header. Fields with no free matching header stay
// unmapped.
func InferMapping(headers []string) FieldMapping {
	mapping := NewFieldMapping()
	claimed := make(map[string]bool, len(Fields))

	for _, field := range Fields {
		for _, pat := range inferPatterns[field] {
			header := firstMatch(headers, pat)
			if header == "" || claimed[header] {
				continue
			}
			mapping.Set(field, header)
			claimed[header] = true
			break
		}
	}
	return mapping
}

// firstMatch returns the first header, in original column order, whose
// lowercased text matches pat, or "" when none does.
func firstMatch(headers []string, pat *regexp.Regexp) string {
	for _, h := range headers {
		if pat.MatchString(strings.ToLower(h)) {
			return h
		}
	}
	return ""
}
