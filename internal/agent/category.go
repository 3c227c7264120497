package agent

import "fmt"

// Category is the closed set of triage outcomes the classification oracle
// may produce. Anything else is a contract violation, never a default.
type Category string

const (
	CategorySpam        Category = "spam"
	CategoryInfo        Category = "info"
	CategoryReplyNeeded Category = "reply_needed"
)

// ParseCategory validates a raw oracle category. Unknown values fail rather
// than falling back, so a misbehaving oracle cannot silently route a message
// as "no reply needed".
func ParseCategory(raw string) (Category, error) {
	switch Category(raw) {
	case CategorySpam, CategoryInfo, CategoryReplyNeeded:
		return Category(raw), nil
	}
	return "", &ContractError{Field: "category", Value: raw}
}

// ContractError reports a classification oracle response that violates the
// oracle contract (out-of-enum category, empty reason).
type ContractError struct {
	Field string
	Value string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("classification contract violation: %s=%q", e.Field, e.Value)
}
