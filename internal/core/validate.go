package core

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// Length limits count characters, not bytes.
	MaxDescriptionLen = 100
	MaxCategoryLen    = 50
	// DateWindowDays is how far back a transaction date may lie.
	DateWindowDays = 365
)

// Payload is a raw transaction submission as it arrives from the outside:
// every field is a string, the amount is an unsigned magnitude and the sign
// is derived from Type.
type Payload struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Date        string `json:"date"`
}

// FieldErrors maps field names to the reason they were rejected. All
// violations are collected, not just the first.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var (
	scriptBlockRe = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	htmlTagRe     = regexp.MustCompile(`<[^>]*>`)
	eventAttrRe   = regexp.MustCompile(`(?i)on\w+\s*=\s*["'][^"']*["']`)
	uriSchemeRe   = regexp.MustCompile(`(?i)(javascript|data):`)
)

// SanitizeText strips markup-like substrings and control characters from
// free-text input and trims surrounding whitespace.
func SanitizeText(s string) string {
	s = scriptBlockRe.ReplaceAllString(s, "")
	s = htmlTagRe.ReplaceAllString(s, "")
	s = eventAttrRe.ReplaceAllString(s, "")
	s = uriSchemeRe.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// Sanitize cleans every free-text field of a payload. It never fails; bad
// values survive sanitization and are caught by Validate.
func Sanitize(p Payload) Payload {
	return Payload{
		Description: SanitizeText(p.Description),
		Amount:      strings.TrimSpace(p.Amount),
		Category:    SanitizeText(p.Category),
		Type:        strings.TrimSpace(strings.ToLower(p.Type)),
		Date:        strings.TrimSpace(p.Date),
	}
}

// Validate checks a sanitized payload against the ledger's business rules,
// relative to the given "today". Each field is checked independently and all
// violations are reported. A nil return means the payload is acceptable.
func Validate(p Payload, today Date) FieldErrors {
	errs := FieldErrors{}

	switch {
	case p.Description == "":
		errs["description"] = "description is required"
	case utf8.RuneCountInString(p.Description) > MaxDescriptionLen:
		errs["description"] = "description must be at most 100 characters"
	}

	if _, err := ParseDecimalToCents(p.Amount); err != nil {
		switch err {
		case ErrAmountTooLarge:
			errs["amount"] = "amount exceeds the maximum of 1,000,000"
		default:
			errs["amount"] = "amount must be a number greater than 0"
		}
	}

	switch {
	case p.Category == "":
		errs["category"] = "category is required"
	case utf8.RuneCountInString(p.Category) > MaxCategoryLen:
		errs["category"] = "category must be at most 50 characters"
	}

	if !TxType(p.Type).IsValid() {
		errs["type"] = "type must be income or expense"
	}

	if d, err := ParseDate(p.Date); err != nil {
		errs["date"] = "date must be a valid YYYY-MM-DD date"
	} else {
		earliest := Date{Time: today.AddDate(0, 0, -DateWindowDays)}
		if d.After(today.Time) || d.Before(earliest.Time) {
			errs["date"] = "date must fall within the trailing year"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
