package pipeline

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/timmy/soulsync/internal/domain"
)

const (
	defaultQuoteCategory = "general"
	maxCategoryLen       = 24
)

// ParseQuotes splits generator output into quotes, one per non-empty line.
// A line of the form "category: text" with a one-word category sets the category.
func ParseQuotes(jobID, content string) []domain.PersonalizedQuote {
	var quotes []domain.PersonalizedQuote
	for _, line := range strings.Split(content, "\n") {
		line = trimListMarker(strings.TrimSpace(line))
		if line == "" {
			continue
		}

		category := defaultQuoteCategory
		if i := strings.Index(line, ":"); i > 0 {
			head := strings.TrimSpace(line[:i])
			if len(head) <= maxCategoryLen && !strings.ContainsFunc(head, unicode.IsSpace) {
				category = strings.ToLower(head)
				line = strings.TrimSpace(line[i+1:])
			}
		}
		line = strings.Trim(line, `"“”`)
		if line == "" {
			continue
		}

		quotes = append(quotes, domain.PersonalizedQuote{
			ID:       uuid.NewString(),
			JobID:    jobID,
			Position: len(quotes),
			Text:     line,
			Category: category,
		})
	}
	return quotes
}

// trimListMarker drops "-", "*", "•" or "3." / "3)" prefixes.
func trimListMarker(line string) string {
	line = strings.TrimLeft(line, "-*• ")
	digits := 0
	for digits < len(line) && line[digits] >= '0' && line[digits] <= '9' {
		digits++
	}
	if digits > 0 && digits < len(line) && (line[digits] == '.' || line[digits] == ')') {
		line = line[digits+1:]
	}
	return strings.TrimSpace(line)
}
