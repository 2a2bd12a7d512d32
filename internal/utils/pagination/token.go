package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Cursor is the last row of a page when rows are ordered by (date, id) descending.
type Cursor struct {
	Date time.Time
	ID   string
}

// EncodeToken creates an opaque, URL-safe token from the last row of a page.
// Only the calendar date is kept since every paginated table orders on a DATE column.
func EncodeToken(date time.Time, id string) string {
	tokenStr := fmt.Sprintf("%s|%s", date.Format(time.DateOnly), id)
	return base64.RawURLEncoding.EncodeToString([]byte(tokenStr))
}

// EncodeTokenPtr is EncodeToken for response fields that are omitted on the last page.
func EncodeTokenPtr(date time.Time, id string) *string {
	token := EncodeToken(date, id)
	return &token
}

// DecodeToken parses a token produced by EncodeToken.
func DecodeToken(token string) (Cursor, error) {
	decodedBytes, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return Cursor{}, fmt.Errorf("invalid pagination token format (split)")
	}

	date, err := time.Parse(time.DateOnly, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (date parse): %w", err)
	}
	return Cursor{Date: date, ID: parts[1]}, nil
}

// DecodeTokenPtr decodes an optional token. A nil or empty token means the first page.
func DecodeTokenPtr(token *string) (*Cursor, error) {
	if token == nil || *token == "" {
		return nil, nil
	}
	cursor, err := DecodeToken(*token)
	if err != nil {
		return nil, err
	}
	return &cursor, nil
}
