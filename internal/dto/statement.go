package dto

import "time"

// StatementParams defines query parameters of the account statement.
type StatementParams struct {
	AsOf time.Time `form:"asOf" time_format:"2006-01-02" time_utc:"1"`
}
