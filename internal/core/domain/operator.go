package domain

// Operator is a person allowed to drive the API.
type Operator struct {
	OperatorID   string `json:"operatorID"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	IsActive     bool   `json:"isActive"`
	AuditFields
}
