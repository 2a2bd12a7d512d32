package models

// Operator is a row of the operators table.
type Operator struct {
	OperatorID   string `db:"operator_id"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	IsActive     bool   `db:"is_active"`
	AuditFields
}
