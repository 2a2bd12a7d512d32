package mapping

import (
	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/asso7/concert_ledger/internal/models"
)

// ToModelMember converts a domain Member to a model Member
func ToModelMember(d domain.Member) models.Member {
	return models.Member{
		MemberID:        d.MemberID,
		Name:            d.Name,
		Kind:            string(d.Kind),
		IsActive:        d.IsActive,
		IsBonusRole:     d.IsBonusRole,
		IsStructureRole: d.IsStructureRole,
		IsPaymentMethod: d.IsPaymentMethod,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainMember converts a model Member to a domain Member
func ToDomainMember(m models.Member) domain.Member {
	return domain.Member{
		MemberID:        m.MemberID,
		Name:            m.Name,
		Kind:            domain.MemberKind(m.Kind),
		IsActive:        m.IsActive,
		IsBonusRole:     m.IsBonusRole,
		IsStructureRole: m.IsStructureRole,
		IsPaymentMethod: m.IsPaymentMethod,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainMemberSlice converts a slice of model Members to a slice of domain Members
func ToDomainMemberSlice(ms []models.Member) []domain.Member {
	ds := make([]domain.Member, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainMember(m)
	}
	return ds
}

// ToModelCarryover converts a domain CarryoverBalance to its row.
func ToModelCarryover(d domain.CarryoverBalance) models.CarryoverBalance {
	return models.CarryoverBalance{
		MemberID:    d.MemberID,
		Amount:      d.Amount,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToModelOperator converts a domain Operator to a model Operator
func ToModelOperator(d domain.Operator) models.Operator {
	return models.Operator{
		OperatorID:   d.OperatorID,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		IsActive:     d.IsActive,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainOperator converts a model Operator to a domain Operator
func ToDomainOperator(m models.Operator) domain.Operator {
	return domain.Operator{
		OperatorID:   m.OperatorID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		IsActive:     m.IsActive,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}
