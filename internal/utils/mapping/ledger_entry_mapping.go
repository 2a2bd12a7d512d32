package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/asso7/concert_ledger/internal/models"
)

// ToModelLedgerEntry converts a domain LedgerEntry to a model LedgerEntry
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:       d.EntryID,
		MemberID:      d.MemberID,
		Direction:     string(d.Direction),
		Motive:        d.Motive,
		Details:       d.Details,
		Amount:        d.Amount,
		EntryDate:     domain.DateOnly(d.EntryDate),
		BookingID:     ToNullString(d.BookingID),
		PairedEntryID: ToNullString(d.PairedEntryID),
		Provisional:   d.Provisional,
		Source:        string(d.Source),
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainLedgerEntry converts a model LedgerEntry to a domain LedgerEntry
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:       m.EntryID,
		MemberID:      m.MemberID,
		Direction:     domain.EntryDirection(m.Direction),
		Motive:        m.Motive,
		Details:       m.Details,
		Amount:        m.Amount,
		EntryDate:     domain.DateOnly(m.EntryDate),
		BookingID:     FromNullString(m.BookingID),
		PairedEntryID: FromNullString(m.PairedEntryID),
		Provisional:   m.Provisional,
		Source:        domain.EntrySource(m.Source),
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainLedgerEntrySlice converts a slice of model entries to domain entries
func ToDomainLedgerEntrySlice(ms []models.LedgerEntry) []domain.LedgerEntry {
	ds := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLedgerEntry(m)
	}
	return ds
}

// ToModelAuditEvent converts a domain AuditEvent to its row, encoding the metadata as JSON.
func ToModelAuditEvent(d domain.AuditEvent) (models.AuditEvent, error) {
	m := models.AuditEvent{
		ID:        d.ID,
		Type:      string(d.Type),
		BookingID: ToNullString(d.BookingID),
		CreatedAt: d.CreatedAt,
	}
	if len(d.Data) > 0 {
		m.Data = d.Data
	}
	if len(d.Metadata) > 0 {
		meta, err := json.Marshal(d.Metadata)
		if err != nil {
			return models.AuditEvent{}, fmt.Errorf("encode audit metadata: %w", err)
		}
		m.Metadata = meta
	}
	return m, nil
}

// ToDomainAuditEvent converts an audit_events row back to the domain event.
func ToDomainAuditEvent(m models.AuditEvent) (domain.AuditEvent, error) {
	d := domain.AuditEvent{
		ID:        m.ID,
		Type:      domain.AuditEventType(m.Type),
		BookingID: FromNullString(m.BookingID),
		Data:      m.Data,
		CreatedAt: m.CreatedAt,
	}
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &d.Metadata); err != nil {
			return domain.AuditEvent{}, fmt.Errorf("decode audit metadata of %s: %w", m.ID, err)
		}
	}
	return d, nil
}
