package mapping

import (
	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/asso7/concert_ledger/internal/models"
)

// ToModelBooking converts a domain Booking to a model Booking
func ToModelBooking(d domain.Booking) models.Booking {
	return models.Booking{
		BookingID:           d.BookingID,
		BookingDate:         domain.DateOnly(d.Date),
		Venue:               d.Venue,
		Settled:             d.Settled,
		ActualProceeds:      d.ActualProceeds,
		ExpectedProceeds:    d.ExpectedProceeds,
		Expenses:            d.Expenses,
		ProvisionalExpenses: d.ProvisionalExpenses,
		PaymentMethodID:     ToNullString(d.PaymentMethodID),
		AuditFields:         ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainBooking converts a model Booking to a domain Booking
func ToDomainBooking(m models.Booking) domain.Booking {
	return domain.Booking{
		BookingID:           m.BookingID,
		Date:                domain.DateOnly(m.BookingDate),
		Venue:               m.Venue,
		Settled:             m.Settled,
		ActualProceeds:      m.ActualProceeds,
		ExpectedProceeds:    m.ExpectedProceeds,
		Expenses:            m.Expenses,
		ProvisionalExpenses: m.ProvisionalExpenses,
		PaymentMethodID:     FromNullString(m.PaymentMethodID),
		AuditFields:         ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainBookingSlice converts a slice of model Bookings to a slice of domain Bookings
func ToDomainBookingSlice(ms []models.Booking) []domain.Booking {
	ds := make([]domain.Booking, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainBooking(m)
	}
	return ds
}

// ToModelParticipation converts a domain Participation to a model Participation
func ToModelParticipation(d domain.Participation) models.Participation {
	return models.Participation{
		ParticipationID: d.ParticipationID,
		BookingID:       d.BookingID,
		MemberID:        d.MemberID,
		RosterPaid:      d.RosterPaid,
		PotentialCredit: d.PotentialCredit,
		RealCredit:      d.RealCredit,
		FixedGain:       d.FixedGain,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainParticipation converts a model Participation to a domain Participation
func ToDomainParticipation(m models.Participation) domain.Participation {
	return domain.Participation{
		ParticipationID: m.ParticipationID,
		BookingID:       m.BookingID,
		MemberID:        m.MemberID,
		RosterPaid:      m.RosterPaid,
		PotentialCredit: m.PotentialCredit,
		RealCredit:      m.RealCredit,
		FixedGain:       m.FixedGain,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}
