package handlers_test

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/asso7/concert_ledger/internal/apperrors"
	"github.com/asso7/concert_ledger/internal/core/allocation"
	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func settledResult(bookingID string) *dto.TransitionResult {
	entryID := "e-settle"
	return &dto.TransitionResult{
		Booking: domain.Booking{
			BookingID:      bookingID,
			Date:           time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			Venue:          "Le Bikini",
			Settled:        true,
			ActualProceeds: decimal.NewNullDecimal(dec("300")),
		},
		Allocation:        allocation.Allocation{},
		SettlementEntryID: &entryID,
	}
}

func (s *HandlerTestSuite) TestCreateBooking() {
	s.bookings.On("CreateBooking", mock.Anything, mock.MatchedBy(func(r dto.CreateBookingRequest) bool {
		return r.Venue == "Le Bikini" &&
			r.Date.String() == "2025-06-01" &&
			r.ExpectedProceeds.Equal(dec("300")) &&
			len(r.MemberIDs) == 2
	}), testOperator).Return(&dto.TransitionResult{Booking: domain.Booking{BookingID: "b-1"}}, nil).Once()

	w := s.serve(http.MethodPost, "/api/v1/bookings",
		`{"date":"2025-06-01","venue":"Le Bikini","expectedProceeds":300,"memberIDs":["m-1","m-2"]}`)

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.TransitionResult
	s.decode(w, &resp)
	s.Equal("b-1", resp.Booking.BookingID)
}

func (s *HandlerTestSuite) TestCreateBooking_BadInput() {
	tests := []struct {
		name string
		body string
	}{
		{"missing venue", `{"date":"2025-06-01"}`},
		{"bad date", `{"date":"01/06/2025","venue":"x"}`},
		{"negative proceeds", `{"date":"2025-06-01","venue":"x","expectedProceeds":-1}`},
		{"sub-cent proceeds", `{"date":"2025-06-01","venue":"x","expectedProceeds":"10.001"}`},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.serve(http.MethodPost, "/api/v1/bookings", tt.body)
			s.Equal(http.StatusBadRequest, w.Code)
		})
	}
	s.bookings.AssertNotCalled(s.T(), "CreateBooking")
}

func (s *HandlerTestSuite) TestListBookings() {
	token := "cursor"
	s.bookings.On("ListBookings", mock.Anything, mock.MatchedBy(func(p dto.ListBookingsParams) bool {
		return p.Limit == 10 && p.Settled != nil && !*p.Settled && p.NextToken != nil && *p.NextToken == token
	})).Return(&dto.ListBookingsResponse{Bookings: []dto.BookingResponse{{BookingID: "b-1"}}}, nil).Once()

	w := s.serve(http.MethodGet, "/api/v1/bookings?limit=10&settled=false&nextToken=cursor", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ListBookingsResponse
	s.decode(w, &resp)
	s.Len(resp.Bookings, 1)
	s.Nil(resp.NextToken)
}

func (s *HandlerTestSuite) TestListBookings_LimitOutOfRange() {
	w := s.serve(http.MethodGet, "/api/v1/bookings?limit=1000", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestUpdateBooking_SettledProceeds() {
	s.bookings.On("UpdateBooking", mock.Anything, "b-1", mock.Anything, testOperator).
		Return(nil, fmt.Errorf("%w: expected proceeds cannot change once settled", apperrors.ErrValidation)).Once()

	w := s.serve(http.MethodPut, "/api/v1/bookings/b-1", `{"expectedProceeds":250}`)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(s.errorMessage(w), "expected proceeds")
}

func (s *HandlerTestSuite) TestRosterRoutes() {
	result := &dto.TransitionResult{Booking: domain.Booking{BookingID: "b-1"}}

	s.Run("replace", func() {
		s.bookings.On("ReplaceRoster", mock.Anything, "b-1", []string{"m-1", "m-3"}, testOperator).Return(result, nil).Once()
		w := s.serve(http.MethodPut, "/api/v1/bookings/b-1/roster", dto.ReplaceRosterRequest{MemberIDs: []string{"m-1", "m-3"}})
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("add twice is a conflict", func() {
		s.bookings.On("AddParticipant", mock.Anything, "b-1", "m-1", testOperator).
			Return(nil, fmt.Errorf("%w: member already on roster", apperrors.ErrDuplicate)).Once()
		w := s.serve(http.MethodPost, "/api/v1/bookings/b-1/participants", dto.AddParticipantRequest{MemberID: "m-1"})
		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("remove", func() {
		s.bookings.On("RemoveParticipant", mock.Anything, "b-1", "p-2", testOperator).Return(result, nil).Once()
		w := s.serve(http.MethodDelete, "/api/v1/bookings/b-1/participants/p-2", nil)
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("paid flag", func() {
		s.bookings.On("SetParticipantPaid", mock.Anything, "b-1", "p-2", false, testOperator).Return(nil).Once()
		w := s.serve(http.MethodPut, "/api/v1/bookings/b-1/participants/p-2/paid", `{"paid":false}`)
		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("paid flag is required", func() {
		w := s.serve(http.MethodPut, "/api/v1/bookings/b-1/participants/p-2/paid", `{}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *HandlerTestSuite) TestGetAllocation() {
	view := &dto.AllocationView{
		BookingID: "b-1",
		Rows: []dto.AllocationRow{
			{ParticipationID: "p-1", MemberID: "m-1", Name: "Alice", BaseShare: dec("67.5"), PotentialCredit: dec("67.5")},
		},
	}
	s.bookings.On("GetAllocationView", mock.Anything, "b-1").Return(view, nil).Once()

	w := s.serve(http.MethodGet, "/api/v1/bookings/b-1/allocation", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.AllocationView
	s.decode(w, &resp)
	s.Require().Len(resp.Rows, 1)
	s.True(resp.Rows[0].PotentialCredit.Equal(dec("67.5")))
}

func (s *HandlerTestSuite) TestApplyOverrides() {
	s.lifecycle.On("ApplyOverrides", mock.Anything, "b-1", mock.MatchedBy(func(pins map[string]decimal.NullDecimal) bool {
		return len(pins) == 2 &&
			pins["p-1"].Valid && pins["p-1"].Decimal.Equal(dec("100")) &&
			!pins["p-2"].Valid
	}), testOperator).Return(&dto.TransitionResult{}, nil).Once()

	w := s.serve(http.MethodPost, "/api/v1/bookings/b-1/overrides", `{"overrides":{"p-1":"100","p-2":null}}`)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestApplyOverrides_PinsExceedTotal() {
	s.lifecycle.On("ApplyOverrides", mock.Anything, "b-1", mock.Anything, testOperator).
		Return(nil, allocation.ErrPinsExceedTotal).Once()

	w := s.serve(http.MethodPost, "/api/v1/bookings/b-1/overrides", `{"overrides":{"p-1":"1000"}}`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestSettleBooking() {
	s.Run("with amount, method and date", func() {
		s.lifecycle.On("SettleBooking", mock.Anything, "b-1", mock.MatchedBy(func(p dto.SettleParams) bool {
			return p.Amount != nil && p.Amount.Equal(dec("300")) &&
				p.PaymentMethodID != nil && *p.PaymentMethodID == "bank" &&
				p.Date != nil && p.Date.String() == "2025-06-03"
		}), testOperator).Return(settledResult("b-1"), nil).Once()

		w := s.serve(http.MethodPost, "/api/v1/bookings/b-1/settle", `{"amount":300,"paymentMethodID":"bank","date":"2025-06-03"}`)

		s.Equal(http.StatusOK, w.Code)
		var resp dto.TransitionResult
		s.decode(w, &resp)
		s.True(resp.Booking.Settled)
		s.Require().NotNil(resp.SettlementEntryID)
		s.Equal("e-settle", *resp.SettlementEntryID)
	})

	s.Run("without body", func() {
		s.lifecycle.On("SettleBooking", mock.Anything, "b-2", dto.SettleParams{}, testOperator).Return(settledResult("b-2"), nil).Once()
		w := s.serve(http.MethodPost, "/api/v1/bookings/b-2/settle", nil)
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("store failure hides the cause", func() {
		s.lifecycle.On("SettleBooking", mock.Anything, "b-3", mock.Anything, testOperator).
			Return(nil, apperrors.NewAppError(500, "failed to commit transaction", errors.New("deadlock detected"))).Once()
		w := s.serve(http.MethodPost, "/api/v1/bookings/b-3/settle", nil)
		s.Equal(http.StatusInternalServerError, w.Code)
		s.Equal("Failed to settle booking", s.errorMessage(w))
	})
}

func (s *HandlerTestSuite) TestUnsettleAndRecompute() {
	s.lifecycle.On("UnsettleBooking", mock.Anything, "b-1", testOperator).Return(&dto.TransitionResult{DeletedSettlementEntries: 1}, nil).Once()
	s.lifecycle.On("RecomputeForBooking", mock.Anything, "missing", testOperator).Return(nil, apperrors.NewNotFoundError("booking", "missing")).Once()

	w := s.serve(http.MethodPost, "/api/v1/bookings/b-1/unsettle", nil)
	s.Equal(http.StatusOK, w.Code)
	var resp dto.TransitionResult
	s.decode(w, &resp)
	s.Equal(1, resp.DeletedSettlementEntries)

	w = s.serve(http.MethodPost, "/api/v1/bookings/missing/recompute", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestProvisionalExpense() {
	s.bookings.On("SetProvisionalExpense", mock.Anything, "b-1", mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(dec("45.20"))
	}), testOperator).Return(&dto.TransitionResult{}, nil).Once()
	s.bookings.On("SetProvisionalExpense", mock.Anything, "b-1", mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.IsZero()
	}), testOperator).Return(&dto.TransitionResult{}, nil).Once()

	w := s.serve(http.MethodPut, "/api/v1/bookings/b-1/provisional-expense", `{"amount":"45.20"}`)
	s.Equal(http.StatusOK, w.Code)

	w = s.serve(http.MethodDelete, "/api/v1/bookings/b-1/provisional-expense", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestDeleteBooking() {
	s.bookings.On("DeleteBooking", mock.Anything, "b-1", testOperator).Return(nil).Once()
	w := s.serve(http.MethodDelete, "/api/v1/bookings/b-1", nil)
	s.Equal(http.StatusNoContent, w.Code)
}

func (s *HandlerTestSuite) TestListAuditEvents() {
	bookingID := "b-1"
	events := []domain.AuditEvent{
		{ID: "a-2", Type: domain.AuditBookingSettled, BookingID: &bookingID},
		{ID: "a-1", Type: domain.AuditBookingCreated, BookingID: &bookingID},
	}
	s.bookings.On("ListAuditEvents", mock.Anything, bookingID, 50).Return(events, nil).Once()

	w := s.serve(http.MethodGet, "/api/v1/bookings/b-1/audit", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ListAuditEventsResponse
	s.decode(w, &resp)
	s.Require().Len(resp.Events, 2)
	s.Equal(domain.AuditBookingSettled, resp.Events[0].Type)
}
