package handlers_test

import (
	"fmt"
	"net/http"
	"time"

	"github.com/asso7/concert_ledger/internal/apperrors"
	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/stretchr/testify/mock"
)

func (s *HandlerTestSuite) TestCreateEntry_WithOffset() {
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	debitID, creditID := "e-1", "e-2"
	created := []domain.LedgerEntry{
		{EntryID: debitID, MemberID: "bank", Direction: domain.EntryDebit, Motive: "expenses", Amount: dec("30"), EntryDate: date, PairedEntryID: &creditID, Source: domain.SourceManual},
		{EntryID: creditID, MemberID: "m-1", Direction: domain.EntryCredit, Motive: "expenses", Amount: dec("30"), EntryDate: date, PairedEntryID: &debitID, Source: domain.SourceOffset},
	}
	s.entries.On("CreateEntry", mock.Anything, mock.MatchedBy(func(r dto.CreateEntryRequest) bool {
		return r.MemberID == "bank" && r.Direction == domain.EntryDebit &&
			r.Amount.Equal(dec("30")) && r.OffsetMemberID != nil && *r.OffsetMemberID == "m-1" &&
			r.BookingID != nil && *r.BookingID == "b-1"
	}), testOperator).Return(created, nil).Once()

	w := s.serve(http.MethodPost, "/api/v1/entries",
		`{"memberID":"bank","direction":"debit","motive":"expenses","amount":"30.00","date":"2025-06-02","bookingID":"b-1","offsetMemberID":"m-1"}`)

	s.Equal(http.StatusCreated, w.Code)
	var resp []dto.EntryResponse
	s.decode(w, &resp)
	s.Require().Len(resp, 2)
	s.Equal(creditID, *resp[0].PairedEntryID)
	s.Equal("2025-06-02", resp[1].Date.String())
}

func (s *HandlerTestSuite) TestCreateEntry_BadInput() {
	tests := []struct {
		name string
		body string
	}{
		{"unknown direction", `{"memberID":"m-1","direction":"up","motive":"x","amount":1,"date":"2025-06-02"}`},
		{"negative amount", `{"memberID":"m-1","direction":"credit","motive":"x","amount":-1,"date":"2025-06-02"}`},
		{"sub-cent amount", `{"memberID":"m-1","direction":"credit","motive":"x","amount":"1.234","date":"2025-06-02"}`},
		{"missing date", `{"memberID":"m-1","direction":"credit","motive":"x","amount":1}`},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.serve(http.MethodPost, "/api/v1/entries", tt.body)
			s.Equal(http.StatusBadRequest, w.Code)
		})
	}
	s.entries.AssertNotCalled(s.T(), "CreateEntry")
}

func (s *HandlerTestSuite) TestListEntries() {
	s.entries.On("ListEntriesByMember", mock.Anything, mock.MatchedBy(func(p dto.ListEntriesParams) bool {
		return p.MemberID == "m-1" && p.Limit == 50 && p.NextToken == nil
	})).Return(&dto.ListEntriesResponse{Entries: []dto.EntryResponse{{EntryID: "e-1"}}}, nil).Once()

	w := s.serve(http.MethodGet, "/api/v1/entries?memberID=m-1", nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.serve(http.MethodGet, "/api/v1/entries", nil)
	s.Equal(http.StatusBadRequest, w.Code, "memberID is required")
}

func (s *HandlerTestSuite) TestDeleteEntry() {
	s.entries.On("DeleteEntry", mock.Anything, "e-1", testOperator).Return(nil).Once()
	s.entries.On("DeleteEntry", mock.Anything, "e-settle", testOperator).
		Return(fmt.Errorf("%w: settlement entries are managed by the booking", apperrors.ErrValidation)).Once()

	w := s.serve(http.MethodDelete, "/api/v1/entries/e-1", nil)
	s.Equal(http.StatusNoContent, w.Code)

	w = s.serve(http.MethodDelete, "/api/v1/entries/e-settle", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestUpdateEntry() {
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	updated := []domain.LedgerEntry{
		{EntryID: "e-1", MemberID: "bank", Direction: domain.EntryDebit, Motive: "expenses", Amount: dec("45"), EntryDate: date, Source: domain.SourceManual},
	}
	s.entries.On("UpdateEntry", mock.Anything, "e-1", mock.MatchedBy(func(r dto.UpdateEntryRequest) bool {
		return r.Amount != nil && r.Amount.Equal(dec("45")) && r.MemberID == nil && r.BookingID == nil
	}), testOperator).Return(updated, nil).Once()
	s.entries.On("UpdateEntry", mock.Anything, "e-settle", mock.Anything, testOperator).
		Return(nil, fmt.Errorf("%w: settlement entries are managed by their booking", apperrors.ErrValidation)).Once()

	w := s.serve(http.MethodPut, "/api/v1/entries/e-1", `{"amount":"45.00"}`)
	s.Equal(http.StatusOK, w.Code)
	var resp []dto.EntryResponse
	s.decode(w, &resp)
	s.Require().Len(resp, 1)
	s.True(resp[0].Amount.Equal(dec("45")))

	w = s.serve(http.MethodPut, "/api/v1/entries/e-settle", `{"details":"x"}`)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.serve(http.MethodPut, "/api/v1/entries/e-1", `{"direction":"sideways"}`)
	s.Equal(http.StatusBadRequest, w.Code)
	w = s.serve(http.MethodPut, "/api/v1/entries/e-1", `{"amount":"1.005"}`)
	s.Equal(http.StatusBadRequest, w.Code)
}
