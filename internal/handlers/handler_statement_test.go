package handlers_test

import (
	"net/http"
	"time"

	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

func (s *HandlerTestSuite) TestGetStatement() {
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	statement := &domain.Statement{
		AsOf: asOf,
		Members: []domain.StatementRow{
			{MemberID: "m-1", Name: "Alice", CurrentCredit: dec("-5"), UpcomingGains: dec("77.50"), PotentialCredit: dec("72.50")},
		},
		Treasury: domain.StatementRow{Name: "Treasury", UpcomingGains: dec("300"), PotentialCredit: dec("300")},
	}
	s.statement.On("GetStatement", mock.Anything, mock.MatchedBy(func(t time.Time) bool {
		return t.Equal(asOf)
	})).Return(statement, nil).Once()

	w := s.serve(http.MethodGet, "/api/v1/statement?asOf=2025-06-01", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp domain.Statement
	s.decode(w, &resp)
	s.Require().Len(resp.Members, 1)
	s.True(resp.Members[0].PotentialCredit.Equal(dec("72.50")))
	s.True(resp.Treasury.PotentialCredit.Equal(dec("300")))
}

func (s *HandlerTestSuite) TestGetStatement_DefaultsToToday() {
	before := time.Now()
	s.statement.On("GetStatement", mock.Anything, mock.MatchedBy(func(t time.Time) bool {
		return !t.Before(before) && t.Before(before.Add(time.Minute))
	})).Return(&domain.Statement{}, nil).Once()

	w := s.serve(http.MethodGet, "/api/v1/statement", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestGetStatement_BadDate() {
	w := s.serve(http.MethodGet, "/api/v1/statement?asOf=June", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}
