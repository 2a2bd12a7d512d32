package handlers_test

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/asso7/concert_ledger/internal/apperrors"
	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func (s *HandlerTestSuite) TestCreateMember() {
	req := dto.CreateMemberRequest{Name: "Alice", Kind: domain.MemberKindPerson, IsBonusRole: true}
	s.members.On("CreateMember", mock.Anything, req, testOperator).
		Return(&domain.Member{MemberID: "m-1", Name: "Alice", Kind: domain.MemberKindPerson, IsActive: true, IsBonusRole: true}, nil).Once()

	w := s.serve(http.MethodPost, "/api/v1/members", req)

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.MemberResponse
	s.decode(w, &resp)
	s.Equal("m-1", resp.MemberID)
	s.True(resp.IsBonusRole)
}

func (s *HandlerTestSuite) TestCreateMember_InvalidKind() {
	w := s.serve(http.MethodPost, "/api/v1/members", `{"name":"Alice","kind":"robot"}`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.members.AssertNotCalled(s.T(), "CreateMember")
}

func (s *HandlerTestSuite) TestMemberErrorMapping() {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"duplicate role", fmt.Errorf("%w: bonus role already held", apperrors.ErrDuplicate), http.StatusConflict},
		{"validation", fmt.Errorf("%w: name is required", apperrors.ErrValidation), http.StatusBadRequest},
		{"not found", apperrors.NewNotFoundError("member", "m-9"), http.StatusNotFound},
		{"store failure", apperrors.NewAppError(500, "failed to commit transaction", errors.New("conn reset")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.members.On("UpdateMember", mock.Anything, "m-9", mock.Anything, testOperator).Return(nil, tt.err).Once()

			w := s.serve(http.MethodPut, "/api/v1/members/m-9", `{"isBonusRole":true}`)

			s.Equal(tt.status, w.Code)
			if tt.status == http.StatusInternalServerError {
				s.Equal("Failed to update member", s.errorMessage(w))
			} else {
				s.Contains(s.errorMessage(w), tt.err.Error())
			}
		})
	}
}

func (s *HandlerTestSuite) TestUpdateMember_PartialBody() {
	s.members.On("UpdateMember", mock.Anything, "m-1", mock.MatchedBy(func(r dto.UpdateMemberRequest) bool {
		return r.IsActive != nil && !*r.IsActive && r.Name == nil && r.IsBonusRole == nil
	}), testOperator).Return(&domain.Member{MemberID: "m-1", Name: "Alice"}, nil).Once()

	w := s.serve(http.MethodPut, "/api/v1/members/m-1", `{"isActive":false}`)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestListMembers() {
	s.members.On("ListMembers", mock.Anything, true).
		Return([]domain.Member{{MemberID: "m-1", Name: "Alice"}, {MemberID: "m-2", Name: "Bob"}}, nil).Once()

	w := s.serve(http.MethodGet, "/api/v1/members?includeInactive=true", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ListMembersResponse
	s.decode(w, &resp)
	s.Len(resp.Members, 2)
}

func (s *HandlerTestSuite) TestGetMember_NotFound() {
	s.members.On("GetMemberByID", mock.Anything, "ghost").Return(nil, apperrors.NewNotFoundError("member", "ghost")).Once()
	w := s.serve(http.MethodGet, "/api/v1/members/ghost", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestDeleteMember() {
	s.members.On("DeleteMember", mock.Anything, "m-1", testOperator).Return(nil).Once()
	w := s.serve(http.MethodDelete, "/api/v1/members/m-1", nil)
	s.Equal(http.StatusNoContent, w.Code)
}

func (s *HandlerTestSuite) TestSetCarryover() {
	s.Run("negative amounts are debts", func() {
		s.members.On("SetCarryover", mock.Anything, "m-1", mock.MatchedBy(func(d decimal.Decimal) bool {
			return d.Equal(decimal.RequireFromString("-20.50"))
		}), testOperator).Return(nil).Once()

		w := s.serve(http.MethodPut, "/api/v1/members/m-1/carryover", `{"amount":"-20.50"}`)
		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("sub-cent amounts are rejected before the service", func() {
		w := s.serve(http.MethodPut, "/api/v1/members/m-1/carryover", `{"amount":10.005}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}
