package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/asso7/concert_ledger/internal/core/ports/services"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/asso7/concert_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// memberHandler handles HTTP requests related to members.
type memberHandler struct {
	memberService portssvc.MemberSvcFacade
}

func newMemberHandler(ms portssvc.MemberSvcFacade) *memberHandler {
	return &memberHandler{memberService: ms}
}

// registerMemberRoutes registers routes related to members.
func registerMemberRoutes(rg *gin.RouterGroup, memberService portssvc.MemberSvcFacade) {
	h := newMemberHandler(memberService)

	members := rg.Group("/members")
	{
		members.POST("", h.createMember)
		members.GET("", h.listMembers)
		members.GET("/:memberID", h.getMember)
		members.PUT("/:memberID", h.updateMember)
		members.DELETE("/:memberID", h.deleteMember)
		members.PUT("/:memberID/carryover", h.setCarryover)
	}
}

// createMember godoc
// @Summary Create a member
// @Description Creates a person or structure. The bonus and structure roles can each be held by one active member.
// @Tags members
// @Accept json
// @Produce json
// @Param member body dto.CreateMemberRequest true "Member details"
// @Success 201 {object} dto.MemberResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Role already held"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /members [post]
func (h *memberHandler) createMember(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	member, err := h.memberService.CreateMember(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err, "create member")
		return
	}

	logger.Info("Member created", slog.String("member_id", member.MemberID))
	c.JSON(http.StatusCreated, dto.ToMemberResponse(member))
}

// listMembers godoc
// @Summary List members
// @Tags members
// @Produce json
// @Param includeInactive query bool false "Include deactivated members"
// @Success 200 {object} dto.ListMembersResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /members [get]
func (h *memberHandler) listMembers(c *gin.Context) {
	var params dto.ListMembersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}

	members, err := h.memberService.ListMembers(c.Request.Context(), params.IncludeInactive)
	if err != nil {
		respondError(c, err, "list members")
		return
	}
	c.JSON(http.StatusOK, dto.ToListMembersResponse(members))
}

// getMember godoc
// @Summary Get a member
// @Tags members
// @Produce json
// @Param memberID path string true "Member ID"
// @Success 200 {object} dto.MemberResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /members/{memberID} [get]
func (h *memberHandler) getMember(c *gin.Context) {
	member, err := h.memberService.GetMemberByID(c.Request.Context(), c.Param("memberID"))
	if err != nil {
		respondError(c, err, "get member")
		return
	}
	c.JSON(http.StatusOK, dto.ToMemberResponse(member))
}

// updateMember godoc
// @Summary Update a member
// @Description Renames, (de)activates or changes the roles of a member. Role changes recompute the bookings the member sits on.
// @Tags members
// @Accept json
// @Produce json
// @Param memberID path string true "Member ID"
// @Param member body dto.UpdateMemberRequest true "Fields to change"
// @Success 200 {object} dto.MemberResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /members/{memberID} [put]
func (h *memberHandler) updateMember(c *gin.Context) {
	var req dto.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	member, err := h.memberService.UpdateMember(c.Request.Context(), c.Param("memberID"), req, actor)
	if err != nil {
		respondError(c, err, "update member")
		return
	}
	c.JSON(http.StatusOK, dto.ToMemberResponse(member))
}

// deleteMember godoc
// @Summary Delete a member
// @Description Deletes the member with its entries, carryover and roster rows, then recomputes affected bookings.
// @Tags members
// @Param memberID path string true "Member ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /members/{memberID} [delete]
func (h *memberHandler) deleteMember(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	memberID := c.Param("memberID")
	if err := h.memberService.DeleteMember(c.Request.Context(), memberID, actor); err != nil {
		respondError(c, err, "delete member")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Member deleted", slog.String("member_id", memberID))
	c.Status(http.StatusNoContent)
}

// setCarryover godoc
// @Summary Set a member's carryover
// @Description Sets the balance carried over from before the ledger started. Negative is a debt.
// @Tags members
// @Accept json
// @Param memberID path string true "Member ID"
// @Param carryover body dto.SetCarryoverRequest true "Amount"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /members/{memberID}/carryover [put]
func (h *memberHandler) setCarryover(c *gin.Context) {
	var req dto.SetCarryoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.memberService.SetCarryover(c.Request.Context(), c.Param("memberID"), req.Amount, actor); err != nil {
		respondError(c, err, "set carryover")
		return
	}
	c.Status(http.StatusNoContent)
}
