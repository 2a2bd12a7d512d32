package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/asso7/concert_ledger/internal/core/ports/services"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/asso7/concert_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// entryHandler handles manual ledger entries.
type entryHandler struct {
	entryService portssvc.LedgerEntrySvcFacade
}

func newEntryHandler(es portssvc.LedgerEntrySvcFacade) *entryHandler {
	return &entryHandler{entryService: es}
}

// registerEntryRoutes registers routes related to ledger entries.
func registerEntryRoutes(rg *gin.RouterGroup, entryService portssvc.LedgerEntrySvcFacade) {
	h := newEntryHandler(entryService)

	entries := rg.Group("/entries")
	{
		entries.POST("", h.createEntry)
		entries.GET("", h.listEntries)
		entries.PUT("/:entryID", h.updateEntry)
		entries.DELETE("/:entryID", h.deleteEntry)
	}
}

// createEntry godoc
// @Summary Record a ledger entry
// @Description Records a credit or debit on a member. With offsetMemberID the mirror entry is recorded too. Expense entries linked to a booking update its credits.
// @Tags entries
// @Accept json
// @Produce json
// @Param entry body dto.CreateEntryRequest true "Entry"
// @Success 201 {array} dto.EntryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Unknown member or booking"
// @Security BearerAuth
// @Router /entries [post]
func (h *entryHandler) createEntry(c *gin.Context) {
	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	entries, err := h.entryService.CreateEntry(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err, "create entry")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Ledger entry created",
		slog.String("member_id", req.MemberID), slog.Int("entries", len(entries)))
	c.JSON(http.StatusCreated, dto.ToEntryResponses(entries))
}

// listEntries godoc
// @Summary List a member's entries
// @Tags entries
// @Produce json
// @Param memberID query string true "Member ID"
// @Param limit query int false "Page size" default(50)
// @Param nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListEntriesResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /entries [get]
func (h *entryHandler) listEntries(c *gin.Context) {
	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.entryService.ListEntriesByMember(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "list entries")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// updateEntry godoc
// @Summary Edit a ledger entry
// @Description Partial edit of a manual entry. Shared fields are mirrored onto the pair and every booking whose expenses move is recomputed.
// @Tags entries
// @Accept json
// @Produce json
// @Param entryID path string true "Entry ID"
// @Param entry body dto.UpdateEntryRequest true "Fields to change"
// @Success 200 {array} dto.EntryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /entries/{entryID} [put]
func (h *entryHandler) updateEntry(c *gin.Context) {
	var req dto.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	entries, err := h.entryService.UpdateEntry(c.Request.Context(), c.Param("entryID"), req, actor)
	if err != nil {
		respondError(c, err, "update entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryResponses(entries))
}

// deleteEntry godoc
// @Summary Delete a ledger entry
// @Description Deletes the entry and its pair. Settlement and provisional entries are refused.
// @Tags entries
// @Param entryID path string true "Entry ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /entries/{entryID} [delete]
func (h *entryHandler) deleteEntry(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.entryService.DeleteEntry(c.Request.Context(), c.Param("entryID"), actor); err != nil {
		respondError(c, err, "delete entry")
		return
	}
	c.Status(http.StatusNoContent)
}
