package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/asso7/concert_ledger/internal/core/ports/services"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/asso7/concert_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// bookingHandler handles bookings, their rosters and their lifecycle transitions.
type bookingHandler struct {
	bookingService   portssvc.BookingSvcFacade
	lifecycleService portssvc.LifecycleSvcFacade
}

func newBookingHandler(bs portssvc.BookingSvcFacade, ls portssvc.LifecycleSvcFacade) *bookingHandler {
	return &bookingHandler{bookingService: bs, lifecycleService: ls}
}

// registerBookingRoutes registers routes related to bookings.
func registerBookingRoutes(rg *gin.RouterGroup, bookingService portssvc.BookingSvcFacade, lifecycleService portssvc.LifecycleSvcFacade) {
	h := newBookingHandler(bookingService, lifecycleService)

	bookings := rg.Group("/bookings")
	{
		bookings.POST("", h.createBooking)
		bookings.GET("", h.listBookings)
		bookings.GET("/:bookingID", h.getBooking)
		bookings.PUT("/:bookingID", h.updateBooking)
		bookings.DELETE("/:bookingID", h.deleteBooking)

		bookings.PUT("/:bookingID/roster", h.replaceRoster)
		bookings.POST("/:bookingID/participants", h.addParticipant)
		bookings.DELETE("/:bookingID/participants/:participationID", h.removeParticipant)
		bookings.PUT("/:bookingID/participants/:participationID/paid", h.setParticipantPaid)

		bookings.GET("/:bookingID/allocation", h.getAllocation)
		bookings.POST("/:bookingID/overrides", h.applyOverrides)
		bookings.POST("/:bookingID/settle", h.settleBooking)
		bookings.POST("/:bookingID/unsettle", h.unsettleBooking)
		bookings.POST("/:bookingID/recompute", h.recomputeBooking)
		bookings.PUT("/:bookingID/provisional-expense", h.setProvisionalExpense)
		bookings.DELETE("/:bookingID/provisional-expense", h.deleteProvisionalExpense)

		bookings.GET("/:bookingID/audit", h.listAuditEvents)
	}
}

// createBooking godoc
// @Summary Create a booking
// @Description Creates a booking with its roster. The bonus member and the structure always join. Credits are computed immediately.
// @Tags bookings
// @Accept json
// @Produce json
// @Param booking body dto.CreateBookingRequest true "Booking details"
// @Success 201 {object} dto.TransitionResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Unknown member or payment method"
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /bookings [post]
func (h *bookingHandler) createBooking(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	result, err := h.bookingService.CreateBooking(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err, "create booking")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Booking created", slog.String("booking_id", result.Booking.BookingID))
	c.JSON(http.StatusCreated, result)
}

// listBookings godoc
// @Summary List bookings
// @Description Lists bookings, newest first, with cursor pagination.
// @Tags bookings
// @Produce json
// @Param settled query bool false "Filter on the settled flag"
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListBookingsResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /bookings [get]
func (h *bookingHandler) listBookings(c *gin.Context) {
	var params dto.ListBookingsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.bookingService.ListBookings(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "list bookings")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getBooking godoc
// @Summary Get a booking
// @Tags bookings
// @Produce json
// @Param bookingID path string true "Booking ID"
// @Success 200 {object} dto.BookingResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /bookings/{bookingID} [get]
func (h *bookingHandler) getBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBookingByID(c.Request.Context(), c.Param("bookingID"))
	if err != nil {
		respondError(c, err, "get booking")
		return
	}
	c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

// updateBooking godoc
// @Summary Update a booking
// @Description Edits date, venue, expected proceeds or payment method, then recomputes.
// @Tags bookings
// @Accept json
// @Produce json
// @Param bookingID path string true "Booking ID"
// @Param booking body dto.UpdateBookingRequest true "Fields to change"
// @Success 200 {object} dto.TransitionResult
// @Failure 400 {object} ErrorResponse "Expected proceeds of a settled booking"
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /bookings/{bookingID} [put]
func (h *bookingHandler) updateBooking(c *gin.Context) {
	var req dto.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	result, err := h.bookingService.UpdateBooking(c.Request.Context(), c.Param("bookingID"), req, actor)
	if err != nil {
		respondError(c, err, "update booking")
		return
	}
	c.JSON(http.StatusOK, result)
}

// deleteBooking godoc
// @Summary Delete a booking
// @Description Deletes the booking, its roster and every ledger entry linked to it.
// @Tags bookings
// @Param bookingID path string true "Booking ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /bookings/{bookingID} [delete]
func (h *bookingHandler) deleteBooking(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	bookingID := c.Param("bookingID")
	if err := h.bookingService.DeleteBooking(c.Request.Context(), bookingID, actor); err != nil {
		respondError(c, err, "delete booking")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Booking deleted", slog.String("booking_id", bookingID))
	c.Status(http.StatusNoContent)
}

// replaceRoster godoc
// @Summary Replace a booking's roster
// @Tags bookings
// @Accept json
// @Produce json
// @Param bookingID path string true "Booking ID"
// @Param roster body dto.ReplaceRosterRequest true "Member IDs"
// @Success 200 {object} dto.TransitionResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /bookings/{bookingID}/roster [put]
func (h *bookingHandler) replaceRoster(c *gin.Context) {
	var req dto.ReplaceRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	result, err := h.bookingService.ReplaceRoster(c.Request.Context(), c.Param("bookingID"), req.MemberIDs, actor)
	if err != nil {
		respondError(c, err, "replace roster")
		return
	}
	c.JSON(http.StatusOK, result)
}

// addParticipant godoc
// @Summary Add a member to a roster
// @Tags bookings
// @Accept json
// @Produce json
// @Param bookingID path string true "Booking ID"
// @Param participant body dto.AddParticipantRequest true "Member ID"
// @Success 200 {object} dto.TransitionResult
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Already on the roster"
// @Security BearerAuth
// @Router /bookings/{bookingID}/participants [post]
func (h *bookingHandler) addParticipant(c *gin.Context) {
	var req dto.AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	result, err := h.bookingService.AddParticipant(c.Request.Context(), c.Param("bookingID"), req.MemberID, actor)
	if err != nil {
		respondError(c, err, "add participant")
		return
	}
	c.JSON(http.StatusOK, result)
}

// removeParticipant godoc
// @Summary Remove a member from a roster
// @Description The structure cannot be removed.
// @Tags bookings
// @Produce json
// @Param bookingID path string true "Booking ID"
// @Param participationID path string true "Participation ID"
// @Success 200 {object} dto.TransitionResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /bookings/{bookingID}/participants/{participationID} [delete]
func (h *bookingHandler) removeParticipant(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	result, err := h.bookingService.RemoveParticipant(c.Request.Context(), c.Param("bookingID"), c.Param("participationID"), actor)
	if err != nil {
		respondError(c, err, "remove participant")
		return
	}
	c.JSON(http.StatusOK, result)
}

// setParticipantPaid godoc
// @Summary Set the roster-paid flag
// @Tags bookings
// @Accept json
// @Param bookingID path string true "Booking ID"
// @Param participationID path string true "Participation ID"
// @Param paid body dto.SetParticipantPaidRequest true "Flag"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /bookings/{bookingID}/participants/{participationID}/paid [put]
func (h *bookingHandler) setParticipantPaid(c *gin.Context) {
	var req dto.SetParticipantPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	err := h.bookingService.SetParticipantPaid(c.Request.Context(), c.Param("bookingID"), c.Param("participationID"), *req.Paid, actor)
	if err != nil {
		respondError(c, err, "set roster paid flag")
		return
	}
	c.Status(http.StatusNoContent)
}

// getAllocation godoc
// @Summary Get a booking's allocation
// @Description Roster rows with base share, pinned amount, potential and real credit.
// @Tags bookings
// @Produce json
// @Param bookingID path string true "Booking ID"
// @Success 200 {object} dto.AllocationView
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /bookings/{bookingID}/allocation [get]
func (h *bookingHandler) getAllocation(c *gin.Context) {
	view, err := h.bookingService.GetAllocationView(c.Request.Context(), c.Param("bookingID"))
	if err != nil {
		respondError(c, err, "get allocation")
		return
	}
	c.JSON(http.StatusOK, view)
}

// applyOverrides godoc
// @Summary Pin participation amounts
// @Description Pins participations to fixed amounts and spreads the remainder over the others. A null amount clears the pin.
// @Tags lifecycle
// @Accept json
// @Produce json
// @Param bookingID path string true "Booking ID"
// @Param overrides body dto.ApplyOverridesRequest true "Participation ID to amount"
// @Success 200 {object} dto.TransitionResult
// @Failure 400 {object} ErrorResponse "Pins exceed the total or are negative"
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /bookings/{bookingID}/overrides [post]
func (h *bookingHandler) applyOverrides(c *gin.Context) {
	var req dto.ApplyOverridesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	pins := make(map[string]decimal.NullDecimal, len(req.Overrides))
	for participationID, amount := range req.Overrides {
		if amount == nil {
			pins[participationID] = decimal.NullDecimal{}
			continue
		}
		pins[participationID] = decimal.NewNullDecimal(*amount)
	}

	result, err := h.lifecycleService.ApplyOverrides(c.Request.Context(), c.Param("bookingID"), pins, actor)
	if err != nil {
		respondError(c, err, "apply overrides")
		return
	}
	c.JSON(http.StatusOK, result)
}

// settleBooking godoc
// @Summary Settle a booking
// @Description Marks the booking paid, converts potential credits into real ones and books the proceeds on the payment method. Idempotent.
// @Tags lifecycle
// @Accept json
// @Produce json
// @Param bookingID path string true "Booking ID"
// @Param settle body dto.SettleBookingRequest false "Actual amount, payment method and date"
// @Success 200 {object} dto.TransitionResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /bookings/{bookingID}/settle [post]
func (h *bookingHandler) settleBooking(c *gin.Context) {
	var req dto.SettleBookingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	params := dto.SettleParams{Amount: req.Amount, PaymentMethodID: req.PaymentMethodID, Date: req.Date}
	bookingID := c.Param("bookingID")
	result, err := h.lifecycleService.SettleBooking(c.Request.Context(), bookingID, params, actor)
	if err != nil {
		respondError(c, err, "settle booking")
		return
	}

	middleware.TrackEvent(c, "booking_settled", map[string]any{
		"booking_id": bookingID,
		"proceeds":   result.Booking.ActualProceeds.Decimal.String(),
	})
	c.JSON(http.StatusOK, result)
}

// unsettleBooking godoc
// @Summary Unsettle a booking
// @Description Undoes a payment: real credits return to potential and the settlement entry is removed.
// @Tags lifecycle
// @Produce json
// @Param bookingID path string true "Booking ID"
// @Success 200 {object} dto.TransitionResult
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /bookings/{bookingID}/unsettle [post]
func (h *bookingHandler) unsettleBooking(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	result, err := h.lifecycleService.UnsettleBooking(c.Request.Context(), c.Param("bookingID"), actor)
	if err != nil {
		respondError(c, err, "unsettle booking")
		return
	}
	c.JSON(http.StatusOK, result)
}

// recomputeBooking godoc
// @Summary Recompute a booking
// @Tags lifecycle
// @Produce json
// @Param bookingID path string true "Booking ID"
// @Success 200 {object} dto.TransitionResult
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /bookings/{bookingID}/recompute [post]
func (h *bookingHandler) recomputeBooking(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	result, err := h.lifecycleService.RecomputeForBooking(c.Request.Context(), c.Param("bookingID"), actor)
	if err != nil {
		respondError(c, err, "recompute booking")
		return
	}
	c.JSON(http.StatusOK, result)
}

// setProvisionalExpense godoc
// @Summary Set the provisional expense
// @Description Sets the projected cost of an unsettled booking. Zero removes it.
// @Tags bookings
// @Accept json
// @Produce json
// @Param bookingID path string true "Booking ID"
// @Param expense body dto.SetProvisionalExpenseRequest true "Amount"
// @Success 200 {object} dto.TransitionResult
// @Failure 400 {object} ErrorResponse "Booking is settled"
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /bookings/{bookingID}/provisional-expense [put]
func (h *bookingHandler) setProvisionalExpense(c *gin.Context) {
	var req dto.SetProvisionalExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	h.writeProvisionalExpense(c, req.Amount)
}

// deleteProvisionalExpense godoc
// @Summary Remove the provisional expense
// @Tags bookings
// @Produce json
// @Param bookingID path string true "Booking ID"
// @Success 200 {object} dto.TransitionResult
// @Failure 400 {object} ErrorResponse "Booking is settled"
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /bookings/{bookingID}/provisional-expense [delete]
func (h *bookingHandler) deleteProvisionalExpense(c *gin.Context) {
	h.writeProvisionalExpense(c, decimal.Zero)
}

func (h *bookingHandler) writeProvisionalExpense(c *gin.Context, amount decimal.Decimal) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	result, err := h.bookingService.SetProvisionalExpense(c.Request.Context(), c.Param("bookingID"), amount, actor)
	if err != nil {
		respondError(c, err, "set provisional expense")
		return
	}
	c.JSON(http.StatusOK, result)
}

// listAuditEvents godoc
// @Summary List a booking's audit trail
// @Tags bookings
// @Produce json
// @Param bookingID path string true "Booking ID"
// @Param limit query int false "Maximum events" default(50)
// @Success 200 {object} dto.ListAuditEventsResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /bookings/{bookingID}/audit [get]
func (h *bookingHandler) listAuditEvents(c *gin.Context) {
	var params dto.ListAuditEventsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}
	events, err := h.bookingService.ListAuditEvents(c.Request.Context(), c.Param("bookingID"), params.Limit)
	if err != nil {
		respondError(c, err, "list audit events")
		return
	}
	c.JSON(http.StatusOK, dto.ListAuditEventsResponse{Events: events})
}
