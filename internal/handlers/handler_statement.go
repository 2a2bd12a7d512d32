package handlers

import (
	"net/http"
	"time"

	portssvc "github.com/asso7/concert_ledger/internal/core/ports/services"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/gin-gonic/gin"
)

type statementHandler struct {
	statementService portssvc.StatementSvcFacade
	now              func() time.Time
}

func registerStatementRoutes(rg *gin.RouterGroup, statementService portssvc.StatementSvcFacade) {
	h := &statementHandler{statementService: statementService, now: time.Now}
	rg.GET("/statement", h.getStatement)
}

// getStatement godoc
// @Summary Account statement
// @Description Current credit, upcoming gains and potential credit of every active member as of a date (today by default).
// @Tags statement
// @Produce json
// @Param asOf query string false "Calendar date, YYYY-MM-DD"
// @Success 200 {object} domain.Statement
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /statement [get]
func (h *statementHandler) getStatement(c *gin.Context) {
	var params dto.StatementParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}
	asOf := params.AsOf
	if asOf.IsZero() {
		asOf = h.now()
	}

	statement, err := h.statementService.GetStatement(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, err, "build statement")
		return
	}
	c.JSON(http.StatusOK, statement)
}
