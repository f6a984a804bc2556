package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/minicrm/crm-api/internal/core/ports"
)

// LeadHandler handles HTTP requests for lead operations.
type LeadHandler struct {
	service ports.LeadService
}

func NewLeadHandler(service ports.LeadService) *LeadHandler {
	return &LeadHandler{service: service}
}

// Create handles POST /leads.
//
// @Summary      Create a lead
// @Description  Non-numeric values are stored as 0. Status starts at New.
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createLeadRequest  true  "Lead"
// @Success      201   {object}  domain.Lead
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /leads [post]
func (h *LeadHandler) Create(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req createLeadRequest
	if err := bindAndValidate(c, &req, "Title, customer, and assigned user are required."); err != nil {
		return err
	}

	lead, err := h.service.Create(c.Request().Context(), caller, ports.CreateLeadInput{
		Title:        req.Title,
		Description:  req.Description,
		Value:        req.Value,
		CustomerID:   req.CustomerID,
		AssignedToID: req.AssignedToID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, lead)
}

// List handles GET /leads. Employees only see leads assigned to them.
//
// @Summary      List leads, newest first
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Lead
// @Failure      401  {object}  errorResponse
// @Router       /leads [get]
func (h *LeadHandler) List(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	leads, err := h.service.List(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, leads)
}

// Stats handles GET /leads/stats.
//
// @Summary      Lead totals by status
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.LeadStats
// @Failure      401  {object}  errorResponse
// @Router       /leads/stats [get]
func (h *LeadHandler) Stats(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	stats, err := h.service.Stats(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Update handles PUT /leads/:id.
//
// @Summary      Update a lead
// @Description  Admins edit every field. The assigned employee may send status only.
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Lead id"
// @Param        body  body      updateLeadRequest  true  "Changes"
// @Success      200   {object}  domain.Lead
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /leads/{id} [put]
func (h *LeadHandler) Update(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	keys, err := bodyKeys(c)
	if err != nil {
		return err
	}
	var req updateLeadRequest
	if err := bindAndValidate(c, &req, "Invalid request body."); err != nil {
		return err
	}

	lead, err := h.service.Update(c.Request().Context(), caller, c.Param("id"), ports.UpdateLeadInput{
		Title:        req.Title,
		Description:  req.Description,
		Value:        req.Value,
		CustomerID:   req.CustomerID,
		AssignedToID: req.AssignedToID,
		Status:       req.Status,
		Keys:         keys,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lead)
}

// Delete handles DELETE /leads/:id.
//
// @Summary      Delete a lead
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Lead id"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  errorResponse
// @Router       /leads/{id} [delete]
func (h *LeadHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Msg: "Lead has been removed."})
}
