package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alvarohurtadobo/iot-backend/internal/repository"
	"github.com/alvarohurtadobo/iot-backend/internal/usecase"
)

// FleetHandler exposes business, branch, and machine endpoints.
type FleetHandler struct {
	fleet *usecase.FleetService
}

// NewFleetHandler constructs FleetHandler.
func NewFleetHandler(fleet *usecase.FleetService) *FleetHandler {
	return &FleetHandler{fleet: fleet}
}

// RegisterRoutes binds fleet hierarchy routes onto the supplied group.
func (h *FleetHandler) RegisterRoutes(r *gin.RouterGroup) {
	businesses := r.Group("/businesses")
	businesses.POST("", h.createBusiness)
	businesses.GET("", h.listBusinesses)
	businesses.GET("/:id", h.getBusiness)
	businesses.PATCH("/:id", h.updateBusiness)
	businesses.DELETE("/:id", h.deleteBusiness)
	businesses.GET("/:id/branches", h.listBranches)

	branches := r.Group("/branches")
	branches.POST("", h.createBranch)
	branches.GET("/:id", h.getBranch)
	branches.PATCH("/:id", h.updateBranch)
	branches.DELETE("/:id", h.deleteBranch)
	branches.GET("/:id/machines", h.listMachines)

	machines := r.Group("/machines")
	machines.POST("", h.createMachine)
	machines.GET("/:id", h.getMachine)
	machines.PATCH("/:id", h.updateMachine)
	machines.DELETE("/:id", h.deleteMachine)
}

func (h *FleetHandler) createBusiness(c *gin.Context) {
	var req BusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid business payload"))
		return
	}

	business, err := h.fleet.CreateBusiness(c.Request.Context(), req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to create business"))
		return
	}

	c.JSON(http.StatusCreated, newBusinessResponse(business))
}

func (h *FleetHandler) listBusinesses(c *gin.Context) {
	businesses, err := h.fleet.ListBusinesses(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list businesses"))
		return
	}

	out := make([]BusinessResponse, 0, len(businesses))
	for i := range businesses {
		out = append(out, newBusinessResponse(&businesses[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *FleetHandler) getBusiness(c *gin.Context) {
	business, err := h.fleet.GetBusiness(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondFleetError(c, err, "Business not found", "failed to fetch business")
		return
	}
	c.JSON(http.StatusOK, newBusinessResponse(business))
}

func (h *FleetHandler) updateBusiness(c *gin.Context) {
	var req BusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid business payload"))
		return
	}

	business, err := h.fleet.UpdateBusiness(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		h.respondFleetError(c, err, "Business not found", "failed to update business")
		return
	}
	c.JSON(http.StatusOK, newBusinessResponse(business))
}

func (h *FleetHandler) deleteBusiness(c *gin.Context) {
	if err := h.fleet.DeleteBusiness(c.Request.Context(), c.Param("id")); err != nil {
		h.respondFleetError(c, err, "Business not found", "failed to delete business")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FleetHandler) createBranch(c *gin.Context) {
	var req CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid branch payload"))
		return
	}

	branch, err := h.fleet.CreateBranch(c.Request.Context(), usecase.CreateBranchInput{
		BusinessID:       req.BusinessID,
		Name:             req.Name,
		Address:          req.Address,
		RepresentativeID: req.RepresentativeID,
	})
	if err != nil {
		h.respondFleetError(c, err, "Business not found", "failed to create branch")
		return
	}

	c.JSON(http.StatusCreated, newBranchResponse(branch))
}

func (h *FleetHandler) listBranches(c *gin.Context) {
	branches, err := h.fleet.ListBranches(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list branches"))
		return
	}

	out := make([]BranchResponse, 0, len(branches))
	for i := range branches {
		out = append(out, newBranchResponse(&branches[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *FleetHandler) getBranch(c *gin.Context) {
	branch, err := h.fleet.GetBranch(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondFleetError(c, err, "Branch not found", "failed to fetch branch")
		return
	}
	c.JSON(http.StatusOK, newBranchResponse(branch))
}

func (h *FleetHandler) updateBranch(c *gin.Context) {
	var req UpdateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid branch payload"))
		return
	}

	branch, err := h.fleet.UpdateBranch(c.Request.Context(), c.Param("id"), usecase.UpdateBranchInput{
		Name:             req.Name,
		Address:          req.Address,
		RepresentativeID: req.RepresentativeID,
	})
	if err != nil {
		h.respondFleetError(c, err, "Branch not found", "failed to update branch")
		return
	}
	c.JSON(http.StatusOK, newBranchResponse(branch))
}

func (h *FleetHandler) deleteBranch(c *gin.Context) {
	if err := h.fleet.DeleteBranch(c.Request.Context(), c.Param("id")); err != nil {
		h.respondFleetError(c, err, "Branch not found", "failed to delete branch")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FleetHandler) createMachine(c *gin.Context) {
	var req CreateMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid machine payload"))
		return
	}

	machine, err := h.fleet.CreateMachine(c.Request.Context(), req.BranchID, req.Name)
	if err != nil {
		h.respondFleetError(c, err, "Branch not found", "failed to create machine")
		return
	}

	c.JSON(http.StatusCreated, newMachineResponse(machine))
}

func (h *FleetHandler) listMachines(c *gin.Context) {
	machines, err := h.fleet.ListMachines(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list machines"))
		return
	}

	out := make([]MachineResponse, 0, len(machines))
	for i := range machines {
		out = append(out, newMachineResponse(&machines[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *FleetHandler) getMachine(c *gin.Context) {
	machine, err := h.fleet.GetMachine(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondFleetError(c, err, "Machine not found", "failed to fetch machine")
		return
	}
	c.JSON(http.StatusOK, newMachineResponse(machine))
}

func (h *FleetHandler) updateMachine(c *gin.Context) {
	var req UpdateMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid machine payload"))
		return
	}

	machine, err := h.fleet.UpdateMachine(c.Request.Context(), c.Param("id"), req.Name, req.BranchID)
	if err != nil {
		h.respondFleetError(c, err, "Machine not found", "failed to update machine")
		return
	}
	c.JSON(http.StatusOK, newMachineResponse(machine))
}

func (h *FleetHandler) deleteMachine(c *gin.Context) {
	if err := h.fleet.DeleteMachine(c.Request.Context(), c.Param("id")); err != nil {
		h.respondFleetError(c, err, "Machine not found", "failed to delete machine")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FleetHandler) respondFleetError(c *gin.Context, err error, notFoundMsg, fallbackMsg string) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, NewErrorResponse(c, notFoundMsg))
		return
	}
	c.JSON(http.StatusInternalServerError, NewErrorResponse(c, fallbackMsg))
}
