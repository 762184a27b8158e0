package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"workorder/internal/domain/entity"
)

type CustomerUseCase interface {
	CreateCustomer(ctx context.Context, c entity.Customer) (*entity.Customer, error)
	GetCustomer(ctx context.Context, id string) (*entity.Customer, error)
	ListCustomers(ctx context.Context) ([]entity.Customer, error)
}

type TechnicianUseCase interface {
	CreateTechnician(ctx context.Context, req entity.NewTechnician) (*entity.Technician, error)
	GetTechnician(ctx context.Context, id string) (*entity.Technician, error)
	ListTechnicians(ctx context.Context) ([]entity.Technician, error)
}

type VehicleUseCase interface {
	Decode(ctx context.Context, vin string) (entity.VehicleInfo, error)
}

// DirectoryHandler serves the reference data jobs point at: customers,
// technicians and decoded vehicles.
type DirectoryHandler struct {
	Customers   CustomerUseCase
	Technicians TechnicianUseCase
	Vehicles    VehicleUseCase
}

func NewDirectoryHandler(customers CustomerUseCase, technicians TechnicianUseCase, vehicles VehicleUseCase) *DirectoryHandler {
	return &DirectoryHandler{Customers: customers, Technicians: technicians, Vehicles: vehicles}
}

func (h *DirectoryHandler) CreateCustomer(c *gin.Context) {
	var req entity.Customer
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	customer, err := h.Customers.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *DirectoryHandler) ListCustomers(c *gin.Context) {
	customers, err := h.Customers.ListCustomers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *DirectoryHandler) GetCustomer(c *gin.Context) {
	customer, err := h.Customers.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *DirectoryHandler) CreateTechnician(c *gin.Context) {
	var req entity.NewTechnician
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	tech, err := h.Technicians.CreateTechnician(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tech)
}

func (h *DirectoryHandler) ListTechnicians(c *gin.Context) {
	techs, err := h.Technicians.ListTechnicians(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, techs)
}

func (h *DirectoryHandler) GetTechnician(c *gin.Context) {
	tech, err := h.Technicians.GetTechnician(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tech)
}

func (h *DirectoryHandler) DecodeVehicle(c *gin.Context) {
	info, err := h.Vehicles.Decode(c.Request.Context(), c.Param("vin"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
