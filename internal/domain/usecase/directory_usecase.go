package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"workorder/internal/domain/entity"
	"workorder/internal/domain/ident"
)

// CustomerUseCase stores customers verbatim. Jobs reference them by id without
// any existence check.
type CustomerUseCase struct {
	Store DocumentStore
	NewID func() string
	Now   func() time.Time
}

func NewCustomerUseCase(store DocumentStore) *CustomerUseCase {
	return &CustomerUseCase{Store: store, NewID: ident.New, Now: func() time.Time { return time.Now().UTC() }}
}

func (u *CustomerUseCase) CreateCustomer(ctx context.Context, c entity.Customer) (*entity.Customer, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, entity.Validation("customer name is required")
	}
	c.ID = u.NewID()
	c.CreatedAt = u.Now().Truncate(time.Millisecond)
	if _, err := u.Store.Insert(ctx, entity.CollectionCustomers, c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (u *CustomerUseCase) GetCustomer(ctx context.Context, id string) (*entity.Customer, error) {
	if !ident.Valid(id) {
		return nil, entity.InvalidIdentifier("customerId", id)
	}
	var c entity.Customer
	if err := u.Store.FindOne(ctx, entity.CollectionCustomers, bson.M{entity.FieldID: id}, &c); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, entity.ErrCustomerNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (u *CustomerUseCase) ListCustomers(ctx context.Context) ([]entity.Customer, error) {
	out := []entity.Customer{}
	if err := u.Store.FindAll(ctx, entity.CollectionCustomers, bson.M{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type TechnicianUseCase struct {
	Store DocumentStore
	NewID func() string
	Now   func() time.Time
}

func NewTechnicianUseCase(store DocumentStore) *TechnicianUseCase {
	return &TechnicianUseCase{Store: store, NewID: ident.New, Now: func() time.Time { return time.Now().UTC() }}
}

func (u *TechnicianUseCase) CreateTechnician(ctx context.Context, req entity.NewTechnician) (*entity.Technician, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, entity.Validation("technician name is required")
	}
	t := entity.Technician{
		ID:        u.NewID(),
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Specialty: req.Specialty,
		Status:    req.Status,
		CreatedAt: u.Now().Truncate(time.Millisecond),
	}
	if t.Status == "" {
		t.Status = entity.TechnicianAvailable
	}
	if req.Stats != nil {
		t.Stats = *req.Stats
	}
	if _, err := u.Store.Insert(ctx, entity.CollectionTechnicians, t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (u *TechnicianUseCase) GetTechnician(ctx context.Context, id string) (*entity.Technician, error) {
	if !ident.Valid(id) {
		return nil, entity.InvalidIdentifier("technicianId", id)
	}
	var t entity.Technician
	if err := u.Store.FindOne(ctx, entity.CollectionTechnicians, bson.M{entity.FieldID: id}, &t); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, entity.ErrTechnicianNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (u *TechnicianUseCase) ListTechnicians(ctx context.Context) ([]entity.Technician, error) {
	out := []entity.Technician{}
	if err := u.Store.FindAll(ctx, entity.CollectionTechnicians, bson.M{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
