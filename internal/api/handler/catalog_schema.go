package handler

import (
	"github.com/growthdesk/storefront/internal/core/domain"
	"github.com/growthdesk/storefront/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type idResponse struct {
	ID string `json:"id"`
}

// --- Catalog ---

type createServiceRequest struct {
	Name        string `json:"name"        validate:"required"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category"    validate:"required,oneof=socialMedia publication tool"`
	Platform    string `json:"platform"`
	Type        string `json:"type"`
}

type updateServiceRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=1"`
	Description *string `json:"description" validate:"omitempty,min=1"`
	Category    *string `json:"category"    validate:"omitempty,oneof=socialMedia publication tool"`
	Platform    *string `json:"platform"`
	Type        *string `json:"type"`
	Active      *bool   `json:"active"`
}

// toggleServiceRequest is optional; an empty body flips the flag.
type toggleServiceRequest struct {
	Active *bool `json:"active"`
}

type createPackageRequest struct {
	Name         string   `json:"name"         validate:"required"`
	Tier         string   `json:"tier"         validate:"required,oneof=Bronze Silver Gold Emerald Platinum Diamond"`
	Price        float64  `json:"price"        validate:"gte=0"`
	Deliverables []string `json:"deliverables" validate:"required,min=1"`
}

type updatePackageRequest struct {
	Name         *string  `json:"name"         validate:"omitempty,min=1"`
	Tier         *string  `json:"tier"         validate:"omitempty,oneof=Bronze Silver Gold Emerald Platinum Diamond"`
	Price        *float64 `json:"price"        validate:"omitempty,gte=0"`
	Deliverables []string `json:"deliverables" validate:"omitempty,min=1"`
	Active       *bool    `json:"active"`
}

type serviceListResponse struct {
	Services []domain.ServiceWithPackages `json:"services"`
}

func (r updateServiceRequest) toInput() ports.UpdateServiceInput {
	in := ports.UpdateServiceInput{
		Name:        r.Name,
		Description: r.Description,
		Platform:    r.Platform,
		Type:        r.Type,
		Active:      r.Active,
	}
	if r.Category != nil {
		cat := domain.Category(*r.Category)
		in.Category = &cat
	}
	return in
}

func (r updatePackageRequest) toInput() ports.UpdatePackageInput {
	in := ports.UpdatePackageInput{
		Name:         r.Name,
		Price:        r.Price,
		Deliverables: r.Deliverables,
		Active:       r.Active,
	}
	if r.Tier != nil {
		tier := domain.Tier(*r.Tier)
		in.Tier = &tier
	}
	return in
}
