package domain

import (
	"errors"
	"strings"
	"time"
)

// Category groups services in the storefront navigation.
type Category string

const (
	CategorySocialMedia Category = "socialMedia"
	CategoryPublication Category = "publication"
	CategoryTool        Category = "tool"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategorySocialMedia, CategoryPublication, CategoryTool:
		return true
	}
	return false
}

// Tier is the quality level of a package.
type Tier string

const (
	TierBronze   Tier = "Bronze"
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierEmerald  Tier = "Emerald"
	TierPlatinum Tier = "Platinum"
	TierDiamond  Tier = "Diamond"
)

var tierRank = map[Tier]int{
	TierBronze:   1,
	TierSilver:   2,
	TierGold:     3,
	TierEmerald:  4,
	TierPlatinum: 5,
	TierDiamond:  6,
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// Rank orders tiers Bronze < Silver < ... < Diamond. Unknown tiers rank 0.
// Only used for display ordering.
func (t Tier) Rank() int {
	return tierRank[t]
}

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrPackageNotFound = errors.New("package not found")
)

// Service is a sellable kind of marketing deliverable. Services are never
// physically removed; deactivation sets Active=false.
type Service struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Category    Category  `json:"category" bson:"category"`
	Platform    string    `json:"platform,omitempty" bson:"platform,omitempty"`
	Type        string    `json:"type,omitempty" bson:"type,omitempty"`
	Active      bool      `json:"active" bson:"active"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Package is a priced offering under a Service. Like services, packages are
// soft-deleted so orders referencing them stay resolvable.
type Package struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	ServiceID    string    `json:"service_id" bson:"service_id"`
	Name         string    `json:"name" bson:"name"`
	Tier         Tier      `json:"tier" bson:"tier"`
	Price        float64   `json:"price" bson:"price"`
	Deliverables []string  `json:"deliverables" bson:"deliverables"`
	Active       bool      `json:"active" bson:"active"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// ServiceWithPackages is the catalog read model: a service and the packages
// visible to the caller.
type ServiceWithPackages struct {
	Service
	Packages []Package `json:"packages"`
}

// CleanDeliverables trims every entry and drops blank ones.
func CleanDeliverables(in []string) []string {
	out := make([]string, 0, len(in))
	for _, d := range in {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}
