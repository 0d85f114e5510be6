package billing

import (
	"fmt"
	"strings"
)

// Plan is the recurring-billing interval a user is subscribed to.
// It is stored on the profile independently of provider price identifiers.
type Plan string

const (
	PlanWeek  Plan = "week"
	PlanMonth Plan = "month"
	PlanYear  Plan = "year"
)

// Plans lists every plan label accepted by checkout and plan changes.
var Plans = []Plan{PlanWeek, PlanMonth, PlanYear}

func (p Plan) String() string {
	return string(p)
}

// Valid reports whether p is one of the known plan labels.
func (p Plan) Valid() bool {
	switch p {
	case PlanWeek, PlanMonth, PlanYear:
		return true
	}
	return false
}

// ParsePlan normalizes and validates a plan label.
func ParsePlan(s string) (Plan, error) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPlan, s)
	}
	return p, nil
}

// Catalog maps plan labels to billing provider price identifiers.
type Catalog map[Plan]string

// NewCatalog builds a catalog from the price identifiers configured for each plan.
// Plans with an empty price identifier are left out.
func NewCatalog(week, month, year string) Catalog {
	c := make(Catalog, len(Plans))
	for plan, priceID := range map[Plan]string{PlanWeek: week, PlanMonth: month, PlanYear: year} {
		if priceID = strings.TrimSpace(priceID); priceID != "" {
			c[plan] = priceID
		}
	}
	return c
}

// PriceID returns the provider price identifier for the plan.
func (c Catalog) PriceID(p Plan) (string, error) {
	priceID, ok := c[p]
	if !ok || priceID == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownPlan, p)
	}
	return priceID, nil
}

// PlanFor resolves a provider price identifier back to its plan label.
func (c Catalog) PlanFor(priceID string) (Plan, bool) {
	for plan, id := range c {
		if id == priceID {
			return plan, true
		}
	}
	return "", false
}
