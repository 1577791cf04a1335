package personas

import (
	"context"

	"github.com/emberline/inboxsim/internal/domain"
)

// catalog mirrors the seed corpus audiences so the API stays usable
// without a database.
var catalog = []domain.Audience{
	{
		ID:          "tech-leaders",
		Name:        "Tech Leaders (CTO, VP Eng)",
		Type:        "B2B",
		Description: "Engineering decision makers in FinTech, SaaS and CyberSecurity",
		Size:        12,
	},
	{
		ID:          "hr-directors",
		Name:        "HR Directors",
		Type:        "B2B",
		Description: "Heads of HR and recruitment in Retail, IT and Banking",
		Size:        10,
	},
	{
		ID:          "saas-marketers",
		Name:        "SaaS Marketers",
		Type:        "B2B",
		Description: "CMOs and growth managers in SaaS, EdTech and MarTech",
		Size:        15,
	},
	{
		ID:          "ecommerce-owners",
		Name:        "E-commerce Owners",
		Type:        "B2C",
		Description: "Founders and owners of Fashion, Electronics and Home Decor shops",
		Size:        10,
	},
}

// Catalog serves the built-in audience list. Used directly when no
// database is configured, and by cmd/seed as the corpus to populate.
type Catalog struct{}

// Audiences returns the built-in audiences.
func (Catalog) Audiences(ctx context.Context) ([]domain.Audience, error) {
	out := make([]domain.Audience, len(catalog))
	copy(out, catalog)
	return out, nil
}
