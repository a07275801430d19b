package billing

// Package is a purchasable credit bundle. The catalog is compiled in; pricing
// changes ship as releases, not data migrations.
type Package struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Credits     int    `json:"credits"`
	AmountCents int64  `json:"amount_cents"`
}

var packages = []Package{
	{ID: "starter", Name: "Starter", Credits: 500, AmountCents: 500},
	{ID: "standard", Name: "Standard", Credits: 1000, AmountCents: 900},
	{ID: "pro", Name: "Pro", Credits: 2500, AmountCents: 2000},
	{ID: "studio", Name: "Studio", Credits: 5000, AmountCents: 3500},
}

// Packages returns the purchasable credit bundles
func Packages() []Package {
	out := make([]Package, len(packages))
	copy(out, packages)
	return out
}

// PackageByID looks up a bundle by its id
func PackageByID(id string) (Package, bool) {
	for _, p := range packages {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}
