package core

// DefaultCategories returns the seeded freelancer expense categories.
// Ids are stable slugs so seeding is idempotent across installs.
func DefaultCategories() []Category {
	names := []struct {
		id   string
		name string
		icon string
	}{
		{"software-tools", "Software & Tools", "laptopcomputer"},
		{"equipment-gear", "Equipment & Gear", "desktopcomputer"},
		{"platform-fees", "Platform Fees", "percent"},
		{"marketing-ads", "Marketing & Ads", "megaphone"},
		{"website-hosting", "Website & Hosting", "globe"},
		{"legal-accounting", "Legal & Accounting", "briefcase"},
		{"courses-education", "Courses & Education", "book"},
		{"travel-mileage", "Travel & Mileage", "car"},
		{"coworking-office", "Coworking / Office", "building.2"},
		{"client-meals", "Client Meals", "fork.knife"},
		{"insurance", "Insurance", "shield"},
		{"payment-processing", "Payment Processing", "creditcard"},
		{"misc-write-offs", "Misc Write-Offs", "folder"},
	}
	out := make([]Category, len(names))
	for i, n := range names {
		out[i] = Category{
			ID:        n.id,
			Name:      n.name,
			Icon:      n.icon,
			IsDefault: true,
			SortOrder: i,
		}
	}
	return out
}
