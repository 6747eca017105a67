package category

import "github.com/Veraticus/tally/internal/model"

// Well-known category IDs.
const (
	// Salary is the canonical income category.
	Salary = "salary"
	// Other is the catch-all fallback for both kinds.
	Other = "other"
)

// Defaults returns the built-in categories seeded at startup, in display order.
func Defaults() []model.Category {
	return []model.Category{
		{ID: "food", Label: "Food", Icon: "utensils-crossed", BuiltIn: true},
		{ID: "transport", Label: "Transport", Icon: "train-front", BuiltIn: true},
		{ID: "entertainment", Label: "Entertainment", Icon: "popcorn", BuiltIn: true},
		{ID: "housing", Label: "Housing", Icon: "home", BuiltIn: true},
		{ID: "health", Label: "Health", Icon: "heart-pulse", BuiltIn: true},
		{ID: "shopping", Label: "Shopping", Icon: "shopping-bag", BuiltIn: true},
		{ID: "bills", Label: "Bills", Icon: "receipt-text", BuiltIn: true},
		{ID: Salary, Label: "Salary", Icon: "briefcase", BuiltIn: true},
		{ID: Other, Label: "Other", Icon: "landmark", BuiltIn: true},
	}
}
