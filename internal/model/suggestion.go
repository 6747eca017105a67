package model

// Suggestion is an advisory category for a transaction description. It has
// already been matched against the category registry.
type Suggestion struct {
	CategoryID  string
	Label       string
	Description string // The description that produced this suggestion
	Confidence  float64
}

// Classification is the raw answer of a text-classification backend: a
// category label that may or may not exist in the registry.
type Classification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}
