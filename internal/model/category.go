package model

// DefaultIcon is the symbolic icon key used when a category is registered without one.
const DefaultIcon = "shapes"

// Category is a spending or income bucket that transactions are filed under.
type Category struct {
	ID          string
	Label       string
	Icon        string // Symbolic key, resolved by the presentation layer
	AccentColor string // Optional, cosmetic only
	BuiltIn     bool
}
