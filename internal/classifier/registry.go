package classifier

import "fmt"

// NewClassifier creates a classifier based on the specified variant
func NewClassifier(variant string, seed int64) (ImageClassifier, error) {
	switch variant {
	case "random", "":
		return NewRandomClassifier(seed), nil
	default:
		return nil, fmt.Errorf("unknown classifier variant: %s", variant)
	}
}
