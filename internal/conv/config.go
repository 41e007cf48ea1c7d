package conv

// Config holds the elaboration limits.
type Config struct {
	// HierarchyDepth is the maximum instance nesting depth.
	HierarchyDepth int

	// TotalInstance is the maximum number of distinct elaborations.
	TotalInstance int

	// EvaluateSize bounds loop iteration counts and array sizes.
	EvaluateSize int

	// EvaluateArray bounds the number of array elements whose values are
	// tracked per variable.
	EvaluateArray int

	// HashedMangledName selects hashed names for generic instances.
	HashedMangledName bool
}

// DefaultConfig returns the default limits.
func DefaultConfig() Config {
	return Config{
		HierarchyDepth: 1024,
		TotalInstance:  1024 * 1024,
		EvaluateSize:   1024 * 1024,
		EvaluateArray:  128,
	}
}
