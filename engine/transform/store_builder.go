package transform

// StoreBuilderOption is a functional option applied to a store during construction via NewStore.
type StoreBuilderOption func(*store)

// WithBinding sets the uniform binding point the table is uploaded to.
//
// Parameters:
//   - binding: the binding index in the shader's bind group
//
// Returns:
//   - StoreBuilderOption: option function to apply
func WithBinding(binding uint32) StoreBuilderOption {
	return func(s *store) {
		s.binding = binding
	}
}
