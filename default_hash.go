//go:build !dnload_direct

package dnload

// Default returns a Resolver for the current process. Build with the
// dnload_direct tag to use Direct instead.
func Default() (Binder, error) {
	r, err := NewResolver()
	if err != nil {
		return nil, err
	}
	return r, nil
}
