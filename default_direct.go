//go:build dnload_direct

package dnload

// Default returns Direct.
func Default() (Binder, error) {
	return Direct{}, nil
}
