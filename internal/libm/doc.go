// Package libm links the C math library into binaries that import it. Its
// symbols carry several versions in glibc, which makes it the reference
// for checking version handling against the system loader.
package libm
