// ABOUTME: Build and product identification
// ABOUTME: Reported by the -version flag
package version

const (
	Version      = "0.1.0"
	Product      = "tone-go"
	Manufacturer = "Resonate Protocol"
)

// String returns the product and version
func String() string {
	return Product + " " + Version
}
