// ABOUTME: Version and product identification for the spatial player
// ABOUTME: Reported in logs, the TUI header and control status replies
package version

const (
	// Version is the player release
	Version = "0.3.0"

	Product      = "Spatial Player"
	Manufacturer = "Resonate"
)

// UserAgent identifies the player in control handshakes
func UserAgent() string {
	return Product + "/" + Version
}
