// ABOUTME: Version and product identification constants
// ABOUTME: Reported by the web UI, the health endpoint and mDNS records
package version

const (
	// Version is the release version of the voice changer
	Version = "0.3.0"
	// Product is the human readable product name
	Product = "Voice Changer"
	// Manufacturer identifies the publisher
	Manufacturer = "Resonate"
)
