// Package region maps Tinybird deployment regions to their API base URLs.
//
// The set of regions is closed. Each region is identified by the same string
// that Tinybird embeds in the host field of a workspace token, so a token can
// be matched to the region it was issued for with [FromHost].
package region

import "fmt"

// Region is a Tinybird deployment region.
type Region string

// Supported regions.
const (
	GCPEuropeWest2            Region = "gcp-europe-west2"
	GCPEuropeWest3            Region = "gcp-europe-west3"
	GCPUSEast4                Region = "gcp-us-east4"
	GCPNorthAmericaNortheast2 Region = "gcp-northamerica-northeast2"

	AWSEUCentral1 Region = "aws-eu-central-1"
	AWSEUWest1    Region = "aws-eu-west-1"
	AWSUSEast1    Region = "aws-us-east-1"
	AWSUSWest2    Region = "aws-us-west-2"

	// Local is Tinybird Local, the development container.
	Local Region = "local"
)

// Default is the region used when none is configured.
const Default = GCPEuropeWest3

// DefaultLocalPort is the port Tinybird Local listens on.
const DefaultLocalPort = 7181

type entry struct {
	region    Region
	baseURL   string
	constName string
}

var registry = []entry{
	{GCPEuropeWest2, "https://api.europe-west2.gcp.tinybird.co", "GCPEuropeWest2"},
	{GCPEuropeWest3, "https://api.tinybird.co", "GCPEuropeWest3"},
	{GCPUSEast4, "https://api.us-east.tinybird.co", "GCPUSEast4"},
	{GCPNorthAmericaNortheast2, "https://api.northamerica-northeast2.gcp.tinybird.co", "GCPNorthAmericaNortheast2"},
	{AWSEUCentral1, "https://api.eu-central-1.aws.tinybird.co", "AWSEUCentral1"},
	{AWSEUWest1, "https://api.eu-west-1.aws.tinybird.co", "AWSEUWest1"},
	{AWSUSEast1, "https://api.us-east.aws.tinybird.co", "AWSUSEast1"},
	{AWSUSWest2, "https://api.us-west-2.aws.tinybird.co", "AWSUSWest2"},
	{Local, LocalURL(DefaultLocalPort), "Local"},
}

func lookup(r Region) (entry, bool) {
	for _, e := range registry {
		if e.region == r {
			return e, true
		}
	}
	return entry{}, false
}

// All returns every supported region in a stable order.
func All() []Region {
	out := make([]Region, 0, len(registry))
	for _, e := range registry {
		out = append(out, e.region)
	}
	return out
}

// FromHost returns the region whose identifier equals host.
// The match is exact and case-sensitive.
func FromHost(host string) (Region, bool) {
	e, ok := lookup(Region(host))
	if !ok {
		return "", false
	}
	return e.region, true
}

// LocalURL returns the base URL of a Tinybird Local instance on port.
func LocalURL(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}

// BaseURL returns the API base URL of the region, or "" for an unknown region.
func (r Region) BaseURL() string {
	e, _ := lookup(r)
	return e.baseURL
}

// IsValid reports whether r is one of the supported regions.
func (r Region) IsValid() bool {
	_, ok := lookup(r)
	return ok
}

// ConstName returns the name of the Go constant declaring r, e.g.
// "AWSUSEast1". It is used to build copy-pasteable diagnostics.
func (r Region) ConstName() string {
	e, _ := lookup(r)
	return e.constName
}

func (r Region) String() string {
	return string(r)
}
