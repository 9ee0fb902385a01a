// Package tokeninfo reads the unsigned payload of a Tinybird workspace token.
//
// A token has the shape p.<payload>.<signature>, where payload is base64
// encoded JSON. The signature is never checked: the payload is only used to
// explain authentication failures, never to make trust decisions.
package tokeninfo

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/tinybird-go/tinybird-go/region"
)

const prefix = "p"

// Payload decodes the JSON payload of token. It returns false when token is
// not a well-formed Tinybird token or the payload is not a JSON object.
func Payload(token string) (map[string]any, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] != prefix {
		return nil, false
	}

	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, false
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		return nil, false
	}
	return payload, true
}

// ExtractHost returns the host field embedded in token, e.g.
// "gcp-europe-west3" or "local".
func ExtractHost(token string) (string, bool) {
	payload, ok := Payload(token)
	if !ok {
		return "", false
	}
	host, ok := payload["host"].(string)
	if !ok {
		return "", false
	}
	return host, true
}

// RegionOf returns the region token was issued for.
func RegionOf(token string) (region.Region, bool) {
	host, ok := ExtractHost(token)
	if !ok {
		return "", false
	}
	return region.FromHost(host)
}

// IsLocal reports whether token was issued by Tinybird Local.
func IsLocal(token string) bool {
	host, ok := ExtractHost(token)
	return ok && host == string(region.Local)
}
