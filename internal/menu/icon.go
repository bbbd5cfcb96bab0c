//go:build cgo || windows
// +build cgo windows

package menu

import "encoding/base64"

// iconData is a 1x1 transparent PNG placeholder; distributions are expected
// to swap in a branded icon at build time.
var iconData []byte

const iconBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func init() {
	decoded, err := base64.StdEncoding.DecodeString(iconBase64)
	if err != nil {
		return
	}
	iconData = decoded
}
