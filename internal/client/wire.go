package client

import (
	"mime"
	"strings"
)

// braceList renders device names in the brace-delimited wire form the
// server accepts in multipart fields: "{phone, laptop}".
func braceList(names []string) string {
	return "{" + strings.Join(names, ", ") + "}"
}

// attachmentFilename extracts the filename from a Content-Disposition
// header, falling back to a fixed name when the header is unparseable.
func attachmentFilename(disposition string) string {
	_, params, err := mime.ParseMediaType(disposition)
	if err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	return "beamit-download"
}
