package fetch

const (
	// maxErrorBodyLen is the maximum length of a response body quoted in errors.
	maxErrorBodyLen = 256
)

// truncate shortens the provided response body for error messages.
func truncate(body []byte) string {
	if len(body) > maxErrorBodyLen {
		return string(body[:maxErrorBodyLen]) + "..."
	}

	return string(body)
}
