package utils

// TruncateErrorMessage bounds error text persisted to job rows so a deep
// driver error chain cannot blow past the column size.
func TruncateErrorMessage(err error, max int) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if max > 0 && len(msg) > max {
		return msg[:max]
	}
	return msg
}
