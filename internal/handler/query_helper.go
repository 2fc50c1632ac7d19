package handler

// parseBoolQuery maps "true"/"false" query values onto an optional bool;
// anything else leaves the filter unset.
func parseBoolQuery(raw string) *bool {
	switch raw {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	default:
		return nil
	}
}
