package domain

// Operation is the handle of an in-flight remote video job. Native carries the
// provider's own representation and is only read by the provider that made it.
type Operation struct {
	Name      string
	Done      bool
	VideoURIs []string
	// Err is set when the remote side finished the operation with a failure.
	Err    error
	Native any
}

// FirstVideoURI returns the first non-empty produced video locator.
func (o *Operation) FirstVideoURI() string {
	if o == nil {
		return ""
	}
	for _, uri := range o.VideoURIs {
		if uri != "" {
			return uri
		}
	}
	return ""
}
