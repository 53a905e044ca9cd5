package domain

// Capabilities is the typed outcome of protocol version negotiation.
type Capabilities struct {
	Version string
}

// Negotiate matches a client version against the supported set. The boolean
// is false for unsupported clients; no string branching leaks past here.
func Negotiate(version string, supported []string) (Capabilities, bool) {
	for _, v := range supported {
		if v == version {
			return Capabilities{Version: version}, true
		}
	}
	return Capabilities{}, false
}
