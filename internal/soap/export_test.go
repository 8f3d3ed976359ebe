package soap

// DecodeBody exposes the response decoding for tests.
func DecodeBody(data []byte) (Node, error) {
	return decodeBody(data)
}

// Envelope exposes the request envelope rendering for tests.
func (c Client) Envelope(operation string, body *Body) ([]byte, error) {
	return c.envelope(operation, body)
}
