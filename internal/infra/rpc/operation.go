package rpc

// Operation describes a single JSON-RPC request.
type Operation struct {
	Method string
	Params []any

	// Once disables transport retries. Used for calls that must not be
	// repeated blindly, such as broadcasting a signed transaction.
	Once bool
}

// NewHTTPOperation creates an Operation for a JSON-RPC call.
func NewHTTPOperation(method string, params ...any) Operation {
	return Operation{Method: method, Params: params}
}

// NewSendOperation creates an Operation that is attempted exactly once.
func NewSendOperation(method string, params ...any) Operation {
	return Operation{Method: method, Params: params, Once: true}
}
