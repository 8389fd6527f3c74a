package utils

// ResponseData is the envelope every management API handler returns.
type ResponseData struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// PanicIfNeeded panics on a non-nil error so the recovery middleware can
// turn typed errors into their HTTP representation.
func PanicIfNeeded(err any) {
	if err != nil {
		panic(err)
	}
}
