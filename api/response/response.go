package response

// Envelope is the body of every API response: either Error or Data is set.
type Envelope struct {
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error" example:"CONVO_DOES_NOT_EXIST"`
}

func Fail(message string) Envelope {
	return Envelope{Error: message}
}

func OK(data any) Envelope {
	return Envelope{Data: data}
}
