package response

import "surveillance/pkg/apperror"

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Kind       string      `json:"kind,omitempty"` // machine-readable error kind
}

// Page is the envelope for paginated list payloads
type Page struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// KindError returns an error response tagged with an explicit kind
func KindError(kind apperror.Kind, err string) Response {
	resp := Error(apperror.HTTPStatus(kind), err)
	resp.Kind = string(kind)
	return resp
}

// FromError builds an error response from any error, resolving its kind and status
func FromError(err error) Response {
	return KindError(apperror.KindOf(err), apperror.PublicMessage(err))
}
