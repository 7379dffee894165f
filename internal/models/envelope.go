// Package models defines the core data structures shared by the console.
// It includes graph entities, filters, stats and the upstream API records.
package models

import "fmt"

// Envelope wraps every REST response, upstream and served.
type Envelope[T any] struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      T      `json:"data"`
	ErrorCode string `json:"errorCode,omitempty"`
}

// APIError is returned when an envelope reports success=false or the HTTP
// status is not 2xx.
type APIError struct {
	Status    int
	Message   string
	ErrorCode string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request failed"
	}
	if e.ErrorCode != "" {
		return fmt.Sprintf("%s (%s)", msg, e.ErrorCode)
	}
	return msg
}

// Unwrap returns the payload on success and an *APIError carrying the
// envelope message otherwise.
func (e Envelope[T]) Unwrap() (T, error) {
	if !e.Success {
		var zero T
		return zero, &APIError{Message: e.Message, ErrorCode: e.ErrorCode}
	}
	return e.Data, nil
}

func OK[T any](data T, message string) Envelope[T] {
	return Envelope[T]{Success: true, Message: message, Data: data}
}

func Fail(message, code string) Envelope[any] {
	return Envelope[any]{Success: false, Message: message, ErrorCode: code}
}
