// Package dto holds the JSON request and response bodies of the HTTP API.
package dto

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the reply to POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
}
