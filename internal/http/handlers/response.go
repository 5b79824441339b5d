// Package handlers holds the HTTP boundary helpers shared by every endpoint:
// the success envelope, failure signalling, JSON body binding and the
// built-in root and health handlers.
//
// Handlers never write error bodies themselves. They call Fail (or return an
// error from BindJSON to Fail) and the error boundary in package middleware
// normalizes the failure into one response.
//
// Example success response:
//
//	HTTP/1.1 200 OK
//	{
//	  "success": true,
//	  "statusCode": 200,
//	  "message": "Server is Running! 🏃",
//	  "data": null
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-api-scaffold/internal/apperr"
)

// SuccessResponse is the envelope of every successful JSON response.
type SuccessResponse struct {
	Success    bool   `json:"success" example:"true"`
	StatusCode int    `json:"statusCode" example:"200"`
	Message    string `json:"message" example:"Server is Running! 🏃"`
	Data       any    `json:"data"`
}

// SendResponse writes data in the success envelope with the given status.
func SendResponse(c *gin.Context, status int, message string, data any) {
	c.JSON(status, SuccessResponse{
		Success:    true,
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

// Fail records err for the error boundary and stops the handler chain.
// A nil err is reported as an unknown failure.
func Fail(c *gin.Context, err error) {
	if err == nil {
		err = apperr.New(http.StatusInternalServerError, apperr.UnknownMessage, apperr.WithName(apperr.UnknownName))
	}
	_ = c.Error(err)
	c.Abort()
}
