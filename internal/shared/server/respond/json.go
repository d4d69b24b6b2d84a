package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform success payload shape returned by every operation.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 envelope with the given message and data.
func OK(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created writes a 201 envelope with the given message and data.
func Created(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}
