package errors

import (
	"github.com/gin-gonic/gin"
)

// AbortWithCallableError writes err in the callable error envelope and aborts the request.
func AbortWithCallableError(c *gin.Context, err *CallableError) {
	c.AbortWithStatusJSON(HTTPStatus(err.Code), ErrorResponse{
		Error: ErrorBody{
			Status:  Status(err.Code),
			Message: err.Message,
		},
	})
}
