package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 统一响应包装，与 new-api 上游口径一致：success + message + data。

type Body struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Text 以纯文本数据返回一份报告正文。
func Text(c *gin.Context, text string) {
	c.JSON(http.StatusOK, Body{Success: true, Data: text})
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, Body{Success: false, Message: message})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func ServiceUnavailable(c *gin.Context, message string) {
	Error(c, http.StatusServiceUnavailable, message)
}
