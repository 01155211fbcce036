package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wallet-suite/pkg/errno"
	"wallet-suite/pkg/validator"
)

// Response defines the standard JSON structure
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"msg"`
	Data    interface{} `json:"data"`
}

// Success returns a success response with data
func Success(c *gin.Context, data interface{}) {
	if data == nil {
		data = gin.H{} // Return empty object instead of null
	}
	c.JSON(http.StatusOK, Response{
		Code:    errno.OK.Code,
		Message: errno.OK.Message,
		Data:    data,
	})
}

// Error returns an error response. 包装过的错误保留完整信息 (例如组装失败原因)
func Error(c *gin.Context, err error) {
	ErrorWithData(c, err, gin.H{})
}

// ErrorWithData 错误响应仍需携带数据时使用，例如请求期间已经发出的意图
func ErrorWithData(c *gin.Context, err error, data interface{}) {
	code, _ := errno.Decode(err)
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: err.Error(),
		Data:    data,
	})
}

// BindError 参数绑定失败，附带字段级的校验信息
func BindError(c *gin.Context, err error) {
	c.JSON(http.StatusOK, Response{
		Code:    errno.ErrBind.Code,
		Message: validator.GetErrorMsg(err),
		Data:    gin.H{},
	})
}
