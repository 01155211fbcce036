package errno

import "errors"

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Is 按错误码比较，errors.Is(err, errno.ErrDeviceBusy) 对值和指针都成立
func (e Errno) Is(target error) bool {
	var t Errno
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var typed Errno
	if errors.As(err, &typed) {
		return typed.Code, typed.Message
	}
	var ptr *Errno
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code, ptr.Message
	}
	return InternalServerError.Code, err.Error()
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrDatabase         = Errno{Code: 10004, Message: "Database error"}
)

// Business Errors (20000+)
var (
	ErrAccountNotSelected = Errno{Code: 20101, Message: "No account selected"}
	ErrDeviceNotFound     = Errno{Code: 20102, Message: "No device connected"}
	ErrDeviceBusy         = Errno{Code: 20103, Message: "Device call already in flight for this account"}
	ErrUnsupportedNetwork = Errno{Code: 20201, Message: "Unsupported network type"}
	ErrSessionNotFound    = Errno{Code: 20301, Message: "Transaction session not found"}
	ErrSessionExists      = Errno{Code: 20302, Message: "Transaction session already open for this account"}
	ErrInvalidTransition  = Errno{Code: 20303, Message: "Invalid transaction session transition"}
	ErrSignFailed         = Errno{Code: 20304, Message: "Device failed to sign transaction"}
	ErrComposeFailed      = Errno{Code: 20305, Message: "Transaction could not be composed"}
	ErrReviewIncomplete   = Errno{Code: 20306, Message: "Signed transaction or transaction info missing"}
	ErrAlreadyPushed      = Errno{Code: 20307, Message: "Signed transaction already pushed"}
)
