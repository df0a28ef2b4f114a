package feishu

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindConfiguration  Kind = "ConfigurationError"
	KindAuthTransport  Kind = "AuthTransportError"
	KindAuthProtocol   Kind = "AuthProtocolError"
	KindFetchTransport Kind = "FetchTransportError"
	KindFetchProtocol  Kind = "FetchProtocolError"
	KindMediaTransport Kind = "MediaTransportError"
)

// Error 管道里所有失败都以这个结构向上抛，HTTP 层按 Kind 映射状态码
type Error struct {
	Kind    Kind
	Message string
	// StatusCode 远端 HTTP 状态码，传输类错误才有
	StatusCode int
	// MissingFields 仅 ConfigurationError 使用
	MissingFields []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// IsKind 判断 err 链上是否有指定类型的 *Error
func IsKind(err error, kind Kind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == kind
}

// IsTransport 远端返回了非 2xx
func (e *Error) IsTransport() bool {
	switch e.Kind {
	case KindAuthTransport, KindFetchTransport, KindMediaTransport:
		return true
	}
	return false
}

// IsProtocol 远端 2xx 但业务 code 非 0
func (e *Error) IsProtocol() bool {
	return e.Kind == KindAuthProtocol || e.Kind == KindFetchProtocol
}

func NewConfigurationError(missing []string) *Error {
	return &Error{
		Kind:          KindConfiguration,
		Message:       "missing configuration: " + strings.Join(missing, ", "),
		MissingFields: missing,
	}
}

func transportError(kind Kind, what string, statusCode int, statusText string) *Error {
	return &Error{
		Kind:       kind,
		Message:    fmt.Sprintf("failed to %s: %s", what, statusText),
		StatusCode: statusCode,
	}
}

func protocolError(kind Kind, code int, msg string) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf("feishu api error (code %d): %s", code, msg),
	}
}
