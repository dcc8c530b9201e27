package memory

import "fmt"

// Error codes mirror the native protocol so the executor's classification
// treats shadow keyspace failures like cluster failures.
const (
	codeSyntax        = 0x2000
	codeInvalid       = 0x2200
	codeConfig        = 0x2300
	codeAlreadyExists = 0x2400
)

// RequestError is a failed statement.
type RequestError struct {
	code    int
	message string
}

func (e *RequestError) Code() int       { return e.code }
func (e *RequestError) Message() string { return e.message }
func (e *RequestError) Error() string   { return e.message }

func invalid(format string, args ...any) error {
	return &RequestError{code: codeInvalid, message: fmt.Sprintf(format, args...)}
}

func alreadyExists(format string, args ...any) error {
	return &RequestError{code: codeAlreadyExists, message: fmt.Sprintf(format, args...)}
}

func configError(format string, args ...any) error {
	return &RequestError{code: codeConfig, message: fmt.Sprintf(format, args...)}
}

func syntaxError(err error) error {
	return &RequestError{code: codeSyntax, message: "line 1: " + err.Error()}
}
