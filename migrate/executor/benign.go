package executor

import (
	"errors"
	"strings"
)

// Protocol error codes the classification understands.
const (
	CodeSyntax        = 0x2000
	CodeUnauthorized  = 0x2100
	CodeInvalid       = 0x2200
	CodeConfig        = 0x2300
	CodeAlreadyExists = 0x2400
)

// Rule is one benign failure signature. Code is compared when the error
// exposes a protocol code; Message is a lowercase substring of the error text.
// A rule with only a code matches every error carrying that code.
type Rule struct {
	Code    int
	Message string
}

// Benign classifies DDL failures that mean the desired state already holds,
// typically because another process applied the same change first.
type Benign []Rule

// Benign classifications for each DDL operation.
var (
	BenignCreateKeyspace = Benign{{Code: CodeAlreadyExists}}
	BenignCreateTable    = Benign{{Code: CodeAlreadyExists}, {Message: "already exists"}}
	BenignAddColumn      = Benign{{Code: CodeInvalid, Message: "conflicts with an existing column"}}
	BenignDropColumn     = Benign{{Code: CodeInvalid, Message: "was not found in table"}}
	BenignRenameColumn   = Benign{
		{Code: CodeInvalid, Message: "already exist"},
		{Code: CodeInvalid, Message: "unknown column"},
		{Code: CodeInvalid, Message: "was not found"},
	}
	BenignCreateType      = Benign{{Code: CodeAlreadyExists}, {Message: "already exists"}}
	BenignDropType        = Benign{{Code: CodeInvalid, Message: "doesn't exist"}, {Code: CodeInvalid, Message: "does not exist"}}
	BenignAlterTypeAdd    = Benign{{Code: CodeInvalid, Message: "a field of the same name already exists"}}
	BenignAlterTypeRename = Benign{
		{Code: CodeInvalid, Message: "unknown field"},
		{Code: CodeInvalid, Message: "already exists"},
	}
)

// codedError is satisfied by the driver's request errors.
type codedError interface {
	Code() int
}

// Match reports whether err is one of the benign signatures.
func (b Benign) Match(err error) bool {
	if err == nil {
		return false
	}

	code, hasCode := ErrorCode(err)
	msg := strings.ToLower(strings.TrimSpace(err.Error()))

	for _, rule := range b {
		if hasCode && rule.Code != 0 && rule.Code != code {
			continue
		}
		if rule.Message == "" {
			if hasCode && rule.Code != 0 {
				return true
			}
			continue
		}
		if strings.Contains(msg, rule.Message) {
			return true
		}
	}
	return false
}

// ErrorCode extracts the protocol error code, if err carries one.
func ErrorCode(err error) (int, bool) {
	var coded codedError
	if errors.As(err, &coded) {
		return coded.Code(), true
	}
	return 0, false
}
