// Package apperrors defines Cora's taxonomic error kinds (spec §7). These
// are not a type hierarchy — every kind shares the one *Error type and is
// told apart by its Kind, so callers can branch with Is (or errors.As and
// a Kind check) without caring which subsystem produced it.
package apperrors

import "fmt"

// Kind identifies which subsystem failure category an error belongs to.
type Kind string

const (
	KindStorage    Kind = "storage"
	KindEmbedding  Kind = "embedding"
	KindTranslator Kind = "translator"
	KindLLM        Kind = "llm"
	KindValidation Kind = "validation"
	KindTimeout    Kind = "timeout"
)

// Error is the common shape for all of Cora's taxonomic errors.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func Storage(message string, cause error) *Error    { return New(KindStorage, message, cause) }
func Embedding(message string, cause error) *Error  { return New(KindEmbedding, message, cause) }
func Translator(message string, cause error) *Error { return New(KindTranslator, message, cause) }
func LLM(message string, cause error) *Error        { return New(KindLLM, message, cause) }
func Validation(message string, cause error) *Error { return New(KindValidation, message, cause) }
func Timeout(message string, cause error) *Error    { return New(KindTimeout, message, cause) }

// Is reports whether err carries the given Kind, looking through wrapping.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
