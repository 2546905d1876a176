package services

import "errors"

// ErrorCode values are the wire strings clients match on; they never change
// once published.
type ErrorCode string

const (
	ErrorInvalidToken            ErrorCode = "invalid_token"
	ErrorNoFile                  ErrorCode = "no_file"
	ErrorInvalidFileType         ErrorCode = "invalid_file_type"
	ErrorSubmissionLimitExceeded ErrorCode = "submission_limit_exceeded"
	ErrorIncorrectFile           ErrorCode = "incorrect_file"
	ErrorStageNotFound           ErrorCode = "stage_not_found"
	ErrorMissingAnswers          ErrorCode = "missing_answers"
	ErrorEvaluationFailed        ErrorCode = "evaluation_failed"
	ErrorInvalid                 ErrorCode = "invalid"
	ErrorNotFound                ErrorCode = "not_found"
	ErrorConflict                ErrorCode = "conflict"
	ErrorUnauthorized            ErrorCode = "unauthorized"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidTokenError() error {
	return &ServiceError{Code: ErrorInvalidToken, Message: "Invalid token."}
}

func NewNoFileError() error {
	return &ServiceError{Code: ErrorNoFile, Message: "No file attached."}
}

func NewInvalidFileTypeError() error {
	return &ServiceError{Code: ErrorInvalidFileType, Message: "Invalid file type."}
}

func NewSubmissionLimitError() error {
	return &ServiceError{Code: ErrorSubmissionLimitExceeded, Message: "Daily submission limit exceeded."}
}

func NewIncorrectFileError() error {
	return &ServiceError{
		Code:    ErrorIncorrectFile,
		Message: "Unable to read the file. Make sure it is in a correct JSON format.",
	}
}

func NewStageNotFoundError(msg string) error {
	return &ServiceError{Code: ErrorStageNotFound, Message: msg}
}

func NewMissingAnswersError() error {
	return &ServiceError{
		Code:    ErrorMissingAnswers,
		Message: "Missing answers for at least one of the conversations.",
	}
}

func NewEvaluationFailedError() error {
	return &ServiceError{
		Code:    ErrorEvaluationFailed,
		Message: "Unknown error occurred during the evaluation.",
	}
}

func NewInvalidError(msg string) error  { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
