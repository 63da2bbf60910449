package errors

import "net/http"

// ErrorCode is the typed identifier for a failure category.  Codes are
// stable integers so they can be emitted as metric labels and logged
// without string churn.
type ErrorCode int

// Generic codes occupy 0–999; domain codes start at 1000 per bounded
// context (templates 1000+, responses 1100+, generation 1200+, import 1300+).
const (
	CodeOK      ErrorCode = 0
	CodeUnknown ErrorCode = 1

	// Generic request/infrastructure failures.
	CodeInvalidParam       ErrorCode = 100
	CodeUnauthorized       ErrorCode = 101
	CodeForbidden          ErrorCode = 102
	CodeNotFound           ErrorCode = 103
	CodeConflict           ErrorCode = 104
	CodeInternal           ErrorCode = 105
	CodeServiceUnavailable ErrorCode = 106
	CodeTimeout            ErrorCode = 107
	CodeSerialization      ErrorCode = 108
	CodeRateLimited        ErrorCode = 109

	// Template context.
	CodeTemplateNotFound ErrorCode = 1000
	CodeTemplateInvalid  ErrorCode = 1001
	CodeLibraryNotFound  ErrorCode = 1002

	// Refined-response / conversation context.
	CodeResponseNotFound     ErrorCode = 1100
	CodeConversationNotFound ErrorCode = 1101
	CodeAttachmentTooLarge   ErrorCode = 1102

	// Reply generation context.
	CodeGenerationFailed   ErrorCode = 1200
	CodeGenerationTimeout  ErrorCode = 1201
	CodePromptTooLarge     ErrorCode = 1202

	// Bulk import context.
	CodeImportFormatUnknown ErrorCode = 1300
	CodeImportSessionNotFound ErrorCode = 1301
)

var codeNames = map[ErrorCode]string{
	CodeOK:      "ok",
	CodeUnknown: "unknown",

	CodeInvalidParam:       "invalid_param",
	CodeUnauthorized:       "unauthorized",
	CodeForbidden:          "forbidden",
	CodeNotFound:           "not_found",
	CodeConflict:           "conflict",
	CodeInternal:           "internal",
	CodeServiceUnavailable: "service_unavailable",
	CodeTimeout:            "timeout",
	CodeSerialization:      "serialization",
	CodeRateLimited:        "rate_limited",

	CodeTemplateNotFound: "template_not_found",
	CodeTemplateInvalid:  "template_invalid",
	CodeLibraryNotFound:  "library_not_found",

	CodeResponseNotFound:     "response_not_found",
	CodeConversationNotFound: "conversation_not_found",
	CodeAttachmentTooLarge:   "attachment_too_large",

	CodeGenerationFailed:  "generation_failed",
	CodeGenerationTimeout: "generation_timeout",
	CodePromptTooLarge:    "prompt_too_large",

	CodeImportFormatUnknown:   "import_format_unknown",
	CodeImportSessionNotFound: "import_session_not_found",
}

// String returns the snake_case name for the code, or "unknown" for
// unregistered values.
func (c ErrorCode) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "unknown"
}

// HTTPStatus maps an ErrorCode to the HTTP status emitted at the API
// boundary.  Codes without an explicit mapping default to 500.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidParam, CodeTemplateInvalid, CodeImportFormatUnknown, CodePromptTooLarge:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeTemplateNotFound, CodeLibraryNotFound,
		CodeResponseNotFound, CodeConversationNotFound, CodeImportSessionNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeAttachmentTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout, CodeGenerationTimeout:
		return http.StatusGatewayTimeout
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
