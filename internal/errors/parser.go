package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a client-safe code and message derived from an internal error
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError maps database and infrastructure errors to a code and message
// without leaking SQL or driver details. context names the operation ("create product").
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Internal server error"}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}

	lower := strings.ToLower(err.Error())

	// postgres 23505 and sqlite "UNIQUE constraint failed"
	if strings.Contains(lower, "duplicate key") || strings.Contains(lower, "unique constraint") {
		return parseDuplicateKeyError(lower)
	}
	if strings.Contains(lower, "foreign key constraint") {
		if strings.Contains(lower, "still referenced") {
			return ErrorInfo{Code: ResourceConflict, Message: "Resource is still referenced and cannot be deleted"}
		}
		return ErrorInfo{Code: ResourceNotFound, Message: "Referenced resource does not exist"}
	}
	if strings.Contains(lower, "not-null constraint") || strings.Contains(lower, "not null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	}
	if strings.Contains(lower, "check constraint") {
		return ErrorInfo{Code: ValidationInvalidInput, Message: "Input is out of the allowed range"}
	}

	if strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "timeout") {
		return ErrorInfo{Code: InternalExternalAPI, Message: "An upstream service is unavailable, please retry shortly"}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
}

func parseDuplicateKeyError(lower string) ErrorInfo {
	switch {
	case strings.Contains(lower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "User already exists"}
	case strings.Contains(lower, "idx_review_product_user"), strings.Contains(lower, "reviews."):
		return ErrorInfo{Code: ReviewAlreadyExists, Message: "Product already reviewed"}
	case strings.Contains(lower, "idx_wishlist_user_product"), strings.Contains(lower, "wishlist_items."):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Product is already in the wishlist"}
	default:
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Resource already exists"}
	}
}

func notFoundMessage(context string) string {
	lower := strings.ToLower(context)
	for _, noun := range []string{"product", "order", "review", "address", "user", "cart"} {
		if strings.Contains(lower, noun) {
			return strings.ToUpper(noun[:1]) + noun[1:] + " not found"
		}
	}
	return "Resource not found"
}

func defaultMessage(context string) string {
	lower := strings.ToLower(context)
	switch {
	case strings.Contains(lower, "create"):
		return "Failed to create resource, please retry shortly"
	case strings.Contains(lower, "update"):
		return "Failed to update resource, please retry shortly"
	case strings.Contains(lower, "delete"):
		return "Failed to delete resource, please retry shortly"
	}
	return "Internal server error"
}

// ParseAndRespond parses err and writes it with the given status code
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{Error: info.Code, Message: info.Message})
}
