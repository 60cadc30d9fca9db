package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType int

const (
	// Connection related error types
	ConnectionError ErrorType = iota
	TimeoutError

	// Metadata related error types
	MetadataError
	LeaderError

	// Consumer group related error types
	CoordinatorError
	ConsumerGroupError

	// Streaming related error types
	StreamError

	// General error types
	GeneralError
)

// TypedError represents an error with a specific type
type TypedError struct {
	Type    ErrorType
	Message string
	Cause   error
}

// Error implements the error interface
func (e *TypedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is/As chains
func (e *TypedError) Unwrap() error {
	return e.Cause
}

// NewTypedError creates a new typed error
func NewTypedError(errorType ErrorType, message string, cause error) *TypedError {
	return &TypedError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// Error constants for common error types
const (
	LeaderNotAvailableMsg    = "leader not available"
	TopicNotFoundMsg         = "topic not found"
	NoMetadataAvailableMsg   = "unable to fetch metadata from any broker"
	CoordinatorNotFoundMsg   = "consumer group coordinator not available"
	ConsumerGroupRequiredMsg = "operation requires a consumer group"
	StreamAlreadyActiveMsg   = "stream already active"
	WorkerClosedMsg          = "worker is closed"
)

// LeaderNotAvailable reports that no leader could be resolved for a partition
// operation, even after a metadata refresh.
func LeaderNotAvailable(topic string, partition int32) *TypedError {
	return &TypedError{
		Type:    LeaderError,
		Message: fmt.Sprintf("%s for %s/%d", LeaderNotAvailableMsg, topic, partition),
	}
}

// TopicNotFound reports that a named topic is absent from cluster metadata.
func TopicNotFound(topic string) *TypedError {
	return &TypedError{
		Type:    MetadataError,
		Message: fmt.Sprintf("%s: %s", TopicNotFoundMsg, topic),
	}
}

// NoMetadataAvailable is fatal to the worker: no broker answered a metadata
// request. The worker terminates and relies on its owner to restart it.
func NoMetadataAvailable() *TypedError {
	return &TypedError{
		Type:    MetadataError,
		Message: NoMetadataAvailableMsg,
	}
}

// ConsumerGroupRequired reports a caller contract violation: an operation that
// needs a consumer group was invoked on a worker configured without one.
func ConsumerGroupRequired() *TypedError {
	return &TypedError{
		Type:    ConsumerGroupError,
		Message: ConsumerGroupRequiredMsg,
	}
}

// Error checking functions

// IsConnectionError checks if the error is a connection-related error
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if typedErr, ok := err.(*TypedError); ok {
		return typedErr.Type == ConnectionError || typedErr.Type == TimeoutError
	}

	errorStr := err.Error()
	return contains(errorStr, "connection refused") ||
		contains(errorStr, "connection reset") ||
		contains(errorStr, "no route to host") ||
		contains(errorStr, "timeout")
}

// IsLeaderNotAvailable checks if the error reports a missing partition leader
func IsLeaderNotAvailable(err error) bool {
	if err == nil {
		return false
	}

	if typedErr, ok := err.(*TypedError); ok {
		return typedErr.Type == LeaderError
	}

	return contains(err.Error(), LeaderNotAvailableMsg)
}

// IsTopicNotFound checks if the error reports an unknown topic
func IsTopicNotFound(err error) bool {
	if err == nil {
		return false
	}

	if typedErr, ok := err.(*TypedError); ok {
		return typedErr.Type == MetadataError && contains(typedErr.Message, TopicNotFoundMsg)
	}

	return contains(err.Error(), TopicNotFoundMsg)
}

// IsNoMetadataAvailable checks for the fatal metadata error
func IsNoMetadataAvailable(err error) bool {
	if err == nil {
		return false
	}
	return contains(err.Error(), NoMetadataAvailableMsg)
}

// IsConsumerGroupRequired checks for the consumer group contract violation
func IsConsumerGroupRequired(err error) bool {
	if err == nil {
		return false
	}
	return contains(err.Error(), ConsumerGroupRequiredMsg)
}

// GetErrorType returns the error type if it's a TypedError, otherwise returns GeneralError
func GetErrorType(err error) ErrorType {
	if typedErr, ok := err.(*TypedError); ok {
		return typedErr.Type
	}
	return GeneralError
}

// contains is a helper function to check if a string contains a substring
func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
