package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the user lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidCredentials indicates wrong email/password combination
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidProvider indicates an unknown AI or index provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates a backing service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrFileTooLarge indicates an upload exceeds the configured size limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrDocumentProcessing indicates the document is still being ingested
	ErrDocumentProcessing = errors.New("document is processing")
)

// Ingestion and query pipeline errors
var (
	// ErrUnsupportedFormat indicates no extractor handles the file type
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCorruptDocument indicates the parser could not read the document bytes
	ErrCorruptDocument = errors.New("corrupt document")

	// ErrChunkConfigInvalid indicates chunk overlap is not smaller than chunk size
	ErrChunkConfigInvalid = errors.New("invalid chunk configuration")

	// ErrPointIDCollision indicates two chunks of one document hash to the same point id
	ErrPointIDCollision = errors.New("point id collision")

	// ErrEmbeddingUnavailable indicates the embedding step failed
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrIndexUnavailable indicates the vector index could not be reached or bootstrapped
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrGenerationFailed indicates the generator returned an error
	ErrGenerationFailed = errors.New("generation failed")

	// ErrGenerationTimeout indicates the generator did not answer in time
	ErrGenerationTimeout = errors.New("generation timed out")
)

// IsTerminalIngestionError reports whether an ingestion failure should not be retried.
// Extraction and chunking errors are properties of the document itself.
func IsTerminalIngestionError(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrCorruptDocument) ||
		errors.Is(err, ErrChunkConfigInvalid) ||
		errors.Is(err, ErrPointIDCollision) ||
		errors.Is(err, ErrNotFound)
}
