package errors

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every pipeline stage.
const (
	ErrCodeInternal        ErrorCode = "COMMON_001"
	ErrCodeInvalidParam    ErrorCode = "COMMON_002"
	ErrCodeNotFound        ErrorCode = "COMMON_003"
	ErrCodeIO              ErrorCode = "COMMON_004"
	ErrCodeSerialization   ErrorCode = "COMMON_005"
	ErrCodeExternalService ErrorCode = "COMMON_006"
	ErrCodeTimeout         ErrorCode = "COMMON_007"
	ErrCodeNotImplemented  ErrorCode = "COMMON_008"
	ErrCodeConfig          ErrorCode = "COMMON_009"

	// CodeOK is returned by GetCode for a nil error.
	CodeOK ErrorCode = "OK"

	// CodeUnknown is returned by GetCode when no *AppError is in the chain.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Molecule and enumeration error codes.
const (
	ErrCodeInvalidSMILES        ErrorCode = "MOL_001"
	ErrCodeSMILESParseFailed    ErrorCode = "MOL_002"
	ErrCodeCanonicalizeFailed   ErrorCode = "MOL_003"
	ErrCodeFingerprintFailed    ErrorCode = "MOL_004"
	ErrCodeNoSubstitutableSites ErrorCode = "MOL_005"
	ErrCodeTooManySites         ErrorCode = "MOL_006"
	ErrCodeValenceViolation     ErrorCode = "MOL_007"
)

// Geometry and structure-export error codes.
const (
	ErrCodeEmbeddingFailed ErrorCode = "GEO_001"
	ErrCodeWriteFailed     ErrorCode = "GEO_002"
	ErrCodeRenderFailed    ErrorCode = "GEO_003"
	ErrCodeParseFailed     ErrorCode = "GEO_004"
)

// External tool and network error codes.
const (
	ErrCodeLigPrepFailed    ErrorCode = "EXT_001"
	ErrCodeLookupFailed     ErrorCode = "EXT_002"
	ErrCodeDescriptorFailed ErrorCode = "EXT_003"
	ErrCodeToolNotFound     ErrorCode = "EXT_004"
)

// Model training and prediction error codes.
const (
	ErrCodeDatasetInvalid    ErrorCode = "ML_001"
	ErrCodeTrainFailed       ErrorCode = "ML_002"
	ErrCodeModelNotFitted    ErrorCode = "ML_003"
	ErrCodeModelLoadFailed   ErrorCode = "ML_004"
	ErrCodeDimensionMismatch ErrorCode = "ML_005"
	ErrCodeGridEmpty         ErrorCode = "ML_006"
)
