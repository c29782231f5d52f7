package constants

// Boolean string values
const (
	BoolTrue  = "true"
	BoolFalse = "false"
	BoolYes   = "yes"
	BoolNo    = "no"
	BoolOne   = "1"
	BoolZero  = "0"
)

// Search
const (
	// SemanticSearchLimit is the number of notes kept after ranking.
	SemanticSearchLimit = 5
	// SimilarityPrecision is the number of decimals in a formatted score.
	SimilarityPrecision = 4

	DefaultListLimit = 20
	PreviewLength    = 100
)

// Enrichment
const (
	SummaryMaxTokens     = 200
	Temperature          = 0.5
	TagsMaxTokens        = 100
	FileSummaryMaxTokens = 150
	LinkMaxTokens        = 100
	MinTags              = 3
	MaxTags              = 5

	// FileSummaryInputLimit caps the extracted text sent for a file summary.
	FileSummaryInputLimit = 2000
	// ExtractLimit caps the text kept from any parsed document.
	ExtractLimit = 3000
)

// Uploads
const (
	MaxUploadFiles = 10
	MaxUploadBytes = 50 << 20
	UploadsURLPath = "/uploads/"
)

// File permissions
const (
	ConfigFileMode = 0600 // Secure file permissions for config
	UploadFileMode = 0644
	DirMode        = 0755
)
