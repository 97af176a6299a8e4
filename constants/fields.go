package constants

// DefaultDocumentType is used when a request does not name one.
const DefaultDocumentType = "invoice"

// DefaultFields is the field list applied when a request supplies nothing usable.
var DefaultFields = []string{"invoice_number", "invoice_date", "total_amount"}

// ExcelPathKey is the result key carrying the artifact location.
const ExcelPathKey = "excel_path"
