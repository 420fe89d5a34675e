package models

// ExportFormat enumerates roster export encodings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ContentType returns the MIME type of the encoding.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatPDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}

// RosterKind names an exportable roster.
type RosterKind string

const (
	RosterTeachers RosterKind = "teachers"
	RosterStudents RosterKind = "students"
	RosterParents  RosterKind = "parents"
)
