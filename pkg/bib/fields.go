package bib

// Known field names. The reconciliation core only reads, proposes, and
// merges fields from this vocabulary; anything else a source or enrichment
// payload carries is passed through untouched or rejected at the boundary.
const (
	FieldTitle            = "title"
	FieldDate             = "date"
	FieldDOI              = "DOI"
	FieldISBN             = "ISBN"
	FieldPublisher        = "publisher"
	FieldPublicationTitle = "publicationTitle"
	FieldBookTitle        = "bookTitle"
	FieldVolume           = "volume"
	FieldIssue            = "issue"
	FieldPages            = "pages"
	FieldAbstractNote     = "abstractNote"
	FieldURL              = "url"
	FieldConferenceName   = "conferenceName"
	FieldUniversity       = "university"
	FieldInstitution      = "institution"
	FieldCreators         = "creators"
)

// FieldVocabulary lists every known field in canonical order. Merge drafts
// and enrichment results iterate this order so output is deterministic.
var FieldVocabulary = []string{
	FieldTitle,
	FieldDate,
	FieldDOI,
	FieldISBN,
	FieldPublisher,
	FieldPublicationTitle,
	FieldBookTitle,
	FieldVolume,
	FieldIssue,
	FieldPages,
	FieldAbstractNote,
	FieldURL,
	FieldConferenceName,
	FieldUniversity,
	FieldInstitution,
	FieldCreators,
}

var knownFields = func() map[string]struct{} {
	m := make(map[string]struct{}, len(FieldVocabulary))
	for _, f := range FieldVocabulary {
		m[f] = struct{}{}
	}
	return m
}()

// KnownField reports whether name is part of the field vocabulary.
func KnownField(name string) bool {
	_, ok := knownFields[name]
	return ok
}
