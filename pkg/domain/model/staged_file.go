package model

// StagedFile is an uploaded document written to the staging area of file storage.
// StoredPath is where the file will live once promoted after the report commits.
type StagedFile struct {
	Key          string
	OriginalName string
	StagingPath  string
	StoredPath   string
	Size         int64
	MIMEType     string
}

// ToAttachment converts the staged file into the attachment row persisted with the report
func (f *StagedFile) ToAttachment() Attachment {
	return Attachment{
		OriginalName: f.OriginalName,
		StoredPath:   f.StoredPath,
		Size:         f.Size,
		MIMEType:     f.MIMEType,
	}
}
