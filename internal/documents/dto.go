package documents

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"docstore-backend/internal/shared/server/respond"
)

// UploadResponse is returned by POST /documents.
type UploadResponse struct {
	Message string   `json:"message"`
	Files   []string `json:"files"`
}

// UploadFailedResponse is returned when a storage fault stops an upload.
// Files lists the documents stored before the fault; they are kept.
type UploadFailedResponse struct {
	respond.ErrorResponse
	Files []string `json:"files"`
}

// DeleteRequest is the body of DELETE /documents.
type DeleteRequest struct {
	UserID string   `json:"userId"`
	File   FileList `json:"file"`
}

// DeleteResponse reports which names were removed and which were absent.
type DeleteResponse struct {
	Message  string   `json:"message"`
	Deleted  []string `json:"deleted"`
	NotFound []string `json:"notFound"`
}

// FileList accepts either a single file name or an array of names.
type FileList []string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FileList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*f = FileList{one}
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var many []string
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*f = FileList(many)
		return nil
	}
	return errors.New("file must be a string or an array of strings")
}

// Names returns the trimmed, non-empty names in order.
func (f FileList) Names() []string {
	out := make([]string, 0, len(f))
	for _, name := range f {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
