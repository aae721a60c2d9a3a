package node

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Item is one output record of a node run.
type Item struct {
	JSON   map[string]interface{} `json:"json"`
	Binary *BinaryData            `json:"binary,omitempty"`
}

// BinaryData is a generated file attached to an item.
type BinaryData struct {
	ID            string `json:"id"`
	FileName      string `json:"fileName"`
	FileExtension string `json:"fileExtension"`
	MimeType      string `json:"mimeType"`
	FileSize      int    `json:"fileSize"`
	Data          []byte `json:"-"`
}

// NewBinaryData wraps data as an attachment named fileName.
func NewBinaryData(data []byte, fileName, mimeType string) *BinaryData {
	return &BinaryData{
		ID:            uuid.New().String(),
		FileName:      fileName,
		FileExtension: strings.TrimPrefix(filepath.Ext(fileName), "."),
		MimeType:      mimeType,
		FileSize:      len(data),
		Data:          data,
	}
}

func errorItem(err error) Item {
	return Item{JSON: map[string]interface{}{"error": err.Error()}}
}
