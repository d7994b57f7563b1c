package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"path"

	"github.com/gabriel-vasile/mimetype"
)

const MaxProofSize = 5 * 1024 * 1024 // 5 MB

// AllowedProofTypes maps accepted MIME types to the stored extension.
var AllowedProofTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// File is an upload whose content type was sniffed and accepted.
type File struct {
	Name     string
	MimeType string
	Ext      string
	Size     int64
	Reader   io.ReadSeeker
}

// InspectProof opens an uploaded proof and checks its size and sniffed content type.
// The caller closes the returned closer.
func InspectProof(fh *multipart.FileHeader) (*File, io.Closer, error) {
	if fh == nil || fh.Size == 0 {
		return nil, nil, ErrEmptyFile
	}
	if fh.Size > MaxProofSize {
		return nil, nil, ErrFileTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open upload: %w", err)
	}
	file, err := Inspect(fh.Filename, fh.Size, f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return file, f, nil
}

// Inspect validates r against the proof rules and rewinds it.
func Inspect(name string, size int64, r io.ReadSeeker) (*File, error) {
	if size == 0 {
		return nil, ErrEmptyFile
	}
	if size > MaxProofSize {
		return nil, ErrFileTooLarge
	}

	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, fmt.Errorf("detect file type: %w", err)
	}
	ext, ok := AllowedProofTypes[mt.String()]
	if !ok {
		return nil, ErrInvalidMimeType
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	return &File{
		Name:     path.Base(name),
		MimeType: mt.String(),
		Ext:      ext,
		Size:     size,
		Reader:   r,
	}, nil
}

// ProofKey returns <bookingID>/<16 random hex chars><ext>.
func ProofKey(bookingID, ext string) (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return bookingID + "/" + hex.EncodeToString(b) + ext, nil
}
