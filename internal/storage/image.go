package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge     = errors.New("file exceeds the maximum upload size")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrEmptyFile        = errors.New("file is empty")
)

// Image is an upload that passed validation.
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

func (i *Image) Size() int64 { return int64(len(i.Data)) }

func (i *Image) Reader() io.Reader { return bytes.NewReader(i.Data) }

// ReadImage reads at most maxSize bytes from r and checks the sniffed content
// type against allowed. The client supplied content type is ignored.
func ReadImage(r io.Reader, maxSize int64, allowed []string) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > maxSize {
		return nil, ErrFileTooLarge
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowed...) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, mt.String())
	}

	return &Image{Data: data, ContentType: mt.String(), Extension: mt.Extension()}, nil
}
