package qrcode

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

// Generate renders content into a QR code image and returns the encoded
// bytes. The image goes through a temp file because the writer only targets
// files; the file is removed before returning.
func Generate(content string) ([]byte, error) {
	qrc, err := qrcode.New(content)
	if err != nil {
		return nil, fmt.Errorf("error creating QR code: %w", err)
	}

	filename := filepath.Join(os.TempDir(), fmt.Sprintf("tally_qr_%d.jpg", time.Now().UnixNano()))
	fileWriter, err := standard.New(filename)
	if err != nil {
		return nil, fmt.Errorf("error creating file writer: %w", err)
	}
	defer os.Remove(filename)

	if err = qrc.Save(fileWriter); err != nil {
		return nil, fmt.Errorf("error saving QR code: %w", err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading QR code image: %w", err)
	}
	return data, nil
}
