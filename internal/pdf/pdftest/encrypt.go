package pdftest

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Encrypt returns data encrypted with AES under the given passwords.
// keyLength is 128 or 256.
func Encrypt(data []byte, userPW, ownerPW string, keyLength int) ([]byte, error) {
	var out bytes.Buffer
	conf := model.NewAESConfiguration(userPW, ownerPW, keyLength)
	if err := api.Encrypt(bytes.NewReader(data), &out, conf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
