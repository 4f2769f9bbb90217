package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"
)

// FileStore keeps generated invoice PDFs.
type FileStore interface {
	WritePDF(fileName string, data []byte) error
	ReadPDF(fileName string) ([]byte, error)
	DeletePDF(fileName string) error
}

const (
	invoiceFilePrefix = "invoice_"
	invoiceFileSuffix = ".pdf"
	invoiceFileDir    = "invoices/"
)

// NewInvoiceFileName returns a fresh opaque file name.
func NewInvoiceFileName() string {
	return invoiceFilePrefix + uuid.NewString() + invoiceFileSuffix
}

// checkInvoiceFileName rejects anything NewInvoiceFileName could not have made.
func checkInvoiceFileName(name string) error {
	id, ok := strings.CutPrefix(name, invoiceFilePrefix)
	if ok {
		id, ok = strings.CutSuffix(id, invoiceFileSuffix)
	}
	if !ok {
		return invalid("fileName", "invalid invoice file name %q", name)
	}
	if _, err := uuid.Parse(id); err != nil {
		return invalid("fileName", "invalid invoice file name %q", name)
	}
	return nil
}

// PocketBaseFileStore writes PDFs through the app's configured filesystem
// (local storage or S3).
type PocketBaseFileStore struct {
	app core.App
}

// NewPDFStore returns a FileStore backed by app's filesystem.
func NewPDFStore(app core.App) *PocketBaseFileStore {
	return &PocketBaseFileStore{app: app}
}

func fileStoreError(err error) error {
	return &ExternalServiceError{Service: "file store", Err: err}
}

func (s *PocketBaseFileStore) WritePDF(fileName string, data []byte) error {
	if err := checkInvoiceFileName(fileName); err != nil {
		return err
	}
	fsys, err := s.app.NewFilesystem()
	if err != nil {
		return fileStoreError(err)
	}
	defer fsys.Close()

	if err := fsys.Upload(data, invoiceFileDir+fileName); err != nil {
		return fileStoreError(fmt.Errorf("upload %s: %w", fileName, err))
	}
	return nil
}

func (s *PocketBaseFileStore) ReadPDF(fileName string) ([]byte, error) {
	if err := checkInvoiceFileName(fileName); err != nil {
		return nil, err
	}
	fsys, err := s.app.NewFilesystem()
	if err != nil {
		return nil, fileStoreError(err)
	}
	defer fsys.Close()

	key := invoiceFileDir + fileName
	exists, err := fsys.Exists(key)
	if err != nil {
		return nil, fileStoreError(err)
	}
	if !exists {
		return nil, notFound("invoice file", fileName)
	}

	r, err := fsys.GetReader(key)
	if err != nil {
		return nil, fileStoreError(err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fileStoreError(fmt.Errorf("read %s: %w", fileName, err))
	}
	return data, nil
}

func (s *PocketBaseFileStore) DeletePDF(fileName string) error {
	if err := checkInvoiceFileName(fileName); err != nil {
		return err
	}
	fsys, err := s.app.NewFilesystem()
	if err != nil {
		return fileStoreError(err)
	}
	defer fsys.Close()

	if err := fsys.Delete(invoiceFileDir + fileName); err != nil {
		return fileStoreError(err)
	}
	return nil
}
