package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// memFileStore is an in-memory FileStore.
type memFileStore struct {
	mu         sync.Mutex
	files      map[string][]byte
	failWrite  error
	failDelete error
}

func newMemFileStore() *memFileStore {
	return &memFileStore{files: make(map[string][]byte)}
}

func (m *memFileStore) WritePDF(fileName string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return &ExternalServiceError{Service: "file store", Err: m.failWrite}
	}
	m.files[fileName] = append([]byte(nil), data...)
	return nil
}

func (m *memFileStore) ReadPDF(fileName string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[fileName]
	if !ok {
		return nil, notFound("invoice file", fileName)
	}
	return data, nil
}

func (m *memFileStore) DeletePDF(fileName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete != nil {
		return m.failDelete
	}
	delete(m.files, fileName)
	return nil
}

func (m *memFileStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// fakePayments hands out sequential links and fails for chosen amounts.
type fakePayments struct {
	mu       sync.Mutex
	calls    int
	failFor  map[int64]bool
	blockCtx bool
}

func (f *fakePayments) CreatePriceAndLink(ctx context.Context, amountCents int64, description string) (PaymentLink, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	fail := f.failFor[amountCents]
	f.mu.Unlock()

	if f.blockCtx {
		<-ctx.Done()
		return PaymentLink{}, &ExternalServiceError{Service: "payment provider", Err: ctx.Err()}
	}
	if fail {
		return PaymentLink{}, &ExternalServiceError{Service: "payment provider", Err: errors.New("card network down")}
	}
	id := fmt.Sprintf("plink_%03d", n)
	return PaymentLink{ID: id, URL: "https://pay.example.com/" + id}, nil
}
