package importer

import (
	"context"
	"errors"
	"sync"

	"github.com/medisupply/inventory/internal/domain"
	"github.com/medisupply/inventory/internal/events"
	"github.com/medisupply/inventory/internal/storage"

	"github.com/google/uuid"
)

type stubJobRepo struct {
	mu             sync.Mutex
	jobs           map[uuid.UUID]domain.ImportJob
	createErr      error
	getErr         error
	finalizeErr    error
	markFailedErr  error
	markFailedTrys int
}

func newStubJobRepo() *stubJobRepo {
	return &stubJobRepo{jobs: map[uuid.UUID]domain.ImportJob{}}
}

func (s *stubJobRepo) Create(_ context.Context, job domain.ImportJob) (domain.ImportJob, error) {
	if s.createErr != nil {
		return domain.ImportJob{}, s.createErr
	}
	if err := job.Validate(); err != nil {
		return domain.ImportJob{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return job, nil
}

func (s *stubJobRepo) GetByID(_ context.Context, id uuid.UUID) (domain.ImportJob, error) {
	if s.getErr != nil {
		return domain.ImportJob{}, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.ImportJob{}, domain.NewNotFoundError("import job", id.String())
	}
	return job, nil
}

func (s *stubJobRepo) Finalize(_ context.Context, id uuid.UUID, result string) (bool, error) {
	if s.finalizeErr != nil {
		return false, s.finalizeErr
	}
	return s.transition(id, domain.JobStatusFinalized, result), nil
}

func (s *stubJobRepo) MarkFailed(_ context.Context, id uuid.UUID, result string) (bool, error) {
	s.mu.Lock()
	s.markFailedTrys++
	s.mu.Unlock()
	if s.markFailedErr != nil {
		return false, s.markFailedErr
	}
	return s.transition(id, domain.JobStatusFailed, result), nil
}

func (s *stubJobRepo) transition(id uuid.UUID, status domain.JobStatus, result string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Status != domain.JobStatusPending {
		return false
	}
	job.Status = status
	job.Result = &result
	now := job.CreatedAt
	job.UpdatedAt = &now
	s.jobs[id] = job
	return true
}

type stubProductRepo struct {
	mu        sync.Mutex
	created   []domain.Product
	bySKU     map[string]bool
	createErr error
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{bySKU: map[string]bool{}}
}

func (s *stubProductRepo) Create(_ context.Context, product domain.Product) (domain.Product, error) {
	if s.createErr != nil {
		return domain.Product{}, s.createErr
	}
	if err := product.Validate(); err != nil {
		return domain.Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bySKU[product.SKU] {
		return domain.Product{}, domain.NewValidationErrorf("sku %s already exists", product.SKU)
	}
	s.bySKU[product.SKU] = true
	product.ID = int64(len(s.created) + 1)
	s.created = append(s.created, product)
	return product, nil
}

func (s *stubProductRepo) GetByID(_ context.Context, id int64) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.created {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.NewNotFoundError("product", "")
}

func (s *stubProductRepo) GetBySKU(_ context.Context, sku string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.created {
		if p.SKU == sku {
			return p, nil
		}
	}
	return domain.Product{}, domain.NewNotFoundError("product", sku)
}

func (s *stubProductRepo) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.created)), nil
}

type stubBlobStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	metadata map[string]storage.Metadata
	putErr   error
	getErr   error
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{objects: map[string][]byte{}, metadata: map[string]storage.Metadata{}}
}

func (s *stubBlobStore) Put(_ context.Context, key string, data []byte, metadata storage.Metadata) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	s.metadata[key] = metadata
	return nil
}

func (s *stubBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, domain.NewNotFoundError("file", key)
	}
	return data, nil
}

func (s *stubBlobStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *stubBlobStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	delete(s.objects, key)
	return ok, nil
}

type stubPublisher struct {
	mu         sync.Mutex
	published  []events.ImportEvent
	publishErr error
}

func (s *stubPublisher) Publish(_ context.Context, event events.ImportEvent) (string, error) {
	if s.publishErr != nil {
		return "", s.publishErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, event)
	return "message-1", nil
}

var errInfra = errors.New("backend unavailable")
