package persistence

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/catalog"
	"github.com/warrantyhub/backend/internal/domain/shared"
	"github.com/warrantyhub/backend/internal/domain/warranty"
	"github.com/warrantyhub/backend/internal/infrastructure/persistence/kv"
	"github.com/warrantyhub/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
)

// catalogState is the full in-memory copy of the catalog documents
type catalogState struct {
	products      []models.ProductRecord
	instances     []models.ProductInstanceRecord
	registrations []models.WarrantyRegistrationRecord
}

func (s catalogState) clone() catalogState {
	return catalogState{
		products:      slices.Clone(s.products),
		instances:     slices.Clone(s.instances),
		registrations: slices.Clone(s.registrations),
	}
}

func (s catalogState) productIndex(id uuid.UUID) int {
	return slices.IndexFunc(s.products, func(p models.ProductRecord) bool { return p.ID == id })
}

func (s catalogState) instanceIndex(id uuid.UUID) int {
	return slices.IndexFunc(s.instances, func(i models.ProductInstanceRecord) bool { return i.ID == id })
}

func (s catalogState) registrationIndexByInstance(instanceID uuid.UUID) int {
	return slices.IndexFunc(s.registrations, func(r models.WarrantyRegistrationRecord) bool {
		return r.ProductInstanceID == instanceID
	})
}

// KVCatalogStore implements catalog.Store on top of a kv.Store.
//
// The whole catalog is loaded once and kept in memory. Each mutation runs
// under one mutex: it builds the next state from a copy, writes every touched
// document in a single kv.Apply, and only then swaps the copy in. A failed
// write leaves both memory and the durable store unchanged.
type KVCatalogStore struct {
	store  kv.Store
	logger *zap.Logger

	mu    sync.RWMutex
	state catalogState
}

// NewKVCatalogStore loads the catalog documents from store
func NewKVCatalogStore(ctx context.Context, store kv.Store, logger *zap.Logger) (*KVCatalogStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var st catalogState
	if err := loadJSON(ctx, store, KeyProducts, &st.products); err != nil {
		return nil, err
	}
	if err := loadJSON(ctx, store, KeyProductInstances, &st.instances); err != nil {
		return nil, err
	}
	if err := loadJSON(ctx, store, KeyWarrantyRegistrations, &st.registrations); err != nil {
		return nil, err
	}

	logger.Info("Catalog loaded",
		zap.Int("products", len(st.products)),
		zap.Int("instances", len(st.instances)),
		zap.Int("registrations", len(st.registrations)),
	)

	return &KVCatalogStore{store: store, logger: logger, state: st}, nil
}

// mutate applies fn to a copy of the state and persists the documents named in dirty
func (s *KVCatalogStore) mutate(ctx context.Context, fn func(next *catalogState) (dirty []string, err error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	dirty, err := fn(&next)
	if err != nil {
		return err
	}

	ops := make([]kv.Op, 0, len(dirty))
	for _, key := range dirty {
		var op kv.Op
		switch key {
		case KeyProducts:
			op, err = putJSON(key, nonNil(next.products))
		case KeyProductInstances:
			op, err = putJSON(key, nonNil(next.instances))
		case KeyWarrantyRegistrations:
			op, err = putJSON(key, nonNil(next.registrations))
		default:
			err = fmt.Errorf("unknown catalog key %q", key)
		}
		if err != nil {
			return err
		}
		ops = append(ops, op)
	}

	if len(ops) == 0 {
		return nil
	}
	if err := s.store.Apply(ctx, ops...); err != nil {
		s.logger.Error("Failed to persist catalog", zap.Strings("keys", dirty), zap.Error(err))
		return fmt.Errorf("failed to persist catalog: %w", err)
	}

	s.state = next
	return nil
}

// CreateProduct adds a new product
func (s *KVCatalogStore) CreateProduct(ctx context.Context, product *catalog.Product) error {
	return s.mutate(ctx, func(next *catalogState) ([]string, error) {
		if next.productIndex(product.ID) >= 0 {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Product already exists")
		}
		next.products = append(next.products, models.ProductRecordFromDomain(product))
		return []string{KeyProducts}, nil
	})
}

// UpdateProduct replaces an existing product
func (s *KVCatalogStore) UpdateProduct(ctx context.Context, product *catalog.Product) error {
	return s.mutate(ctx, func(next *catalogState) ([]string, error) {
		idx := next.productIndex(product.ID)
		if idx < 0 {
			return nil, shared.ErrNotFound
		}
		next.products[idx] = models.ProductRecordFromDomain(product)
		return []string{KeyProducts}, nil
	})
}

// FindProductByID finds a product by ID
func (s *KVCatalogStore) FindProductByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.state.productIndex(id)
	if idx < 0 {
		return nil, shared.ErrNotFound
	}
	return s.state.products[idx].ToDomain(), nil
}

// FindAllProducts lists products in creation order
func (s *KVCatalogStore) FindAllProducts(_ context.Context) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]catalog.Product, len(s.state.products))
	for i := range s.state.products {
		products[i] = *s.state.products[i].ToDomain()
	}
	return products, nil
}

// DeleteProduct removes a product with its instances and their registrations
func (s *KVCatalogStore) DeleteProduct(ctx context.Context, id uuid.UUID) (catalog.CascadeResult, error) {
	var result catalog.CascadeResult
	err := s.mutate(ctx, func(next *catalogState) ([]string, error) {
		idx := next.productIndex(id)
		if idx < 0 {
			return nil, shared.ErrNotFound
		}
		next.products = slices.Delete(next.products, idx, idx+1)

		removed := make(map[uuid.UUID]struct{})
		next.instances = slices.DeleteFunc(next.instances, func(i models.ProductInstanceRecord) bool {
			if i.ProductID != id {
				return false
			}
			removed[i.ID] = struct{}{}
			return true
		})
		before := len(next.registrations)
		next.registrations = slices.DeleteFunc(next.registrations, func(r models.WarrantyRegistrationRecord) bool {
			_, gone := removed[r.ProductInstanceID]
			return gone
		})

		result = catalog.CascadeResult{
			InstancesRemoved:     len(removed),
			RegistrationsRemoved: before - len(next.registrations),
		}
		return []string{KeyProducts, KeyProductInstances, KeyWarrantyRegistrations}, nil
	})
	if err != nil {
		return catalog.CascadeResult{}, err
	}
	return result, nil
}

// CountProducts counts all products
func (s *KVCatalogStore) CountProducts(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.products), nil
}

// identifierIndex tracks the identifiers in use, keyed by kind
type identifierIndex struct {
	qr      map[string]uuid.UUID
	barcode map[string]uuid.UUID
	serial  map[string]uuid.UUID
}

func newIdentifierIndex(instances []models.ProductInstanceRecord) identifierIndex {
	idx := identifierIndex{
		qr:      make(map[string]uuid.UUID, len(instances)),
		barcode: make(map[string]uuid.UUID, len(instances)),
		serial:  make(map[string]uuid.UUID, len(instances)),
	}
	for _, i := range instances {
		idx.add(i)
	}
	return idx
}

func (x identifierIndex) add(i models.ProductInstanceRecord) {
	x.qr[i.QRCode] = i.ID
	if i.Barcode != "" {
		x.barcode[i.Barcode] = i.ID
	}
	x.serial[i.SerialNumber] = i.ID
}

// conflict returns an error if any identifier of i is held by another instance
func (x identifierIndex) conflict(i models.ProductInstanceRecord) error {
	if owner, ok := x.qr[i.QRCode]; ok && owner != i.ID {
		return shared.NewDomainError(shared.CodeConflict, fmt.Sprintf("QR code %s is already in use", i.QRCode))
	}
	if i.Barcode != "" {
		if owner, ok := x.barcode[i.Barcode]; ok && owner != i.ID {
			return shared.NewDomainError(shared.CodeConflict, fmt.Sprintf("Barcode %s is already in use", i.Barcode))
		}
	}
	if owner, ok := x.serial[i.SerialNumber]; ok && owner != i.ID {
		return shared.NewDomainError(shared.CodeConflict, fmt.Sprintf("Serial number %s is already in use", i.SerialNumber))
	}
	return nil
}

// AddInstances adds units all-or-nothing
func (s *KVCatalogStore) AddInstances(ctx context.Context, instances []*catalog.ProductInstance) error {
	if len(instances) == 0 {
		return nil
	}
	return s.mutate(ctx, func(next *catalogState) ([]string, error) {
		idx := newIdentifierIndex(next.instances)
		for _, inst := range instances {
			if next.productIndex(inst.ProductID) < 0 {
				return nil, shared.NewDomainError(shared.CodeNotFound, "Product not found")
			}
			if next.instanceIndex(inst.ID) >= 0 {
				return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Product instance already exists")
			}
			rec := models.ProductInstanceRecordFromDomain(inst)
			if err := idx.conflict(rec); err != nil {
				return nil, err
			}
			idx.add(rec)
			next.instances = append(next.instances, rec)
		}
		return []string{KeyProductInstances}, nil
	})
}

// UpdateInstance replaces an existing unit
func (s *KVCatalogStore) UpdateInstance(ctx context.Context, instance *catalog.ProductInstance) error {
	return s.mutate(ctx, func(next *catalogState) ([]string, error) {
		pos := next.instanceIndex(instance.ID)
		if pos < 0 {
			return nil, shared.ErrNotFound
		}
		current := next.instances[pos]
		if current.IsRegistered != instance.IsRegistered {
			return nil, shared.NewDomainError(shared.CodeInvalidState, "Registration flag changes only through warranty registration")
		}
		if next.productIndex(instance.ProductID) < 0 {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Product not found")
		}
		rec := models.ProductInstanceRecordFromDomain(instance)
		if err := newIdentifierIndex(next.instances).conflict(rec); err != nil {
			return nil, err
		}
		next.instances[pos] = rec
		return []string{KeyProductInstances}, nil
	})
}

// FindInstanceByID finds a unit by ID
func (s *KVCatalogStore) FindInstanceByID(_ context.Context, id uuid.UUID) (*catalog.ProductInstance, error) {
	return s.findInstance(func(i models.ProductInstanceRecord) bool { return i.ID == id })
}

// FindInstanceByQRCode finds a unit by exact QR code
func (s *KVCatalogStore) FindInstanceByQRCode(_ context.Context, code string) (*catalog.ProductInstance, error) {
	if code == "" {
		return nil, shared.ErrNotFound
	}
	return s.findInstance(func(i models.ProductInstanceRecord) bool { return i.QRCode == code })
}

// FindInstanceByBarcode finds a unit by exact barcode
func (s *KVCatalogStore) FindInstanceByBarcode(_ context.Context, code string) (*catalog.ProductInstance, error) {
	if code == "" {
		return nil, shared.ErrNotFound
	}
	return s.findInstance(func(i models.ProductInstanceRecord) bool { return i.Barcode == code })
}

// FindInstanceBySerialNumber finds a unit by exact serial number
func (s *KVCatalogStore) FindInstanceBySerialNumber(_ context.Context, serial string) (*catalog.ProductInstance, error) {
	if serial == "" {
		return nil, shared.ErrNotFound
	}
	return s.findInstance(func(i models.ProductInstanceRecord) bool { return i.SerialNumber == serial })
}

func (s *KVCatalogStore) findInstance(match func(models.ProductInstanceRecord) bool) (*catalog.ProductInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := slices.IndexFunc(s.state.instances, match)
	if idx < 0 {
		return nil, shared.ErrNotFound
	}
	return s.state.instances[idx].ToDomain(), nil
}

func instanceMatches(filter catalog.InstanceFilter, i models.ProductInstanceRecord) bool {
	if filter.ProductID != nil && i.ProductID != *filter.ProductID {
		return false
	}
	if filter.IsRegistered != nil && i.IsRegistered != *filter.IsRegistered {
		return false
	}
	return true
}

// FindInstances lists units matching the filter in creation order
func (s *KVCatalogStore) FindInstances(_ context.Context, filter catalog.InstanceFilter) ([]catalog.ProductInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	instances := make([]catalog.ProductInstance, 0)
	for _, rec := range s.state.instances {
		if instanceMatches(filter, rec) {
			instances = append(instances, *rec.ToDomain())
		}
	}
	return instances, nil
}

// CountInstances counts units matching the filter
func (s *KVCatalogStore) CountInstances(_ context.Context, filter catalog.InstanceFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, rec := range s.state.instances {
		if instanceMatches(filter, rec) {
			count++
		}
	}
	return count, nil
}

// AddRegistration stores the registration and flips its instance to registered
// in one write
func (s *KVCatalogStore) AddRegistration(ctx context.Context, registration *warranty.Registration) error {
	return s.mutate(ctx, func(next *catalogState) ([]string, error) {
		pos := next.instanceIndex(registration.ProductInstanceID)
		if pos < 0 {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Product instance not found")
		}
		if next.instances[pos].IsRegistered || next.registrationIndexByInstance(registration.ProductInstanceID) >= 0 {
			return nil, shared.NewDomainError(shared.CodeConflict, "This product has already been registered")
		}
		if slices.ContainsFunc(next.registrations, func(r models.WarrantyRegistrationRecord) bool { return r.ID == registration.ID }) {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Registration already exists")
		}

		next.registrations = append(next.registrations, models.WarrantyRegistrationRecordFromDomain(registration))
		next.instances[pos].IsRegistered = true
		next.instances[pos].UpdatedAt = registration.RegisteredAt
		return []string{KeyWarrantyRegistrations, KeyProductInstances}, nil
	})
}

// FindRegistrationByID finds a registration by ID
func (s *KVCatalogStore) FindRegistrationByID(_ context.Context, id uuid.UUID) (*warranty.Registration, error) {
	return s.findRegistration(func(r models.WarrantyRegistrationRecord) bool { return r.ID == id })
}

// FindRegistrationByInstanceID finds the registration of a unit
func (s *KVCatalogStore) FindRegistrationByInstanceID(_ context.Context, instanceID uuid.UUID) (*warranty.Registration, error) {
	return s.findRegistration(func(r models.WarrantyRegistrationRecord) bool { return r.ProductInstanceID == instanceID })
}

func (s *KVCatalogStore) findRegistration(match func(models.WarrantyRegistrationRecord) bool) (*warranty.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := slices.IndexFunc(s.state.registrations, match)
	if idx < 0 {
		return nil, shared.ErrNotFound
	}
	return s.state.registrations[idx].ToDomain()
}

// FindAllRegistrations lists registrations in registration order
func (s *KVCatalogStore) FindAllRegistrations(_ context.Context) ([]warranty.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	registrations := make([]warranty.Registration, 0, len(s.state.registrations))
	for i := range s.state.registrations {
		reg, err := s.state.registrations[i].ToDomain()
		if err != nil {
			return nil, err
		}
		registrations = append(registrations, *reg)
	}
	return registrations, nil
}

// CountRegistrations counts all registrations
func (s *KVCatalogStore) CountRegistrations(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.registrations), nil
}

// Ensure KVCatalogStore implements catalog.Store
var _ catalog.Store = (*KVCatalogStore)(nil)
