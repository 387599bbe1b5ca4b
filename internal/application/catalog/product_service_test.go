package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/warrantyhub/backend/internal/domain/catalog"
	"github.com/warrantyhub/backend/internal/domain/identifier"
	"github.com/warrantyhub/backend/internal/domain/shared"
	"github.com/warrantyhub/backend/internal/domain/warranty"
	"go.uber.org/zap"
)

// MockStore is a mock implementation of catalog.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateProduct(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockStore) UpdateProduct(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockStore) FindProductByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockStore) FindAllProducts(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockStore) DeleteProduct(ctx context.Context, id uuid.UUID) (catalog.CascadeResult, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(catalog.CascadeResult), args.Error(1)
}

func (m *MockStore) CountProducts(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) AddInstances(ctx context.Context, instances []*catalog.ProductInstance) error {
	args := m.Called(ctx, instances)
	return args.Error(0)
}

func (m *MockStore) UpdateInstance(ctx context.Context, instance *catalog.ProductInstance) error {
	args := m.Called(ctx, instance)
	return args.Error(0)
}

func (m *MockStore) FindInstanceByID(ctx context.Context, id uuid.UUID) (*catalog.ProductInstance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductInstance), args.Error(1)
}

func (m *MockStore) FindInstanceByQRCode(ctx context.Context, code string) (*catalog.ProductInstance, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductInstance), args.Error(1)
}

func (m *MockStore) FindInstanceByBarcode(ctx context.Context, code string) (*catalog.ProductInstance, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductInstance), args.Error(1)
}

func (m *MockStore) FindInstanceBySerialNumber(ctx context.Context, serial string) (*catalog.ProductInstance, error) {
	args := m.Called(ctx, serial)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductInstance), args.Error(1)
}

func (m *MockStore) FindInstances(ctx context.Context, filter catalog.InstanceFilter) ([]catalog.ProductInstance, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.ProductInstance), args.Error(1)
}

func (m *MockStore) CountInstances(ctx context.Context, filter catalog.InstanceFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) AddRegistration(ctx context.Context, registration *warranty.Registration) error {
	args := m.Called(ctx, registration)
	return args.Error(0)
}

func (m *MockStore) FindRegistrationByID(ctx context.Context, id uuid.UUID) (*warranty.Registration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*warranty.Registration), args.Error(1)
}

func (m *MockStore) FindRegistrationByInstanceID(ctx context.Context, instanceID uuid.UUID) (*warranty.Registration, error) {
	args := m.Called(ctx, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*warranty.Registration), args.Error(1)
}

func (m *MockStore) FindAllRegistrations(ctx context.Context) ([]warranty.Registration, error) {
	args := m.Called(ctx)
	return args.Get(0).([]warranty.Registration), args.Error(1)
}

func (m *MockStore) CountRegistrations(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockObjectStorage is a mock implementation of ObjectStorageService
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	args := m.Called(ctx, storageKey, data, contentType)
	return args.Error(0)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	args := m.Called(ctx, storageKey)
	return args.Error(0)
}

var testNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type serviceFixture struct {
	store   *MockStore
	events  *MockEventPublisher
	storage *MockObjectStorage
	service *ProductService
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	clock := shared.NewFixedClock(testNow)
	f := &serviceFixture{
		store:   new(MockStore),
		events:  new(MockEventPublisher),
		storage: new(MockObjectStorage),
	}
	gen := identifier.NewGenerator(clock, identifier.WithRandSource(identifier.SeedFromUint64(42)))
	f.service = NewProductService(f.store, gen, f.events, f.storage, clock, DefaultServiceConfig(), zap.NewNop())
	return f
}

func newTestProduct(t *testing.T) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("Laptop", "Acme", "X1", "Electronics", 12, "", testNow)
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func eventTypes(events []shared.DomainEvent) []string {
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType()
	}
	return types
}

func TestProductService_Create(t *testing.T) {
	validRequest := func() CreateProductRequest {
		return CreateProductRequest{
			Name:                 "Laptop",
			Brand:                "Acme",
			Model:                "X1",
			Category:             "Electronics",
			WarrantyPeriodMonths: 24,
		}
	}

	t.Run("defaults to one unit", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("CreateProduct", mock.Anything, mock.AnythingOfType("*catalog.Product")).Return(nil)
		f.store.On("AddInstances", mock.Anything, mock.MatchedBy(func(in []*catalog.ProductInstance) bool {
			return len(in) == 1
		})).Return(nil)
		f.events.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
			return assert.ObjectsAreEqual(
				[]string{catalog.EventTypeProductCreated, catalog.EventTypeInstancesGenerated},
				eventTypes(events))
		})).Return(nil)

		resp, err := f.service.Create(context.Background(), validRequest())

		require.NoError(t, err)
		assert.Equal(t, "Laptop", resp.Product.Name)
		assert.Equal(t, 24, resp.Product.WarrantyPeriodMonths)
		require.Len(t, resp.Instances, 1)
		inst := resp.Instances[0]
		assert.Equal(t, resp.Product.ID, inst.ProductID)
		assert.True(t, strings.HasPrefix(inst.QRCode, "QR"))
		assert.True(t, strings.HasPrefix(inst.SerialNumber, "SN"))
		assert.Len(t, inst.Barcode, 16)
		assert.False(t, inst.IsRegistered)
		f.store.AssertExpectations(t)
		f.events.AssertExpectations(t)
	})

	t.Run("zero quantity creates no units", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("CreateProduct", mock.Anything, mock.Anything).Return(nil)
		f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		zero := 0
		req := validRequest()
		req.InitialQuantity = &zero
		resp, err := f.service.Create(context.Background(), req)

		require.NoError(t, err)
		assert.Empty(t, resp.Instances)
		f.store.AssertNotCalled(t, "AddInstances", mock.Anything, mock.Anything)
	})

	t.Run("batch codes are distinct", func(t *testing.T) {
		f := newFixture(t)
		var added []*catalog.ProductInstance
		f.store.On("CreateProduct", mock.Anything, mock.Anything).Return(nil)
		f.store.On("AddInstances", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			added = args.Get(1).([]*catalog.ProductInstance)
		}).Return(nil)
		f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		qty := 500
		req := validRequest()
		req.InitialQuantity = &qty
		_, err := f.service.Create(context.Background(), req)
		require.NoError(t, err)

		require.Len(t, added, qty)
		seen := map[string]bool{}
		for _, inst := range added {
			for _, code := range []string{inst.QRCode, inst.Barcode, inst.SerialNumber} {
				assert.False(t, seen[code], "duplicate code %s", code)
				seen[code] = true
			}
		}
	})

	t.Run("invalid product is rejected before storing", func(t *testing.T) {
		f := newFixture(t)
		req := validRequest()
		req.WarrantyPeriodMonths = 0

		_, err := f.service.Create(context.Background(), req)

		require.Error(t, err)
		f.store.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
	})

	t.Run("quantity above batch limit", func(t *testing.T) {
		f := newFixture(t)
		qty := DefaultServiceConfig().MaxBatchSize + 1
		req := validRequest()
		req.InitialQuantity = &qty

		_, err := f.service.Create(context.Background(), req)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_QUANTITY", domainErr.Code)
	})

	t.Run("rolls product back when units cannot be stored", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("CreateProduct", mock.Anything, mock.Anything).Return(nil)
		f.store.On("AddInstances", mock.Anything, mock.Anything).Return(errors.New("disk full"))
		f.store.On("DeleteProduct", mock.Anything, mock.Anything).Return(catalog.CascadeResult{}, nil)

		_, err := f.service.Create(context.Background(), validRequest())

		require.EqualError(t, err, "disk full")
		f.store.AssertCalled(t, "DeleteProduct", mock.Anything, mock.Anything)
		f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestProductService_GenerateInstances(t *testing.T) {
	ctx := context.Background()

	t.Run("retries on store collision", func(t *testing.T) {
		f := newFixture(t)
		product := newTestProduct(t)
		f.store.On("FindProductByID", ctx, product.ID).Return(product, nil)
		f.store.On("AddInstances", ctx, mock.Anything).
			Return(shared.NewDomainError(shared.CodeConflict, "QR code already exists")).Twice()
		f.store.On("AddInstances", ctx, mock.Anything).Return(nil).Once()
		f.events.On("Publish", ctx, mock.Anything).Return(nil)

		resp, err := f.service.GenerateInstances(ctx, product.ID, GenerateInstancesRequest{Quantity: 3})

		require.NoError(t, err)
		assert.Len(t, resp, 3)
		f.store.AssertNumberOfCalls(t, "AddInstances", 3)
	})

	t.Run("gives up after retry budget", func(t *testing.T) {
		f := newFixture(t)
		product := newTestProduct(t)
		f.store.On("FindProductByID", ctx, product.ID).Return(product, nil)
		f.store.On("AddInstances", ctx, mock.Anything).Return(shared.ErrConflict)

		_, err := f.service.GenerateInstances(ctx, product.ID, GenerateInstancesRequest{Quantity: 2})

		assert.True(t, shared.IsConflict(err))
		f.store.AssertNumberOfCalls(t, "AddInstances", DefaultServiceConfig().IdentifierRetries+1)
		f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("other store errors are not retried", func(t *testing.T) {
		f := newFixture(t)
		product := newTestProduct(t)
		f.store.On("FindProductByID", ctx, product.ID).Return(product, nil)
		f.store.On("AddInstances", ctx, mock.Anything).Return(shared.ErrNotFound)

		_, err := f.service.GenerateInstances(ctx, product.ID, GenerateInstancesRequest{Quantity: 2})

		assert.True(t, shared.IsNotFound(err))
		f.store.AssertNumberOfCalls(t, "AddInstances", 1)
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newFixture(t)
		id := uuid.New()
		f.store.On("FindProductByID", ctx, id).Return(nil, shared.ErrNotFound)

		_, err := f.service.GenerateInstances(ctx, id, GenerateInstancesRequest{Quantity: 1})

		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("zero quantity", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.GenerateInstances(ctx, uuid.New(), GenerateInstancesRequest{Quantity: 0})
		require.Error(t, err)
		f.store.AssertNotCalled(t, "FindProductByID", mock.Anything, mock.Anything)
	})
}

func TestProductService_Update(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	product := newTestProduct(t)
	f.store.On("FindProductByID", ctx, product.ID).Return(product, nil)
	f.store.On("UpdateProduct", ctx, product).Return(nil)
	f.events.On("Publish", ctx, mock.Anything).Return(nil)

	name := "Laptop Pro"
	months := 36
	resp, err := f.service.Update(ctx, product.ID, UpdateProductRequest{Name: &name, WarrantyPeriodMonths: &months})

	require.NoError(t, err)
	assert.Equal(t, "Laptop Pro", resp.Name)
	assert.Equal(t, 36, resp.WarrantyPeriodMonths)
	assert.Equal(t, "Acme", resp.Brand)
	assert.Equal(t, product.CreatedAt, resp.CreatedAt)
	assert.Empty(t, product.GetDomainEvents())
}

func TestProductService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	product := newTestProduct(t)
	product.SetImage("products/"+product.ID.String()+"/1.png", testNow)

	f.store.On("FindProductByID", ctx, product.ID).Return(product, nil)
	f.store.On("DeleteProduct", ctx, product.ID).
		Return(catalog.CascadeResult{InstancesRemoved: 3, RegistrationsRemoved: 1}, nil)
	f.events.On("Publish", ctx, mock.MatchedBy(func(events []shared.DomainEvent) bool {
		return len(events) == 1 && events[0].EventType() == catalog.EventTypeProductDeleted
	})).Return(nil)
	f.storage.On("DeleteObject", ctx, product.Image).Return(nil)

	resp, err := f.service.Delete(ctx, product.ID)

	require.NoError(t, err)
	assert.Equal(t, 3, resp.InstancesRemoved)
	assert.Equal(t, 1, resp.RegistrationsRemoved)
	f.storage.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestProductService_Lookups(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	product := newTestProduct(t)
	inst, err := catalog.NewProductInstance(product.ID, identifier.Codes{
		QRCode: "QRABCD1", Barcode: "00011234", SerialNumber: "SNABCD1",
	}, testNow)
	require.NoError(t, err)

	f.store.On("FindInstanceByQRCode", ctx, "QRABCD1").Return(inst, nil)
	f.store.On("FindInstanceByBarcode", ctx, "nope").Return(nil, shared.ErrNotFound)
	f.store.On("FindInstanceBySerialNumber", ctx, "SNABCD1").Return(inst, nil)

	got, err := f.service.GetInstanceByQRCode(ctx, "  QRABCD1 ")
	require.NoError(t, err)
	assert.Equal(t, inst.ID, got.ID)

	_, err = f.service.GetInstanceByBarcode(ctx, "nope")
	assert.True(t, shared.IsNotFound(err))

	got, err = f.service.GetInstanceBySerialNumber(ctx, "SNABCD1")
	require.NoError(t, err)
	assert.Equal(t, "QRABCD1", got.QRCode)
}

func TestProductService_UploadImage(t *testing.T) {
	ctx := context.Background()
	png := []byte("\x89PNG\r\n\x1a\nrest")

	t.Run("stores image and replaces previous", func(t *testing.T) {
		f := newFixture(t)
		product := newTestProduct(t)
		oldKey := "products/" + product.ID.String() + "/1.png"
		product.SetImage(oldKey, testNow)
		expectedKey := "products/" + product.ID.String() + "/1717236000000.png"
		expires := testNow.Add(15 * time.Minute)

		f.store.On("FindProductByID", ctx, product.ID).Return(product, nil)
		f.storage.On("Upload", ctx, expectedKey, png, "image/png").Return(nil)
		f.store.On("UpdateProduct", ctx, product).Return(nil)
		f.storage.On("DeleteObject", ctx, oldKey).Return(nil)
		f.storage.On("GenerateDownloadURL", ctx, expectedKey, 15*time.Minute).
			Return("https://cdn.example.com/"+expectedKey, expires, nil)

		resp, err := f.service.UploadImage(ctx, product.ID, UploadImageRequest{
			FileName: "Photo.PNG", ContentType: "image/png", Data: png,
		})

		require.NoError(t, err)
		assert.Equal(t, expectedKey, resp.ImageKey)
		assert.Equal(t, expectedKey, product.Image)
		assert.Equal(t, expires, resp.ExpiresAt)
		f.storage.AssertExpectations(t)
	})

	t.Run("external image reference is left alone", func(t *testing.T) {
		f := newFixture(t)
		product := newTestProduct(t)
		product.SetImage("https://example.com/laptop.png", testNow)

		f.store.On("FindProductByID", ctx, product.ID).Return(product, nil)
		f.storage.On("Upload", ctx, mock.Anything, png, "image/png").Return(nil)
		f.store.On("UpdateProduct", ctx, product).Return(nil)
		f.storage.On("GenerateDownloadURL", ctx, mock.Anything, mock.Anything).Return("u", testNow, nil)

		_, err := f.service.UploadImage(ctx, product.ID, UploadImageRequest{
			FileName: "a.png", ContentType: "image/png", Data: png,
		})

		require.NoError(t, err)
		f.storage.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
	})

	t.Run("rejects non image", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.UploadImage(ctx, uuid.New(), UploadImageRequest{
			FileName: "a.txt", ContentType: "text/plain", Data: []byte("hi"),
		})
		require.Error(t, err)
		f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects oversized file", func(t *testing.T) {
		f := newFixture(t)
		f.service.config.MaxImageBytes = 4
		_, err := f.service.UploadImage(ctx, uuid.New(), UploadImageRequest{
			FileName: "a.png", ContentType: "image/png", Data: png,
		})
		require.Error(t, err)
	})

	t.Run("cleans up upload when product update fails", func(t *testing.T) {
		f := newFixture(t)
		product := newTestProduct(t)
		f.store.On("FindProductByID", ctx, product.ID).Return(product, nil)
		f.storage.On("Upload", ctx, mock.Anything, png, "image/png").Return(nil)
		f.store.On("UpdateProduct", ctx, product).Return(errors.New("write failed"))
		f.storage.On("DeleteObject", ctx, mock.MatchedBy(func(k string) bool {
			return strings.HasPrefix(k, "products/")
		})).Return(nil)

		_, err := f.service.UploadImage(ctx, product.ID, UploadImageRequest{
			FileName: "a.png", ContentType: "image/png", Data: png,
		})

		require.Error(t, err)
		f.storage.AssertNumberOfCalls(t, "DeleteObject", 1)
	})
}
