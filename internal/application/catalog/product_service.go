package catalog

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/catalog"
	"github.com/warrantyhub/backend/internal/domain/identifier"
	"github.com/warrantyhub/backend/internal/domain/shared"
	"github.com/warrantyhub/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// imageKeyPrefix namespaces product images in object storage
const imageKeyPrefix = "products/"

// maxCodeAttempts bounds how often one unit's identifiers are redrawn when
// they repeat codes already drawn for the same batch
const maxCodeAttempts = 16

// ObjectStorageService stores product images
type ObjectStorageService interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, storageKey string) error
}

// ServiceConfig tunes instance generation and image upload
type ServiceConfig struct {
	IdentifierRetries int   // whole-batch retries after a store-level code collision
	MaxBatchSize      int   // most units generated by one call
	PresignExpiry     time.Duration
	MaxImageBytes     int64
}

// DefaultServiceConfig returns default configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		IdentifierRetries: 3,
		MaxBatchSize:      1000,
		PresignExpiry:     15 * time.Minute,
		MaxImageBytes:     5 << 20,
	}
}

// ProductService handles product and product-instance operations
type ProductService struct {
	store     catalog.Store
	generator *identifier.Generator
	events    shared.EventPublisher
	storage   ObjectStorageService
	clock     shared.Clock
	config    ServiceConfig
	logger    *zap.Logger
}

// NewProductService creates a new ProductService. events and storage may be
// nil; image upload then fails with a validation error.
func NewProductService(
	store catalog.Store,
	generator *identifier.Generator,
	events shared.EventPublisher,
	storage ObjectStorageService,
	clock shared.Clock,
	config ServiceConfig,
	logger *zap.Logger,
) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		store:     store,
		generator: generator,
		events:    events,
		storage:   storage,
		clock:     clock,
		config:    config,
		logger:    logger,
	}
}

// Create creates a new product and its initial units
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (resp *CreateProductResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product", "create")
	defer func() { telemetry.EndSpan(span, err) }()

	quantity := 1
	if req.InitialQuantity != nil {
		quantity = *req.InitialQuantity
	}
	if err := s.validateQuantity(quantity, true); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	product, err := catalog.NewProduct(req.Name, req.Brand, req.Model, req.Category, req.WarrantyPeriodMonths, req.Image, now)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String(telemetry.SpanAttrProductID, product.ID.String()),
		attribute.Int(telemetry.SpanAttrQuantity, quantity),
	)

	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	instances := []*catalog.ProductInstance{}
	if quantity > 0 {
		instances, err = s.addInstances(ctx, product.ID, quantity, now)
		if err != nil {
			// keep creation all-or-nothing
			if _, delErr := s.store.DeleteProduct(ctx, product.ID); delErr != nil {
				s.logger.Error("Failed to roll back product after instance generation failure",
					zap.String("product_id", product.ID.String()),
					zap.Error(delErr))
			}
			return nil, err
		}
	}

	events := product.GetDomainEvents()
	if quantity > 0 {
		events = append(events, catalog.NewInstancesGeneratedEvent(product.ID, quantity, now))
	}
	s.publish(ctx, events...)
	product.ClearDomainEvents()

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name),
		zap.Int("instances", len(instances)))

	return &CreateProductResponse{
		Product:   ToProductResponse(product),
		Instances: toInstancePointerResponses(instances),
	}, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.store.FindProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves all products in creation order
func (s *ProductService) List(ctx context.Context) ([]ProductResponse, error) {
	products, err := s.store.FindAllProducts(ctx)
	if err != nil {
		return nil, err
	}
	return ToProductResponses(products), nil
}

// Update applies a partial update to a product
func (s *ProductService) Update(ctx context.Context, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.store.FindProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	update := catalog.ProductUpdate{
		Name:                 req.Name,
		Brand:                req.Brand,
		Model:                req.Model,
		Category:             req.Category,
		WarrantyPeriodMonths: req.WarrantyPeriodMonths,
		Image:                req.Image,
	}
	if err := product.Apply(update, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, product.GetDomainEvents()...)
	product.ClearDomainEvents()

	response := ToProductResponse(product)
	return &response, nil
}

// Delete removes a product together with its units and their registrations
func (s *ProductService) Delete(ctx context.Context, productID uuid.UUID) (*DeleteProductResponse, error) {
	product, err := s.store.FindProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	result, err := s.store.DeleteProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, catalog.NewProductDeletedEvent(productID, result, s.clock.Now()))
	s.removeStoredImage(ctx, product.Image)

	s.logger.Info("Product deleted",
		zap.String("product_id", productID.String()),
		zap.Int("instances_removed", result.InstancesRemoved),
		zap.Int("registrations_removed", result.RegistrationsRemoved))

	return &DeleteProductResponse{
		ProductID:            productID,
		InstancesRemoved:     result.InstancesRemoved,
		RegistrationsRemoved: result.RegistrationsRemoved,
	}, nil
}

// GenerateInstances adds quantity new units with fresh identifiers to an existing product
func (s *ProductService) GenerateInstances(ctx context.Context, productID uuid.UUID, req GenerateInstancesRequest) (generated []InstanceResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product", "generate_instances",
		attribute.String(telemetry.SpanAttrProductID, productID.String()),
		attribute.Int(telemetry.SpanAttrQuantity, req.Quantity))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.validateQuantity(req.Quantity, false); err != nil {
		return nil, err
	}
	if _, err := s.store.FindProductByID(ctx, productID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	instances, err := s.addInstances(ctx, productID, req.Quantity, now)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, catalog.NewInstancesGeneratedEvent(productID, req.Quantity, now))

	s.logger.Info("Product instances generated",
		zap.String("product_id", productID.String()),
		zap.Int("quantity", req.Quantity))

	return toInstancePointerResponses(instances), nil
}

// ListInstances lists units, optionally for a single product
func (s *ProductService) ListInstances(ctx context.Context, filter InstanceListFilter) ([]InstanceResponse, error) {
	instances, err := s.store.FindInstances(ctx, catalog.InstanceFilter{
		ProductID:    filter.ProductID,
		IsRegistered: filter.IsRegistered,
	})
	if err != nil {
		return nil, err
	}
	return ToInstanceResponses(instances), nil
}

// GetInstanceByQRCode looks up a unit by exact QR code
func (s *ProductService) GetInstanceByQRCode(ctx context.Context, code string) (*InstanceResponse, error) {
	return s.instanceResponse(s.store.FindInstanceByQRCode(ctx, strings.TrimSpace(code)))
}

// GetInstanceByBarcode looks up a unit by exact barcode
func (s *ProductService) GetInstanceByBarcode(ctx context.Context, code string) (*InstanceResponse, error) {
	return s.instanceResponse(s.store.FindInstanceByBarcode(ctx, strings.TrimSpace(code)))
}

// GetInstanceBySerialNumber looks up a unit by exact serial number
func (s *ProductService) GetInstanceBySerialNumber(ctx context.Context, serial string) (*InstanceResponse, error) {
	return s.instanceResponse(s.store.FindInstanceBySerialNumber(ctx, strings.TrimSpace(serial)))
}

// CountProducts counts all products
func (s *ProductService) CountProducts(ctx context.Context) (int, error) {
	return s.store.CountProducts(ctx)
}

// CountInstances counts all units
func (s *ProductService) CountInstances(ctx context.Context) (int, error) {
	return s.store.CountInstances(ctx, catalog.InstanceFilter{})
}

// UploadImage stores an image for the product and points the product at it.
// A previously stored image is removed.
func (s *ProductService) UploadImage(ctx context.Context, productID uuid.UUID, req UploadImageRequest) (image *ImageResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product", "upload_image",
		attribute.String(telemetry.SpanAttrProductID, productID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	if s.storage == nil {
		return nil, shared.NewDomainError("STORAGE_DISABLED", "Image storage is not configured")
	}
	if len(req.Data) == 0 {
		return nil, shared.NewDomainError("INVALID_IMAGE", "Image file is empty")
	}
	if s.config.MaxImageBytes > 0 && int64(len(req.Data)) > s.config.MaxImageBytes {
		return nil, shared.NewDomainError("INVALID_IMAGE", fmt.Sprintf("Image cannot exceed %d bytes", s.config.MaxImageBytes))
	}
	if !strings.HasPrefix(req.ContentType, "image/") {
		return nil, shared.NewDomainError("INVALID_IMAGE", "File must be an image")
	}

	product, err := s.store.FindProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	key := fmt.Sprintf("%s%s/%d%s", imageKeyPrefix, productID, now.UnixMilli(), strings.ToLower(path.Ext(req.FileName)))
	if err := s.storage.Upload(ctx, key, req.Data, req.ContentType); err != nil {
		s.logger.Error("Failed to upload product image", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to upload product image: %w", err)
	}

	previous := product.Image
	product.SetImage(key, now)
	if err := s.store.UpdateProduct(ctx, product); err != nil {
		s.removeStoredImage(ctx, key)
		return nil, err
	}
	s.removeStoredImage(ctx, previous)

	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, s.config.PresignExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign product image: %w", err)
	}

	s.logger.Info("Product image uploaded",
		zap.String("product_id", productID.String()),
		zap.String("key", key),
		zap.Int("bytes", len(req.Data)))

	return &ImageResponse{
		ProductID: productID,
		ImageKey:  key,
		URL:       url,
		ExpiresAt: expiresAt,
	}, nil
}

// addInstances draws codes and commits the batch, redrawing the whole batch
// when the store reports a collision with existing units
func (s *ProductService) addInstances(ctx context.Context, productID uuid.UUID, quantity int, now time.Time) ([]*catalog.ProductInstance, error) {
	var lastErr error
	for attempt := 0; attempt <= s.config.IdentifierRetries; attempt++ {
		instances, err := s.drawInstances(productID, quantity, now)
		if err != nil {
			return nil, err
		}

		err = s.store.AddInstances(ctx, instances)
		if err == nil {
			return instances, nil
		}
		if !shared.IsConflict(err) {
			return nil, err
		}

		lastErr = err
		s.logger.Warn("Identifier collision, regenerating batch",
			zap.String("product_id", productID.String()),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return nil, lastErr
}

// drawInstances builds quantity units whose codes are distinct within the batch
func (s *ProductService) drawInstances(productID uuid.UUID, quantity int, now time.Time) ([]*catalog.ProductInstance, error) {
	seen := make(map[string]struct{}, quantity*3)
	taken := func(c identifier.Codes) bool {
		for _, code := range []string{c.QRCode, c.Barcode, c.SerialNumber} {
			if _, ok := seen[code]; ok {
				return true
			}
		}
		return false
	}

	instances := make([]*catalog.ProductInstance, 0, quantity)
	for range quantity {
		var codes identifier.Codes
		for attempt := 0; ; attempt++ {
			if attempt == maxCodeAttempts {
				return nil, shared.NewDomainError(shared.CodeConflict, "Could not generate unique identifiers")
			}
			codes = s.generator.Generate(productID.String())
			if !taken(codes) {
				break
			}
		}
		seen[codes.QRCode] = struct{}{}
		seen[codes.Barcode] = struct{}{}
		seen[codes.SerialNumber] = struct{}{}

		instance, err := catalog.NewProductInstance(productID, codes, now)
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

func (s *ProductService) validateQuantity(quantity int, allowZero bool) error {
	if quantity < 0 || (quantity == 0 && !allowZero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be a positive number")
	}
	if s.config.MaxBatchSize > 0 && quantity > s.config.MaxBatchSize {
		return shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Quantity cannot exceed %d", s.config.MaxBatchSize))
	}
	return nil
}

func (s *ProductService) instanceResponse(instance *catalog.ProductInstance, err error) (*InstanceResponse, error) {
	if err != nil {
		return nil, err
	}
	response := ToInstanceResponse(instance)
	return &response, nil
}

func (s *ProductService) removeStoredImage(ctx context.Context, key string) {
	if s.storage == nil || !strings.HasPrefix(key, imageKeyPrefix) {
		return
	}
	if err := s.storage.DeleteObject(ctx, key); err != nil {
		s.logger.Warn("Failed to delete product image", zap.String("key", key), zap.Error(err))
	}
}

func (s *ProductService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish catalog events", zap.Error(err))
	}
}
