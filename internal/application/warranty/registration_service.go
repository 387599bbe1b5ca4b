package warranty

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/warrantyhub/backend/internal/domain/catalog"
	"github.com/warrantyhub/backend/internal/domain/shared"
	"github.com/warrantyhub/backend/internal/domain/warranty"
	"github.com/warrantyhub/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const certificateKeyPrefix = "certificates/"

// ErrAlreadyRegistered is returned when a scanned unit already carries a warranty
var ErrAlreadyRegistered = shared.NewDomainError(shared.CodeConflict, "This product has already been registered")

// CertificateRenderer turns certificate data into printable documents
type CertificateRenderer interface {
	RenderHTML(ctx context.Context, data *CertificateData) ([]byte, error)
	RenderPDF(ctx context.Context, data *CertificateData) ([]byte, error)
	PDFEnabled() bool
}

// CertificateArchive keeps a copy of issued PDF certificates
type CertificateArchive interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
}

// RegistrationService handles customer warranty registration and lookups
type RegistrationService struct {
	store    catalog.Store
	events   shared.EventPublisher
	renderer CertificateRenderer
	archive  CertificateArchive
	policy   warranty.Policy
	clock    shared.Clock
	logger   *zap.Logger
}

// NewRegistrationService creates a new RegistrationService.
// renderer, archive and events may be nil.
func NewRegistrationService(
	store catalog.Store,
	events shared.EventPublisher,
	renderer CertificateRenderer,
	archive CertificateArchive,
	policy warranty.Policy,
	clock shared.Clock,
	logger *zap.Logger,
) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		store:    store,
		events:   events,
		renderer: renderer,
		archive:  archive,
		policy:   policy,
		clock:    clock,
		logger:   logger,
	}
}

// Lookup resolves a scanned code to its unit, product and registration.
// The code is tried as a QR code first, then as a barcode.
func (s *RegistrationService) Lookup(ctx context.Context, code string) (*LookupResponse, error) {
	instance, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	product, err := s.store.FindProductByID(ctx, instance.ProductID)
	if err != nil {
		return nil, err
	}

	resp := &LookupResponse{
		Instance: toInstanceSummary(instance),
		Product:  toProductSummary(product),
	}
	if instance.IsRegistered {
		reg, err := s.store.FindRegistrationByInstanceID(ctx, instance.ID)
		if err != nil {
			return nil, err
		}
		now := s.clock.Now()
		reg.Refresh(s.policy, now)
		r := ToRegistrationResponse(reg, now)
		resp.Registration = &r
	}
	return resp, nil
}

// Register records a customer's warranty for the unit identified by req.Code.
// The registration and the unit's registered flag are committed together.
func (s *RegistrationService) Register(ctx context.Context, req RegisterWarrantyRequest) (registered *RegistrationResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "warranty", "register")
	defer func() { telemetry.EndSpan(span, err) }()

	instance, err := s.findByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String(telemetry.SpanAttrInstanceID, instance.ID.String()))
	if instance.IsRegistered {
		s.logger.Warn("Registration rejected, unit already registered",
			zap.String("instance_id", instance.ID.String()))
		return nil, ErrAlreadyRegistered
	}

	product, err := s.store.FindProductByID(ctx, instance.ProductID)
	if err != nil {
		return nil, err
	}

	purchase, err := warranty.ParseDate(req.PurchaseDate)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	reg, err := warranty.NewRegistration(instance.ID, warranty.Customer{
		Name:  req.CustomerName,
		Email: req.CustomerEmail,
		Phone: req.CustomerPhone,
	}, purchase, product.WarrantyPeriodMonths, s.policy, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.AddRegistration(ctx, reg); err != nil {
		if shared.IsConflict(err) {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}

	s.publish(ctx, reg.GetDomainEvents()...)
	reg.ClearDomainEvents()

	s.logger.Info("Warranty registered",
		zap.String("registration_id", reg.ID.String()),
		zap.String("instance_id", instance.ID.String()),
		zap.String("product_id", product.ID.String()),
		zap.String("warranty_end_date", warranty.FormatDate(reg.WarrantyEndDate)),
		zap.String("status", string(reg.Status)))

	resp := ToRegistrationResponse(reg, now)
	return &resp, nil
}

// List returns all registrations with their status evaluated now
func (s *RegistrationService) List(ctx context.Context) ([]RegistrationResponse, error) {
	regs, err := s.store.FindAllRegistrations(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	out := make([]RegistrationResponse, len(regs))
	for i := range regs {
		regs[i].Refresh(s.policy, now)
		out[i] = ToRegistrationResponse(&regs[i], now)
	}
	return out, nil
}

// GetByID returns one registration
func (s *RegistrationService) GetByID(ctx context.Context, id uuid.UUID) (*RegistrationResponse, error) {
	reg, err := s.store.FindRegistrationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.refreshed(reg), nil
}

// GetByInstanceID returns the registration of a unit
func (s *RegistrationService) GetByInstanceID(ctx context.Context, instanceID uuid.UUID) (*RegistrationResponse, error) {
	reg, err := s.store.FindRegistrationByInstanceID(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	return s.refreshed(reg), nil
}

// Certificate renders the warranty certificate of a registration.
// PDF certificates are archived when an archive is configured.
func (s *RegistrationService) Certificate(ctx context.Context, id uuid.UUID, format CertificateFormat) (cert *CertificateResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "warranty", "certificate",
		attribute.String(telemetry.SpanAttrRegistrationID, id.String()),
		attribute.String(telemetry.SpanAttrFormat, string(format)))
	defer func() { telemetry.EndSpan(span, err) }()

	if s.renderer == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Certificate rendering is not configured")
	}
	if format == "" {
		format = CertificateHTML
	}
	if format != CertificateHTML && format != CertificatePDF {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Unsupported certificate format %q", format))
	}
	if format == CertificatePDF && !s.renderer.PDFEnabled() {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "PDF rendering is not enabled")
	}

	data, err := s.certificateData(ctx, id)
	if err != nil {
		return nil, err
	}

	baseName := "warranty-" + id.String()
	if format == CertificateHTML {
		body, err := s.renderer.RenderHTML(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("failed to render certificate: %w", err)
		}
		return &CertificateResult{
			FileName:    baseName + ".html",
			ContentType: "text/html; charset=utf-8",
			Data:        body,
		}, nil
	}

	body, err := s.renderer.RenderPDF(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}
	result := &CertificateResult{
		FileName:    baseName + ".pdf",
		ContentType: "application/pdf",
		Data:        body,
	}
	if s.archive != nil {
		key := certificateKeyPrefix + id.String() + ".pdf"
		if err := s.archive.Upload(ctx, key, body, result.ContentType); err != nil {
			s.logger.Warn("Failed to archive certificate",
				zap.String("registration_id", id.String()),
				zap.Error(err))
		} else {
			result.ArchiveKey = key
		}
	}
	return result, nil
}

func (s *RegistrationService) certificateData(ctx context.Context, id uuid.UUID) (*CertificateData, error) {
	reg, err := s.store.FindRegistrationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	instance, err := s.store.FindInstanceByID(ctx, reg.ProductInstanceID)
	if err != nil {
		return nil, err
	}
	product, err := s.store.FindProductByID(ctx, instance.ProductID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	reg.Refresh(s.policy, now)
	return &CertificateData{
		RegistrationID:       reg.ID,
		CustomerName:         reg.Customer.Name,
		CustomerEmail:        reg.Customer.Email,
		CustomerPhone:        reg.Customer.Phone,
		ProductName:          product.Name,
		Brand:                product.Brand,
		Model:                product.Model,
		Category:             product.Category,
		WarrantyPeriodMonths: product.WarrantyPeriodMonths,
		QRCode:               instance.QRCode,
		Barcode:              instance.Barcode,
		SerialNumber:         instance.SerialNumber,
		PurchaseDate:         reg.PurchaseDate,
		WarrantyStartDate:    reg.WarrantyStartDate,
		WarrantyEndDate:      reg.WarrantyEndDate,
		Status:               reg.Status,
		DaysRemaining:        reg.DaysRemaining(now),
		IssuedAt:             now,
	}, nil
}

func (s *RegistrationService) findByCode(ctx context.Context, code string) (*catalog.ProductInstance, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Code is required")
	}
	instance, err := s.store.FindInstanceByQRCode(ctx, code)
	if err == nil {
		return instance, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}
	instance, err = s.store.FindInstanceByBarcode(ctx, code)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Product not found")
	}
	return instance, err
}

func (s *RegistrationService) refreshed(reg *warranty.Registration) *RegistrationResponse {
	now := s.clock.Now()
	reg.Refresh(s.policy, now)
	resp := ToRegistrationResponse(reg, now)
	return &resp
}

func (s *RegistrationService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
}
