package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/msomdec/inscripciones/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("inscripciones/service")

// Upload is a file part submitted with a registration.
type Upload struct {
	Name string
	Data []byte
}

// RegistrationService orchestrates submission, review and scoped reads of
// registrations.
type RegistrationService struct {
	regs     domain.RegistrationRepository
	audit    domain.SystemLogRepository
	catalog  *DisciplineCatalog
	files    *FileService
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
}

// NewRegistrationService creates a new RegistrationService.
func NewRegistrationService(
	regs domain.RegistrationRepository,
	audit domain.SystemLogRepository,
	catalog *DisciplineCatalog,
	files *FileService,
	log *slog.Logger,
) *RegistrationService {
	return &RegistrationService{
		regs:     regs,
		audit:    audit,
		catalog:  catalog,
		files:    files,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.With("component", "registrations"),
		now:      time.Now,
	}
}

// Submit is the full intake path: it checks the requester's scope and the
// content rules, stores the uploaded files and creates the registration.
// Stored files are removed again if the registration cannot be created.
func (s *RegistrationService) Submit(ctx context.Context, requester *domain.Requester, draft domain.RegistrationDraft, content, sworn *Upload) (*domain.Registration, error) {
	ctx, span := tracer.Start(ctx, "Registration.Service.Submit")
	defer span.End()

	if err := RequireRequester(requester); err != nil {
		return nil, err
	}
	draft.OwnerID = requester.UserID
	draft.ContentPath = ""

	if err := CanSubmit(requester, draft.DisciplineID); err != nil {
		return nil, err
	}
	if err := checkContent(&draft, content); err != nil {
		return nil, err
	}
	if err := s.check(ctx, &draft); err != nil {
		return nil, err
	}

	var stored []string
	cleanup := func() {
		for _, p := range stored {
			s.files.Delete(context.WithoutCancel(ctx), p)
		}
	}

	if content != nil {
		p, err := s.files.Store(ctx, content.Data, content.Name, domain.FileCategoryInscription)
		if err != nil {
			return nil, fmt.Errorf("store content file: %w", err)
		}
		stored = append(stored, p)
		draft.ContentPath = p
	}
	if sworn != nil && len(sworn.Data) > 0 {
		p, err := s.files.Store(ctx, sworn.Data, sworn.Name, domain.FileCategoryPDF)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("store sworn statement: %w", err)
		}
		stored = append(stored, p)
		draft.Details.SwornStatement = &p
	}

	reg, err := s.Create(ctx, draft)
	if err != nil {
		span.RecordError(err)
		cleanup()
		return nil, err
	}
	span.SetAttributes(attribute.Int64("registration.id", reg.ID))
	return reg, nil
}

// Create validates the draft and persists it with all of its members in one
// transaction. The outcome is recorded in the system log either way.
func (s *RegistrationService) Create(ctx context.Context, draft domain.RegistrationDraft) (*domain.Registration, error) {
	ctx, span := tracer.Start(ctx, "Registration.Service.Create")
	defer span.End()

	if err := s.check(ctx, &draft); err != nil {
		return nil, err
	}
	if draft.ContentKind == domain.ContentKindFile && draft.ContentPath == "" {
		return nil, fmt.Errorf("%w: a file submission requires a stored file", domain.ErrInvalidInput)
	}

	reg := &domain.Registration{
		Name:         strings.TrimSpace(draft.Name),
		DisciplineID: draft.DisciplineID,
		Email:        strings.TrimSpace(draft.Email),
		Phone:        strings.TrimSpace(draft.Phone),
		Description:  draft.Description,
		ContentKind:  draft.ContentKind,
		ContentPath:  draft.ContentPath,
		ContentURL:   strings.TrimSpace(draft.ContentURL),
		Status:       domain.StatusPending,
		Ensemble:     len(draft.Members.Cast) > 0,
		OwnerID:      draft.OwnerID,
		Details:      draft.Details,
		Members:      draft.Members,
	}

	disciplineName := s.catalog.Name(ctx, draft.DisciplineID)
	if err := s.regs.Create(ctx, reg); err != nil {
		span.RecordError(err)
		s.log.Error("create registration", "name", draft.Name, "discipline_id", draft.DisciplineID, "error", err)
		s.record(ctx, domain.LogLevelError, "Error al guardar inscripción artística", map[string]any{
			"error":      err.Error(),
			"nombre":     draft.Name,
			"disciplina": disciplineName,
		})
		return nil, fmt.Errorf("create registration: %w", err)
	}

	s.resolveName(ctx, reg)
	s.log.Info("registration created", "id", reg.ID, "discipline", reg.DisciplineName)
	s.record(ctx, domain.LogLevelInfo, "Inscripción artística guardada", map[string]any{
		"id":         reg.ID,
		"disciplina": reg.DisciplineName,
	})
	return reg, nil
}

// TransitionStatus moves a pending registration to target, which must be
// approved or rejected. Repeating the transition a record already went
// through returns it unchanged; moving between the two outcomes fails with
// domain.ErrInvalidTransition.
func (s *RegistrationService) TransitionStatus(ctx context.Context, requester *domain.Requester, id int64, target domain.Status) (*domain.Registration, error) {
	ctx, span := tracer.Start(ctx, "Registration.Service.TransitionStatus")
	defer span.End()
	span.SetAttributes(attribute.Int64("registration.id", id), attribute.String("registration.target", string(target)))

	if err := RequireAdmin(requester); err != nil {
		return nil, err
	}
	if !target.Terminal() {
		return nil, fmt.Errorf("%w: cannot transition to %q", domain.ErrInvalidInput, target)
	}
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid id", domain.ErrInvalidInput)
	}

	verb := transitionVerb(target)
	err := s.regs.UpdateStatus(ctx, id, domain.StatusPending, target, s.now().UTC())
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		return nil, domain.ErrNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		current, getErr := s.regs.GetByID(ctx, id)
		if getErr != nil {
			return nil, fmt.Errorf("get registration: %w", getErr)
		}
		if current.Status == target {
			s.resolveName(ctx, current)
			return current, nil
		}
		s.record(ctx, domain.LogLevelWarn, fmt.Sprintf("Transición rechazada para inscripción #%d", id), map[string]any{
			"id":      id,
			"estado":  current.Status,
			"destino": target,
		})
		return nil, fmt.Errorf("%w: registration %d is already %s", domain.ErrInvalidTransition, id, current.Status)
	default:
		span.RecordError(err)
		s.log.Error("transition registration", "id", id, "target", target, "error", err)
		s.record(ctx, domain.LogLevelError, fmt.Sprintf("Error al %s inscripción #%d", verb, id), map[string]any{
			"id":    id,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("update status: %w", err)
	}

	reg, err := s.regs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload registration: %w", err)
	}
	s.resolveName(ctx, reg)

	s.log.Info("registration status changed", "id", id, "status", reg.Status, "by", requester.UserID)
	s.record(ctx, domain.LogLevelInfo, fmt.Sprintf("Inscripción #%d %s", id, transitionOutcome(target)), map[string]any{
		"id":         id,
		"disciplina": reg.DisciplineName,
	})
	return reg, nil
}

func (s *RegistrationService) Approve(ctx context.Context, requester *domain.Requester, id int64) (*domain.Registration, error) {
	return s.TransitionStatus(ctx, requester, id, domain.StatusApproved)
}

func (s *RegistrationService) Reject(ctx context.Context, requester *domain.Requester, id int64) (*domain.Registration, error) {
	return s.TransitionStatus(ctx, requester, id, domain.StatusRejected)
}

// List returns the registrations visible to requester, newest first. A
// non-admin without a discipline sees nothing.
func (s *RegistrationService) List(ctx context.Context, requester *domain.Requester) ([]domain.Registration, error) {
	ctx, span := tracer.Start(ctx, "Registration.Service.List")
	defer span.End()

	if err := RequireRequester(requester); err != nil {
		return nil, err
	}
	filter, ok := ListFilter(requester)
	if !ok {
		return []domain.Registration{}, nil
	}

	regs, err := s.regs.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		s.log.Error("list registrations", "user_id", requester.UserID, "error", err)
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	for i := range regs {
		s.resolveName(ctx, &regs[i])
	}
	return regs, nil
}

// GetByID returns the registration with its members. Records outside the
// requester's discipline yield domain.ErrForbidden, not ErrNotFound.
func (s *RegistrationService) GetByID(ctx context.Context, requester *domain.Requester, id int64) (*domain.Registration, error) {
	ctx, span := tracer.Start(ctx, "Registration.Service.GetByID")
	defer span.End()

	if err := RequireRequester(requester); err != nil {
		return nil, err
	}

	reg, err := s.regs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		span.RecordError(err)
		s.log.Error("get registration", "id", id, "error", err)
		return nil, fmt.Errorf("get registration: %w", err)
	}
	if !CanView(requester, reg.DisciplineID) {
		return nil, fmt.Errorf("%w: registration %d belongs to another discipline", domain.ErrForbidden, id)
	}

	s.resolveName(ctx, reg)
	return reg, nil
}

// AuthorizeFile reports whether requester may read the stored file at path.
// Admins may read any file. Everyone else may only read files attached to a
// registration of their discipline; unreferenced files are ErrNotFound.
func (s *RegistrationService) AuthorizeFile(ctx context.Context, requester *domain.Requester, path string) error {
	ctx, span := tracer.Start(ctx, "Registration.Service.AuthorizeFile")
	defer span.End()

	if err := RequireRequester(requester); err != nil {
		return err
	}
	if requester.IsAdmin {
		return nil
	}

	reg, err := s.regs.GetByFilePath(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		span.RecordError(err)
		return fmt.Errorf("find file owner: %w", err)
	}
	if !CanView(requester, reg.DisciplineID) {
		return fmt.Errorf("%w: file belongs to registration %d", domain.ErrForbidden, reg.ID)
	}
	return nil
}

// check validates struct tags, member kinds and that the discipline exists.
func (s *RegistrationService) check(ctx context.Context, draft *domain.RegistrationDraft) error {
	if err := s.validate.StructCtx(ctx, draft); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, describe(verrs))
		}
		return fmt.Errorf("validate draft: %w", err)
	}
	if draft.ContentKind == domain.ContentKindFile && draft.ContentURL != "" {
		return fmt.Errorf("%w: a file submission cannot carry a link", domain.ErrInvalidInput)
	}
	if draft.ContentKind == domain.ContentKindLink && draft.ContentURL == "" {
		return fmt.Errorf("%w: a link submission requires a URL", domain.ErrInvalidInput)
	}

	ok, err := s.catalog.Exists(ctx, draft.DisciplineID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: unknown discipline %d", domain.ErrInvalidInput, draft.DisciplineID)
	}
	return nil
}

// checkContent enforces that exactly one of an upload or a link is present.
func checkContent(draft *domain.RegistrationDraft, content *Upload) error {
	hasFile := content != nil && len(content.Data) > 0
	switch draft.ContentKind {
	case domain.ContentKindFile:
		if !hasFile {
			return fmt.Errorf("%w: a file submission requires an uploaded file", domain.ErrInvalidInput)
		}
	case domain.ContentKindLink:
		if content != nil {
			return fmt.Errorf("%w: a link submission cannot carry a file", domain.ErrInvalidInput)
		}
	}
	return nil
}

func (s *RegistrationService) resolveName(ctx context.Context, reg *domain.Registration) {
	if reg.DisciplineName == "" {
		reg.DisciplineName = s.catalog.Name(ctx, reg.DisciplineID)
	}
}

// record writes a system log entry. It never fails the caller.
func (s *RegistrationService) record(ctx context.Context, level, message string, detail map[string]any) {
	raw, err := json.Marshal(detail)
	if err != nil {
		raw = []byte("{}")
	}
	entry := &domain.SystemLog{Level: level, Message: message, Detail: string(raw)}
	if err := s.audit.Insert(context.WithoutCancel(ctx), entry); err != nil {
		s.log.Warn("write system log", "message", message, "error", err)
	}
}

func transitionOutcome(target domain.Status) string {
	if target == domain.StatusApproved {
		return "aprobada"
	}
	return "rechazada"
}

func transitionVerb(target domain.Status) string {
	if target == domain.StatusApproved {
		return "aprobar"
	}
	return "rechazar"
}

func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "RegistrationDraft.")
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
