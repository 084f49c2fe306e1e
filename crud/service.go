package crud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"gorm.io/gorm"

	"portfolio/common"
	"portfolio/validation"
)

// Form is the validation schema of entity E. Load fills the form from an
// existing row and Apply copies the (validated) form back onto a row.
type Form[E any] interface {
	Load(*E)
	Apply(*E)
}

// normalizer is implemented by forms that clean up input before validation.
type normalizer interface {
	Normalize()
}

type Options[E any] struct {
	// Name is used in error messages, e.g. "project not found".
	Name string

	// FilterParam is the query parameter of the single-field list filter and
	// FilterColumn the column it matches.
	FilterParam  string
	FilterColumn string

	// Order of List, insertion order by default.
	Order string

	// BeforeDelete runs inside the delete transaction, before the row goes.
	BeforeDelete func(tx *gorm.DB, entity *E) error

	// OnChange is called after every successful create, update or delete.
	OnChange func()

	// Files returns the uploaded file references a row holds. References an
	// update drops, and all of them on delete, go to ReleaseFiles once the
	// change is committed.
	Files        func(entity *E) []string
	ReleaseFiles func(ctx context.Context, refs []string)
}

// Service implements create/update/delete/list/get for one entity type.
type Service[E any, F any, PF interface {
	*F
	Form[E]
}] struct {
	db        *gorm.DB
	validator *validation.Validator
	opts      Options[E]
}

func NewService[E any, F any, PF interface {
	*F
	Form[E]
}](db *gorm.DB, v *validation.Validator, opts Options[E]) *Service[E, F, PF] {
	if opts.Name == "" {
		opts.Name = "record"
	}
	if opts.Order == "" {
		opts.Order = "id ASC"
	}
	return &Service[E, F, PF]{db: db, validator: v, opts: opts}
}

func (s *Service[E, F, PF]) Name() string {
	return s.opts.Name
}

func (s *Service[E, F, PF]) FilterParam() string {
	return s.opts.FilterParam
}

// Validate normalizes form and checks it against its binding rules.
func (s *Service[E, F, PF]) Validate(form PF) error {
	if n, ok := any(form).(normalizer); ok {
		n.Normalize()
	}
	return s.validator.Struct(form)
}

// Decode reads a JSON object into form. An empty body is an empty object.
func (s *Service[E, F, PF]) Decode(body []byte, form PF) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, form); err != nil {
		return validation.DecodeError(err)
	}
	return nil
}

// Create decodes body, validates it and inserts a new row.
func (s *Service[E, F, PF]) Create(ctx context.Context, body []byte) (*E, error) {
	form := PF(new(F))
	if err := s.Decode(body, form); err != nil {
		return nil, err
	}
	return s.CreateForm(ctx, form)
}

// CreateForm validates an already decoded form and inserts a new row.
func (s *Service[E, F, PF]) CreateForm(ctx context.Context, form PF) (*E, error) {
	if err := s.Validate(form); err != nil {
		return nil, err
	}

	entity := new(E)
	form.Apply(entity)

	if err := s.db.WithContext(ctx).Create(entity).Error; err != nil {
		return nil, s.persistError("create", err)
	}

	s.changed()
	return entity, nil
}

// Update overlays the fields present in body on the stored row, validates
// the merged result and saves it. Absent fields keep their stored values.
func (s *Service[E, F, PF]) Update(ctx context.Context, id uint, body []byte) (*E, error) {
	entity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	before := s.files(entity)

	form := PF(new(F))
	form.Load(entity)
	if err := s.Decode(body, form); err != nil {
		return nil, err
	}
	if err := s.Validate(form); err != nil {
		return nil, err
	}
	form.Apply(entity)

	if err := s.db.WithContext(ctx).Save(entity).Error; err != nil {
		return nil, s.persistError("update", err)
	}

	s.release(ctx, dropped(before, s.files(entity)))
	s.changed()
	return entity, nil
}

// Delete removes the row with id, running BeforeDelete in the same
// transaction.
func (s *Service[E, F, PF]) Delete(ctx context.Context, id uint) error {
	entity := new(E)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(entity, id).Error; err != nil {
			if common.IsNotFound(err) {
				return common.NotFound(s.opts.Name)
			}
			return err
		}

		if s.opts.BeforeDelete != nil {
			if err := s.opts.BeforeDelete(tx, entity); err != nil {
				return err
			}
		}

		return tx.Delete(entity).Error
	})
	if err != nil {
		return err
	}

	s.release(ctx, s.files(entity))
	s.changed()
	return nil
}

// Get returns the row with id or a not-found error.
func (s *Service[E, F, PF]) Get(ctx context.Context, id uint) (*E, error) {
	entity := new(E)
	if err := s.db.WithContext(ctx).First(entity, id).Error; err != nil {
		if common.IsNotFound(err) {
			return nil, common.NotFound(s.opts.Name)
		}
		return nil, fmt.Errorf("loading %s %d: %w", s.opts.Name, id, err)
	}
	return entity, nil
}

// List returns all rows, optionally restricted to FilterColumn = filter.
// Scopes narrow the query further, e.g. to published rows.
func (s *Service[E, F, PF]) List(ctx context.Context, filter string, scopes ...func(*gorm.DB) *gorm.DB) ([]E, error) {
	query := s.db.WithContext(ctx).Scopes(scopes...).Order(s.opts.Order)
	if filter != "" && s.opts.FilterColumn != "" {
		query = query.Where(s.opts.FilterColumn+" = ?", filter)
	}

	var items []E
	if err := query.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.opts.Name, err)
	}
	if items == nil {
		items = []E{}
	}
	return items, nil
}

func (s *Service[E, F, PF]) persistError(op string, err error) error {
	switch {
	case common.IsDuplicate(err):
		return common.Conflict(s.opts.Name+" already exists", err)
	case common.IsForeignKeyViolation(err):
		return common.BadRequest("referenced record does not exist")
	}
	return fmt.Errorf("%s %s: %w", op, s.opts.Name, err)
}

func (s *Service[E, F, PF]) files(entity *E) []string {
	if s.opts.Files == nil {
		return nil
	}
	return s.opts.Files(entity)
}

func (s *Service[E, F, PF]) release(ctx context.Context, refs []string) {
	if len(refs) > 0 && s.opts.ReleaseFiles != nil {
		s.opts.ReleaseFiles(ctx, refs)
	}
}

// dropped returns the non-empty references of before that are not in after.
func dropped(before, after []string) []string {
	var out []string
	for _, ref := range before {
		if ref != "" && !slices.Contains(after, ref) {
			out = append(out, ref)
		}
	}
	return out
}

func (s *Service[E, F, PF]) changed() {
	if s.opts.OnChange != nil {
		s.opts.OnChange()
	}
}
