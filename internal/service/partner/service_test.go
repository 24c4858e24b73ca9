package partner

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch-console/internal/apperr"
	"dispatch-console/internal/domain"
)

type mockRosterRepo struct {
	getFn           func(ctx context.Context, id string) (*domain.Partner, error)
	listFn          func(ctx context.Context, limit, offset *int) ([]domain.Partner, error)
	createFn        func(ctx context.Context, p *domain.Partner) error
	updatePartialFn func(ctx context.Context, u domain.PartialPartnerUpdate) (bool, error)
}

func (m *mockRosterRepo) Get(ctx context.Context, id string) (*domain.Partner, error) {
	return m.getFn(ctx, id)
}

func (m *mockRosterRepo) List(ctx context.Context, limit, offset *int) ([]domain.Partner, error) {
	return m.listFn(ctx, limit, offset)
}

func (m *mockRosterRepo) Create(ctx context.Context, p *domain.Partner) error {
	return m.createFn(ctx, p)
}

func (m *mockRosterRepo) UpdatePartial(ctx context.Context, u domain.PartialPartnerUpdate) (bool, error) {
	return m.updatePartialFn(ctx, u)
}

func TestNewService_ZeroTimeoutUsesDefault(t *testing.T) {
	t.Parallel()

	service := NewService(&mockRosterRepo{}, 0)
	if service.operationTimeout != 3*time.Second {
		t.Fatalf("default timeout 3s, got %v", service.operationTimeout)
	}
}

func TestService_Get_Success(t *testing.T) {
	t.Parallel()

	expected := &domain.Partner{
		ID:           "d3b7f0a2",
		Name:         "Ravi Kumar",
		Phone:        "+12065550187",
		Vehicle:      "bike",
		Availability: domain.AvailabilityAvailable,
	}

	repo := &mockRosterRepo{
		getFn: func(ctx context.Context, id string) (*domain.Partner, error) {
			if id != expected.ID {
				t.Fatalf("expected id %s, got %s", expected.ID, id)
			}
			return expected, nil
		},
	}

	service := NewService(repo, time.Second)

	got, err := service.Get(context.Background(), expected.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != expected {
		t.Fatalf("expected %#v, got %#v", expected, got)
	}
}

func TestService_Get_NotFound(t *testing.T) {
	t.Parallel()

	repo := &mockRosterRepo{
		getFn: func(ctx context.Context, id string) (*domain.Partner, error) {
			return nil, nil
		},
	}

	service := NewService(repo, time.Second)

	got, err := service.Get(context.Background(), "missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got err=%v", err)
	}
	if got != nil {
		t.Fatalf("expected nil partner, got %#v", got)
	}
}

func TestService_Get_RepoError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("boom")
	repo := &mockRosterRepo{
		getFn: func(ctx context.Context, id string) (*domain.Partner, error) {
			return nil, wantErr
		},
	}

	service := NewService(repo, time.Second)

	if _, err := service.Get(context.Background(), "p1"); !errors.Is(err, wantErr) {
		t.Fatalf("expected repo error, got %v", err)
	}
}

func TestService_List_PassesPagination(t *testing.T) {
	t.Parallel()

	limit, offset := 10, 20
	repo := &mockRosterRepo{
		listFn: func(ctx context.Context, l, o *int) ([]domain.Partner, error) {
			if l == nil || *l != limit {
				t.Fatalf("expected limit %d, got %v", limit, l)
			}
			if o == nil || *o != offset {
				t.Fatalf("expected offset %d, got %v", offset, o)
			}
			return []domain.Partner{{ID: "p1"}}, nil
		},
	}

	service := NewService(repo, time.Second)

	got, err := service.List(context.Background(), &limit, &offset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 partner, got %d", len(got))
	}
}

func TestService_Create_GeneratesID(t *testing.T) {
	t.Parallel()

	repo := &mockRosterRepo{
		createFn: func(ctx context.Context, p *domain.Partner) error {
			if p.ID == "" {
				t.Fatal("expected generated id before Create")
			}
			return nil
		},
	}

	service := NewService(repo, time.Second)
	service.newID = func() string { return "generated-id" }

	id, err := service.Create(context.Background(), &domain.Partner{
		Name:  "Ravi Kumar",
		Phone: "+12065550187",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "generated-id" {
		t.Fatalf("expected generated-id, got %s", id)
	}
}

func TestService_Create_DefaultsToOffline(t *testing.T) {
	t.Parallel()

	repo := &mockRosterRepo{
		createFn: func(ctx context.Context, p *domain.Partner) error {
			if p.Availability != domain.AvailabilityOffline {
				t.Fatalf("expected offline default, got %s", p.Availability)
			}
			return nil
		},
	}

	service := NewService(repo, time.Second)

	if _, err := service.Create(context.Background(), &domain.Partner{
		Name:  "Ravi Kumar",
		Phone: "+12065550187",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestService_Create_Validation(t *testing.T) {
	t.Parallel()

	orderID := "o1"
	cases := map[string]*domain.Partner{
		"nil partner":   nil,
		"blank name":    {Name: "  ", Phone: "+12065550187"},
		"bad phone":     {Name: "Ravi", Phone: "555-0187"},
		"busy on entry": {Name: "Ravi", Phone: "+12065550187", Availability: domain.AvailabilityBusy},
		"carries order": {Name: "Ravi", Phone: "+12065550187", CurrentOrderID: &orderID},
		"rating range":  {Name: "Ravi", Phone: "+12065550187", Rating: 5.5},
	}

	service := NewService(&mockRosterRepo{}, time.Second)

	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := service.Create(context.Background(), p); !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestService_UpdatePartial_Success(t *testing.T) {
	t.Parallel()

	name := "New Name"
	repo := &mockRosterRepo{
		updatePartialFn: func(ctx context.Context, u domain.PartialPartnerUpdate) (bool, error) {
			if u.Name == nil || *u.Name != name {
				t.Fatalf("expected name update, got %#v", u)
			}
			return true, nil
		},
	}

	service := NewService(repo, time.Second)

	ok, err := service.UpdatePartial(context.Background(), domain.PartialPartnerUpdate{ID: "p1", Name: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected true")
	}
}

func TestService_UpdatePartial_NotFound(t *testing.T) {
	t.Parallel()

	name := "New Name"
	repo := &mockRosterRepo{
		updatePartialFn: func(ctx context.Context, u domain.PartialPartnerUpdate) (bool, error) {
			return false, nil
		},
	}

	service := NewService(repo, time.Second)

	if _, err := service.UpdatePartial(context.Background(), domain.PartialPartnerUpdate{ID: "missing", Name: &name}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_UpdatePartial_Validation(t *testing.T) {
	t.Parallel()

	blank := " "
	badPhone := "not-a-phone"
	cases := map[string]domain.PartialPartnerUpdate{
		"no id":      {Name: &blank},
		"no fields":  {ID: "p1"},
		"blank name": {ID: "p1", Name: &blank},
		"bad phone":  {ID: "p1", Phone: &badPhone},
	}

	service := NewService(&mockRosterRepo{}, time.Second)

	for name, u := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := service.UpdatePartial(context.Background(), u); !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}
