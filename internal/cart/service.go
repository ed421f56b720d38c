package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/medibook/medibook-backend/pkg/db/models"
	pkgerrors "github.com/medibook/medibook-backend/pkg/errors"
	"github.com/medibook/medibook-backend/pkg/logger"
	"github.com/medibook/medibook-backend/pkg/metrics"
)

// Operation labels used for metrics and logs.
const (
	OpGet            = "get"
	OpAddItem        = "add_item"
	OpRemoveItem     = "remove_item"
	OpUpdateQuantity = "update_quantity"
	OpSetSelected    = "set_selected"
	OpSetAllSelected = "set_all_selected"
	OpClear          = "clear"
	OpTotals         = "totals"
	OpCheckout       = "checkout"
)

// Submitter hands a checkout payload to the payment collaborator.
type Submitter interface {
	Submit(ctx context.Context, ownerID string, payload CheckoutPayload) (*models.CheckoutSubmission, error)
}

// Service exposes the cart operations for one owner at a time.
type Service interface {
	Get(ctx context.Context, ownerID string) (*View, error)
	AddItem(ctx context.Context, ownerID string, input LineInput) (*View, error)
	RemoveItem(ctx context.Context, ownerID string, key Key) (*View, error)
	UpdateQuantity(ctx context.Context, ownerID string, key Key, quantity int) (*View, error)
	SetSelected(ctx context.Context, ownerID string, key Key, selected bool) (*View, error)
	SetAllSelected(ctx context.Context, ownerID string, selected bool) (*View, error)
	Clear(ctx context.Context, ownerID string) (*View, error)
	Totals(ctx context.Context, ownerID string) (Totals, error)
	Checkout(ctx context.Context, ownerID string) (*models.CheckoutSubmission, error)
}

// View is the cart state returned after every operation.
type View struct {
	OwnerID     string
	Lines       []Line
	Totals      Totals
	AllSelected bool
}

func newView(ownerID string, c *Cart) *View {
	return &View{
		OwnerID:     ownerID,
		Lines:       c.Lines(),
		Totals:      c.Totals(),
		AllSelected: c.AllSelected(),
	}
}

// LineInput is a candidate line supplied by the portal.
type LineInput struct {
	ProductID   string
	VariantUnit string
	Name        string
	Image       string
	UnitPrice   int64
	SalePrice   *int64
	Quantity    int
}

func (in LineInput) validate() error {
	details := map[string]string{}
	if strings.TrimSpace(in.ProductID) == "" {
		details["product_id"] = "required"
	} else if strings.Contains(in.ProductID, KeySeparator) {
		details["product_id"] = "must not contain " + KeySeparator
	}
	if strings.TrimSpace(in.VariantUnit) == "" {
		details["variant_unit"] = "required"
	} else if strings.Contains(in.VariantUnit, KeySeparator) {
		details["variant_unit"] = "must not contain " + KeySeparator
	}
	if strings.TrimSpace(in.Name) == "" {
		details["name"] = "required"
	}
	switch {
	case in.UnitPrice < 0:
		details["unit_price"] = "must be >= 0"
	case in.UnitPrice > MaxUnitPrice:
		details["unit_price"] = fmt.Sprintf("must be <= %d", MaxUnitPrice)
	}
	if in.SalePrice != nil {
		switch {
		case *in.SalePrice < 0:
			details["sale_price"] = "must be >= 0"
		case *in.SalePrice > MaxUnitPrice:
			details["sale_price"] = fmt.Sprintf("must be <= %d", MaxUnitPrice)
		}
	}
	switch {
	case in.Quantity < 1:
		details["quantity"] = "must be >= 1"
	case in.Quantity > MaxQuantity:
		details["quantity"] = fmt.Sprintf("must be <= %d", MaxQuantity)
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart item").WithDetails(details)
	}
	return nil
}

func (in LineInput) line() Line {
	key := NewKey(in.ProductID, in.VariantUnit)
	line := Line{
		ProductID:   key.ProductID,
		VariantUnit: key.VariantUnit,
		Name:        strings.TrimSpace(in.Name),
		Image:       strings.TrimSpace(in.Image),
		UnitPrice:   in.UnitPrice,
		Quantity:    in.Quantity,
	}
	if in.SalePrice != nil {
		line.SalePrice = Price(*in.SalePrice)
	}
	return line
}

func quantityTooLarge(quantity int) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds line maximum").
		WithDetails(map[string]any{"quantity": quantity, "max_quantity": MaxQuantity})
}

type service struct {
	repo        Repository
	submissions Submitter
	metrics     *metrics.CartMetrics
	logg        *logger.Logger
	maxLines    int
	locks       *ownerLocks
}

// NewService wires the cart service. maxLines caps distinct lines per cart.
func NewService(repo Repository, submissions Submitter, cartMetrics *metrics.CartMetrics, logg *logger.Logger, maxLines int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if submissions == nil {
		return nil, fmt.Errorf("checkout submitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if maxLines <= 0 {
		return nil, fmt.Errorf("max lines must be positive")
	}
	return &service{
		repo:        repo,
		submissions: submissions,
		metrics:     cartMetrics,
		logg:        logg,
		maxLines:    maxLines,
		locks:       newOwnerLocks(),
	}, nil
}

func (s *service) Get(ctx context.Context, ownerID string) (*View, error) {
	var view *View
	err := s.read(ctx, OpGet, ownerID, func(owner string, c *Cart) {
		view = newView(owner, c)
	})
	return view, err
}

func (s *service) Totals(ctx context.Context, ownerID string) (Totals, error) {
	var totals Totals
	err := s.read(ctx, OpTotals, ownerID, func(_ string, c *Cart) {
		totals = c.Totals()
	})
	return totals, err
}

func (s *service) AddItem(ctx context.Context, ownerID string, input LineInput) (*View, error) {
	if err := input.validate(); err != nil {
		s.metrics.IncOperation(OpAddItem, metrics.ResultError)
		return nil, err
	}
	line := input.line()
	return s.mutate(ctx, OpAddItem, ownerID, func(c *Cart) (bool, error) {
		existing, ok := c.Line(line.Key())
		if !ok && c.Len() >= s.maxLines {
			return false, pkgerrors.New(pkgerrors.CodeConflict, "cart is full").
				WithDetails(map[string]any{"max_lines": s.maxLines})
		}
		if ok && existing.Quantity+line.Quantity > MaxQuantity {
			return false, quantityTooLarge(existing.Quantity + line.Quantity)
		}
		c.AddToCart(line)
		return true, nil
	})
}

func (s *service) RemoveItem(ctx context.Context, ownerID string, key Key) (*View, error) {
	key = NewKey(key.ProductID, key.VariantUnit)
	return s.mutate(ctx, OpRemoveItem, ownerID, func(c *Cart) (bool, error) {
		return c.RemoveFromCart(key), nil
	})
}

func (s *service) UpdateQuantity(ctx context.Context, ownerID string, key Key, quantity int) (*View, error) {
	key = NewKey(key.ProductID, key.VariantUnit)
	if quantity > MaxQuantity {
		s.metrics.IncOperation(OpUpdateQuantity, metrics.ResultError)
		return nil, quantityTooLarge(quantity)
	}
	return s.mutate(ctx, OpUpdateQuantity, ownerID, func(c *Cart) (bool, error) {
		return c.UpdateQuantity(key, quantity), nil
	})
}

func (s *service) SetSelected(ctx context.Context, ownerID string, key Key, selected bool) (*View, error) {
	key = NewKey(key.ProductID, key.VariantUnit)
	return s.mutate(ctx, OpSetSelected, ownerID, func(c *Cart) (bool, error) {
		line, ok := c.Line(key)
		if !ok || line.Selected == selected {
			return false, nil
		}
		return c.SetSelected(key, selected), nil
	})
}

func (s *service) SetAllSelected(ctx context.Context, ownerID string, selected bool) (*View, error) {
	return s.mutate(ctx, OpSetAllSelected, ownerID, func(c *Cart) (bool, error) {
		changed := false
		for _, line := range c.Lines() {
			if line.Selected != selected {
				changed = true
				break
			}
		}
		c.SetAllSelected(selected)
		return changed, nil
	})
}

func (s *service) Clear(ctx context.Context, ownerID string) (*View, error) {
	return s.mutate(ctx, OpClear, ownerID, func(c *Cart) (bool, error) {
		if c.Len() == 0 {
			return false, nil
		}
		c.Clear()
		return true, nil
	})
}

// Checkout submits the selected lines. The cart itself is left as is.
func (s *service) Checkout(ctx context.Context, ownerID string) (*models.CheckoutSubmission, error) {
	owner, err := normalizeOwner(ownerID)
	if err != nil {
		s.metrics.IncOperation(OpCheckout, metrics.ResultError)
		return nil, err
	}
	ctx = s.logg.WithCartOwner(ctx, owner)

	unlock := s.locks.Lock(owner)
	defer unlock()

	c, err := s.repo.Load(ctx, owner)
	if err != nil {
		return nil, s.dependencyFailure(ctx, OpCheckout, err, "load cart")
	}

	payload := c.CheckoutPayload()
	if len(payload.Items) == 0 {
		s.metrics.IncOperation(OpCheckout, metrics.ResultError)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no items selected")
	}

	submission, err := s.submissions.Submit(ctx, owner, payload)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncOperation(OpCheckout, metrics.ResultError)
			s.logg.Error(ctx, "cart.checkout.failed", err)
			return nil, typed
		}
		return nil, s.dependencyFailure(ctx, OpCheckout, err, "submit checkout")
	}

	s.metrics.IncOperation(OpCheckout, metrics.ResultOK)
	s.metrics.ObserveCheckout(payload.Total, len(payload.Items))
	ctx = s.logg.WithFields(ctx, map[string]any{
		"submission_id": submission.ID.String(),
		"total_vnd":     payload.Total,
		"items":         len(payload.Items),
	})
	s.logg.Info(ctx, "cart.checkout.submitted")
	return submission, nil
}

func (s *service) read(ctx context.Context, op, ownerID string, fn func(owner string, c *Cart)) error {
	owner, err := normalizeOwner(ownerID)
	if err != nil {
		s.metrics.IncOperation(op, metrics.ResultError)
		return err
	}
	ctx = s.logg.WithCartOwner(ctx, owner)

	unlock := s.locks.Lock(owner)
	defer unlock()

	c, err := s.repo.Load(ctx, owner)
	if err != nil {
		return s.dependencyFailure(ctx, op, err, "load cart")
	}
	fn(owner, c)
	s.metrics.IncOperation(op, metrics.ResultOK)
	return nil
}

// mutate runs load, fn and save under the owner lock. fn reports whether it
// changed the cart; unchanged carts are not written back.
func (s *service) mutate(ctx context.Context, op, ownerID string, fn func(c *Cart) (bool, error)) (*View, error) {
	owner, err := normalizeOwner(ownerID)
	if err != nil {
		s.metrics.IncOperation(op, metrics.ResultError)
		return nil, err
	}
	ctx = s.logg.WithCartOwner(ctx, owner)

	unlock := s.locks.Lock(owner)
	defer unlock()

	c, err := s.repo.Load(ctx, owner)
	if err != nil {
		return nil, s.dependencyFailure(ctx, op, err, "load cart")
	}

	changed, err := fn(c)
	if err != nil {
		s.metrics.IncOperation(op, metrics.ResultError)
		s.logg.Warn(s.logg.WithField(ctx, "op", op), err.Error())
		return nil, err
	}
	if !changed {
		s.metrics.IncOperation(op, metrics.ResultNoop)
		return newView(owner, c), nil
	}

	if err := s.repo.Save(ctx, owner, c); err != nil {
		return nil, s.dependencyFailure(ctx, op, err, "save cart")
	}
	s.metrics.IncOperation(op, metrics.ResultOK)
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{"op": op, "lines": c.Len()}), "cart.updated")
	return newView(owner, c), nil
}

func (s *service) dependencyFailure(ctx context.Context, op string, err error, message string) error {
	s.metrics.IncOperation(op, metrics.ResultError)
	s.logg.Error(s.logg.WithField(ctx, "op", op), "cart."+strings.ReplaceAll(message, " ", "_")+".failed", err)
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func normalizeOwner(ownerID string) (string, error) {
	owner := strings.TrimSpace(ownerID)
	if owner == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	return owner, nil
}
