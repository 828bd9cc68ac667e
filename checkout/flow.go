package checkout

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/feirahub/storefront-go/address"
	"github.com/feirahub/storefront-go/apierror"
	"github.com/feirahub/storefront-go/cart"
)

// State is the flow position. Failures do not get their own state: a failed
// transition returns the flow to StateReady and surfaces the error to the
// caller.
type State int

const (
	StateLoading State = iota
	StateReady
	StateSubmitting
	StateHandedOff
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSubmitting:
		return "submitting"
	case StateHandedOff:
		return "handed-off"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Flow drives a single checkout: initiate, pick delivery path, keep totals
// current as the selection changes, then commit and hand off to payment.
type Flow struct {
	svc   *Service
	addrs *address.Service
	log   *logrus.Logger

	mu        sync.Mutex
	state     State
	summary   *Summary
	choice    DeliveryChoice
	selected  *address.Address
	addresses []address.Address
	coupon    string
}

// NewFlow creates a flow over the checkout and address services.
func NewFlow(svc *Service, addrs *address.Service, log *logrus.Logger) *Flow {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Flow{svc: svc, addrs: addrs, log: log, state: StateLoading, choice: Delivery("")}
}

// State returns the current flow state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Summary returns the latest order draft.
func (f *Flow) Summary() *Summary {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summary
}

// SelectedAddress returns the chosen address; always nil for pickup.
func (f *Flow) SelectedAddress() *address.Address {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selected
}

// Start initiates checkout from the cart and computes the first totals.
// An empty cart aborts before any network call.
func (f *Flow) Start(ctx context.Context, c *cart.Cart) error {
	if c == nil || len(c.Items) == 0 {
		return apierror.ErrEmptyCart
	}

	f.mu.Lock()
	f.state = StateLoading
	f.mu.Unlock()

	summary, err := f.svc.Initiate(ctx, c)
	if err != nil {
		return err
	}

	addresses, err := f.addrs.List(ctx)
	if err != nil {
		return err
	}
	selected := address.ChooseSelected(addresses, false)

	f.mu.Lock()
	f.summary = summary
	f.addresses = addresses
	f.selected = selected
	if selected != nil {
		f.choice = Delivery(selected.ID)
	}
	f.mu.Unlock()

	if selected != nil {
		if err := f.recalculate(ctx); err != nil {
			return err
		}
	}

	f.mu.Lock()
	f.state = StateReady
	f.mu.Unlock()
	f.log.WithField("order_id", summary.OrderID).Info("checkout ready")
	return nil
}

// StartPickup initiates checkout with pickup preselected. Address loading
// is skipped entirely; UseDelivery fetches the list on demand later.
func (f *Flow) StartPickup(ctx context.Context, c *cart.Cart) error {
	if c == nil || len(c.Items) == 0 {
		return apierror.ErrEmptyCart
	}

	f.mu.Lock()
	f.state = StateLoading
	f.choice = Pickup()
	f.selected = nil
	f.mu.Unlock()

	summary, err := f.svc.Initiate(ctx, c)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.summary = summary
	f.mu.Unlock()

	if err := f.recalculate(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	f.state = StateReady
	f.mu.Unlock()
	f.log.WithField("order_id", summary.OrderID).Info("checkout ready")
	return nil
}

// SelectAddress switches the delivery target and recomputes totals. Only
// valid for the delivery method.
func (f *Flow) SelectAddress(ctx context.Context, addressID string) error {
	f.mu.Lock()
	if f.state != StateReady {
		state := f.state
		f.mu.Unlock()
		return fmt.Errorf("checkout: cannot select address in state %s", state)
	}
	if f.choice.Method() == MethodPickup {
		f.mu.Unlock()
		return fmt.Errorf("checkout: cannot select address for a pickup order")
	}
	var found *address.Address
	for i := range f.addresses {
		if f.addresses[i].ID == addressID {
			found = &f.addresses[i]
			break
		}
	}
	if found == nil {
		f.mu.Unlock()
		return fmt.Errorf("checkout: address %s not loaded", addressID)
	}
	f.selected = found
	f.choice = Delivery(found.ID)
	f.mu.Unlock()

	return f.recalculate(ctx)
}

// UsePickup switches to pickup: the selected address is cleared and totals
// are recomputed without one.
func (f *Flow) UsePickup(ctx context.Context) error {
	f.mu.Lock()
	if f.state != StateReady {
		state := f.state
		f.mu.Unlock()
		return fmt.Errorf("checkout: cannot change method in state %s", state)
	}
	f.choice = Pickup()
	f.selected = nil
	f.mu.Unlock()

	return f.recalculate(ctx)
}

// UseDelivery switches back to delivery. Addresses are re-fetched when none
// are cached (a pickup start never loads them); the default-selection
// policy picks the target.
func (f *Flow) UseDelivery(ctx context.Context) error {
	f.mu.Lock()
	if f.state != StateReady {
		state := f.state
		f.mu.Unlock()
		return fmt.Errorf("checkout: cannot change method in state %s", state)
	}
	cached := f.addresses
	f.mu.Unlock()

	if len(cached) == 0 {
		fetched, err := f.addrs.List(ctx)
		if err != nil {
			return err
		}
		cached = fetched
	}

	selected := address.ChooseSelected(cached, false)
	if selected == nil {
		return fmt.Errorf("checkout: no address available for delivery")
	}

	f.mu.Lock()
	f.addresses = cached
	f.selected = selected
	f.choice = Delivery(selected.ID)
	f.mu.Unlock()

	return f.recalculate(ctx)
}

// RefreshAddresses reloads the address book, e.g. after the add-address
// flow, and selects the newest entry.
func (f *Flow) RefreshAddresses(ctx context.Context) error {
	fetched, err := f.addrs.List(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.addresses = fetched
	pickup := f.choice.Method() == MethodPickup
	if !pickup {
		f.selected = address.ChooseSelected(fetched, true)
		if f.selected != nil {
			f.choice = Delivery(f.selected.ID)
		}
	}
	f.mu.Unlock()

	if pickup || len(fetched) == 0 {
		return nil
	}
	return f.recalculate(ctx)
}

// ApplyCoupon sets a coupon code and recomputes totals.
func (f *Flow) ApplyCoupon(ctx context.Context, code string) error {
	f.mu.Lock()
	f.coupon = code
	f.mu.Unlock()
	return f.recalculate(ctx)
}

// ConfirmAndHandOff commits the delivery path. Only after this succeeds may
// the caller proceed to payment. A failure returns the flow to ready.
func (f *Flow) ConfirmAndHandOff(ctx context.Context) error {
	f.mu.Lock()
	if f.state != StateReady {
		state := f.state
		f.mu.Unlock()
		return fmt.Errorf("checkout: cannot hand off in state %s", state)
	}
	f.state = StateSubmitting
	orderID := f.summary.OrderID
	choice := f.choice
	f.mu.Unlock()

	if err := f.svc.UpdateAddressAndDelivery(ctx, orderID, choice); err != nil {
		f.mu.Lock()
		f.state = StateReady
		f.mu.Unlock()
		return err
	}

	f.mu.Lock()
	f.state = StateHandedOff
	f.mu.Unlock()
	f.log.WithField("order_id", orderID).Info("checkout handed off to payment")
	return nil
}

// recalculate recomputes the totals for the current choice. Delivery with
// no selected address is never sent to the backend.
func (f *Flow) recalculate(ctx context.Context) error {
	f.mu.Lock()
	if f.summary == nil {
		f.mu.Unlock()
		return fmt.Errorf("checkout: flow not started")
	}
	if f.choice.Method() == MethodDelivery && f.selected == nil {
		f.mu.Unlock()
		return fmt.Errorf("checkout: no address selected for delivery")
	}
	orderID := f.summary.OrderID
	choice := f.choice
	coupon := f.coupon
	f.mu.Unlock()

	summary, err := f.svc.CalculateTotal(ctx, orderID, choice, coupon)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.summary = summary
	f.mu.Unlock()
	return nil
}
