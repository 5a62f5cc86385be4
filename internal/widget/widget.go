// Package widget implements the state of an international phone input: a
// country selector paired with a masked number field, exposing its value
// to a host form.
package widget

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AlexTLDR/intltel/internal/phone"
	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog"
)

var (
	ErrNoSuchCountry = errors.New("no such country")
	ErrRequired      = errors.New("phone number is required")
	ErrInvalidNumber = errors.New("invalid phone number")
	ErrDestroyed     = errors.New("widget destroyed")
)

// DefaultWriteDelay is how long a programmatic value write waits before
// selecting the number's country.
const DefaultWriteDelay = time.Millisecond

var allowedKey = regexp.MustCompile(`^[0-9+\- ]$`)

var nextID atomic.Int64

// ValueProvider is what a host form needs from an input control.
type ValueProvider interface {
	CurrentValue() any
	OnValueChanged(fn func(value any)) (unsubscribe func())
	Focus()
	Validate() error
}

var _ ValueProvider = (*Widget)(nil)

// Options mirror the inputs of the phone input.
type Options struct {
	PreferredCountries []string
	OnlyCountries      []string
	DefaultCountry     string
	EnablePlaceholder  bool
	EnableMask         bool
	Required           bool
	Disabled           bool

	// Form and FieldName bind the widget to a host form field.
	Form      Form
	FieldName string

	FocusMonitor FocusMonitor
	Scheduler    Scheduler
	WriteDelay   time.Duration
	Logger       *zerolog.Logger
}

// DefaultOptions enables placeholder and mask.
func DefaultOptions() Options {
	return Options{
		EnablePlaceholder: true,
		EnableMask:        true,
	}
}

// Widget is one phone input. It is safe for concurrent use; deferred jobs
// run on the scheduler's goroutine.
type Widget struct {
	id         string
	opts       Options
	normalizer *phone.Normalizer
	registry   *phone.Registry
	preferred  []phone.Country
	log        zerolog.Logger
	life       *lifetime

	mu        sync.Mutex
	state     phone.State
	result    *phone.Result
	focused   bool
	touched   bool
	destroyed bool

	valueListeners   listeners[any]
	countryListeners listeners[phone.Country]
	touchedListeners listeners[struct{}]

	stopFocus   func()
	destroyOnce sync.Once
}

// New creates a widget over the given countries. The initial country is
// DefaultCountry, else the first preferred country, else the first country.
func New(registry *phone.Registry, normalizer *phone.Normalizer, opts Options) (*Widget, error) {
	registry = registry.Filter(opts.OnlyCountries)
	if registry.Len() == 0 {
		return nil, fmt.Errorf("%w: no countries to choose from", ErrNoSuchCountry)
	}

	if opts.EnablePlaceholder {
		registry = withPlaceholders(registry, normalizer.Deriver())
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TimerScheduler{}
	}
	if opts.WriteDelay <= 0 {
		opts.WriteDelay = DefaultWriteDelay
	}

	w := &Widget{
		id:         fmt.Sprintf("intl-tel-input-%d", nextID.Add(1)-1),
		opts:       opts,
		normalizer: normalizer,
		registry:   registry,
		preferred:  registry.Pick(opts.PreferredCountries),
		log:        zerolog.Nop(),
		life:       newLifetime(opts.Scheduler),
	}
	if opts.Logger != nil {
		w.log = opts.Logger.With().Str("widget", w.id).Logger()
	}

	initial := registry.All()[0]
	if len(w.preferred) > 0 {
		initial = w.preferred[0]
	}
	if c, ok := registry.FindByISO2(opts.DefaultCountry); ok {
		initial = c
	}
	w.state = w.withFlags(normalizer.Select(phone.State{}, initial))

	if opts.FocusMonitor != nil {
		w.stopFocus = opts.FocusMonitor.Monitor(w.onFocusChange)
	}

	return w, nil
}

func withPlaceholders(r *phone.Registry, d *phone.Deriver) *phone.Registry {
	for _, c := range r.All() {
		if c.Placeholder == "" {
			return r.WithPlaceholders(d)
		}
	}
	return r
}

func (w *Widget) ID() string {
	return w.id
}

// Countries returns the selectable countries in dataset order.
func (w *Widget) Countries() []phone.Country {
	return w.registry.All()
}

// PreferredCountries returns the countries listed first in the dropdown.
func (w *Widget) PreferredCountries() []phone.Country {
	return append([]phone.Country(nil), w.preferred...)
}

// State returns a copy of the selection state.
func (w *Widget) State() phone.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// SelectedCountry returns the selected country.
func (w *Widget) SelectedCountry() phone.Country {
	return w.State().Country
}

// withFlags applies the placeholder and mask switches to a state.
func (w *Widget) withFlags(s phone.State) phone.State {
	if !w.opts.EnablePlaceholder {
		s.Placeholder = ""
	}
	if !w.opts.EnableMask {
		s.Mask = ""
	}
	return s
}

// Input handles a change of the number field.
func (w *Widget) Input(raw string) phone.Result {
	w.mu.Lock()
	if w.destroyed {
		res := w.currentResultLocked()
		w.mu.Unlock()
		return res
	}

	state, res := w.normalizer.OnPhoneNumberChange(w.state, raw)
	w.applyLocked(state, res)
	fns := w.valueListeners.snapshot()
	w.mu.Unlock()

	notify(fns, res.Value())
	return res
}

// applyLocked stores a normalisation outcome and mirrors it into the host
// form: the field is cleared, then set to prefix+raw after a successful
// parse of non-empty input.
func (w *Widget) applyLocked(state phone.State, res phone.Result) {
	w.state = w.withFlags(state)
	w.result = &res

	w.setFieldLocked(nil)
	if res.ParseSucceeded && state.Raw != "" {
		w.setFieldLocked(w.state.MaskPrefix + state.Raw)
	}
}

func (w *Widget) setFieldLocked(value any) {
	if w.opts.Form == nil || w.opts.FieldName == "" {
		return
	}
	w.opts.Form.Set(w.opts.FieldName, value)
}

// SelectCountry switches the selected country and resets the value.
// Unknown codes return ErrNoSuchCountry and leave the state untouched.
func (w *Widget) SelectCountry(iso2 string) (phone.Result, error) {
	c, ok := w.registry.FindByISO2(iso2)
	if !ok {
		return w.CurrentResult(), fmt.Errorf("%w: %q", ErrNoSuchCountry, iso2)
	}

	w.mu.Lock()
	if w.destroyed {
		res := w.currentResultLocked()
		w.mu.Unlock()
		return res, ErrDestroyed
	}

	state, res := w.normalizer.OnCountrySelect(w.state, c)
	w.applyLocked(state, res)
	countryFns := w.countryListeners.snapshot()
	valueFns := w.valueListeners.snapshot()
	w.mu.Unlock()

	notify(countryFns, c)
	notify(valueFns, res.Value())
	return res, nil
}

// WriteValue sets the value programmatically, e.g. when the host form is
// populated. The number's country is selected on a later tick. A number
// whose dial code no selectable country carries is rejected with
// ErrNoSuchCountry and leaves the widget untouched.
func (w *Widget) WriteValue(value string) error {
	if value == "" {
		return nil
	}

	plan := w.normalizer.Plan()
	num, err := plan.Parse(value)
	if err != nil {
		return err
	}
	national := plan.NationalSignificantNumber(num)

	c, ok := w.writtenCountry(plan.RegionFor(num), num.GetCountryCode(), national)
	if !ok {
		return fmt.Errorf("%w: dial code +%d", ErrNoSuchCountry, num.GetCountryCode())
	}

	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return ErrDestroyed
	}
	w.state.Raw = national
	w.mu.Unlock()

	w.life.after(w.opts.WriteDelay, func(context.Context) {
		w.applyWrittenCountry(c)
	})
	return nil
}

// writtenCountry resolves the selectable country of a written number: by
// region first, then by dial code and area code when the region is unknown
// or filtered out.
func (w *Widget) writtenCountry(region string, code int32, national string) (phone.Country, bool) {
	if c, ok := w.registry.FindByISO2(region); ok {
		return c, true
	}
	c, ok := w.registry.FindByDialCode(strconv.Itoa(int(code)) + national)
	if ok {
		w.log.Debug().
			Str("region", region).
			Str("country", c.ISO2).
			Msg("written number resolved by dial code")
	}
	return c, ok
}

func (w *Widget) applyWrittenCountry(c phone.Country) {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}

	state := w.normalizer.Select(w.state, c)
	state, res := w.normalizer.OnPhoneNumberChange(state, state.Raw)
	w.applyLocked(state, res)

	countryFns := w.countryListeners.snapshot()
	valueFns := w.valueListeners.snapshot()
	w.mu.Unlock()

	notify(countryFns, c)
	notify(valueFns, res.Value())
}

// Settle waits for deferred work started by WriteValue.
func (w *Widget) Settle(ctx context.Context) error {
	return w.life.wait(ctx)
}

// KeyAllowed reports whether a key press may edit the number field.
func (w *Widget) KeyAllowed(key string) bool {
	return allowedKey.MatchString(key)
}

// CurrentValue is the national number after a successful parse, the full
// number after a failed one, and nil before any input.
func (w *Widget) CurrentValue() any {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.result == nil {
		return nil
	}
	return w.result.Value()
}

// CurrentResult returns the last normalisation result.
func (w *Widget) CurrentResult() phone.Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentResultLocked()
}

func (w *Widget) currentResultLocked() phone.Result {
	if w.result == nil {
		return phone.Result{}
	}
	return *w.result
}

// E164 returns the canonical number when the last input parsed.
func (w *Widget) E164() (string, bool) {
	res := w.CurrentResult()
	if !res.ParseSucceeded || res.Number() == nil {
		return "", false
	}
	return w.normalizer.Plan().Format(res.Number(), phonenumbers.E164), true
}

func (w *Widget) OnValueChanged(fn func(value any)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.valueListeners.add(fn)
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.valueListeners.remove(id)
	}
}

func (w *Widget) OnCountryChanged(fn func(phone.Country)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.countryListeners.add(fn)
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.countryListeners.remove(id)
	}
}

// OnTouched registers fn for the first blur after a focus.
func (w *Widget) OnTouched(fn func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.touchedListeners.add(func(struct{}) { fn() })
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.touchedListeners.remove(id)
	}
}

// Focus marks the input as focused.
func (w *Widget) Focus() {
	w.onFocusChange(true)
}

func (w *Widget) onFocusChange(focused bool) {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	var fns []func(struct{})
	if w.focused && !focused {
		w.touched = true
		fns = w.touchedListeners.snapshot()
	}
	w.focused = focused
	w.mu.Unlock()

	notify(fns, struct{}{})
}

func (w *Widget) Focused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}

func (w *Widget) Touched() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.touched
}

// Empty reports whether nothing has been typed.
func (w *Widget) Empty() bool {
	return w.State().Raw == ""
}

// ShouldLabelFloat reports whether a floating label sits above the input.
func (w *Widget) ShouldLabelFloat() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused || w.state.Raw != ""
}

func (w *Widget) Required() bool {
	return w.opts.Required
}

func (w *Widget) Disabled() bool {
	return w.opts.Disabled
}

// Validate checks the current value. Parse failures wrap both
// ErrInvalidNumber and phone.ErrUnparseableNumber.
func (w *Widget) Validate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.validateLocked()
}

func (w *Widget) validateLocked() error {
	if w.state.Raw == "" {
		if w.opts.Required {
			return ErrRequired
		}
		return nil
	}
	if w.result == nil {
		return nil
	}
	if !w.result.ParseSucceeded {
		return fmt.Errorf("%w: %w", ErrInvalidNumber, w.result.Err)
	}
	if !w.normalizer.Plan().IsValid(w.result.Number()) {
		return ErrInvalidNumber
	}
	return nil
}

// ErrorState reports whether an error should be shown: the value is
// invalid and the input has been touched.
func (w *Widget) ErrorState() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.touched && w.validateLocked() != nil
}

// Destroy releases the focus observer and cancels deferred work. Calling
// it more than once is a no-op.
func (w *Widget) Destroy() {
	w.destroyOnce.Do(func() {
		w.mu.Lock()
		w.destroyed = true
		w.valueListeners = listeners[any]{}
		w.countryListeners = listeners[phone.Country]{}
		w.touchedListeners = listeners[struct{}]{}
		stop := w.stopFocus
		w.mu.Unlock()

		w.life.close()
		if stop != nil {
			stop()
		}
	})
}

// Snapshot is the part of the widget state that survives between requests.
type Snapshot struct {
	Country string `json:"country"`
	Raw     string `json:"raw"`
	Touched bool   `json:"touched"`
	Focused bool   `json:"focused"`
}

func (w *Widget) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		Country: w.state.Country.ISO2,
		Raw:     w.state.Raw,
		Touched: w.touched,
		Focused: w.focused,
	}
}

// Restore brings a new widget back to a snapshot without notifying
// listeners. An unknown country keeps the initial one and returns
// ErrNoSuchCountry.
func (w *Widget) Restore(s Snapshot) error {
	var err error

	w.mu.Lock()
	defer w.mu.Unlock()

	state := w.state
	if s.Country != "" {
		if c, ok := w.registry.FindByISO2(s.Country); ok {
			state = w.normalizer.Select(state, c)
		} else {
			err = fmt.Errorf("%w: %q", ErrNoSuchCountry, s.Country)
		}
	}
	w.touched = s.Touched
	w.focused = s.Focused

	if s.Raw == "" {
		state.Raw = ""
		w.state = w.withFlags(state)
		w.result = nil
		return err
	}
	state, res := w.normalizer.OnPhoneNumberChange(state, s.Raw)
	w.applyLocked(state, res)
	return err
}

type listeners[T any] struct {
	next int
	fns  map[int]func(T)
}

func (l *listeners[T]) add(fn func(T)) int {
	if l.fns == nil {
		l.fns = make(map[int]func(T))
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	return id
}

func (l *listeners[T]) remove(id int) {
	delete(l.fns, id)
}

func (l *listeners[T]) snapshot() []func(T) {
	out := make([]func(T), 0, len(l.fns))
	for _, fn := range l.fns {
		out = append(out, fn)
	}
	return out
}

func notify[T any](fns []func(T), v T) {
	for _, fn := range fns {
		fn(v)
	}
}
