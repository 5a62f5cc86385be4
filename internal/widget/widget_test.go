package widget

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AlexTLDR/intltel/internal/phone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	fn      func()
	ran     bool
	stopped bool
}

// fakeScheduler holds jobs until run is called.
type fakeScheduler struct {
	mu   sync.Mutex
	jobs []*fakeJob
}

func (s *fakeScheduler) Schedule(_ time.Duration, fn func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &fakeJob{fn: fn}
	s.jobs = append(s.jobs, job)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if job.ran || job.stopped {
			return false
		}
		job.stopped = true
		return true
	}
}

func (s *fakeScheduler) run() {
	s.mu.Lock()
	var due []*fakeJob
	for _, job := range s.jobs {
		if !job.ran && !job.stopped {
			job.ran = true
			due = append(due, job)
		}
	}
	s.mu.Unlock()

	for _, job := range due {
		job.fn()
	}
}

func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, job := range s.jobs {
		if !job.ran && !job.stopped {
			n++
		}
	}
	return n
}

func newTestWidget(t *testing.T, mutate func(*Options)) *Widget {
	t.Helper()

	registry, err := phone.LoadRegistry()
	require.NoError(t, err)

	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}

	w, err := New(registry, phone.NewNormalizer(phone.LibPlan{}), opts)
	require.NoError(t, err)
	t.Cleanup(w.Destroy)
	return w
}

func TestNew_InitialCountry(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		want   string
	}{
		{
			name: "first country of the dataset",
			want: "af",
		},
		{
			name: "first preferred country",
			mutate: func(o *Options) {
				o.PreferredCountries = []string{"ro", "br"}
			},
			want: "ro",
		},
		{
			name: "default country wins over preferred",
			mutate: func(o *Options) {
				o.PreferredCountries = []string{"ro"}
				o.DefaultCountry = "BR"
			},
			want: "br",
		},
		{
			name: "unknown default falls back",
			mutate: func(o *Options) {
				o.OnlyCountries = []string{"us", "gb"}
				o.DefaultCountry = "br"
			},
			want: "gb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWidget(t, tt.mutate)
			assert.Equal(t, tt.want, w.SelectedCountry().ISO2)
		})
	}
}

func TestNew_NoCountries(t *testing.T) {
	registry, err := phone.LoadRegistry()
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.OnlyCountries = []string{"xx"}

	_, err = New(registry, phone.NewNormalizer(phone.LibPlan{}), opts)
	assert.ErrorIs(t, err, ErrNoSuchCountry)
}

func TestNew_IDsAreUnique(t *testing.T) {
	a := newTestWidget(t, nil)
	b := newTestWidget(t, nil)

	assert.True(t, strings.HasPrefix(a.ID(), "intl-tel-input-"))
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestWidget_Input(t *testing.T) {
	form := NewFormGroup()
	w := newTestWidget(t, func(o *Options) {
		o.DefaultCountry = "br"
		o.Form = form
		o.FieldName = "phone"
	})

	var values []any
	w.OnValueChanged(func(v any) { values = append(values, v) })

	res := w.Input("91234567")
	require.True(t, res.ParseSucceeded)
	assert.Equal(t, "+5591234567", res.FullNumber)
	assert.Equal(t, uint64(91234567), w.CurrentValue())
	assert.Equal(t, "+5591234567", form.String("phone"))

	res = w.Input("abc")
	assert.False(t, res.ParseSucceeded)
	assert.ErrorIs(t, res.Err, phone.ErrUnparseableNumber)
	assert.Equal(t, "+55", w.CurrentValue())
	assert.Nil(t, form.Get("phone"))

	assert.Equal(t, []any{uint64(91234567), "+55"}, values)
}

func TestWidget_MaskAndPlaceholderSwitches(t *testing.T) {
	on := newTestWidget(t, func(o *Options) { o.DefaultCountry = "us" })
	assert.Equal(t, "  000-000-0000", on.State().Mask)
	assert.Equal(t, "  201-555-0123", on.State().Placeholder)

	off := newTestWidget(t, func(o *Options) {
		o.DefaultCountry = "us"
		o.EnableMask = false
		o.EnablePlaceholder = false
	})
	off.Input("2015550123")
	assert.Empty(t, off.State().Mask)
	assert.Empty(t, off.State().Placeholder)
	assert.Empty(t, off.Countries()[0].Placeholder)
}

func TestWidget_SelectCountry(t *testing.T) {
	w := newTestWidget(t, func(o *Options) { o.DefaultCountry = "br" })
	w.Input("91234567")

	var changed []string
	w.OnCountryChanged(func(c phone.Country) { changed = append(changed, c.ISO2) })

	res, err := w.SelectCountry("RO")
	require.NoError(t, err)
	assert.Equal(t, "ro", w.SelectedCountry().ISO2)
	assert.Empty(t, w.State().Raw)
	assert.Equal(t, "+40", res.FullNumber)
	assert.Equal(t, "+40", w.State().MaskPrefix)
	assert.Equal(t, []string{"ro"}, changed)

	_, err = w.SelectCountry("xx")
	assert.ErrorIs(t, err, ErrNoSuchCountry)
	assert.Equal(t, "ro", w.SelectedCountry().ISO2)
}

func TestWidget_WriteValue(t *testing.T) {
	sched := &fakeScheduler{}
	form := NewFormGroup()
	w := newTestWidget(t, func(o *Options) {
		o.DefaultCountry = "us"
		o.Scheduler = sched
		o.Form = form
		o.FieldName = "phone"
	})

	var changed []string
	w.OnCountryChanged(func(c phone.Country) { changed = append(changed, c.ISO2) })

	require.NoError(t, w.WriteValue("+40 721 234 567"))
	assert.Equal(t, "721234567", w.State().Raw)
	assert.Equal(t, "us", w.SelectedCountry().ISO2)
	assert.Equal(t, 1, sched.pending())

	sched.run()
	require.NoError(t, w.Settle(context.Background()))

	assert.Equal(t, "ro", w.SelectedCountry().ISO2)
	assert.Equal(t, uint64(721234567), w.CurrentValue())
	assert.Equal(t, "+40721234567", form.String("phone"))
	assert.Equal(t, []string{"ro"}, changed)

	e164, ok := w.E164()
	assert.True(t, ok)
	assert.Equal(t, "+40721234567", e164)
}

func TestWidget_WriteValueErrors(t *testing.T) {
	w := newTestWidget(t, nil)

	assert.NoError(t, w.WriteValue(""))
	assert.ErrorIs(t, w.WriteValue("not a number"), phone.ErrUnparseableNumber)
}

func TestWidget_WriteValueUnknownRegion(t *testing.T) {
	sched := &fakeScheduler{}
	w := newTestWidget(t, func(o *Options) {
		o.DefaultCountry = "ro"
		o.Scheduler = sched
	})

	// 555 is not assigned to any NANP region
	require.NoError(t, w.WriteValue("+15555550100"))
	sched.run()
	require.NoError(t, w.Settle(context.Background()))

	assert.Equal(t, "us", w.SelectedCountry().ISO2)
	assert.Equal(t, "5555550100", w.State().Raw)
	assert.Equal(t, "+1", w.State().MaskPrefix)
	assert.Equal(t, "+15555550100", w.CurrentResult().FullNumber)
}

func TestWidget_WriteValueFilteredRegion(t *testing.T) {
	tests := []struct {
		name        string
		only        []string
		value       string
		wantCountry string
		wantFull    string
		wantErr     error
	}{
		{
			name:        "dial code shared with a selectable country",
			only:        []string{"ro", "ca"},
			value:       "+12015550123",
			wantCountry: "ca",
			wantFull:    "+12015550123",
		},
		{
			name:        "dial code not selectable",
			only:        []string{"ro", "br"},
			value:       "+12015550123",
			wantCountry: "ro",
			wantErr:     ErrNoSuchCountry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := &fakeScheduler{}
			w := newTestWidget(t, func(o *Options) {
				o.OnlyCountries = tt.only
				o.DefaultCountry = "ro"
				o.Scheduler = sched
			})

			err := w.WriteValue(tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, w.State().Raw)
				assert.Equal(t, 0, sched.pending())
			} else {
				require.NoError(t, err)
				sched.run()
				require.NoError(t, w.Settle(context.Background()))
				assert.Equal(t, tt.wantFull, w.CurrentResult().FullNumber)
			}
			assert.Equal(t, tt.wantCountry, w.SelectedCountry().ISO2)
		})
	}
}

func TestWidget_WriteValueWithTimer(t *testing.T) {
	w := newTestWidget(t, func(o *Options) { o.DefaultCountry = "us" })

	require.NoError(t, w.WriteValue("+5511912345678"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Settle(ctx))

	assert.Equal(t, "br", w.SelectedCountry().ISO2)
	assert.Equal(t, phone.BrazilMobileMask, w.State().Mask)
}

func TestWidget_DestroyCancelsPendingWrite(t *testing.T) {
	sched := &fakeScheduler{}
	w := newTestWidget(t, func(o *Options) {
		o.DefaultCountry = "us"
		o.Scheduler = sched
	})

	require.NoError(t, w.WriteValue("+40721234567"))
	w.Destroy()
	w.Destroy()

	assert.Zero(t, sched.pending())
	require.NoError(t, w.Settle(context.Background()))
	assert.Equal(t, "us", w.SelectedCountry().ISO2)
	assert.ErrorIs(t, w.WriteValue("+40721234567"), ErrDestroyed)
}

func TestWidget_KeyAllowed(t *testing.T) {
	w := newTestWidget(t, nil)

	tests := []struct {
		key  string
		want bool
	}{
		{"5", true},
		{"+", true},
		{"-", true},
		{" ", true},
		{"a", false},
		{"(", false},
		{".", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, w.KeyAllowed(tt.key))
		})
	}
}

func TestWidget_FocusAndTouched(t *testing.T) {
	tracker := NewFocusTracker()
	w := newTestWidget(t, func(o *Options) {
		o.FocusMonitor = tracker
		o.Required = true
	})
	require.Equal(t, 1, tracker.Observers())

	touched := 0
	w.OnTouched(func() { touched++ })

	assert.False(t, w.ErrorState())
	assert.False(t, w.ShouldLabelFloat())

	tracker.Set(true)
	assert.True(t, w.Focused())
	assert.True(t, w.ShouldLabelFloat())
	assert.False(t, w.Touched())

	tracker.Set(false)
	assert.True(t, w.Touched())
	assert.True(t, w.ErrorState())
	assert.Equal(t, 1, touched)

	w.Destroy()
	assert.Zero(t, tracker.Observers())
}

func TestWidget_Validate(t *testing.T) {
	tests := []struct {
		name     string
		required bool
		input    string
		wantErr  error
	}{
		{name: "empty optional", wantErr: nil},
		{name: "empty required", required: true, wantErr: ErrRequired},
		{name: "valid number", input: "2015550123", wantErr: nil},
		{name: "unparseable", input: "x", wantErr: ErrInvalidNumber},
		{name: "parseable but invalid", input: "1234", wantErr: ErrInvalidNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWidget(t, func(o *Options) {
				o.DefaultCountry = "us"
				o.Required = tt.required
			})
			if tt.input != "" {
				w.Input(tt.input)
			}

			err := w.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWidget_UnsubscribedListenerIsSilent(t *testing.T) {
	w := newTestWidget(t, nil)

	calls := 0
	unsubscribe := w.OnValueChanged(func(any) { calls++ })
	w.Input("1")
	unsubscribe()
	w.Input("12")

	assert.Equal(t, 1, calls)
}

func TestWidget_SnapshotRestore(t *testing.T) {
	w := newTestWidget(t, func(o *Options) { o.DefaultCountry = "br" })
	w.Input("91234567")

	snap := w.Snapshot()
	assert.Equal(t, Snapshot{Country: "br", Raw: "91234567"}, snap)

	restored := newTestWidget(t, func(o *Options) { o.DefaultCountry = "us" })
	require.NoError(t, restored.Restore(snap))
	assert.Equal(t, "br", restored.SelectedCountry().ISO2)
	assert.Equal(t, uint64(91234567), restored.CurrentValue())

	other := newTestWidget(t, func(o *Options) { o.DefaultCountry = "us" })
	err := other.Restore(Snapshot{Country: "xx", Raw: "2015550123", Touched: true})
	assert.ErrorIs(t, err, ErrNoSuchCountry)
	assert.Equal(t, "us", other.SelectedCountry().ISO2)
	assert.True(t, other.Touched())
	assert.Equal(t, uint64(2015550123), other.CurrentValue())
}
