package adapter

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/leapstack-labs/leapdq/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAdapter struct {
	BaseSQLAdapter
	connectErr error
	closeErr   error
	connected  bool
	closed     bool
}

func (r *recordingAdapter) Connect(_ context.Context, _ Config) error {
	if r.connectErr != nil {
		return r.connectErr
	}
	r.connected = true
	return nil
}

func (r *recordingAdapter) Close() error {
	r.closed = true
	return r.closeErr
}

func (r *recordingAdapter) QueryTable(_ context.Context, _ string, _ ...any) (*table.Table, error) {
	return table.New()
}

func (r *recordingAdapter) GetTableMetadata(_ context.Context, _ string) (*Metadata, error) {
	return nil, errors.New("not supported")
}

func registerRecording(t *testing.T, name string, rec *recordingAdapter) {
	t.Helper()
	Register(name, func(_ *slog.Logger) Adapter { return rec })
}

func TestWith(t *testing.T) {
	tests := []struct {
		name       string
		rec        *recordingAdapter
		fnErr      error
		wantErr    string
		wantClosed bool
	}{
		{
			name:       "success releases the adapter",
			rec:        &recordingAdapter{},
			wantClosed: true,
		},
		{
			name:       "callback error still releases",
			rec:        &recordingAdapter{},
			fnErr:      errors.New("check failed"),
			wantErr:    "check failed",
			wantClosed: true,
		},
		{
			name:       "close error is joined",
			rec:        &recordingAdapter{closeErr: errors.New("broken pipe")},
			fnErr:      errors.New("check failed"),
			wantErr:    "broken pipe",
			wantClosed: true,
		},
		{
			name:    "connect error skips callback",
			rec:     &recordingAdapter{connectErr: errors.New("refused")},
			wantErr: "failed to connect",
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name := "recording_" + string(rune('a'+i))
			registerRecording(t, name, tt.rec)

			called := false
			err := With(context.Background(), Config{Type: name}, nil, func(adp Adapter) error {
				called = true
				return tt.fnErr
			})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.rec.connectErr == nil, called)
			assert.Equal(t, tt.wantClosed, tt.rec.closed)
		})
	}
}

func TestWith_ReleasesOnPanic(t *testing.T) {
	rec := &recordingAdapter{}
	registerRecording(t, "recording_panic", rec)

	assert.Panics(t, func() {
		_ = With(context.Background(), Config{Type: "recording_panic"}, nil, func(Adapter) error {
			panic("boom")
		})
	})
	assert.True(t, rec.closed)
}

func TestWith_UnknownAdapter(t *testing.T) {
	err := With(context.Background(), Config{Type: "nope"}, nil, func(Adapter) error { return nil })
	var unknown *UnknownAdapterError
	assert.ErrorAs(t, err, &unknown)
}
