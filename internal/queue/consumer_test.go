package queue

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinebook/movie-ticket-booking/internal/notify"
)

type sinkFunc func(ctx context.Context, kind notify.Kind, recipient string, p notify.Payload) error

func (f sinkFunc) Notify(ctx context.Context, kind notify.Kind, recipient string, p notify.Payload) error {
	return f(ctx, kind, recipient, p)
}

// chdir changes into dir for the duration of the test, mirroring
// testing.T.Chdir (which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

func TestMergeDeliveriesForwardsFromAllSources(t *testing.T) {
	a := make(chan amqp.Delivery, 1)
	b := make(chan amqp.Delivery, 1)
	a <- amqp.Delivery{Body: []byte("from-a")}
	b <- amqp.Delivery{Body: []byte("from-b")}

	merged := mergeDeliveries(a, b)

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case d := <-merged:
			seen[string(d.Body)] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for merged delivery")
		}
	}
	assert.True(t, seen["from-a"])
	assert.True(t, seen["from-b"])
}

func TestMergeDeliveriesClosesWhenSourcesClose(t *testing.T) {
	// When the broker connection drops the library closes the consume
	// channels; the merged channel has to close too so the consume
	// loop returns and the reconnect loop takes over.
	a := make(chan amqp.Delivery)
	b := make(chan amqp.Delivery)
	merged := mergeDeliveries(a, b)

	close(a)
	close(b)

	select {
	case _, ok := <-merged:
		assert.False(t, ok, "merged channel should be closed, not carrying a value")
	case <-time.After(time.Second):
		t.Fatal("merged channel never closed after all sources closed")
	}
}

func TestHandleDeliverySendsEvent(t *testing.T) {
	chdir(t, t.TempDir())

	ev := NotificationEvent{
		Kind:      notify.KindConfirmation,
		Recipient: "a@x.com",
		Payload:   notify.Payload{BookingID: "b-1", ShowID: "s-1", Seats: []string{"BALCONY1"}},
	}
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	var gotKind notify.Kind
	var gotRecipient string
	sink := sinkFunc(func(_ context.Context, kind notify.Kind, recipient string, _ notify.Payload) error {
		gotKind = kind
		gotRecipient = recipient
		return nil
	})

	require.NoError(t, handleDelivery(context.Background(), body, sink))
	assert.Equal(t, notify.KindConfirmation, gotKind)
	assert.Equal(t, "a@x.com", gotRecipient)

	data, err := os.ReadFile(filepath.Join("logs", "booking.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "booking_id=b-1")
}

func TestHandleDeliverySucceedsWhenAuditWriteFails(t *testing.T) {
	dir := t.TempDir()
	// A plain file named "logs" makes the audit mkdir fail.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs"), []byte("x"), 0o644))
	chdir(t, dir)

	ev := NotificationEvent{Kind: notify.KindReminder, Recipient: "a@x.com"}
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	delivered := false
	sink := sinkFunc(func(context.Context, notify.Kind, string, notify.Payload) error {
		delivered = true
		return nil
	})

	// The mail went out, so the handler must report success and let the
	// message be acked even though the audit line could not be written.
	assert.NoError(t, handleDelivery(context.Background(), body, sink))
	assert.True(t, delivered)
}

func TestHandleDeliveryRejectsMalformedBody(t *testing.T) {
	chdir(t, t.TempDir())
	sink := sinkFunc(func(context.Context, notify.Kind, string, notify.Payload) error {
		t.Fatal("sink must not be called for a malformed body")
		return nil
	})
	assert.Error(t, handleDelivery(context.Background(), []byte("{not json"), sink))
}
