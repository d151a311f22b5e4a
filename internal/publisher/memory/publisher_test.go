package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublisherRecordsMessages(t *testing.T) {
	t.Parallel()

	p := New()
	ctx := context.Background()

	id1, err := p.Publish(ctx, "favicon-events", map[string]any{"company_id": int64(1)})
	require.NoError(t, err)
	id2, err := p.Publish(ctx, "favicon-events", map[string]any{"company_id": int64(2)})
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	messages := p.Messages()
	require.Len(t, messages, 2)
	require.Equal(t, "favicon-events", messages[0].Topic)
	require.Equal(t, map[string]any{"company_id": int64(2)}, messages[1].Payload)
}

func TestPublisherMessagesReturnsCopy(t *testing.T) {
	t.Parallel()

	p := New()
	_, err := p.Publish(context.Background(), "t", "payload")
	require.NoError(t, err)

	messages := p.Messages()
	messages[0].Topic = "mutated"
	require.Equal(t, "t", p.Messages()[0].Topic)
}
