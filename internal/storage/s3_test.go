package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/20yuto20/slack-news-aggregator/internal/config"
)

func TestSnapshotsDisabledWithoutEndpoint(t *testing.T) {
	s, err := NewSnapshots(context.Background(), config.S3Config{Bucket: "snaps"})
	require.NoError(t, err, "missing endpoint disables uploads, it is not an error")

	assert.False(t, s.Configured())
	assert.NoError(t, s.StorePage(context.Background(), "hp", "https://example.com/news", []byte("<html>")))
}

func TestSnapshotsNilReceiverIsNoOp(t *testing.T) {
	var s *Snapshots

	assert.False(t, s.Configured())
	assert.NoError(t, s.StorePage(context.Background(), "prtimes", "https://prtimes.jp/x", nil))
}
