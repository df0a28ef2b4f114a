package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRemote(t *testing.T) {
	before := testutil.ToFloat64(RemoteRequestsTotal.WithLabelValues(OpMedia, StatusTransport))

	RecordRemote(OpMedia, StatusTransport, 15*time.Millisecond)

	after := testutil.ToFloat64(RemoteRequestsTotal.WithLabelValues(OpMedia, StatusTransport))
	assert.Equal(t, before+1, after)
}

func TestRecordFilteredAndPublished(t *testing.T) {
	before := testutil.ToFloat64(RecordsFiltered.WithLabelValues("advertisement"))

	RecordFiltered("advertisement", 3)
	SetPublished(12)

	assert.Equal(t, before+3, testutil.ToFloat64(RecordsFiltered.WithLabelValues("advertisement")))
	assert.Equal(t, float64(12), testutil.ToFloat64(PostsPublished))
}
