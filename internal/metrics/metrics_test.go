package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordWrite(t *testing.T) {
	before := testutil.ToFloat64(RecordsWrittenTotal.WithLabelValues("voucher", "create"))

	RecordWrite("voucher", "create")
	RecordWrite("voucher", "create")

	after := testutil.ToFloat64(RecordsWrittenTotal.WithLabelValues("voucher", "create"))
	assert.Equal(t, before+2, after)
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/offers/{id}", "404"))

	RecordHTTPRequest("GET", "/api/offers/{id}", "404", 0.01)

	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/offers/{id}", "404")))
}
