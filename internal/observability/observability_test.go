package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"murmur/internal/models"
)

func TestNewLogger_AddsContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("production", &buf)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithAccountID(ctx, 7)
	logger.InfoContext(ctx, "hello")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"account_id":7`)
	assert.Contains(t, out, `"msg":"hello"`)
}

func TestNewLogger_TextOutsideProduction(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("development", &buf)
	logger.With("network", "demo").Info("hello")

	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "network=demo")
}

func TestOutcome(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, models.CodeAlreadyLiked, Outcome(models.ErrAlreadyLiked))
	assert.Equal(t, models.CodeNotFound, Outcome(models.NewNotFoundError("Account", "x")))
	assert.Equal(t, "error", Outcome(errors.New("boom")))
}

func TestRecordAction(t *testing.T) {
	before := testutil.ToFloat64(SocialActions.WithLabelValues("follow", models.CodeDuplicateEdge))
	RecordAction("follow", models.ErrDuplicateEdge)
	after := testutil.ToFloat64(SocialActions.WithLabelValues("follow", models.CodeDuplicateEdge))
	assert.Equal(t, before+1, after)
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "murmur-test"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, span := StartOperation(context.Background(), "follow")
	span.End(models.ErrMissingEdge)
}
