package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewJobID_Namespace(t *testing.T) {
	now := time.Now()
	id := NewJobID(now)

	assert.True(t, strings.HasPrefix(id, "job_"), "id %q", id)
	assert.True(t, ValidJobID(id), "id %q", id)

	// distinct per call even at the same timestamp
	assert.NotEqual(t, id, NewJobID(now))
}

func TestValidJobID(t *testing.T) {
	cases := []struct {
		id string
		ok bool
	}{
		{"job_1756380000000_a1b2c3d4", true},
		{"job_1_x", true},
		{"", false},
		{"job_", false},
		{"job_1756380000000", false},
		{"job_1756380000000_", false},
		{"job_abc_def", false},
		{"task_1756380000000_a1b2c3d4", false},
		{"../etc/passwd", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, ValidJobID(c.id), "id %q", c.id)
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	assert.False(t, JobPending.Terminal())
	assert.False(t, JobRunning.Terminal())
	assert.True(t, JobCompleted.Terminal())
	assert.True(t, JobFailed.Terminal())
	assert.True(t, JobCancelled.Terminal())
}

func TestBusiness_NameKey(t *testing.T) {
	a := Business{Name: "  JOE'S   Plumbing "}
	b := Business{Name: "joe's plumbing"}
	assert.Equal(t, a.NameKey(), b.NameKey())
	assert.Equal(t, "joe's plumbing", a.NameKey())
}

func TestBusiness_HasEmail(t *testing.T) {
	assert.False(t, Business{}.HasEmail())
	assert.False(t, Business{Email: "   "}.HasEmail())
	assert.True(t, Business{Email: "info@acme.com"}.HasEmail())
}
