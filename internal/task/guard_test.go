package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorized(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		caller     string
		owner      string
		targetNode string
		originNode string
		isAdmin    bool
		want       bool
	}{
		{
			name:   "owner without node",
			caller: "alice", owner: "alice",
			want: true,
		},
		{
			name:   "owner with matching node",
			caller: "alice", owner: "alice",
			targetNode: "node1", originNode: "node1",
			want: true,
		},
		{
			name:   "owner with mismatched node",
			caller: "alice", owner: "alice",
			targetNode: "node2", originNode: "node1",
			want: false,
		},
		{
			name:   "owner asking generically about a node task",
			caller: "alice", owner: "alice",
			targetNode: "", originNode: "node1",
			want: true,
		},
		{
			name:   "non-owner",
			caller: "bob", owner: "alice",
			want: false,
		},
		{
			name:   "non-owner with matching node",
			caller: "bob", owner: "alice",
			targetNode: "node1", originNode: "node1",
			want: false,
		},
		{
			name:   "admin overrides ownership",
			caller: "bob", owner: "alice",
			isAdmin: true,
			want:    true,
		},
		{
			name:   "admin overrides node mismatch",
			caller: "alice", owner: "alice",
			targetNode: "node2", originNode: "node1",
			isAdmin: true,
			want:    true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Authorized(tc.caller, tc.owner, tc.targetNode, tc.originNode, tc.isAdmin)
			assert.Equal(t, tc.want, got)
		})
	}
}
