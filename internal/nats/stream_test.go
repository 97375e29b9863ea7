package nats

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripforge/trip-planner/internal/model"
)

func TestSubjects(t *testing.T) {
	id := "user-1/0193f1a2-7c4e-7d88-9a1b-2f4c5e6d7a8b"
	tok := base64.RawURLEncoding.EncodeToString([]byte(id))

	assert.Equal(t, "trip."+tok+".msg.user", MessageSubject(id, model.RoleUser))
	assert.Equal(t, "trip."+tok+".event.reset", EventSubject(id, model.EventTypeReset))
	assert.Equal(t, "trip."+tok+".msg.>", TranscriptFilter(id))
}

func TestSessionToken_IsSingleSafeToken(t *testing.T) {
	for _, id := range []string{"a.b*c>d e/f", "john.doe/x", "\t\n"} {
		tok := sessionToken(id)
		assert.NotEmpty(t, tok)
		assert.False(t, strings.ContainsAny(tok, ".*> \t\r\n"), tok)

		decoded, err := base64.RawURLEncoding.DecodeString(tok)
		require.NoError(t, err)
		assert.Equal(t, id, string(decoded))
	}
}

func TestSessionToken_DistinctKeysDistinctSubjects(t *testing.T) {
	const sid = "0193f1a2-7c4e-7d88-9a1b-2f4c5e6d7a8b"
	tests := []struct {
		name string
		a, b string
	}{
		{"dot and underscore", "john.doe/" + sid, "john_doe/" + sid},
		{"slash and underscore", "a/b/" + sid, "a_b/" + sid},
		{"space and underscore", "jo hn/" + sid, "jo_hn/" + sid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, TranscriptFilter(tt.a), TranscriptFilter(tt.b))
			assert.NotEqual(t, MessageSubject(tt.a, model.RoleUser), MessageSubject(tt.b, model.RoleUser))
		})
	}
}
