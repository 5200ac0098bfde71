package pkg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifier_Subjects(t *testing.T) {
	assert.Equal(t, "tenant.acme.user.42.notification", UserSubject("acme", 42))
	assert.Equal(t, "tenant.acme.jobs.posted", BroadcastSubject("acme"))
	assert.Equal(t, "tenant.acme.sms.outbound", SMSSubject("acme"))
}

func TestNotifier_SubjectsFallUnderStream(t *testing.T) {
	// The stream binds tenant.<tid>.> so every published subject must match it.
	stream := "tenant.acme.>"
	for _, subject := range []string{UserSubject("acme", 1), BroadcastSubject("acme"), SMSSubject("acme")} {
		assert.True(t, subjectMatches(stream, subject), subject)
	}
	assert.True(t, subjectMatches(UserSubjectWildcard("acme"), UserSubject("acme", 99)))
	assert.False(t, subjectMatches(UserSubjectWildcard("acme"), BroadcastSubject("acme")))
	assert.False(t, subjectMatches(UserSubjectWildcard("acme"), UserSubject("other", 99)))
}

// subjectMatches applies NATS wildcard rules token by token.
func subjectMatches(pattern, subject string) bool {
	p := strings.Split(pattern, ".")
	s := strings.Split(subject, ".")
	for i, tok := range p {
		if tok == ">" {
			return len(s) > i
		}
		if i >= len(s) || (tok != "*" && tok != s[i]) {
			return false
		}
	}
	return len(p) == len(s)
}
