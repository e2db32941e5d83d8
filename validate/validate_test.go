package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/interviewmesh/core"
)

func TestAnswerAcceptsPlainText(t *testing.T) {
	got, err := Answer("I would reach for a sync.WaitGroup here.")
	require.NoError(t, err)
	assert.Equal(t, "I would reach for a sync.WaitGroup here.", got)
}

func TestAnswerRejectsEmpty(t *testing.T) {
	_, err := Answer("   \n\t ")
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "answer", verr.Field)
}

func TestAnswerRejectsOversized(t *testing.T) {
	_, err := Answer(strings.Repeat("a", MaxResponseLength+1))
	assert.Error(t, err)
}

func TestAnswerRejectsDangerousContent(t *testing.T) {
	cases := []string{
		"see <script>alert(1)</script>",
		"click javascript:void(0)",
		"read ../../etc/passwd",
		"inject ${jndi:ldap}",
		"run exec(payload)",
		"try eval(input)",
	}
	for _, input := range cases {
		_, err := Answer(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestAnswerStripsControlCharacters(t *testing.T) {
	got, err := Answer("line one\nline two\x00\x01 tab\tend")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two tab\tend", got)
}

func TestAnswerRejectsBinaryData(t *testing.T) {
	_, err := Answer("abc" + strings.Repeat("\x00\x01\x02", 20))
	assert.Error(t, err)
}

func TestResumeLengthBounds(t *testing.T) {
	_, err := Resume("too short")
	assert.Error(t, err)

	text := strings.Repeat("Experienced Go engineer. ", 10)
	got, err := Resume(text)
	require.NoError(t, err)
	assert.Equal(t, text, got)

	_, err = Resume(strings.Repeat("a", MaxResumeSize+1))
	assert.Error(t, err)
}

func TestJobDescriptionLengthBounds(t *testing.T) {
	_, err := JobDescription("short")
	assert.Error(t, err)

	_, err = JobDescription(strings.Repeat("a", MaxJobDescSize+1))
	assert.Error(t, err)
}

func TestProfile(t *testing.T) {
	assert.NoError(t, Profile(core.CandidateProfile{Name: "Jordan Doe", ExperienceYears: 5}))

	err := Profile(core.CandidateProfile{ExperienceYears: 5})
	var verr *Error
	assert.ErrorAs(t, err, &verr)

	assert.Error(t, Profile(core.CandidateProfile{Name: "Jordan Doe", ExperienceYears: -1}))
}

func TestRequirements(t *testing.T) {
	assert.NoError(t, Requirements(core.JobRequirements{Title: "Backend Engineer"}))
	assert.Error(t, Requirements(core.JobRequirements{}))
	assert.Error(t, Requirements(core.JobRequirements{Title: "x", ExperienceRequired: -2}))
}

func TestTopics(t *testing.T) {
	assert.Error(t, Topics(nil))

	valid := []core.Topic{core.NewTopic("Go Concurrency", 5), core.NewTopic("Databases", 3)}
	assert.NoError(t, Topics(valid))

	dup := []core.Topic{core.NewTopic("Go Concurrency", 5), core.NewTopic("Go Concurrency", 3)}
	err := Topics(dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	assert.Error(t, Topics([]core.Topic{{Name: "Go", Priority: 0}}))
	assert.Error(t, Topics([]core.Topic{{Name: "Go", Priority: 6}}))
	assert.Error(t, Topics([]core.Topic{{Priority: 3}}))
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Field: "resume", Reason: "too short"}
	assert.Equal(t, "invalid resume: too short", err.Error())
}
