package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewpro/internal/report"
	"interviewpro/internal/session"
)

func finishedSession(t *testing.T) *session.Session {
	t.Helper()
	sc, err := session.NewContext(session.ContextInput{
		Credential:     "sk-very-secret",
		TargetPosition: "后端工程师",
		TargetCompany:  "某公司",
		ResumeText:     "简历",
		JobDescription: "JD",
	}, "")
	require.NoError(t, err)

	sess := session.New()
	require.NoError(t, sess.Begin(sc, "system prompt"))
	sess.Log().AppendAssistant("请介绍一下自己")
	sess.Log().AppendUser("我是后端工程师")
	require.NoError(t, sess.Complete())
	require.NoError(t, sess.AttachReport(&report.Report{OverallScore: 4, TopStrengths: []string{"a"}}))
	return sess
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "results"))
	sess := finishedSession(t)

	path, err := store.SaveResult(FromSession(sess))
	require.NoError(t, err)
	assert.Equal(t, "interview_"+sess.ID+".json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-very-secret")
	assert.NotContains(t, string(data), "system prompt")

	loaded, err := store.LoadResult(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.InterviewID)
	assert.Equal(t, "某公司", loaded.TargetCompany)
	assert.Equal(t, session.StateCompleted, loaded.State)
	require.Len(t, loaded.Turns, 2)
	assert.Equal(t, session.SpeakerAssistant, loaded.Turns[0].Speaker)
	require.NotNil(t, loaded.Report)
	assert.Equal(t, 4.0, loaded.Report.OverallScore)

	ids, err := store.ListResults()
	require.NoError(t, err)
	assert.Equal(t, []string{sess.ID}, ids)
}

func TestStore_RejectsInvalidID(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.LoadResult("../etc/passwd")
	assert.Error(t, err)

	_, err = store.SaveResult(&InterviewResult{InterviewID: "not-a-uuid"})
	assert.Error(t, err)
}

func TestStore_ListMissingDir(t *testing.T) {
	ids, err := NewStore(filepath.Join(t.TempDir(), "missing")).ListResults()
	require.NoError(t, err)
	assert.Empty(t, ids)
}
