package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	sc, err := NewContext(validInput(), "")
	require.NoError(t, err)
	return sc
}

func TestLog_Initialize(t *testing.T) {
	l := NewLog()
	l.AppendUser("stale")

	require.NoError(t, l.Initialize(newTestContext(t), "你是面试官"))

	turns := l.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, SpeakerSystem, turns[0].Speaker)
	assert.Equal(t, "你是面试官", turns[0].Content)
}

func TestLog_InitializeErrors(t *testing.T) {
	l := NewLog()
	var cfgErr *ConfigError

	err := l.Initialize(nil, "prompt")
	assert.True(t, errors.As(err, &cfgErr))

	err = l.Initialize(newTestContext(t), "   ")
	assert.True(t, errors.As(err, &cfgErr))

	assert.Zero(t, l.Len())
}

func TestLog_AppendOrderAndTimestamps(t *testing.T) {
	l := NewLog()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	l.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	require.NoError(t, l.Initialize(newTestContext(t), "system"))
	l.AppendAssistant("你好")
	l.AppendUser("你好，我准备好了")
	// No alternation rule: two user turns in a row are kept.
	l.AppendUser("补充一句")

	turns := l.Turns()
	require.Len(t, turns, 4)
	assert.Equal(t, []Speaker{SpeakerSystem, SpeakerAssistant, SpeakerUser, SpeakerUser},
		[]Speaker{turns[0].Speaker, turns[1].Speaker, turns[2].Speaker, turns[3].Speaker})
	for i := 1; i < len(turns); i++ {
		assert.True(t, turns[i].CreatedAt.After(turns[i-1].CreatedAt))
	}

	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, "补充一句", last.Content)
}

func TestLog_TurnsReturnsCopy(t *testing.T) {
	l := NewLog()
	l.AppendUser("original")

	turns := l.Turns()
	turns[0].Content = "changed"

	assert.Equal(t, "original", l.Turns()[0].Content)
}

func TestLog_LastOnEmpty(t *testing.T) {
	_, ok := NewLog().Last()
	assert.False(t, ok)
}

func TestLog_Transcript(t *testing.T) {
	l := NewLog()
	require.NoError(t, l.Initialize(newTestContext(t), "secret framing"))
	l.AppendAssistant("请介绍一下自己")
	l.AppendUser("我是一名后端工程师")

	transcript := l.Transcript()
	assert.Equal(t, "面试官：请介绍一下自己\n\n候选人：我是一名后端工程师", transcript)
	assert.NotContains(t, transcript, "secret framing")
}
