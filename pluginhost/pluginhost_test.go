package pluginhost_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikicreole/creole"
	"github.com/wikicreole/creole/pluginhost"
)

func TestHost_EvalWeavesResultIntoDocument(t *testing.T) {
	h := pluginhost.New()
	h.Vars["x"] = 2

	var got []string
	p := creole.New()
	p.SetPluginHandler(h.Handle)
	p.SetCharactersHandler(func(text []byte) { got = append(got, string(text)) })

	require.NoError(t, p.ParseDocument([]byte("the answer is <<eval x + 40>>")))
	assert.Contains(t, got, "42")
}

func TestHost_UnknownVerbReturnsBadInput(t *testing.T) {
	h := pluginhost.New()
	p := creole.New()
	p.SetPluginHandler(h.Handle)

	err := p.ParseDocument([]byte("<<bogus whatever>>"))
	require.Error(t, err)
	assert.Equal(t, creole.ErrorCodeBadInput, creole.CodeOf(err))
}
