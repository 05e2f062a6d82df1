package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/kubecontexts/internal/channels"
	"github.com/renato0307/kubecontexts/internal/dashboard"
	"github.com/renato0307/kubecontexts/internal/testutil"
)

const renderTimeout = 3 * time.Second

func TestWatch_RendersLivePayloads(t *testing.T) {
	src := newFakeSource()
	tp := testutil.NewTestProgram(t, NewModel(src, ThemeCharm()), 140, 20)

	src.messages <- message(t, channels.AvailableContexts, sampleContexts())
	require.True(t, tp.WaitForOutput("staging", renderTimeout), tp.Output())

	src.messages <- message(t, channels.ContextHealths, dashboard.ContextsHealthsInfo{
		Healths: []dashboard.ContextHealth{{ContextName: "prod", Reachable: true}},
	})
	assert.True(t, tp.WaitForOutput("reachable", renderTimeout), tp.Output())

	tp.Type("q")
	assert.True(t, tp.WaitForExit(renderTimeout), "q quits")
}

func TestWatch_ShowsDisconnect(t *testing.T) {
	src := newFakeSource()
	tp := testutil.NewTestProgram(t, NewModel(src, ThemeCharm()), 140, 20)

	src.err = errors.New("server went away")
	close(src.messages)
	assert.True(t, tp.WaitForOutput("server went away", renderTimeout), tp.Output())

	tp.SendKey(tea.KeyCtrlC)
	assert.True(t, tp.WaitForExit(renderTimeout))
}
