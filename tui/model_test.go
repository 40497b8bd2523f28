package tui

import (
	"context"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-chords/instruments"
	"go-chords/instruments/chords"
	"go-chords/midi"
	"go-chords/theme"
)

type memChannel struct {
	mu   sync.Mutex
	msgs []string
}

func (c *memChannel) PostMessage(msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *memChannel) Close() error { return nil }

func (c *memChannel) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs...)
}

type memDialer struct{ ch *memChannel }

func (d memDialer) Probe() bool                                    { return true }
func (d memDialer) Dial(ctx context.Context) (midi.Channel, error) { return d.ch, nil }
func (d memDialer) String() string                                 { return "mem" }

func newTestModel(t *testing.T) (Model, *midi.System, *memChannel, Alerts) {
	t.Helper()

	logger := zap.NewNop().Sugar()
	ch := &memChannel{}
	alerts := NewAlerts()
	sys := midi.NewSystem(midi.NewBridgeProvider(memDialer{ch: ch}, logger), midi.NewSession(), alerts, logger)

	var catalog instruments.Catalog
	require.NoError(t, catalog.Register(chords.Descriptor))

	updates, stop := sys.Subscribe()
	t.Cleanup(stop)

	sys.Init(context.Background())

	return NewModel(sys, &catalog, theme.New(nil), updates, alerts), sys, ch, alerts
}

func send(m tea.Model, msgs ...tea.Msg) tea.Model {
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

var (
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyBack  = tea.KeyMsg{Type: tea.KeyBackspace}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func TestViewShowsStatusAndOutputs(t *testing.T) {
	m, _, _, _ := newTestModel(t)

	view := m.View()
	assert.Contains(t, view, "Using output: Bluetooth")
	assert.Contains(t, view, "Bluetooth")
	assert.Contains(t, view, "Beginner chord machine")
}

func TestInstrumentSendsThroughSystem(t *testing.T) {
	m, _, ch, _ := newTestModel(t)

	send(m, keyEnter)

	assert.Equal(t, []string{"144;60;100", "144;64;100", "144;67;100"}, ch.Messages())
}

func TestOutputPaneDeselectAndReselect(t *testing.T) {
	m, sys, ch, _ := newTestModel(t)

	var model tea.Model = m
	model = send(model, keyTab, keyBack)
	assert.False(t, sys.IsSelected("bluetooth"))

	// instrument plays into nothing
	model = send(model, keyTab, keyEnter)
	assert.Empty(t, ch.Messages())

	model = send(model, keyTab, keyEnter)
	assert.True(t, sys.IsSelected("bluetooth"))
	assert.Equal(t, "Using output: Bluetooth", sys.Status())
}

func TestAlertIsShownAndDismissed(t *testing.T) {
	m, sys, _, alerts := newTestModel(t)

	sys.SelectOutput("usb-1")
	msg := <-alerts
	assert.Equal(t, "No output key usb-1 found", msg)

	model := send(m, AlertMsg(msg))
	assert.Contains(t, model.View(), "No output key usb-1 found")

	model = send(model, keyEsc)
	assert.NotContains(t, model.View(), "No output key")
}

func TestUpdateMsgRearmsListener(t *testing.T) {
	m, _, _, _ := newTestModel(t)

	_, cmd := m.Update(UpdateMsg{})
	assert.NotNil(t, cmd)
}

func TestQuitReleasesChord(t *testing.T) {
	m, _, ch, _ := newTestModel(t)

	model := send(m, keyEnter)
	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	require.NotNil(t, cmd)
	msgs := ch.Messages()
	require.Len(t, msgs, 6)
	assert.Equal(t, "128;60;0", msgs[3])
}

func TestAlertsDropWhenFull(t *testing.T) {
	a := make(Alerts, 1)
	a.Alert("one")
	a.Alert("two")
	assert.Equal(t, "one", <-a)
	assert.Len(t, a, 0)
}
