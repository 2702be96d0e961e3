package panel

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/soar/joyview/internal/config"
	"github.com/soar/joyview/internal/gamepad"
	"github.com/soar/joyview/internal/joy"
	"github.com/soar/joyview/internal/mapping"
	"github.com/soar/joyview/internal/settings"
	"github.com/soar/joyview/internal/transport"
	"github.com/soar/joyview/internal/view"
)

// bareHost offers no optional capabilities.
type bareHost struct {
	mu      sync.Mutex
	saves   []config.Config
	trees   []settings.Tree
	views   []view.View
	saveErr error
}

func (h *bareHost) SaveState(cfg config.Config) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saves = append(h.saves, cfg)
	return h.saveErr
}

func (h *bareHost) UpdateSettings(tree settings.Tree) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.trees = append(h.trees, tree)
}

func (h *bareHost) UpdateView(v view.View) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.views = append(h.views, v)
}

func (h *bareHost) lastSave() config.Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.saves[len(h.saves)-1]
}

func (h *bareHost) lastTree() settings.Tree {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.trees[len(h.trees)-1]
}

func (h *bareHost) lastView() view.View {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.views[len(h.views)-1]
}

func (h *bareHost) saveCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.saves)
}

type published struct {
	topic string
	msg   any
}

// busHost also subscribes, advertises and publishes.
type busHost struct {
	bareHost
	calls     []string
	published []published
}

func (h *busHost) Subscribe(topics []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range topics {
		h.calls = append(h.calls, "subscribe "+t)
	}
	return nil
}

func (h *busHost) Advertise(topic, schema string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, "advertise "+topic+" "+schema)
	return nil
}

func (h *busHost) Unadvertise(topic string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, "unadvertise "+topic)
	return nil
}

func (h *busHost) Publish(topic string, msg any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.published = append(h.published, published{topic, msg})
	return nil
}

func (h *busHost) callLog() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

func startController(t *testing.T, host Host, saved string, opts Options) (*Controller, context.CancelFunc) {
	t.Helper()
	var data []byte
	if saved != "" {
		data = []byte(saved)
	}
	c, err := New(host, data, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return c, cancel
}

// flush waits until every event queued so far has been processed.
func flush(t *testing.T, c *Controller) {
	t.Helper()
	done := make(chan struct{})
	c.post(func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not process queued events")
	}
}

func joyFrame(t *testing.T, topic, schema string, msg joy.Joy) transport.MessageEvent {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	return transport.MessageEvent{Topic: topic, Schema: schema, Message: data}
}

func TestNewUnknownProfile(t *testing.T) {
	_, err := New(&bareHost{}, []byte(`{"mapping_name":"Nope"}`), Options{})
	if !errors.Is(err, mapping.ErrUnknownProfile) {
		t.Fatalf("err = %v", err)
	}
}

func TestStartPublishesInitialState(t *testing.T) {
	host := &busHost{}
	c, _ := startController(t, host, "", Options{})
	flush(t, c)

	if host.saveCount() != 1 {
		t.Fatalf("saves = %d, want 1", host.saveCount())
	}
	if !host.lastView().Placeholder {
		t.Fatal("view without a controller should be the placeholder")
	}
	if len(host.lastTree().Roots) != 3 {
		t.Fatal("settings tree not published")
	}
	calls := host.callLog()
	if len(calls) != 1 || calls[0] != "advertise /joy sensor_msgs/Joy" {
		t.Fatalf("calls = %v", calls)
	}
	if got := c.Watches(); len(got) != 2 || got[0] != WatchTopics || got[1] != WatchCurrentFrame {
		t.Fatalf("Watches = %v", got)
	}
}

func TestActionPersistsAndForcesCustom(t *testing.T) {
	host := &bareHost{}
	c, _ := startController(t, host, "", Options{})

	c.HandleAction(settings.Action{Kind: settings.PerformNodeAction, ID: settings.ActionAddButton, Path: []string{settings.RootButtons}})
	flush(t, c)

	saved := host.lastSave()
	if saved.MappingName != mapping.Custom {
		t.Fatalf("saved mapping name = %q", saved.MappingName)
	}
	last := saved.Mapping.Buttons[len(saved.Mapping.Buttons)-1]
	if last.Name != "NEW_BUTTON" || last.Index != 17 || last.ShowInEditor {
		t.Fatalf("saved button = %+v", last)
	}

	// The live configuration keeps the editor flag so the new entry opens.
	cur := c.Config()
	if !cur.Mapping.Buttons[len(cur.Mapping.Buttons)-1].ShowInEditor {
		t.Fatal("new button not marked for the editor")
	}
	buttons, _ := host.lastTree().Root(settings.RootButtons)
	node, _ := buttons.Child("17")
	if node.Expansion != settings.Expanded {
		t.Fatalf("new button node expansion = %q", node.Expansion)
	}
}

func TestUnknownProfileAnnotatesTree(t *testing.T) {
	host := &bareHost{}
	c, _ := startController(t, host, "", Options{})
	flush(t, c)
	before := c.Config()

	c.HandleAction(settings.Action{Kind: settings.Update, Path: []string{settings.RootGeneral, settings.FieldMapping}, Value: "Nope"})
	flush(t, c)

	if host.saveCount() != 1 {
		t.Fatal("failed selection was persisted")
	}
	if !c.Config().Equal(before) {
		t.Fatal("failed selection changed the configuration")
	}
	general, _ := host.lastTree().Root(settings.RootGeneral)
	f, _ := general.Field(settings.FieldMapping)
	if f.Error == "" {
		t.Fatal("mapping field has no error")
	}

	// The next successful edit clears the annotation.
	c.HandleAction(settings.Action{Kind: settings.Update, Path: []string{settings.RootGeneral, settings.FieldMapping}, Value: mapping.Custom})
	flush(t, c)
	general, _ = host.lastTree().Root(settings.RootGeneral)
	if f, _ := general.Field(settings.FieldMapping); f.Error != "" {
		t.Fatalf("error not cleared: %q", f.Error)
	}
}

func TestReadOnlyRender(t *testing.T) {
	host := &busHost{}
	c, _ := startController(t, host, `{"topic":"/joy"}`, Options{ReadOnly: true})

	state := RenderState{
		Topics: []transport.Topic{
			{Name: "/joy", Schema: "sensor_msgs/Joy"},
			{Name: "/image", Schema: "sensor_msgs/Image"},
		},
		CurrentFrame: []transport.MessageEvent{
			joyFrame(t, "/joy", "sensor_msgs/Joy", joy.Joy{Buttons: []int{0}}),
			joyFrame(t, "/other", "sensor_msgs/Joy", joy.Joy{Buttons: []int{0}}),
			joyFrame(t, "/joy", "sensor_msgs/Joy", joy.Joy{Axes: []float64{0.5, 0}, Buttons: []int{1}}),
		},
	}
	rendered := make(chan struct{})
	c.Render(state, func() { close(rendered) })
	select {
	case <-rendered:
	case <-time.After(2 * time.Second):
		t.Fatal("done not called")
	}

	v := host.lastView()
	if v.Placeholder || v.Source != "/joy" {
		t.Fatalf("view = %+v", v)
	}
	if !v.Buttons[0].Active || v.Buttons[0].Name != "CROSS" {
		t.Fatalf("CROSS = %+v", v.Buttons[0])
	}
	if d := v.Directionals[0]; !d.Active || d.Left != 75 || d.Top != 50 {
		t.Fatalf("left stick = %+v", d)
	}

	general, _ := host.lastTree().Root(settings.RootGeneral)
	topic, _ := general.Field(settings.FieldTopic)
	if topic.Input != settings.InputSelect || len(topic.Options) != 1 {
		t.Fatalf("topic field = %+v", topic)
	}
	if calls := host.callLog(); len(calls) != 1 || calls[0] != "subscribe /joy" {
		t.Fatalf("calls = %v", calls)
	}

	c.HandleAction(settings.Action{Kind: settings.Update, Path: []string{settings.RootGeneral, settings.FieldTopic}, Value: "/joy2"})
	flush(t, c)
	if calls := host.callLog(); calls[len(calls)-1] != "subscribe /joy2" {
		t.Fatalf("calls = %v", calls)
	}
	if !host.lastView().Placeholder {
		t.Fatal("snapshot of the previous topic still shown")
	}
}

func renderSync(t *testing.T, c *Controller, state RenderState) {
	t.Helper()
	rendered := make(chan struct{})
	c.Render(state, func() { close(rendered) })
	select {
	case <-rendered:
	case <-time.After(2 * time.Second):
		t.Fatal("done not called")
	}
}

func TestReadOnlySourceRemoved(t *testing.T) {
	host := &busHost{}
	c, _ := startController(t, host, `{"topic":"/joy"}`, Options{ReadOnly: true})

	renderSync(t, c, RenderState{
		Topics:       []transport.Topic{{Name: "/joy", Schema: "sensor_msgs/Joy"}},
		CurrentFrame: []transport.MessageEvent{joyFrame(t, "/joy", "sensor_msgs/Joy", joy.Joy{Buttons: []int{1}})},
	})
	if host.lastView().Placeholder {
		t.Fatal("message not shown")
	}

	// A frame with no topic change keeps the last message.
	renderSync(t, c, RenderState{})
	if host.lastView().Placeholder {
		t.Fatal("snapshot dropped without a topic change")
	}

	renderSync(t, c, RenderState{Topics: []transport.Topic{{Name: "/other", Schema: "sensor_msgs/Joy"}}})
	if !host.lastView().Placeholder {
		t.Fatal("last frame of a vanished source still shown")
	}
}

func TestLiveTopicChangeReadvertises(t *testing.T) {
	host := &busHost{}
	c, cancel := startController(t, host, "", Options{})

	c.HandleAction(settings.Action{Kind: settings.Update, Path: []string{settings.RootGeneral, settings.FieldTopic}, Value: "/pad"})
	flush(t, c)
	if c.Config().MappingName != mapping.DefaultProfile {
		t.Fatal("topic change switched the profile")
	}

	cancel()
	<-c.done

	want := []string{
		"advertise /joy sensor_msgs/Joy",
		"unadvertise /joy",
		"advertise /pad sensor_msgs/Joy",
		"unadvertise /pad",
	}
	calls := host.callLog()
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}

func TestLiveDevices(t *testing.T) {
	host := &busHost{}
	c, _ := startController(t, host, "", Options{FrameID: "pad"})

	first := gamepad.Device{ID: 1, Name: "first", Axes: []float64{0, 0}, Buttons: []int{1}}
	second := gamepad.Device{ID: 2, Name: "second", Axes: []float64{0, 0}, Buttons: []int{0, 1}}

	c.OnConnect(first)
	c.OnConnect(second)
	c.OnUpdate(second) // not the active device
	c.OnUpdate(first)
	flush(t, c)

	v := host.lastView()
	if v.Placeholder || v.Source != "first" || !v.Buttons[0].Active {
		t.Fatalf("view = %+v", v)
	}
	host.mu.Lock()
	pubs := append([]published(nil), host.published...)
	host.mu.Unlock()
	if len(pubs) != 1 || pubs[0].topic != "/joy" {
		t.Fatalf("published = %+v", pubs)
	}
	msg := pubs[0].msg.(joy.Joy)
	if msg.Header.FrameID != "pad" || msg.Buttons[0] != 1 {
		t.Fatalf("message = %+v", msg)
	}

	c.OnDisconnect(first)
	flush(t, c)
	if !host.lastView().Placeholder {
		t.Fatal("disconnect of the active device should clear the view")
	}

	c.OnUpdate(second)
	flush(t, c)
	if v := host.lastView(); v.Source != "second" || !v.Buttons[1].Active {
		t.Fatalf("promoted view = %+v", v)
	}

	c.OnDisconnect(second)
	flush(t, c)
	if !host.lastView().Placeholder {
		t.Fatal("view should be the placeholder with no devices")
	}
}

func TestBareHostToleratesMissingCapabilities(t *testing.T) {
	host := &bareHost{saveErr: errors.New("disk full")}
	c, _ := startController(t, host, "", Options{})

	c.OnConnect(gamepad.Device{ID: 1, Name: "pad"})
	c.OnUpdate(gamepad.Device{ID: 1, Name: "pad", Buttons: []int{1}})
	c.HandleAction(settings.Action{Kind: settings.Update, Path: []string{settings.RootGeneral, settings.FieldTopic}, Value: "/x"})
	flush(t, c)

	if c.Config().Topic != "/x" {
		t.Fatal("edit not applied when saving fails")
	}
	if host.lastView().Placeholder {
		t.Fatal("view not updated")
	}
}
