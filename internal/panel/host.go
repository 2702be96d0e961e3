package panel

import (
	"github.com/soar/joyview/internal/config"
	"github.com/soar/joyview/internal/settings"
	"github.com/soar/joyview/internal/transport"
	"github.com/soar/joyview/internal/view"
)

// Render-state fields a panel can declare interest in.
const (
	WatchTopics       = "topics"
	WatchCurrentFrame = "currentFrame"
)

// Host is the runtime a panel is embedded in.
type Host interface {
	// SaveState persists a configuration. It is called after every change
	// with editor-only flags already stripped.
	SaveState(cfg config.Config) error
	UpdateSettings(tree settings.Tree)
	UpdateView(v view.View)
}

// Optional host capabilities. A host that lacks one simply does not offer the
// feature.
type (
	Subscriber interface {
		Subscribe(topics []string) error
	}
	Advertiser interface {
		Advertise(topic, schema string) error
		Unadvertise(topic string) error
	}
	Publisher interface {
		Publish(topic string, msg any) error
	}
)

// RenderState is what the host hands to Render. Topics is nil when the topic
// list has not changed since the previous render.
type RenderState struct {
	Topics       []transport.Topic
	CurrentFrame []transport.MessageEvent
}

// Renderer is the render callback a host drives.
type Renderer interface {
	Watches() []string
	Render(state RenderState, done func())
}
